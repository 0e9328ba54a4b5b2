package geo

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/llm"
)

// Strategy is one layer of the resolution chain. A nil result means the
// next strategy should be tried.
type Strategy interface {
	Source() constants.ResolutionSource
	Resolve(ctx context.Context, projectName, contextSentence string) *entity.Coordinates
}

// LookupStrategy answers from the reference table.
type LookupStrategy struct {
	table  *Table
	logger *slog.Logger
}

func NewLookupStrategy(table *Table, logger *slog.Logger) *LookupStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &LookupStrategy{table: table, logger: logger}
}

func (s *LookupStrategy) Source() constants.ResolutionSource { return constants.SourceLookup }

func (s *LookupStrategy) Resolve(_ context.Context, projectName, _ string) *entity.Coordinates {
	c, ok := s.table.Lookup(projectName)
	if !ok {
		return nil
	}
	s.logger.Info("geo.lookup.hit", "project", projectName, "lat", c.Lat, "lon", c.Lon)
	return &c
}

// OracleObserver is notified of every oracle call outcome.
type OracleObserver interface {
	ObserveOracle(status string, elapsed time.Duration)
}

// Oracle call outcomes reported to OracleObserver.
const (
	OracleOK      = "ok"
	OracleUnknown = "unknown"
	OracleNoParse = "unparsed"
	OracleError   = "error"
	OracleInvalid = "invalid"
)

// OracleStrategy asks a text completion oracle. Errors are logged and
// reported as no result.
type OracleStrategy struct {
	oracle   llm.Oracle
	observer OracleObserver
	logger   *slog.Logger
}

func NewOracleStrategy(oracle llm.Oracle, observer OracleObserver, logger *slog.Logger) *OracleStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &OracleStrategy{oracle: oracle, observer: observer, logger: logger}
}

func (s *OracleStrategy) Source() constants.ResolutionSource { return constants.SourceOracle }

func (s *OracleStrategy) Resolve(ctx context.Context, projectName, contextSentence string) *entity.Coordinates {
	start := time.Now()
	reply, err := s.oracle.Complete(ctx, BuildPrompt(projectName, contextSentence))
	if err != nil {
		s.logger.Error("geo.oracle.error", "project", projectName, "error", err)
		s.observe(OracleError, start)
		return nil
	}
	s.logger.Info("geo.oracle.reply", "project", projectName, "reply", reply)

	c := ParseCoordinates(reply)
	switch {
	case c == nil && containsUnknown(reply):
		s.observe(OracleUnknown, start)
	case c == nil:
		s.observe(OracleNoParse, start)
	case !c.Valid():
		s.logger.Warn("geo.oracle.out_of_range", "project", projectName, "lat", c.Lat, "lon", c.Lon)
		s.observe(OracleInvalid, start)
		return nil
	default:
		s.observe(OracleOK, start)
	}
	return c
}

func (s *OracleStrategy) observe(status string, start time.Time) {
	if s.observer != nil {
		s.observer.ObserveOracle(status, time.Since(start))
	}
}

// Chain tries each strategy in order and returns the first result.
type Chain struct {
	strategies []Strategy
	logger     *slog.Logger
}

func NewChain(logger *slog.Logger, strategies ...Strategy) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{strategies: strategies, logger: logger}
}

// Resolve returns the coordinates and the source that produced them, or nil
// and SourceUnresolved.
func (c *Chain) Resolve(ctx context.Context, projectName, contextSentence string) (*entity.Coordinates, constants.ResolutionSource) {
	for _, s := range c.strategies {
		if coords := s.Resolve(ctx, projectName, contextSentence); coords != nil {
			return coords, s.Source()
		}
	}
	c.logger.Info("geo.resolve.miss", "project", projectName)
	return nil, constants.SourceUnresolved
}

// ResolveRecord fills rec.Coordinates when it is empty. Records that already
// carry coordinates are returned unchanged.
func (c *Chain) ResolveRecord(ctx context.Context, rec entity.MentionRecord) entity.MentionRecord {
	if rec.Coordinates != nil {
		if rec.Source == "" {
			rec.Source = string(constants.SourcePreset)
		}
		return rec
	}
	coords, src := c.Resolve(ctx, rec.ProjectName, rec.ContextSentence)
	rec.Coordinates = coords
	rec.Source = string(src)
	return rec
}
