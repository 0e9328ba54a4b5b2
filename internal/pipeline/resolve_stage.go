package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/metrics"
)

// RecordResolver attaches coordinates to a record when it has none.
type RecordResolver interface {
	ResolveRecord(ctx context.Context, rec entity.MentionRecord) entity.MentionRecord
}

// ResolveStage geolocates mention records one at a time.
type ResolveStage struct {
	Resolver RecordResolver
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
}

// ResolveStats counts records by the layer that produced their coordinates.
type ResolveStats struct {
	Total   int
	Sources map[constants.ResolutionSource]int
}

func NewResolveStage(resolver RecordResolver, m *metrics.Metrics, logger *slog.Logger) *ResolveStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResolveStage{Resolver: resolver, Metrics: m, Logger: logger}
}

// Resolve never fails; unresolved records come back with nil coordinates.
func (s *ResolveStage) Resolve(ctx context.Context, rec entity.MentionRecord) entity.MentionRecord {
	out := s.Resolver.ResolveRecord(ctx, rec)
	src := constants.ResolutionSource(out.Source)
	if src == "" {
		src = constants.SourceUnresolved
		if out.Coordinates != nil {
			src = constants.SourcePreset
		}
	}
	s.Metrics.Resolved(src)
	return out
}

// Run resolves records in order and hands each to sink as soon as it is done.
// Only a sink failure or cancellation stops the run.
func (s *ResolveStage) Run(ctx context.Context, records []entity.MentionRecord, sink Sink) (ResolveStats, error) {
	stats := ResolveStats{Sources: map[constants.ResolutionSource]int{}}
	for _, rec := range records {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		out := s.Resolve(ctx, rec)
		if err := sink.Put(ctx, out); err != nil {
			return stats, err
		}
		stats.Total++
		stats.Sources[constants.ResolutionSource(out.Source)]++
	}
	s.Logger.Info("resolve.run.ok",
		"records", stats.Total,
		"lookup", stats.Sources[constants.SourceLookup],
		"oracle", stats.Sources[constants.SourceOracle],
		"preset", stats.Sources[constants.SourcePreset],
		"unresolved", stats.Sources[constants.SourceUnresolved],
	)
	return stats, nil
}
