package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/ingest"
)

// Processor coordinates page extraction and NER for a directory of PDFs,
// then (when Resolve is set) geolocation of each mention.
type Processor struct {
	Logger  *slog.Logger
	Infer   *InferStage
	Resolve *ResolveStage
}

// RunStats summarizes one directory run.
type RunStats struct {
	Documents int
	Skipped   int
	Mentions  int
}

func NewProcessor(logger *slog.Logger, infer *InferStage, resolve *ResolveStage) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{Logger: logger, Infer: infer, Resolve: resolve}
}

// Run processes every PDF under root in lexical order, one document at a
// time. Records are named by their path relative to root and handed to sink
// as soon as they are produced. A document that cannot be read is logged,
// counted and skipped.
func (p *Processor) Run(ctx context.Context, root string, skipHidden bool, sink Sink) (RunStats, error) {
	var stats RunStats
	start := time.Now()
	log := common.LoggerFrom(ctx, p.Logger)

	paths, err := ingest.ListPDFs(root, skipHidden)
	if err != nil {
		return stats, fmt.Errorf("list pdfs: %w", err)
	}
	log.Info("processor.start", "root", root, "documents", len(paths))

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		name := documentName(root, path)
		n, err := p.ProcessFile(common.WithPDFFile(ctx, name), path, name, sink)
		if err != nil {
			if ctx.Err() != nil {
				return stats, ctx.Err()
			}
			if isSinkError(err) {
				return stats, err
			}
			log.Error("processor.document.skipped", "pdf_file", name, "error", err)
			p.Infer.Metrics.ExtractionFailed(stageInfer)
			stats.Skipped++
			continue
		}
		stats.Documents++
		stats.Mentions += n
	}

	log.Info("processor.done",
		"documents", stats.Documents,
		"skipped", stats.Skipped,
		"mentions", stats.Mentions,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return stats, nil
}

// ProcessFile runs one document through the stages and returns the number
// of records written.
func (p *Processor) ProcessFile(ctx context.Context, path, name string, sink Sink) (int, error) {
	recs, err := p.Infer.Run(ctx, path, name)
	if err != nil {
		return 0, err
	}
	for i, rec := range recs {
		if p.Resolve != nil {
			rec = p.Resolve.Resolve(ctx, rec)
		}
		if err := sink.Put(ctx, rec); err != nil {
			return i, sinkError{err}
		}
	}
	return len(recs), nil
}

type sinkError struct{ err error }

func (e sinkError) Error() string { return "write record: " + e.err.Error() }
func (e sinkError) Unwrap() error { return e.err }

func isSinkError(err error) bool {
	var se sinkError
	return errors.As(err, &se)
}

func documentName(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.Base(path)
	}
	return filepath.ToSlash(rel)
}
