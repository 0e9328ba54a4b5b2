package pipeline

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/metrics"
	"github.com/joseph-ayodele/project-geotagger/internal/pdf"
)

const (
	stageInfer   = "infer"
	stageResolve = "resolve"
)

// MentionExtractor finds project mentions in one page of text.
type MentionExtractor interface {
	Extract(ctx context.Context, text, pdfFile string, page int) ([]entity.MentionRecord, error)
}

// InferStage turns a PDF into mention records with nil coordinates.
type InferStage struct {
	Pages   pdf.PageExtractor
	NER     MentionExtractor
	Metrics *metrics.Metrics
	Logger  *slog.Logger
}

func NewInferStage(pages pdf.PageExtractor, ner MentionExtractor, m *metrics.Metrics, logger *slog.Logger) *InferStage {
	if logger == nil {
		logger = slog.Default()
	}
	return &InferStage{Pages: pages, NER: ner, Metrics: m, Logger: logger}
}

// Run extracts every page of path and returns the mentions in page order,
// labelled with name. An unreadable document fails as a whole; a page the
// model cannot process is logged and skipped.
func (s *InferStage) Run(ctx context.Context, path, name string) ([]entity.MentionRecord, error) {
	start := time.Now()
	log := common.LoggerFrom(ctx, s.Logger)

	pages, err := s.Pages.ExtractPages(ctx, path)
	if err != nil {
		return nil, err
	}

	var out []entity.MentionRecord
	for _, p := range pages {
		if err := ctx.Err(); err != nil {
			return out, err
		}
		recs, err := s.NER.Extract(ctx, p.Text, name, p.Number)
		if err != nil {
			log.Warn("infer.page.failed", "page", p.Number, "error", err)
			s.Metrics.ExtractionFailed(stageInfer)
			continue
		}
		out = append(out, recs...)
	}
	s.Metrics.PagesProcessed(stageInfer, len(pages))
	s.Metrics.MentionsExtracted(stageInfer, len(out))

	log.Info("infer.document.ok",
		"pages", len(pages),
		"mentions", len(out),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return out, nil
}
