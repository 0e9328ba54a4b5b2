package ner

import (
	"context"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
)

// DefaultWindow is the number of characters of context kept on each side of a mention.
const DefaultWindow = 150

// Extractor turns model predictions on a page into mention records.
type Extractor struct {
	model  Model
	window int
	logger *slog.Logger
}

func NewExtractor(model Model, window int, logger *slog.Logger) *Extractor {
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{model: model, window: window, logger: logger}
}

// Extract returns one record per PROJECT span on the page, with nil coordinates.
// Spans that are empty or fall outside the text are skipped with a warning.
func (e *Extractor) Extract(ctx context.Context, text, pdfFile string, page int) ([]entity.MentionRecord, error) {
	spans, err := e.model.Predict(ctx, text)
	if err != nil {
		return nil, common.WrapError(err, "predict")
	}
	n := len([]rune(text))
	var out []entity.MentionRecord
	for _, s := range spans {
		if s.EntityGroup != constants.EntityProject {
			continue
		}
		if s.Start < 0 || s.End > n || s.Start >= s.End {
			e.logger.Warn("ner.extract.invalid_span", "pdf_file", pdfFile, "page", page, "start", s.Start, "end", s.End, "text_len", n)
			continue
		}
		out = append(out, entity.MentionRecord{
			PDFFile:         pdfFile,
			PageNumber:      page,
			ProjectName:     s.Word,
			ContextSentence: ContextWindow(text, s.Start, s.End, e.window),
		})
	}
	e.logger.Debug("ner.extract.ok", "pdf_file", pdfFile, "page", page, "spans", len(spans), "mentions", len(out))
	return out, nil
}

// ContextWindow returns up to window runes before start, the mention, and up
// to window runes after end, with whitespace runs collapsed and the result
// trimmed. Offsets are clipped to the text; start == end yields only context.
func ContextWindow(text string, start, end, window int) string {
	runes := []rune(text)
	n := len(runes)
	start = clamp(start, n)
	end = clamp(end, n)
	if end < start {
		end = start
	}
	from := max(0, start-window)
	to := min(n, end+window)
	return strings.Join(strings.Fields(string(runes[from:to])), " ")
}
