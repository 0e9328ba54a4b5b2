package pdf

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
)

// Page is the text of one PDF page. Number starts at 1.
type Page struct {
	Number int
	Text   string
}

// PageExtractor returns the ordered pages of a document.
type PageExtractor interface {
	ExtractPages(ctx context.Context, path string) ([]Page, error)
}

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Layout    bool   // pass -layout to pdftotext
	MaxPages  int    // 0 = no limit

	// OCR rasterizes pages with no text layer and reads them with tesseract.
	OCR           bool
	Pdftoppm      string // default "pdftoppm"
	Tesseract     string // default "tesseract"
	TesseractLang string // default "eng"
	TessdataDir   string
	DPI           int // default 300
}

// Extractor reads page text with poppler's pdftotext.
type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	return newExtractor(cfg, execRunner{}, logger)
}

func newExtractor(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	return &Extractor{cfg: cfg, runner: runner, logger: logger}
}

// ExtractPages runs pdftotext once over the whole file and splits the output
// on form feeds. Failures are reported as extraction errors.
func (e *Extractor) ExtractPages(ctx context.Context, path string) ([]Page, error) {
	start := time.Now()
	// pdftotext [-layout] -enc UTF-8 -eol unix <path> -
	args := []string{"-enc", "UTF-8", "-eol", "unix"}
	if e.cfg.Layout {
		args = append([]string{"-layout"}, args...)
	}
	if e.cfg.MaxPages > 0 {
		args = append(args, "-l", strconv.Itoa(e.cfg.MaxPages))
	}
	args = append(args, path, "-")

	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, e.logger, args...)
	if err != nil {
		e.logger.Error("pdf.extract.failed", "path", path, "stderr", truncate(string(errb), 512), "error", err)
		return nil, common.ExtractionFailure(path, err)
	}

	pages := SplitPages(string(out))
	ocred := 0
	if e.cfg.OCR {
		ocred = e.fillBlankPages(ctx, path, pages)
	}
	e.logger.Info("pdf.extract.ok", "path", path, "pages", len(pages), "ocr_pages", ocred, "elapsed_ms", time.Since(start).Milliseconds())
	return pages, nil
}

// SplitPages splits pdftotext output on form feeds. The empty segment after
// the final form feed is dropped.
func SplitPages(out string) []Page {
	parts := strings.Split(out, "\f")
	if n := len(parts); n > 1 && strings.TrimSpace(parts[n-1]) == "" {
		parts = parts[:n-1]
	}
	pages := make([]Page, 0, len(parts))
	for i, p := range parts {
		pages = append(pages, Page{Number: i + 1, Text: Normalize(p)})
	}
	return pages
}
