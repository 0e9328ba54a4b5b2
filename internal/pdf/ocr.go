package pdf

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// lines made only of box-drawing or rule characters
var reBoxNoise = regexp.MustCompile(`(?m)^[ \t|_\-=~]{3,}$`)

// fillBlankPages replaces the text of pages without a text layer with OCR
// output. A page that fails OCR keeps its empty text. Returns the number of
// pages filled.
func (e *Extractor) fillBlankPages(ctx context.Context, path string, pages []Page) int {
	filled := 0
	for i := range pages {
		if strings.TrimSpace(pages[i].Text) != "" {
			continue
		}
		if ctx.Err() != nil {
			return filled
		}
		txt, err := e.ocrPage(ctx, path, pages[i].Number)
		if err != nil {
			e.logger.Warn("pdf.ocr.failed", "path", path, "page", pages[i].Number, "error", err)
			continue
		}
		if strings.TrimSpace(txt) == "" {
			continue
		}
		pages[i].Text = txt
		filled++
	}
	return filled
}

// ocrPage renders one page with pdftoppm and reads it with tesseract.
func (e *Extractor) ocrPage(ctx context.Context, path string, page int) (string, error) {
	tmpDir, err := os.MkdirTemp("", "geotagger-pp-*")
	if err != nil {
		return "", err
	}
	defer func() {
		if err := os.RemoveAll(tmpDir); err != nil {
			e.logger.Warn("pdf.ocr.cleanup_failed", "dir", tmpDir, "error", err)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	n := strconv.Itoa(page)
	// pdftoppm -f N -l N -r 300 -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, e.logger, "-f", n, "-l", n, "-r", strconv.Itoa(e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", fmt.Errorf("pdftoppm: %w: %s", err, truncate(string(errb), 256))
	}

	// pdftoppm names the image prefix-<page>.png, zero padded to the page count width
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if len(matches) == 0 {
		return "", fmt.Errorf("pdftoppm produced no image for page %d", page)
	}

	args := []string{matches[0], "stdout", "-l", e.cfg.TesseractLang}
	if e.cfg.TessdataDir != "" {
		args = append(args, "--tessdata-dir", e.cfg.TessdataDir)
	}
	// tesseract <file> stdout -l <lang>
	out, errb, err := e.runner.Run(ctx, e.cfg.Tesseract, e.logger, args...)
	if err != nil {
		return "", fmt.Errorf("tesseract: %w: %s", err, truncate(string(errb), 256))
	}
	return strings.TrimSpace(Normalize(reBoxNoise.ReplaceAllString(string(out), ""))), nil
}
