package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/dataset"
	"github.com/joseph-ayodele/project-geotagger/internal/export"
	"github.com/joseph-ayodele/project-geotagger/internal/geo"
	"github.com/joseph-ayodele/project-geotagger/internal/metrics"
	"github.com/joseph-ayodele/project-geotagger/internal/ner"
	"github.com/joseph-ayodele/project-geotagger/internal/pdf"
	"github.com/joseph-ayodele/project-geotagger/internal/pipeline"
	repo "github.com/joseph-ayodele/project-geotagger/internal/repository"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir       = flag.String("dir", "", "directory of PDFs to scan (defaults to config paths.pdfDir)")
		out       = flag.String("out", "", "output JSONL path (defaults to config paths.mentions)")
		geolocate = flag.Bool("geolocate", false, "resolve coordinates in the same pass")
		useDB     = flag.Bool("db", false, "also upsert mentions into the database (DB_URL)")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *dir != "" {
		cfg.Paths.PDFDir = *dir
	}
	if *out != "" {
		cfg.Paths.Mentions = *out
	}
	if cfg.Model.TokenizerFile == "" {
		printError("Error: TOKENIZER_FILE (model.tokenizerFile) is required\n")
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	runID := uuid.NewString()
	ctx = common.WithRunID(ctx, runID)

	m := metrics.New(nil)
	m.Serve(ctx, cfg.Metrics.Addr, logger)

	enc, err := dataset.NewSugarmeEncoder(cfg.Model.TokenizerFile, cfg.Model.MaxLength)
	if err != nil {
		logger.Error("failed to load tokenizer", "path", cfg.Model.TokenizerFile, "error", err)
		os.Exit(1)
	}
	model := ner.NewTritonModel(ner.TritonConfig{
		BaseURL: cfg.Model.TritonURL,
		Model:   cfg.Model.TritonModel,
		Timeout: cfg.Model.Timeout,
	}, enc, dataset.DefaultLabelMap(), logger)

	pages := pdf.NewExtractor(pdf.Config{
		Pdftotext:     cfg.PDF.Pdftotext,
		Layout:        cfg.PDF.Layout,
		MaxPages:      cfg.PDF.MaxPages,
		OCR:           cfg.PDF.OCR,
		Pdftoppm:      cfg.PDF.Pdftoppm,
		Tesseract:     cfg.PDF.Tesseract,
		TesseractLang: cfg.PDF.TesseractLang,
		TessdataDir:   cfg.PDF.TessdataDir,
		DPI:           cfg.PDF.DPI,
	}, logger)
	infer := pipeline.NewInferStage(pages, ner.NewExtractor(model, cfg.Model.ContextWindow, logger), m, logger)

	var resolve *pipeline.ResolveStage
	if *geolocate {
		table := geo.DefaultTable()
		if cfg.Paths.CoordinateTable != "" {
			extra, err := geo.LoadTable(cfg.Paths.CoordinateTable)
			if err != nil {
				logger.Error("failed to load coordinate table", "path", cfg.Paths.CoordinateTable, "error", err)
				os.Exit(1)
			}
			table = table.Merge(extra)
		}
		chain, closeOracle, err := pipeline.NewResolver(ctx, cfg.Oracle, table, m, logger)
		if err != nil {
			logger.Error("failed to build resolver", "error", err)
			os.Exit(1)
		}
		defer func() { _ = closeOracle() }()
		resolve = pipeline.NewResolveStage(chain, m, logger)
	}

	w, err := export.CreateJSONL(cfg.Paths.Mentions)
	if err != nil {
		logger.Error("failed to open output", "path", cfg.Paths.Mentions, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("failed to close output", "error", err)
		}
	}()
	sinks := []pipeline.Sink{pipeline.JSONLSink(w)}

	if *useDB {
		db, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close(logger)
		mentions := repo.NewMentionRepository(db, logger)
		if err := mentions.EnsureSchema(ctx); err != nil {
			logger.Error("failed to prepare schema", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pipeline.RepositorySink(mentions))
	}

	proc := pipeline.NewProcessor(logger, infer, resolve)
	stats, err := proc.Run(ctx, cfg.Paths.PDFDir, cfg.PDF.SkipHidden, pipeline.Tee(sinks...))
	if err != nil {
		logger.Error("inference run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Inference complete!\n")
	fmt.Printf("- Documents: %d\n", stats.Documents)
	fmt.Printf("- Skipped: %d\n", stats.Skipped)
	fmt.Printf("- Mentions: %d\n", stats.Mentions)
	fmt.Printf("- Output: %s\n", cfg.Paths.Mentions)
}
