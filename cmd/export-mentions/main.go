package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/export"
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
		in    = flag.String("in", "", "mentions JSONL to export (defaults to config paths.geolocated)")
		out   = flag.String("out", "", "output XLSX file path (defaults to mentions.xlsx next to the input)")
		useDB = flag.Bool("db", false, "export mentions stored in the database instead of a JSONL file")
		pdf   = flag.String("pdf", "", "with --db, only export mentions from this document")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *in != "" {
		cfg.Paths.Geolocated = *in
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(cfg.Paths.Geolocated), "mentions.xlsx")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	start := time.Now()

	var records []entity.MentionRecord
	if *useDB {
		db, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close(logger)
		records, err = repo.NewMentionRepository(db, logger).List(ctx, *pdf)
		if err != nil {
			logger.Error("failed to list mentions", "error", err)
			os.Exit(1)
		}
	} else {
		records, err = export.ReadJSONLFile(cfg.Paths.Geolocated)
		if err != nil {
			logger.Error("failed to read mentions", "path", cfg.Paths.Geolocated, "error", err)
			os.Exit(1)
		}
	}

	xlsxBytes, err := export.WriteXLSX(records)
	if err != nil {
		logger.Error("failed to export mentions", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("export.xlsx.ok",
		"rows", len(records),
		"output_file", *out,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	fmt.Printf("Export complete!\n")
	fmt.Printf("- Rows: %d\n", len(records))
	fmt.Printf("- Output: %s\n", *out)
}
