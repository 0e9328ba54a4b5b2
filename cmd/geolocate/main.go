package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/google/uuid"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/export"
	"github.com/joseph-ayodele/project-geotagger/internal/geo"
	"github.com/joseph-ayodele/project-geotagger/internal/metrics"
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
		in    = flag.String("in", "", "input mentions JSONL (defaults to config paths.mentions)")
		out   = flag.String("out", "", "output JSONL (defaults to config paths.geolocated)")
		table = flag.String("table", "", "extra coordinate table, yaml or json (defaults to config paths.coordinateTable)")
		useDB = flag.Bool("db", false, "read unresolved mentions and the project table from the database and write results back")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *in != "" {
		cfg.Paths.Mentions = *in
	}
	if *out != "" {
		cfg.Paths.Geolocated = *out
	}
	if *table != "" {
		cfg.Paths.CoordinateTable = *table
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

	coords := geo.DefaultTable()
	if cfg.Paths.CoordinateTable != "" {
		extra, err := geo.LoadTable(cfg.Paths.CoordinateTable)
		if err != nil {
			logger.Error("failed to load coordinate table", "path", cfg.Paths.CoordinateTable, "error", err)
			os.Exit(1)
		}
		coords = coords.Merge(extra)
	}

	var (
		records []entity.MentionRecord
		sinks   []pipeline.Sink
	)
	if *useDB {
		db, err := repo.Open(ctx, cfg.Database, logger)
		if err != nil {
			logger.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close(logger)

		projects := repo.NewProjectRepository(db, logger)
		mentions := repo.NewMentionRepository(db, logger)
		for _, ensure := range []func(context.Context) error{projects.EnsureSchema, mentions.EnsureSchema} {
			if err := ensure(ctx); err != nil {
				logger.Error("failed to prepare schema", "error", err)
				os.Exit(1)
			}
		}
		stored, err := projects.LoadTable(ctx)
		if err != nil {
			logger.Error("failed to load project table", "error", err)
			os.Exit(1)
		}
		coords = coords.Merge(stored)

		records, err = mentions.ListUnresolved(ctx)
		if err != nil {
			logger.Error("failed to list unresolved mentions", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, pipeline.SinkFunc(func(ctx context.Context, rec entity.MentionRecord) error {
			if rec.Coordinates == nil {
				return nil
			}
			return mentions.SetCoordinates(ctx, rec.ID(), *rec.Coordinates, constants.ResolutionSource(rec.Source))
		}))
	} else {
		records, err = export.ReadJSONLFile(cfg.Paths.Mentions)
		if err != nil {
			logger.Error("failed to read mentions", "path", cfg.Paths.Mentions, "error", err)
			os.Exit(1)
		}
	}

	w, err := export.CreateJSONL(cfg.Paths.Geolocated)
	if err != nil {
		logger.Error("failed to open output", "path", cfg.Paths.Geolocated, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := w.Close(); err != nil {
			logger.Error("failed to close output", "error", err)
		}
	}()
	sinks = append(sinks, pipeline.JSONLSink(w))

	chain, closeOracle, err := pipeline.NewResolver(ctx, cfg.Oracle, coords, m, logger)
	if err != nil {
		logger.Error("failed to build resolver", "error", err)
		os.Exit(1)
	}
	defer func() { _ = closeOracle() }()

	stats, err := pipeline.NewResolveStage(chain, m, logger).Run(ctx, records, pipeline.Tee(sinks...))
	if err != nil {
		logger.Error("geolocation run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Geolocation complete!\n")
	fmt.Printf("- Records: %d\n", stats.Total)
	for src, n := range stats.Sources {
		fmt.Printf("- %s: %d\n", src, n)
	}
	fmt.Printf("- Output: %s\n", cfg.Paths.Geolocated)
}
