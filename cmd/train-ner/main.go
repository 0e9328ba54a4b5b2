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
	"github.com/joseph-ayodele/project-geotagger/internal/training"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		annotations = flag.String("annotations", "", "annotation corpus JSON export (defaults to config paths.annotations)")
		datasetDir  = flag.String("dataset-dir", "", "directory for the aligned dataset (defaults to config paths.datasetDir)")
		trainerKind = flag.String("trainer", "export", "training backend: export (write dataset and hyperparameters) or k8s (submit a Job)")
		model       = flag.String("model", "", "base model name (overrides config model.name)")
	)
	flag.Parse()

	cfg, err := common.LoadConfig()
	if err != nil {
		printError("Error: loading config: %v\n", err)
		os.Exit(1)
	}
	if *annotations != "" {
		cfg.Paths.Annotations = *annotations
	}
	if *datasetDir != "" {
		cfg.Paths.DatasetDir = *datasetDir
	}
	if *model != "" {
		cfg.Model.Name = *model
	}
	if cfg.Paths.Annotations == "" {
		printError("Error: --annotations is required\n")
		os.Exit(1)
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

	enc, err := dataset.NewSugarmeEncoder(cfg.Model.TokenizerFile, cfg.Model.MaxLength)
	if err != nil {
		logger.Error("failed to load tokenizer", "path", cfg.Model.TokenizerFile, "error", err)
		os.Exit(1)
	}
	labels := dataset.DefaultLabelMap()
	aligner := dataset.NewAligner(enc, labels, logger)

	params := training.NewHyperparameters(cfg.Model.Name, cfg.Training.BatchSize, cfg.Training.Epochs, cfg.Training.LearningRate, cfg.Training.OutputRoot)

	var trainer training.Trainer
	switch *trainerKind {
	case "export":
		trainer = training.NewExportTrainer(logger)
	case "k8s":
		if cfg.Storage.Bucket == "" || cfg.Training.Image == "" {
			logger.Error("k8s trainer needs S3_BUCKET and TRAIN_IMAGE")
			os.Exit(1)
		}
		s3c, err := training.NewS3Client(ctx, cfg.Storage)
		if err != nil {
			logger.Error("failed to build s3 client", "error", err)
			os.Exit(1)
		}
		cs, err := training.NewClientset(cfg.Training.Kubeconfig)
		if err != nil {
			logger.Error("failed to build kubernetes client", "error", err)
			os.Exit(1)
		}
		store := training.NewS3DatasetStore(s3c, cfg.Storage.Bucket, cfg.Storage.Prefix)
		trainer = training.NewK8sJobTrainer(cs, store, training.JobConfigFrom(cfg.Training), logger)
	default:
		printError("Error: unknown --trainer %q (want export or k8s)\n", *trainerKind)
		os.Exit(1)
	}

	logger.Info("starting training run",
		"run_id", runID,
		"annotations", cfg.Paths.Annotations,
		"base_model", params.BaseModel,
		"trainer", *trainerKind,
	)
	driver := training.NewDriver(aligner, labels, trainer, params, cfg.Paths.DatasetDir, logger)
	ref, err := driver.Run(ctx, cfg.Paths.Annotations)
	if err != nil {
		logger.Error("training run failed", "run_id", runID, "error", err)
		os.Exit(1)
	}

	fmt.Printf("Training run complete!\n")
	fmt.Printf("- Run ID: %s\n", runID)
	fmt.Printf("- Model: %s\n", ref.Name)
	fmt.Printf("- Location: %s\n", ref.Location)
	if ref.JobName != "" {
		fmt.Printf("- Job: %s\n", ref.JobName)
	}
}
