package training

import (
	"context"
	"log/slog"
	"time"

	"github.com/joseph-ayodele/project-geotagger/internal/annotation"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/dataset"
)

// Driver runs corpus loading, BIO conversion, subword alignment and training in order.
type Driver struct {
	loader     *annotation.Loader
	converter  *annotation.Converter
	aligner    *dataset.Aligner
	labels     dataset.LabelMap
	trainer    Trainer
	params     Hyperparameters
	datasetDir string
	logger     *slog.Logger
}

func NewDriver(aligner *dataset.Aligner, labels dataset.LabelMap, trainer Trainer, params Hyperparameters, datasetDir string, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{
		loader:     annotation.NewLoader(logger),
		converter:  annotation.NewConverter(logger),
		aligner:    aligner,
		labels:     labels,
		trainer:    trainer,
		params:     params,
		datasetDir: datasetDir,
		logger:     logger,
	}
}

// Run trains on the corpus at annotationsPath. Any corpus or alignment error aborts the run.
func (d *Driver) Run(ctx context.Context, annotationsPath string) (ModelRef, error) {
	start := time.Now()
	logger := common.LoggerFrom(ctx, d.logger)

	docs, err := d.loader.LoadFile(annotationsPath)
	if err != nil {
		return ModelRef{}, err
	}

	examples := make([]dataset.Example, 0, len(docs))
	flagged := 0
	for _, doc := range docs {
		tagged, report := d.converter.Convert(doc)
		if !report.Clean() {
			flagged++
		}
		examples = append(examples, dataset.FromTagged(tagged))
	}
	logger.Info("training.bio.ok", "records", len(docs), "flagged", flagged)

	rows, err := d.aligner.AlignBatch(examples)
	if err != nil {
		return ModelRef{}, err
	}

	trainPath, manifestPath, err := dataset.WriteDir(d.datasetDir, rows, dataset.Manifest{
		BaseModel: d.params.BaseModel,
		Labels:    d.labels.Labels(),
		Label2ID:  d.labels.Label2ID(),
	})
	if err != nil {
		return ModelRef{}, common.WrapError(err, "write dataset")
	}
	logger.Info("training.dataset.written", "path", trainPath, "examples", len(rows))

	ref, err := d.trainer.Fit(ctx, Dataset{
		TrainPath:    trainPath,
		ManifestPath: manifestPath,
		Labels:       d.labels.Labels(),
		Examples:     len(rows),
		Params:       d.params,
	})
	if err != nil {
		return ModelRef{}, common.WrapError(err, "fit")
	}
	logger.Info("training.run.ok", "model", ref.Name, "location", ref.Location, "job", ref.JobName, "elapsed_ms", time.Since(start).Milliseconds())
	return ref, nil
}
