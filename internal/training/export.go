package training

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// ExportTrainer stages the dataset and a training.json run description in the
// model output directory for an external runner to pick up.
type ExportTrainer struct {
	logger *slog.Logger
}

func NewExportTrainer(logger *slog.Logger) *ExportTrainer {
	if logger == nil {
		logger = slog.Default()
	}
	return &ExportTrainer{logger: logger}
}

type runDescription struct {
	Hyperparameters
	Labels   []string `json:"labels"`
	Dataset  string   `json:"dataset"`
	Manifest string   `json:"manifest"`
	Examples int      `json:"examples"`
}

func (t *ExportTrainer) Fit(ctx context.Context, ds Dataset) (ModelRef, error) {
	if err := ctx.Err(); err != nil {
		return ModelRef{}, err
	}
	dir := ds.Params.OutputDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return ModelRef{}, fmt.Errorf("create output dir: %w", err)
	}
	desc := runDescription{
		Hyperparameters: ds.Params,
		Labels:          ds.Labels,
		Dataset:         ds.TrainPath,
		Manifest:        ds.ManifestPath,
		Examples:        ds.Examples,
	}
	raw, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return ModelRef{}, err
	}
	path := filepath.Join(dir, "training.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return ModelRef{}, fmt.Errorf("write run description: %w", err)
	}
	t.logger.Info("training.export.ok", "output_dir", dir, "examples", ds.Examples)
	return ModelRef{Name: ds.Params.BaseModel, Location: dir}, nil
}
