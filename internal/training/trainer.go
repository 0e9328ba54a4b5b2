package training

import (
	"context"
	"path/filepath"
	"strings"
)

// Hyperparameters are passed unchanged to whatever runs the fine-tuning.
type Hyperparameters struct {
	BaseModel      string  `json:"base_model"`
	BatchSize      int     `json:"per_device_train_batch_size"`
	Epochs         int     `json:"num_train_epochs"`
	LearningRate   float64 `json:"learning_rate"`
	OutputDir      string  `json:"output_dir"`
	AddPrefixSpace bool    `json:"add_prefix_space"`
}

// NewHyperparameters fills in the derived fields for baseModel.
func NewHyperparameters(baseModel string, batchSize, epochs int, lr float64, outputRoot string) Hyperparameters {
	return Hyperparameters{
		BaseModel:      baseModel,
		BatchSize:      batchSize,
		Epochs:         epochs,
		LearningRate:   lr,
		OutputDir:      OutputDirFor(outputRoot, baseModel),
		AddPrefixSpace: strings.Contains(strings.ToLower(baseModel), "roberta"),
	}
}

// OutputDirFor returns <root>/<model with "/" replaced by "_">_model.
func OutputDirFor(root, baseModel string) string {
	return filepath.Join(root, strings.ReplaceAll(baseModel, "/", "_")+"_model")
}

// Dataset points at an aligned dataset written to disk.
type Dataset struct {
	TrainPath    string
	ManifestPath string
	Labels       []string
	Examples     int
	Params       Hyperparameters
}

// ModelRef identifies the artifact a training run produces.
type ModelRef struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	// JobName is set when the run was submitted to a cluster.
	JobName string `json:"job_name,omitempty"`
}

// Trainer fits a token classification model to an aligned dataset.
type Trainer interface {
	Fit(ctx context.Context, ds Dataset) (ModelRef, error)
}
