package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigLayersYAMLAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := "model:\n  name: roberta-base\n  contextWindow: 80\ntraining:\n  epochs: 5\noracle:\n  provider: openai\n  timeout: 10s\n"
	if err := os.WriteFile(path, []byte(yml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv(ConfigPathEnv, path)
	t.Setenv("TRAIN_EPOCHS", "7")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Model.Name != "roberta-base" {
		t.Errorf("model name = %q", cfg.Model.Name)
	}
	if cfg.Model.ContextWindow != 80 {
		t.Errorf("context window = %d", cfg.Model.ContextWindow)
	}
	if cfg.Training.Epochs != 7 {
		t.Errorf("epochs = %d, want env override 7", cfg.Training.Epochs)
	}
	if cfg.Training.BatchSize != 8 {
		t.Errorf("batch size = %d, want default 8", cfg.Training.BatchSize)
	}
	if cfg.Oracle.Timeout != 10*time.Second {
		t.Errorf("oracle timeout = %v", cfg.Oracle.Timeout)
	}
	if cfg.Oracle.APIKey != "sk-test" || !cfg.OracleActive() {
		t.Errorf("oracle key not picked up: %+v", cfg.Oracle)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	t.Setenv(ConfigPathEnv, filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig()
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != CodeConfig {
		t.Fatalf("expected config AppError, got %v", err)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Training.BatchSize = 0
	cfg.Oracle.Provider = "claude"
	err := cfg.Validate()
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestOracleInactiveWithoutKey(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.OracleActive() {
		t.Fatal("oracle should be inactive without an API key")
	}
}
