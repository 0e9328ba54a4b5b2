package common

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ConfigPathEnv names the optional YAML file layered over the defaults.
const ConfigPathEnv = "PROJECT_GEOTAGGER_CONFIG"

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Model    ModelConfig    `yaml:"model"`
	PDF      PDFConfig      `yaml:"pdf"`
	Oracle   OracleConfig   `yaml:"oracle"`
	Training TrainingConfig `yaml:"training"`
	Storage  StorageConfig  `yaml:"storage"`
	Paths    PathsConfig    `yaml:"paths"`
	Metrics  MetricsConfig  `yaml:"metrics"`
	Log      LogConfig      `yaml:"log"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxConns        int32         `yaml:"maxConns"`
	MinConns        int32         `yaml:"minConns"`
	MaxConnLifetime time.Duration `yaml:"maxConnLifetime"`
	MaxConnIdleTime time.Duration `yaml:"maxConnIdleTime"`
	DialTimeout     time.Duration `yaml:"dialTimeout"`
}

// ModelConfig describes the token-classification model and its serving endpoint.
type ModelConfig struct {
	Name          string        `yaml:"name"`
	TokenizerFile string        `yaml:"tokenizerFile"`
	TritonURL     string        `yaml:"tritonUrl"`
	TritonModel   string        `yaml:"tritonModel"`
	MaxLength     int           `yaml:"maxLength"`
	ContextWindow int           `yaml:"contextWindow"`
	Timeout       time.Duration `yaml:"timeout"`
}

// PDFConfig holds text extraction settings
type PDFConfig struct {
	Pdftotext  string `yaml:"pdftotext"`
	Layout     bool   `yaml:"layout"`
	MaxPages   int    `yaml:"maxPages"`
	SkipHidden bool   `yaml:"skipHidden"`

	// OCR fallback for pages without a text layer
	OCR           bool   `yaml:"ocr"`
	Pdftoppm      string `yaml:"pdftoppm"`
	Tesseract     string `yaml:"tesseract"`
	TesseractLang string `yaml:"tesseractLang"`
	TessdataDir   string `yaml:"tessdataDir"`
	DPI           int    `yaml:"dpi"`
}

// OracleConfig holds generative fallback settings
type OracleConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Provider    string        `yaml:"provider"`
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"apiKey"`
	BaseURL     string        `yaml:"baseUrl"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
}

// TrainingConfig holds fine-tuning job settings
type TrainingConfig struct {
	BatchSize    int           `yaml:"batchSize"`
	Epochs       int           `yaml:"epochs"`
	LearningRate float64       `yaml:"learningRate"`
	OutputRoot   string        `yaml:"outputRoot"`
	Namespace    string        `yaml:"namespace"`
	Image        string        `yaml:"image"`
	CPU          string        `yaml:"cpu"`
	Memory       string        `yaml:"memory"`
	GPUs         int64         `yaml:"gpus"`
	JobTTL       time.Duration `yaml:"jobTtl"`
	Kubeconfig   string        `yaml:"kubeconfig"`
}

// StorageConfig holds object storage settings for training artifacts
type StorageConfig struct {
	Bucket   string `yaml:"bucket"`
	Prefix   string `yaml:"prefix"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"`
}

// PathsConfig holds filesystem locations used by the commands
type PathsConfig struct {
	Annotations     string `yaml:"annotations"`
	PDFDir          string `yaml:"pdfDir"`
	Mentions        string `yaml:"mentions"`
	Geolocated      string `yaml:"geolocated"`
	CoordinateTable string `yaml:"coordinateTable"`
	DatasetDir      string `yaml:"datasetDir"`
}

// MetricsConfig controls the prometheus endpoint
type MetricsConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig controls the slog handler
type LogConfig struct {
	Level string `yaml:"level"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			MaxConns:        10,
			MinConns:        1,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Model: ModelConfig{
			Name:          "bert-base-cased",
			TritonURL:     "http://localhost:8000",
			TritonModel:   "project_ner",
			MaxLength:     512,
			ContextWindow: 150,
			Timeout:       30 * time.Second,
		},
		PDF: PDFConfig{
			Pdftotext:     "pdftotext",
			SkipHidden:    true,
			Pdftoppm:      "pdftoppm",
			Tesseract:     "tesseract",
			TesseractLang: "eng",
			DPI:           300,
		},
		Oracle: OracleConfig{
			Enabled:  true,
			Provider: "gemini",
			Model:    "gemini-2.0-flash",
			Timeout:  30 * time.Second,
		},
		Training: TrainingConfig{
			BatchSize:    8,
			Epochs:       3,
			LearningRate: 5e-5,
			OutputRoot:   "output",
			Namespace:    "default",
			Image:        "project-ner-trainer:latest",
			CPU:          "4",
			Memory:       "16Gi",
			JobTTL:       24 * time.Hour,
		},
		Storage: StorageConfig{
			Prefix: "datasets",
			Region: "us-east-1",
		},
		Paths: PathsConfig{
			Annotations: "data/annotations.json",
			PDFDir:      "data/pdfs",
			Mentions:    "output/ner_predictions.jsonl",
			Geolocated:  "output/ner_predictions_with_geo.jsonl",
			DatasetDir:  "output/dataset",
		},
		Log: LogConfig{Level: "info"},
	}
}

// LoadConfig loads .env, the optional YAML file and environment overrides, in that order
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("config.dotenv.error", "error", err)
	}

	cfg := DefaultConfig()
	if path := os.Getenv(ConfigPathEnv); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError(CodeConfig, "read "+path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, NewAppError(CodeConfig, "parse "+path, err)
		}
	}
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)

	c.Model.Name = getEnv("MODEL_NAME", c.Model.Name)
	c.Model.TokenizerFile = getEnv("TOKENIZER_FILE", c.Model.TokenizerFile)
	c.Model.TritonURL = getEnv("TRITON_URL", c.Model.TritonURL)
	c.Model.TritonModel = getEnv("TRITON_MODEL", c.Model.TritonModel)
	c.Model.MaxLength = getEnvAsInt("MODEL_MAX_LENGTH", c.Model.MaxLength)
	c.Model.ContextWindow = getEnvAsInt("CONTEXT_WINDOW", c.Model.ContextWindow)
	c.Model.Timeout = getEnvAsDuration("MODEL_TIMEOUT", c.Model.Timeout)

	c.PDF.Pdftotext = getEnv("PDFTOTEXT_BIN", c.PDF.Pdftotext)
	c.PDF.Layout = getEnvAsBool("PDF_LAYOUT", c.PDF.Layout)
	c.PDF.MaxPages = getEnvAsInt("PDF_MAX_PAGES", c.PDF.MaxPages)
	c.PDF.SkipHidden = getEnvAsBool("PDF_SKIP_HIDDEN", c.PDF.SkipHidden)
	c.PDF.OCR = getEnvAsBool("PDF_OCR", c.PDF.OCR)
	c.PDF.Pdftoppm = getEnv("PDFTOPPM_BIN", c.PDF.Pdftoppm)
	c.PDF.Tesseract = getEnv("TESSERACT_BIN", c.PDF.Tesseract)
	c.PDF.TesseractLang = getEnv("TESSERACT_LANG", c.PDF.TesseractLang)
	c.PDF.TessdataDir = getEnv("TESSDATA_DIR", c.PDF.TessdataDir)
	c.PDF.DPI = getEnvAsInt("OCR_DPI", c.PDF.DPI)

	c.Oracle.Enabled = getEnvAsBool("ORACLE_ENABLED", c.Oracle.Enabled)
	c.Oracle.Provider = getEnv("ORACLE_PROVIDER", c.Oracle.Provider)
	c.Oracle.Model = getEnv("ORACLE_MODEL", c.Oracle.Model)
	c.Oracle.BaseURL = getEnv("ORACLE_BASE_URL", c.Oracle.BaseURL)
	c.Oracle.Temperature = getEnvAsFloat32("ORACLE_TEMPERATURE", c.Oracle.Temperature)
	c.Oracle.Timeout = getEnvAsDuration("ORACLE_TIMEOUT", c.Oracle.Timeout)
	switch strings.ToLower(c.Oracle.Provider) {
	case "openai":
		c.Oracle.APIKey = getEnv("OPENAI_API_KEY", c.Oracle.APIKey)
	default:
		c.Oracle.APIKey = getEnv("GEMINI_API_KEY", c.Oracle.APIKey)
	}

	c.Training.BatchSize = getEnvAsInt("TRAIN_BATCH_SIZE", c.Training.BatchSize)
	c.Training.Epochs = getEnvAsInt("TRAIN_EPOCHS", c.Training.Epochs)
	c.Training.LearningRate = getEnvAsFloat64("TRAIN_LEARNING_RATE", c.Training.LearningRate)
	c.Training.OutputRoot = getEnv("TRAIN_OUTPUT_ROOT", c.Training.OutputRoot)
	c.Training.Namespace = getEnv("TRAIN_NAMESPACE", c.Training.Namespace)
	c.Training.Image = getEnv("TRAIN_IMAGE", c.Training.Image)
	c.Training.CPU = getEnv("TRAIN_CPU", c.Training.CPU)
	c.Training.Memory = getEnv("TRAIN_MEMORY", c.Training.Memory)
	c.Training.GPUs = int64(getEnvAsInt("TRAIN_GPUS", int(c.Training.GPUs)))
	c.Training.JobTTL = getEnvAsDuration("TRAIN_JOB_TTL", c.Training.JobTTL)
	c.Training.Kubeconfig = getEnv("KUBECONFIG", c.Training.Kubeconfig)

	c.Storage.Bucket = getEnv("S3_BUCKET", c.Storage.Bucket)
	c.Storage.Prefix = getEnv("S3_PREFIX", c.Storage.Prefix)
	c.Storage.Region = getEnv("AWS_REGION", c.Storage.Region)
	c.Storage.Endpoint = getEnv("S3_ENDPOINT", c.Storage.Endpoint)

	c.Paths.Annotations = getEnv("ANNOTATIONS_PATH", c.Paths.Annotations)
	c.Paths.PDFDir = getEnv("PDF_DIR", c.Paths.PDFDir)
	c.Paths.Mentions = getEnv("MENTIONS_PATH", c.Paths.Mentions)
	c.Paths.Geolocated = getEnv("GEOLOCATED_PATH", c.Paths.Geolocated)
	c.Paths.CoordinateTable = getEnv("COORDINATE_TABLE", c.Paths.CoordinateTable)
	c.Paths.DatasetDir = getEnv("DATASET_DIR", c.Paths.DatasetDir)

	c.Metrics.Addr = getEnv("METRICS_ADDR", c.Metrics.Addr)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
}

// OracleActive reports whether the generative fallback should be consulted.
func (c *Config) OracleActive() bool {
	return c.Oracle.Enabled && c.Oracle.APIKey != ""
}

// SlogLevel maps the configured level name onto slog.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	v := NewValidator()
	v.Field("model.name", c.Model.Name, Required)
	v.Field("model.contextWindow", c.Model.ContextWindow, NonNegative)
	v.Field("training.batchSize", c.Training.BatchSize, Positive)
	v.Field("training.epochs", c.Training.Epochs, Positive)
	switch strings.ToLower(c.Oracle.Provider) {
	case "gemini", "openai":
	default:
		v.Field("oracle.provider", c.Oracle.Provider, func(field string, value interface{}) *ValidationError {
			return &ValidationError{Field: field, Value: value, Message: "must be gemini or openai"}
		})
	}
	if c.Database.MinConns > c.Database.MaxConns {
		v.Field("database.minConns", c.Database.MinConns, func(field string, value interface{}) *ValidationError {
			return &ValidationError{Field: field, Value: value, Message: fmt.Sprintf("must not exceed maxConns (%d)", c.Database.MaxConns)}
		})
	}
	if v.HasErrors() {
		return NewAppError(CodeConfig, v.ErrorMessage(), ErrInvalidInput)
	}
	return nil
}
