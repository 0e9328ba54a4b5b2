package providers

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/llm"
	"github.com/joseph-ayodele/project-geotagger/internal/llm/gemini"
	"github.com/joseph-ayodele/project-geotagger/internal/llm/openai"
)

// NewOracle builds the configured oracle. It returns a nil Oracle when the
// fallback is disabled or no API key is configured. The returned close
// function is always safe to call.
func NewOracle(ctx context.Context, cfg common.OracleConfig, logger *slog.Logger) (llm.Oracle, func() error, error) {
	noop := func() error { return nil }
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		logger.Info("llm.oracle.disabled")
		return nil, noop, nil
	}
	if cfg.APIKey == "" {
		logger.Warn("llm.oracle.no_api_key", "provider", cfg.Provider, "hint", "oracle fallback skipped")
		return nil, noop, nil
	}

	switch strings.ToLower(cfg.Provider) {
	case "openai":
		c := openai.NewClient(openai.Config{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		return c, noop, nil
	case "gemini", "":
		c, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:      cfg.APIKey,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			Timeout:     cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, noop, err
		}
		return c, c.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown oracle provider %q", cfg.Provider)
	}
}
