package pipeline

import (
	"context"
	"log/slog"

	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/geo"
	"github.com/joseph-ayodele/project-geotagger/internal/llm/providers"
	"github.com/joseph-ayodele/project-geotagger/internal/metrics"
)

// NewResolver builds the lookup → oracle chain. The oracle layer is left
// out when it is disabled or has no key. The returned close function
// releases the oracle client.
func NewResolver(ctx context.Context, cfg common.OracleConfig, table *geo.Table, m *metrics.Metrics, logger *slog.Logger) (*geo.Chain, func() error, error) {
	if logger == nil {
		logger = slog.Default()
	}
	strategies := []geo.Strategy{geo.NewLookupStrategy(table, logger)}

	oracle, closeFn, err := providers.NewOracle(ctx, cfg, logger)
	if err != nil {
		return nil, closeFn, err
	}
	if oracle != nil {
		var observer geo.OracleObserver
		if m != nil {
			observer = m
		}
		strategies = append(strategies, geo.NewOracleStrategy(oracle, observer, logger))
	}
	logger.Info("geo.resolver.ready", "table_entries", table.Len(), "oracle", oracle != nil, "provider", cfg.Provider)
	return geo.NewChain(logger, strategies...), closeFn, nil
}
