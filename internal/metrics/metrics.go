package metrics

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joseph-ayodele/project-geotagger/constants"
)

// Metrics holds the pipeline counters. A nil *Metrics is a valid no-op.
type Metrics struct {
	registry *prometheus.Registry

	pagesProcessed     *prometheus.CounterVec
	mentionsExtracted  *prometheus.CounterVec
	extractionFailures *prometheus.CounterVec
	resolutions        *prometheus.CounterVec
	oracleCalls        *prometheus.CounterVec
	oracleLatency      prometheus.Histogram
}

// New registers the counters on reg. A nil reg gets a fresh registry.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	m := &Metrics{
		registry: reg,
		pagesProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotagger_pages_processed_total",
				Help: "Count of PDF pages run through the extractor",
			},
			[]string{"stage"},
		),
		mentionsExtracted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotagger_mentions_extracted_total",
				Help: "Count of project mentions recognized",
			},
			[]string{"stage"},
		),
		extractionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotagger_extraction_failures_total",
				Help: "Count of documents or pages skipped after an extraction failure",
			},
			[]string{"stage"},
		),
		resolutions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotagger_resolutions_total",
				Help: "Count of mention records by coordinate source",
			},
			[]string{"source"},
		),
		oracleCalls: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "geotagger_oracle_calls_total",
				Help: "Count of oracle requests by outcome",
			},
			[]string{"status"},
		),
		oracleLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "geotagger_oracle_latency_seconds",
			Help:    "Oracle request latency",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 8),
		}),
	}
	reg.MustRegister(
		m.pagesProcessed,
		m.mentionsExtracted,
		m.extractionFailures,
		m.resolutions,
		m.oracleCalls,
		m.oracleLatency,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) PagesProcessed(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.pagesProcessed.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) MentionsExtracted(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.mentionsExtracted.WithLabelValues(stage).Add(float64(n))
}

func (m *Metrics) ExtractionFailed(stage string) {
	if m == nil {
		return
	}
	m.extractionFailures.WithLabelValues(stage).Inc()
}

func (m *Metrics) Resolved(source constants.ResolutionSource) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(source)).Inc()
}

// ObserveOracle records one oracle request outcome.
func (m *Metrics) ObserveOracle(status string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.oracleCalls.WithLabelValues(status).Inc()
	m.oracleLatency.Observe(elapsed.Seconds())
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Serve runs a /metrics endpoint on addr until ctx is cancelled. An empty
// addr disables the endpoint.
func (m *Metrics) Serve(ctx context.Context, addr string, logger *slog.Logger) {
	if m == nil || addr == "" {
		return
	}
	if logger == nil {
		logger = slog.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		logger.Info("metrics.listen", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics.listen.error", "addr", addr, "error", err)
		}
	}()
}
