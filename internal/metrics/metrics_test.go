package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/joseph-ayodele/project-geotagger/constants"
)

func TestCounters(t *testing.T) {
	m := New(nil)
	m.PagesProcessed("infer", 3)
	m.PagesProcessed("infer", 0)
	m.MentionsExtracted("infer", 2)
	m.ExtractionFailed("infer")
	m.Resolved(constants.SourceLookup)
	m.Resolved(constants.SourceLookup)
	m.Resolved(constants.SourceUnresolved)
	m.ObserveOracle("ok", 200*time.Millisecond)

	if got := testutil.ToFloat64(m.pagesProcessed.WithLabelValues("infer")); got != 3 {
		t.Errorf("pages = %v", got)
	}
	if got := testutil.ToFloat64(m.mentionsExtracted.WithLabelValues("infer")); got != 2 {
		t.Errorf("mentions = %v", got)
	}
	if got := testutil.ToFloat64(m.extractionFailures.WithLabelValues("infer")); got != 1 {
		t.Errorf("failures = %v", got)
	}
	if got := testutil.ToFloat64(m.resolutions.WithLabelValues("lookup")); got != 2 {
		t.Errorf("lookup resolutions = %v", got)
	}
	if got := testutil.ToFloat64(m.oracleCalls.WithLabelValues("ok")); got != 1 {
		t.Errorf("oracle ok = %v", got)
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.PagesProcessed("infer", 1)
	m.MentionsExtracted("infer", 1)
	m.ExtractionFailed("infer")
	m.Resolved(constants.SourceOracle)
	m.ObserveOracle("error", time.Second)
	if m.Registry() != nil {
		t.Error("nil metrics should have no registry")
	}
}

func TestHandler(t *testing.T) {
	m := New(nil)
	m.Resolved(constants.SourceOracle)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body := rec.Body.String()
	if !strings.Contains(body, `geotagger_resolutions_total{source="oracle"} 1`) {
		t.Errorf("metrics body missing resolution counter:\n%s", body)
	}
}
