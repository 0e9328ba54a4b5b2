package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
	"github.com/joseph-ayodele/project-geotagger/internal/entity"
	"github.com/joseph-ayodele/project-geotagger/internal/geo"
	"github.com/joseph-ayodele/project-geotagger/internal/metrics"
	"github.com/joseph-ayodele/project-geotagger/internal/ner"
	"github.com/joseph-ayodele/project-geotagger/internal/pdf"
)

// fakePages serves page text by file base name.
type fakePages map[string][]string

func (f fakePages) ExtractPages(_ context.Context, path string) ([]pdf.Page, error) {
	texts, ok := f[filepath.Base(path)]
	if !ok {
		return nil, common.ExtractionFailure(path, errors.New("pdftotext: Syntax Error"))
	}
	pages := make([]pdf.Page, len(texts))
	for i, t := range texts {
		pages[i] = pdf.Page{Number: i + 1, Text: t}
	}
	return pages, nil
}

// knownNames tags every occurrence of a fixed set of names.
type knownNames []string

func (k knownNames) Predict(_ context.Context, text string) ([]ner.EntitySpan, error) {
	if strings.Contains(text, "PANIC") {
		return nil, errors.New("inference server returned 500")
	}
	var out []ner.EntitySpan
	for _, name := range k {
		if i := strings.Index(text, name); i >= 0 {
			start := utf8.RuneCountInString(text[:i])
			out = append(out, ner.EntitySpan{
				EntityGroup: constants.EntityProject,
				Start:       start,
				End:         start + utf8.RuneCountInString(name),
				Word:        name,
				Score:       0.99,
			})
		}
	}
	return out, nil
}

type memorySink struct {
	recs []entity.MentionRecord
	fail error
}

func (m *memorySink) Put(_ context.Context, rec entity.MentionRecord) error {
	if m.fail != nil {
		return m.fail
	}
	m.recs = append(m.recs, rec)
	return nil
}

func writePDFs(t *testing.T, names ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, n := range names {
		p := filepath.Join(root, n)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("%PDF"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return root
}

func newProcessor(pages fakePages, withResolve bool) (*Processor, *metrics.Metrics) {
	m := metrics.New(nil)
	extractor := ner.NewExtractor(knownNames{"Lake Hope Project", "Minyari Dome Project", "Nowhere Project"}, ner.DefaultWindow, nil)
	infer := NewInferStage(pages, extractor, m, nil)
	var resolve *ResolveStage
	if withResolve {
		chain := geo.NewChain(nil, geo.NewLookupStrategy(geo.DefaultTable(), nil))
		resolve = NewResolveStage(chain, m, nil)
	}
	return NewProcessor(nil, infer, resolve), m
}

func TestProcessor_Run_InferOnly(t *testing.T) {
	root := writePDFs(t, "a.pdf", "sub/b.pdf", "broken.pdf", "readme.txt")
	pages := fakePages{
		"a.pdf": {
			"Drilling continued at the Lake Hope Project during the quarter.",
			"No mentions on this page.",
		},
		"b.pdf": {"PANIC", "The Nowhere Project and the Minyari Dome Project."},
	}
	p, _ := newProcessor(pages, false)
	sink := &memorySink{}

	stats, err := p.Run(context.Background(), root, true, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Documents != 2 || stats.Skipped != 1 || stats.Mentions != 3 {
		t.Errorf("stats = %+v", stats)
	}
	if len(sink.recs) != 3 {
		t.Fatalf("records = %d, want 3", len(sink.recs))
	}

	first := sink.recs[0]
	if first.PDFFile != "a.pdf" || first.PageNumber != 1 || first.ProjectName != "Lake Hope Project" {
		t.Errorf("first record = %+v", first)
	}
	if first.Coordinates != nil {
		t.Errorf("infer-only records must have nil coordinates")
	}
	if first.ContextSentence != "Drilling continued at the Lake Hope Project during the quarter." {
		t.Errorf("context = %q", first.ContextSentence)
	}
	for _, r := range sink.recs[1:] {
		if r.PDFFile != "sub/b.pdf" || r.PageNumber != 2 {
			t.Errorf("record = %+v", r)
		}
	}
}

func TestProcessor_Run_WithResolve(t *testing.T) {
	root := writePDFs(t, "a.pdf")
	pages := fakePages{"a.pdf": {"Lake Hope Project and Nowhere Project"}}
	p, _ := newProcessor(pages, true)
	sink := &memorySink{}

	if _, err := p.Run(context.Background(), root, true, sink); err != nil {
		t.Fatalf("Run: %v", err)
	}
	byName := map[string]entity.MentionRecord{}
	for _, r := range sink.recs {
		byName[r.ProjectName] = r
	}
	lake := byName["Lake Hope Project"]
	if lake.Coordinates == nil || *lake.Coordinates != (entity.Coordinates{Lat: -32.45, Lon: 120.15}) {
		t.Errorf("lake = %+v", lake)
	}
	if lake.Source != string(constants.SourceLookup) {
		t.Errorf("lake source = %q", lake.Source)
	}
	nowhere, ok := byName["Nowhere Project"]
	if !ok || nowhere.Coordinates != nil || nowhere.Source != string(constants.SourceUnresolved) {
		t.Errorf("unresolved record must still be emitted with nil coordinates: %+v", nowhere)
	}
}

func TestProcessor_Run_SinkFailureAborts(t *testing.T) {
	root := writePDFs(t, "a.pdf", "b.pdf")
	pages := fakePages{
		"a.pdf": {"Lake Hope Project"},
		"b.pdf": {"Lake Hope Project"},
	}
	p, _ := newProcessor(pages, false)
	diskFull := errors.New("no space left on device")

	_, err := p.Run(context.Background(), root, true, &memorySink{fail: diskFull})
	if !errors.Is(err, diskFull) {
		t.Fatalf("err = %v, want sink error", err)
	}
}

func TestProcessor_Run_MissingRoot(t *testing.T) {
	p, _ := newProcessor(fakePages{}, false)
	if _, err := p.Run(context.Background(), filepath.Join(t.TempDir(), "nope"), true, &memorySink{}); err == nil {
		t.Fatal("expected error for missing root")
	}
}

func TestResolveStage_Run(t *testing.T) {
	chain := geo.NewChain(nil, geo.NewLookupStrategy(geo.DefaultTable(), nil))
	stage := NewResolveStage(chain, nil, nil)
	preset := &entity.Coordinates{Lat: 1, Lon: 2}
	in := []entity.MentionRecord{
		{PDFFile: "a.pdf", PageNumber: 1, ProjectName: "Minyari Dome Project"},
		{PDFFile: "a.pdf", PageNumber: 1, ProjectName: "Other Project", Coordinates: preset},
		{PDFFile: "a.pdf", PageNumber: 2, ProjectName: "Nowhere Project"},
	}
	sink := &memorySink{}

	stats, err := stage.Run(context.Background(), in, sink)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Total != 3 {
		t.Errorf("total = %d", stats.Total)
	}
	want := map[constants.ResolutionSource]int{
		constants.SourceLookup:     1,
		constants.SourcePreset:     1,
		constants.SourceUnresolved: 1,
	}
	for src, n := range want {
		if stats.Sources[src] != n {
			t.Errorf("sources[%s] = %d, want %d", src, stats.Sources[src], n)
		}
	}
	if sink.recs[1].Coordinates != preset {
		t.Errorf("preset coordinates must pass through unchanged")
	}
	if sink.recs[2].Coordinates != nil {
		t.Errorf("unresolved record got coordinates")
	}
}

func TestTee(t *testing.T) {
	a, b := &memorySink{}, &memorySink{fail: errors.New("boom")}
	s := Tee(a, nil, b)
	err := s.Put(context.Background(), entity.MentionRecord{ProjectName: "X"})
	if err == nil || len(a.recs) != 1 {
		t.Errorf("err = %v, a = %v", err, a.recs)
	}
	if Tee(a) != Sink(a) {
		t.Errorf("single sink should be returned as is")
	}
}

func TestNewResolver_LookupOnlyWithoutKey(t *testing.T) {
	for _, cfg := range []common.OracleConfig{
		{Enabled: false, Provider: "gemini", APIKey: "k"},
		{Enabled: true, Provider: "gemini"},
	} {
		chain, closeFn, err := NewResolver(context.Background(), cfg, geo.DefaultTable(), metrics.New(nil), nil)
		if err != nil {
			t.Fatalf("NewResolver(%+v): %v", cfg, err)
		}
		coords, src := chain.Resolve(context.Background(), "Nowhere Project", "ctx")
		if coords != nil || src != constants.SourceUnresolved {
			t.Errorf("got %v from %s, want unresolved", coords, src)
		}
		coords, src = chain.Resolve(context.Background(), "Minyari Dome Project", "ctx")
		if coords == nil || src != constants.SourceLookup {
			t.Errorf("got %v from %s, want lookup hit", coords, src)
		}
		if err := closeFn(); err != nil {
			t.Errorf("close: %v", err)
		}
	}
}
