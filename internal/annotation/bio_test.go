package annotation

import (
	"strings"
	"testing"
	"unicode"

	"github.com/joseph-ayodele/project-geotagger/constants"
)

func TestToBIOMinyariDome(t *testing.T) {
	text := "ACME agreed to fund the Minyari Dome Project this year."
	name := "Minyari Dome Project"
	start := strings.Index(text, name)
	doc := Document{Text: text, Spans: []Span{{Start: start, End: start + len(name), Label: "PROJECT"}}}

	got := ToBIO(doc)
	want := map[string]constants.Tag{
		"Minyari": constants.TagBeginProject,
		"Dome":    constants.TagInsideProject,
		"Project": constants.TagInsideProject,
	}
	if len(got) != 11 {
		t.Fatalf("expected 11 tokens, got %d: %v", len(got), Words(got))
	}
	for _, tok := range got {
		expected, ok := want[tok.Text]
		if !ok {
			expected = constants.TagOutside
		}
		if tok.Tag != expected {
			t.Errorf("token %q tagged %s, want %s", tok.Text, tok.Tag, expected)
		}
	}
}

func TestToBIOIgnoresOtherLabels(t *testing.T) {
	doc := Document{Text: "Perth office", Spans: []Span{{Start: 0, End: 5, Label: "LOCATION"}}}
	for _, tok := range ToBIO(doc) {
		if tok.Tag != constants.TagOutside {
			t.Fatalf("token %q tagged %s", tok.Text, tok.Tag)
		}
	}
}

func TestToBIOFirstCharacterHeuristic(t *testing.T) {
	// Span starts inside "XMinyari", so the token's first rune decides: O.
	doc := Document{Text: "the XMinyari Dome", Spans: []Span{{Start: 5, End: 17, Label: "PROJECT"}}}
	tagged, report := NewConverter(nil).Convert(doc)
	tags := Tags(tagged)
	want := []string{"O", "O", "I-PROJECT"}
	if strings.Join(tags, ",") != strings.Join(want, ",") {
		t.Fatalf("tags = %v, want %v", tags, want)
	}
	if report.MidTokenBoundaries != 1 {
		t.Errorf("mid-token boundaries = %d", report.MidTokenBoundaries)
	}
	if report.LoneInside != 1 {
		t.Errorf("lone inside = %d", report.LoneInside)
	}
}

func TestToBIOOverlapLastWins(t *testing.T) {
	doc := Document{
		Text: "Lake Hope Project",
		Spans: []Span{
			{Start: 0, End: 17, Label: "PROJECT"},
			{Start: 5, End: 17, Label: "PROJECT"},
		},
	}
	tagged, report := NewConverter(nil).Convert(doc)
	tags := Tags(tagged)
	if strings.Join(tags, ",") != "B-PROJECT,B-PROJECT,I-PROJECT" {
		t.Fatalf("tags = %v", tags)
	}
	if report.Overlaps != 12 {
		t.Errorf("overlaps = %d, want 12", report.Overlaps)
	}
	if report.Clean() {
		t.Error("report should not be clean")
	}
}

func TestBeginTagsOnlyAtSpanStarts(t *testing.T) {
	docs := []Document{
		{Text: "Drilling at Lake Hope Project and the Minyari Dome Project continued.", Spans: []Span{
			{Start: 12, End: 29, Label: "PROJECT"},
			{Start: 38, End: 58, Label: "PROJECT"},
		}},
		{Text: "  leading   space, Au-Cu (Nifty) project  ", Spans: []Span{{Start: 19, End: 24, Label: "PROJECT"}}},
		{Text: "", Spans: nil},
	}
	for _, doc := range docs {
		starts := map[int]bool{}
		for _, s := range doc.Spans {
			starts[s.Start] = true
		}
		for _, tok := range ToBIO(doc) {
			if tok.Tag == constants.TagBeginProject && !starts[tok.Start] {
				t.Errorf("%q: B tag on %q at %d, not a span start", doc.Text, tok.Text, tok.Start)
			}
		}
	}
}

func TestTokenCountPreserved(t *testing.T) {
	texts := []string{
		"ACME agreed to fund the Minyari Dome Project this year.",
		"Grades of 1.5 g/t Au over 3,200m at O'Brien's Au-Cu prospect!",
		"\tTabs\nand   newlines ",
		"Ünïcödé naïve café",
	}
	for _, text := range texts {
		tokens := Tokenize(text)
		tagged := ToBIO(Document{Text: text})
		if len(tagged) != len(tokens) {
			t.Errorf("%q: %d tagged tokens, %d tokens", text, len(tagged), len(tokens))
		}
		var joined strings.Builder
		for _, tok := range tagged {
			joined.WriteString(tok.Text)
		}
		stripped := strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, text)
		if joined.String() != stripped {
			t.Errorf("%q: tokens do not cover the text: %q", text, joined.String())
		}
	}
}

func TestConvertAll(t *testing.T) {
	docs := []Document{
		{Text: "Lake Hope Project", Spans: []Span{{Start: 0, End: 17, Label: "PROJECT"}}},
		{Text: "nothing here"},
	}
	out := NewConverter(nil).ConvertAll(docs)
	if len(out) != 2 || len(out[0]) != 3 || len(out[1]) != 2 {
		t.Fatalf("unexpected shapes: %v", out)
	}
}
