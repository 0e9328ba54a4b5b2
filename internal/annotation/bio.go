package annotation

import (
	"log/slog"
	"unicode"

	"github.com/joseph-ayodele/project-geotagger/constants"
)

// TagReport summarizes data-quality findings for one converted document.
type TagReport struct {
	// Overlaps counts runes claimed by more than one target span. The last span applied wins.
	Overlaps int
	// LoneInside counts I- tags not preceded by a B- or I- tag.
	LoneInside int
	// MidTokenBoundaries counts spans whose start falls strictly inside a token.
	MidTokenBoundaries int
}

// Clean reports whether no findings were recorded.
func (r TagReport) Clean() bool {
	return r.Overlaps == 0 && r.LoneInside == 0 && r.MidTokenBoundaries == 0
}

// ToBIO converts a document into token level BIO tags for the PROJECT entity.
func ToBIO(doc Document) []TaggedToken {
	tagged, _ := convert(doc, constants.EntityProject)
	return tagged
}

// Converter turns annotated documents into BIO sequences and logs quality findings.
type Converter struct {
	entity string
	logger *slog.Logger
}

func NewConverter(logger *slog.Logger) *Converter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Converter{entity: constants.EntityProject, logger: logger}
}

// Convert tags one document and reports what it found.
func (c *Converter) Convert(doc Document) ([]TaggedToken, TagReport) {
	tagged, report := convert(doc, c.entity)
	if report.Overlaps > 0 {
		c.logger.Warn("annotation.bio.overlap", "record", doc.Index, "runes", report.Overlaps)
	}
	if report.LoneInside > 0 {
		c.logger.Warn("annotation.bio.lone_inside", "record", doc.Index, "count", report.LoneInside)
	}
	if report.MidTokenBoundaries > 0 {
		c.logger.Debug("annotation.bio.mid_token_start", "record", doc.Index, "count", report.MidTokenBoundaries)
	}
	return tagged, report
}

// ConvertAll tags every document in order.
func (c *Converter) ConvertAll(docs []Document) [][]TaggedToken {
	out := make([][]TaggedToken, 0, len(docs))
	var tokens, mentions int
	for _, d := range docs {
		tagged, _ := c.Convert(d)
		tokens += len(tagged)
		for _, t := range tagged {
			if t.Tag == constants.TagBeginProject {
				mentions++
			}
		}
		out = append(out, tagged)
	}
	c.logger.Info("annotation.bio.done", "records", len(docs), "tokens", tokens, "mentions", mentions)
	return out
}

func convert(doc Document, entity string) ([]TaggedToken, TagReport) {
	var report TagReport
	text := []rune(doc.Text)
	begin := constants.Tag("B-" + entity)
	inside := constants.Tag("I-" + entity)

	labels := make([]constants.Tag, len(text))
	for i := range labels {
		labels[i] = constants.TagOutside
	}
	claimed := make([]bool, len(text))
	for _, s := range doc.Spans {
		if s.Label != entity {
			continue
		}
		for i := max(s.Start, 0); i < s.End && i < len(text); i++ {
			if claimed[i] {
				report.Overlaps++
			}
			claimed[i] = true
			if i == s.Start {
				labels[i] = begin
			} else {
				labels[i] = inside
			}
		}
	}

	tokens := Tokenize(doc.Text)
	tagged := make([]TaggedToken, 0, len(tokens))
	cursor := 0
	for _, tok := range tokens {
		for cursor < len(text) && unicode.IsSpace(text[cursor]) {
			cursor++
		}
		tag := constants.TagOutside
		if cursor < len(text) {
			tag = labels[cursor]
		}
		tagged = append(tagged, TaggedToken{Token: tok, Tag: tag})
		cursor += len([]rune(tok.Text))
	}

	starts := make(map[int]bool, len(tokens))
	for _, tok := range tokens {
		starts[tok.Start] = true
	}
	for _, s := range doc.Spans {
		if s.Label == entity && !starts[s.Start] {
			report.MidTokenBoundaries++
		}
	}
	prev := constants.TagOutside
	for _, t := range tagged {
		if t.Tag == inside && prev == constants.TagOutside {
			report.LoneInside++
		}
		prev = t.Tag
	}
	return tagged, report
}
