package annotation

import "github.com/joseph-ayodele/project-geotagger/constants"

// Span is a labeled character range over Document.Text, in rune offsets, end exclusive.
type Span struct {
	Start int
	End   int
	Label string
}

// Document is one annotated corpus record.
type Document struct {
	// Index is the record's position in the corpus file.
	Index int
	Text  string
	Spans []Span
}

// Token is a contiguous substring of the source text.
type Token struct {
	Text  string
	Start int
	End   int
}

// TaggedToken pairs a token with its BIO tag.
type TaggedToken struct {
	Token
	Tag constants.Tag
}

// Words returns the token texts in order.
func Words(tagged []TaggedToken) []string {
	out := make([]string, len(tagged))
	for i, t := range tagged {
		out[i] = t.Text
	}
	return out
}

// Tags returns the tags in order.
func Tags(tagged []TaggedToken) []string {
	out := make([]string, len(tagged))
	for i, t := range tagged {
		out[i] = string(t.Tag)
	}
	return out
}
