package annotation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"unicode/utf8"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
)

type rawRecord struct {
	Data struct {
		Text string `json:"text"`
	} `json:"data"`
	Annotations []struct {
		Result []struct {
			Value struct {
				Start  int      `json:"start"`
				End    int      `json:"end"`
				Labels []string `json:"labels"`
			} `json:"value"`
		} `json:"result"`
	} `json:"annotations"`
}

// Loader reads a Label Studio JSON export.
type Loader struct {
	logger *slog.Logger
}

func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger}
}

// LoadFile reads and parses the corpus at path.
func (l *Loader) LoadFile(path string) ([]Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read annotations: %w", err)
	}
	docs, err := l.Parse(raw)
	if err != nil {
		l.logger.Error("annotation.load.failed", "path", path, "error", err)
		return nil, err
	}
	l.logger.Info("annotation.load.ok", "path", path, "records", len(docs))
	return docs, nil
}

// Parse validates the corpus structure and converts it into documents.
// Only the first annotation set of each record is read. Any structural
// problem or out-of-range target span is a malformed annotation error.
func (l *Loader) Parse(raw []byte) ([]Document, error) {
	schema, err := corpusValidator()
	if err != nil {
		return nil, fmt.Errorf("compile corpus schema: %w", err)
	}
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, common.MalformedAnnotation("invalid json: %v", err)
	}
	if err := schema.Validate(generic); err != nil {
		return nil, common.MalformedAnnotation("corpus does not match schema: %v", err)
	}

	var records []rawRecord
	dec := json.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&records); err != nil {
		return nil, common.MalformedAnnotation("decode corpus: %v", err)
	}

	docs := make([]Document, 0, len(records))
	for i, rec := range records {
		doc := Document{Index: i, Text: rec.Data.Text}
		n := utf8.RuneCountInString(doc.Text)
		for _, r := range rec.Annotations[0].Result {
			span := Span{Start: r.Value.Start, End: r.Value.End, Label: r.Value.Labels[0]}
			if span.Label != constants.EntityProject {
				continue
			}
			if span.Start < 0 || span.Start >= span.End || span.End > n {
				return nil, common.MalformedAnnotation("record %d: span [%d,%d) outside text of length %d", i, span.Start, span.End, n)
			}
			doc.Spans = append(doc.Spans, span)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}
