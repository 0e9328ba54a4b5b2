package dataset

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Manifest describes a written training dataset.
type Manifest struct {
	BaseModel string         `json:"base_model"`
	Labels    []string       `json:"labels"`
	Label2ID  map[string]int `json:"label2id"`
	Examples  int            `json:"examples"`
	SeqLen    int            `json:"seq_len"`
}

// WriteJSONL writes one aligned example per line.
func WriteJSONL(w io.Writer, rows []AlignedExample) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, row := range rows {
		if err := enc.Encode(row); err != nil {
			return fmt.Errorf("encode row %d: %w", i, err)
		}
	}
	return bw.Flush()
}

// WriteDir writes train.jsonl and manifest.json into dir and returns their paths.
func WriteDir(dir string, rows []AlignedExample, m Manifest) (train, manifest string, err error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", "", err
	}
	train = filepath.Join(dir, "train.jsonl")
	f, err := os.Create(train)
	if err != nil {
		return "", "", err
	}
	if err := WriteJSONL(f, rows); err != nil {
		f.Close()
		return "", "", err
	}
	if err := f.Close(); err != nil {
		return "", "", err
	}

	m.Examples = len(rows)
	if len(rows) > 0 {
		m.SeqLen = rows[0].Len()
	}
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return "", "", err
	}
	manifest = filepath.Join(dir, "manifest.json")
	if err := os.WriteFile(manifest, raw, 0o644); err != nil {
		return "", "", err
	}
	return train, manifest, nil
}
