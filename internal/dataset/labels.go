package dataset

import (
	"fmt"

	"github.com/joseph-ayodele/project-geotagger/constants"
)

// LabelMap is the bidirectional label2id/id2label vocabulary of the classifier head.
type LabelMap struct {
	ids    map[string]int
	labels []string
}

// NewLabelMap assigns ids in list order.
func NewLabelMap(labels []string) (LabelMap, error) {
	m := LabelMap{ids: make(map[string]int, len(labels)), labels: append([]string(nil), labels...)}
	for i, l := range labels {
		if _, dup := m.ids[l]; dup {
			return LabelMap{}, fmt.Errorf("duplicate label %q", l)
		}
		m.ids[l] = i
	}
	return m, nil
}

// DefaultLabelMap is O, B-PROJECT, I-PROJECT.
func DefaultLabelMap() LabelMap {
	m, _ := NewLabelMap(constants.DefaultLabels)
	return m
}

func (m LabelMap) ID(label string) (int, bool) {
	id, ok := m.ids[label]
	return id, ok
}

func (m LabelMap) Label(id int) (string, bool) {
	if id < 0 || id >= len(m.labels) {
		return "", false
	}
	return m.labels[id], true
}

func (m LabelMap) Labels() []string { return append([]string(nil), m.labels...) }

func (m LabelMap) Len() int { return len(m.labels) }

// Label2ID returns a copy of the label to id mapping.
func (m LabelMap) Label2ID() map[string]int {
	out := make(map[string]int, len(m.ids))
	for k, v := range m.ids {
		out[k] = v
	}
	return out
}
