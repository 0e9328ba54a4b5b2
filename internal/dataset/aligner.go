package dataset

import (
	"log/slog"
	"slices"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/annotation"
	"github.com/joseph-ayodele/project-geotagger/internal/common"
)

// Example is one pre-split training sentence with a tag per word.
type Example struct {
	Words []string `json:"tokens"`
	Tags  []string `json:"tags"`
}

// AlignedExample is the subword level training row. All slices share one length.
type AlignedExample struct {
	InputIDs      []int `json:"input_ids"`
	AttentionMask []int `json:"attention_mask"`
	Labels        []int `json:"labels"`
	WordIDs       []int `json:"word_ids"`
}

func (e AlignedExample) Len() int { return len(e.InputIDs) }

// FromTagged builds an Example from BIO tagged tokens.
func FromTagged(tagged []annotation.TaggedToken) Example {
	return Example{Words: annotation.Words(tagged), Tags: annotation.Tags(tagged)}
}

// Aligner projects word level tags onto subword units.
type Aligner struct {
	enc    Encoder
	labels LabelMap
	logger *slog.Logger
}

func NewAligner(enc Encoder, labels LabelMap, logger *slog.Logger) *Aligner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aligner{enc: enc, labels: labels, logger: logger}
}

// Align encodes one example and assigns a label id to every subword.
// Subwords without a source word get IgnoreLabelID. The first subword of a
// word gets the word's tag, later subwords of the same word get the tag with
// B- rewritten to I-.
func (a *Aligner) Align(ex Example) (AlignedExample, error) {
	if len(ex.Words) != len(ex.Tags) {
		return AlignedExample{}, common.MalformedAnnotation("%d words but %d tags", len(ex.Words), len(ex.Tags))
	}
	enc, err := a.enc.EncodeWords(ex.Words)
	if err != nil {
		return AlignedExample{}, common.WrapError(err, "encode words")
	}
	if len(enc.WordIDs) != len(enc.IDs) || len(enc.AttentionMask) != len(enc.IDs) {
		return AlignedExample{}, common.AlignmentInconsistency("encoder returned %d ids, %d word ids, %d mask", len(enc.IDs), len(enc.WordIDs), len(enc.AttentionMask))
	}

	labels := make([]int, 0, len(enc.IDs))
	prev := -1
	for _, wid := range enc.WordIDs {
		if wid < 0 {
			labels = append(labels, constants.IgnoreLabelID)
			prev = wid
			continue
		}
		if wid >= len(ex.Tags) {
			return AlignedExample{}, common.AlignmentInconsistency("word id %d out of range for %d words", wid, len(ex.Tags))
		}
		tag := ex.Tags[wid]
		if wid == prev {
			tag = constants.ToInside(tag)
		}
		id, ok := a.labels.ID(tag)
		if !ok {
			return AlignedExample{}, common.MalformedAnnotation("unknown tag %q", tag)
		}
		labels = append(labels, id)
		prev = wid
	}
	if len(labels) != len(enc.IDs) {
		return AlignedExample{}, common.AlignmentInconsistency("%d labels for %d subwords", len(labels), len(enc.IDs))
	}
	return AlignedExample{
		InputIDs:      slices.Clone(enc.IDs),
		AttentionMask: slices.Clone(enc.AttentionMask),
		Labels:        labels,
		WordIDs:       slices.Clone(enc.WordIDs),
	}, nil
}

// AlignBatch aligns every example and pads the batch to its longest row.
func (a *Aligner) AlignBatch(examples []Example) ([]AlignedExample, error) {
	out := make([]AlignedExample, 0, len(examples))
	longest := 0
	for i, ex := range examples {
		row, err := a.Align(ex)
		if err != nil {
			a.logger.Error("dataset.align.failed", "example", i, "error", err)
			return nil, err
		}
		longest = max(longest, row.Len())
		out = append(out, row)
	}
	pad := a.enc.PadID()
	for i := range out {
		out[i] = padTo(out[i], longest, pad)
	}
	a.logger.Info("dataset.align.ok", "examples", len(out), "seq_len", longest)
	return out, nil
}

func padTo(row AlignedExample, n, padID int) AlignedExample {
	for row.Len() < n {
		row.InputIDs = append(row.InputIDs, padID)
		row.AttentionMask = append(row.AttentionMask, 0)
		row.Labels = append(row.Labels, constants.IgnoreLabelID)
		row.WordIDs = append(row.WordIDs, -1)
	}
	return row
}
