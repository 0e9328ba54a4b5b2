package ner

import (
	"math"

	"github.com/joseph-ayodele/project-geotagger/constants"
	"github.com/joseph-ayodele/project-geotagger/internal/dataset"
)

// AggregateSimple groups subword predictions into entity spans.
//
// Each non-special subword takes its argmax label. Consecutive subwords with
// the same entity type are merged unless the next one carries a B- prefix.
// Groups of type O are dropped and a group's score is the mean of its
// members' scores.
func AggregateSimple(text string, preds []TokenPrediction, labels dataset.LabelMap) []EntitySpan {
	runes := []rune(text)
	type member struct {
		start, end int
		score      float64
	}
	var (
		out   []EntitySpan
		group []member
		gtype string
	)
	flush := func() {
		if len(group) == 0 {
			return
		}
		if gtype != string(constants.TagOutside) {
			var sum float64
			for _, m := range group {
				sum += m.score
			}
			start, end := group[0].start, group[len(group)-1].end
			out = append(out, EntitySpan{
				EntityGroup: gtype,
				Start:       start,
				End:         end,
				Word:        string(runes[clamp(start, len(runes)):clamp(end, len(runes))]),
				Score:       sum / float64(len(group)),
			})
		}
		group = group[:0]
	}

	for _, p := range preds {
		if p.Special || len(p.Probs) == 0 {
			continue
		}
		idx, score := argmax(p.Probs)
		label, ok := labels.Label(idx)
		if !ok {
			continue
		}
		prefix, entity := constants.SplitTag(label)
		if len(group) > 0 && (entity != gtype || prefix == "B") {
			flush()
		}
		gtype = entity
		group = append(group, member{start: p.Start, end: p.End, score: score})
	}
	flush()
	return out
}

func argmax(xs []float64) (int, float64) {
	best, bestVal := 0, math.Inf(-1)
	for i, x := range xs {
		if x > bestVal {
			best, bestVal = i, x
		}
	}
	return best, bestVal
}

// Softmax converts logits to probabilities.
func Softmax(logits []float64) []float64 {
	if len(logits) == 0 {
		return nil
	}
	maxV := logits[0]
	for _, l := range logits[1:] {
		maxV = math.Max(maxV, l)
	}
	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - maxV)
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

func clamp(i, n int) int {
	return min(max(i, 0), n)
}
