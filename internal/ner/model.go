package ner

import "context"

// EntitySpan is one aggregated prediction. Start and End are rune offsets into
// the predicted text, end exclusive.
type EntitySpan struct {
	EntityGroup string  `json:"entity_group"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Word        string  `json:"word"`
	Score       float64 `json:"score"`
}

// Model turns raw text into entity spans. Implementations are constructed
// once and reused for every page.
type Model interface {
	Predict(ctx context.Context, text string) ([]EntitySpan, error)
}

// TokenPrediction is a per-subword label distribution.
type TokenPrediction struct {
	Start   int
	End     int
	Special bool
	Probs   []float64
}
