package dataset

import (
	"fmt"
	"unicode/utf8"

	"github.com/sugarme/tokenizer"
	"github.com/sugarme/tokenizer/pretrained"
)

// SubwordEncoding is a tokenizer's view of one pre-split sentence.
// WordIDs holds the source word index of each subword, or -1 for special tokens.
type SubwordEncoding struct {
	IDs           []int
	AttentionMask []int
	WordIDs       []int
}

// TextEncoding is a tokenizer's view of raw text. Offsets are rune based and
// Special marks positions that do not come from the text.
type TextEncoding struct {
	IDs           []int
	AttentionMask []int
	Tokens        []string
	Offsets       [][2]int
	Special       []bool
}

// Encoder splits pre-tokenized words into subword units.
type Encoder interface {
	EncodeWords(words []string) (SubwordEncoding, error)
	PadID() int
}

// SugarmeEncoder wraps a HuggingFace tokenizer.json loaded with sugarme/tokenizer.
// It is safe to hold for the lifetime of the process.
type SugarmeEncoder struct {
	tk        *tokenizer.Tokenizer
	maxLength int
	padID     int
}

// NewSugarmeEncoder loads tokenizer.json from path. maxLength <= 0 disables truncation.
func NewSugarmeEncoder(path string, maxLength int) (*SugarmeEncoder, error) {
	tk, err := pretrained.FromFile(path)
	if err != nil {
		return nil, fmt.Errorf("load tokenizer %s: %w", path, err)
	}
	padID := 0
	for _, tok := range []string{"[PAD]", "<pad>"} {
		if id, ok := tk.TokenToId(tok); ok {
			padID = id
			break
		}
	}
	return &SugarmeEncoder{tk: tk, maxLength: maxLength, padID: padID}, nil
}

func (e *SugarmeEncoder) PadID() int { return e.padID }

func (e *SugarmeEncoder) EncodeWords(words []string) (SubwordEncoding, error) {
	input := tokenizer.NewSingleEncodeInput(tokenizer.NewInputSequence(words))
	en, err := e.tk.Encode(input, true)
	if err != nil {
		return SubwordEncoding{}, err
	}
	ids := en.GetIds()
	special := en.GetSpecialTokenMask()
	wordIdx := en.GetWords()
	out := SubwordEncoding{
		IDs:           append([]int(nil), ids...),
		AttentionMask: make([]int, len(ids)),
		WordIDs:       make([]int, len(ids)),
	}
	for i := range ids {
		out.AttentionMask[i] = 1
		out.WordIDs[i] = -1
		if i < len(wordIdx) && wordIdx[i] >= 0 && (i >= len(special) || special[i] == 0) {
			out.WordIDs[i] = wordIdx[i]
		}
	}
	if keep := e.keep(len(ids)); keep != nil {
		out.IDs = pick(out.IDs, keep)
		out.AttentionMask = pick(out.AttentionMask, keep)
		out.WordIDs = pick(out.WordIDs, keep)
	}
	return out, nil
}

// EncodeText tokenizes raw text for inference.
func (e *SugarmeEncoder) EncodeText(text string) (TextEncoding, error) {
	en, err := e.tk.EncodeSingle(text, true)
	if err != nil {
		return TextEncoding{}, err
	}
	ids := en.GetIds()
	toks := en.GetTokens()
	offs := en.GetOffsets()
	special := en.GetSpecialTokenMask()
	runeAt := byteToRune(text)

	out := TextEncoding{
		IDs:           append([]int(nil), ids...),
		AttentionMask: make([]int, len(ids)),
		Tokens:        make([]string, len(ids)),
		Offsets:       make([][2]int, len(ids)),
		Special:       make([]bool, len(ids)),
	}
	for i := range ids {
		out.AttentionMask[i] = 1
		if i < len(toks) {
			out.Tokens[i] = toks[i]
		}
		out.Special[i] = i < len(special) && special[i] == 1
		if i < len(offs) && len(offs[i]) == 2 {
			out.Offsets[i] = [2]int{runeAt(offs[i][0]), runeAt(offs[i][1])}
		}
		if out.Offsets[i][0] == out.Offsets[i][1] {
			out.Special[i] = true
		}
	}
	if keep := e.keep(len(ids)); keep != nil {
		out.IDs = pick(out.IDs, keep)
		out.AttentionMask = pick(out.AttentionMask, keep)
		out.Tokens = pick(out.Tokens, keep)
		out.Offsets = pick(out.Offsets, keep)
		out.Special = pick(out.Special, keep)
	}
	return out, nil
}

// keep returns the positions retained after truncation: the first maxLength-1
// positions plus the final closing special token. nil means no truncation.
func (e *SugarmeEncoder) keep(n int) []int {
	if e.maxLength <= 0 || n <= e.maxLength {
		return nil
	}
	idx := make([]int, 0, e.maxLength)
	for i := 0; i < e.maxLength-1; i++ {
		idx = append(idx, i)
	}
	return append(idx, n-1)
}

func pick[T any](in []T, idx []int) []T {
	out := make([]T, len(idx))
	for i, j := range idx {
		out[i] = in[j]
	}
	return out
}

// byteToRune maps byte offsets in s to rune offsets. Offsets past the end clamp to the rune length.
func byteToRune(s string) func(int) int {
	table := make([]int, len(s)+1)
	r := 0
	for i := 0; i < len(s); {
		_, size := utf8.DecodeRuneInString(s[i:])
		for j := 0; j < size; j++ {
			table[i+j] = r
		}
		i += size
		r++
	}
	table[len(s)] = r
	return func(b int) int {
		if b < 0 {
			return 0
		}
		if b >= len(table) {
			return r
		}
		return table[b]
	}
}
