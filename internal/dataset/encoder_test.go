package dataset

import (
	"os"
	"testing"
)

func TestByteToRune(t *testing.T) {
	conv := byteToRune("café Dome")
	// "é" is two bytes, so "Dome" starts at byte 6 and rune 5.
	if got := conv(6); got != 5 {
		t.Fatalf("conv(6) = %d, want 5", got)
	}
	if got := conv(100); got != 9 {
		t.Fatalf("conv past end = %d, want 9", got)
	}
}

func TestTruncationKeepsClosingToken(t *testing.T) {
	e := &SugarmeEncoder{maxLength: 4}
	keep := e.keep(6)
	want := []int{0, 1, 2, 5}
	if len(keep) != len(want) {
		t.Fatalf("keep = %v", keep)
	}
	for i := range want {
		if keep[i] != want[i] {
			t.Fatalf("keep = %v, want %v", keep, want)
		}
	}
	if e.keep(4) != nil {
		t.Fatal("no truncation expected at the limit")
	}
}

// Requires a real tokenizer.json, e.g. TOKENIZER_FILE=bert-base-cased/tokenizer.json.
func TestSugarmeEncoderWordIDs(t *testing.T) {
	path := os.Getenv("TOKENIZER_FILE")
	if path == "" {
		t.Skip("TOKENIZER_FILE not set")
	}
	enc, err := NewSugarmeEncoder(path, 0)
	if err != nil {
		t.Fatalf("NewSugarmeEncoder: %v", err)
	}
	got, err := enc.EncodeWords([]string{"Minyari", "Dome", "Project"})
	if err != nil {
		t.Fatalf("EncodeWords: %v", err)
	}
	if got.WordIDs[0] != -1 || got.WordIDs[len(got.WordIDs)-1] != -1 {
		t.Errorf("special tokens should carry no word: %v", got.WordIDs)
	}
	if len(got.IDs) != len(got.WordIDs) {
		t.Fatalf("length mismatch %d vs %d", len(got.IDs), len(got.WordIDs))
	}
}
