package annotation

import (
	"reflect"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Hello, world.", []string{"Hello", ",", "world", "."}},
		{"1.5 g/t Au", []string{"1.5", "g", "/", "t", "Au"}},
		{"Au-Cu O'Brien 3,200", []string{"Au-Cu", "O'Brien", "3,200"}},
		{"end-", []string{"end", "-"}},
		{"(Nifty)", []string{"(", "Nifty", ")"}},
		{"   ", nil},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			var got []string
			for _, tok := range Tokenize(tt.text) {
				got = append(got, tok.Text)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestTokenizeOffsetsAreRunes(t *testing.T) {
	text := "café Dome"
	toks := Tokenize(text)
	runes := []rune(text)
	for _, tok := range toks {
		if string(runes[tok.Start:tok.End]) != tok.Text {
			t.Fatalf("token %q offsets [%d,%d) do not slice back", tok.Text, tok.Start, tok.End)
		}
	}
	if toks[1].Start != 5 {
		t.Fatalf("Dome starts at %d, want 5", toks[1].Start)
	}
}
