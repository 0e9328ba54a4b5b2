package annotation

import "unicode"

// Tokenize splits text into word and punctuation tokens. Every token is an
// exact substring of text and offsets are rune positions.
//
// A word is a run of letters, digits and combining marks. A hyphen,
// apostrophe, period or comma sitting between two alphanumerics stays inside
// the word ("Au-Cu", "O'Brien", "1.5", "3,200"). Any other non-space rune is
// a token of its own.
func Tokenize(text string) []Token {
	runes := []rune(text)
	var tokens []Token
	i := 0
	for i < len(runes) {
		r := runes[i]
		if unicode.IsSpace(r) {
			i++
			continue
		}
		if !isWordRune(r) {
			tokens = append(tokens, Token{Text: string(r), Start: i, End: i + 1})
			i++
			continue
		}
		start := i
		for i < len(runes) {
			if isWordRune(runes[i]) {
				i++
				continue
			}
			if isJoiner(runes[i]) && i+1 < len(runes) && isWordRune(runes[i+1]) && i > start {
				i += 2
				continue
			}
			break
		}
		tokens = append(tokens, Token{Text: string(runes[start:i]), Start: start, End: i})
	}
	return tokens
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsMark(r)
}

func isJoiner(r rune) bool {
	switch r {
	case '-', '\'', '’', '.', ',':
		return true
	}
	return false
}
