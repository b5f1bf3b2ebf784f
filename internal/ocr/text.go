package ocr

import "golang.org/x/text/width"

// HasDigit reports whether s contains an ASCII or full-width digit.
func HasDigit(s string) bool {
	for _, r := range width.Narrow.String(s) {
		if r >= '0' && r <= '9' {
			return true
		}
	}
	return false
}

// pickToken prefers the first token containing a digit, then the first token.
func pickToken(tokens []Token) (Token, bool) {
	if len(tokens) == 0 {
		return Token{}, false
	}
	for _, t := range tokens {
		if HasDigit(t.Text) {
			return t, true
		}
	}
	return tokens[0], true
}
