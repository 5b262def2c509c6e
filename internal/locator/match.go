package locator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Matcher reports whether page text proves the invoice id.
type Matcher func(text, invoiceID string) bool

// SubstringMatcher matches when the id occurs anywhere in the text. Note
// that "100" matches a page mentioning "1001".
func SubstringMatcher(text, invoiceID string) bool {
	return invoiceID != "" && strings.Contains(text, invoiceID)
}

// TokenMatcher matches when the id occurs with no letter or digit directly
// before or after it, so "100" does not match "1001".
func TokenMatcher(text, invoiceID string) bool {
	if invoiceID == "" {
		return false
	}

	offset := 0
	for {
		i := strings.Index(text[offset:], invoiceID)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(invoiceID)

		if boundaryBefore(text, start) && boundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
}

// MatcherFor returns the matcher for a configured match mode.
func MatcherFor(mode string) (Matcher, error) {
	switch mode {
	case "", "substring":
		return SubstringMatcher, nil
	case "token":
		return TokenMatcher, nil
	default:
		return nil, fmt.Errorf("unknown match mode %q", mode)
	}
}

func boundaryBefore(text string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(text[:i])
	return !isWordRune(r)
}

func boundaryAfter(text string, i int) bool {
	if i >= len(text) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(text[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
