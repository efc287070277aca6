package processor

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Tokenizer counts the meaningful words of a text: alphabetic tokens,
// lowercased with Spanish casing rules, minus stop words.
//
// A Tokenizer is not safe for concurrent use.
type Tokenizer struct {
	stop  StopWords
	lower cases.Caser
}

func NewTokenizer(stop StopWords) *Tokenizer {
	return &Tokenizer{
		stop:  stop,
		lower: cases.Lower(language.Spanish),
	}
}

// Tokens returns the kept tokens of text in order.
func (t *Tokenizer) Tokens(text string) []string {
	var out []string
	// composed form so accented letters count as single letters
	for _, field := range strings.Fields(norm.NFC.String(text)) {
		// leading/trailing punctuation is its own (non-alphabetic) token
		word := strings.TrimFunc(field, isPunctOrSymbol)
		if !isAlpha(word) {
			continue
		}
		word = t.lower.String(word)
		if t.stop.Contains(word) {
			continue
		}
		out = append(out, word)
	}
	return out
}

// Count returns len(Tokens(text)).
func (t *Tokenizer) Count(text string) int {
	return len(t.Tokens(text))
}

func isPunctOrSymbol(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

func isAlpha(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
