package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer estimates how many model tokens a piece of text costs.
type Tokenizer struct {
	ratio float64
}

// NewTokenizer creates a Tokenizer using the default words-to-tokens ratio.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{ratio: 1.3}
}

// Words splits text into lowercase words.
func (t *Tokenizer) Words(text string) []string {
	words := splitWords(text)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// CountTokens returns an approximate token count for chunk budgeting.
// Subword tokenizers average roughly 1.3 tokens per English word.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	return int(float64(len(words)) * t.ratio)
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
			continue
		}
		if current.Len() > 0 {
			words = append(words, current.String())
			current.Reset()
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
