package analyzer

import (
	"strings"
	"unicode"
)

// Tokenizer turns queries into lower-cased search terms and estimates
// token counts for prompts.
type Tokenizer struct{}

// NewTokenizer creates a new Tokenizer.
func NewTokenizer() *Tokenizer {
	return &Tokenizer{}
}

// Terms splits a query on whitespace and lower-cases every term. Duplicate
// terms are kept so they weigh twice in scoring.
func (t *Tokenizer) Terms(query string) []string {
	return strings.Fields(strings.ToLower(query))
}

// Phrase returns the lower-cased query used for the exact phrase match, or ""
// when the query has no terms.
func (t *Tokenizer) Phrase(query string) string {
	if strings.TrimSpace(query) == "" {
		return ""
	}
	return strings.ToLower(query)
}

// CountTokens returns an approximate token count for LLM budget estimation.
func (t *Tokenizer) CountTokens(text string) int {
	words := splitWords(text)
	if len(words) == 0 {
		return 0
	}
	// Rough estimate: average word is about 1.3 tokens
	return int(float64(len(words)) * 1.3)
}

// splitWords splits text into words using unicode word boundaries.
func splitWords(text string) []string {
	var words []string
	var current strings.Builder

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			current.WriteRune(r)
		} else {
			if current.Len() > 0 {
				words = append(words, current.String())
				current.Reset()
			}
		}
	}
	if current.Len() > 0 {
		words = append(words, current.String())
	}

	return words
}
