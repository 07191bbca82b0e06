package retriever

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"ragchat/internal/adapter/analyzer"
	"ragchat/internal/adapter/chunker"
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const (
	// DefaultTopK is the number of chunks callers ask for when a request
	// names none.
	DefaultTopK = 3

	// ExactPhraseBonus is added once when a chunk contains the whole query.
	ExactPhraseBonus = 5

	// MinChunkLength is the trimmed length a formatted chunk must exceed.
	MinChunkLength = 50
)

var _ port.Retriever = (*KeywordRetriever)(nil)

// KeywordRetriever scores chunks by query term occurrences, normalised by
// chunk length.
type KeywordRetriever struct {
	chunker              *chunker.TextChunker
	tokenizer            *analyzer.Tokenizer
	minChunkLength       int
	filterBeforeTruncate bool
}

type Option func(*KeywordRetriever)

// WithChunker replaces the default 1000/200 chunker.
func WithChunker(c *chunker.TextChunker) Option {
	return func(r *KeywordRetriever) {
		r.chunker = c
	}
}

// WithMinChunkLength changes the length filter threshold.
func WithMinChunkLength(n int) Option {
	return func(r *KeywordRetriever) {
		r.minChunkLength = n
	}
}

// WithFilterBeforeTruncate drops short chunks before taking the top K, so
// short chunks never crowd out longer ones further down the ranking. The
// default filters after truncation and may return fewer than topK chunks.
func WithFilterBeforeTruncate(enabled bool) Option {
	return func(r *KeywordRetriever) {
		r.filterBeforeTruncate = enabled
	}
}

func NewKeywordRetriever(tokenizer *analyzer.Tokenizer, opts ...Option) *KeywordRetriever {
	r := &KeywordRetriever{
		chunker:        chunker.NewDefaultTextChunker(),
		tokenizer:      tokenizer,
		minChunkLength: MinChunkLength,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Retrieve returns at most topK formatted chunks ordered by descending
// score. Equal scores keep document order, then chunk order. A non-positive
// topK returns no chunks.
func (r *KeywordRetriever) Retrieve(query string, docs []domain.Document, topK int) []domain.ScoredChunk {
	if len(docs) == 0 || topK <= 0 {
		return []domain.ScoredChunk{}
	}

	terms := r.tokenizer.Terms(query)
	phrase := r.tokenizer.Phrase(query)

	var results []domain.ScoredChunk
	for pos, doc := range docs {
		for _, chunk := range r.chunker.Chunk(doc, pos) {
			results = append(results, domain.ScoredChunk{
				Text:   chunk.Text,
				Score:  Score(chunk.Text, terms, phrase),
				Source: chunk.DocName,
			})
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if !r.filterBeforeTruncate {
		results = truncate(results, topK)
	}
	for i := range results {
		results[i].Text = Format(results[i].Source, results[i].Text)
	}

	return truncate(r.filterShort(results), topK)
}

// Score counts literal occurrences of every term in the lower-cased chunk,
// adds ExactPhraseBonus when the chunk contains phrase, and normalises a
// positive total to matches per thousand characters.
func Score(chunk string, terms []string, phrase string) float64 {
	lower := strings.ToLower(chunk)

	matches := 0
	for _, term := range terms {
		matches += strings.Count(lower, term)
	}
	if phrase != "" && strings.Contains(lower, phrase) {
		matches += ExactPhraseBonus
	}

	if matches == 0 {
		return 0
	}
	return float64(matches) / float64(utf8.RuneCountInString(chunk)) * 1000
}

// Format prefixes a chunk with its source document name.
func Format(docName, chunk string) string {
	return fmt.Sprintf("[From: %s]\n%s", docName, chunk)
}

func (r *KeywordRetriever) filterShort(results []domain.ScoredChunk) []domain.ScoredChunk {
	filtered := make([]domain.ScoredChunk, 0, len(results))
	for _, sc := range results {
		if utf8.RuneCountInString(strings.TrimSpace(sc.Text)) > r.minChunkLength {
			filtered = append(filtered, sc)
		}
	}
	return filtered
}

func truncate(results []domain.ScoredChunk, k int) []domain.ScoredChunk {
	if len(results) > k {
		return results[:k]
	}
	return results
}
