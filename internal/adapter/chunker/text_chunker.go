package chunker

import (
	"ragchat/internal/domain"
	"ragchat/internal/port"
)

const (
	DefaultChunkSize = 1000
	DefaultOverlap   = 200
)

var _ port.Chunker = (*TextChunker)(nil)

// TextChunker splits text into overlapping character windows, preferring to
// end each window just after a '.' or a newline.
type TextChunker struct {
	chunkSize int
	overlap   int
}

// NewTextChunker creates a chunker. A non-positive chunkSize selects the
// default size and a negative overlap is treated as zero.
func NewTextChunker(chunkSize, overlap int) *TextChunker {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	return &TextChunker{
		chunkSize: chunkSize,
		overlap:   overlap,
	}
}

// NewDefaultTextChunker returns a chunker with 1000 character windows and a
// 200 character overlap.
func NewDefaultTextChunker() *TextChunker {
	return NewTextChunker(DefaultChunkSize, DefaultOverlap)
}

func (c *TextChunker) ChunkSize() int { return c.chunkSize }

func (c *TextChunker) Overlap() int { return c.overlap }

// Split returns the chunks of text from left to right. Positions are counted
// in runes so multi-byte characters are never cut in half.
func (c *TextChunker) Split(text string) []string {
	runes := []rune(text)
	windows := c.windows(runes)

	chunks := make([]string, 0, len(windows))
	for _, w := range windows {
		chunks = append(chunks, string(runes[w.start:w.end]))
	}
	return chunks
}

type window struct {
	start, end int
}

func (c *TextChunker) windows(runes []rune) []window {
	n := len(runes)

	var out []window
	start := 0

	// The next start comes from the unclamped end. A text that ends inside
	// the overlap therefore closes with a short tail window.
	for start < n {
		end := start + c.chunkSize

		if end < n {
			breakPoint := lastBreak(runes, end)
			if breakPoint > start+c.chunkSize/2 {
				end = breakPoint + 1
			}
		}

		out = append(out, window{start: start, end: min(end, n)})

		newStart := end - c.overlap
		if newStart <= start {
			newStart = start + 1
		}
		start = newStart
	}

	return out
}

// Chunk splits a document into chunks tagged with the document name.
func (c *TextChunker) Chunk(doc domain.Document, docPos int) []domain.Chunk {
	texts := c.Split(doc.Content)
	chunks := make([]domain.Chunk, 0, len(texts))
	for i, text := range texts {
		chunks = append(chunks, domain.Chunk{
			DocName: doc.Name,
			DocPos:  docPos,
			Index:   i,
			Text:    text,
		})
	}
	return chunks
}

// lastBreak returns the last index at or before edge holding a sentence
// terminator or a newline, or -1.
func lastBreak(runes []rune, edge int) int {
	if edge >= len(runes) {
		edge = len(runes) - 1
	}
	for i := edge; i >= 0; i-- {
		if runes[i] == '.' || runes[i] == '\n' {
			return i
		}
	}
	return -1
}
