// Package ingest splits document text into overlapping passages for embedding.
package ingest

import "strings"

// Default chunking parameters. Overlap keeps sentences that straddle a chunk
// boundary retrievable from both sides; chunks shorter than the minimum carry
// too little signal to embed.
const (
	DefaultChunkSize    = 600
	DefaultChunkOverlap = 100
	DefaultMinChunkLen  = 50
)

// Chunker splits text into fixed-size overlapping windows, measured in runes.
type Chunker struct {
	size    int
	overlap int
	minLen  int
}

// NewChunker creates a chunker. Overlap must be smaller than size; callers
// pass the defaults unless tuning for a specific corpus.
func NewChunker(size, overlap, minLen int) *Chunker {
	return &Chunker{size: size, overlap: overlap, minLen: minLen}
}

// DefaultChunker returns a chunker with the default parameters.
func DefaultChunker() *Chunker {
	return NewChunker(DefaultChunkSize, DefaultChunkOverlap, DefaultMinChunkLen)
}

// Chunk splits text into windows of size runes advancing by size-overlap,
// trimming each window and dropping those shorter than the minimum length.
// Blank input yields no chunks.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) == 0 {
		return nil
	}

	step := c.size - c.overlap
	if step < 1 {
		step = 1
	}

	chunks := make([]string, 0, len(runes)/step+1)

	for start := 0; start < len(runes); start += step {
		end := start + c.size
		if end > len(runes) {
			end = len(runes)
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if len([]rune(chunk)) >= c.minLen {
			chunks = append(chunks, chunk)
		}

		if end == len(runes) {
			break
		}
	}

	return chunks
}
