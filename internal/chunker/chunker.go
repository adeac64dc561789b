// Package chunker splits extracted document text into overlapping windows.
package chunker

import "fmt"

// Chunker splits text into fixed-size overlapping rune windows.
// Sizes are measured in runes so multi-byte text chunks cleanly.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
}

// New creates a chunker with the given window size and overlap (in runes).
// Overlap must be positive and smaller than the window size, so adjacent
// windows always share context.
func New(chunkSize, chunkOverlap int) (*Chunker, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap <= 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in (0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}, nil
}

// Chunk splits text into successive windows of chunkSize runes, each window
// starting chunkSize-chunkOverlap runes after the previous one. The final
// window may be shorter; it is emitted if it contains at least one rune.
// Empty input yields nil. Pure function, no I/O.
func (c *Chunker) Chunk(text string) []string {
	runes := []rune(text)
	if len(runes) == 0 {
		return nil
	}
	step := c.chunkSize - c.chunkOverlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for i := 0; i < len(runes); i += step {
		end := i + c.chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end >= len(runes) {
			break
		}
	}
	return chunks
}

// Size returns the configured window size in runes.
func (c *Chunker) Size() int { return c.chunkSize }

// Overlap returns the configured overlap in runes.
func (c *Chunker) Overlap() int { return c.chunkOverlap }
