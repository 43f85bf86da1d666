// Package chunker splits extracted document text into overlapping,
// bounded-size chunks with stable byte offsets. Offsets always address
// exact substrings of the source text so the original passage can be
// reconstructed from the document at any time.
package chunker

import (
	"fmt"

	"github.com/documind-ai/documind-go/internal/core"
)

// Default chunking parameters, applied when config leaves them unset.
const (
	// DefaultSize is the default maximum chunk length in bytes.
	DefaultSize = 1000
	// DefaultOverlap is the default overlap between consecutive chunks.
	DefaultOverlap = 100
)

// Chunker produces the ordered chunk sequence for a document. It is
// stateless after construction and safe for concurrent use.
type Chunker struct {
	// size is the maximum chunk length in bytes.
	size int
	// overlap is the number of bytes shared between consecutive chunks.
	overlap int
}

// New constructs a Chunker, validating the splitting parameters.
// size must be positive and overlap must satisfy 0 <= overlap < size.
func New(size, overlap int) (*Chunker, error) {
	if size <= 0 {
		return nil, fmt.Errorf("chunker: chunk size %d must be positive: %w", size, core.ErrConfig)
	}
	if overlap < 0 || overlap >= size {
		return nil, fmt.Errorf("chunker: overlap %d must be in [0, %d): %w", overlap, size, core.ErrConfig)
	}
	return &Chunker{size: size, overlap: overlap}, nil
}

// Size returns the configured maximum chunk length.
func (c *Chunker) Size() int { return c.size }

// Overlap returns the configured overlap between consecutive chunks.
func (c *Chunker) Overlap() int { return c.overlap }

// Chunk splits text into the ordered chunk sequence for the given
// document. The walk advances in strides of size-overlap; each chunk
// spans [i, min(i+size, len(text))) and the final chunk always reaches
// the end of the text. Text shorter than the chunk size yields exactly
// one chunk; empty text yields none.
func (c *Chunker) Chunk(documentID, text string) []core.Chunk {
	if len(text) == 0 {
		return nil
	}

	stride := c.size - c.overlap
	chunks := make([]core.Chunk, 0, 1+len(text)/stride)

	for start := 0; start < len(text); start += stride {
		end := start + c.size
		if end > len(text) {
			end = len(text)
		}

		seq := len(chunks)
		chunks = append(chunks, core.Chunk{
			ID:            core.ChunkID(documentID, seq),
			DocumentID:    documentID,
			Text:          text[start:end],
			StartOffset:   start,
			EndOffset:     end,
			SequenceIndex: seq,
		})

		// The final chunk reached the end; continuing would emit an
		// empty or duplicate tail.
		if end == len(text) {
			break
		}
	}

	return chunks
}
