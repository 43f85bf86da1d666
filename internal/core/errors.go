package core

import (
	"errors"
	"fmt"
)

// Sentinel errors forming the error taxonomy of the engine. Packages wrap
// these with fmt.Errorf("...: %w", ...) so callers can classify failures
// with errors.Is without depending on concrete implementations.
var (
	// ErrConfig indicates invalid configuration. Fatal at startup.
	ErrConfig = errors.New("invalid configuration")

	// ErrUnsupportedFormat indicates the document format cannot be extracted.
	ErrUnsupportedFormat = errors.New("unsupported document format")

	// ErrExtraction indicates text extraction failed for a supported format.
	ErrExtraction = errors.New("extraction failed")

	// ErrEmbedding indicates the embedding capability failed or timed out.
	// Per-batch detail is carried by EmbeddingError.
	ErrEmbedding = errors.New("embedding failed")

	// ErrIndex indicates a vector index operation failed but the index was
	// left consistent (any partial writes were rolled back).
	ErrIndex = errors.New("vector index operation failed")

	// ErrIndexInconsistency indicates a failed index operation could not be
	// rolled back. The affected document must be repaired by reconciliation.
	ErrIndexInconsistency = errors.New("vector index left inconsistent")

	// ErrInvalidState indicates an illegal document status transition was
	// requested. This is a caller error, not an operational failure.
	ErrInvalidState = errors.New("illegal status transition")

	// ErrNotFound indicates an unknown document or chunk ID.
	ErrNotFound = errors.New("not found")
)

// EmbeddingError reports a failed embedding batch. It wraps ErrEmbedding
// and records the half-open input index range [Start, End) of the batch
// that failed, so callers can tell which inputs never produced vectors.
type EmbeddingError struct {
	// Start is the inclusive index of the first input in the failed batch.
	Start int
	// End is the exclusive index past the last input in the failed batch.
	End int
	// Err is the underlying cause from the embedding backend.
	Err error
}

// Error implements the error interface.
func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("%v: inputs [%d, %d): %v", ErrEmbedding, e.Start, e.End, e.Err)
}

// Unwrap exposes the underlying backend error to errors.Is / errors.As.
func (e *EmbeddingError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, core.ErrEmbedding) match any EmbeddingError.
func (e *EmbeddingError) Is(target error) bool { return target == ErrEmbedding }
