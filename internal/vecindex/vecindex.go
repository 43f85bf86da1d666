// Package vecindex adapts vector database backends (Qdrant, embedded
// chromem, in-memory) to the retrieval engine. The index is a disposable
// projection of the document store: it holds one record per chunk of each
// READY document and can always be rebuilt from the store. The Adapter
// layers batched writes with rollback on top of a raw Backend so partial
// inserts never survive a failure.
package vecindex

import (
	"context"
	"fmt"

	"github.com/documind-ai/documind-go/internal/core"
)

// Metric selects the similarity function used by the index.
type Metric string

const (
	// MetricCosine is cosine similarity, the default.
	MetricCosine Metric = "cosine"
	// MetricDot is the raw dot product, for pre-normalized embeddings.
	MetricDot Metric = "dot"
)

// ParseMetric validates a metric name from configuration.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricDot:
		return Metric(s), nil
	case "":
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("vecindex: unknown similarity metric %q: %w", s, core.ErrConfig)
	}
}

// Record is one indexed chunk vector. The point ID is the chunk ID; the
// owning document ID rides along as payload so hits can be filtered
// against the document store without a join.
type Record struct {
	// ChunkID is the vector point ID.
	ChunkID string
	// DocumentID is the owning document.
	DocumentID string
	// Vector is the chunk's embedding.
	Vector []float32
}

// Hit is one nearest-neighbor result.
type Hit struct {
	// ChunkID identifies the matched chunk.
	ChunkID string
	// DocumentID is the owning document, from the record payload.
	DocumentID string
	// Score is the similarity score, higher is better.
	Score float32
}

// Backend is a raw vector database. Implementations must be safe for
// concurrent use. Upsert and Remove are idempotent: re-upserting a chunk
// ID overwrites, removing an absent ID is not an error.
type Backend interface {
	// Upsert writes records, overwriting any existing points with the
	// same chunk IDs.
	Upsert(ctx context.Context, records []Record) error
	// Search returns up to limit nearest neighbors of the query vector,
	// ordered by descending score.
	Search(ctx context.Context, vector []float32, limit int) ([]Hit, error)
	// Remove deletes points by chunk ID. Absent IDs are ignored.
	Remove(ctx context.Context, chunkIDs []string) error
	// Close releases backend resources.
	Close() error
}

// DefaultInsertBatch is the number of records written per backend call
// when no explicit batch size is configured.
const DefaultInsertBatch = 128

// Adapter wraps a Backend with the write semantics the orchestrator
// relies on: Insert either lands every record or rolls back the ones it
// already wrote, so a failure leaves the index without any trace of the
// attempted document.
type Adapter struct {
	backend Backend
	batch   int
}

// NewAdapter wraps backend. batch limits records per backend call
// (0 selects DefaultInsertBatch).
func NewAdapter(backend Backend, batch int) (*Adapter, error) {
	if backend == nil {
		return nil, fmt.Errorf("vecindex: backend must not be nil: %w", core.ErrConfig)
	}
	if batch <= 0 {
		batch = DefaultInsertBatch
	}
	return &Adapter{backend: backend, batch: batch}, nil
}

// Insert writes all records in batches. If a batch fails, the records
// already written are removed again; if that rollback also fails the
// index is left holding a partial document and the error wraps
// core.ErrIndexInconsistency so the caller can schedule reconciliation.
func (a *Adapter) Insert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	written := make([]string, 0, len(records))
	for start := 0; start < len(records); start += a.batch {
		end := start + a.batch
		if end > len(records) {
			end = len(records)
		}
		if err := a.backend.Upsert(ctx, records[start:end]); err != nil {
			if len(written) == 0 {
				return fmt.Errorf("vecindex: insert batch [%d,%d): %v: %w", start, end, err, core.ErrIndex)
			}
			// Undo the batches that did land. Rollback runs detached from
			// ctx so a canceled request cannot strand partial state.
			if rbErr := a.backend.Remove(context.WithoutCancel(ctx), written); rbErr != nil {
				return fmt.Errorf("vecindex: insert batch [%d,%d) failed (%v) and rollback of %d records failed (%v): %w",
					start, end, err, len(written), rbErr, core.ErrIndexInconsistency)
			}
			return fmt.Errorf("vecindex: insert batch [%d,%d): %v: %w", start, end, err, core.ErrIndex)
		}
		for _, r := range records[start:end] {
			written = append(written, r.ChunkID)
		}
	}
	return nil
}

// Search returns up to limit nearest neighbors of the query vector.
func (a *Adapter) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	hits, err := a.backend.Search(ctx, vector, limit)
	if err != nil {
		return nil, fmt.Errorf("vecindex: search: %v: %w", err, core.ErrIndex)
	}
	return hits, nil
}

// Remove deletes points by chunk ID. Absent IDs are ignored, which makes
// delete and reconciliation sweeps idempotent.
func (a *Adapter) Remove(ctx context.Context, chunkIDs []string) error {
	if len(chunkIDs) == 0 {
		return nil
	}
	if err := a.backend.Remove(ctx, chunkIDs); err != nil {
		return fmt.Errorf("vecindex: remove %d points: %v: %w", len(chunkIDs), err, core.ErrIndex)
	}
	return nil
}

// Close releases the underlying backend.
func (a *Adapter) Close() error {
	return a.backend.Close()
}
