// Package docstore is the authoritative record of documents and their
// chunks. It owns the document lifecycle status machine: every status
// change goes through SetStatus, which rejects transitions the machine
// does not allow. The vector index never holds authoritative state; on
// any disagreement between the two, the docstore wins.
package docstore

import (
	"context"

	"github.com/documind-ai/documind-go/internal/core"
)

// Stats summarizes the corpus for health and observability endpoints.
type Stats struct {
	// Documents is the number of document records, tombstones excluded.
	Documents int
	// ByStatus breaks Documents down by lifecycle status.
	ByStatus map[core.Status]int
	// Chunks is the total number of stored chunks.
	Chunks int
}

// Store persists documents and chunks. Implementations must be safe for
// concurrent use.
//
// Lookups of unknown or deleted documents return core.ErrNotFound.
// Illegal lifecycle operations return core.ErrInvalidState.
type Store interface {
	// CreateDocument persists a new document record. The document must be
	// in StatusPending.
	CreateDocument(ctx context.Context, doc core.Document) error

	// GetDocument returns the document with the given ID.
	GetDocument(ctx context.Context, id string) (core.Document, error)

	// ListDocuments returns all live documents in insertion order.
	ListDocuments(ctx context.Context) ([]core.Document, error)

	// ReplaceChunks atomically replaces the document's chunk set. Legal
	// only while the document is PENDING or FAILED; once READY the chunk
	// set is immutable until deletion.
	ReplaceChunks(ctx context.Context, documentID string, chunks []core.Chunk) error

	// GetChunks returns the document's chunks ordered by sequence index.
	GetChunks(ctx context.Context, documentID string) ([]core.Chunk, error)

	// GetChunk returns a single chunk by its ID.
	GetChunk(ctx context.Context, chunkID string) (core.Chunk, error)

	// SetStatus moves the document to the given status, enforcing the
	// lifecycle transition table.
	SetStatus(ctx context.Context, documentID string, to core.Status) error

	// RecordFailure moves the document to FAILED and records the cause.
	RecordFailure(ctx context.Context, documentID string, cause error) error

	// DeleteDocument completes a delete: removes the document's chunks and
	// moves it to DELETED. Legal only while the document is DELETING. The
	// record itself is kept as a tombstone so the ID is never reused.
	DeleteDocument(ctx context.Context, documentID string) error

	// Stats returns corpus counters.
	Stats(ctx context.Context) (Stats, error)

	// Close releases any resources held by the store.
	Close() error
}
