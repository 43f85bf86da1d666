package docstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/documind-ai/documind-go/internal/core"
)

// MemoryStore is an in-memory Store used in tests and for throwaway
// single-process runs. It is safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex
	// docs holds the document records by ID, tombstones included.
	docs map[string]core.Document
	// order preserves document insertion order for listing.
	order []string
	// chunks holds each document's chunk set by document ID, already
	// ordered by sequence index.
	chunks map[string][]core.Chunk
	// byChunkID maps chunk ID to owning document ID for point lookups.
	byChunkID map[string]string
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		docs:      make(map[string]core.Document),
		chunks:    make(map[string][]core.Chunk),
		byChunkID: make(map[string]string),
	}
}

// CreateDocument persists a new document record.
func (m *MemoryStore) CreateDocument(_ context.Context, doc core.Document) error {
	if doc.Status != core.StatusPending {
		return fmt.Errorf("docstore: new document %s must be PENDING, got %s: %w",
			doc.ID, doc.Status, core.ErrInvalidState)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.docs[doc.ID]; ok {
		return fmt.Errorf("docstore: document %s already exists", doc.ID)
	}
	m.docs[doc.ID] = doc
	m.order = append(m.order, doc.ID)
	return nil
}

// GetDocument returns the document with the given ID.
func (m *MemoryStore) GetDocument(_ context.Context, id string) (core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.docs[id]
	if !ok {
		return core.Document{}, fmt.Errorf("docstore: document %s: %w", id, core.ErrNotFound)
	}
	return doc, nil
}

// ListDocuments returns all live documents in insertion order.
func (m *MemoryStore) ListDocuments(_ context.Context) ([]core.Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var docs []core.Document
	for _, id := range m.order {
		if doc := m.docs[id]; doc.Status != core.StatusDeleted {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// ReplaceChunks atomically replaces the document's chunk set.
func (m *MemoryStore) ReplaceChunks(_ context.Context, documentID string, chunks []core.Chunk) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[documentID]
	if !ok {
		return fmt.Errorf("docstore: document %s: %w", documentID, core.ErrNotFound)
	}
	if doc.Status != core.StatusPending && doc.Status != core.StatusFailed {
		return fmt.Errorf("docstore: cannot replace chunks of %s document %s: %w",
			doc.Status, documentID, core.ErrInvalidState)
	}
	m.dropChunksLocked(documentID)
	copied := make([]core.Chunk, len(chunks))
	copy(copied, chunks)
	m.chunks[documentID] = copied
	for _, c := range copied {
		m.byChunkID[c.ID] = documentID
	}
	return nil
}

// GetChunks returns the document's chunks ordered by sequence index.
func (m *MemoryStore) GetChunks(_ context.Context, documentID string) ([]core.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.docs[documentID]; !ok {
		return nil, fmt.Errorf("docstore: document %s: %w", documentID, core.ErrNotFound)
	}
	stored := m.chunks[documentID]
	chunks := make([]core.Chunk, len(stored))
	copy(chunks, stored)
	return chunks, nil
}

// GetChunk returns a single chunk by its ID.
func (m *MemoryStore) GetChunk(_ context.Context, chunkID string) (core.Chunk, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	documentID, ok := m.byChunkID[chunkID]
	if !ok {
		return core.Chunk{}, fmt.Errorf("docstore: chunk %s: %w", chunkID, core.ErrNotFound)
	}
	for _, c := range m.chunks[documentID] {
		if c.ID == chunkID {
			return c, nil
		}
	}
	return core.Chunk{}, fmt.Errorf("docstore: chunk %s: %w", chunkID, core.ErrNotFound)
}

// SetStatus moves the document to the given status, enforcing the
// lifecycle transition table.
func (m *MemoryStore) SetStatus(_ context.Context, documentID string, to core.Status) error {
	return m.setStatus(documentID, to, "")
}

// RecordFailure moves the document to FAILED and records the cause.
func (m *MemoryStore) RecordFailure(_ context.Context, documentID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return m.setStatus(documentID, core.StatusFailed, msg)
}

func (m *MemoryStore) setStatus(documentID string, to core.Status, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[documentID]
	if !ok {
		return fmt.Errorf("docstore: document %s: %w", documentID, core.ErrNotFound)
	}
	if !core.CanTransition(doc.Status, to) {
		return fmt.Errorf("docstore: document %s cannot go %s -> %s: %w",
			documentID, doc.Status, to, core.ErrInvalidState)
	}
	doc.Status = to
	doc.FailureCause = cause
	m.docs[documentID] = doc
	return nil
}

// DeleteDocument completes a delete: removes the document's chunks and
// moves it to DELETED.
func (m *MemoryStore) DeleteDocument(_ context.Context, documentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	doc, ok := m.docs[documentID]
	if !ok {
		return fmt.Errorf("docstore: document %s: %w", documentID, core.ErrNotFound)
	}
	if !core.CanTransition(doc.Status, core.StatusDeleted) {
		return fmt.Errorf("docstore: document %s cannot go %s -> %s: %w",
			documentID, doc.Status, core.StatusDeleted, core.ErrInvalidState)
	}
	m.dropChunksLocked(documentID)
	doc.Status = core.StatusDeleted
	doc.FailureCause = ""
	m.docs[documentID] = doc
	return nil
}

// Stats returns corpus counters.
func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := Stats{ByStatus: make(map[core.Status]int)}
	for _, doc := range m.docs {
		if doc.Status == core.StatusDeleted {
			continue
		}
		st.ByStatus[doc.Status]++
		st.Documents++
	}
	for _, chunks := range m.chunks {
		st.Chunks += len(chunks)
	}
	return st, nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) dropChunksLocked(documentID string) {
	for _, c := range m.chunks[documentID] {
		delete(m.byChunkID, c.ID)
	}
	delete(m.chunks, documentID)
}
