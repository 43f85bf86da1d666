package vecindex

import (
	"context"
	"fmt"
	"runtime"

	chromem "github.com/philippgille/chromem-go"
)

// ChromemConfig holds parameters for the embedded chromem backend.
type ChromemConfig struct {
	// Path is the on-disk database directory. Empty selects a purely
	// in-memory database.
	Path string

	// Collection is the collection name to use.
	Collection string
}

// ChromemBackend implements Backend on an embedded chromem-go database.
// It needs no external service, which makes it the default for local and
// single-binary deployments. chromem computes cosine similarity over
// normalized vectors; the dot metric is not supported here.
type ChromemBackend struct {
	db         *chromem.DB
	collection *chromem.Collection
}

var _ Backend = (*ChromemBackend)(nil)

// NewChromemBackend opens (or creates) the chromem database and collection.
func NewChromemBackend(cfg *ChromemConfig) (*ChromemBackend, error) {
	var db *chromem.DB
	var err error
	if cfg.Path == "" {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("chromem: open %s: %w", cfg.Path, err)
		}
	}

	// The embedding func is never invoked: every document arrives with a
	// precomputed embedding.
	collection, err := db.GetOrCreateCollection(cfg.Collection, nil,
		func(_ context.Context, _ string) ([]float32, error) {
			return nil, fmt.Errorf("chromem: embeddings must be precomputed")
		})
	if err != nil {
		return nil, fmt.Errorf("chromem: collection %q: %w", cfg.Collection, err)
	}

	return &ChromemBackend{db: db, collection: collection}, nil
}

// Upsert writes chunk vectors as documents keyed by chunk ID.
func (b *ChromemBackend) Upsert(ctx context.Context, records []Record) error {
	docs := make([]chromem.Document, 0, len(records))
	for _, r := range records {
		docs = append(docs, chromem.Document{
			ID:        r.ChunkID,
			Content:   r.ChunkID, // chromem requires content; the docstore owns the text
			Embedding: r.Vector,
			Metadata:  map[string]string{"document_id": r.DocumentID},
		})
	}
	if err := b.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("chromem: upsert failed: %w", err)
	}
	return nil
}

// Search performs a cosine similarity search and returns the top results.
func (b *ChromemBackend) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	// chromem rejects NResults larger than the collection.
	if count := b.collection.Count(); count < limit {
		limit = count
	}
	if limit == 0 {
		return nil, nil
	}

	results, err := b.collection.QueryWithOptions(ctx, chromem.QueryOptions{
		QueryEmbedding: vector,
		NResults:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("chromem: search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hits = append(hits, Hit{
			ChunkID:    r.ID,
			DocumentID: r.Metadata["document_id"],
			Score:      r.Similarity,
		})
	}
	return hits, nil
}

// Remove deletes documents from the collection by chunk ID.
func (b *ChromemBackend) Remove(ctx context.Context, chunkIDs []string) error {
	if err := b.collection.Delete(ctx, nil, nil, chunkIDs...); err != nil {
		return fmt.Errorf("chromem: delete failed: %w", err)
	}
	return nil
}

// Close is a no-op; chromem persists on every write.
func (b *ChromemBackend) Close() error { return nil }
