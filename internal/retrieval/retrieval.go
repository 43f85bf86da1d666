// Package retrieval is the read path of the engine: it embeds a query,
// searches the vector index, filters the candidates against the document
// store, and returns ranked passages. Only chunks of READY documents are
// ever returned; candidates whose document is mid-delete or gone are
// dropped silently, because the index is allowed to lag the store between
// mutations and reconciliation.
package retrieval

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/documind-ai/documind-go/internal/core"
	"github.com/documind-ai/documind-go/internal/docstore"
	"github.com/documind-ai/documind-go/internal/embedder"
	"github.com/documind-ai/documind-go/internal/vecindex"
)

const (
	// DefaultTopK is the number of passages returned when the caller does
	// not specify one.
	DefaultTopK = 5

	// DefaultOverfetch is the multiplier applied to top_k when querying
	// the index, creating headroom for candidates that the READY filter
	// and score floor will drop.
	DefaultOverfetch = 2
)

// Options tunes a retrieval Engine.
type Options struct {
	// TopK is the default number of passages per query (0 selects
	// DefaultTopK).
	TopK int

	// Overfetch is the index query multiplier (0 selects DefaultOverfetch).
	Overfetch int

	// MinScore is the default score floor; candidates scoring below it
	// are dropped. Zero disables the floor.
	MinScore float32
}

// Params carries per-query overrides. Unset fields fall back to the
// engine defaults.
type Params struct {
	// TopK is the number of passages to return.
	TopK int

	// MinScore, when non-nil, replaces the engine's score floor for this
	// query. Pointing at zero disables a configured floor.
	MinScore *float32
}

// Engine retrieves ranked passages for a query. It is safe for
// concurrent use and takes no locks: retrieval reads potentially stale
// index state and relies on the READY filter for correctness.
type Engine struct {
	gateway   *embedder.Gateway
	index     *vecindex.Adapter
	store     docstore.Store
	topK      int
	overfetch int
	minScore  float32
}

// NewEngine builds a retrieval engine over the given gateway, index and
// store.
func NewEngine(gateway *embedder.Gateway, index *vecindex.Adapter, store docstore.Store, opts Options) (*Engine, error) {
	if gateway == nil || index == nil || store == nil {
		return nil, fmt.Errorf("retrieval: gateway, index and store are all required: %w", core.ErrConfig)
	}
	if opts.TopK < 0 || opts.Overfetch < 0 || opts.MinScore < 0 {
		return nil, fmt.Errorf("retrieval: negative option: %w", core.ErrConfig)
	}
	if opts.TopK == 0 {
		opts.TopK = DefaultTopK
	}
	if opts.Overfetch == 0 {
		opts.Overfetch = DefaultOverfetch
	}
	return &Engine{
		gateway:   gateway,
		index:     index,
		store:     store,
		topK:      opts.TopK,
		overfetch: opts.Overfetch,
		minScore:  opts.MinScore,
	}, nil
}

// Retrieve embeds the query and returns up to TopK passages ranked by
// similarity. An empty or fully filtered candidate set yields an empty
// slice, not an error.
func (e *Engine) Retrieve(ctx context.Context, query string, p Params) ([]core.Passage, error) {
	topK := p.TopK
	if topK <= 0 {
		topK = e.topK
	}
	minScore := e.minScore
	if p.MinScore != nil {
		if *p.MinScore < 0 {
			return nil, fmt.Errorf("retrieval: negative min score: %w", core.ErrConfig)
		}
		minScore = *p.MinScore
	}

	vector, err := e.gateway.EmbedOne(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("retrieval: embed query: %w", err)
	}

	hits, err := e.index.Search(ctx, vector, topK*e.overfetch)
	if err != nil {
		return nil, fmt.Errorf("retrieval: %w", err)
	}

	type candidate struct {
		hit   vecindex.Hit
		chunk core.Chunk
		doc   core.Document
	}
	candidates := make([]candidate, 0, len(hits))
	// docs caches store lookups: hits cluster by document.
	docs := make(map[string]*core.Document)
	for _, hit := range hits {
		if hit.Score < minScore {
			continue
		}
		doc, ok := docs[hit.DocumentID]
		if !ok {
			fetched, err := e.store.GetDocument(ctx, hit.DocumentID)
			switch {
			case errors.Is(err, core.ErrNotFound):
				docs[hit.DocumentID] = nil
				continue
			case err != nil:
				return nil, fmt.Errorf("retrieval: resolve document %s: %w", hit.DocumentID, err)
			}
			doc = &fetched
			docs[hit.DocumentID] = doc
		}
		if doc == nil || doc.Status != core.StatusReady {
			continue
		}

		chunk, err := e.store.GetChunk(ctx, hit.ChunkID)
		if errors.Is(err, core.ErrNotFound) {
			// Index lagging the store: the chunk was deleted after the
			// search. Drop the candidate.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("retrieval: resolve chunk %s: %w", hit.ChunkID, err)
		}
		candidates = append(candidates, candidate{hit: hit, chunk: chunk, doc: *doc})
	}

	// Deterministic order: score descending, then sequence index, then
	// document ID. Equal-score candidates always rank the same way.
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.hit.Score != b.hit.Score {
			return a.hit.Score > b.hit.Score
		}
		if a.chunk.SequenceIndex != b.chunk.SequenceIndex {
			return a.chunk.SequenceIndex < b.chunk.SequenceIndex
		}
		return a.chunk.DocumentID < b.chunk.DocumentID
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}

	passages := make([]core.Passage, 0, len(candidates))
	for i, c := range candidates {
		passages = append(passages, core.Passage{
			ChunkID:    c.chunk.ID,
			DocumentID: c.chunk.DocumentID,
			SourceName: c.doc.SourceName,
			Text:       c.chunk.Text,
			Score:      c.hit.Score,
			Rank:       i + 1,
		})
	}
	return passages, nil
}
