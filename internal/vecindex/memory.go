package vecindex

import (
	"context"
	"math"
	"sort"
	"sync"
)

// MemoryBackend is an in-process Backend used in tests and for throwaway
// runs. It brute-forces similarity over all stored vectors, which is fine
// for small corpora.
type MemoryBackend struct {
	metric Metric

	mu     sync.RWMutex
	points map[string]Record
}

var _ Backend = (*MemoryBackend)(nil)

// NewMemoryBackend returns an empty in-memory backend using the given
// similarity metric.
func NewMemoryBackend(metric Metric) *MemoryBackend {
	if metric == "" {
		metric = MetricCosine
	}
	return &MemoryBackend{metric: metric, points: make(map[string]Record)}
}

// Upsert writes records, overwriting existing points with the same IDs.
func (b *MemoryBackend) Upsert(_ context.Context, records []Record) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range records {
		vec := make([]float32, len(r.Vector))
		copy(vec, r.Vector)
		r.Vector = vec
		b.points[r.ChunkID] = r
	}
	return nil
}

// Search brute-forces similarity over all points and returns the top
// limit hits ordered by descending score, ties broken by chunk ID for
// determinism.
func (b *MemoryBackend) Search(_ context.Context, vector []float32, limit int) ([]Hit, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	hits := make([]Hit, 0, len(b.points))
	for _, r := range b.points {
		hits = append(hits, Hit{
			ChunkID:    r.ChunkID,
			DocumentID: r.DocumentID,
			Score:      b.score(vector, r.Vector),
		})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
	if len(hits) > limit {
		hits = hits[:limit]
	}
	return hits, nil
}

// Remove deletes points by chunk ID. Absent IDs are ignored.
func (b *MemoryBackend) Remove(_ context.Context, chunkIDs []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range chunkIDs {
		delete(b.points, id)
	}
	return nil
}

// Close is a no-op.
func (b *MemoryBackend) Close() error { return nil }

// Len reports the number of stored points, for tests.
func (b *MemoryBackend) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.points)
}

// Has reports whether a point with the given chunk ID exists, for tests.
func (b *MemoryBackend) Has(chunkID string) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	_, ok := b.points[chunkID]
	return ok
}

func (b *MemoryBackend) score(q, v []float32) float32 {
	dot := float64(0)
	for i := range q {
		if i >= len(v) {
			break
		}
		dot += float64(q[i]) * float64(v[i])
	}
	if b.metric == MetricDot {
		return float32(dot)
	}
	qn, vn := norm(q), norm(v)
	if qn == 0 || vn == 0 {
		return 0
	}
	return float32(dot / (qn * vn))
}

func norm(v []float32) float64 {
	sum := float64(0)
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
