package vecindex

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantConfig holds connection parameters for a Qdrant instance.
type QdrantConfig struct {
	// Host is the Qdrant server hostname (default: localhost).
	Host string

	// Port is the Qdrant gRPC port (default: 6334).
	Port int

	// Collection is the Qdrant collection name to use.
	Collection string

	// VectorSize is the dimensionality of the embeddings stored in this collection.
	VectorSize uint64

	// Metric selects the similarity function for the collection.
	Metric Metric

	// APIKey is the optional Qdrant API key for authenticated clusters.
	APIKey string

	// UseTLS enables TLS for the gRPC connection.
	UseTLS bool
}

// QdrantBackend implements Backend against a Qdrant instance.
type QdrantBackend struct {
	// client is the underlying Qdrant gRPC client.
	client *qdrant.Client

	// cfg holds the resolved configuration for this backend.
	cfg *QdrantConfig
}

var _ Backend = (*QdrantBackend)(nil)

// NewQdrantBackend connects to Qdrant and ensures the target collection
// exists, creating it with the configured dimensionality and metric if
// necessary.
func NewQdrantBackend(ctx context.Context, cfg *QdrantConfig) (*QdrantBackend, error) {
	if cfg.Host == "" {
		cfg.Host = "localhost"
	}
	if cfg.Port == 0 {
		cfg.Port = 6334
	}
	if cfg.Metric == "" {
		cfg.Metric = MetricCosine
	}

	clientCfg := &qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	}

	client, err := qdrant.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("qdrant: failed to create client: %w", err)
	}

	b := &QdrantBackend{client: client, cfg: cfg}
	if err := b.ensureCollection(ctx); err != nil {
		_ = client.Close()
		return nil, err
	}

	return b, nil
}

// ensureCollection creates the Qdrant collection if it does not already exist.
func (b *QdrantBackend) ensureCollection(ctx context.Context) error {
	exists, err := b.client.CollectionExists(ctx, b.cfg.Collection)
	if err != nil {
		return fmt.Errorf("qdrant: failed to check collection existence: %w", err)
	}
	if exists {
		return nil
	}

	distance := qdrant.Distance_Cosine
	if b.cfg.Metric == MetricDot {
		distance = qdrant.Distance_Dot
	}
	err = b.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: b.cfg.Collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     b.cfg.VectorSize,
			Distance: distance,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: failed to create collection %q: %w", b.cfg.Collection, err)
	}

	return nil
}

// Upsert writes chunk vectors as points keyed by chunk ID, carrying the
// owning document ID in the payload.
func (b *QdrantBackend) Upsert(ctx context.Context, records []Record) error {
	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, r := range records {
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(r.ChunkID),
			Vectors: qdrant.NewVectors(r.Vector...),
			Payload: qdrant.NewValueMap(map[string]interface{}{
				"document_id": r.DocumentID,
			}),
		})
	}

	_, err := b.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: b.cfg.Collection,
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert failed: %w", err)
	}

	return nil
}

// Search performs a similarity search and returns the top results.
func (b *QdrantBackend) Search(ctx context.Context, vector []float32, limit int) ([]Hit, error) {
	lim := uint64(limit)
	results, err := b.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: b.cfg.Collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &lim,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: search failed: %w", err)
	}

	hits := make([]Hit, 0, len(results))
	for _, r := range results {
		hit := Hit{
			ChunkID: r.Id.GetUuid(),
			Score:   r.Score,
		}
		if p := r.Payload; p != nil {
			if v, ok := p["document_id"]; ok {
				hit.DocumentID = v.GetStringValue()
			}
		}
		hits = append(hits, hit)
	}

	return hits, nil
}

// Remove deletes points from the collection by chunk ID.
func (b *QdrantBackend) Remove(ctx context.Context, chunkIDs []string) error {
	pointIDs := make([]*qdrant.PointId, 0, len(chunkIDs))
	for _, id := range chunkIDs {
		pointIDs = append(pointIDs, qdrant.NewIDUUID(id))
	}

	_, err := b.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: b.cfg.Collection,
		Points:         qdrant.NewPointsSelector(pointIDs...),
	})
	if err != nil {
		return fmt.Errorf("qdrant: delete failed: %w", err)
	}

	return nil
}

// HealthCheck verifies the Qdrant connection, for readiness probes.
func (b *QdrantBackend) HealthCheck(ctx context.Context) error {
	if _, err := b.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying Qdrant gRPC connection.
func (b *QdrantBackend) Close() error {
	return b.client.Close()
}
