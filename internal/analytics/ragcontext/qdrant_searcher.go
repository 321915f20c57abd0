package ragcontext

import (
	"context"
	"fmt"

	"github.com/qdrant/go-client/qdrant"
)

// QdrantSearcher is the live Searcher backing the RAG context service in production,
// talking to the same Qdrant cluster the document-RAG collection
// (document ingestion) lives in, under its own bankadvisor_* collections.
type QdrantSearcher struct {
	client *qdrant.Client
}

// NewQdrantSearcher dials host:port. gRPC connections are lazy, so
// this never blocks on cluster availability — callers degrade via
// CollectionExists/Search errors instead.
func NewQdrantSearcher(host string, port int) (*QdrantSearcher, error) {
	client, err := qdrant.NewClient(&qdrant.Config{Host: host, Port: port})
	if err != nil {
		return nil, fmt.Errorf("connect qdrant: %w", err)
	}
	return &QdrantSearcher{client: client}, nil
}

func (q *QdrantSearcher) CollectionExists(ctx context.Context, collection string) (bool, error) {
	resp, err := q.client.ListCollections(ctx)
	if err != nil {
		return false, fmt.Errorf("list collections: %w", err)
	}
	for _, name := range resp {
		if name == collection {
			return true, nil
		}
	}
	return false, nil
}

func (q *QdrantSearcher) Search(ctx context.Context, collection string, vector []float32, topK int, scoreThreshold float64, filter map[string]string) ([]SearchHit, error) {
	limit := uint64(topK)
	threshold := float32(scoreThreshold)

	req := &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
	}
	if len(filter) > 0 {
		conditions := make([]*qdrant.Condition, 0, len(filter))
		for k, v := range filter {
			conditions = append(conditions, qdrant.NewMatch(k, v))
		}
		req.Filter = &qdrant.Filter{Must: conditions}
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}

	hits := make([]SearchHit, 0, len(points))
	for _, p := range points {
		hits = append(hits, SearchHit{
			Payload: payloadToMap(p.GetPayload()),
			Score:   float64(p.GetScore()),
		})
	}
	return hits, nil
}

// payloadToMap flattens Qdrant's typed payload values down to the
// plain map[string]interface{} the rest of this package works with;
// only the scalar kinds the RAG payloads actually use are handled.
func payloadToMap(payload map[string]*qdrant.Value) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		switch {
		case v == nil:
			continue
		case v.GetStringValue() != "":
			out[k] = v.GetStringValue()
		case v.GetIntegerValue() != 0:
			out[k] = v.GetIntegerValue()
		case v.GetDoubleValue() != 0:
			out[k] = v.GetDoubleValue()
		case v.GetBoolValue():
			out[k] = v.GetBoolValue()
		}
	}
	return out
}

// EnsureCollections idempotently creates the three RAG collections
// (schema, metrics, examples) plus the feedback-loop queries
// collection, matching nl2sql_context_service.py's ensure_collections.
// Seeding their contents is out of scope; this only ensures structure.
func (q *QdrantSearcher) EnsureCollections(ctx context.Context, embeddingDim int) error {
	names := []string{collectionSchema, collectionMetrics, collectionExamples, collectionQueries}
	existing := make(map[string]bool)
	resp, err := q.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, n := range resp {
		existing[n] = true
	}
	for _, name := range names {
		if existing[name] {
			continue
		}
		err := q.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: name,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(embeddingDim),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("create collection %s: %w", name, err)
		}
	}
	return nil
}
