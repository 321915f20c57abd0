package document

import (
	"context"
	"crypto/md5"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

const defaultCollection = "document_chunks"

// VectorStore is the document ingestion side of the document_chunks Qdrant
// collection: deterministic upsert, mandatory session-filtered
// search, session cascade delete, and a TTL sweep. Grounded 1:1 in
// qdrant_service.py's QdrantService.
type VectorStore struct {
	client     *qdrant.Client
	collection string
	dimensions int
}

func NewVectorStore(client *qdrant.Client, dimensions int) *VectorStore {
	if dimensions <= 0 {
		dimensions = defaultEmbeddingDim
	}
	return &VectorStore{client: client, collection: defaultCollection, dimensions: dimensions}
}

// EnsureCollection creates document_chunks if missing. It never
// recreates or inspects an existing collection, so one with a
// different vector size is left as it is rather than destroyed — same
// no-recreate policy as ensure_collection in the teacher.
func (s *VectorStore) EnsureCollection(ctx context.Context) error {
	names, err := s.client.ListCollections(ctx)
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	for _, n := range names {
		if n == s.collection {
			return nil
		}
	}
	return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(s.dimensions),
			Distance: qdrant.Distance_Cosine,
		}),
	})
}

// pointID derives a deterministic UUID from (documentID, chunkID) so
// re-ingesting the same document produces idempotent upserts rather
// than duplicate points — the same trick as the teacher's
// uuid.UUID(hashlib.md5(...)) construction, expressed with stdlib
// crypto/md5 instead of re-deriving MD5 by hand.
func pointID(documentID string, chunkID int) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s_%d", documentID, chunkID)))
	id, _ := uuid.FromBytes(sum[:])
	return id.String()
}

// Upsert stores one embedded chunk per input vector, keyed by
// deterministic point ID. sessionID and documentID must be non-empty;
// a chunk whose embedding doesn't match s.dimensions is skipped
// (mirrors the teacher's per-chunk validation instead of failing the
// whole batch).
func (s *VectorStore) Upsert(ctx context.Context, sessionID, documentID string, chunks []Chunk, vectors [][]float32, createdAt float64) (int, error) {
	if sessionID == "" {
		return 0, fmt.Errorf("session_id must be non-empty")
	}
	if documentID == "" {
		return 0, fmt.Errorf("document_id must be non-empty")
	}
	if len(chunks) != len(vectors) {
		return 0, fmt.Errorf("chunks/vectors length mismatch: %d vs %d", len(chunks), len(vectors))
	}

	points := make([]*qdrant.PointStruct, 0, len(chunks))
	for i, chunk := range chunks {
		vec := vectors[i]
		if len(vec) != s.dimensions {
			continue
		}
		payload := map[string]interface{}{
			"session_id":  sessionID,
			"document_id": documentID,
			"chunk_id":    chunk.ChunkID,
			"text":        chunk.Text,
			"page":        chunk.Page,
			"created_at":  createdAt,
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewID(pointID(documentID, chunk.ChunkID)),
			Vectors: qdrant.NewVectors(vec...),
			Payload: qdrant.NewValueMap(payload),
		})
	}
	if len(points) == 0 {
		return 0, nil
	}

	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Points:         points,
	})
	if err != nil {
		return 0, fmt.Errorf("upsert chunks: %w", err)
	}
	return len(points), nil
}

// Search finds the top-k most similar chunks to queryVector, always
// scoped to sessionID. There is no overload that omits the filter —
// the mandatory session_id condition is baked into the one Search
// entry point to prevent cross-session context leakage.
func (s *VectorStore) Search(ctx context.Context, sessionID string, queryVector []float32, topK int, scoreThreshold float64) ([]SearchHit, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session_id must be non-empty")
	}
	if len(queryVector) != s.dimensions {
		return nil, fmt.Errorf("query vector dimension mismatch: want %d, got %d", s.dimensions, len(queryVector))
	}

	limit := uint64(topK)
	threshold := float32(scoreThreshold)
	points, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(queryVector...),
		Limit:          &limit,
		ScoreThreshold: &threshold,
		WithPayload:    qdrant.NewWithPayload(true),
		Filter: &qdrant.Filter{
			Must: []*qdrant.Condition{qdrant.NewMatch("session_id", sessionID)},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", s.collection, err)
	}

	hits := make([]SearchHit, 0, len(points))
	for _, p := range points {
		payload := p.GetPayload()
		hits = append(hits, SearchHit{
			DocumentID: stringField(payload, "document_id"),
			ChunkID:    int(intField(payload, "chunk_id")),
			Text:       stringField(payload, "text"),
			Page:       int(intField(payload, "page")),
			Score:      float64(p.GetScore()),
		})
	}
	return hits, nil
}

// DeleteSession removes every chunk belonging to sessionID, run when
// a conversation is deleted so its document context can't outlive it.
func (s *VectorStore) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session_id must be non-empty")
	}
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{qdrant.NewMatch("session_id", sessionID)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("delete session %s: %w", sessionID, err)
	}
	return nil
}

// SweepExpired deletes every point whose created_at predates
// cutoffUnix, the TTL sweep job's core operation.
func (s *VectorStore) SweepExpired(ctx context.Context, cutoffUnix float64) error {
	_, err := s.client.Delete(ctx, &qdrant.DeletePoints{
		CollectionName: s.collection,
		Points: &qdrant.PointsSelector{
			PointsSelectorOneOf: &qdrant.PointsSelector_Filter{
				Filter: &qdrant.Filter{
					Must: []*qdrant.Condition{
						qdrant.NewRange("created_at", &qdrant.Range{Lt: &cutoffUnix}),
					},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("sweep expired points: %w", err)
	}
	return nil
}

func stringField(payload map[string]*qdrant.Value, key string) string {
	if v, ok := payload[key]; ok {
		return v.GetStringValue()
	}
	return ""
}

func intField(payload map[string]*qdrant.Value, key string) int64 {
	if v, ok := payload[key]; ok {
		return v.GetIntegerValue()
	}
	return 0
}
