package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
)

// syncSizeThreshold mirrors file_ingest.py's SIZE_THRESHOLD_BYTES:
// uploads under this size are extracted, chunked and embedded inline;
// larger ones return StatusProcessing and are finished by ProcessAsync;
// Ingest enqueues no task for them itself.
const syncSizeThreshold = 1 * 1024 * 1024

// embedWorkers bounds the goroutine pool used to embed chunks
// concurrently, instead of one goroutine per chunk.
const embedWorkers = 8

// Service orchestrates document ingestion: dedup by content hash, tiered extraction,
// chunking, embedding, and vector upsert, plus session-scoped search
// and cleanup.
type Service struct {
	repo      *Repository
	cache     *TextCache
	store     *VectorStore
	extractor Extractor
	chunker   *Chunker
	embedder  Embedder
	blobs     *BlobStore
}

func NewService(repo *Repository, cache *TextCache, store *VectorStore, extractor Extractor, chunker *Chunker, embedder Embedder) *Service {
	if chunker == nil {
		chunker = NewChunker(defaultChunkChars, defaultChunkOverlap)
	}
	if extractor == nil {
		extractor = NewTextExtractor()
	}
	return &Service{repo: repo, cache: cache, store: store, extractor: extractor, chunker: chunker, embedder: embedder}
}

// WithBlobStore attaches the object-storage backend Ingest persists
// original file bytes to. Optional: a Service with no blob store
// still ingests, it just can't serve the original bytes back later.
func (s *Service) WithBlobStore(blobs *BlobStore) *Service {
	s.blobs = blobs
	return s
}

func contentHash(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// Ingest runs the dedup check, persists a Document row, and either
// processes the file inline (small uploads) or leaves it in
// StatusProcessing for ProcessAsync to pick up (large uploads) —
// the same adaptive-processing split as file_ingest.py.
func (s *Service) Ingest(ctx context.Context, userID, sessionID, filename, contentType string, raw []byte, bucket, key string) (IngestResult, error) {
	hash := contentHash(raw)

	if existing, err := s.repo.FindByHash(ctx, userID, hash); err == nil {
		logger.Info(ctx, "duplicate document detected, reusing", "document_id", existing.ID, "filename", filename)
		return IngestResult{DocumentID: existing.ID, Status: existing.Status, Filename: existing.Filename, SizeBytes: existing.SizeBytes, TotalPages: existing.TotalPages, Deduped: true}, nil
	}

	doc := &Document{
		ID:            uuid.NewString(),
		UserID:        userID,
		SessionID:     sessionID,
		Filename:      filename,
		ContentType:   contentType,
		SizeBytes:     int64(len(raw)),
		ContentHash:   hash,
		StorageBucket: bucket,
		StorageKey:    key,
		Status:        StatusProcessing,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return IngestResult{}, fmt.Errorf("create document: %w", err)
	}

	if s.blobs != nil {
		if err := s.blobs.Put(ctx, bucket, key, raw, contentType); err != nil {
			logBlobPutFailure(ctx, doc.ID, err)
		}
	}

	if len(raw) < syncSizeThreshold {
		if err := s.process(ctx, doc, raw); err != nil {
			_ = s.repo.UpdateStatus(ctx, doc.ID, StatusFailed, 0, err.Error())
			return IngestResult{}, fmt.Errorf("process document: %w", err)
		}
		return IngestResult{DocumentID: doc.ID, Status: StatusReady, Filename: doc.Filename, SizeBytes: doc.SizeBytes, TotalPages: doc.TotalPages}, nil
	}

	return IngestResult{DocumentID: doc.ID, Status: StatusProcessing, Filename: doc.Filename, SizeBytes: doc.SizeBytes}, nil
}

// ProcessAsync runs the same pipeline as the sync path for a large
// upload; ProcessDocumentHandler (tasks.go) is its one caller.
func (s *Service) ProcessAsync(ctx context.Context, documentID, userID string, raw []byte) error {
	doc, err := s.repo.GetByID(ctx, documentID, userID)
	if err != nil {
		return fmt.Errorf("load document: %w", err)
	}
	if err := s.process(ctx, doc, raw); err != nil {
		_ = s.repo.UpdateStatus(ctx, documentID, StatusFailed, 0, err.Error())
		return err
	}
	return nil
}

func (s *Service) process(ctx context.Context, doc *Document, raw []byte) error {
	pages, err := s.extractor.Extract(doc.ContentType, raw)
	if err != nil {
		return fmt.Errorf("extract text: %w", err)
	}
	doc.Pages = pages

	if err := s.cache.Set(ctx, doc.ID, pages); err != nil {
		logger.Warn(ctx, "failed to cache extracted text, continuing", "document_id", doc.ID, "error", err)
	}

	chunks := s.chunker.Chunk(pages)
	if len(chunks) > 0 {
		if err := s.embedAndUpsert(ctx, doc, chunks); err != nil {
			logger.Error(ctx, "RAG processing failed (non-fatal), keeping document ready", "document_id", doc.ID, "error", err)
		}
	}

	if err := s.repo.UpdateStatus(ctx, doc.ID, StatusReady, len(pages), ""); err != nil {
		return fmt.Errorf("mark document ready: %w", err)
	}
	doc.Status = StatusReady
	doc.TotalPages = len(pages)
	return nil
}

// embedAndUpsert embeds every chunk concurrently (bounded by an ants
// pool) and upserts the whole batch in one call, consistent with
// upsert_chunks's all-or-nothing-per-call Qdrant write.
func (s *Service) embedAndUpsert(ctx context.Context, doc *Document, chunks []Chunk) error {
	if s.embedder == nil {
		return fmt.Errorf("no embedder configured")
	}

	vectors := make([][]float32, len(chunks))
	errs := make([]error, len(chunks))

	var wg sync.WaitGroup
	pool, err := ants.NewPoolWithFunc(embedWorkers, func(arg interface{}) {
		defer wg.Done()
		idx := arg.(int)
		vec, embedErr := s.embedder.Embed(ctx, chunks[idx].Text)
		vectors[idx] = vec
		errs[idx] = embedErr
	})
	if err != nil {
		return fmt.Errorf("create embedding pool: %w", err)
	}
	defer pool.Release()

	for i := range chunks {
		wg.Add(1)
		_ = pool.Invoke(i)
	}
	wg.Wait()

	okChunks := make([]Chunk, 0, len(chunks))
	okVectors := make([][]float32, 0, len(chunks))
	for i, chunk := range chunks {
		if errs[i] != nil {
			logger.Warn(ctx, "chunk embedding failed, skipping", "document_id", doc.ID, "chunk_id", chunk.ChunkID, "error", errs[i])
			continue
		}
		okChunks = append(okChunks, chunk)
		okVectors = append(okVectors, vectors[i])
	}
	if len(okChunks) == 0 {
		return fmt.Errorf("all chunks failed to embed")
	}

	sessionID := doc.SessionID
	if sessionID == "" {
		sessionID = doc.ID // standalone uploads (no chat session yet) are scoped to themselves
	}

	count, err := s.store.Upsert(ctx, sessionID, doc.ID, okChunks, okVectors, float64(time.Now().Unix()))
	if err != nil {
		return fmt.Errorf("upsert chunks: %w", err)
	}
	logger.Info(ctx, "chunks upserted", "document_id", doc.ID, "count", count)
	return nil
}

// Search returns the top-k chunks for a query, scoped to sessionID.
func (s *Service) Search(ctx context.Context, sessionID, query string, topK int, scoreThreshold float64) ([]SearchHit, error) {
	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	return s.store.Search(ctx, sessionID, vector, topK, scoreThreshold)
}

// DeleteSession cascades a conversation deletion into the vector
// store, per VectorChunk's invariant that no chunk outlives its
// owning session.
func (s *Service) DeleteSession(ctx context.Context, sessionID string) error {
	return s.store.DeleteSession(ctx, sessionID)
}

// EnsureReady creates the document_chunks collection if it does not
// already exist, intended to run once at process startup.
func (s *Service) EnsureReady(ctx context.Context) error {
	return s.store.EnsureCollection(ctx)
}

// CachedFullText returns a ready document's cached extracted text, the
// fallback the chat pipeline's PREPARE_CONTEXT stage reaches for when a vector
// search returns no segments but the document itself is ready.
func (s *Service) CachedFullText(ctx context.Context, documentID string) (string, bool, error) {
	return s.cache.Get(ctx, documentID)
}

// Status returns a document's lifecycle status, scoped to its owner.
func (s *Service) Status(ctx context.Context, documentID, userID string) (Status, error) {
	doc, err := s.repo.GetByID(ctx, documentID, userID)
	if err != nil {
		return "", err
	}
	return doc.Status, nil
}

// SweepTTL deletes documents (and their vectors) older than
// ttlHours, the periodic job cleanup_expired_sessions backs.
func (s *Service) SweepTTL(ctx context.Context, ttlHours int) error {
	cutoff := float64(time.Now().Unix()) - float64(ttlHours)*3600
	if err := s.store.SweepExpired(ctx, cutoff); err != nil {
		return fmt.Errorf("sweep expired vectors: %w", err)
	}
	expired, err := s.repo.ListExpired(ctx, ttlHours/24)
	if err != nil {
		return fmt.Errorf("list expired documents: %w", err)
	}
	for _, doc := range expired {
		if s.blobs != nil {
			if err := s.blobs.Delete(ctx, doc.StorageBucket, doc.StorageKey); err != nil {
				logger.Warn(ctx, "failed to delete expired document blob", "document_id", doc.ID, "error", err)
			}
		}
		if err := s.repo.Delete(ctx, doc.ID, doc.UserID); err != nil {
			logger.Warn(ctx, "failed to delete expired document row", "document_id", doc.ID, "error", err)
		}
	}
	return nil
}

// Download returns a ready document's original uploaded bytes from
// blob storage, the retrieval path CachedFullText doesn't cover (e.g.
// re-running extraction with a different tier, or letting a caller
// download the source file verbatim).
func (s *Service) Download(ctx context.Context, documentID, userID string) ([]byte, error) {
	if s.blobs == nil {
		return nil, fmt.Errorf("blob storage not configured")
	}
	doc, err := s.repo.GetByID(ctx, documentID, userID)
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	return s.blobs.Get(ctx, doc.StorageBucket, doc.StorageKey)
}
