package document

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
)

// Task type names, one per background job document ingestion defines:
// the large-file ingest tail (extract, chunk, embed, upsert) and the TTL
// sweep. No asynq mux or client in this module registers or enqueues them.
const (
	TaskTypeProcessDocument = "document:process"
	TaskTypeSweepExpired    = "document:sweep_expired"
)

// ProcessDocumentPayload is the asynq task body for large uploads
// whose extraction/chunking/embedding is deferred off the request
// path, mirroring file_ingest.py's asyncio.create_task background
// path but dispatched through a durable queue instead of a
// fire-and-forget goroutine.
type ProcessDocumentPayload struct {
	DocumentID string `json:"document_id"`
	UserID     string `json:"user_id"`
	StorageKey string `json:"storage_key"`
	Bucket     string `json:"bucket"`
}

func NewProcessDocumentTask(payload ProcessDocumentPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal process-document payload: %w", err)
	}
	return asynq.NewTask(TaskTypeProcessDocument, data), nil
}

// SweepExpiredPayload carries the TTL for the periodic cleanup job;
// an empty TTLHours means "use the service default" (24h per
// cleanup_expired_sessions).
type SweepExpiredPayload struct {
	TTLHours int `json:"ttl_hours"`
}

func NewSweepExpiredTask(payload SweepExpiredPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal sweep-expired payload: %w", err)
	}
	return asynq.NewTask(TaskTypeSweepExpired, data), nil
}

const defaultSweepTTLHours = 24

// ProcessDocumentHandler implements interfaces.TaskHandler, pulling
// the raw bytes back from object storage and running the same
// process() pipeline the sync path uses.
type ProcessDocumentHandler struct {
	service *Service
	fetch   func(ctx context.Context, bucket, key string) ([]byte, error)
}

func NewProcessDocumentHandler(service *Service, fetch func(ctx context.Context, bucket, key string) ([]byte, error)) *ProcessDocumentHandler {
	return &ProcessDocumentHandler{service: service, fetch: fetch}
}

func (h *ProcessDocumentHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload ProcessDocumentPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal process-document payload: %w", err)
	}

	raw, err := h.fetch(ctx, payload.Bucket, payload.StorageKey)
	if err != nil {
		return fmt.Errorf("fetch object %s/%s: %w", payload.Bucket, payload.StorageKey, err)
	}

	if err := h.service.ProcessAsync(ctx, payload.DocumentID, payload.UserID, raw); err != nil {
		logger.Error(ctx, "async document processing failed", "document_id", payload.DocumentID, "error", err)
		return err
	}
	return nil
}

// SweepExpiredHandler runs the TTL cleanup for one sweep-expired task;
// no asynq server or scheduler in this module registers it.
type SweepExpiredHandler struct {
	service *Service
}

func NewSweepExpiredHandler(service *Service) *SweepExpiredHandler {
	return &SweepExpiredHandler{service: service}
}

func (h *SweepExpiredHandler) Handle(ctx context.Context, t *asynq.Task) error {
	var payload SweepExpiredPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal sweep-expired payload: %w", err)
	}
	ttl := payload.TTLHours
	if ttl <= 0 {
		ttl = defaultSweepTTLHours
	}
	return h.service.SweepTTL(ctx, ttl)
}
