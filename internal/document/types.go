// Package document implements document ingestion: per-session document ingestion
// (extraction, chunking, embedding, vector upsert) and session-scoped
// retrieval. Grounded in apps/backend/src/services/file_ingest.py
// (dedup, tiered sync/async processing) and
// apps/backend/src/services/qdrant_service.py (collection lifecycle,
// deterministic point IDs, mandatory session_id filter, TTL sweep).
package document

import "time"

// Status is a document's extraction lifecycle state.
type Status string

const (
	StatusUploading Status = "uploading"
	StatusProcessing Status = "processing"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// PageContent is one page of extracted text.
type PageContent struct {
	Page       int      `json:"page"`
	Text       string   `json:"text"`
	HasTable   bool     `json:"has_table"`
	ImageRefs  []string `json:"image_refs,omitempty"`
}

// Document is the metadata record for an uploaded file. Its raw bytes
// live in object storage (minio/cos); Pages holds extracted text once
// Status reaches StatusReady. The ready state is terminal for content
// — subsequent RAG indexing only mutates the vector side.
type Document struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	UserID         string    `gorm:"column:user_id" json:"user_id"`
	SessionID      string    `gorm:"column:session_id" json:"session_id,omitempty"`
	Filename       string    `gorm:"column:filename" json:"filename"`
	ContentType    string    `gorm:"column:content_type" json:"content_type"`
	SizeBytes      int64     `gorm:"column:size_bytes" json:"size_bytes"`
	ContentHash    string    `gorm:"column:content_hash" json:"content_hash"`
	StorageBucket  string    `gorm:"column:storage_bucket" json:"storage_bucket"`
	StorageKey     string    `gorm:"column:storage_key" json:"storage_key"`
	Status         Status    `gorm:"column:status" json:"status"`
	TotalPages     int       `gorm:"column:total_pages" json:"total_pages"`
	FailureReason  string    `gorm:"column:failure_reason" json:"failure_reason,omitempty"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`

	Pages []PageContent `gorm:"-" json:"pages,omitempty"`
}

func (Document) TableName() string { return "documents" }

// Chunk is one unit of text carved out of a Document's pages, ready
// for embedding.
type Chunk struct {
	ChunkID int
	Text    string
	Page    int
}

// VectorChunk is the payload stored per Qdrant point — deterministic
// identity derived from (DocumentID, ChunkID), mandatory SessionID
// for retrieval isolation.
type VectorChunk struct {
	SessionID  string                 `json:"session_id"`
	DocumentID string                 `json:"document_id"`
	ChunkID    int                    `json:"chunk_id"`
	Text       string                 `json:"text"`
	Page       int                    `json:"page"`
	CreatedAt  float64                `json:"created_at"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
}

// SearchHit is one scored result from a session-scoped search.
type SearchHit struct {
	DocumentID string
	ChunkID    int
	Text       string
	Page       int
	Score      float64
	Metadata   map[string]interface{}
}

// IngestResult is returned to the caller immediately; large files
// finish asynchronously and the document's Status transitions via
// the background pipeline instead.
type IngestResult struct {
	DocumentID string
	Status     Status
	Filename   string
	SizeBytes  int64
	TotalPages int
	Deduped    bool
}
