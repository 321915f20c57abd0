package document

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
)

// BlobStore persists the raw bytes behind a Document's
// StorageBucket/StorageKey, the object-storage half of ingestion that
// complements the extracted-text cache and the vector store: the
// original file stays retrievable through Download until SweepTTL
// removes it together with the document's chunks and row.
type BlobStore struct {
	client *minio.Client
}

func NewBlobStore(endpoint, accessKey, secretKey string, useSSL bool) (*BlobStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("create minio client: %w", err)
	}
	return &BlobStore{client: client}, nil
}

// EnsureBucket creates bucket if it does not already exist.
func (b *BlobStore) EnsureBucket(ctx context.Context, bucket string) error {
	exists, err := b.client.BucketExists(ctx, bucket)
	if err != nil {
		return fmt.Errorf("check bucket: %w", err)
	}
	if exists {
		return nil
	}
	if err := b.client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("create bucket: %w", err)
	}
	return nil
}

// Put uploads raw under bucket/key, overwriting any existing object
// with the same key (re-ingesting a document replaces its blob).
func (b *BlobStore) Put(ctx context.Context, bucket, key string, raw []byte, contentType string) error {
	_, err := b.client.PutObject(ctx, bucket, key, bytes.NewReader(raw), int64(len(raw)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Get fetches the raw bytes for a previously-ingested document, the
// read path a caller reaches for to re-extract or re-download the
// original file.
func (b *BlobStore) Get(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object: %w", err)
	}
	defer obj.Close()

	raw, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("read object: %w", err)
	}
	return raw, nil
}

// Delete removes a document's blob, called alongside vector/session
// cleanup so a deleted document leaves no orphaned storage behind.
func (b *BlobStore) Delete(ctx context.Context, bucket, key string) error {
	if err := b.client.RemoveObject(ctx, bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove object: %w", err)
	}
	return nil
}

// logBlobPutFailure is a narrow helper so Ingest's blob-store call site
// stays one line; a failed upload never aborts ingestion: Ingest still
// extracts, caches and indexes the document, and only Download of the
// original bytes is unavailable for it.
func logBlobPutFailure(ctx context.Context, documentID string, err error) {
	logger.Warn(ctx, "blob upload failed, continuing without original file backup", "document_id", documentID, "error", err)
}
