package document

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrDocumentNotFound is returned when a document lookup misses.
var ErrDocumentNotFound = errors.New("document not found")

// Repository persists Document metadata (not its extracted pages,
// which live only in the TextCache/VectorStore once processed).
// Grounded in custom_agent.go's repository shape.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, doc *Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

func (r *Repository) GetByID(ctx context.Context, id, userID string) (*Document, error) {
	var doc Document
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindByHash looks up an existing READY/PROCESSING document owned by
// userID with the same content hash, the dedup check file_ingest.py
// runs before creating a new document row.
func (r *Repository) FindByHash(ctx context.Context, userID, contentHash string) (*Document, error) {
	var doc Document
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND content_hash = ? AND status != ?", userID, contentHash, StatusFailed).
		Order("created_at DESC").
		First(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *Repository) UpdateStatus(ctx context.Context, id string, status Status, totalPages int, failureReason string) error {
	updates := map[string]interface{}{"status": status}
	if totalPages > 0 {
		updates["total_pages"] = totalPages
	}
	if failureReason != "" {
		updates["failure_reason"] = failureReason
	}
	return r.db.WithContext(ctx).Model(&Document{}).Where("id = ?", id).Updates(updates).Error
}

func (r *Repository) Delete(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&Document{}).Error
}

// ListExpired returns documents whose TTL has lapsed, for the
// periodic cleanup job that cascades into VectorStore.SweepExpired.
func (r *Repository) ListExpired(ctx context.Context, olderThanDays int) ([]Document, error) {
	var docs []Document
	err := r.db.WithContext(ctx).
		Where("created_at < NOW() - make_interval(days => ?)", olderThanDays).
		Find(&docs).Error
	return docs, err
}
