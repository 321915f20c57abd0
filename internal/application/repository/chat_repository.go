// Package repository holds the GORM-backed persistence adapters the chat pipeline
// uses for sessions, messages, and artifacts, grounded in
// custom_agent.go's Where/Create/First/Save shape.
package repository

import (
	"errors"

	"context"

	"gorm.io/gorm"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrArtifactNotFound = errors.New("artifact not found")
)

// ChatRepository is the chat pipeline persistence adapter for sessions,
// messages, and artifacts.
type ChatRepository struct {
	db *gorm.DB
}

func NewChatRepository(db *gorm.DB) *ChatRepository {
	return &ChatRepository{db: db}
}

// GetOrCreateSession fetches sessionID for userID, creating it when
// absent - RESOLVE_SESSION never fails a turn just because it is the
// first one in a new session.
func (r *ChatRepository) GetOrCreateSession(ctx context.Context, sessionID, userID string) (*types.Session, error) {
	var session types.Session
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err == nil {
		return &session, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	session = types.Session{ID: sessionID, UserID: userID}
	if err := r.db.WithContext(ctx).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// TouchSession bumps a session's UpdatedAt after a message is
// appended, so session lists can sort by recent activity.
func (r *ChatRepository) TouchSession(ctx context.Context, sessionID string) error {
	return r.db.WithContext(ctx).Model(&types.Session{}).Where("id = ?", sessionID).Update("updated_at", gorm.Expr("NOW()")).Error
}

// RecentMessages returns the last limit messages for sessionID in
// chronological order, the shape every history-loading plugin needs.
func (r *ChatRepository) RecentMessages(ctx context.Context, sessionID string, limit int) ([]types.Message, error) {
	var rows []types.Message
	if err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, err
	}
	for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
		rows[i], rows[j] = rows[j], rows[i]
	}
	return rows, nil
}

// CreateMessage persists one turn's message. The orchestrator never
// persists an empty assistant message - callers are expected to
// have already substituted a fallback before calling this.
func (r *ChatRepository) CreateMessage(ctx context.Context, msg *types.Message) error {
	return r.db.WithContext(ctx).Create(msg).Error
}

// CreateArtifact persists a new artifact (a chart, clarification, or
// document-derived side-output of a turn).
func (r *ChatRepository) CreateArtifact(ctx context.Context, a *types.Artifact) error {
	return r.db.WithContext(ctx).Create(a).Error
}

// GetArtifact fetches an artifact, scoped to its owner so one user
// can never read another's artifact by guessing an ID.
func (r *ChatRepository) GetArtifact(ctx context.Context, id, userID string) (*types.Artifact, error) {
	var a types.Artifact
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrArtifactNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListArtifacts returns every artifact a user owns in a session,
// newest first.
func (r *ChatRepository) ListArtifacts(ctx context.Context, sessionID, userID string) ([]types.Artifact, error) {
	var rows []types.Artifact
	err := r.db.WithContext(ctx).
		Where("session_id = ? AND user_id = ?", sessionID, userID).
		Order("created_at DESC").
		Find(&rows).Error
	return rows, err
}

// UpdateArtifact overwrites content, pushing the prior content onto
// Versions first so a caller can see how the artifact evolved.
func (r *ChatRepository) UpdateArtifact(ctx context.Context, id, userID string, content map[string]interface{}) (*types.Artifact, error) {
	a, err := r.GetArtifact(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	a.Versions = append(a.Versions, types.ArtifactVersion{Content: a.Content, UpdatedAt: a.UpdatedAt})
	a.Content = content
	if err := r.db.WithContext(ctx).Save(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// DeleteArtifact removes an artifact, scoped to its owner.
func (r *ChatRepository) DeleteArtifact(ctx context.Context, id, userID string) error {
	return r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&types.Artifact{}).Error
}
