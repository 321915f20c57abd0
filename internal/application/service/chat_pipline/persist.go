package chatpipline

import (
	"context"

	"github.com/google/uuid"

	"github.com/saptiva-ai/bankcopilot/internal/application/repository"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// PluginPersistAssistant writes the assistant's message, and - when
// CALL_TOOLS produced chart data - a companion artifact row the
// client can re-open later. Artifact persistence failures never
// abort the turn: the chunk stream has already been sent to the
// client, so there is nothing left to roll back.
type PluginPersistAssistant struct {
	repo *repository.ChatRepository
}

func NewPluginPersistAssistant(eventManager *EventManager, repo *repository.ChatRepository) *PluginPersistAssistant {
	p := &PluginPersistAssistant{repo: repo}
	eventManager.Register(p)
	return p
}

func (p *PluginPersistAssistant) ActivationEvents() []types.EventType {
	return []types.EventType{types.PersistAssistant}
}

func (p *PluginPersistAssistant) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	if err := p.repo.TouchSession(ctx, chatManage.SessionID); err != nil {
		pipelineWarn(ctx, "persist_assistant", "touch_session_failed", map[string]interface{}{"session_id": chatManage.SessionID, "error": err.Error()})
	}

	if chatManage.AnalyticsHit != nil && chatManage.AnalyticsHit.Type == types.AnalyticsResultData {
		artifact := &types.Artifact{
			ID:        uuid.NewString(),
			UserID:    chatManage.UserID,
			SessionID: chatManage.SessionID,
			Type:      "bank_chart",
			Title:     chatManage.AnalyticsHit.MetricName,
			Content: map[string]interface{}{
				"visualization": chatManage.AnalyticsHit.Visualization,
				"plotly_config": chatManage.AnalyticsHit.PlotlyConfig,
				"rows":          chatManage.AnalyticsHit.Rows,
				"ranking":       chatManage.AnalyticsHit.Ranking,
				"summary_stats": chatManage.AnalyticsHit.SummaryStats,
				"sql":           chatManage.AnalyticsSQL,
				"time_range_start": chatManage.AnalyticsHit.TimeRangeStart,
				"time_range_end":   chatManage.AnalyticsHit.TimeRangeEnd,
			},
		}
		if err := p.repo.CreateArtifact(ctx, artifact); err != nil {
			pipelineWarn(ctx, "persist_assistant", "artifact_create_failed", map[string]interface{}{"session_id": chatManage.SessionID, "error": err.Error()})
		} else {
			chatManage.ArtifactID = artifact.ID
			emit(ctx, chatManage, types.ChatEventArtifactCreated, map[string]interface{}{"artifact_id": artifact.ID, "type": artifact.Type})
		}
	}

	msg := &types.Message{
		ID:          uuid.NewString(),
		SessionID:   chatManage.SessionID,
		Role:        "assistant",
		Content:     chatManage.ResponseContent,
		Model:       chatManage.Model,
		Strategy:    chatManage.Strategy,
		ToolResults: chatManage.ToolResults,
		ArtifactID:  chatManage.ArtifactID,
	}
	if err := p.repo.CreateMessage(ctx, msg); err != nil {
		return ErrPersist(err)
	}
	chatManage.MessageID = msg.ID

	emit(ctx, chatManage, types.ChatEventDone, map[string]interface{}{
		"session_id": chatManage.SessionID,
		"message_id": msg.ID,
		"artifact_id": chatManage.ArtifactID,
		"used_fallback": chatManage.UsedFallback,
	})
	return next()
}

// PluginPersistError persists a turn that aborted partway through,
// tagging the message so the history loader can skip it as context
// for the next turn, and emits the terminal error event.
type PluginPersistError struct {
	repo *repository.ChatRepository
}

func NewPluginPersistError(eventManager *EventManager, repo *repository.ChatRepository) *PluginPersistError {
	p := &PluginPersistError{repo: repo}
	eventManager.Register(p)
	return p
}

func (p *PluginPersistError) ActivationEvents() []types.EventType {
	return []types.EventType{types.PersistError}
}

func (p *PluginPersistError) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	errMessage := "Ocurrió un error al procesar tu solicitud."
	if chatManage.Err != nil {
		errMessage = chatManage.Err.Error()
	}

	msg := &types.Message{
		ID:        uuid.NewString(),
		SessionID: chatManage.SessionID,
		Role:      "assistant",
		Content:   errMessage,
		Model:     chatManage.Model,
		IsError:   true,
	}
	if err := p.repo.CreateMessage(ctx, msg); err != nil {
		pipelineWarn(ctx, "persist_error", "message_create_failed", map[string]interface{}{"session_id": chatManage.SessionID, "error": err.Error()})
	}

	emit(ctx, chatManage, types.ChatEventError, map[string]interface{}{
		"session_id": chatManage.SessionID,
		"message":    errMessage,
	})
	return next()
}
