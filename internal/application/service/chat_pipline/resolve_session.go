package chatpipline

import (
	"context"

	"github.com/saptiva-ai/bankcopilot/internal/application/repository"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

const defaultHistoryRounds = 10

// PluginResolveSession fetches (or creates) the session and loads its
// recent message history, mirroring load_history.go's shape: a
// self-registering struct holding the repository it needs.
type PluginResolveSession struct {
	repo          *repository.ChatRepository
	historyRounds int
}

func NewPluginResolveSession(eventManager *EventManager, repo *repository.ChatRepository) *PluginResolveSession {
	p := &PluginResolveSession{repo: repo, historyRounds: defaultHistoryRounds}
	eventManager.Register(p)
	return p
}

func (p *PluginResolveSession) ActivationEvents() []types.EventType {
	return []types.EventType{types.ResolveSession}
}

func (p *PluginResolveSession) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	if _, err := p.repo.GetOrCreateSession(ctx, chatManage.SessionID, chatManage.UserID); err != nil {
		pipelineError(ctx, "resolve_session", "get_or_create", map[string]interface{}{"session_id": chatManage.SessionID, "error": err.Error()})
		return ErrSessionResolve(err)
	}

	messages, err := p.repo.RecentMessages(ctx, chatManage.SessionID, p.historyRounds*2)
	if err != nil {
		pipelineWarn(ctx, "resolve_session", "history_load_failed", map[string]interface{}{"session_id": chatManage.SessionID, "error": err.Error()})
		return next()
	}

	history := make([]types.ChatHistoryTurn, 0, len(messages))
	for _, m := range messages {
		if m.IsError {
			continue
		}
		history = append(history, types.ChatHistoryTurn{Role: m.Role, Content: m.Content})
	}
	chatManage.History = history

	pipelineInfo(ctx, "resolve_session", "resolved", map[string]interface{}{"session_id": chatManage.SessionID, "history_turns": len(history)})
	return next()
}
