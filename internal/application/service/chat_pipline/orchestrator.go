package chatpipline

import (
	"context"
	"time"

	"github.com/saptiva-ai/bankcopilot/internal/analytics"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/application/repository"
	"github.com/saptiva-ai/bankcopilot/internal/config"
	"github.com/saptiva-ai/bankcopilot/internal/document"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// Orchestrator owns the wired EventManager and is the single entry
// point HTTP/SSE handlers call to run one chat turn to completion.
type Orchestrator struct {
	events *EventManager
}

// NewOrchestrator wires every plugin onto a fresh EventManager, in
// pipeline order, and returns the callable Orchestrator.
func NewOrchestrator(
	chatCfg config.ChatConfig,
	repo *repository.ChatRepository,
	models *ModelRegistry,
	documents *document.Service,
	pipeline *analytics.Pipeline,
	reg *registry.Registry,
) *Orchestrator {
	em := NewEventManager()
	NewPluginResolveSession(em, repo)
	NewPluginPrepareContext(em, documents)
	NewPluginAdoptFiles(em)
	NewPluginIngestIfPending(em, documents)
	NewPluginCallTools(em, pipeline, reg)
	NewPluginBuildPrompt(em, chatCfg)
	NewPluginStreamLLM(em, models)
	NewPluginPersistAssistant(em, repo)
	NewPluginPersistError(em, repo)

	return &Orchestrator{events: em}
}

// pipelineFor selects the turn shape: a bare conversational turn with
// no attachments and no tool opt-in skips the document/tool stages
// entirely rather than running them to find nothing to do.
func pipelineFor(chatManage *types.ChatManage) string {
	if len(chatManage.FileIDs) > 0 || len(chatManage.DocumentIDs) > 0 {
		return "chat_with_context"
	}
	for _, enabled := range chatManage.ToolsEnabled {
		if enabled {
			return "chat_with_context"
		}
	}
	return "chat"
}

// Run drives chatManage through the resolved pipeline to completion.
// On any stage error it routes the turn to PERSIST_ERROR so the
// failure is recorded and the client still gets a terminal event,
// rather than leaving the SSE stream hanging.
func (o *Orchestrator) Run(ctx context.Context, chatManage *types.ChatManage) *PluginError {
	chatManage.StartedAt = time.Now()
	emit(ctx, chatManage, types.ChatEventMeta, map[string]interface{}{
		"session_id": chatManage.SessionID,
		"model":      chatManage.Model,
	})

	name := pipelineFor(chatManage)
	err := o.events.Run(ctx, name, chatManage)
	if err == nil {
		return nil
	}

	chatManage.Err = err
	if perr := o.events.runFrom(ctx, []types.EventType{types.PersistError}, 0, chatManage); perr != nil {
		pipelineWarn(ctx, "orchestrator", "persist_error_failed", map[string]interface{}{"session_id": chatManage.SessionID, "error": perr.Error()})
	}
	return err
}
