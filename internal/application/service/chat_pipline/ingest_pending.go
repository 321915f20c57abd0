package chatpipline

import (
	"context"

	"github.com/saptiva-ai/bankcopilot/internal/document"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// PluginIngestIfPending checks whether any newly attached document is
// still processing. It never blocks the turn waiting for ingestion: a
// document that is not yet ready (a large upload stays processing
// until ProcessAsync runs for it) just means PREPARE_CONTEXT will
// have nothing to retrieve for it this turn.
type PluginIngestIfPending struct {
	documents *document.Service
}

func NewPluginIngestIfPending(eventManager *EventManager, documents *document.Service) *PluginIngestIfPending {
	p := &PluginIngestIfPending{documents: documents}
	eventManager.Register(p)
	return p
}

func (p *PluginIngestIfPending) ActivationEvents() []types.EventType {
	return []types.EventType{types.IngestIfPending}
}

func (p *PluginIngestIfPending) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	if len(chatManage.PendingDocumentIDs) == 0 || p.documents == nil {
		return next()
	}

	var notReady []string
	for _, id := range chatManage.PendingDocumentIDs {
		status, err := p.documents.Status(ctx, id, chatManage.UserID)
		if err != nil {
			pipelineWarn(ctx, "ingest_if_pending", "status_lookup_failed", map[string]interface{}{"document_id": id, "error": err.Error()})
			continue
		}
		if status != document.StatusReady {
			notReady = append(notReady, id)
		}
	}

	if len(notReady) > 0 {
		chatManage.DocumentContextWarning = "algunos documentos adjuntos todavía se están procesando"
		pipelineInfo(ctx, "ingest_if_pending", "not_ready", map[string]interface{}{"document_ids": notReady})
	}
	return next()
}
