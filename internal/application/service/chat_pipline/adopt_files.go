package chatpipline

import (
	"context"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// PluginAdoptFiles enforces non-inheriting attachment adoption: the
// request's own file_ids/document_ids are authoritative for this
// message, never merged with whatever a (possibly stale) session
// read would suggest was attached last time.
type PluginAdoptFiles struct{}

func NewPluginAdoptFiles(eventManager *EventManager) *PluginAdoptFiles {
	p := &PluginAdoptFiles{}
	eventManager.Register(p)
	return p
}

func (p *PluginAdoptFiles) ActivationEvents() []types.EventType {
	return []types.EventType{types.AdoptFiles}
}

func (p *PluginAdoptFiles) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	known := make(map[string]bool, len(chatManage.DocumentIDs))
	for _, id := range chatManage.DocumentIDs {
		known[id] = true
	}

	var pending []string
	for _, fileID := range chatManage.FileIDs {
		if !known[fileID] {
			pending = append(pending, fileID)
			chatManage.DocumentIDs = append(chatManage.DocumentIDs, fileID)
		}
	}
	chatManage.PendingDocumentIDs = pending

	pipelineInfo(ctx, "adopt_files", "adopted", map[string]interface{}{
		"session_id": chatManage.SessionID, "file_ids": chatManage.FileIDs, "pending": pending,
	})
	return next()
}
