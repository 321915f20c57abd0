package chatpipline

import (
	"fmt"
	"strings"

	"context"

	"github.com/saptiva-ai/bankcopilot/internal/document"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

const (
	searchTopK           = 3
	searchScoreThreshold = 0.7
	perDocCharBudget     = 4000
	totalCharBudget      = 12000
	maxContextDocs       = 3
)

// PluginPrepareContext builds DocumentContext from the attached
// files: first by vector search, falling back to each ready
// document's cached full text (truncated per a per-doc and total
// character budget) when search returns nothing.
type PluginPrepareContext struct {
	documents *document.Service
}

func NewPluginPrepareContext(eventManager *EventManager, documents *document.Service) *PluginPrepareContext {
	p := &PluginPrepareContext{documents: documents}
	eventManager.Register(p)
	return p
}

func (p *PluginPrepareContext) ActivationEvents() []types.EventType {
	return []types.EventType{types.PrepareContext}
}

func (p *PluginPrepareContext) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	if len(chatManage.DocumentIDs) == 0 || p.documents == nil {
		return next()
	}

	hits, err := p.documents.Search(ctx, chatManage.SessionID, chatManage.Query, searchTopK, searchScoreThreshold)
	if err != nil {
		pipelineWarn(ctx, "prepare_context", "search_failed", map[string]interface{}{"session_id": chatManage.SessionID, "error": err.Error()})
		chatManage.DocumentContextWarning = "no se pudo consultar el contenido de los documentos adjuntos"
		return next()
	}

	if len(hits) > 0 {
		chatManage.DocumentContext = renderHits(hits)
		pipelineInfo(ctx, "prepare_context", "search_hit", map[string]interface{}{"hits": len(hits)})
		return next()
	}

	fallback := p.fallbackToCachedText(ctx, chatManage.DocumentIDs)
	if fallback != "" {
		chatManage.DocumentContext = fallback
		pipelineInfo(ctx, "prepare_context", "fallback_to_cache", map[string]interface{}{"documents": len(chatManage.DocumentIDs)})
	}
	return next()
}

func renderHits(hits []document.SearchHit) string {
	var b strings.Builder
	for _, h := range hits {
		fmt.Fprintf(&b, "[documento %s, página %d]\n%s\n\n", h.DocumentID, h.Page, h.Text)
	}
	return b.String()
}

// fallbackToCachedText assembles per-document cached full text for at
// most maxContextDocs documents, in attachment order, up to a total
// budget, truncating any document that alone would blow the per-doc
// budget.
func (p *PluginPrepareContext) fallbackToCachedText(ctx context.Context, documentIDs []string) string {
	var b strings.Builder
	remaining := totalCharBudget
	docs := documentIDs
	if len(docs) > maxContextDocs {
		docs = docs[:maxContextDocs]
	}

	for _, id := range docs {
		if remaining <= 0 {
			break
		}
		text, ok, err := p.documents.CachedFullText(ctx, id)
		if err != nil || !ok {
			continue
		}
		budget := perDocCharBudget
		if budget > remaining {
			budget = remaining
		}
		truncated := text
		if len(truncated) > budget {
			truncated = truncated[:budget] + "\n[...truncado...]"
		}
		fmt.Fprintf(&b, "[documento %s]\n%s\n\n", id, truncated)
		remaining -= len(truncated)
	}
	return b.String()
}
