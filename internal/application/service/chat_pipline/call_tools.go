package chatpipline

import (
	"context"
	"time"

	"github.com/saptiva-ai/bankcopilot/internal/analytics"
	"github.com/saptiva-ai/bankcopilot/internal/analytics/registry"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

const bankAnalyticsTool = "bank_analytics"

// PluginCallTools dispatches the banking-analytics tool (every component from the query-spec parser through the RAG context service-every component from the SQL generator through the analytics service-the visualization builder)
// when the caller explicitly enabled it or the registry's keyword
// matcher resolves the query to a known metric/bank. Every other
// named tool in tools_enabled is acknowledged but not wired here:
// document search already runs in PREPARE_CONTEXT, and the
// audit/external-research tools have no dispatcher in this module at
// all — see DESIGN.md's "Deleted teacher modules" entry for
// mark3labs/mcp-go.
type PluginCallTools struct {
	pipeline *analytics.Pipeline
	registry *registry.Registry
}

func NewPluginCallTools(eventManager *EventManager, pipeline *analytics.Pipeline, reg *registry.Registry) *PluginCallTools {
	p := &PluginCallTools{pipeline: pipeline, registry: reg}
	eventManager.Register(p)
	return p
}

func (p *PluginCallTools) ActivationEvents() []types.EventType {
	return []types.EventType{types.CallTools}
}

func (p *PluginCallTools) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	if !p.shouldRunAnalytics(ctx, chatManage) {
		return next()
	}

	started := time.Now()
	answer := p.pipeline.Answer(ctx, chatManage.Query, "", "")
	duration := time.Since(started).Milliseconds()

	chatManage.AnalyticsHit = &answer.Result
	chatManage.AnalyticsSQL = answer.SQL
	chatManage.ToolResults = append(chatManage.ToolResults, types.ToolResult{
		Name:       bankAnalyticsTool,
		Success:    answer.Result.Type != types.AnalyticsResultError,
		DurationMs: duration,
		Detail:     map[string]interface{}{"visualization": answer.Result.Visualization, "metric": answer.Result.MetricName},
	})

	switch answer.Result.Type {
	case types.AnalyticsResultClarification:
		emit(ctx, chatManage, types.ChatEventBankClarify, answer.Result)
	case types.AnalyticsResultData:
		emit(ctx, chatManage, types.ChatEventBankChart, answer.Result)
	}

	pipelineInfo(ctx, "call_tools", "analytics_dispatched", map[string]interface{}{
		"session_id": chatManage.SessionID, "type": string(answer.Result.Type), "duration_ms": duration,
	})
	return next()
}

// shouldRunAnalytics fires the tool when the caller opted in
// explicitly, or - absent an explicit flag - when the registry's
// deterministic keyword matcher resolves the query to a known
// metric or bank alias.
func (p *PluginCallTools) shouldRunAnalytics(ctx context.Context, chatManage *types.ChatManage) bool {
	if enabled, ok := chatManage.ToolsEnabled[bankAnalyticsTool]; ok {
		return enabled
	}
	if _, ok := p.registry.Resolve(ctx, chatManage.Query); ok {
		return true
	}
	if _, ok := p.registry.ResolveBank(chatManage.Query); ok {
		return true
	}
	return false
}

// emit sends one SSE frame, but never blocks past ctx's cancellation:
// a client that disconnects mid-stream stops reading chatManage.Events,
// and without this select every plugin still trying to emit would
// leak a goroutine blocked on a full channel forever.
func emit(ctx context.Context, chatManage *types.ChatManage, name types.ChatEventName, data interface{}) {
	if chatManage.Events == nil {
		return
	}
	select {
	case chatManage.Events <- types.ChatEvent{Name: name, Data: data}:
	case <-ctx.Done():
	}
}
