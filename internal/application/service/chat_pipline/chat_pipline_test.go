package chatpipline

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saptiva-ai/bankcopilot/internal/config"
	"github.com/saptiva-ai/bankcopilot/internal/models/chat"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

func TestPipelineForPicksLightweightChatByDefault(t *testing.T) {
	cm := &types.ChatManage{}
	assert.Equal(t, "chat", pipelineFor(cm))
}

func TestPipelineForSwitchesOnAttachments(t *testing.T) {
	cm := &types.ChatManage{FileIDs: []string{"f1"}}
	assert.Equal(t, "chat_with_context", pipelineFor(cm))
}

func TestPipelineForSwitchesOnExistingDocuments(t *testing.T) {
	cm := &types.ChatManage{DocumentIDs: []string{"d1"}}
	assert.Equal(t, "chat_with_context", pipelineFor(cm))
}

func TestPipelineForSwitchesOnToolOptIn(t *testing.T) {
	cm := &types.ChatManage{ToolsEnabled: map[string]bool{"bank_analytics": true}}
	assert.Equal(t, "chat_with_context", pipelineFor(cm))
}

func TestPipelineForIgnoresDisabledTools(t *testing.T) {
	cm := &types.ChatManage{ToolsEnabled: map[string]bool{"bank_analytics": false}}
	assert.Equal(t, "chat", pipelineFor(cm))
}

func TestFallbackMessageDocumentsStillProcessing(t *testing.T) {
	cm := &types.ChatManage{DocumentContextWarning: "algunos documentos adjuntos todavía se están procesando"}
	msg := fallbackMessage(cm, nil)
	assert.Contains(t, msg, "procesando")
}

func TestFallbackMessageNoContentFound(t *testing.T) {
	cm := &types.ChatManage{DocumentIDs: []string{"d1"}}
	msg := fallbackMessage(cm, nil)
	assert.Contains(t, msg, "documentos adjuntos")
}

func TestFallbackMessageUpstreamError(t *testing.T) {
	cm := &types.ChatManage{}
	msg := fallbackMessage(cm, assertError("boom"))
	assert.Contains(t, msg, "No pudimos generar")
}

func TestFallbackMessageGeneric(t *testing.T) {
	cm := &types.ChatManage{}
	msg := fallbackMessage(cm, nil)
	assert.Contains(t, msg, "información suficiente")
}

func TestStrategyForAnalyticsHitWins(t *testing.T) {
	cm := &types.ChatManage{AnalyticsHit: &types.AnalyticsResult{Type: types.AnalyticsResultData}}
	assert.Equal(t, "bank_analytics", strategyFor(cm, false))
}

func TestStrategyForRagPresent(t *testing.T) {
	cm := &types.ChatManage{}
	assert.Equal(t, "document_rag", strategyFor(cm, true))
}

func TestStrategyForDirect(t *testing.T) {
	cm := &types.ChatManage{}
	assert.Equal(t, "direct", strategyFor(cm, false))
}

func TestEmitPseudoChunksGroupsWordsAndSendsFinalMarkerFalse(t *testing.T) {
	cm := &types.ChatManage{Events: make(chan types.ChatEvent, 10)}
	emitPseudoChunks(context.Background(), cm, "uno dos tres cuatro cinco seis siete ocho nueve diez")
	close(cm.Events)

	var chunks int
	for evt := range cm.Events {
		require.Equal(t, types.ChatEventChunk, evt.Name)
		data, ok := evt.Data.(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, false, data["final"])
		chunks++
	}
	assert.Equal(t, 2, chunks)
}

func TestEmitPseudoChunksSkipsEmptyContent(t *testing.T) {
	cm := &types.ChatManage{Events: make(chan types.ChatEvent, 1)}
	emitPseudoChunks(context.Background(), cm, "")
	assert.Len(t, cm.Events, 0)
}

func TestEmitIsNoOpWithoutEventsChannel(t *testing.T) {
	cm := &types.ChatManage{}
	assert.NotPanics(t, func() {
		emit(context.Background(), cm, types.ChatEventChunk, "ignored")
	})
}

func TestModelRegistryResolvesNamedBackendOrFallback(t *testing.T) {
	fallback := &fakeChat{name: "fallback"}
	named := &fakeChat{name: "gpt-bank"}
	reg := NewModelRegistry(fallback)
	reg.Register("gpt-bank", named)

	assert.Equal(t, named, reg.Resolve("gpt-bank"))
	assert.Equal(t, fallback, reg.Resolve(""))
	assert.Equal(t, fallback, reg.Resolve("unknown-model"))
}

func TestBuildMessagesOrdersSystemHistoryThenUser(t *testing.T) {
	history := []types.ChatHistoryTurn{
		{Role: "user", Content: "hola"},
		{Role: "assistant", Content: "hola, ¿en qué te ayudo?"},
	}
	messages := buildMessages("eres un asistente", history, "¿cuál es la cartera de INVEX?")
	require.Len(t, messages, 4)
	assert.Equal(t, "system", messages[0].Role)
	assert.Equal(t, "user", messages[1].Role)
	assert.Equal(t, "assistant", messages[2].Role)
	assert.Equal(t, "user", messages[3].Role)
	assert.Equal(t, "¿cuál es la cartera de INVEX?", messages[3].Content)
}

func TestRenderSystemPromptPlaceholdersLeavesUnknownTokensAlone(t *testing.T) {
	out := renderSystemPromptPlaceholders("hoy es {{current_time}}, semana {{current_week}}, ver {{version}}")
	assert.Contains(t, out, "ver {{version}}")
	assert.NotContains(t, out, "{{current_time}}")
	assert.NotContains(t, out, "{{current_week}}")
}

func TestSizeMaxTokensClampsToFloorWhenPromptIsHuge(t *testing.T) {
	p := &PluginBuildPrompt{
		prompts:     map[string]string{"": defaultSystemPrompt},
		modelLimits: map[string]int{},
		chatCfg:     config.ChatConfig{QueueSize: 10, MaxTokensCeiling: 4096, MaxTokensFloor: 500, SafetyMarginTokens: 512},
	}
	huge := make([]byte, 40000)
	cm := &types.ChatManage{SystemPrompt: string(huge)}
	assert.Equal(t, p.chatCfg.MaxTokensFloor, p.sizeMaxTokens(cm))
}

func TestSizeMaxTokensHonorsRequestedCeiling(t *testing.T) {
	p := &PluginBuildPrompt{
		prompts:     map[string]string{"": defaultSystemPrompt},
		modelLimits: map[string]int{},
		chatCfg:     config.ChatConfig{QueueSize: 10, MaxTokensCeiling: 4096, MaxTokensFloor: 500, SafetyMarginTokens: 512},
	}
	cm := &types.ChatManage{SystemPrompt: "corto", Query: "corto", RequestedMaxTokens: 800}
	assert.Equal(t, 800, p.sizeMaxTokens(cm))
}

func TestAppendAnalyticsSummaryIncludesMetricAndStats(t *testing.T) {
	var b strings.Builder
	result := &types.AnalyticsResult{
		MetricName:     "CARTERA_TOTAL",
		Visualization:  "evolution",
		TimeRangeStart: "2025-01-01",
		TimeRangeEnd:   "2025-12-31",
		DataAsOf:       "2025-12-31",
		SummaryStats:   map[string]interface{}{"promedio": 4.1},
	}
	appendAnalyticsSummary(&b, result)
	out := b.String()
	assert.Contains(t, out, "CARTERA_TOTAL")
	assert.Contains(t, out, "promedio")
}

type assertError string

func (e assertError) Error() string { return string(e) }

// fakeChat is a minimal chat.Chat double identified by name, enough
// to exercise ModelRegistry's resolution logic without a real backend.
type fakeChat struct {
	name string
}

func (f *fakeChat) Chat(_ context.Context, _ []chat.Message, _ *chat.ChatOptions) (*types.ChatResponse, error) {
	return &types.ChatResponse{Content: f.name}, nil
}

func (f *fakeChat) ChatStream(_ context.Context, _ []chat.Message, _ *chat.ChatOptions) (<-chan types.StreamResponse, error) {
	ch := make(chan types.StreamResponse)
	close(ch)
	return ch, nil
}

func (f *fakeChat) GetModelName() string { return f.name }
func (f *fakeChat) GetModelID() string   { return f.name }
