package chatpipline

import (
	"fmt"
	"strings"

	"context"

	"github.com/saptiva-ai/bankcopilot/internal/config"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// defaultModelLimit is the context window assumed for a model not
// named in the prompt registry's per-model limit table.
const defaultModelLimit = 8192

const defaultSystemPrompt = `Eres un asistente de análisis bancario. Responde en español, de forma
concisa y precisa, citando el periodo de los datos cuando corresponda.
Si no tienes información suficiente, dilo explícitamente en vez de inventar cifras.`

// PluginBuildPrompt resolves a model-specific system prompt, appends
// the analytics summary stats and RAG document context when present,
// and sizes max_tokens dynamically so that
// (prompt_tokens_estimate + max_tokens) stays under the model limit
// minus a safety margin.
type PluginBuildPrompt struct {
	prompts     map[string]string
	modelLimits map[string]int
	chatCfg     config.ChatConfig
}

func NewPluginBuildPrompt(eventManager *EventManager, chatCfg config.ChatConfig) *PluginBuildPrompt {
	p := &PluginBuildPrompt{
		prompts:     map[string]string{"": defaultSystemPrompt},
		modelLimits: map[string]int{},
		chatCfg:     chatCfg,
	}
	eventManager.Register(p)
	return p
}

// RegisterPrompt lets callers override the system prompt and/or
// context-window limit for a named model.
func (p *PluginBuildPrompt) RegisterPrompt(model, prompt string, contextLimit int) {
	p.prompts[model] = prompt
	if contextLimit > 0 {
		p.modelLimits[model] = contextLimit
	}
}

func (p *PluginBuildPrompt) ActivationEvents() []types.EventType {
	return []types.EventType{types.BuildPrompt}
}

func (p *PluginBuildPrompt) OnEvent(ctx context.Context, eventType types.EventType, chatManage *types.ChatManage, next func() *PluginError) *PluginError {
	prompt := p.prompts[chatManage.Model]
	if prompt == "" {
		prompt = p.prompts[""]
	}

	var b strings.Builder
	b.WriteString(prompt)

	if chatManage.AnalyticsHit != nil {
		b.WriteString("\n\nHas recibido el resultado de una herramienta de análisis bancario; úsalo para responder, citando el periodo y el origen de los datos.\n")
		appendAnalyticsSummary(&b, chatManage.AnalyticsHit)
	}

	if chatManage.DocumentContext != "" {
		b.WriteString("\n\nContexto de documentos adjuntos:\n")
		b.WriteString(chatManage.DocumentContext)
	}
	if chatManage.DocumentContextWarning != "" {
		fmt.Fprintf(&b, "\n\n[Aviso: %s]\n", chatManage.DocumentContextWarning)
	}

	chatManage.SystemPrompt = b.String()
	chatManage.MaxTokens = p.sizeMaxTokens(chatManage)

	pipelineInfo(ctx, "build_prompt", "assembled", map[string]interface{}{
		"session_id": chatManage.SessionID, "max_tokens": chatManage.MaxTokens, "prompt_chars": len(chatManage.SystemPrompt),
	})
	return next()
}

func appendAnalyticsSummary(b *strings.Builder, result *types.AnalyticsResult) {
	fmt.Fprintf(b, "Métrica: %s | Visualización: %s | Periodo: %s a %s (datos al %s)\n",
		result.MetricName, result.Visualization, result.TimeRangeStart, result.TimeRangeEnd, result.DataAsOf)
	for key, val := range result.SummaryStats {
		fmt.Fprintf(b, "- %s: %v\n", key, val)
	}
}

// estimateTokens is a rough chars/4 heuristic, matching how the
// teacher stack budgets prompts without a real tokenizer on the
// hot path.
func estimateTokens(text string) int {
	return len(text)/4 + 1
}

func (p *PluginBuildPrompt) sizeMaxTokens(chatManage *types.ChatManage) int {
	limit := defaultModelLimit
	if l, ok := p.modelLimits[chatManage.Model]; ok {
		limit = l
	}

	ceiling := p.chatCfg.MaxTokensCeiling
	if chatManage.RequestedMaxTokens > 0 && chatManage.RequestedMaxTokens < ceiling {
		ceiling = chatManage.RequestedMaxTokens
	}

	promptTokens := estimateTokens(chatManage.SystemPrompt) + estimateTokens(chatManage.Query)
	budget := limit - promptTokens - p.chatCfg.SafetyMarginTokens
	if budget > ceiling {
		budget = ceiling
	}
	if budget < p.chatCfg.MaxTokensFloor {
		budget = p.chatCfg.MaxTokensFloor
	}
	return budget
}
