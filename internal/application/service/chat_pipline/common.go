package chatpipline

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/saptiva-ai/bankcopilot/internal/common"
	"github.com/saptiva-ai/bankcopilot/internal/models/chat"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// pipelineInfo/pipelineWarn/pipelineError log one pipeline-stage
// entry with its stage/action tags, delegating to the shared
// structured-logging helpers every other component uses.
func pipelineInfo(ctx context.Context, stage, action string, fields map[string]interface{}) {
	common.PipelineInfo(ctx, stage, action, fields)
}

func pipelineWarn(ctx context.Context, stage, action string, fields map[string]interface{}) {
	common.PipelineWarn(ctx, stage, action, fields)
}

func pipelineError(ctx context.Context, stage, action string, fields map[string]interface{}) {
	common.PipelineError(ctx, stage, action, fields)
}

// ModelRegistry resolves a request's requested model name to a
// concrete chat.Chat backend, falling back to a configured default
// when the request left it blank or named something unconfigured.
type ModelRegistry struct {
	models   map[string]chat.Chat
	fallback chat.Chat
}

// NewModelRegistry builds a registry. defaultModel must not be nil;
// it backs every request that does not name a configured model.
func NewModelRegistry(defaultModel chat.Chat) *ModelRegistry {
	return &ModelRegistry{models: make(map[string]chat.Chat), fallback: defaultModel}
}

// Register adds a named backend callers can select via the chat
// request's `model` field.
func (r *ModelRegistry) Register(name string, c chat.Chat) {
	r.models[name] = c
}

// Resolve returns the backend for name, or the default when name is
// empty or unknown.
func (r *ModelRegistry) Resolve(name string) chat.Chat {
	if name == "" {
		return r.fallback
	}
	if c, ok := r.models[name]; ok {
		return c
	}
	return r.fallback
}

// buildMessages assembles the full completion request: a rendered
// system prompt, trimmed history, and the current user turn.
func buildMessages(systemPrompt string, history []types.ChatHistoryTurn, userContent string) []chat.Message {
	messages := []chat.Message{{Role: "system", Content: renderSystemPromptPlaceholders(systemPrompt)}}
	for _, h := range history {
		messages = append(messages, chat.Message{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, chat.Message{Role: "user", Content: userContent})
	return messages
}

// renderSystemPromptPlaceholders substitutes the handful of dynamic
// tokens a system prompt may reference. Unrecognized placeholders are
// left untouched rather than erroring, since prompts are operator
// authored and a typo here should degrade gracefully, not fail the turn.
func renderSystemPromptPlaceholders(prompt string) string {
	result := prompt
	if strings.Contains(result, "{{current_time}}") {
		result = strings.ReplaceAll(result, "{{current_time}}", time.Now().Format(time.RFC3339))
	}
	if strings.Contains(result, "{{current_week}}") {
		_, week := time.Now().ISOWeek()
		result = strings.ReplaceAll(result, "{{current_week}}", strconv.Itoa(week))
	}
	return result
}
