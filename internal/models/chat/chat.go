// Package chat defines the provider-agnostic chat-completion surface
// a backend implements (this module has one, the OpenAI-compatible
// OpenAIChat), generalized
// from the teacher's Ollama-only wire format so analytics narration
// (the analytics service/the chat pipeline) and query-spec parsing (the query-spec parser) can swap providers freely.
package chat

import (
	"context"
	"encoding/json"

	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// Message is one turn in a chat-completion request.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	Name      string     `json:"name,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall mirrors the OpenAI-style tool call shape the go-openai
// backend uses.
type ToolCall struct {
	ID       string      `json:"id"`
	Type     string      `json:"type"`
	Function FunctionRef `json:"function"`
}

// FunctionRef names the function a ToolCall invokes plus its raw,
// JSON-encoded arguments.
type FunctionRef struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool advertises one callable function to the model.
type Tool struct {
	Type     string      `json:"type"`
	Function FunctionDef `json:"function"`
}

// FunctionDef is a tool's JSON-Schema parameter definition.
type FunctionDef struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// ChatOptions tunes one completion request.
type ChatOptions struct {
	Temperature float64
	TopP        float64
	MaxTokens   int
	Thinking    *bool
	Format      json.RawMessage
	Tools       []Tool
}

// ChatConfig identifies which model a Chat implementation targets.
type ChatConfig struct {
	ModelName string
	ModelID   string
}

// Chat is the interface every chat-completion backend implements.
type Chat interface {
	Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*types.ChatResponse, error)
	ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan types.StreamResponse, error)
	GetModelName() string
	GetModelID() string
}
