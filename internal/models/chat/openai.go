package chat

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// OpenAIChat implements Chat against any OpenAI-compatible endpoint
// (OpenAI itself, or a self-hosted gateway exposing the same wire
// format), the wire format the query spec parser (the query-spec
// parser) and SQL-error narrator (the SQL generator/the chat pipeline) both fall back to.
type OpenAIChat struct {
	client    *openai.Client
	modelName string
	modelID   string
}

// NewOpenAIChat builds a client pointed at baseURL with apiKey, or at
// the public OpenAI API when baseURL is empty.
func NewOpenAIChat(baseURL, apiKey, modelName, modelID string) *OpenAIChat {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIChat{
		client:    openai.NewClientWithConfig(config),
		modelName: modelName,
		modelID:   modelID,
	}
}

func (c *OpenAIChat) convertMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
			Name:    m.Name,
		})
	}
	return out
}

func (c *OpenAIChat) buildRequest(messages []Message, opts *ChatOptions, stream bool) openai.ChatCompletionRequest {
	req := openai.ChatCompletionRequest{
		Model:    c.modelName,
		Messages: c.convertMessages(messages),
		Stream:   stream,
	}
	if opts != nil {
		req.Temperature = float32(opts.Temperature)
		req.TopP = float32(opts.TopP)
		if opts.MaxTokens > 0 {
			req.MaxTokens = opts.MaxTokens
		}
		if len(opts.Format) > 0 {
			req.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
		}
	}
	return req
}

// Chat issues a single, non-streaming completion request.
func (c *OpenAIChat) Chat(ctx context.Context, messages []Message, opts *ChatOptions) (*types.ChatResponse, error) {
	req := c.buildRequest(messages, opts, false)
	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai returned no choices")
	}
	choice := resp.Choices[0]
	return &types.ChatResponse{
		Content: choice.Message.Content,
		Usage: struct {
			PromptTokens     int `json:"prompt_tokens"`
			CompletionTokens int `json:"completion_tokens"`
			TotalTokens      int `json:"total_tokens"`
		}{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// ChatStream streams completion chunks onto a channel, closing it
// when the upstream stream ends or errors.
func (c *OpenAIChat) ChatStream(ctx context.Context, messages []Message, opts *ChatOptions) (<-chan types.StreamResponse, error) {
	req := c.buildRequest(messages, opts, true)
	stream, err := c.client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("openai chat stream: %w", err)
	}

	out := make(chan types.StreamResponse)
	go func() {
		defer stream.Close()
		defer close(out)
		for {
			chunk, err := stream.Recv()
			if err != nil {
				if err.Error() != "EOF" {
					logger.Error(ctx, "openai.stream_error", "error", err.Error())
					out <- types.StreamResponse{ResponseType: types.ResponseTypeError, Content: err.Error(), Done: true}
				} else {
					out <- types.StreamResponse{ResponseType: types.ResponseTypeAnswer, Done: true}
				}
				return
			}
			if len(chunk.Choices) == 0 {
				continue
			}
			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				out <- types.StreamResponse{ResponseType: types.ResponseTypeAnswer, Content: delta}
			}
		}
	}()
	return out, nil
}

func (c *OpenAIChat) GetModelName() string { return c.modelName }
func (c *OpenAIChat) GetModelID() string   { return c.modelID }
