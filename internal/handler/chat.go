package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	chatpipline "github.com/saptiva-ai/bankcopilot/internal/application/service/chat_pipline"
	"github.com/saptiva-ai/bankcopilot/internal/errors"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
	"github.com/saptiva-ai/bankcopilot/internal/types"
)

// ChatHandler is the HTTP/SSE adapter over the chat_pipline orchestrator.
type ChatHandler struct {
	orchestrator *chatpipline.Orchestrator
}

func NewChatHandler(orchestrator *chatpipline.Orchestrator) *ChatHandler {
	return &ChatHandler{orchestrator: orchestrator}
}

// ChatRequest mirrors the chat endpoint's request fields.
type ChatRequest struct {
	Message      string                 `json:"message" binding:"required"`
	ChatID       string                 `json:"chat_id"`
	Model        string                 `json:"model"`
	Temperature  float64                `json:"temperature"`
	MaxTokens    int                    `json:"max_tokens"`
	Stream       bool                   `json:"stream"`
	FileIDs      []string               `json:"file_ids"`
	DocumentIDs  []string               `json:"document_ids"`
	ToolsEnabled map[string]bool        `json:"tools_enabled"`
	Metadata     map[string]interface{} `json:"metadata"`
}

// Chat handles POST /api/v1/chat, branching on Accept: text/event-stream
// into the SSE path; otherwise it runs the turn to completion and
// returns the final JSON shape the non-streaming caller expects.
func (h *ChatHandler) Chat(c *gin.Context) {
	ctx := c.Request.Context()

	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError(err.Error()))
		return
	}

	sessionID := req.ChatID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	userID := c.GetString("user_id")

	chatManage := &types.ChatManage{
		SessionID:          sessionID,
		UserID:             userID,
		Query:              req.Message,
		Model:              req.Model,
		Temperature:        req.Temperature,
		RequestedMaxTokens: req.MaxTokens,
		Stream:             req.Stream,
		FileIDs:            req.FileIDs,
		DocumentIDs:        req.DocumentIDs,
		ToolsEnabled:       req.ToolsEnabled,
		Metadata:           req.Metadata,
	}

	wantsSSE := req.Stream || c.GetHeader("Accept") == "text/event-stream"
	if wantsSSE {
		h.streamChat(c, chatManage)
		return
	}
	h.jsonChat(c, ctx, chatManage)
}

func (h *ChatHandler) jsonChat(c *gin.Context, ctx context.Context, chatManage *types.ChatManage) {
	started := time.Now()
	if err := h.orchestrator.Run(ctx, chatManage); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chat_id":     chatManage.SessionID,
		"message_id":  chatManage.MessageID,
		"content":     chatManage.ResponseContent,
		"model":       chatManage.Model,
		"created_at":  time.Now().Format(time.RFC3339),
		"latency_ms":  time.Since(started).Milliseconds(),
		"tools_used":  chatManage.ToolResults,
		"artifact_id": chatManage.ArtifactID,
	})
}

// streamChat drains chatManage.Events onto the ResponseWriter as SSE
// frames while the orchestrator runs concurrently; the channel itself
// is the bounded queue that backpressures the orchestrator's
// producer when this loop (the consumer) falls behind.
func (h *ChatHandler) streamChat(c *gin.Context, chatManage *types.ChatManage) {
	queueSize := cap(chatManage.Events)
	if queueSize == 0 {
		queueSize = 10
	}
	chatManage.Events = make(chan types.ChatEvent, queueSize)

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	done := make(chan *chatpipline.PluginError, 1)
	go func() {
		done <- h.orchestrator.Run(ctx, chatManage)
		close(chatManage.Events)
	}()

	c.Stream(func(w gin.ResponseWriter) bool {
		select {
		case evt, ok := <-chatManage.Events:
			if !ok {
				return false
			}
			c.SSEvent(string(evt.Name), evt.Data)
			return true
		case <-ctx.Done():
			return false
		}
	})

	if err := <-done; err != nil {
		logger.ErrorWithFields(ctx, err, map[string]interface{}{"session_id": chatManage.SessionID})
	}
}
