package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saptiva-ai/bankcopilot/internal/document"
	"github.com/saptiva-ai/bankcopilot/internal/errors"
	"github.com/saptiva-ai/bankcopilot/internal/logger"
)

// DocumentHandler is the HTTP/SSE adapter over document ingestion and
// session-scoped retrieval status.
type DocumentHandler struct {
	service      *document.Service
	maxSizeBytes int64
	rateLimiter  *document.UploadRateLimiter
	bucket       string
}

func NewDocumentHandler(service *document.Service, maxSizeBytes int64, rateLimiter *document.UploadRateLimiter, bucket string) *DocumentHandler {
	return &DocumentHandler{service: service, maxSizeBytes: maxSizeBytes, rateLimiter: rateLimiter, bucket: bucket}
}

// Upload handles POST /api/v1/documents, reading one multipart file
// field named "file" plus a session_id form field, and streams the
// lifecycle back as SSE (meta, progress/ready/failed) rather than
// blocking the caller until extraction finishes.
func (h *DocumentHandler) Upload(c *gin.Context) {
	userID := c.GetString("user_id")
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		c.Error(errors.NewValidationError("session_id is required"))
		return
	}

	if h.rateLimiter != nil {
		allowed, err := h.rateLimiter.Allow(c.Request.Context(), userID)
		if err != nil {
			c.Error(errors.NewBackendUnavailable("rate limiter", err))
			return
		}
		if !allowed {
			c.Error(errors.NewRateLimit(60000))
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.Error(errors.NewValidationError("file is required"))
		return
	}
	if fileHeader.Size > h.maxSizeBytes {
		c.Error(errors.NewValidationError(fmt.Sprintf("file exceeds the %d byte limit", h.maxSizeBytes)))
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.Error(errors.NewInternalServerError("could not read uploaded file"))
		return
	}
	defer f.Close()

	raw := make([]byte, fileHeader.Size)
	if _, err := f.Read(raw); err != nil {
		c.Error(errors.NewInternalServerError("could not read uploaded file"))
		return
	}

	contentType := fileHeader.Header.Get("Content-Type")
	traceID := c.GetHeader("X-Trace-Id")

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	ctx := c.Request.Context()
	fileID := fileHeader.Filename

	c.SSEvent("meta", gin.H{"file_id": fileID, "trace_id": traceID, "phase": "upload", "pct": 0, "status": "started"})
	c.Writer.Flush()

	result, err := h.service.Ingest(ctx, userID, sessionID, fileHeader.Filename, contentType, raw, h.bucket, fileID)
	if err != nil {
		logger.ErrorWithFields(ctx, err, map[string]interface{}{"filename": fileHeader.Filename})
		c.SSEvent("failed", gin.H{"file_id": fileID, "trace_id": traceID, "phase": "extract", "pct": 0, "status": "failed", "error": err.Error()})
		c.Writer.Flush()
		return
	}

	switch result.Status {
	case document.StatusReady:
		c.SSEvent("ready", gin.H{
			"file_id": result.DocumentID, "trace_id": traceID, "phase": "complete", "pct": 100, "status": string(result.Status),
		})
	case document.StatusProcessing:
		c.SSEvent("progress", gin.H{
			"file_id": result.DocumentID, "trace_id": traceID, "phase": "embedding", "pct": 50, "status": string(result.Status),
		})
	default:
		c.SSEvent("failed", gin.H{
			"file_id": result.DocumentID, "trace_id": traceID, "phase": "extract", "pct": 0, "status": string(result.Status),
		})
	}
	c.Writer.Flush()
}

// Status handles GET /api/v1/documents/:id/status, a polling
// fallback for callers that did not keep the upload SSE connection
// open (the lifecycle is otherwise terminal once StatusReady/Failed).
func (h *DocumentHandler) Status(c *gin.Context) {
	userID := c.GetString("user_id")
	documentID := c.Param("id")

	status, err := h.service.Status(c.Request.Context(), documentID, userID)
	if err != nil {
		c.Error(errors.NewNotFoundError("document not found"))
		return
	}
	c.JSON(http.StatusOK, gin.H{"document_id": documentID, "status": string(status)})
}
