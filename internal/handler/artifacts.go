package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/saptiva-ai/bankcopilot/internal/application/repository"
	"github.com/saptiva-ai/bankcopilot/internal/errors"
)

// ArtifactHandler is the CRUD adapter over persisted chat artifacts
// (charts, clarifications, document-derived side-outputs), every
// operation scoped to the caller's own rows.
type ArtifactHandler struct {
	repo *repository.ChatRepository
}

func NewArtifactHandler(repo *repository.ChatRepository) *ArtifactHandler {
	return &ArtifactHandler{repo: repo}
}

// Get handles GET /api/v1/artifacts/:id.
func (h *ArtifactHandler) Get(c *gin.Context) {
	userID := c.GetString("user_id")
	artifact, err := h.repo.GetArtifact(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		c.Error(errors.NewNotFoundError("artifact not found"))
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// List handles GET /api/v1/sessions/:session_id/artifacts.
func (h *ArtifactHandler) List(c *gin.Context) {
	userID := c.GetString("user_id")
	rows, err := h.repo.ListArtifacts(c.Request.Context(), c.Param("session_id"), userID)
	if err != nil {
		c.Error(errors.NewInternalServerError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"artifacts": rows})
}

// UpdateArtifactRequest is the body for PUT /api/v1/artifacts/:id.
type UpdateArtifactRequest struct {
	Content map[string]interface{} `json:"content" binding:"required"`
}

// Update handles PUT /api/v1/artifacts/:id, pushing the prior content
// onto the version history rather than discarding it.
func (h *ArtifactHandler) Update(c *gin.Context) {
	userID := c.GetString("user_id")

	var req UpdateArtifactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(errors.NewBadRequestError(err.Error()))
		return
	}

	artifact, err := h.repo.UpdateArtifact(c.Request.Context(), c.Param("id"), userID, req.Content)
	if err != nil {
		if err == repository.ErrArtifactNotFound {
			c.Error(errors.NewNotFoundError("artifact not found"))
			return
		}
		c.Error(errors.NewInternalServerError(err.Error()))
		return
	}
	c.JSON(http.StatusOK, artifact)
}

// Delete handles DELETE /api/v1/artifacts/:id.
func (h *ArtifactHandler) Delete(c *gin.Context) {
	userID := c.GetString("user_id")
	if err := h.repo.DeleteArtifact(c.Request.Context(), c.Param("id"), userID); err != nil {
		c.Error(errors.NewInternalServerError(err.Error()))
		return
	}
	c.Status(http.StatusNoContent)
}
