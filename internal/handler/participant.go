package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/service"
)

// ParticipantHandler serves slice batches to participants.
type ParticipantHandler struct {
	allocator *service.Allocator
	logger    *zap.Logger
}

func NewParticipantHandler(allocator *service.Allocator, logger *zap.Logger) *ParticipantHandler {
	return &ParticipantHandler{allocator: allocator, logger: logger}
}

// GetSlices handles GET /api/participant/:id/slices
func (h *ParticipantHandler) GetSlices(c *gin.Context) {
	participantID := c.Param("id")
	if participantID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "participant id is required"})
		return
	}

	batch, err := h.allocator.AssignmentFor(c.Request.Context(), participantID)
	if err != nil {
		h.logger.Error("Failed to get assignment for participant",
			zap.String("participant_id", participantID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to retrieve slices"})
		return
	}

	c.JSON(http.StatusOK, batch)
}
