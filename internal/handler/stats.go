package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/repository"
)

// StatsHandler reports assignment balance and annotation volume.
type StatsHandler struct {
	assignments repository.AssignmentRepository
	annotations repository.AnnotationRepository
	logger      *zap.Logger
}

func NewStatsHandler(assignments repository.AssignmentRepository, annotations repository.AnnotationRepository, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{assignments: assignments, annotations: annotations, logger: logger}
}

// Stats handles GET /api/stats
func (h *StatsHandler) Stats(c *gin.Context) {
	counts, err := h.assignments.CountsBySlice(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to get assignment counts", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	total, err := h.annotations.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to count annotations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to get stats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"assignments_by_slice": counts,
		"total_annotations":    total,
	})
}
