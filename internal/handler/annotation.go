package handler

import (
	"encoding/csv"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
	"github.com/cm-fl-mit/interaction-assess/internal/service"
)

// exportHeader is the fixed CSV header consumed by the analysis pipeline.
var exportHeader = []string{
	"participant_id",
	"slice_id",
	"conversation_id",
	"interaction_types",
	"curiosity_types",
	"routing_validation",
	"annotation_time_seconds",
	"submitted_at",
}

// AnnotationHandler accepts annotation submissions and serves the CSV export.
type AnnotationHandler struct {
	annotations *service.AnnotationService
	logger      *zap.Logger
}

func NewAnnotationHandler(annotations *service.AnnotationService, logger *zap.Logger) *AnnotationHandler {
	return &AnnotationHandler{annotations: annotations, logger: logger}
}

// Submit handles POST /api/annotations
func (h *AnnotationHandler) Submit(c *gin.Context) {
	var req models.AnnotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": err.Error(),
		})
		return
	}

	ann, result, err := h.annotations.Submit(c.Request.Context(), &req)
	if err != nil {
		h.logger.Error("Failed to save annotation", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "failed to save annotation",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "annotation saved",
		"id":              ann.ID,
		"saved_to_sheets": result.SavedToSheets,
	})
}

// ExportCSV handles GET /api/export
func (h *AnnotationHandler) ExportCSV(c *gin.Context) {
	rows, err := h.annotations.Export(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to export annotations", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "export failed"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=annotations.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeader)
	for _, row := range rows {
		writer.Write([]string{
			row.ParticipantID,
			row.SliceID,
			row.ConversationID,
			row.InteractionTypes,
			row.CuriosityTypes,
			row.RoutingValidation,
			strconv.Itoa(row.AnnotationTimeSeconds),
			row.SubmittedAt.Format(time.RFC3339),
		})
	}
}
