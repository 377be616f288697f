package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
	"github.com/cm-fl-mit/interaction-assess/internal/repository"
)

// AnnotationSink receives a copy of every accepted annotation. The Google
// Sheets mirror implements this; additional sinks compose the same way.
type AnnotationSink interface {
	Append(ctx context.Context, ann *models.Annotation) error
}

// AnnotationService persists submissions to the primary log and fans them out
// to an optional best-effort mirror. A mirror failure never fails the
// submission.
type AnnotationService struct {
	repo   repository.AnnotationRepository
	mirror AnnotationSink // may be nil
	logger *zap.Logger
}

func NewAnnotationService(repo repository.AnnotationRepository, mirror AnnotationSink, logger *zap.Logger) *AnnotationService {
	return &AnnotationService{repo: repo, mirror: mirror, logger: logger}
}

// SubmitResult reports where a submission landed besides the primary log.
type SubmitResult struct {
	SavedToSheets bool
}

// Submit validates nothing beyond field presence (done at the HTTP boundary)
// and records the annotation. The primary write decides success; the mirror
// outcome is advisory.
func (s *AnnotationService) Submit(ctx context.Context, req *models.AnnotationRequest) (*models.Annotation, *SubmitResult, error) {
	ann := &models.Annotation{
		ParticipantID:         req.ParticipantID,
		SliceID:               req.SliceID,
		InteractionTypes:      req.InteractionTypes,
		CuriosityTypes:        req.CuriosityTypes,
		RoutingValidation:     req.RoutingValidation,
		AnnotationTimeSeconds: req.AnnotationTimeSeconds,
		SubmittedAt:           time.Now().UTC(),
	}
	if ann.CuriosityTypes == nil {
		ann.CuriosityTypes = []string{}
	}
	if len(ann.RoutingValidation) == 0 {
		ann.RoutingValidation = json.RawMessage("{}")
	}

	if err := s.repo.Save(ctx, ann); err != nil {
		return nil, nil, fmt.Errorf("failed to save annotation: %w", err)
	}

	result := &SubmitResult{}
	if s.mirror != nil {
		if err := s.mirror.Append(ctx, ann); err != nil {
			s.logger.Warn("Sheets mirror append failed",
				zap.String("participant_id", ann.ParticipantID),
				zap.String("slice_id", ann.SliceID),
				zap.Error(err))
		} else {
			result.SavedToSheets = true
		}
	}

	return ann, result, nil
}

// Export returns the joined export rows for CSV serialization.
func (s *AnnotationService) Export(ctx context.Context) ([]models.ExportRow, error) {
	return s.repo.ExportJoined(ctx)
}
