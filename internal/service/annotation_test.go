package service

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
)

type fakeAnnotationRepo struct {
	saved  []*models.Annotation
	nextID int64
	fail   bool
}

func (r *fakeAnnotationRepo) Save(ctx context.Context, ann *models.Annotation) error {
	if r.fail {
		return fmt.Errorf("storage unavailable")
	}
	r.nextID++
	ann.ID = r.nextID
	r.saved = append(r.saved, ann)
	return nil
}

func (r *fakeAnnotationRepo) ExportJoined(ctx context.Context) ([]models.ExportRow, error) {
	return []models.ExportRow{}, nil
}

func (r *fakeAnnotationRepo) Count(ctx context.Context) (int, error) {
	return len(r.saved), nil
}

type fakeSink struct {
	appended int
	fail     bool
}

func (s *fakeSink) Append(ctx context.Context, ann *models.Annotation) error {
	if s.fail {
		return fmt.Errorf("sheets unavailable")
	}
	s.appended++
	return nil
}

func TestSubmitFillsDefaults(t *testing.T) {
	repo := &fakeAnnotationRepo{}
	svc := NewAnnotationService(repo, nil, zap.NewNop())

	ann, result, err := svc.Submit(context.Background(), &models.AnnotationRequest{
		ParticipantID:    "p1",
		SliceID:          "s1",
		InteractionTypes: []string{"questioning"},
	})
	require.NoError(t, err)

	assert.Equal(t, int64(1), ann.ID)
	assert.Equal(t, []string{}, ann.CuriosityTypes)
	assert.Equal(t, json.RawMessage("{}"), ann.RoutingValidation)
	assert.Equal(t, 0, ann.AnnotationTimeSeconds)
	assert.False(t, ann.SubmittedAt.IsZero())
	assert.False(t, result.SavedToSheets, "no mirror configured")
}

func TestSubmitMirrorsWhenConfigured(t *testing.T) {
	repo := &fakeAnnotationRepo{}
	sink := &fakeSink{}
	svc := NewAnnotationService(repo, sink, zap.NewNop())

	_, result, err := svc.Submit(context.Background(), &models.AnnotationRequest{
		ParticipantID:    "p1",
		SliceID:          "s1",
		InteractionTypes: []string{},
	})
	require.NoError(t, err)
	assert.True(t, result.SavedToSheets)
	assert.Equal(t, 1, sink.appended)
}

func TestSubmitSucceedsWhenMirrorFails(t *testing.T) {
	repo := &fakeAnnotationRepo{}
	sink := &fakeSink{fail: true}
	svc := NewAnnotationService(repo, sink, zap.NewNop())

	_, result, err := svc.Submit(context.Background(), &models.AnnotationRequest{
		ParticipantID:    "p1",
		SliceID:          "s1",
		InteractionTypes: []string{"questioning"},
	})
	require.NoError(t, err, "mirror failure must not fail the submission")
	assert.False(t, result.SavedToSheets)
	assert.Len(t, repo.saved, 1)
}

func TestSubmitFailsWhenPrimaryWriteFails(t *testing.T) {
	repo := &fakeAnnotationRepo{fail: true}
	sink := &fakeSink{}
	svc := NewAnnotationService(repo, sink, zap.NewNop())

	_, _, err := svc.Submit(context.Background(), &models.AnnotationRequest{
		ParticipantID:    "p1",
		SliceID:          "s1",
		InteractionTypes: []string{"questioning"},
	})
	require.Error(t, err)
	assert.Equal(t, 0, sink.appended, "mirror must not run when the primary write fails")
}
