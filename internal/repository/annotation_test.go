package repository

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
)

func TestSaveAnnotationSerializesFields(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnotationRepository(db, zap.NewNop())

	submitted := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	ann := &models.Annotation{
		ParticipantID:         "p1",
		SliceID:               "s1",
		InteractionTypes:      []string{"questioning"},
		CuriosityTypes:        nil,
		RoutingValidation:     json.RawMessage(`{"route":"ok"}`),
		AnnotationTimeSeconds: 42,
		SubmittedAt:           submitted,
	}

	mock.ExpectQuery(`INSERT INTO annotations`).
		WithArgs("p1", "s1", `["questioning"]`, `[]`, `{"route":"ok"}`, 42, submitted).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))

	require.NoError(t, repo.Save(context.Background(), ann))
	assert.Equal(t, int64(7), ann.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJoined(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnotationRepository(db, zap.NewNop())

	submitted := time.Date(2026, 8, 24, 12, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`FROM annotations a`).
		WillReturnRows(sqlmock.NewRows([]string{
			"participant_id", "slice_id", "conversation_id", "interaction_types",
			"curiosity_types", "routing_validation", "annotation_time_seconds", "submitted_at",
		}).AddRow("p1", "s1", "c1", `["questioning"]`, `[]`, `{}`, 30, submitted))

	rows, err := repo.ExportJoined(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "p1", row.ParticipantID)
	assert.Equal(t, "s1", row.SliceID)
	assert.Equal(t, "c1", row.ConversationID)
	assert.Equal(t, `["questioning"]`, row.InteractionTypes)
	assert.Equal(t, 30, row.AnnotationTimeSeconds)
	assert.Equal(t, submitted, row.SubmittedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJoinedEmptyIsNotNil(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewAnnotationRepository(db, zap.NewNop())

	mock.ExpectQuery(`FROM annotations a`).
		WillReturnRows(sqlmock.NewRows([]string{
			"participant_id", "slice_id", "conversation_id", "interaction_types",
			"curiosity_types", "routing_validation", "annotation_time_seconds", "submitted_at",
		}))

	rows, err := repo.ExportJoined(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}
