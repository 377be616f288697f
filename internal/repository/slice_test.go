package repository

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
)

var sliceColumns = []string{"id", "conversation_id", "context", "focus_turns", "hybrid_predictions"}

func TestGetByIDsDecodesStoredPayloads(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSliceRepository(db, zap.NewNop())

	mock.ExpectQuery(`SELECT id, conversation_id, context, focus_turns, hybrid_predictions FROM slices WHERE id IN`).
		WithArgs("s1").
		WillReturnRows(sqlmock.NewRows(sliceColumns).
			AddRow("s1", "c1", "some context", `[{"speaker":"A","text":"hi"}]`, `{"x":1}`))

	result, err := repo.GetByIDs(context.Background(), []string{"s1"})
	require.NoError(t, err)
	require.Contains(t, result, "s1")

	s := result["s1"]
	assert.Equal(t, "c1", s.ConversationID)
	require.NotNil(t, s.Context)
	assert.Equal(t, "some context", *s.Context)
	assert.Equal(t, []models.FocusTurn{{Speaker: "A", Text: "hi"}}, s.FocusTurns)
	assert.JSONEq(t, `{"x":1}`, string(s.HybridPredictions))
}

func TestGetByIDsDegradesMalformedPayloads(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSliceRepository(db, zap.NewNop())

	mock.ExpectQuery(`FROM slices WHERE id IN`).
		WithArgs("bad").
		WillReturnRows(sqlmock.NewRows(sliceColumns).
			AddRow("bad", "c1", nil, `{not json`, `also not json`))

	result, err := repo.GetByIDs(context.Background(), []string{"bad"})
	require.NoError(t, err, "a malformed slice must not fail the read")
	require.Contains(t, result, "bad")

	s := result["bad"]
	assert.Nil(t, s.Context)
	assert.Equal(t, []models.FocusTurn{}, s.FocusTurns)
	assert.Equal(t, json.RawMessage("{}"), s.HybridPredictions)
}

func TestGetByIDsMissingIDsAreAbsent(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSliceRepository(db, zap.NewNop())

	mock.ExpectQuery(`FROM slices WHERE id IN`).
		WithArgs("s1", "gone").
		WillReturnRows(sqlmock.NewRows(sliceColumns).
			AddRow("s1", "c1", nil, `[]`, `{}`))

	result, err := repo.GetByIDs(context.Background(), []string{"s1", "gone"})
	require.NoError(t, err)
	assert.Contains(t, result, "s1")
	assert.NotContains(t, result, "gone")
}

func TestGetByIDsEmptyInput(t *testing.T) {
	db, _ := newMockDB(t)
	repo := NewSliceRepository(db, zap.NewNop())

	result, err := repo.GetByIDs(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestBulkReplaceClearsDependentsFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewSliceRepository(db, zap.NewNop())

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM annotations`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM assignments`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`DELETE FROM slices`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO slices`).
		WithArgs("s1", "c1", nil, `[{"speaker":"A","text":"hi"}]`, `{"x":1}`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.BulkReplace(context.Background(), []models.Slice{{
		ID:                "s1",
		ConversationID:    "c1",
		FocusTurns:        []models.FocusTurn{{Speaker: "A", Text: "hi"}},
		HybridPredictions: json.RawMessage(`{"x":1}`),
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
