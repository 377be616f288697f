package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
)

// SliceRepository is the catalog of annotatable slices. Read-mostly after the
// initial load; BulkReplace is the only write path and resets the whole
// system.
type SliceRepository interface {
	ListIDs(ctx context.Context) ([]string, error)
	GetByIDs(ctx context.Context, ids []string) (map[string]models.Slice, error)
	BulkReplace(ctx context.Context, slices []models.Slice) error
}

type sliceRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewSliceRepository(db *sqlx.DB, logger *zap.Logger) SliceRepository {
	return &sliceRepository{db: db, logger: logger}
}

func (r *sliceRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := []string{}
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM slices`); err != nil {
		return nil, fmt.Errorf("failed to list slice ids: %w", err)
	}
	return ids, nil
}

func (r *sliceRepository) GetByIDs(ctx context.Context, ids []string) (map[string]models.Slice, error) {
	result := make(map[string]models.Slice, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query, args, err := sqlx.In(`SELECT id, conversation_id, context, focus_turns, hybrid_predictions FROM slices WHERE id IN (?)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build slice query: %w", err)
	}

	rows, err := r.db.QueryxContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query slices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			s           models.Slice
			contextText sql.NullString
			turnsRaw    sql.NullString
			predsRaw    sql.NullString
		)
		if err := rows.Scan(&s.ID, &s.ConversationID, &contextText, &turnsRaw, &predsRaw); err != nil {
			return nil, fmt.Errorf("failed to scan slice: %w", err)
		}

		if contextText.Valid {
			s.Context = &contextText.String
		}

		// A malformed stored payload degrades this slice to empty defaults
		// instead of failing the whole read.
		turns, err := models.DecodeFocusTurns([]byte(turnsRaw.String))
		if err != nil {
			r.logger.Warn("Malformed focus_turns payload, substituting empty list",
				zap.String("slice_id", s.ID), zap.Error(err))
			turns = []models.FocusTurn{}
		}
		s.FocusTurns = turns

		preds, err := models.DecodePredictions([]byte(predsRaw.String))
		if err != nil {
			r.logger.Warn("Malformed hybrid_predictions payload, substituting empty object",
				zap.String("slice_id", s.ID), zap.Error(err))
			preds = []byte("{}")
		}
		s.HybridPredictions = preds

		result[s.ID] = s
	}

	return result, rows.Err()
}

// BulkReplace clears annotations, assignments and slices (in that dependency
// order) and inserts the new catalog in a single transaction.
func (r *sliceRepository) BulkReplace(ctx context.Context, slices []models.Slice) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"annotations", "assignments", "slices"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insert := r.db.Rebind(`INSERT INTO slices (id, conversation_id, context, focus_turns, hybrid_predictions) VALUES (?, ?, ?, ?, ?)`)
	for _, s := range slices {
		turns, err := models.EncodeFocusTurns(s.FocusTurns)
		if err != nil {
			return fmt.Errorf("slice %s: %w", s.ID, err)
		}

		preds := string(s.HybridPredictions)
		if preds == "" {
			preds = "{}"
		}

		if _, err := tx.ExecContext(ctx, insert, s.ID, s.ConversationID, s.Context, turns, preds); err != nil {
			return fmt.Errorf("failed to insert slice %s: %w", s.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit catalog replace: %w", err)
	}

	r.logger.Info("Slice catalog replaced", zap.Int("count", len(slices)))
	return nil
}
