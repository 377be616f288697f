package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"go.uber.org/zap"
)

// AssignmentRepository is the append-only ledger of (participant, slice)
// pairs. It is the source of truth for per-slice fairness counts.
type AssignmentRepository interface {
	// CountsBySlice returns assignment counts per slice id. Slices that were
	// never assigned do not appear; absence means zero.
	CountsBySlice(ctx context.Context) (map[string]int, error)
	// ForParticipant returns the participant's assigned slice ids in
	// assignment order.
	ForParticipant(ctx context.Context, participantID string) ([]string, error)
	// InsertBatch commits the whole batch for a participant atomically. It
	// reports won=false without error when another request already committed
	// a batch for this participant, leaving the ledger untouched.
	InsertBatch(ctx context.Context, participantID string, sliceIDs []string) (won bool, err error)
}

type assignmentRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAssignmentRepository(db *sqlx.DB, logger *zap.Logger) AssignmentRepository {
	return &assignmentRepository{db: db, logger: logger}
}

func (r *assignmentRepository) CountsBySlice(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryxContext(ctx, `SELECT slice_id, COUNT(*) FROM assignments GROUP BY slice_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query assignment counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			sliceID string
			n       int
		)
		if err := rows.Scan(&sliceID, &n); err != nil {
			return nil, fmt.Errorf("failed to scan assignment count: %w", err)
		}
		counts[sliceID] = n
	}

	return counts, rows.Err()
}

func (r *assignmentRepository) ForParticipant(ctx context.Context, participantID string) ([]string, error) {
	ids := []string{}
	query := r.db.Rebind(`SELECT slice_id FROM assignments WHERE participant_id = ? ORDER BY assigned_at, slice_id`)
	if err := r.db.SelectContext(ctx, &ids, query, participantID); err != nil {
		return nil, fmt.Errorf("failed to query assignments for participant: %w", err)
	}
	return ids, nil
}

func (r *assignmentRepository) InsertBatch(ctx context.Context, participantID string, sliceIDs []string) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	// Pre-check inside the transaction: if any batch already exists for this
	// participant it is canonical and this one is discarded whole.
	var existing int
	precheck := r.db.Rebind(`SELECT COUNT(*) FROM assignments WHERE participant_id = ?`)
	if err := tx.GetContext(ctx, &existing, precheck, participantID); err != nil {
		return false, fmt.Errorf("failed to pre-check assignments: %w", err)
	}
	if existing > 0 {
		return false, nil
	}

	now := time.Now().UTC()
	insert := r.db.Rebind(`INSERT INTO assignments (participant_id, slice_id, assigned_at) VALUES (?, ?, ?)`)
	for _, sliceID := range sliceIDs {
		if _, err := tx.ExecContext(ctx, insert, participantID, sliceID, now); err != nil {
			if isUniqueViolation(err) {
				// A concurrent request won the race between our pre-check and
				// this insert; the rollback discards our partial batch.
				r.logger.Info("Lost assignment batch race",
					zap.String("participant_id", participantID),
					zap.String("slice_id", sliceID))
				return false, nil
			}
			return false, fmt.Errorf("failed to insert assignment: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to commit assignment batch: %w", err)
	}

	return true, nil
}

// isUniqueViolation detects a primary-key conflict on either storage engine.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	// modernc.org/sqlite surfaces constraint errors by message
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
