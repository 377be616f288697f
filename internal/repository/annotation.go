package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
)

// AnnotationRepository stores submitted annotations. Writes are independent
// of the assignment ledger: nothing enforces that a submission's
// (participant_id, slice_id) pair was ever assigned.
type AnnotationRepository interface {
	Save(ctx context.Context, ann *models.Annotation) error
	// ExportJoined produces denormalized rows joining annotations with
	// assignments and slices (inner join), ordered by participant then
	// submission time. Orphan annotations drop out silently.
	ExportJoined(ctx context.Context) ([]models.ExportRow, error)
	Count(ctx context.Context) (int, error)
}

type annotationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewAnnotationRepository(db *sqlx.DB, logger *zap.Logger) AnnotationRepository {
	return &annotationRepository{db: db, logger: logger}
}

func (r *annotationRepository) Save(ctx context.Context, ann *models.Annotation) error {
	interaction, err := encodeStringList(ann.InteractionTypes)
	if err != nil {
		return fmt.Errorf("failed to encode interaction_types: %w", err)
	}
	curiosity, err := encodeStringList(ann.CuriosityTypes)
	if err != nil {
		return fmt.Errorf("failed to encode curiosity_types: %w", err)
	}

	routing := string(ann.RoutingValidation)
	if routing == "" {
		routing = "{}"
	}

	query := r.db.Rebind(`INSERT INTO annotations (participant_id, slice_id, interaction_types, curiosity_types, routing_validation, annotation_time_seconds, submitted_at)
	          VALUES (?, ?, ?, ?, ?, ?, ?) RETURNING id`)
	err = r.db.QueryRowxContext(ctx, query,
		ann.ParticipantID, ann.SliceID, interaction, curiosity, routing,
		ann.AnnotationTimeSeconds, ann.SubmittedAt).Scan(&ann.ID)
	if err != nil {
		return fmt.Errorf("failed to save annotation: %w", err)
	}

	return nil
}

func (r *annotationRepository) ExportJoined(ctx context.Context) ([]models.ExportRow, error) {
	query := `
		SELECT
			a.participant_id,
			a.slice_id,
			s.conversation_id,
			a.interaction_types,
			a.curiosity_types,
			a.routing_validation,
			a.annotation_time_seconds,
			a.submitted_at
		FROM annotations a
		JOIN assignments g ON g.participant_id = a.participant_id AND g.slice_id = a.slice_id
		JOIN slices s ON s.id = a.slice_id
		ORDER BY a.participant_id, a.submitted_at
	`

	rows, err := r.db.QueryxContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	exported := []models.ExportRow{}
	for rows.Next() {
		var (
			row       models.ExportRow
			curiosity sql.NullString
			routing   sql.NullString
		)
		err := rows.Scan(
			&row.ParticipantID,
			&row.SliceID,
			&row.ConversationID,
			&row.InteractionTypes,
			&curiosity,
			&routing,
			&row.AnnotationTimeSeconds,
			&row.SubmittedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		row.CuriosityTypes = curiosity.String
		row.RoutingValidation = routing.String
		exported = append(exported, row)
	}

	return exported, rows.Err()
}

// encodeStringList stores label sets as JSON arrays; a nil set becomes [].
func encodeStringList(list []string) (string, error) {
	if list == nil {
		list = []string{}
	}
	b, err := json.Marshal(list)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (r *annotationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM annotations`); err != nil {
		return 0, fmt.Errorf("failed to count annotations: %w", err)
	}
	return n, nil
}
