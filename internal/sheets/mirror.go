package sheets

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
)

// Config holds the spreadsheet mirror settings.
type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	WriteRange      string
}

// Mirror appends annotation rows to a Google spreadsheet. It is strictly
// best-effort: callers treat Append errors as advisory.
type Mirror struct {
	svc           *gsheets.Service
	spreadsheetID string
	writeRange    string
	logger        *zap.Logger
}

func NewMirror(ctx context.Context, cfg Config, logger *zap.Logger) (*Mirror, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is not configured")
	}

	svc, err := gsheets.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gsheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	writeRange := cfg.WriteRange
	if writeRange == "" {
		writeRange = "Sheet1!A1"
	}

	logger.Info("Sheets mirror initialized", zap.String("spreadsheet_id", cfg.SpreadsheetID))

	return &Mirror{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		writeRange:    writeRange,
		logger:        logger,
	}, nil
}

// Append writes one annotation as a spreadsheet row.
func (m *Mirror) Append(ctx context.Context, ann *models.Annotation) error {
	row := []interface{}{
		ann.ParticipantID,
		ann.SliceID,
		strings.Join(ann.InteractionTypes, ", "),
		strings.Join(ann.CuriosityTypes, ", "),
		string(ann.RoutingValidation),
		ann.AnnotationTimeSeconds,
		ann.SubmittedAt.Format(time.RFC3339),
	}

	vr := &gsheets.ValueRange{Values: [][]interface{}{row}}
	_, err := m.svc.Spreadsheets.Values.Append(m.spreadsheetID, m.writeRange, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("failed to append row to spreadsheet: %w", err)
	}

	return nil
}
