package service

import (
	"context"
	"fmt"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/cm-fl-mit/interaction-assess/internal/models"
	"github.com/cm-fl-mit/interaction-assess/internal/repository"
)

// DefaultBatchSize is the number of slices assigned to each participant.
const DefaultBatchSize = 15

// Allocator assigns slice batches to participants, keeping per-slice
// assignment counts balanced across the participant pool. A participant gets
// exactly one batch, ever: repeated requests re-read the committed batch.
type Allocator struct {
	slices      repository.SliceRepository
	assignments repository.AssignmentRepository
	batchSize   int
	logger      *zap.Logger
}

func NewAllocator(slices repository.SliceRepository, assignments repository.AssignmentRepository, batchSize int, logger *zap.Logger) *Allocator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Allocator{
		slices:      slices,
		assignments: assignments,
		batchSize:   batchSize,
		logger:      logger,
	}
}

// ParticipantBatch is the fully hydrated batch returned to a participant.
type ParticipantBatch struct {
	ParticipantID string         `json:"participant_id"`
	Slices        []models.Slice `json:"slices"`
	Total         int            `json:"total"`
}

// AssignmentFor returns the participant's slice batch, allocating one on
// first contact. The response preserves assignment order, not catalog order.
func (a *Allocator) AssignmentFor(ctx context.Context, participantID string) (*ParticipantBatch, error) {
	ids, err := a.assignments.ForParticipant(ctx, participantID)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignments: %w", err)
	}

	if len(ids) == 0 {
		ids, err = a.allocate(ctx, participantID)
		if err != nil {
			return nil, err
		}
	}

	records, err := a.slices.GetByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve slices: %w", err)
	}

	slices := make([]models.Slice, 0, len(ids))
	for _, id := range ids {
		if s, ok := records[id]; ok {
			slices = append(slices, s)
		}
	}

	return &ParticipantBatch{
		ParticipantID: participantID,
		Slices:        slices,
		Total:         len(slices),
	}, nil
}

// allocate computes and commits a fresh batch for a first-time participant.
func (a *Allocator) allocate(ctx context.Context, participantID string) ([]string, error) {
	catalog, err := a.slices.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list slice catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, nil
	}

	// Counts are recomputed from the ledger on every allocation; there is no
	// cached counter to drift out of sync.
	counts, err := a.assignments.CountsBySlice(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read assignment counts: %w", err)
	}

	batch := pickBatch(catalog, counts, a.batchSize)

	won, err := a.assignments.InsertBatch(ctx, participantID, batch)
	if err != nil {
		return nil, fmt.Errorf("failed to commit assignment batch: %w", err)
	}
	if !won {
		// A concurrent first request committed first; its batch is the
		// canonical one for this participant.
		a.logger.Info("Assignment batch lost commit race, re-reading winner",
			zap.String("participant_id", participantID))
		ids, err := a.assignments.ForParticipant(ctx, participantID)
		if err != nil {
			return nil, fmt.Errorf("failed to re-read assignments: %w", err)
		}
		return ids, nil
	}

	a.logger.Info("Assigned new slice batch",
		zap.String("participant_id", participantID),
		zap.Int("batch_size", len(batch)))
	return batch, nil
}

// pickBatch ranks slice ids by ascending assignment count and takes the first
// size ids. Ties break randomly so equal-count slices (usually the untouched
// majority) carry no bias toward low ids.
func pickBatch(catalog []string, counts map[string]int, size int) []string {
	ranked := make([]string, len(catalog))
	copy(ranked, catalog)

	rand.Shuffle(len(ranked), func(i, j int) {
		ranked[i], ranked[j] = ranked[j], ranked[i]
	})
	sort.SliceStable(ranked, func(i, j int) bool {
		return counts[ranked[i]] < counts[ranked[j]]
	})

	if size > len(ranked) {
		size = len(ranked)
	}
	return ranked[:size]
}
