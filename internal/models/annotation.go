package models

import (
	"encoding/json"
	"time"
)

// Assignment records the fact that a participant was given a slice. The
// (participant_id, slice_id) pair is unique; assignments are written only by
// the allocator and never updated.
type Assignment struct {
	ParticipantID string    `json:"participant_id" db:"participant_id"`
	SliceID       string    `json:"slice_id" db:"slice_id"`
	AssignedAt    time.Time `json:"assigned_at" db:"assigned_at"`
}

// Annotation is a participant's submitted judgment for one slice.
type Annotation struct {
	ID                    int64           `json:"id" db:"id"`
	ParticipantID         string          `json:"participant_id" db:"participant_id"`
	SliceID               string          `json:"slice_id" db:"slice_id"`
	InteractionTypes      []string        `json:"interaction_types"`
	CuriosityTypes        []string        `json:"curiosity_types"`
	RoutingValidation     json.RawMessage `json:"routing_validation"`
	AnnotationTimeSeconds int             `json:"annotation_time_seconds" db:"annotation_time_seconds"`
	SubmittedAt           time.Time       `json:"submitted_at" db:"submitted_at"`
}

// AnnotationRequest is the POST /api/annotations body. An empty
// interaction_types list is a valid submission; an absent one is not.
type AnnotationRequest struct {
	ParticipantID         string          `json:"participant_id" binding:"required"`
	SliceID               string          `json:"slice_id" binding:"required"`
	InteractionTypes      []string        `json:"interaction_types" binding:"required"`
	CuriosityTypes        []string        `json:"curiosity_types"`
	RoutingValidation     json.RawMessage `json:"routing_validation"`
	AnnotationTimeSeconds int             `json:"annotation_time_seconds" binding:"omitempty,min=0"`
}

// ExportRow is one denormalized line of the CSV export: Annotation joined
// with Assignment and Slice. Structured columns keep their stored serialized
// form.
type ExportRow struct {
	ParticipantID         string    `db:"participant_id"`
	SliceID               string    `db:"slice_id"`
	ConversationID        string    `db:"conversation_id"`
	InteractionTypes      string    `db:"interaction_types"`
	CuriosityTypes        string    `db:"curiosity_types"`
	RoutingValidation     string    `db:"routing_validation"`
	AnnotationTimeSeconds int       `db:"annotation_time_seconds"`
	SubmittedAt           time.Time `db:"submitted_at"`
}
