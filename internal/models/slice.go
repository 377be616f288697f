package models

import (
	"encoding/json"
	"fmt"
)

// FocusTurn is one highlighted turn within a conversation slice.
type FocusTurn struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Slice is a single annotatable conversation excerpt. Slices are loaded once
// during catalog seeding and never mutated afterwards.
type Slice struct {
	ID                string          `json:"id" db:"id"`
	ConversationID    string          `json:"conversation_id" db:"conversation_id"`
	Context           *string         `json:"context" db:"context"`
	FocusTurns        []FocusTurn     `json:"focus_turns"`
	HybridPredictions json.RawMessage `json:"hybrid_predictions"`
}

// DecodeFocusTurns parses the stored focus_turns payload. Empty input yields
// an empty list.
func DecodeFocusTurns(raw []byte) ([]FocusTurn, error) {
	if len(raw) == 0 {
		return []FocusTurn{}, nil
	}
	var turns []FocusTurn
	if err := json.Unmarshal(raw, &turns); err != nil {
		return nil, fmt.Errorf("failed to decode focus_turns: %w", err)
	}
	if turns == nil {
		turns = []FocusTurn{}
	}
	return turns, nil
}

// DecodePredictions validates the stored hybrid_predictions payload, which is
// passed through to clients unmodified.
func DecodePredictions(raw []byte) (json.RawMessage, error) {
	if len(raw) == 0 {
		return json.RawMessage("{}"), nil
	}
	if !json.Valid(raw) {
		return nil, fmt.Errorf("hybrid_predictions is not valid JSON")
	}
	return json.RawMessage(raw), nil
}

// EncodeFocusTurns serializes focus turns for storage. A nil list is stored
// as an empty array so decoding stays symmetric.
func EncodeFocusTurns(turns []FocusTurn) (string, error) {
	if turns == nil {
		turns = []FocusTurn{}
	}
	b, err := json.Marshal(turns)
	if err != nil {
		return "", fmt.Errorf("failed to encode focus_turns: %w", err)
	}
	return string(b), nil
}
