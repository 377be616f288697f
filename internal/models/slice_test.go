package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFocusTurnsRoundTrip(t *testing.T) {
	turns := []FocusTurn{{Speaker: "A", Text: "hi"}, {Speaker: "B", Text: "hello"}}

	encoded, err := EncodeFocusTurns(turns)
	require.NoError(t, err)

	decoded, err := DecodeFocusTurns([]byte(encoded))
	require.NoError(t, err)
	assert.Equal(t, turns, decoded)
}

func TestDecodeFocusTurnsEmptyAndNull(t *testing.T) {
	decoded, err := DecodeFocusTurns(nil)
	require.NoError(t, err)
	assert.Equal(t, []FocusTurn{}, decoded)

	decoded, err = DecodeFocusTurns([]byte("null"))
	require.NoError(t, err)
	assert.Equal(t, []FocusTurn{}, decoded)
}

func TestDecodeFocusTurnsMalformed(t *testing.T) {
	_, err := DecodeFocusTurns([]byte("{broken"))
	assert.Error(t, err)
}

func TestDecodePredictions(t *testing.T) {
	preds, err := DecodePredictions([]byte(`{"x":1}`))
	require.NoError(t, err)
	assert.JSONEq(t, `{"x":1}`, string(preds))

	preds, err = DecodePredictions(nil)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(preds))

	_, err = DecodePredictions([]byte("nope}"))
	assert.Error(t, err)
}

func TestEncodeFocusTurnsNil(t *testing.T) {
	encoded, err := EncodeFocusTurns(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", encoded)
}
