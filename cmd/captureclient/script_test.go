package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/schema"
)

func TestFrames_PartialsPrecedeFinal(t *testing.T) {
	script := []utterance{{Speaker: models.SpeakerCustomer, Partials: []string{"I", "I want"}, Final: "I want out"}}
	got := frames(script, false)

	require.Len(t, got, 3)
	assert.Equal(t, models.EventRecognizing, got[0].Type)
	assert.Equal(t, "I want", got[1].Result)
	assert.Equal(t, models.TranscriptionEvent{Type: models.EventRecognized, Speaker: models.SpeakerCustomer, Result: "I want out"}, got[2])
}

func TestFrames_TransferReplaysScript(t *testing.T) {
	script := []utterance{{Speaker: models.SpeakerAgent, Final: "hello"}}
	got := frames(script, true)

	require.Len(t, got, 3)
	assert.Equal(t, models.EventTransfer, got[1].Type)
	assert.Equal(t, got[0], got[2])
}

func TestFrames_DefaultScriptIsValid(t *testing.T) {
	v := schema.New()
	for _, ev := range frames(defaultScript, true) {
		assert.NoError(t, v.Validate(ev), "%+v", ev)
	}
}
