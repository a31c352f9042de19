package schema

import (
	"errors"
	"testing"

	"live-transcript-service/internal/models"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		want    models.TranscriptionEvent
	}{
		{"partial", `{"type":"recognizing","speaker":"agent","result":"hello"}`, false,
			models.TranscriptionEvent{Type: models.EventRecognizing, Speaker: models.SpeakerAgent, Result: "hello"}},
		{"final empty result", `{"type":"recognized","speaker":"customer","result":""}`, false,
			models.TranscriptionEvent{Type: models.EventRecognized, Speaker: models.SpeakerCustomer}},
		{"transfer", `{"type":"transfer"}`, false,
			models.TranscriptionEvent{Type: models.EventTransfer}},
		{"not json", `hello`, true, models.TranscriptionEvent{}},
		{"unknown type", `{"type":"shout","speaker":"agent"}`, true, models.TranscriptionEvent{}},
		{"missing type", `{"speaker":"agent","result":"x"}`, true, models.TranscriptionEvent{}},
		{"missing speaker", `{"type":"recognized","result":"x"}`, true, models.TranscriptionEvent{}},
		{"unknown speaker", `{"type":"recognizing","speaker":"robot","result":"x"}`, true, models.TranscriptionEvent{}},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := v.Decode([]byte(tt.raw))
			if tt.wantErr {
				if !errors.Is(err, ErrMalformedEvent) {
					t.Fatalf("expected ErrMalformedEvent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Decode() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
