// Package models defines the data structures exchanged over the relay and published downstream.
package models

// EventType is the wire name of a transcription event kind.
type EventType string

const (
	// EventRecognizing carries an interim (partial) recognition result.
	EventRecognizing EventType = "recognizing"
	// EventRecognized carries a final recognition result.
	EventRecognized EventType = "recognized"
	// EventTransfer ends the current conversation segment. It has no speaker or result.
	EventTransfer EventType = "transfer"
)

// Speaker identifies who produced an utterance.
type Speaker string

const (
	SpeakerAgent    Speaker = "agent"
	SpeakerCustomer Speaker = "customer"
)

// TranscriptionEvent is the JSON frame sent by capture endpoints and relayed verbatim to viewers.
type TranscriptionEvent struct {
	Type    EventType `json:"type" validate:"required,oneof=recognizing recognized transfer"`
	Speaker Speaker   `json:"speaker,omitempty" validate:"required_unless=Type transfer,speaker"`
	Result  string    `json:"result,omitempty"`
}

// IsFinal reports whether the event is a final recognition result.
func (e TranscriptionEvent) IsFinal() bool {
	return e.Type == EventRecognized
}
