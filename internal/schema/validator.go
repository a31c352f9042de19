// Package schema decodes and validates inbound transcription frames.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"live-transcript-service/internal/models"
)

// ErrMalformedEvent is returned for frames that are not valid transcription events.
var ErrMalformedEvent = errors.New("malformed transcription event")

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Empty is allowed here; presence is enforced by required_unless.
	_ = v.RegisterValidation("speaker", func(fl validator.FieldLevel) bool {
		switch models.Speaker(fl.Field().String()) {
		case "", models.SpeakerAgent, models.SpeakerCustomer:
			return true
		}
		return false
	})
	return &Validator{validate: v}
}

// Validate checks an already decoded event.
func (v *Validator) Validate(event models.TranscriptionEvent) error {
	if err := v.validate.Struct(event); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	return nil
}

// Decode parses a raw JSON frame and validates it.
func (v *Validator) Decode(raw []byte) (models.TranscriptionEvent, error) {
	var ev models.TranscriptionEvent
	if err := json.Unmarshal(raw, &ev); err != nil {
		return ev, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}
	if err := v.Validate(ev); err != nil {
		return ev, err
	}
	return ev, nil
}
