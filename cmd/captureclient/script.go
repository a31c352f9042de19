package main

import "live-transcript-service/internal/models"

// utterance is one simulated recognition: progressive partials followed by one final.
type utterance struct {
	Speaker  models.Speaker
	Partials []string
	Final    string
}

var defaultScript = []utterance{
	{
		Speaker:  models.SpeakerAgent,
		Partials: []string{"Thanks for", "Thanks for calling", "Thanks for calling how can I"},
		Final:    "Thanks for calling, how can I help you today?",
	},
	{
		Speaker:  models.SpeakerCustomer,
		Partials: []string{"I want", "I want to", "I want to cancel"},
		Final:    "I want to cancel my subscription",
	},
	{
		Speaker:  models.SpeakerCustomer,
		Partials: []string{"I was", "I was charged", "I was charged $40"},
		Final:    "I was charged $40 twice this month",
	},
	{
		Speaker:  models.SpeakerAgent,
		Partials: []string{"Can you", "Can you confirm", "Can you confirm the account"},
		Final:    "Can you confirm the account number for me?",
	},
	{
		Speaker:  models.SpeakerCustomer,
		Partials: []string{"It's", "It's 4 4 7"},
		Final:    "It's 447 812",
	},
	{
		Speaker:  models.SpeakerCustomer,
		Partials: []string{"I've been", "I've been waiting", "I've been waiting for"},
		Final:    "I've been waiting for over an hour",
	},
	{
		Speaker:  models.SpeakerAgent,
		Partials: []string{"I've issued", "I've issued a refund"},
		Final:    "I've issued a refund of 40 dollars to your card",
	},
	{
		Speaker:  models.SpeakerCustomer,
		Partials: []string{"Thank you"},
		Final:    "Thank you very much, that's great",
	},
}

// frames expands a script into the events a capture endpoint would send, in order.
// With transfer set, the call is handed over after the script and the script replays
// into the next segment.
func frames(script []utterance, transfer bool) []models.TranscriptionEvent {
	var out []models.TranscriptionEvent
	emit := func() {
		for _, u := range script {
			for _, p := range u.Partials {
				out = append(out, models.TranscriptionEvent{Type: models.EventRecognizing, Speaker: u.Speaker, Result: p})
			}
			out = append(out, models.TranscriptionEvent{Type: models.EventRecognized, Speaker: u.Speaker, Result: u.Final})
		}
	}
	emit()
	if transfer {
		out = append(out, models.TranscriptionEvent{Type: models.EventTransfer})
		emit()
	}
	return out
}
