package models

const (
	EventTypeSegmentUpdated = "call.transcript.segment.updated"
	EventTypeSegmentClosed  = "call.transcript.segment.closed"
)

// SentenceView is one transcript entry as published to viewers and sinks.
type SentenceView struct {
	Index       int      `json:"index"`
	Speaker     Speaker  `json:"speaker"`
	Recognized  string   `json:"recognized"`
	Recognizing string   `json:"recognizing"`
	Important   bool     `json:"important"`
	Score       *float64 `json:"score,omitempty"`
}

// SegmentUpdate is a snapshot of one segment after an event or analysis result was applied.
type SegmentUpdate struct {
	EventType      string         `json:"eventType"`
	ChannelID      string         `json:"channelId"`
	SegmentID      string         `json:"segmentId"`
	Closed         bool           `json:"closed"`
	Sentences      []SentenceView `json:"sentences"`
	Sentiment      *float64       `json:"sentiment,omitempty"`
	SentimentTrack []float64      `json:"sentimentTrack,omitempty"`
	Timestamp      int64          `json:"timestamp"`
}

// SentimentPercent returns the latest smoothed sentiment on a 0-100 scale, or -1 if none.
func (u SegmentUpdate) SentimentPercent() float64 {
	if u.Sentiment == nil {
		return -1
	}
	return *u.Sentiment * 100
}
