package segment

import (
	"strings"
	"time"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/service/rank"
	"live-transcript-service/internal/service/sentiment"
)

// Sentence is one speaker's contiguous utterance within a segment.
type Sentence struct {
	Index       int
	Speaker     models.Speaker
	Final       string
	InProgress  string
	Highlighted bool
	Score       *float64
}

// Segment is an ordered run of sentences delimited by transfer events.
// Sentences are append-only and addressed by index.
type Segment struct {
	id        string
	state     State
	openedAt  time.Time
	closedAt  time.Time
	sentences []Sentence
	sentiment sentiment.Track
}

func newSegment(id string) *Segment {
	return &Segment{
		id:       id,
		state:    StateOpen,
		openedAt: time.Now(),
	}
}

func (s *Segment) ID() string {
	return s.id
}

func (s *Segment) State() State {
	return s.state
}

func (s *Segment) Closed() bool {
	return s.state.IsTerminal()
}

func (s *Segment) OpenedAt() time.Time {
	return s.openedAt
}

// ClosedAt is zero while the segment is open.
func (s *Segment) ClosedAt() time.Time {
	return s.closedAt
}

func (s *Segment) Len() int {
	return len(s.sentences)
}

// Sentence returns a copy of the sentence at index i.
func (s *Segment) Sentence(i int) Sentence {
	return s.sentences[i]
}

// Sentences returns a copy of all sentences in transcript order.
func (s *Segment) Sentences() []Sentence {
	out := make([]Sentence, len(s.sentences))
	copy(out, s.sentences)
	return out
}

func (s *Segment) add(speaker models.Speaker, final, inProgress string) int {
	i := len(s.sentences)
	s.sentences = append(s.sentences, Sentence{
		Index:       i,
		Speaker:     speaker,
		Final:       final,
		InProgress:  inProgress,
		Highlighted: true,
	})
	return i
}

func (s *Segment) close() error {
	if s.state.IsTerminal() {
		return ErrSegmentClosed
	}
	for i := range s.sentences {
		s.sentences[i].InProgress = ""
	}
	s.state = StateClosed
	s.closedAt = time.Now()
	return nil
}

// Candidates returns the finalized sentences for ranking.
func (s *Segment) Candidates() []rank.Candidate {
	out := make([]rank.Candidate, 0, len(s.sentences))
	for _, sn := range s.sentences {
		if sn.Final == "" {
			continue
		}
		out = append(out, rank.Candidate{Index: sn.Index, Text: sn.Final})
	}
	return out
}

// ApplyRanking stores scores and highlight flags. Sentences absent from the result keep theirs.
func (s *Segment) ApplyRanking(res rank.Result) {
	for _, sc := range res.Sentences {
		if sc.Index < 0 || sc.Index >= len(s.sentences) {
			continue
		}
		score := sc.Score
		s.sentences[sc.Index].Score = &score
		s.sentences[sc.Index].Highlighted = sc.Highlighted
	}
}

// TranscriptText joins the non-empty final texts with newlines.
func (s *Segment) TranscriptText() string {
	parts := make([]string, 0, len(s.sentences))
	for _, sn := range s.sentences {
		if sn.Final != "" {
			parts = append(parts, sn.Final)
		}
	}
	return strings.Join(parts, "\n")
}

// RecordSentiment smooths a raw score for the given sentence into the segment's track.
func (s *Segment) RecordSentiment(sentence int, raw float64) sentiment.Point {
	return s.sentiment.Observe(sentence, raw)
}

// SentimentTrack returns the smoothed values in order.
func (s *Segment) SentimentTrack() []float64 {
	return s.sentiment.Values()
}

// Snapshot renders the segment for publishing. Sentences left with no text (partials
// abandoned by an empty final, or cleared by a transfer) are omitted; views keep their
// segment index.
func (s *Segment) Snapshot(channelId string) models.SegmentUpdate {
	views := make([]models.SentenceView, 0, len(s.sentences))
	for _, sn := range s.sentences {
		if sn.Final == "" && sn.InProgress == "" {
			continue
		}
		view := models.SentenceView{
			Index:       sn.Index,
			Speaker:     sn.Speaker,
			Recognized:  sn.Final,
			Recognizing: sn.InProgress,
			Important:   sn.Highlighted,
		}
		if sn.Score != nil {
			score := *sn.Score
			view.Score = &score
		}
		views = append(views, view)
	}

	eventType := models.EventTypeSegmentUpdated
	if s.Closed() {
		eventType = models.EventTypeSegmentClosed
	}
	update := models.SegmentUpdate{
		EventType: eventType,
		ChannelID: channelId,
		SegmentID: s.id,
		Closed:    s.Closed(),
		Sentences: views,
		Timestamp: time.Now().UnixMilli(),
	}
	if latest, ok := s.sentiment.Latest(); ok {
		update.Sentiment = &latest
		update.SentimentTrack = s.sentiment.Values()
	}
	return update
}

// Outcome describes what applying one event changed.
type Outcome struct {
	// Applied is false when the event carried no new information and was dropped.
	Applied bool
	// Sentence is the index of the touched sentence, or -1.
	Sentence int
	// Finalized is set when final text was committed.
	Finalized bool
	// Rank requests re-ranking of the current segment.
	Rank bool
	// Sentiment requests smoothing of the finalized customer sentence.
	Sentiment bool
	// Closed is the segment ended by a transfer.
	Closed *Segment
}

// Segmenter is the per-channel state machine Open(segment) -> Open(newSegment).
// Not safe for concurrent use; one goroutine owns it.
type Segmenter struct {
	channelId string
	gen       *Generator
	current   *Segment
	// open maps a speaker to the index of its sentence still receiving text.
	open map[models.Speaker]int
}

// NewSegmenter creates a segmenter with an empty open segment.
func NewSegmenter(channelId string, gen *Generator) *Segmenter {
	if gen == nil {
		gen = New()
	}
	return &Segmenter{
		channelId: channelId,
		gen:       gen,
		current:   newSegment(gen.Next(channelId)),
		open:      make(map[models.Speaker]int),
	}
}

// Current returns the open segment.
func (s *Segmenter) Current() *Segment {
	return s.current
}

func (s *Segmenter) ChannelId() string {
	return s.channelId
}

// Apply folds one event into the open segment.
func (s *Segmenter) Apply(ev models.TranscriptionEvent) Outcome {
	switch ev.Type {
	case models.EventRecognizing:
		return s.partial(ev.Speaker, ev.Result)
	case models.EventRecognized:
		return s.final(ev.Speaker, ev.Result)
	case models.EventTransfer:
		return s.transfer()
	default:
		return Outcome{Sentence: -1}
	}
}

// entry finds the sentence the speaker is currently writing to. A speaker owning the
// last sentence of the segment continues it.
func (s *Segmenter) entry(speaker models.Speaker) (int, bool) {
	if i, ok := s.open[speaker]; ok {
		return i, true
	}
	if n := len(s.current.sentences); n > 0 && s.current.sentences[n-1].Speaker == speaker {
		return n - 1, true
	}
	return -1, false
}

func (s *Segmenter) partial(speaker models.Speaker, text string) Outcome {
	seg := s.current
	i, ok := s.entry(speaker)
	switch {
	case !ok && text == "":
		return Outcome{Sentence: -1}
	case !ok:
		i = seg.add(speaker, "", text)
	case seg.sentences[i].InProgress == text:
		return Outcome{Sentence: -1}
	default:
		seg.sentences[i].InProgress = text
	}
	s.open[speaker] = i
	return Outcome{Applied: true, Sentence: i}
}

func (s *Segmenter) final(speaker models.Speaker, text string) Outcome {
	seg := s.current
	i, ok := s.entry(speaker)
	if text == "" && (!ok || seg.sentences[i].InProgress == "") {
		return Outcome{Sentence: -1}
	}

	if !ok {
		i = seg.add(speaker, text, "")
	} else {
		sn := &seg.sentences[i]
		switch {
		case text == "":
		case sn.Final == "":
			sn.Final = text
		default:
			sn.Final += " " + text
		}
		sn.InProgress = ""
	}
	delete(s.open, speaker)

	return Outcome{
		Applied:   true,
		Sentence:  i,
		Finalized: true,
		Rank:      true,
		Sentiment: speaker == models.SpeakerCustomer && seg.sentences[i].Final != "",
	}
}

func (s *Segmenter) transfer() Outcome {
	prev := s.current
	_ = prev.close()
	s.current = newSegment(s.gen.Next(s.channelId))
	clear(s.open)
	return Outcome{Applied: true, Sentence: -1, Closed: prev}
}
