// Package insight turns the relayed transcription stream of a channel into ranked,
// sentiment-scored segment snapshots and publishes them to the configured sinks.
package insight

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/observability/logging"
	"live-transcript-service/internal/observability/metrics"
	"live-transcript-service/internal/relay"
	"live-transcript-service/internal/schema"
	"live-transcript-service/internal/service/analysis"
	"live-transcript-service/internal/service/rank"
	"live-transcript-service/internal/service/segment"
)

// Publisher receives every snapshot the pipeline produces.
type Publisher interface {
	PublishSegment(ctx context.Context, update models.SegmentUpdate) error
}

// Config configures one pipeline.
type Config struct {
	// ChannelID is the speech channel the pipeline listens on.
	ChannelID string
	// Provider labels analysis metrics.
	Provider        string
	AnalysisTimeout time.Duration
	InboxSize       int
}

// Pipeline is a receive-only relay member. Frames are applied to the segmenter in arrival
// order by the goroutine running Run; key phrase and sentiment analysis run on a separate
// worker so slow analysis never backs up the inbox. All segment state is guarded by mu.
type Pipeline struct {
	cfg       Config
	relay     *relay.Relay
	analyzer  analysis.Analyzer
	validator *schema.Validator
	sinks     []Publisher
	inbox     *relay.Queue
	metrics   *metrics.Metrics
	logger    zerolog.Logger

	mu        sync.Mutex
	segmenter *segment.Segmenter
	// pendingRank is the segment awaiting a re-rank; later finals coalesce into one run.
	pendingRank *segment.Segment
	// pendingSentiment holds finalized customer sentences in finalization order.
	pendingSentiment []sentimentJob
	wake             chan struct{}
}

type sentimentJob struct {
	seg      *segment.Segment
	sentence int
}

// New creates a pipeline for cfg.ChannelID. It does not join the channel until Run.
func New(cfg Config, r *relay.Relay, analyzer analysis.Analyzer, gen *segment.Generator, sinks ...Publisher) *Pipeline {
	if cfg.AnalysisTimeout <= 0 {
		cfg.AnalysisTimeout = 5 * time.Second
	}
	if cfg.InboxSize <= 0 {
		cfg.InboxSize = 256
	}
	if cfg.Provider == "" {
		cfg.Provider = analysis.ProviderMock
	}
	p := &Pipeline{
		cfg:       cfg,
		relay:     r,
		analyzer:  analyzer,
		validator: schema.New(),
		segmenter: segment.NewSegmenter(cfg.ChannelID, gen),
		sinks:     sinks,
		metrics:   metrics.DefaultMetrics,
		logger:    logging.WithChannel(cfg.ChannelID).With().Str("component", "insight").Logger(),
		wake:      make(chan struct{}, 1),
	}
	p.metrics.RecordSegmentOpened()
	return p
}

// ID is the pipeline's endpoint id on the relay.
func (p *Pipeline) ID() string {
	return "insight-" + p.cfg.ChannelID
}

func (p *Pipeline) join() error {
	p.inbox = relay.NewQueue(p.ID(), p.cfg.InboxSize)
	return p.relay.Connect(p.cfg.ChannelID, p.inbox, relay.RoleReceive)
}

// Run joins the channel and processes frames until ctx is done. If the relay drops
// the pipeline because its inbox overflowed, it rejoins with a fresh inbox.
func (p *Pipeline) Run(ctx context.Context) error {
	if err := p.join(); err != nil {
		return err
	}
	p.logger.Info().Str("endpointId", p.ID()).Msg("Insight pipeline started")

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		p.analyzeLoop(ctx)
	}()
	defer func() {
		p.relay.Disconnect(p.cfg.ChannelID, p.ID())
		_ = p.inbox.Close()
		wg.Wait()
		p.logger.Info().Msg("Insight pipeline stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-p.inbox.Messages():
			if !ok {
				p.logger.Error().Msg("Inbox overflowed and was closed by relay, rejoining")
				if err := p.join(); err != nil {
					return err
				}
				continue
			}
			_ = p.Handle(ctx, raw)
		}
	}
}

// Handle applies one raw frame, publishes the resulting snapshot and queues analysis.
// It never waits on the analyzer. Malformed frames are dropped and reported.
func (p *Pipeline) Handle(ctx context.Context, raw []byte) error {
	ev, err := p.validator.Decode(raw)
	if err != nil {
		p.metrics.RecordMalformedFrame(p.cfg.ChannelID)
		p.logger.Warn().Err(err).Msg("Dropping malformed frame")
		return err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	out := p.segmenter.Apply(ev)
	if !out.Applied {
		p.metrics.RecordSuppressed(string(ev.Type))
		p.logger.Debug().Str("type", string(ev.Type)).Str("speaker", string(ev.Speaker)).Msg("Event carried no new information")
		return nil
	}

	if out.Closed != nil {
		p.metrics.RecordSegmentClosed()
		p.metrics.RecordSegmentOpened()
		// Analysis still queued for the closed segment is abandoned.
		p.pendingRank = nil
		p.pendingSentiment = nil
		logger := logging.WithSegment(p.cfg.ChannelID, out.Closed.ID())
		logger.Info().
			Int("sentences", out.Closed.Len()).
			Str("nextSegmentId", p.segmenter.Current().ID()).
			Msg("Segment closed by transfer")
		p.publish(ctx, out.Closed.Snapshot(p.cfg.ChannelID))
		p.publish(ctx, p.segmenter.Current().Snapshot(p.cfg.ChannelID))
		return nil
	}

	seg := p.segmenter.Current()
	if out.Finalized {
		p.metrics.RecordFinal(string(ev.Speaker))
	}
	if out.Rank {
		p.pendingRank = seg
	}
	if out.Sentiment {
		p.queueSentiment(seg, out.Sentence)
	}
	p.publish(ctx, seg.Snapshot(p.cfg.ChannelID))

	if out.Rank || out.Sentiment {
		select {
		case p.wake <- struct{}{}:
		default:
		}
	}
	return nil
}

// queueSentiment adds a sentence unless it is already queued; the text is read when
// the job runs, so a sentence that grew meanwhile is scored once at its latest text.
func (p *Pipeline) queueSentiment(seg *segment.Segment, sentence int) {
	for _, job := range p.pendingSentiment {
		if job.seg == seg && job.sentence == sentence {
			return
		}
	}
	p.pendingSentiment = append(p.pendingSentiment, sentimentJob{seg: seg, sentence: sentence})
}

func (p *Pipeline) analyzeLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.wake:
			for ctx.Err() == nil && p.analyzePending(ctx) {
			}
		}
	}
}

// analyzePending runs the queued analysis once and applies the results to segments that
// are still open, publishing a fresh snapshot. It reports whether anything was queued.
func (p *Pipeline) analyzePending(ctx context.Context) bool {
	p.mu.Lock()
	rankSeg := p.pendingRank
	p.pendingRank = nil
	jobs := p.pendingSentiment
	p.pendingSentiment = nil

	var (
		text       string
		candidates []rank.Candidate
	)
	if rankSeg != nil {
		text = rankSeg.TranscriptText()
		candidates = rankSeg.Candidates()
	}
	texts := make([]string, len(jobs))
	for i, job := range jobs {
		texts[i] = job.seg.Sentence(job.sentence).Final
	}
	p.mu.Unlock()

	if rankSeg == nil && len(jobs) == 0 {
		return false
	}

	var ranking *rank.Result
	if rankSeg != nil && text != "" {
		ranking = p.rank(ctx, rankSeg, text, candidates)
	}
	raws := make([]*float64, len(jobs))
	for i, job := range jobs {
		raws[i] = p.scoreSentiment(ctx, job.seg, texts[i])
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	current := p.segmenter.Current()
	changed := false
	if ranking != nil && rankSeg == current {
		current.ApplyRanking(*ranking)
		p.metrics.RecordRanking(len(ranking.Highlighted()))
		changed = true
	}
	for i, job := range jobs {
		if raws[i] == nil || job.seg != current {
			continue
		}
		pt := current.RecordSentiment(job.sentence, *raws[i])
		p.metrics.RecordSentiment()
		logger := logging.WithSegment(p.cfg.ChannelID, current.ID())
		logger.Debug().
			Int("sentence", job.sentence).
			Float64("raw", *raws[i]).
			Float64("smoothed", pt.Smoothed).
			Msg("Sentiment updated")
		changed = true
	}
	if changed {
		p.publish(ctx, current.Snapshot(p.cfg.ChannelID))
	}
	return true
}

// rank extracts key phrases for text and ranks candidates. It returns nil on analysis
// failure, leaving the previous ranking in place.
func (p *Pipeline) rank(ctx context.Context, seg *segment.Segment, text string, candidates []rank.Candidate) *rank.Result {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AnalysisTimeout)
	defer cancel()
	start := time.Now()
	phrases, err := p.analyzer.KeyPhrases(actx, text)
	p.metrics.RecordAnalysis(p.cfg.Provider, "keyPhrases", err, time.Since(start).Seconds())
	if err != nil {
		logger := logging.WithSegment(p.cfg.ChannelID, seg.ID())
		logger.Warn().Err(err).Msg("Key phrase extraction failed, keeping previous ranking")
		return nil
	}
	res := rank.Rank(candidates, phrases)
	return &res
}

// scoreSentiment returns the raw sentiment of a finalized customer sentence, or nil on failure.
func (p *Pipeline) scoreSentiment(ctx context.Context, seg *segment.Segment, text string) *float64 {
	actx, cancel := context.WithTimeout(ctx, p.cfg.AnalysisTimeout)
	defer cancel()
	start := time.Now()
	raw, err := p.analyzer.Sentiment(actx, text)
	p.metrics.RecordAnalysis(p.cfg.Provider, "sentiment", err, time.Since(start).Seconds())
	if err != nil {
		logger := logging.WithSegment(p.cfg.ChannelID, seg.ID())
		logger.Warn().Err(err).Msg("Sentiment scoring failed, keeping previous value")
		return nil
	}
	return &raw
}

func (p *Pipeline) publish(ctx context.Context, update models.SegmentUpdate) {
	for _, sink := range p.sinks {
		if err := sink.PublishSegment(ctx, update); err != nil && !errors.Is(err, context.Canceled) {
			p.logger.Warn().Err(err).Str("segmentId", update.SegmentID).Msg("Failed to publish segment update")
		}
	}
}
