// Package scheduler runs periodic relay maintenance.
package scheduler

import (
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"live-transcript-service/internal/observability/logging"
	"live-transcript-service/internal/observability/metrics"
	"live-transcript-service/internal/relay"
)

// Scheduler prunes empty relay channels and logs membership on a cron schedule.
type Scheduler struct {
	cron     *cron.Cron
	registry *relay.Registry
	schedule string
	metrics  *metrics.Metrics
	logger   zerolog.Logger
	mu       sync.Mutex
	started  bool
}

// New creates a scheduler for registry. schedule is a cron spec such as "@every 1m".
func New(registry *relay.Registry, schedule string) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		registry: registry,
		schedule: schedule,
		metrics:  metrics.DefaultMetrics,
		logger:   logging.WithComponent("scheduler"),
	}
}

// Start registers the maintenance job and starts the cron runner.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() { s.RunOnce() }); err != nil {
		return fmt.Errorf("register prune job %q: %w", s.schedule, err)
	}
	s.cron.Start()
	s.started = true
	s.logger.Info().Str("schedule", s.schedule).Msg("Scheduler started")
	return nil
}

// Stop stops the cron runner and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	<-s.cron.Stop().Done()
	s.started = false
	s.logger.Info().Msg("Scheduler stopped")
}

// RunOnce prunes empty channels and logs the remaining membership. It returns the
// number of channels pruned.
func (s *Scheduler) RunOnce() int {
	pruned := s.registry.Prune()
	if pruned > 0 {
		s.metrics.RecordChannelsPruned(pruned)
	}

	stats := s.registry.Stats()
	evt := s.logger.Debug().Int("pruned", pruned).Int("channels", len(stats))
	for id, n := range stats {
		evt = evt.Int("members."+id, n)
	}
	evt.Msg("Relay maintenance")
	return pruned
}
