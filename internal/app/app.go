package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	grpcapi "live-transcript-service/internal/api/grpc"
	"live-transcript-service/internal/config"
	"live-transcript-service/internal/events"
	"live-transcript-service/internal/observability/logging"
	"live-transcript-service/internal/observability/metrics"
	"live-transcript-service/internal/relay"
	"live-transcript-service/internal/scheduler"
	"live-transcript-service/internal/service/analysis"
	"live-transcript-service/internal/service/insight"
	"live-transcript-service/internal/service/segment"
	"live-transcript-service/internal/store"
	"live-transcript-service/internal/transport/ws"
)

// Application holds process-wide state for the service.
type Application struct {
	StartupTime time.Time
	Logger      zerolog.Logger
	Cfg         *config.Configuration
	Version     string

	Relay     *relay.Relay
	WS        *ws.Handler
	Analyzer  analysis.Analyzer
	Publisher *events.Publisher
	Archive   *store.Archive
	Pipeline  *insight.Pipeline
	Scheduler *scheduler.Scheduler
	GRPC      *grpcapi.Server

	ready  atomic.Bool
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a new Application from the provided configuration.
func New(cfg *config.Configuration, version string) (*Application, error) {
	format := cfg.Observability.LogFormat
	if os.Getenv("ENV") == "dev" && os.Getenv("LOG_FORMAT") == "" {
		format = "console"
	}
	logging.Init(logging.Config{
		Level:      cfg.Observability.LogLevel,
		Format:     format,
		File:       cfg.Observability.LogFile,
		MaxSizeMB:  cfg.Observability.LogMaxSizeMB,
		MaxBackups: cfg.Observability.LogMaxBackups,
		MaxAgeDays: cfg.Observability.LogMaxAgeDays,
	})

	a := &Application{
		Cfg:     cfg,
		Version: version,
		Logger: logging.WithComponent("application").With().
			Str("service", cfg.Service.Name).
			Logger(),
	}

	analyzer, err := analysis.New(cfg.Analysis)
	if err != nil {
		return nil, fmt.Errorf("create analyzer: %w", err)
	}
	a.Analyzer = analyzer

	channels := append([]string(nil), cfg.Relay.Channels...)
	channels = appendMissing(channels, cfg.Relay.SpeechChannel, cfg.Relay.InsightsChannel)
	a.Relay = relay.New(relay.NewRegistry(channels...), metrics.DefaultMetrics)

	a.WS = ws.NewHandler(a.Relay, ws.Config{
		SendQueue:       cfg.Relay.SendQueueSize,
		WriteTimeout:    cfg.Relay.WriteTimeout,
		PingInterval:    cfg.Relay.PingInterval,
		MaxMessageBytes: cfg.Relay.MaxMessageBytes,
	})

	a.Publisher = events.New(&events.Config{
		Enabled:      cfg.Kafka.Enabled,
		Brokers:      cfg.Kafka.Brokers,
		TopicUpdates: cfg.Kafka.TopicUpdates,
		TopicClosed:  cfg.Kafka.TopicClosed,
		Principal:    firstNonEmpty(cfg.Kafka.Principal, cfg.Service.Principal),
	})

	pipelineCfg := insight.Config{
		ChannelID:       cfg.Relay.SpeechChannel,
		Provider:        cfg.Analysis.Provider,
		AnalysisTimeout: cfg.Analysis.Timeout,
	}
	sinks := []insight.Publisher{
		insight.NewRelaySink(a.Relay, cfg.Relay.InsightsChannel, "insight-"+cfg.Relay.SpeechChannel),
		a.Publisher,
	}
	if cfg.Archive.Path != "" {
		archive, err := store.Open(cfg.Archive.Path)
		if err != nil {
			_ = a.Publisher.Close()
			return nil, fmt.Errorf("open archive: %w", err)
		}
		a.Archive = archive
		sinks = append(sinks, archive)
	}
	a.Pipeline = insight.New(pipelineCfg, a.Relay, analyzer, segment.New(), sinks...)

	if cfg.Observability.PruneSchedule != "" {
		a.Scheduler = scheduler.New(a.Relay.Registry(), cfg.Observability.PruneSchedule)
	}
	a.GRPC = grpcapi.New(":"+cfg.Service.GRPCPort, metrics.DefaultMetrics)

	a.Logger.Info().
		Strs("channels", channels).
		Str("speechChannel", cfg.Relay.SpeechChannel).
		Str("insightsChannel", cfg.Relay.InsightsChannel).
		Str("analysisProvider", cfg.Analysis.Provider).
		Bool("kafka", cfg.Kafka.Enabled).
		Bool("archive", a.Archive != nil).
		Msg("Live transcript service application created")
	return a, nil
}

// Start launches the insight pipeline, the maintenance scheduler and the gRPC server.
func (a *Application) Start(ctx context.Context) error {
	startLogger := a.Logger.With().
		Str("method", "Start").
		Logger()

	if a.Scheduler != nil {
		if err := a.Scheduler.Start(); err != nil {
			return err
		}
	}
	if err := a.GRPC.Start(); err != nil {
		return fmt.Errorf("start grpc server: %w", err)
	}

	runCtx, cancel := context.WithCancel(ctx)
	a.cancel = cancel
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		if err := a.Pipeline.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
			startLogger.Error().Err(err).Msg("Insight pipeline stopped")
			a.ready.Store(false)
		}
	}()

	a.StartupTime = time.Now().UTC()
	a.ready.Store(true)
	startLogger.Info().
		Time("startupTime", a.StartupTime).
		Str("version", a.Version).
		Msg("Live transcript service started")
	return nil
}

// Ready reports whether the service is accepting traffic.
func (a *Application) Ready() bool {
	return a.ready.Load()
}

// Shutdown performs a best-effort cleanup before process exit.
func (a *Application) Shutdown() {
	shutdownLogger := a.Logger.With().
		Str("method", "Shutdown").
		Logger()

	a.ready.Store(false)
	a.GRPC.Stop()
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	if err := a.Publisher.Close(); err != nil {
		shutdownLogger.Warn().Err(err).Msg("Closing Kafka publisher failed")
	}
	if a.Archive != nil {
		if err := a.Archive.Close(); err != nil {
			shutdownLogger.Warn().Err(err).Msg("Closing archive failed")
		}
	}
	shutdownLogger.Info().Msg("Live transcript service shut down")
}

func appendMissing(list []string, ids ...string) []string {
	for _, id := range ids {
		if id != "" && !slices.Contains(list, id) {
			list = append(list, id)
		}
	}
	return list
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
