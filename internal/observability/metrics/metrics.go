// Package metrics provides Prometheus metrics for observability.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "live_transcript"

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// Connection metrics
	ConnectionsTotal  *prometheus.CounterVec
	ConnectionsActive *prometheus.GaugeVec

	// Relay metrics
	EventsRelayed     *prometheus.CounterVec
	DeliveryFailures  *prometheus.CounterVec
	MalformedFrames   *prometheus.CounterVec
	ChannelsPruned    prometheus.Counter
	GRPCStreamsActive prometheus.Gauge
	GRPCRequests      *prometheus.CounterVec

	// Segment metrics
	SegmentsOpened     prometheus.Counter
	SegmentsClosed     prometheus.Counter
	SentencesFinalized *prometheus.CounterVec
	EventsSuppressed   *prometheus.CounterVec

	// Analysis metrics
	RankingsTotal      prometheus.Counter
	HighlightsSelected prometheus.Histogram
	SentimentUpdates   prometheus.Counter
	AnalysisLatency    *prometheus.HistogramVec
	AnalysisErrors     *prometheus.CounterVec

	// Kafka publish metrics
	KafkaPublishTotal   *prometheus.CounterVec
	KafkaPublishErrors  *prometheus.CounterVec
	KafkaPublishLatency *prometheus.HistogramVec

	// Archive metrics
	ArchiveWrites *prometheus.CounterVec
}

// DefaultMetrics is the global metrics instance.
var DefaultMetrics = NewMetrics()

// NewMetrics creates and registers all Prometheus metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		ConnectionsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connections_total",
			Help:      "Total number of relay endpoints connected",
		}, []string{"channel", "role"}),
		ConnectionsActive: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connections_active",
			Help:      "Number of currently connected relay endpoints",
		}, []string{"channel", "role"}),

		EventsRelayed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_relayed_total",
			Help:      "Total number of per-member deliveries performed by the relay",
		}, []string{"channel"}),
		DeliveryFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "delivery_failures_total",
			Help:      "Total number of failed deliveries treated as implicit disconnects",
		}, []string{"channel"}),
		MalformedFrames: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "malformed_frames_total",
			Help:      "Total number of inbound frames dropped as malformed",
		}, []string{"channel"}),
		ChannelsPruned: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channels_pruned_total",
			Help:      "Total number of empty channel member sets pruned",
		}),
		GRPCStreamsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "grpc_streams_active",
			Help:      "Number of currently active gRPC streams",
		}),
		GRPCRequests: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "grpc_requests_total",
			Help:      "Total number of gRPC calls by method and status code",
		}, []string{"method", "code"}),

		SegmentsOpened: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_opened_total",
			Help:      "Total number of transcript segments opened",
		}),
		SegmentsClosed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "segments_closed_total",
			Help:      "Total number of transcript segments closed by a transfer",
		}),
		SentencesFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentences_finalized_total",
			Help:      "Total number of final recognition events applied",
		}, []string{"speaker"}),
		EventsSuppressed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_suppressed_total",
			Help:      "Total number of recognition events dropped as carrying no new information",
		}, []string{"type"}),

		RankingsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rankings_total",
			Help:      "Total number of highlight rankings applied",
		}),
		HighlightsSelected: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "highlights_selected",
			Help:      "Number of sentences highlighted per ranking",
			Buckets:   []float64{1, 2, 5, 10, 20, 50, 100},
		}),
		SentimentUpdates: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sentiment_updates_total",
			Help:      "Total number of smoothed sentiment values recorded",
		}),
		AnalysisLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "analysis_latency_seconds",
			Help:      "External analysis call latency in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"provider", "operation"}),
		AnalysisErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analysis_errors_total",
			Help:      "Total number of external analysis failures (update skipped)",
		}, []string{"provider", "operation"}),

		KafkaPublishTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_total",
			Help:      "Total number of Kafka messages published",
		}, []string{"topic", "event_type"}),
		KafkaPublishErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kafka_publish_errors_total",
			Help:      "Total number of Kafka publish errors",
		}, []string{"topic", "event_type"}),
		KafkaPublishLatency: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "kafka_publish_latency_seconds",
			Help:      "Kafka publish latency in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"topic"}),

		ArchiveWrites: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "archive_writes_total",
			Help:      "Total number of closed segments written to the archive",
		}, []string{"result"}),
	}
}

// RecordConnect records an endpoint joining a channel.
func (m *Metrics) RecordConnect(channel, role string) {
	m.ConnectionsTotal.WithLabelValues(channel, role).Inc()
	m.ConnectionsActive.WithLabelValues(channel, role).Inc()
}

// RecordDisconnect records an endpoint leaving a channel.
func (m *Metrics) RecordDisconnect(channel, role string) {
	m.ConnectionsActive.WithLabelValues(channel, role).Dec()
}

// RecordDelivery records deliveries performed by one broadcast.
func (m *Metrics) RecordDelivery(channel string, delivered, failed int) {
	m.EventsRelayed.WithLabelValues(channel).Add(float64(delivered))
	if failed > 0 {
		m.DeliveryFailures.WithLabelValues(channel).Add(float64(failed))
	}
}

// RecordMalformedFrame records an inbound frame dropped during validation.
func (m *Metrics) RecordMalformedFrame(channel string) {
	m.MalformedFrames.WithLabelValues(channel).Inc()
}

// RecordChannelsPruned records pruned empty channels.
func (m *Metrics) RecordChannelsPruned(n int) {
	m.ChannelsPruned.Add(float64(n))
}

// RecordGRPCCall records a completed unary or streaming gRPC call.
func (m *Metrics) RecordGRPCCall(method, code string) {
	m.GRPCRequests.WithLabelValues(method, code).Inc()
}

// RecordStreamStart records a gRPC stream being opened.
func (m *Metrics) RecordStreamStart() {
	m.GRPCStreamsActive.Inc()
}

// RecordStreamEnd records a gRPC stream ending.
func (m *Metrics) RecordStreamEnd() {
	m.GRPCStreamsActive.Dec()
}

// RecordSegmentOpened records a new open segment.
func (m *Metrics) RecordSegmentOpened() {
	m.SegmentsOpened.Inc()
}

// RecordSegmentClosed records a segment closed by transfer.
func (m *Metrics) RecordSegmentClosed() {
	m.SegmentsClosed.Inc()
}

// RecordFinal records a final recognition event for a speaker.
func (m *Metrics) RecordFinal(speaker string) {
	m.SentencesFinalized.WithLabelValues(speaker).Inc()
}

// RecordSuppressed records an event dropped by the suppression rule.
func (m *Metrics) RecordSuppressed(eventType string) {
	m.EventsSuppressed.WithLabelValues(eventType).Inc()
}

// RecordRanking records an applied ranking and its highlight count.
func (m *Metrics) RecordRanking(highlighted int) {
	m.RankingsTotal.Inc()
	m.HighlightsSelected.Observe(float64(highlighted))
}

// RecordSentiment records a new smoothed sentiment value.
func (m *Metrics) RecordSentiment() {
	m.SentimentUpdates.Inc()
}

// RecordAnalysis records one external analysis call.
func (m *Metrics) RecordAnalysis(provider, operation string, err error, latencySeconds float64) {
	m.AnalysisLatency.WithLabelValues(provider, operation).Observe(latencySeconds)
	if err != nil {
		m.AnalysisErrors.WithLabelValues(provider, operation).Inc()
	}
}

// RecordKafkaPublish records a Kafka publish attempt.
func (m *Metrics) RecordKafkaPublish(topic, eventType string, err error, latencySeconds float64) {
	m.KafkaPublishTotal.WithLabelValues(topic, eventType).Inc()
	m.KafkaPublishLatency.WithLabelValues(topic).Observe(latencySeconds)
	if err != nil {
		m.KafkaPublishErrors.WithLabelValues(topic, eventType).Inc()
	}
}

// RecordArchiveWrite records a closed-segment archive write.
func (m *Metrics) RecordArchiveWrite(err error) {
	if err != nil {
		m.ArchiveWrites.WithLabelValues("error").Inc()
		return
	}
	m.ArchiveWrites.WithLabelValues("ok").Inc()
}
