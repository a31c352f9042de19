package relay

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"live-transcript-service/internal/observability/logging"
	"live-transcript-service/internal/observability/metrics"
)

// Endpoint is one connected party. Deliver must not block on I/O; implementations queue
// the payload and return an error if they cannot accept it.
type Endpoint interface {
	ID() string
	Deliver(payload []byte) error
	Close() error
}

// Relay broadcasts payloads from a sender to every other receive-capable member of its channel.
// It never inspects or transforms payloads.
type Relay struct {
	registry *Registry
	metrics  *metrics.Metrics
	logger   zerolog.Logger
}

// New creates a relay over the given registry.
func New(registry *Registry, m *metrics.Metrics) *Relay {
	if m == nil {
		m = metrics.DefaultMetrics
	}
	return &Relay{
		registry: registry,
		metrics:  m,
		logger:   logging.WithComponent("relay"),
	}
}

// Registry returns the underlying channel registry.
func (r *Relay) Registry() *Registry {
	return r.registry
}

// Connect registers ep on channelId with the given role. It fails with
// ErrChannelUnavailable for unrecognized channel identifiers, and with ErrAlreadyMember
// when ep is currently a member of a different channel (an endpoint belongs to at most
// one channel). Connecting ep again to its own channel is a no-op.
func (r *Relay) Connect(channelId string, ep Endpoint, role Role) error {
	added, err := r.registry.Add(channelId, ep, role)
	if err != nil {
		return err
	}
	if !added {
		return nil
	}
	r.metrics.RecordConnect(channelId, role.String())
	r.logger.Info().
		Str("channelId", channelId).
		Str("endpointId", ep.ID()).
		Str("role", role.String()).
		Msg("Endpoint connected")
	return nil
}

// Disconnect removes endpointId from channelId. Idempotent.
func (r *Relay) Disconnect(channelId, endpointId string) {
	_, role, ok := r.registry.Remove(channelId, endpointId)
	if !ok {
		return
	}
	r.metrics.RecordDisconnect(channelId, role.String())
	r.logger.Info().
		Str("channelId", channelId).
		Str("endpointId", endpointId).
		Str("role", role.String()).
		Msg("Endpoint disconnected")
}

// Send forwards payload to every receive-capable member of channelId except fromId and
// returns the number of successful deliveries. A failed delivery disconnects and closes
// that member and does not affect the others. The only error is ErrChannelUnavailable.
// Deliver never blocks, so the whole member snapshot is always attempted; a cancelled
// ctx does not cut a broadcast short.
func (r *Relay) Send(_ context.Context, channelId, fromId string, payload []byte) (int, error) {
	if !r.registry.Known(channelId) {
		return 0, ErrChannelUnavailable
	}
	ch, ok := r.registry.Lookup(channelId)
	if !ok {
		return 0, nil
	}

	delivered, failed := 0, 0
	for _, m := range ch.receivers(fromId) {
		if err := m.endpoint.Deliver(payload); err != nil {
			failed++
			r.dropMember(channelId, m, err)
			continue
		}
		delivered++
	}
	r.metrics.RecordDelivery(channelId, delivered, failed)
	return delivered, nil
}

func (r *Relay) dropMember(channelId string, m member, cause error) {
	level := zerolog.WarnLevel
	if errors.Is(cause, ErrEndpointClosed) {
		level = zerolog.DebugLevel
	}
	r.logger.WithLevel(level).
		Err(cause).
		Str("channelId", channelId).
		Str("endpointId", m.endpoint.ID()).
		Msg("Delivery failed, dropping member")

	r.Disconnect(channelId, m.endpoint.ID())
	if err := m.endpoint.Close(); err != nil && !errors.Is(err, ErrEndpointClosed) {
		r.logger.Debug().Err(err).Str("endpointId", m.endpoint.ID()).Msg("Error closing dropped endpoint")
	}
}
