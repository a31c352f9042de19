package insight

import (
	"context"
	"encoding/json"
	"fmt"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/relay"
)

// RelaySink broadcasts snapshots as JSON to every receiver of a relay channel.
type RelaySink struct {
	relay     *relay.Relay
	channelId string
	fromId    string
}

// NewRelaySink publishes on channelId. fromId is the sender id used for broadcasts and
// is never delivered to.
func NewRelaySink(r *relay.Relay, channelId, fromId string) *RelaySink {
	return &RelaySink{relay: r, channelId: channelId, fromId: fromId}
}

func (s *RelaySink) PublishSegment(ctx context.Context, update models.SegmentUpdate) error {
	payload, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("encode segment update: %w", err)
	}
	_, err = s.relay.Send(ctx, s.channelId, s.fromId, payload)
	return err
}
