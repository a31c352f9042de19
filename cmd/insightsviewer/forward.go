package main

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"live-transcript-service/internal/models"
	"live-transcript-service/internal/relay"
)

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// forward relays every decodable segment snapshot from reader to the viewer channel
// until ctx is done.
func forward(ctx context.Context, reader messageReader, r *relay.Relay, topic string) {
	defer reader.Close()
	logger := log.With().Str("topic", topic).Logger()
	logger.Info().Msg("Consuming")

	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Warn().Err(err).Msg("Kafka read error")
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}

		var update models.SegmentUpdate
		if err := json.Unmarshal(msg.Value, &update); err != nil {
			logger.Warn().Err(err).Msg("Skipping undecodable message")
			continue
		}

		n, err := r.Send(ctx, viewerChannel, "kafka-"+topic, msg.Value)
		if err != nil {
			logger.Error().Err(err).Msg("Viewer channel unavailable")
			return
		}
		logger.Debug().
			Str("segmentId", update.SegmentID).
			Int("sentences", len(update.Sentences)).
			Bool("closed", update.Closed).
			Int("viewers", n).
			Msg("Forwarded")
	}
}
