package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"live-transcript-service/internal/observability/logging"
	"live-transcript-service/internal/observability/metrics"
	"live-transcript-service/internal/relay"
	"live-transcript-service/internal/schema"
)

// Handler upgrades HTTP requests and joins the resulting connections to relay channels.
type Handler struct {
	relay     *relay.Relay
	validator *schema.Validator
	cfg       Config
	upgrader  websocket.Upgrader
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// NewHandler creates a websocket handler for r.
func NewHandler(r *relay.Relay, cfg Config) *Handler {
	return &Handler{
		relay:     r,
		validator: schema.New(),
		cfg:       cfg.withDefaults(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				return true // Browser viewers are served from other origins
			},
		},
		metrics: metrics.DefaultMetrics,
		logger:  logging.WithComponent("ws"),
	}
}

// Serve upgrades the request and relays frames on channelId with the given role
// until the connection ends. Unknown channels are rejected with 404 before the upgrade.
func (h *Handler) Serve(w http.ResponseWriter, r *http.Request, channelId string, role relay.Role) {
	if !h.relay.Registry().Known(channelId) {
		http.Error(w, "channel not found", http.StatusNotFound)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Str("channelId", channelId).Msg("WebSocket upgrade failed")
		return
	}

	ep := NewEndpoint(conn, h.cfg)
	if err := h.relay.Connect(channelId, ep, role); err != nil {
		h.logger.Error().Err(err).Str("channelId", channelId).Msg("Failed to join channel")
		_ = conn.Close()
		return
	}

	go ep.writePump()
	h.readPump(r.Context(), ep, channelId, role)
}

// readPump validates inbound frames and relays them verbatim. It returns when the
// connection fails or closes, and is the only place membership ends for a live client.
func (h *Handler) readPump(ctx context.Context, ep *Endpoint, channelId string, role relay.Role) {
	logger := logging.WithEndpoint(channelId, ep.ID(), role.String())
	defer func() {
		h.relay.Disconnect(channelId, ep.ID())
		_ = ep.Close()
	}()

	pongWait := 2 * h.cfg.PingInterval
	ep.conn.SetReadLimit(h.cfg.MaxMessageBytes)
	_ = ep.conn.SetReadDeadline(time.Now().Add(pongWait))
	ep.conn.SetPongHandler(func(string) error {
		return ep.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		msgType, raw, err := ep.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseNoStatusReceived) {
				logger.Warn().Err(err).Msg("Connection closed unexpectedly")
			}
			return
		}
		_ = ep.conn.SetReadDeadline(time.Now().Add(pongWait))

		if msgType != websocket.TextMessage {
			continue
		}
		if !role.CanSend() {
			logger.Debug().Msg("Ignoring frame from receive-only endpoint")
			continue
		}
		if _, err := h.validator.Decode(raw); err != nil {
			h.metrics.RecordMalformedFrame(channelId)
			logger.Warn().Err(err).Int("bytes", len(raw)).Msg("Dropping malformed frame")
			continue
		}
		if _, err := h.relay.Send(ctx, channelId, ep.ID(), raw); err != nil {
			logger.Error().Err(err).Msg("Relay send failed")
			return
		}
	}
}
