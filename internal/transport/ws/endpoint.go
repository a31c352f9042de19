// Package ws connects websocket clients to relay channels.
package ws

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"live-transcript-service/internal/relay"
)

// Config bounds a single websocket connection.
type Config struct {
	SendQueue       int
	WriteTimeout    time.Duration
	PingInterval    time.Duration
	MaxMessageBytes int64
}

// DefaultConfig returns connection limits suitable for local development.
func DefaultConfig() Config {
	return Config{
		SendQueue:       64,
		WriteTimeout:    10 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageBytes: 64 * 1024,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.SendQueue <= 0 {
		c.SendQueue = d.SendQueue
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = d.WriteTimeout
	}
	if c.PingInterval <= 0 {
		c.PingInterval = d.PingInterval
	}
	if c.MaxMessageBytes <= 0 {
		c.MaxMessageBytes = d.MaxMessageBytes
	}
	return c
}

// Endpoint is a relay member backed by a websocket connection. Deliver queues the
// payload for the write pump and never blocks.
type Endpoint struct {
	id   string
	conn *websocket.Conn
	cfg  Config

	mu     sync.Mutex
	send   chan []byte
	done   chan struct{}
	closed bool
}

// NewEndpoint wraps conn with a fresh endpoint id.
func NewEndpoint(conn *websocket.Conn, cfg Config) *Endpoint {
	cfg = cfg.withDefaults()
	return &Endpoint{
		id:   uuid.NewString(),
		conn: conn,
		cfg:  cfg,
		send: make(chan []byte, cfg.SendQueue),
		done: make(chan struct{}),
	}
}

func (e *Endpoint) ID() string {
	return e.id
}

// Deliver queues payload for writing. A full queue means the client is not keeping up.
func (e *Endpoint) Deliver(payload []byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return relay.ErrEndpointClosed
	}
	select {
	case e.send <- payload:
		return nil
	default:
		return relay.ErrQueueFull
	}
}

// Close stops the write pump, which sends a close frame and closes the connection. Idempotent.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return nil
	}
	e.closed = true
	close(e.done)
	return nil
}

// writePump writes queued payloads and pings until the endpoint is closed or a write fails.
func (e *Endpoint) writePump() {
	ticker := time.NewTicker(e.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		_ = e.Close()
		_ = e.conn.Close()
	}()

	for {
		select {
		case payload := <-e.send:
			_ = e.conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout))
			if err := e.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		case <-ticker.C:
			_ = e.conn.SetWriteDeadline(time.Now().Add(e.cfg.WriteTimeout))
			if err := e.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-e.done:
			_ = e.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(e.cfg.WriteTimeout))
			return
		}
	}
}
