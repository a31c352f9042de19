// Command insightsviewer consumes segment snapshots from Kafka and fans them out to
// browsers over websocket.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"live-transcript-service/internal/relay"
	"live-transcript-service/internal/transport/ws"
)

const viewerChannel = "viewer"

func main() {
	port := flag.String("port", "8081", "HTTP server port")
	brokers := flag.String("brokers", "localhost:9092", "Kafka brokers (comma-separated)")
	topicUpdates := flag.String("topic-updates", "call.transcript.segment.updated", "Segment update topic")
	topicClosed := flag.String("topic-closed", "call.transcript.segment.closed", "Closed segment topic")
	lookback := flag.Duration("lookback", time.Hour, "Replay messages newer than this on start")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	r := relay.New(relay.NewRegistry(viewerChannel), nil)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for _, topic := range []string{*topicUpdates, *topicClosed} {
		reader := newReader(ctx, strings.Split(*brokers, ","), topic, *lookback)
		go forward(ctx, reader, r, topic)
	}

	handler := ws.NewHandler(r, ws.DefaultConfig())
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(indexHTML))
	})
	router.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		handler.Serve(w, req, viewerChannel, relay.RoleReceive)
	})

	server := &http.Server{Addr: ":" + *port, Handler: router, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info().
		Str("addr", "http://localhost:"+*port).
		Str("brokers", *brokers).
		Strs("topics", []string{*topicUpdates, *topicClosed}).
		Msg("Insights viewer starting")
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal().Err(err).Msg("Server error")
	}
}

// newReader reads partition 0 without a consumer group, starting lookback ago.
func newReader(ctx context.Context, brokers []string, topic string, lookback time.Duration) *kafka.Reader {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:   brokers,
		Topic:     topic,
		Partition: 0,
		MinBytes:  1,
		MaxBytes:  10e6,
	})
	if err := reader.SetOffsetAt(ctx, time.Now().Add(-lookback)); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Could not seek, reading from the committed offset")
	}
	return reader
}

const indexHTML = `<!doctype html>
<html>
<head><meta charset="utf-8"><title>Live transcript insights</title></head>
<body>
<h1>Live transcript insights</h1>
<div id="segments"></div>
<script>
const segments = {};
const root = document.getElementById("segments");
const ws = new WebSocket((location.protocol === "https:" ? "wss://" : "ws://") + location.host + "/ws");
ws.onmessage = (msg) => {
  const u = JSON.parse(msg.data);
  let el = segments[u.segmentId];
  if (!el) {
    el = document.createElement("section");
    segments[u.segmentId] = el;
    root.prepend(el);
  }
  const sentiment = u.sentiment == null ? "n/a" : Math.round(u.sentiment * 100) + "%";
  const title = document.createElement("h2");
  title.textContent = u.segmentId + (u.closed ? " (closed)" : "") + " sentiment " + sentiment;
  const list = document.createElement("ul");
  for (const s of u.sentences || []) {
    const li = document.createElement("li");
    if (s.important) {
      li.style.fontWeight = "bold";
    }
    li.append(s.speaker + ": " + (s.recognized || ""));
    if (s.recognizing) {
      const pending = document.createElement("i");
      pending.textContent = s.recognizing;
      li.append(" ", pending);
    }
    list.append(li);
  }
  el.replaceChildren(title, list);
};
</script>
</body>
</html>
`
