// Command captureclient plays a scripted call into a relay channel as a send-only capture endpoint.
package main

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	server := flag.String("server", "ws://localhost:8080", "Relay base URL")
	channel := flag.String("channel", "speech", "Channel to send on")
	interval := flag.Duration("interval", 250*time.Millisecond, "Delay between frames")
	transfer := flag.Bool("transfer", false, "Transfer the call after the script and replay it")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	url := strings.TrimSuffix(*server, "/") + "/ws/" + *channel + "/send"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		log.Fatal().Err(err).Str("url", url).Msg("Failed to connect")
	}
	defer conn.Close()
	log.Info().Str("url", url).Msg("Connected")

	events := frames(defaultScript, *transfer)
	start := time.Now()
	for i, ev := range events {
		if err := conn.WriteJSON(ev); err != nil {
			log.Fatal().Err(err).Int("frame", i).Msg("Failed to send frame")
		}
		log.Debug().Str("type", string(ev.Type)).Str("speaker", string(ev.Speaker)).Str("result", ev.Result).Msg("Sent")
		time.Sleep(*interval)
	}

	_ = conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, "script complete"))
	log.Info().
		Int("frames", len(events)).
		Dur("elapsed", time.Since(start)).
		Msg("Script complete")
}
