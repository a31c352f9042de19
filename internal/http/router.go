package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"live-transcript-service/internal/app"
	"live-transcript-service/internal/observability/logging"
	"live-transcript-service/internal/relay"
)

// NewRouter constructs the HTTP router for the service.
func NewRouter(application *app.Application) http.Handler {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logging.WithComponent("http")))
	r.Use(middleware.Recoverer)

	// Health endpoints
	r.Get("/v1/liveness", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/v1/readiness", func(w http.ResponseWriter, _ *http.Request) {
		if !application.Ready() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready"))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	r.Get("/api/version", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{
			"service": application.Cfg.Service.Name,
			"version": application.Version,
		})
	})

	// Relay endpoints. The bare channel path joins as sender and receiver.
	r.Get("/ws/{channel}", serveWS(application, relay.RoleBoth))
	r.Get("/ws/{channel}/send", serveWS(application, relay.RoleSend))
	r.Get("/ws/{channel}/recv", serveWS(application, relay.RoleReceive))

	return r
}

func serveWS(application *app.Application, role relay.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		application.WS.Serve(w, r, chi.URLParam(r, "channel"), role)
	}
}
