package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"live-transcript-service/internal/observability/metrics"
)

func TestHandler(t *testing.T) {
	ready := false
	h := Handler(func() bool { return ready })
	metrics.DefaultMetrics.RecordMalformedFrame("speech")

	tests := []struct {
		name     string
		path     string
		ready    bool
		wantCode int
		wantBody string
	}{
		{"health", "/healthz", false, http.StatusOK, "ok"},
		{"not ready", "/readyz", false, http.StatusServiceUnavailable, "not ready"},
		{"ready", "/readyz", true, http.StatusOK, "ready"},
		{"metrics", "/metrics", true, http.StatusOK, "live_transcript_malformed_frames_total"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ready = tt.ready
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.True(t, strings.Contains(rec.Body.String(), tt.wantBody), rec.Body.String())
		})
	}
}

func TestHandler_NilReady(t *testing.T) {
	rec := httptest.NewRecorder()
	Handler(nil).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
