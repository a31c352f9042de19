package ws

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"live-transcript-service/internal/relay"
)

const (
	agentFinal    = `{"type":"recognized","speaker":"agent","result":"How can I help?"}`
	customerFinal = `{"type":"recognized","speaker":"customer","result":"My bill is wrong"}`
)

func newTestServer(t *testing.T) (*relay.Relay, *httptest.Server) {
	t.Helper()
	r := relay.New(relay.NewRegistry("speech"), nil)
	h := NewHandler(r, Config{PingInterval: time.Second, WriteTimeout: time.Second})

	mux := http.NewServeMux()
	mux.HandleFunc("/ws/speech", func(w http.ResponseWriter, req *http.Request) {
		h.Serve(w, req, "speech", relay.RoleBoth)
	})
	mux.HandleFunc("/ws/speech/send", func(w http.ResponseWriter, req *http.Request) {
		h.Serve(w, req, "speech", relay.RoleSend)
	})
	mux.HandleFunc("/ws/speech/recv", func(w http.ResponseWriter, req *http.Request) {
		h.Serve(w, req, "speech", relay.RoleReceive)
	})
	mux.HandleFunc("/ws/nope", func(w http.ResponseWriter, req *http.Request) {
		h.Serve(w, req, "nope", relay.RoleBoth)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return r, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func waitMembers(t *testing.T, r *relay.Relay, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		ch, ok := r.Registry().Lookup("speech")
		return ok && ch.Len() == n
	}, 2*time.Second, 5*time.Millisecond)
}

func readText(t *testing.T, conn *websocket.Conn) string {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	return string(msg)
}

func assertSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(150 * time.Millisecond))
	_, msg, err := conn.ReadMessage()
	assert.Error(t, err, "unexpected frame %s", msg)
}

func TestHandler_SymmetricChannelSkipsSender(t *testing.T) {
	r, srv := newTestServer(t)
	a := dial(t, srv, "/ws/speech")
	b := dial(t, srv, "/ws/speech")
	waitMembers(t, r, 2)

	require.NoError(t, a.WriteMessage(websocket.TextMessage, []byte(agentFinal)))
	assert.Equal(t, agentFinal, readText(t, b), "frames are relayed verbatim")

	require.NoError(t, b.WriteMessage(websocket.TextMessage, []byte(customerFinal)))
	assert.Equal(t, customerFinal, readText(t, a))
	assertSilent(t, b)
}

func TestHandler_MalformedFrameDroppedConnectionKept(t *testing.T) {
	r, srv := newTestServer(t)
	sender := dial(t, srv, "/ws/speech/send")
	viewer := dial(t, srv, "/ws/speech/recv")
	waitMembers(t, r, 2)

	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`{"type":"shout"}`)))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(agentFinal)))

	assert.Equal(t, agentFinal, readText(t, viewer))
	waitMembers(t, r, 2)
}

func TestHandler_SplitTopology(t *testing.T) {
	r, srv := newTestServer(t)
	sender := dial(t, srv, "/ws/speech/send")
	viewer := dial(t, srv, "/ws/speech/recv")
	other := dial(t, srv, "/ws/speech/send")
	waitMembers(t, r, 3)

	// Frames from receive-only endpoints are ignored.
	require.NoError(t, viewer.WriteMessage(websocket.TextMessage, []byte(customerFinal)))
	require.NoError(t, sender.WriteMessage(websocket.TextMessage, []byte(agentFinal)))

	assert.Equal(t, agentFinal, readText(t, viewer))
	assertSilent(t, other)
}

func TestHandler_DisconnectRemovesMember(t *testing.T) {
	r, srv := newTestServer(t)
	a := dial(t, srv, "/ws/speech")
	b := dial(t, srv, "/ws/speech")
	waitMembers(t, r, 2)

	require.NoError(t, a.Close())
	waitMembers(t, r, 1)

	require.NoError(t, b.WriteMessage(websocket.TextMessage, []byte(agentFinal)))
	waitMembers(t, r, 1)
}

func TestHandler_UnknownChannel(t *testing.T) {
	_, srv := newTestServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/nope"

	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestEndpoint_Deliver(t *testing.T) {
	ep := NewEndpoint(nil, Config{SendQueue: 1})
	assert.NotEmpty(t, ep.ID())

	require.NoError(t, ep.Deliver([]byte("a")))
	assert.ErrorIs(t, ep.Deliver([]byte("b")), relay.ErrQueueFull)

	require.NoError(t, ep.Close())
	require.NoError(t, ep.Close())
	assert.ErrorIs(t, ep.Deliver([]byte("c")), relay.ErrEndpointClosed)
}

func TestEndpoint_UniqueIDs(t *testing.T) {
	assert.NotEqual(t, NewEndpoint(nil, Config{}).ID(), NewEndpoint(nil, Config{}).ID())
}
