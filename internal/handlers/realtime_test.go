package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubChangeStream struct {
	served chan string
}

func (s *stubChangeStream) Serve(ctx context.Context, uid string, conn *websocket.Conn) {
	s.served <- uid
	conn.Close()
}

func TestConnectUpgradesAndServes(t *testing.T) {
	hub := &stubChangeStream{served: make(chan string, 1)}
	h := NewRealtimeHandlers(&Deps{Hub: hub})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, withUID(r, "uid-1"))
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	select {
	case uid := <-hub.served:
		assert.Equal(t, "uid-1", uid)
	case <-time.After(2 * time.Second):
		t.Fatal("hub was not handed the connection")
	}
}

func TestConnectRejectsForeignOrigin(t *testing.T) {
	hub := &stubChangeStream{served: make(chan string, 1)}
	h := NewRealtimeHandlers(&Deps{Hub: hub, AllowedOrigins: []string{"app.example.com"}})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.Connect(w, withUID(r, "uid-1"))
	}))
	defer srv.Close()

	header := http.Header{"Origin": {"https://evil.example.net"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Empty(t, hub.served)
}

func TestConnectRequiresUpgrade(t *testing.T) {
	hub := &stubChangeStream{served: make(chan string, 1)}
	h := NewRealtimeHandlers(&Deps{Hub: hub})

	rr := httptest.NewRecorder()
	h.Connect(rr, withUID(httptest.NewRequest(http.MethodGet, "/ws", nil), "uid-1"))

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Empty(t, hub.served)
}
