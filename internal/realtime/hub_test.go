package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/ledger-backend/internal/ledger"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

func startHub(t *testing.T) (*Hub, *httptest.Server) {
	t.Helper()
	hub := NewHub(logger.New("debug", logger.NewTestHandler))
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = hub.Run(ctx) }()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Serve(r.Context(), r.URL.Query().Get("uid"), conn)
	}))
	t.Cleanup(func() {
		cancel()
		srv.Close()
	})
	return hub, srv
}

func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?uid=" + uid
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	return msg
}

func TestHubDeliversOnlyToOwner(t *testing.T) {
	hub, srv := startHub(t)
	mine := dial(t, srv, "uid-1")
	dial(t, srv, "uid-2")

	require.Eventually(t, func() bool {
		return hub.Connections("uid-1") == 1 && hub.Connections("uid-2") == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(ledger.Event{Kind: ledger.EventAdded, Owner: "uid-2", ID: "other", Version: 1})
	hub.Publish(ledger.Event{Kind: ledger.EventAdded, Owner: "uid-1", ID: "tx-1", Version: 7, Count: 3})

	msg := readMessage(t, mine)
	assert.Equal(t, "ledger_update", msg.Type)
	assert.Equal(t, ledger.EventAdded, msg.Event.Kind)
	assert.Equal(t, "tx-1", msg.Event.ID)
	assert.Equal(t, uint64(7), msg.Event.Version)
	assert.Equal(t, 3, msg.Event.Count)
}

func TestHubUnregistersClosedConnections(t *testing.T) {
	hub, srv := startHub(t)
	conn := dial(t, srv, "uid-1")

	require.Eventually(t, func() bool { return hub.Connections("uid-1") == 1 }, 2*time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return hub.Connections("uid-1") == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestHubIgnoresEventsWithoutOwner(t *testing.T) {
	hub := NewHub(logger.New("", logger.NewTestHandler))
	hub.Publish(ledger.Event{Kind: ledger.EventReset})
	assert.Len(t, hub.broadcast, 0)
}
