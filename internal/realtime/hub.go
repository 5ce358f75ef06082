// Package realtime pushes ledger change events to the owner's open websocket connections.
package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/GregMSThompson/ledger-backend/internal/ledger"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	sendBuffer     = 16
	broadcastQueue = 256
)

// Message is what clients receive for every ledger change.
type Message struct {
	Type  string       `json:"type"`
	Event ledger.Event `json:"event"`
}

type client struct {
	uid  string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans events out to the connections of the event's owner.
type Hub struct {
	log        *slog.Logger
	mu         sync.Mutex
	clients    map[string]map[*client]struct{}
	register   chan *client
	unregister chan *client
	broadcast  chan ledger.Event
	done       chan struct{}
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:        log,
		clients:    make(map[string]map[*client]struct{}),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan ledger.Event, broadcastQueue),
		done:       make(chan struct{}),
	}
}

// Run dispatches until ctx is done, then drops every connection.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return nil
		case c := <-h.register:
			h.mu.Lock()
			if h.clients[c.uid] == nil {
				h.clients[c.uid] = make(map[*client]struct{})
			}
			h.clients[c.uid][c] = struct{}{}
			n := len(h.clients[c.uid])
			h.mu.Unlock()
			h.log.Debug("websocket client connected", "uid", c.uid, "connections", n)
		case c := <-h.unregister:
			h.remove(c)
			h.log.Debug("websocket client disconnected", "uid", c.uid)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

// Publish queues ev without blocking; when the queue is full the event is dropped.
func (h *Hub) Publish(ev ledger.Event) {
	if ev.Owner == "" {
		return
	}
	select {
	case h.broadcast <- ev:
	default:
		h.log.Warn("realtime queue full, dropping event", "uid", ev.Owner, "kind", ev.Kind)
	}
}

// Serve owns conn until the peer goes away or the hub stops.
func (h *Hub) Serve(ctx context.Context, uid string, conn *websocket.Conn) {
	c := &client{uid: uid, conn: conn, send: make(chan []byte, sendBuffer)}

	select {
	case h.register <- c:
	case <-ctx.Done():
		conn.Close()
		return
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)

	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Connections reports how many sockets uid has open.
func (h *Hub) Connections(uid string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[uid])
}

func (h *Hub) deliver(ev ledger.Event) {
	payload, err := json.Marshal(Message{Type: "ledger_update", Event: ev})
	if err != nil {
		h.log.Error("failed to marshal ledger event", "error", err)
		return
	}

	h.mu.Lock()
	var slow []*client
	for c := range h.clients[ev.Owner] {
		select {
		case c.send <- payload:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.Unlock()

	for _, c := range slow {
		h.log.Warn("dropping slow websocket client", "uid", c.uid)
		h.remove(c)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.clients[c.uid]
	if !ok {
		return
	}
	if _, ok := conns[c]; !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.clients, c.uid)
	}
	close(c.send)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for uid, conns := range h.clients {
		for c := range conns {
			close(c.send)
		}
		delete(h.clients, uid)
	}
}

// readPump only handles control frames; clients never send data.
func (h *Hub) readPump(c *client) {
	defer c.conn.Close()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.log.Debug("websocket read failed", "uid", c.uid, "error", err)
			}
			return
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.log.Debug("websocket write failed", "uid", c.uid, "error", err)
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
