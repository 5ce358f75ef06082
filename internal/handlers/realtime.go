package handlers

import (
	"context"
	"net/http"
	"net/url"
	"slices"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/GregMSThompson/ledger-backend/internal/middleware"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

type changeStream interface {
	Serve(ctx context.Context, uid string, conn *websocket.Conn)
}

type realtimeHandlers struct {
	Hub      changeStream
	upgrader websocket.Upgrader
}

func NewRealtimeHandlers(deps *Deps) *realtimeHandlers {
	origins := deps.AllowedOrigins
	return &realtimeHandlers{
		Hub: deps.Hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				// native clients send no origin
				if origin == "" || len(origins) == 0 {
					return true
				}
				u, err := url.Parse(origin)
				if err != nil {
					return false
				}
				return slices.Contains(origins, u.Host) || slices.Contains(origins, origin)
			},
		},
	}
}

func (h *realtimeHandlers) RealtimeRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Connect)
	return r
}

// Connect upgrades the request and streams the caller's ledger events until either side closes.
func (h *realtimeHandlers) Connect(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Warn("websocket upgrade failed", "error", err)
		return
	}
	h.Hub.Serve(r.Context(), middleware.UID(r.Context()), conn)
}
