package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/GregMSThompson/ledger-backend/internal/handlers"
	"github.com/GregMSThompson/ledger-backend/internal/middleware"
)

func NewRouter(deps *handlers.Deps, auth *middleware.Middleware) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggerMiddleware(deps.Log).LoggerMiddleware)
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ush := handlers.NewUserHandlers(deps)
	lgh := handlers.NewLedgerHandlers(deps)
	rch := handlers.NewReceiptHandlers(deps)
	rth := handlers.NewRealtimeHandlers(deps)

	r.Group(func(r chi.Router) {
		r.Use(auth.FirebaseAuth)
		r.Mount("/users", ush.UserRoutes())
		r.Mount("/receipts", rch.ReceiptRoutes())
		r.Mount("/ws", rth.RealtimeRoutes())
		r.Mount("/", lgh.LedgerRoutes())
	})
	return r
}
