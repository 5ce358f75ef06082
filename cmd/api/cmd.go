package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"golang.org/x/sync/errgroup"

	"github.com/GregMSThompson/ledger-backend/internal/bootstrap"
	"github.com/GregMSThompson/ledger-backend/internal/config"
	"github.com/GregMSThompson/ledger-backend/internal/handlers"
	"github.com/GregMSThompson/ledger-backend/internal/middleware"
	"github.com/GregMSThompson/ledger-backend/internal/realtime"
	"github.com/GregMSThompson/ledger-backend/internal/response"
	"github.com/GregMSThompson/ledger-backend/internal/router"
	"github.com/GregMSThompson/ledger-backend/internal/services"
	"github.com/GregMSThompson/ledger-backend/internal/store"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func exitOnError(message string, err error, log *slog.Logger) {
	if err != nil {
		log.Error(message, "error", err)
		os.Exit(1)
	}
}

func main() {
	// bootstrap
	cfg := config.New()
	bs, err := bootstrap.Run(cfg)
	exitOnError("bootstrap failed", err, bs.Log)
	defer bs.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.ToContext(ctx, bs.Log)

	// stores
	ustore := store.NewUserStore(bs.Firestore)
	tstore := store.NewTransactionStore(bs.Firestore)
	rstore := store.NewReceiptStore(bs.Receipts, cfg.StorageBucket)

	// realtime
	hub := realtime.NewHub(bs.Log)

	// services
	userv := services.NewUserService(ustore)
	rserv := services.NewReceiptService(rstore)
	lserv := services.NewLedgerService(tstore, ustore, rserv, hub, services.LedgerConfig{
		Mode:       cfg.Mode(),
		PageSize:   cfg.PageSize,
		SessionTTL: cfg.SessionTTL,
		SessionMax: cfg.SessionMax,
		Location:   cfg.Location(),
	})

	// response handler
	rh := response.New(bs.Log)

	// dependancies
	deps := new(handlers.Deps)
	deps.Log = bs.Log
	deps.ResponseHandler = rh
	deps.UserSvc = userv
	deps.LedgerSvc = lserv
	deps.ReceiptSvc = rserv
	deps.Hub = hub
	deps.MaxReceiptBytes = cfg.MaxReceiptBytes
	deps.AllowedOrigins = cfg.AllowedOrigins

	// router
	r := router.NewRouter(deps, middleware.NewMiddleware(bs.Firebase))
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return hub.Run(gctx)
	})
	g.Go(func() error {
		ticker := time.NewTicker(cfg.CleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				lserv.CleanupSessions(gctx)
			}
		}
	})
	g.Go(func() error {
		bs.Log.Info("server listening", "port", cfg.Port, "mode", cfg.LedgerMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		bs.Log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	exitOnError("server stopped", g.Wait(), bs.Log)
}
