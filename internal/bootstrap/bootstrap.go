package bootstrap

import (
	"context"
	"log/slog"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/storage"
	"firebase.google.com/go/v4/auth"

	"github.com/GregMSThompson/ledger-backend/internal/config"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

type Bootstrap struct {
	Log       *slog.Logger
	Firestore *firestore.Client
	Firebase  *auth.Client
	Receipts  *storage.BucketHandle
}

func Run(cfg *config.Config) (*Bootstrap, error) {
	var err error
	applicationCtx := context.Background()
	bs := new(Bootstrap)

	bs.Log = logger.New(cfg.LogLevel, logger.NewCloudRunHandler)
	if err = cfg.Validate(); err != nil {
		return bs, err
	}

	bs.Firestore, err = InitFirestore(applicationCtx, cfg.ProjectID)
	if err != nil {
		return bs, err
	}
	if err = WaitForFirestore(applicationCtx, bs.Firestore, bs.Log); err != nil {
		return bs, err
	}

	app, err := InitFirebase(applicationCtx, cfg.ProjectID, cfg.StorageBucket)
	if err != nil {
		return bs, err
	}
	bs.Firebase, err = InitAuth(applicationCtx, app)
	if err != nil {
		return bs, err
	}
	bs.Receipts, err = InitReceiptBucket(applicationCtx, app)
	if err != nil {
		return bs, err
	}

	bs.Log.Info("bootstrap complete", "project", cfg.ProjectID, "bucket", cfg.StorageBucket, "mode", cfg.LedgerMode)
	return bs, nil
}

func (bs *Bootstrap) Close() error {
	if bs.Firestore == nil {
		return nil
	}
	return bs.Firestore.Close()
}
