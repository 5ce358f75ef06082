package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/cenkalti/backoff/v4"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const readinessTimeout = 30 * time.Second

func InitFirestore(ctx context.Context, projectID string) (*firestore.Client, error) {
	return firestore.NewClient(ctx, projectID)
}

// WaitForFirestore reads one document until Firestore answers. Permission and argument errors
// are not retried.
func WaitForFirestore(ctx context.Context, client *firestore.Client, log *slog.Logger) error {
	ctx, cancel := context.WithTimeout(ctx, readinessTimeout)
	defer cancel()

	probe := func() error {
		_, err := client.Collection("transactions").Limit(1).Documents(ctx).Next()
		if err == nil || errors.Is(err, iterator.Done) {
			return nil
		}
		switch status.Code(err) {
		case codes.PermissionDenied, codes.Unauthenticated, codes.InvalidArgument:
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		log.Warn("firestore not ready, retrying", "error", err, "wait", wait)
	}

	return backoff.RetryNotify(probe, backoff.WithContext(backoff.NewExponentialBackOff(), ctx), notify)
}
