package bootstrap

import (
	"context"

	"cloud.google.com/go/storage"
	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
)

func InitFirebase(ctx context.Context, projectID, bucket string) (*firebase.App, error) {
	return firebase.NewApp(ctx, &firebase.Config{
		ProjectID:     projectID,
		StorageBucket: bucket,
	})
}

func InitAuth(ctx context.Context, app *firebase.App) (*auth.Client, error) {
	return app.Auth(ctx)
}

// InitReceiptBucket returns the app's default bucket, the one the client SDKs upload to.
func InitReceiptBucket(ctx context.Context, app *firebase.App) (*storage.BucketHandle, error) {
	client, err := app.Storage(ctx)
	if err != nil {
		return nil, err
	}
	return client.DefaultBucket()
}
