package store

import (
	"context"
	"errors"
	"io"
	"net/http"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"

	"github.com/GregMSThompson/ledger-backend/internal/errs"
)

// DownloadTokenKey is the object metadata key Firebase Storage reads download tokens from.
const DownloadTokenKey = "firebaseStorageDownloadTokens"

type receiptStore struct {
	bucket *storage.BucketHandle
	name   string
}

func NewReceiptStore(bucket *storage.BucketHandle, name string) *receiptStore {
	return &receiptStore{bucket: bucket, name: name}
}

func (s *receiptStore) BucketName() string {
	return s.name
}

// Put writes a new object. Existing objects are never overwritten.
func (s *receiptStore) Put(ctx context.Context, path, contentType, token string, body io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	w := s.bucket.Object(path).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = contentType
	w.Metadata = map[string]string{DownloadTokenKey: token}

	if _, err := io.Copy(w, body); err != nil {
		// Cancelling before Close discards the partial upload.
		cancel()
		_ = w.Close()
		return errs.NewStorageError("failed to upload receipt", false, err)
	}
	if err := w.Close(); err != nil {
		return mapStorageError("failed to upload receipt", err)
	}
	return nil
}

func (s *receiptStore) Remove(ctx context.Context, path string) error {
	if err := s.bucket.Object(path).Delete(ctx); err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) {
			return errs.NewNotFoundError("receipt not found")
		}
		return mapStorageError("failed to delete receipt", err)
	}
	return nil
}

func mapStorageError(message string, err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusPreconditionFailed:
			return errs.NewAlreadyExistsError("receipt already exists")
		case apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError:
			return errs.NewStorageError(message, true, err)
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return errs.NewStorageError(message, true, err)
	}
	return errs.NewStorageError(message, false, err)
}
