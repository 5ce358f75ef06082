package services

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

const (
	receiptPrefix       = "receipts"
	firebaseStorageHost = "firebasestorage.googleapis.com"
	gcsHost             = "storage.googleapis.com"
)

var receiptExtensions = map[string]string{
	"image/jpeg":      ".jpg",
	"image/png":       ".png",
	"image/heic":      ".heic",
	"image/webp":      ".webp",
	"application/pdf": ".pdf",
}

type receiptBlobStore interface {
	Put(ctx context.Context, path, contentType, token string, body io.Reader) error
	Remove(ctx context.Context, path string) error
	BucketName() string
}

type receiptService struct {
	store    receiptBlobStore
	now      func() time.Time
	newToken func() string
}

func NewReceiptService(store receiptBlobStore) *receiptService {
	return &receiptService{
		store:    store,
		now:      time.Now,
		newToken: uuid.NewString,
	}
}

// Upload stores body under receipts/{ownerID}/{unixMillis}_{suffix}{ext} and returns the
// Firebase download URL for it.
func (s *receiptService) Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (dto.ReceiptUploadResult, error) {
	log := logger.FromContext(ctx)

	if ownerID == "" {
		return dto.ReceiptUploadResult{}, errs.NewSessionError("no active session")
	}
	mediaType, err := receiptMediaType(contentType)
	if err != nil {
		return dto.ReceiptUploadResult{}, err
	}

	objectPath := fmt.Sprintf("%s/%s/%d_%s%s",
		receiptPrefix, ownerID, s.now().UnixMilli(), randomSuffix(), receiptExtension(filename, mediaType))
	token := s.newToken()

	if err := s.store.Put(ctx, objectPath, mediaType, token, body); err != nil {
		log.Error("failed to upload receipt", "path", objectPath, "error", err)
		return dto.ReceiptUploadResult{}, err
	}

	log.Info("receipt uploaded", "path", objectPath, "content_type", mediaType)
	return dto.ReceiptUploadResult{
		URL:  downloadURL(s.store.BucketName(), objectPath, token),
		Path: objectPath,
	}, nil
}

// Delete removes the object behind a URL previously returned by Upload. Only objects under the
// owner's own prefix can be deleted.
func (s *receiptService) Delete(ctx context.Context, ownerID, rawURL string) error {
	log := logger.FromContext(ctx)

	objectPath, err := s.ownedObjectPath(ownerID, rawURL)
	if err != nil {
		return err
	}

	if err := s.store.Remove(ctx, objectPath); err != nil {
		log.Error("failed to delete receipt", "path", objectPath, "error", err)
		return err
	}
	log.Info("receipt deleted", "path", objectPath)
	return nil
}

// Validate reports whether rawURL points at a receipt the owner may attach to a transaction.
func (s *receiptService) Validate(ownerID, rawURL string) error {
	_, err := s.ownedObjectPath(ownerID, rawURL)
	return err
}

// ---- Helpers ----

func (s *receiptService) ownedObjectPath(ownerID, rawURL string) (string, error) {
	if ownerID == "" {
		return "", errs.NewSessionError("no active session")
	}
	bucket, objectPath, err := parseReceiptURL(rawURL)
	if err != nil {
		return "", err
	}
	if bucket != s.store.BucketName() {
		return "", errs.NewValidationError("receipt belongs to another bucket")
	}
	if !strings.HasPrefix(objectPath, receiptPrefix+"/"+ownerID+"/") {
		return "", errs.NewValidationError("receipt does not belong to the current user")
	}
	return objectPath, nil
}

func receiptMediaType(contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", errs.NewValidationError("invalid receipt content type")
	}
	if strings.HasPrefix(mediaType, "image/") || mediaType == "application/pdf" {
		return mediaType, nil
	}
	return "", errs.NewValidationError("receipts must be an image or a PDF")
}

func receiptExtension(filename, mediaType string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if len(ext) > 1 && len(ext) <= 6 && isAlnum(ext[1:]) {
		return ext
	}
	return receiptExtensions[mediaType]
}

func isAlnum(s string) bool {
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func randomSuffix() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:10]
}

func downloadURL(bucket, objectPath, token string) string {
	return fmt.Sprintf("https://%s/v0/b/%s/o/%s?alt=media&token=%s",
		firebaseStorageHost, bucket, url.PathEscape(objectPath), url.QueryEscape(token))
}

// parseReceiptURL accepts Firebase download URLs, gs:// URIs and storage.googleapis.com URLs.
func parseReceiptURL(raw string) (bucket, objectPath string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || raw == "" {
		return "", "", errs.NewValidationError("invalid receipt url")
	}

	switch {
	case u.Scheme == "gs":
		bucket, objectPath = u.Host, strings.TrimPrefix(u.Path, "/")
	case u.Host == firebaseStorageHost:
		rest, ok := strings.CutPrefix(u.EscapedPath(), "/v0/b/")
		if !ok {
			return "", "", errs.NewValidationError("invalid receipt url")
		}
		b, escaped, ok := strings.Cut(rest, "/o/")
		if !ok {
			return "", "", errs.NewValidationError("invalid receipt url")
		}
		p, err := url.PathUnescape(escaped)
		if err != nil {
			return "", "", errs.NewValidationError("invalid receipt url")
		}
		bucket, objectPath = b, p
	case u.Host == gcsHost:
		b, p, ok := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		if !ok {
			return "", "", errs.NewValidationError("invalid receipt url")
		}
		bucket, objectPath = b, p
	default:
		return "", "", errs.NewValidationError("unsupported receipt url")
	}

	if bucket == "" || objectPath == "" || path.Clean(objectPath) != objectPath {
		return "", "", errs.NewValidationError("invalid receipt url")
	}
	return bucket, objectPath, nil
}
