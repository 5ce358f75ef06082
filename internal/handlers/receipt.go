package handlers

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/middleware"
	"github.com/GregMSThompson/ledger-backend/internal/response"
)

const (
	defaultMaxReceiptBytes = 10 << 20
	sniffLen               = 512
)

type receiptService interface {
	Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (dto.ReceiptUploadResult, error)
	Delete(ctx context.Context, ownerID, rawURL string) error
}

type receiptHandlers struct {
	ResponseHandler response.ResponseHandler
	ReceiptSvc      receiptService
	MaxBytes        int64
}

func NewReceiptHandlers(deps *Deps) *receiptHandlers {
	maxBytes := deps.MaxReceiptBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxReceiptBytes
	}
	return &receiptHandlers{
		ResponseHandler: deps.ResponseHandler,
		ReceiptSvc:      deps.ReceiptSvc,
		MaxBytes:        maxBytes,
	}
}

func (h *receiptHandlers) ReceiptRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/", h.Upload)
	r.Delete("/", h.Delete)
	return r
}

// Upload expects a multipart form with the image or PDF in the "file" field.
func (h *receiptHandlers) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.MaxBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.ResponseHandler.WriteError(w, r, http.StatusRequestEntityTooLarge, "too_large",
				"Comprovante excede o tamanho máximo permitido")
			return
		}
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("Comprovante é obrigatório"))
		return
	}
	defer file.Close()

	body := bufio.NewReaderSize(file, sniffLen)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := body.Peek(sniffLen)
		contentType = http.DetectContentType(head)
	}

	result, err := h.ReceiptSvc.Upload(r.Context(), middleware.UID(r.Context()), header.Filename, contentType, body)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, result)
}

func (h *receiptHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	rawURL := r.URL.Query().Get("url")
	if rawURL == "" {
		h.ResponseHandler.HandleError(w, r, errs.NewValidationError("url is required"))
		return
	}

	if err := h.ReceiptSvc.Delete(r.Context(), middleware.UID(r.Context()), rawURL); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}
