package handlers

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type stubReceiptService struct {
	called      bool
	owner       string
	filename    string
	contentType string
	body        []byte
	url         string
	result      dto.ReceiptUploadResult
	err         error
}

func (s *stubReceiptService) Upload(ctx context.Context, ownerID, filename, contentType string, body io.Reader) (dto.ReceiptUploadResult, error) {
	s.called = true
	s.owner = ownerID
	s.filename = filename
	s.contentType = contentType
	s.body, _ = io.ReadAll(body)
	return s.result, s.err
}

func (s *stubReceiptService) Delete(ctx context.Context, ownerID, rawURL string) error {
	s.called = true
	s.owner = ownerID
	s.url = rawURL
	return s.err
}

func multipartRequest(t *testing.T, field, filename, contentType string, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	hdr := textproto.MIMEHeader{}
	hdr.Set("Content-Disposition", `form-data; name="`+field+`"; filename="`+filename+`"`)
	if contentType != "" {
		hdr.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(hdr)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/receipts", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadReceipt(t *testing.T) {
	svc := &stubReceiptService{result: dto.ReceiptUploadResult{URL: "https://example/receipt", Path: "receipts/uid-1/1_a.pdf"}}
	resp := &stubResponseHandler{}
	h := NewReceiptHandlers(&Deps{ResponseHandler: resp, ReceiptSvc: svc})

	req := multipartRequest(t, "file", "nota.pdf", "application/pdf", []byte("%PDF-1.4 body"))
	h.Upload(httptest.NewRecorder(), withUID(req, "uid-1"))

	require.True(t, svc.called)
	assert.Equal(t, "uid-1", svc.owner)
	assert.Equal(t, "nota.pdf", svc.filename)
	assert.Equal(t, "application/pdf", svc.contentType)
	assert.Equal(t, []byte("%PDF-1.4 body"), svc.body)
	assert.Equal(t, http.StatusCreated, resp.writeSuccessStatus)
	assert.Equal(t, svc.result, resp.writeSuccessData)
}

func TestUploadReceiptSniffsMissingContentType(t *testing.T) {
	svc := &stubReceiptService{}
	resp := &stubResponseHandler{}
	h := NewReceiptHandlers(&Deps{ResponseHandler: resp, ReceiptSvc: svc})

	req := multipartRequest(t, "file", "foto", "application/octet-stream", pngHeader)
	h.Upload(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.Equal(t, "image/png", svc.contentType)
	assert.Equal(t, pngHeader, svc.body)
}

func TestUploadReceiptMissingFile(t *testing.T) {
	svc := &stubReceiptService{}
	resp := &stubResponseHandler{}
	h := NewReceiptHandlers(&Deps{ResponseHandler: resp, ReceiptSvc: svc})

	req := multipartRequest(t, "other", "nota.pdf", "application/pdf", []byte("x"))
	h.Upload(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.False(t, svc.called)
	var ve *errs.ValidationError
	assert.ErrorAs(t, resp.handleError, &ve)
}

func TestUploadReceiptTooLarge(t *testing.T) {
	svc := &stubReceiptService{}
	resp := &stubResponseHandler{}
	h := NewReceiptHandlers(&Deps{ResponseHandler: resp, ReceiptSvc: svc, MaxReceiptBytes: 64})

	req := multipartRequest(t, "file", "nota.pdf", "application/pdf", bytes.Repeat([]byte("a"), 1024))
	h.Upload(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.False(t, svc.called)
	assert.False(t, resp.handleErrorCalled, "oversized upload reported as a missing file")
	assert.Equal(t, http.StatusRequestEntityTooLarge, resp.writeErrorStatus)
	assert.Equal(t, "too_large", resp.writeErrorCode)
}

func TestDeleteReceipt(t *testing.T) {
	svc := &stubReceiptService{}
	resp := &stubResponseHandler{}
	h := NewReceiptHandlers(&Deps{ResponseHandler: resp, ReceiptSvc: svc})

	req := httptest.NewRequest(http.MethodDelete, "/receipts?url=gs%3A%2F%2Fbucket%2Freceipts%2Fuid-1%2Fa.pdf", nil)
	h.Delete(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.Equal(t, "gs://bucket/receipts/uid-1/a.pdf", svc.url)
	assert.True(t, resp.writeSuccessCalled)
}

func TestDeleteReceiptRequiresURL(t *testing.T) {
	svc := &stubReceiptService{}
	resp := &stubResponseHandler{}
	h := NewReceiptHandlers(&Deps{ResponseHandler: resp, ReceiptSvc: svc})

	h.Delete(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodDelete, "/receipts", nil), "uid-1"))

	assert.False(t, svc.called)
	var ve *errs.ValidationError
	assert.ErrorAs(t, resp.handleError, &ve)
}
