package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"firebase.google.com/go/v4/auth"
	"github.com/stretchr/testify/assert"

	"github.com/GregMSThompson/ledger-backend/internal/handlers"
	"github.com/GregMSThompson/ledger-backend/internal/middleware"
	"github.com/GregMSThompson/ledger-backend/internal/response"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

type stubVerifier struct{}

func (stubVerifier) VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error) {
	if idToken != "good" {
		return nil, errors.New("bad token")
	}
	return &auth.Token{UID: "uid-1", Claims: map[string]any{"email": "maria@example.com"}}, nil
}

func newTestRouter() http.Handler {
	log := logger.New("", logger.NewTestHandler)
	deps := &handlers.Deps{Log: log, ResponseHandler: response.New(log)}
	return NewRouter(deps, middleware.NewMiddleware(stubVerifier{}))
}

func TestHealthzIsPublic(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestLedgerRoutesRequireToken(t *testing.T) {
	paths := []struct{ method, path string }{
		{http.MethodPost, "/session"},
		{http.MethodGet, "/transactions"},
		{http.MethodGet, "/summary"},
		{http.MethodGet, "/users/me"},
		{http.MethodPost, "/receipts"},
	}
	for _, p := range paths {
		t.Run(p.method+" "+p.path, func(t *testing.T) {
			rr := httptest.NewRecorder()
			newTestRouter().ServeHTTP(rr, httptest.NewRequest(p.method, p.path, nil))
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}

func TestInvalidTokenRejected(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/summary", nil)
	req.Header.Set("Authorization", "Bearer nope")
	rr := httptest.NewRecorder()

	newTestRouter().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
