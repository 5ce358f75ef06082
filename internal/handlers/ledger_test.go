package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/internal/response"
	"github.com/GregMSThompson/ledger-backend/pkg/helpers"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

type stubLedgerService struct {
	calls      []string
	uid        string
	id         string
	month, typ string
	hidden     bool
	createReq  dto.CreateTransactionRequest
	updateReq  dto.UpdateTransactionRequest
	view       dto.LedgerView
	months     []string
	tx         models.Transaction
	summary    dto.SummaryResponse
	err        error
}

func (s *stubLedgerService) record(name, uid string) {
	s.calls = append(s.calls, name)
	s.uid = uid
}

func (s *stubLedgerService) SignIn(ctx context.Context, uid string) (dto.LedgerView, error) {
	s.record("SignIn", uid)
	return s.view, s.err
}

func (s *stubLedgerService) SignOut(ctx context.Context, uid string) {
	s.record("SignOut", uid)
}

func (s *stubLedgerService) List(ctx context.Context, uid, month, typ string) (dto.LedgerView, error) {
	s.record("List", uid)
	s.month, s.typ = month, typ
	return s.view, s.err
}

func (s *stubLedgerService) LoadMore(ctx context.Context, uid, month, typ string) (dto.LedgerView, error) {
	s.record("LoadMore", uid)
	s.month, s.typ = month, typ
	return s.view, s.err
}

func (s *stubLedgerService) Months(ctx context.Context, uid string) ([]string, error) {
	s.record("Months", uid)
	return s.months, s.err
}

func (s *stubLedgerService) AddTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (models.Transaction, error) {
	s.record("AddTransaction", uid)
	s.createReq = req
	return s.tx, s.err
}

func (s *stubLedgerService) UpdateTransaction(ctx context.Context, uid, id string, req dto.UpdateTransactionRequest) (models.Transaction, error) {
	s.record("UpdateTransaction", uid)
	s.id = id
	s.updateReq = req
	return s.tx, s.err
}

func (s *stubLedgerService) DeleteTransaction(ctx context.Context, uid, id string) error {
	s.record("DeleteTransaction", uid)
	s.id = id
	return s.err
}

func (s *stubLedgerService) Summary(ctx context.Context, uid string, hidden bool) (dto.SummaryResponse, error) {
	s.record("Summary", uid)
	s.hidden = hidden
	return s.summary, s.err
}

func newLedgerHandlers(svc *stubLedgerService) (*ledgerHandlers, *stubResponseHandler) {
	resp := &stubResponseHandler{}
	return NewLedgerHandlers(&Deps{ResponseHandler: resp, LedgerSvc: svc}), resp
}

func TestSignIn(t *testing.T) {
	svc := &stubLedgerService{view: dto.LedgerView{State: "ready", HasMore: true}}
	h, resp := newLedgerHandlers(svc)

	req := withUID(httptest.NewRequest(http.MethodPost, "/session", nil), "uid-1")
	h.SignIn(httptest.NewRecorder(), req)

	assert.Equal(t, "uid-1", svc.uid)
	assert.Equal(t, http.StatusOK, resp.writeSuccessStatus)
	assert.Equal(t, svc.view, resp.writeSuccessData)
}

func TestSignOut(t *testing.T) {
	svc := &stubLedgerService{}
	h, resp := newLedgerHandlers(svc)

	req := withUID(httptest.NewRequest(http.MethodDelete, "/session", nil), "uid-1")
	h.SignOut(httptest.NewRecorder(), req)

	assert.Equal(t, []string{"SignOut"}, svc.calls)
	assert.True(t, resp.writeSuccessCalled)
}

func TestListTransactionsPassesFilter(t *testing.T) {
	svc := &stubLedgerService{}
	h, resp := newLedgerHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/transactions?month=Novembro&type=deposit", nil)
	h.ListTransactions(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.Equal(t, "Novembro", svc.month)
	assert.Equal(t, "deposit", svc.typ)
	assert.True(t, resp.writeSuccessCalled)
}

func TestListTransactionsWithoutSession(t *testing.T) {
	svc := &stubLedgerService{err: errs.NewSessionError("no active session")}
	h, resp := newLedgerHandlers(svc)

	req := httptest.NewRequest(http.MethodGet, "/transactions", nil)
	h.ListTransactions(httptest.NewRecorder(), withUID(req, "uid-1"))

	require.True(t, resp.handleErrorCalled)
	var se *errs.SessionError
	assert.ErrorAs(t, resp.handleError, &se)
	assert.False(t, resp.writeSuccessCalled)
}

func TestLoadMore(t *testing.T) {
	svc := &stubLedgerService{view: dto.LedgerView{Total: 20}}
	h, resp := newLedgerHandlers(svc)

	req := httptest.NewRequest(http.MethodPost, "/transactions/more?type=All", nil)
	h.LoadMore(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.Equal(t, []string{"LoadMore"}, svc.calls)
	assert.Equal(t, "All", svc.typ)
	assert.Equal(t, svc.view, resp.writeSuccessData)
}

func TestMonths(t *testing.T) {
	svc := &stubLedgerService{months: []string{"Novembro", "Outubro"}}
	h, resp := newLedgerHandlers(svc)

	h.Months(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/transactions/months", nil), "uid-1"))

	assert.Equal(t, map[string][]string{"months": {"Novembro", "Outubro"}}, resp.writeSuccessData)
}

func TestAddTransaction(t *testing.T) {
	svc := &stubLedgerService{tx: models.Transaction{ID: "tx-1", Amount: 150}}
	h, resp := newLedgerHandlers(svc)

	body := `{"type":"deposit","amount":"150,00","description":"Salário"}`
	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body))
	h.AddTransaction(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.Equal(t, dto.CreateTransactionRequest{Type: "deposit", Amount: "150,00", Description: "Salário"}, svc.createReq)
	assert.Equal(t, http.StatusCreated, resp.writeSuccessStatus)
	assert.Equal(t, svc.tx, resp.writeSuccessData)
}

func TestAddTransactionInvalidJSON(t *testing.T) {
	svc := &stubLedgerService{}
	h, resp := newLedgerHandlers(svc)

	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader("{"))
	h.AddTransaction(httptest.NewRecorder(), withUID(req, "uid-1"))

	assert.Empty(t, svc.calls)
	assert.True(t, resp.handleErrorCalled)
}

func TestAddTransactionEmptyBodyIsBadRequest(t *testing.T) {
	for _, body := range []string{"", "{"} {
		t.Run(body, func(t *testing.T) {
			svc := &stubLedgerService{}
			h := NewLedgerHandlers(&Deps{ResponseHandler: response.New(logger.New("", logger.NewTestHandler)), LedgerSvc: svc})

			req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(body)).WithContext(helpers.TestCtx())
			rr := httptest.NewRecorder()
			h.AddTransaction(rr, withUID(req, "uid-1"))

			assert.Empty(t, svc.calls)
			assert.Equal(t, http.StatusBadRequest, rr.Code)
		})
	}
}

func TestAddTransactionValidationError(t *testing.T) {
	svc := &stubLedgerService{err: errs.NewValidationError("Valor é obrigatório")}
	h, resp := newLedgerHandlers(svc)

	req := httptest.NewRequest(http.MethodPost, "/transactions", strings.NewReader(`{"type":"deposit"}`))
	h.AddTransaction(httptest.NewRecorder(), withUID(req, "uid-1"))

	var ve *errs.ValidationError
	assert.ErrorAs(t, resp.handleError, &ve)
}

func TestUpdateTransaction(t *testing.T) {
	svc := &stubLedgerService{tx: models.Transaction{ID: "tx-1"}}
	h, resp := newLedgerHandlers(svc)

	req := httptest.NewRequest(http.MethodPut, "/transactions/tx-1", strings.NewReader(`{"description":"Aluguel"}`))
	req = withChiParam(withUID(req, "uid-1"), "transactionId", "tx-1")
	h.UpdateTransaction(httptest.NewRecorder(), req)

	assert.Equal(t, "tx-1", svc.id)
	require.NotNil(t, svc.updateReq.Description)
	assert.Equal(t, "Aluguel", *svc.updateReq.Description)
	assert.Nil(t, svc.updateReq.Amount)
	assert.Nil(t, svc.updateReq.Type)
	assert.Equal(t, http.StatusOK, resp.writeSuccessStatus)
}

func TestDeleteTransaction(t *testing.T) {
	svc := &stubLedgerService{}
	h, resp := newLedgerHandlers(svc)

	req := withChiParam(withUID(httptest.NewRequest(http.MethodDelete, "/transactions/tx-9", nil), "uid-1"), "transactionId", "tx-9")
	h.DeleteTransaction(httptest.NewRecorder(), req)

	assert.Equal(t, "tx-9", svc.id)
	assert.True(t, resp.writeSuccessCalled)
}

func TestDeleteTransactionNotFound(t *testing.T) {
	svc := &stubLedgerService{err: errs.NewNotFoundError("transaction not found")}
	h, resp := newLedgerHandlers(svc)

	req := withChiParam(withUID(httptest.NewRequest(http.MethodDelete, "/transactions/nope", nil), "uid-1"), "transactionId", "nope")
	h.DeleteTransaction(httptest.NewRecorder(), req)

	var nf *errs.NotFoundError
	assert.ErrorAs(t, resp.handleError, &nf)
	assert.False(t, resp.writeSuccessCalled)
}

func TestSummaryHiddenFlag(t *testing.T) {
	cases := []struct {
		query  string
		hidden bool
	}{
		{"", false},
		{"?hidden=true", true},
		{"?hidden=1", true},
		{"?hidden=nope", false},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			svc := &stubLedgerService{summary: dto.SummaryResponse{Greeting: "Olá, Maria!"}}
			h, resp := newLedgerHandlers(svc)

			h.Summary(httptest.NewRecorder(), withUID(httptest.NewRequest(http.MethodGet, "/summary"+tc.query, nil), "uid-1"))

			assert.Equal(t, tc.hidden, svc.hidden)
			assert.Equal(t, svc.summary, resp.writeSuccessData)
		})
	}
}
