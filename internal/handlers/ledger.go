package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/middleware"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/internal/response"
)

type ledgerService interface {
	SignIn(ctx context.Context, uid string) (dto.LedgerView, error)
	SignOut(ctx context.Context, uid string)
	List(ctx context.Context, uid, month, typ string) (dto.LedgerView, error)
	LoadMore(ctx context.Context, uid, month, typ string) (dto.LedgerView, error)
	Months(ctx context.Context, uid string) ([]string, error)
	AddTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (models.Transaction, error)
	UpdateTransaction(ctx context.Context, uid, id string, req dto.UpdateTransactionRequest) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, uid, id string) error
	Summary(ctx context.Context, uid string, hidden bool) (dto.SummaryResponse, error)
}

type ledgerHandlers struct {
	ResponseHandler response.ResponseHandler
	LedgerSvc       ledgerService
}

func NewLedgerHandlers(deps *Deps) *ledgerHandlers {
	return &ledgerHandlers{
		ResponseHandler: deps.ResponseHandler,
		LedgerSvc:       deps.LedgerSvc,
	}
}

func (h *ledgerHandlers) LedgerRoutes() chi.Router {
	r := chi.NewRouter()
	r.Route("/session", func(r chi.Router) {
		r.Post("/", h.SignIn)
		r.Delete("/", h.SignOut)
	})
	r.Route("/transactions", func(r chi.Router) {
		r.Get("/", h.ListTransactions)
		r.Post("/", h.AddTransaction)
		r.Post("/more", h.LoadMore)
		r.Get("/months", h.Months)
		r.Put("/{transactionId}", h.UpdateTransaction)
		r.Delete("/{transactionId}", h.DeleteTransaction)
	})
	r.Get("/summary", h.Summary)
	return r
}

func (h *ledgerHandlers) SignIn(w http.ResponseWriter, r *http.Request) {
	view, err := h.LedgerSvc.SignIn(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}

func (h *ledgerHandlers) SignOut(w http.ResponseWriter, r *http.Request) {
	h.LedgerSvc.SignOut(r.Context(), middleware.UID(r.Context()))
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *ledgerHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.LedgerSvc.List(r.Context(), middleware.UID(r.Context()), q.Get("month"), q.Get("type"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}

func (h *ledgerHandlers) LoadMore(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	view, err := h.LedgerSvc.LoadMore(r.Context(), middleware.UID(r.Context()), q.Get("month"), q.Get("type"))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, view)
}

func (h *ledgerHandlers) Months(w http.ResponseWriter, r *http.Request) {
	months, err := h.LedgerSvc.Months(r.Context(), middleware.UID(r.Context()))
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, map[string][]string{"months": months})
}

func (h *ledgerHandlers) AddTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	tx, err := h.LedgerSvc.AddTransaction(r.Context(), middleware.UID(r.Context()), req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusCreated, tx)
}

func (h *ledgerHandlers) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}

	id := chi.URLParam(r, "transactionId")
	tx, err := h.LedgerSvc.UpdateTransaction(r.Context(), middleware.UID(r.Context()), id, req)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, tx)
}

func (h *ledgerHandlers) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "transactionId")
	if err := h.LedgerSvc.DeleteTransaction(r.Context(), middleware.UID(r.Context()), id); err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, nil)
}

func (h *ledgerHandlers) Summary(w http.ResponseWriter, r *http.Request) {
	// an unparseable flag shows the balance
	hidden, _ := strconv.ParseBool(r.URL.Query().Get("hidden"))

	summary, err := h.LedgerSvc.Summary(r.Context(), middleware.UID(r.Context()), hidden)
	if err != nil {
		h.ResponseHandler.HandleError(w, r, err)
		return
	}
	h.ResponseHandler.WriteSuccess(w, r, http.StatusOK, summary)
}
