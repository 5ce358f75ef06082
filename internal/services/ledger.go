package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/format"
	"github.com/GregMSThompson/ledger-backend/internal/ledger"
	"github.com/GregMSThompson/ledger-backend/internal/listview"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/pkg/helpers"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

// profileStore is the subset of the user store the summary greeting needs.
type profileStore interface {
	GetUser(ctx context.Context, uid string) (*models.User, error)
}

type receiptAttachments interface {
	Validate(ownerID, rawURL string) error
	Delete(ctx context.Context, ownerID, rawURL string) error
}

type changePublisher interface {
	Publish(ev ledger.Event)
}

type LedgerConfig struct {
	Mode       ledger.Mode
	PageSize   int
	SessionTTL time.Duration
	SessionMax int
	Location   *time.Location
}

type ledgerService struct {
	users    profileStore
	receipts receiptAttachments
	sessions *sessionRegistry
	now      func() time.Time
}

func NewLedgerService(remote ledger.Remote, users profileStore, receipts receiptAttachments, publisher changePublisher, cfg LedgerConfig) *ledgerService {
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	now := func() time.Time { return time.Now().In(loc) }

	newStore := func(uid string) *ledger.Store {
		opts := ledger.Options{Mode: cfg.Mode, PageSize: cfg.PageSize, Now: now}
		if publisher != nil {
			opts.OnChange = publisher.Publish
		}
		return ledger.New(remote, opts)
	}

	return &ledgerService{
		users:    users,
		receipts: receipts,
		sessions: newSessionRegistry(cfg.SessionMax, cfg.SessionTTL, newStore),
		now:      now,
	}
}

// SignIn binds the uid's store to its owner and loads the first page. A failed load is logged
// by the store and the empty view is still returned.
func (s *ledgerService) SignIn(ctx context.Context, uid string) (dto.LedgerView, error) {
	sess := s.sessions.Open(uid)
	sess.store.SetSession(ctx, uid)
	_ = sess.store.LoadInitial(ctx)
	return s.view(sess, listview.NewFilter("", "")), nil
}

func (s *ledgerService) SignOut(ctx context.Context, uid string) {
	log := logger.FromContext(ctx)
	sess, ok := s.sessions.Close(uid)
	if !ok {
		log.Debug("sign out without session")
		return
	}
	sess.store.SetSession(ctx, "")
}

// List returns the filtered rows of the loaded ledger.
func (s *ledgerService) List(ctx context.Context, uid, month, typ string) (dto.LedgerView, error) {
	sess, err := s.session(uid)
	if err != nil {
		return dto.LedgerView{}, err
	}
	return s.view(sess, listview.NewFilter(month, typ)), nil
}

// LoadMore fetches the next page. Load failures leave the ledger as it was and are not errors
// for the caller.
func (s *ledgerService) LoadMore(ctx context.Context, uid, month, typ string) (dto.LedgerView, error) {
	sess, err := s.session(uid)
	if err != nil {
		return dto.LedgerView{}, err
	}
	_ = sess.store.LoadMore(ctx)
	return s.view(sess, listview.NewFilter(month, typ)), nil
}

func (s *ledgerService) Months(ctx context.Context, uid string) ([]string, error) {
	sess, err := s.session(uid)
	if err != nil {
		return nil, err
	}
	return listview.Months(sess.store.Snapshot().Transactions), nil
}

func (s *ledgerService) AddTransaction(ctx context.Context, uid string, req dto.CreateTransactionRequest) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	sess, err := s.session(uid)
	if err != nil {
		return models.Transaction{}, err
	}

	typ, err := parseType(req.Type)
	if err != nil {
		return models.Transaction{}, err
	}
	abs, err := parseAmount(req.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := validateDescription(req.Description); err != nil {
		return models.Transaction{}, err
	}
	if err := s.validateReceipt(uid, req.Receipt); err != nil {
		return models.Transaction{}, err
	}

	draft := dto.TransactionDraft{
		Type:        &typ,
		Amount:      helpers.Ptr(signedAmount(typ, abs)),
		Description: helpers.Ptr(req.Description),
	}
	if req.Receipt != "" {
		draft.Receipt = helpers.Ptr(req.Receipt)
	}

	tx, err := sess.store.Add(ctx, draft)
	if err != nil {
		return tx, err
	}
	log.Info("transaction added", "transaction_id", tx.ID, "type", tx.Type, "mode", sess.store.Mode().String())
	return tx, nil
}

// UpdateTransaction changes the provided fields. Amount is absolute and takes the sign of the
// resulting type.
func (s *ledgerService) UpdateTransaction(ctx context.Context, uid, id string, req dto.UpdateTransactionRequest) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	sess, err := s.session(uid)
	if err != nil {
		return models.Transaction{}, err
	}
	current, ok := findTransaction(sess.store.Snapshot().Transactions, id)
	if !ok {
		return models.Transaction{}, errs.NewNotFoundError("transaction not found")
	}

	var draft dto.TransactionDraft
	typ := current.Type
	if req.Type != nil {
		if typ, err = parseType(*req.Type); err != nil {
			return models.Transaction{}, err
		}
		draft.Type = &typ
	}

	switch {
	case req.Amount != nil:
		abs, err := parseAmount(*req.Amount)
		if err != nil {
			return models.Transaction{}, err
		}
		draft.Amount = helpers.Ptr(signedAmount(typ, abs))
	case draft.Type != nil && typ.Sign()*current.Amount < 0:
		// Type flipped between incoming and outgoing: carry the amount over with the new sign.
		draft.Amount = helpers.Ptr(-current.Amount)
	}

	if req.Description != nil {
		if err := validateDescription(*req.Description); err != nil {
			return models.Transaction{}, err
		}
		draft.Description = req.Description
	}
	if req.Receipt != nil {
		if err := s.validateReceipt(uid, *req.Receipt); err != nil {
			return models.Transaction{}, err
		}
		draft.Receipt = req.Receipt
	}

	tx, err := sess.store.Update(ctx, id, draft)
	if err != nil {
		return tx, err
	}
	log.Info("transaction updated", "transaction_id", id)
	return tx, nil
}

// DeleteTransaction removes a transaction and then its receipt, if it had one.
func (s *ledgerService) DeleteTransaction(ctx context.Context, uid, id string) error {
	log := logger.FromContext(ctx)

	sess, err := s.session(uid)
	if err != nil {
		return err
	}
	removed, err := sess.store.Delete(ctx, id)
	if err != nil {
		return err
	}
	log.Info("transaction deleted", "transaction_id", id)

	if removed.Receipt == "" || s.receipts == nil {
		return nil
	}
	if err := s.receipts.Delete(ctx, uid, removed.Receipt); err != nil {
		var nf *errs.NotFoundError
		if errors.As(err, &nf) {
			log.Warn("receipt already gone", "transaction_id", id)
			return nil
		}
		return fmt.Errorf("transaction deleted but receipt was not: %w", err)
	}
	return nil
}

// Summary returns the dashboard figures of the current ledger version.
func (s *ledgerService) Summary(ctx context.Context, uid string, hidden bool) (dto.SummaryResponse, error) {
	log := logger.FromContext(ctx)

	sess, err := s.session(uid)
	if err != nil {
		return dto.SummaryResponse{}, err
	}
	snap := sess.store.Snapshot()
	summary := sess.memo.Get(snap.Version, snap.Transactions)

	var user *models.User
	if s.users != nil {
		user, err = s.users.GetUser(ctx, uid)
		if err != nil {
			var nf *errs.NotFoundError
			if !errors.As(err, &nf) {
				log.Warn("failed to load profile for greeting", "error", err)
			}
			user = nil
		}
	}

	resp := dto.SummaryResponse{
		Summary:       summary,
		Greeting:      fmt.Sprintf("Olá, %s!", user.DisplayName()),
		DateLabel:     format.Weekday(s.now()),
		BalanceHidden: hidden,
	}
	resp.BalanceFormatted = format.Currency(summary.Balance)
	if hidden {
		resp.BalanceFormatted = format.HiddenCurrency
	}
	resp.InvestmentFormatted.Total = format.Currency(summary.Investment.Total)
	resp.InvestmentFormatted.Fixed = format.Currency(summary.Investment.FixedIncome)
	resp.InvestmentFormatted.Variable = format.Currency(summary.Investment.VariableIncome)
	return resp, nil
}

// CleanupSessions drops idle sessions; cmd/api runs it on a ticker.
func (s *ledgerService) CleanupSessions(ctx context.Context) int {
	n := s.sessions.CleanExpired()
	if n > 0 {
		logger.FromContext(ctx).Info("expired ledger sessions removed", "count", n, "active", s.sessions.Len())
	}
	return n
}

// ---- Helpers ----

func (s *ledgerService) session(uid string) (*session, error) {
	sess, ok := s.sessions.Get(uid)
	if !ok {
		return nil, errs.NewSessionError("no active session, sign in first")
	}
	return sess, nil
}

func (s *ledgerService) view(sess *session, f listview.Filter) dto.LedgerView {
	snap := sess.store.Snapshot()
	rows := listview.View(snap.Transactions, f)
	return dto.LedgerView{
		State:       string(snap.State),
		HasMore:     snap.HasMore,
		Loading:     snap.Loading,
		LoadingMore: snap.LoadingMore,
		Version:     snap.Version,
		Total:       len(snap.Transactions),
		Month:       f.Month,
		Type:        f.Type,
		Rows:        rows,
	}
}

// validateReceipt accepts an empty URL, which detaches the receipt.
func (s *ledgerService) validateReceipt(uid, rawURL string) error {
	if rawURL == "" || s.receipts == nil {
		return nil
	}
	return s.receipts.Validate(uid, rawURL)
}

func findTransaction(txs []models.Transaction, id string) (models.Transaction, bool) {
	for _, tx := range txs {
		if tx.ID == id {
			return tx, true
		}
	}
	return models.Transaction{}, false
}
