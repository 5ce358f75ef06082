// Package ledger holds a session's transaction list and keeps it in step with the remote
// collection: first page on sign-in, cursor pagination afterwards, and create/update/delete
// in either optimistic or confirmed mode.
package ledger

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/format"
	"github.com/GregMSThompson/ledger-backend/internal/models"
	"github.com/GregMSThompson/ledger-backend/pkg/logger"
)

const DefaultPageSize = 10

// Remote is the persistence collaborator. FetchPage returns records owned by ownerID ordered
// by creation time descending, starting strictly after the cursor when one is given.
type Remote interface {
	FetchPage(ctx context.Context, ownerID string, after *dto.Cursor, limit int) ([]models.Transaction, error)
	Create(ctx context.Context, tx models.Transaction) (models.Transaction, error)
	Update(ctx context.Context, ownerID, id string, fields map[string]any) error
	Delete(ctx context.Context, ownerID, id string) error
}

// Mode selects how mutations treat the local list.
type Mode int

const (
	// Confirmed mutates the local list only after the remote write succeeded.
	Confirmed Mode = iota
	// Optimistic mutates the local list first and never rolls back.
	Optimistic
)

func ParseMode(s string) (Mode, error) {
	switch s {
	case "", "confirmed":
		return Confirmed, nil
	case "optimistic":
		return Optimistic, nil
	}
	return Confirmed, fmt.Errorf("unknown ledger mode %q", s)
}

func (m Mode) String() string {
	if m == Optimistic {
		return "optimistic"
	}
	return "confirmed"
}

type State string

const (
	StateIdle        State = "idle"
	StateLoading     State = "loading"
	StateReady       State = "ready"
	StateLoadingMore State = "loadingMore"
)

type EventKind string

const (
	EventReset    EventKind = "reset"
	EventLoaded   EventKind = "loaded"
	EventAppended EventKind = "appended"
	EventAdded    EventKind = "added"
	EventUpdated  EventKind = "updated"
	EventDeleted  EventKind = "deleted"
)

// Event describes one change of the ledger.
type Event struct {
	Kind    EventKind `json:"kind"`
	Owner   string    `json:"owner"`
	ID      string    `json:"id,omitempty"`
	Version uint64    `json:"version"`
	Count   int       `json:"count"`
	HasMore bool      `json:"hasMore"`
}

// Snapshot is a read-only view of the store. Transactions is shared with the store and
// must not be modified; the store never changes a slice it has handed out.
type Snapshot struct {
	Owner        string
	State        State
	Transactions []models.Transaction
	HasMore      bool
	Loading      bool
	LoadingMore  bool
	Version      uint64
}

type Options struct {
	Mode     Mode
	PageSize int
	Now      func() time.Time
	NewID    func() string
	OnChange func(Event)
}

type Store struct {
	remote   Remote
	mode     Mode
	pageSize int
	now      func() time.Time
	newID    func() string
	onChange func(Event)

	mu          sync.Mutex
	owner       string
	txs         []models.Transaction
	cursor      *dto.Cursor
	hasMore     bool
	loading     bool
	loadingMore bool
	loaded      bool
	version     uint64
}

func New(remote Remote, opts Options) *Store {
	s := &Store{
		remote:   remote,
		mode:     opts.Mode,
		pageSize: opts.PageSize,
		now:      opts.Now,
		newID:    opts.NewID,
		onChange: opts.OnChange,
		hasMore:  true,
	}
	if s.pageSize <= 0 {
		s.pageSize = DefaultPageSize
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.newID == nil {
		s.newID = newTimeOrderedID
	}
	return s
}

func (s *Store) Mode() Mode { return s.mode }

// SetSession is called on every identity change. It clears the list, the cursor and the
// loading flags before anything else can run; an empty ownerID means signed out.
// Loads already in flight are not cancelled and may still land afterwards.
func (s *Store) SetSession(ctx context.Context, ownerID string) {
	s.mu.Lock()
	previous := s.owner
	s.owner = ownerID
	s.txs = nil
	s.cursor = nil
	s.hasMore = true
	s.loading = false
	s.loadingMore = false
	s.loaded = false
	ev := s.changedLocked(EventReset, "")
	s.mu.Unlock()

	logger.FromContext(ctx).Info("ledger session changed",
		"signed_in", ownerID != "", "had_session", previous != "")
	s.emit(ev)
}

// LoadInitial replaces the list with the first page. On failure the list is left as it was
// and the error is returned after being logged. Concurrent calls are not coordinated: the
// last response to arrive wins.
func (s *Store) LoadInitial(ctx context.Context) error {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	owner := s.owner
	if owner == "" {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.mu.Unlock()

	page, err := s.remote.FetchPage(ctx, owner, nil, s.pageSize)

	s.mu.Lock()
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		log.Error("initial ledger load failed", "error", err)
		return err
	}
	if s.owner != owner {
		log.Warn("initial page arrived after session change", "page_size", len(page))
	}
	s.txs = appendUnique(nil, page)
	s.cursor = cursorAfter(page, nil)
	s.hasMore = len(page) == s.pageSize
	s.loaded = true
	ev := s.changedLocked(EventLoaded, "")
	s.mu.Unlock()

	log.Info("ledger loaded", "count", len(page), "has_more", ev.HasMore)
	s.emit(ev)
	return nil
}

// LoadMore appends the next page. It returns immediately when there is no session, no
// cursor, nothing more to load, or another LoadMore is still running.
func (s *Store) LoadMore(ctx context.Context) error {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	if s.owner == "" || s.cursor == nil || !s.hasMore || s.loadingMore {
		s.mu.Unlock()
		return nil
	}
	s.loadingMore = true
	owner := s.owner
	after := *s.cursor
	s.mu.Unlock()

	page, err := s.remote.FetchPage(ctx, owner, &after, s.pageSize)

	s.mu.Lock()
	s.loadingMore = false
	if err != nil {
		s.mu.Unlock()
		log.Error("ledger page load failed", "error", err)
		return err
	}
	if s.owner != owner {
		log.Warn("ledger page arrived after session change", "page_size", len(page))
	}
	s.txs = appendUnique(s.txs, page)
	s.cursor = cursorAfter(page, s.cursor)
	s.hasMore = len(page) == s.pageSize
	ev := s.changedLocked(EventAppended, "")
	s.mu.Unlock()

	if logger.IsDebugEnabled(ctx) {
		log.Debug("ledger page appended", "page_size", len(page), "count", ev.Count, "has_more", ev.HasMore)
	}
	s.emit(ev)
	return nil
}

// Add creates a transaction from draft and makes it the most recent entry.
func (s *Store) Add(ctx context.Context, draft dto.TransactionDraft) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	owner := s.currentOwner()
	if owner == "" {
		return models.Transaction{}, errs.NewSessionError("no active session")
	}

	now := s.now()
	tx := models.Transaction{
		OwnerID:   owner,
		Date:      format.Date(now),
		Month:     format.Month(now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	draft.Apply(&tx)
	if err := checkTransaction(tx); err != nil {
		return models.Transaction{}, err
	}

	if s.mode == Optimistic {
		tx.ID = s.newID()
		s.prepend(tx)
		if _, err := s.remote.Create(ctx, tx); err != nil {
			log.Error("failed to persist optimistic transaction", "transaction_id", tx.ID, "error", err)
			return tx, err
		}
		return tx, nil
	}

	saved, err := s.remote.Create(ctx, tx)
	if err != nil {
		log.Error("failed to create transaction", "error", err)
		return models.Transaction{}, err
	}
	s.prepend(saved)
	return saved, nil
}

// Update applies the provided fields of patch to the transaction with the given id.
func (s *Store) Update(ctx context.Context, id string, patch dto.TransactionDraft) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	owner := s.owner
	current, found := find(s.txs, id)
	s.mu.Unlock()

	if owner == "" {
		return models.Transaction{}, errs.NewSessionError("no active session")
	}
	if !found {
		return models.Transaction{}, errs.NewNotFoundError("transaction not found")
	}

	now := s.now()
	merged := current
	patch.Apply(&merged)
	merged.UpdatedAt = now
	if err := checkTransaction(merged); err != nil {
		return models.Transaction{}, err
	}

	fields := patch.Fields()
	fields["updatedAt"] = now

	if s.mode == Optimistic {
		s.replace(merged)
		if err := s.remote.Update(ctx, owner, id, fields); err != nil {
			log.Error("failed to persist optimistic update", "transaction_id", id, "error", err)
			return merged, err
		}
		return merged, nil
	}

	if err := s.remote.Update(ctx, owner, id, fields); err != nil {
		log.Error("failed to update transaction", "transaction_id", id, "error", err)
		return models.Transaction{}, err
	}
	s.replace(merged)
	return merged, nil
}

// Delete removes the transaction with the given id and returns it.
func (s *Store) Delete(ctx context.Context, id string) (models.Transaction, error) {
	log := logger.FromContext(ctx)

	s.mu.Lock()
	owner := s.owner
	current, found := find(s.txs, id)
	s.mu.Unlock()

	if owner == "" {
		return models.Transaction{}, errs.NewSessionError("no active session")
	}
	if !found {
		return models.Transaction{}, errs.NewNotFoundError("transaction not found")
	}

	if s.mode == Optimistic {
		s.remove(id)
		if err := s.remote.Delete(ctx, owner, id); err != nil {
			log.Error("failed to persist optimistic delete", "transaction_id", id, "error", err)
			return current, err
		}
		return current, nil
	}

	if err := s.remote.Delete(ctx, owner, id); err != nil {
		log.Error("failed to delete transaction", "transaction_id", id, "error", err)
		return models.Transaction{}, err
	}
	s.remove(id)
	return current, nil
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Owner:        s.owner,
		State:        s.stateLocked(),
		Transactions: s.txs,
		HasMore:      s.hasMore,
		Loading:      s.loading,
		LoadingMore:  s.loadingMore,
		Version:      s.version,
	}
}

func (s *Store) currentOwner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.owner
}

func (s *Store) stateLocked() State {
	switch {
	case s.owner == "":
		return StateIdle
	case s.loading:
		return StateLoading
	case s.loadingMore:
		return StateLoadingMore
	case s.loaded:
		return StateReady
	default:
		return StateIdle
	}
}

func (s *Store) prepend(tx models.Transaction) {
	s.mu.Lock()
	next := make([]models.Transaction, 0, len(s.txs)+1)
	next = append(next, tx)
	for _, t := range s.txs {
		if t.ID != tx.ID {
			next = append(next, t)
		}
	}
	s.txs = next
	ev := s.changedLocked(EventAdded, tx.ID)
	s.mu.Unlock()
	s.emit(ev)
}

func (s *Store) replace(tx models.Transaction) {
	s.mu.Lock()
	idx := indexOf(s.txs, tx.ID)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]models.Transaction, len(s.txs))
	copy(next, s.txs)
	next[idx] = tx
	s.txs = next
	ev := s.changedLocked(EventUpdated, tx.ID)
	s.mu.Unlock()
	s.emit(ev)
}

func (s *Store) remove(id string) {
	s.mu.Lock()
	idx := indexOf(s.txs, id)
	if idx < 0 {
		s.mu.Unlock()
		return
	}
	next := make([]models.Transaction, 0, len(s.txs)-1)
	next = append(next, s.txs[:idx]...)
	next = append(next, s.txs[idx+1:]...)
	s.txs = next
	ev := s.changedLocked(EventDeleted, id)
	s.mu.Unlock()
	s.emit(ev)
}

// changedLocked bumps the version; callers hold mu and emit the event after unlocking.
func (s *Store) changedLocked(kind EventKind, id string) Event {
	s.version++
	return Event{
		Kind:    kind,
		Owner:   s.owner,
		ID:      id,
		Version: s.version,
		Count:   len(s.txs),
		HasMore: s.hasMore,
	}
}

func (s *Store) emit(ev Event) {
	if s.onChange != nil {
		s.onChange(ev)
	}
}

// ---- Helpers ----

// checkTransaction enforces the sign convention: deposits positive, everything else negative.
func checkTransaction(tx models.Transaction) error {
	if !tx.Type.Valid() {
		return errs.NewValidationError(fmt.Sprintf("unknown transaction type %q", tx.Type))
	}
	if tx.Amount == 0 {
		return errs.NewValidationError("amount must not be zero")
	}
	if (tx.Amount > 0) != (tx.Type.Sign() > 0) {
		return errs.NewValidationError(fmt.Sprintf("amount sign does not match type %s", tx.Type))
	}
	return nil
}

func appendUnique(dst, page []models.Transaction) []models.Transaction {
	seen := make(map[string]struct{}, len(dst)+len(page))
	next := make([]models.Transaction, 0, len(dst)+len(page))
	for _, t := range dst {
		seen[t.ID] = struct{}{}
		next = append(next, t)
	}
	for _, t := range page {
		if _, dup := seen[t.ID]; dup {
			continue
		}
		seen[t.ID] = struct{}{}
		next = append(next, t)
	}
	return next
}

func cursorAfter(page []models.Transaction, fallback *dto.Cursor) *dto.Cursor {
	if len(page) == 0 {
		return fallback
	}
	last := page[len(page)-1]
	return &dto.Cursor{CreatedAt: last.CreatedAt, ID: last.ID}
}

func indexOf(txs []models.Transaction, id string) int {
	for i := range txs {
		if txs[i].ID == id {
			return i
		}
	}
	return -1
}

func find(txs []models.Transaction, id string) (models.Transaction, bool) {
	if i := indexOf(txs, id); i >= 0 {
		return txs[i], true
	}
	return models.Transaction{}, false
}

// newTimeOrderedID returns a UUIDv7 so client-generated ids sort by creation time.
func newTimeOrderedID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
