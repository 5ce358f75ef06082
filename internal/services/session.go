package services

import (
	"container/list"
	"context"
	"sync"
	"time"

	"github.com/GregMSThompson/ledger-backend/internal/aggregate"
	"github.com/GregMSThompson/ledger-backend/internal/ledger"
)

// session is the per-user state kept between requests.
type session struct {
	uid   string
	store *ledger.Store
	memo  aggregate.Memo
}

type sessionItem struct {
	sess      *session
	expiresAt time.Time
}

// sessionRegistry holds one session per uid with a sliding TTL and size-based eviction.
type sessionRegistry struct {
	mu       sync.Mutex
	maxSize  int
	ttl      time.Duration
	items    map[string]*list.Element
	lru      *list.List
	now      func() time.Time
	newStore func(uid string) *ledger.Store
}

func newSessionRegistry(maxSize int, ttl time.Duration, newStore func(uid string) *ledger.Store) *sessionRegistry {
	return &sessionRegistry{
		maxSize:  maxSize,
		ttl:      ttl,
		items:    make(map[string]*list.Element),
		lru:      list.New(),
		now:      time.Now,
		newStore: newStore,
	}
}

// Get returns the live session for uid and extends its lifetime.
func (r *sessionRegistry) Get(uid string) (*session, bool) {
	r.mu.Lock()
	elem, ok := r.items[uid]
	if !ok {
		r.mu.Unlock()
		return nil, false
	}
	item := elem.Value.(*sessionItem)
	now := r.now()
	if now.After(item.expiresAt) {
		r.removeElement(elem)
		r.mu.Unlock()
		resetStores(item.sess)
		return nil, false
	}
	item.expiresAt = now.Add(r.ttl)
	r.lru.MoveToFront(elem)
	r.mu.Unlock()
	return item.sess, true
}

// Open returns the session for uid, creating it if needed.
func (r *sessionRegistry) Open(uid string) *session {
	if sess, ok := r.Get(uid); ok {
		return sess
	}

	r.mu.Lock()

	// Another request may have opened it meanwhile.
	if elem, ok := r.items[uid]; ok {
		r.mu.Unlock()
		return elem.Value.(*sessionItem).sess
	}

	sess := &session{uid: uid, store: r.newStore(uid)}
	elem := r.lru.PushFront(&sessionItem{sess: sess, expiresAt: r.now().Add(r.ttl)})
	r.items[uid] = elem

	var evicted *session
	if r.maxSize > 0 && r.lru.Len() > r.maxSize {
		if oldest := r.lru.Back(); oldest != nil {
			evicted = r.removeElement(oldest)
		}
	}
	r.mu.Unlock()

	if evicted != nil {
		resetStores(evicted)
	}
	return sess
}

// Close removes the session for uid and returns it. The caller owns resetting its store.
func (r *sessionRegistry) Close(uid string) (*session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	elem, ok := r.items[uid]
	if !ok {
		return nil, false
	}
	r.removeElement(elem)
	return elem.Value.(*sessionItem).sess, true
}

// CleanExpired drops every expired session, resets their stores and returns how many were
// removed.
func (r *sessionRegistry) CleanExpired() int {
	r.mu.Lock()
	now := r.now()
	var expired []*list.Element
	for elem := r.lru.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*sessionItem).expiresAt) {
			expired = append(expired, elem)
		}
	}
	dropped := make([]*session, 0, len(expired))
	for _, elem := range expired {
		dropped = append(dropped, r.removeElement(elem))
	}
	r.mu.Unlock()

	resetStores(dropped...)
	return len(dropped)
}

func (r *sessionRegistry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

func (r *sessionRegistry) removeElement(elem *list.Element) *session {
	item := elem.Value.(*sessionItem)
	delete(r.items, item.sess.uid)
	r.lru.Remove(elem)
	return item.sess
}

// resetStores signs dropped sessions out so their cached transactions are released and
// subscribers see a reset. Called without the registry lock held.
func resetStores(sessions ...*session) {
	for _, sess := range sessions {
		sess.store.SetSession(context.Background(), "")
	}
}
