package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/ledger-backend/internal/ledger"
	"github.com/GregMSThompson/ledger-backend/pkg/helpers"
)

func newTestRegistry(max int, ttl time.Duration, clock *time.Time) (*sessionRegistry, *int) {
	created := 0
	r := newSessionRegistry(max, ttl, func(string) *ledger.Store {
		created++
		return ledger.New(&stubRemote{}, ledger.Options{})
	})
	r.now = func() time.Time { return *clock }
	return r, &created
}

func TestSessionRegistryOpenReusesSession(t *testing.T) {
	clock := time.Date(2022, time.November, 1, 0, 0, 0, 0, time.UTC)
	r, created := newTestRegistry(10, time.Minute, &clock)

	a := r.Open("uid-1")
	b := r.Open("uid-1")
	assert.Same(t, a, b)
	assert.Equal(t, 1, *created)
	assert.Equal(t, 1, r.Len())
}

func TestSessionRegistrySlidingTTL(t *testing.T) {
	clock := time.Date(2022, time.November, 1, 0, 0, 0, 0, time.UTC)
	r, _ := newTestRegistry(10, time.Minute, &clock)

	r.Open("uid-1")
	clock = clock.Add(50 * time.Second)
	_, ok := r.Get("uid-1")
	require.True(t, ok)

	clock = clock.Add(50 * time.Second)
	_, ok = r.Get("uid-1")
	assert.True(t, ok, "Get extends the lifetime")

	clock = clock.Add(2 * time.Minute)
	_, ok = r.Get("uid-1")
	assert.False(t, ok)
	assert.Equal(t, 0, r.Len())
}

func TestSessionRegistryEvictsLeastRecentlyUsed(t *testing.T) {
	clock := time.Date(2022, time.November, 1, 0, 0, 0, 0, time.UTC)
	r, _ := newTestRegistry(2, time.Hour, &clock)

	r.Open("a")
	r.Open("b")
	_, _ = r.Get("a")
	r.Open("c")

	_, okA := r.Get("a")
	_, okB := r.Get("b")
	_, okC := r.Get("c")
	assert.True(t, okA)
	assert.False(t, okB)
	assert.True(t, okC)
}

func TestSessionRegistryCleanExpiredAndClose(t *testing.T) {
	clock := time.Date(2022, time.November, 1, 0, 0, 0, 0, time.UTC)
	r, _ := newTestRegistry(10, time.Minute, &clock)

	r.Open("a")
	r.Open("b")
	clock = clock.Add(30 * time.Second)
	r.Open("c")
	clock = clock.Add(45 * time.Second)

	assert.Equal(t, 2, r.CleanExpired())
	assert.Equal(t, 1, r.Len())

	sess, ok := r.Close("c")
	require.True(t, ok)
	assert.Equal(t, "c", sess.uid)
	_, ok = r.Close("c")
	assert.False(t, ok)
}

func TestSessionRegistryResetsDroppedStores(t *testing.T) {
	clock := time.Date(2022, time.November, 1, 0, 0, 0, 0, time.UTC)
	r, _ := newTestRegistry(2, time.Minute, &clock)
	ctx := helpers.TestCtx()

	open := func(uid string) *session {
		sess := r.Open(uid)
		sess.store.SetSession(ctx, uid)
		return sess
	}

	evicted := open("a")
	open("b")
	open("c")
	assert.Equal(t, "", evicted.store.Snapshot().Owner, "evicted store keeps its owner")

	clock = clock.Add(2 * time.Minute)
	expired := open("d")
	clock = clock.Add(2 * time.Minute)
	_, ok := r.Get("d")
	require.False(t, ok)
	assert.Equal(t, "", expired.store.Snapshot().Owner, "expired store keeps its owner")

	swept := open("e")
	clock = clock.Add(2 * time.Minute)
	assert.Equal(t, 2, r.CleanExpired())
	assert.Equal(t, "", swept.store.Snapshot().Owner, "swept store keeps its owner")
}
