package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GregMSThompson/ledger-backend/internal/aggregate"
	"github.com/GregMSThompson/ledger-backend/internal/listview"
)

func TestDemoTransactions(t *testing.T) {
	now := time.Date(2022, 11, 21, 12, 0, 0, 0, time.UTC)
	txs := demoTransactions("uid-1", now)
	require.Len(t, txs, 5)

	for i, tx := range txs {
		assert.Equal(t, "uid-1", tx.OwnerID)
		assert.True(t, tx.Type.Valid())
		assert.Equal(t, tx.Type.Sign() > 0, tx.Amount > 0, "sign of %s", tx.ID)
		if i > 0 {
			assert.True(t, tx.CreatedAt.Before(txs[i-1].CreatedAt), "createdAt must descend")
		}
	}

	assert.Equal(t, 120.0, aggregate.Balance(txs))
	assert.Equal(t, []string{"Novembro", "Outubro"}, listview.Months(txs))
}

func TestDemoTransactionsStableIDs(t *testing.T) {
	a := demoTransactions("uid-1", time.Now())
	b := demoTransactions("uid-1", time.Now().Add(time.Hour))
	c := demoTransactions("uid-2", time.Now())

	seen := map[string]bool{}
	for i := range a {
		assert.Equal(t, a[i].ID, b[i].ID)
		assert.NotEqual(t, a[i].ID, c[i].ID)
		assert.False(t, seen[a[i].ID], "duplicate id")
		seen[a[i].ID] = true
	}
}
