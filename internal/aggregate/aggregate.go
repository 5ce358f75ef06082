// Package aggregate derives the dashboard figures from a ledger snapshot. Every function is a
// full recomputation over the slice it is given; nothing is patched incrementally.
package aggregate

import (
	"sync"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/models"
)

var (
	fixedShare    = decimal.RequireFromString("0.7")
	variableShare = decimal.RequireFromString("0.3")
	half          = decimal.RequireFromString("0.5")
	hundred       = decimal.NewFromInt(100)
)

// Balance is the plain sum of amounts; outgoing types are already negative.
func Balance(txs []models.Transaction) float64 {
	sum := decimal.Zero
	for _, tx := range txs {
		sum = sum.Add(decimal.NewFromFloat(tx.Amount))
	}
	return sum.InexactFloat64()
}

// Investment splits what is left after withdrawals and transfers 70/30 between fixed and
// variable income. Each share is rounded on its own, so Total can be Available ± 1.
func Investment(txs []models.Transaction) dto.InvestmentSplit {
	deposits, outgoing := decimal.Zero, decimal.Zero
	for _, tx := range txs {
		amount := decimal.NewFromFloat(tx.Amount)
		if tx.Type == models.Deposit {
			deposits = deposits.Add(amount)
			continue
		}
		outgoing = outgoing.Add(amount)
	}
	withdrawalsAbs := outgoing.Abs()
	available := deposits.Sub(withdrawalsAbs)
	fixed := roundHalfUp(available.Mul(fixedShare))
	variable := roundHalfUp(available.Mul(variableShare))

	return dto.InvestmentSplit{
		Deposits:       deposits.InexactFloat64(),
		WithdrawalsAbs: withdrawalsAbs.InexactFloat64(),
		Available:      available.InexactFloat64(),
		FixedIncome:    fixed.InexactFloat64(),
		VariableIncome: variable.InexactFloat64(),
		Total:          fixed.Add(variable).InexactFloat64(),
	}
}

// Categories sums absolute amounts per type. Total covers all three types; types that sum to
// zero are left out of Items.
func Categories(txs []models.Transaction) dto.CategoryStats {
	sums := make(map[models.TransactionType]decimal.Decimal, len(models.TransactionTypes))
	for _, tx := range txs {
		sums[tx.Type] = sums[tx.Type].Add(decimal.NewFromFloat(tx.Amount).Abs())
	}

	total := decimal.Zero
	for _, t := range models.TransactionTypes {
		total = total.Add(sums[t])
	}

	stats := dto.CategoryStats{Items: []dto.CategoryItem{}, Total: total.InexactFloat64()}
	for _, t := range models.TransactionTypes {
		sum := sums[t]
		if sum.IsZero() {
			continue
		}
		stats.Items = append(stats.Items, dto.CategoryItem{
			Type:    t,
			Label:   t.Label(),
			Amount:  sum.InexactFloat64(),
			Percent: sum.Div(total).Mul(hundred).Round(1).InexactFloat64(),
		})
	}
	return stats
}

// Summarize computes all three figures for one ledger version.
func Summarize(version uint64, txs []models.Transaction) dto.Summary {
	return dto.Summary{
		Version:    version,
		Balance:    Balance(txs),
		Investment: Investment(txs),
		Categories: Categories(txs),
	}
}

// roundHalfUp is floor(x + 0.5): halves go toward +Inf, so -2.5 becomes -2.
func roundHalfUp(d decimal.Decimal) decimal.Decimal {
	return d.Add(half).Floor()
}

// Memo keeps the Summary of the last ledger version it saw.
type Memo struct {
	mu      sync.Mutex
	valid   bool
	summary dto.Summary
}

// Get returns the cached Summary when version matches, otherwise recomputes from txs.
func (m *Memo) Get(version uint64, txs []models.Transaction) dto.Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.valid && m.summary.Version == version {
		return m.summary
	}
	m.summary = Summarize(version, txs)
	m.valid = true
	return m.summary
}
