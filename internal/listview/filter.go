// Package listview turns a ledger snapshot into what the transactions screen renders:
// filtered rows with month headers, and per-row swipe state.
package listview

import (
	"strings"

	"github.com/GregMSThompson/ledger-backend/internal/models"
)

// All disables a filter predicate.
const All = "All"

// Filter narrows the ledger by month label and by type. Both predicates must hold.
type Filter struct {
	Month string
	Type  string
}

// NewFilter normalizes query values: empty or "all" in any case becomes All.
func NewFilter(month, typ string) Filter {
	return Filter{Month: normalize(month), Type: normalize(typ)}
}

func normalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.EqualFold(v, All) {
		return All
	}
	return v
}

func (f Filter) matchMonth(tx models.Transaction) bool {
	return f.Month == "" || f.Month == All || strings.EqualFold(tx.Month, f.Month)
}

func (f Filter) matchType(tx models.Transaction) bool {
	if f.Type == "" || f.Type == All {
		return true
	}
	t, ok := models.ParseTransactionType(f.Type)
	return ok && tx.Type == t
}

// Match reports whether tx passes both predicates.
func (f Filter) Match(tx models.Transaction) bool {
	return f.matchMonth(tx) && f.matchType(tx)
}

// Apply returns the matching transactions in their original order. txs is never modified.
func (f Filter) Apply(txs []models.Transaction) []models.Transaction {
	out := make([]models.Transaction, 0, len(txs))
	for _, tx := range txs {
		if f.Match(tx) {
			out = append(out, tx)
		}
	}
	return out
}

// Months lists the distinct month labels in ledger order.
func Months(txs []models.Transaction) []string {
	seen := make(map[string]struct{})
	months := []string{}
	for _, tx := range txs {
		if tx.Month == "" {
			continue
		}
		if _, ok := seen[tx.Month]; ok {
			continue
		}
		seen[tx.Month] = struct{}{}
		months = append(months, tx.Month)
	}
	return months
}
