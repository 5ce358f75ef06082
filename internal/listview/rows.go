package listview

import (
	"iter"

	"github.com/GregMSThompson/ledger-backend/internal/dto"
	"github.com/GregMSThompson/ledger-backend/internal/format"
	"github.com/GregMSThompson/ledger-backend/internal/models"
)

// Rows yields one display row per transaction. A row opens a month group when it is the first
// one or its month differs from the row before it. The sequence can be ranged over any number
// of times; each pass recomputes from txs.
func Rows(txs []models.Transaction) iter.Seq[dto.Row] {
	return func(yield func(dto.Row) bool) {
		for i, tx := range txs {
			row := dto.Row{
				Transaction:     tx,
				ShowMonthHeader: i == 0 || txs[i-1].Month != tx.Month,
				TypeLabel:       tx.Type.Label(),
				AmountFormatted: format.Currency(tx.Amount),
			}
			if !yield(row) {
				return
			}
		}
	}
}

// View filters the snapshot and collects its rows.
func View(txs []models.Transaction, f Filter) []dto.Row {
	rows := []dto.Row{}
	for row := range Rows(f.Apply(txs)) {
		rows = append(rows, row)
	}
	return rows
}
