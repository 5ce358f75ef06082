package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/GregMSThompson/ledger-backend/internal/models"
)

type demoItem struct {
	typ    models.TransactionType
	amount float64
	desc   string
	date   string
	month  string
}

// Listed newest first, the order the app shows them in.
var demoLedger = []demoItem{
	{models.Deposit, 150, "Salário", "18/11/2022", "Novembro"},
	{models.Deposit, 100, "Reembolso", "21/11/2022", "Novembro"},
	{models.Deposit, 200, "Freelance", "01/11/2022", "Novembro"},
	{models.Withdrawal, -80, "Caixa eletrônico", "15/10/2022", "Outubro"},
	{models.Transfer, -250, "Aluguel", "10/10/2022", "Outubro"},
}

// demoTransactions builds the demo ledger for owner. IDs are derived from the owner so a
// second run overwrites instead of duplicating.
func demoTransactions(owner string, now time.Time) []models.Transaction {
	txs := make([]models.Transaction, 0, len(demoLedger))
	for i, item := range demoLedger {
		created := now.Add(-time.Duration(i) * time.Minute)
		txs = append(txs, models.Transaction{
			ID:          uuid.NewSHA1(uuid.NameSpaceURL, []byte("ledger-demo:"+owner+":"+item.date+":"+string(item.typ))).String(),
			OwnerID:     owner,
			Type:        item.typ,
			Amount:      item.amount,
			Description: item.desc,
			Date:        item.date,
			Month:       item.month,
			CreatedAt:   created,
			UpdatedAt:   created,
		})
	}
	return txs
}
