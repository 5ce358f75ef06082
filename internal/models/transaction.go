package models

import (
	"strings"
	"time"
)

type TransactionType string

const (
	Deposit    TransactionType = "deposit"
	Withdrawal TransactionType = "withdrawal"
	Transfer   TransactionType = "transfer"
)

// TransactionTypes lists the closed set in display order.
var TransactionTypes = []TransactionType{Deposit, Withdrawal, Transfer}

var typeLabels = map[TransactionType]string{
	Deposit:    "Depósito",
	Withdrawal: "Saque",
	Transfer:   "Transferência",
}

func (t TransactionType) Valid() bool {
	_, ok := typeLabels[t]
	return ok
}

// Label is the pt-BR name shown in the app.
func (t TransactionType) Label() string {
	return typeLabels[t]
}

// Sign is +1 for money coming in and -1 for money going out.
func (t TransactionType) Sign() float64 {
	if t == Deposit {
		return 1
	}
	return -1
}

// ParseTransactionType accepts either the wire value or the pt-BR label.
func ParseTransactionType(s string) (TransactionType, bool) {
	s = strings.TrimSpace(s)
	for t, label := range typeLabels {
		if strings.EqualFold(s, string(t)) || strings.EqualFold(s, label) {
			return t, true
		}
	}
	return "", false
}

type Transaction struct {
	ID          string          `firestore:"id" json:"id"`
	OwnerID     string          `firestore:"ownerId" json:"ownerId"`
	Type        TransactionType `firestore:"type" json:"type"`
	Amount      float64         `firestore:"amount" json:"amount"` // signed: deposits positive
	Description string          `firestore:"description,omitempty" json:"description,omitempty"`
	Date        string          `firestore:"date" json:"date"`   // dd/mm/yyyy snapshot
	Month       string          `firestore:"month" json:"month"` // pt-BR month label, grouping key
	Receipt     string          `firestore:"receipt,omitempty" json:"receipt,omitempty"`
	CreatedAt   time.Time       `firestore:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time       `firestore:"updatedAt" json:"updatedAt"`
}
