package dto

import (
	"time"

	"github.com/GregMSThompson/ledger-backend/internal/models"
)

// TransactionDraft carries the fields of a create or update. A nil field is "not provided"
// and is never written.
type TransactionDraft struct {
	Type        *models.TransactionType
	Amount      *float64
	Description *string
	Date        *string
	Month       *string
	Receipt     *string
}

// Apply copies every provided field onto tx.
func (d TransactionDraft) Apply(tx *models.Transaction) {
	if d.Type != nil {
		tx.Type = *d.Type
	}
	if d.Amount != nil {
		tx.Amount = *d.Amount
	}
	if d.Description != nil {
		tx.Description = *d.Description
	}
	if d.Date != nil {
		tx.Date = *d.Date
	}
	if d.Month != nil {
		tx.Month = *d.Month
	}
	if d.Receipt != nil {
		tx.Receipt = *d.Receipt
	}
}

// Fields returns the provided fields keyed by their Firestore names.
func (d TransactionDraft) Fields() map[string]any {
	fields := map[string]any{}
	if d.Type != nil {
		fields["type"] = string(*d.Type)
	}
	if d.Amount != nil {
		fields["amount"] = *d.Amount
	}
	if d.Description != nil {
		fields["description"] = *d.Description
	}
	if d.Date != nil {
		fields["date"] = *d.Date
	}
	if d.Month != nil {
		fields["month"] = *d.Month
	}
	if d.Receipt != nil {
		fields["receipt"] = *d.Receipt
	}
	return fields
}

// Cursor marks the last record of a fetched page. Pages are ordered by createdAt then
// document id, both descending.
type Cursor struct {
	CreatedAt time.Time
	ID        string
}

// CreateTransactionRequest is the body of POST /transactions. Amount is the absolute value as
// typed by the user ("150", "12,50"); the sign follows Type.
type CreateTransactionRequest struct {
	Type        string `json:"type"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
	Receipt     string `json:"receipt,omitempty"`
}

// UpdateTransactionRequest is the body of PUT /transactions/{id}. Omitted fields are kept.
type UpdateTransactionRequest struct {
	Type        *string `json:"type,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Description *string `json:"description,omitempty"`
	Receipt     *string `json:"receipt,omitempty"`
}

type Row struct {
	models.Transaction
	ShowMonthHeader bool   `json:"showMonthHeader"`
	TypeLabel       string `json:"typeLabel"`
	AmountFormatted string `json:"amountFormatted"`
}

// LedgerView is what the transactions screen renders.
type LedgerView struct {
	State       string `json:"state"`
	HasMore     bool   `json:"hasMore"`
	Loading     bool   `json:"loading"`
	LoadingMore bool   `json:"loadingMore"`
	Version     uint64 `json:"version"`
	Total       int    `json:"total"`
	Month       string `json:"month"`
	Type        string `json:"type"`
	Rows        []Row  `json:"rows"`
}
