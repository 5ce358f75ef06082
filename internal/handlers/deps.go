package handlers

import (
	"log/slog"

	"github.com/GregMSThompson/ledger-backend/internal/response"
)

type Deps struct {
	Log             *slog.Logger
	ResponseHandler response.ResponseHandler
	UserSvc         userService
	LedgerSvc       ledgerService
	ReceiptSvc      receiptService
	Hub             changeStream
	MaxReceiptBytes int64
	AllowedOrigins  []string
}
