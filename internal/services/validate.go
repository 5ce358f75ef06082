package services

import (
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/GregMSThompson/ledger-backend/internal/errs"
	"github.com/GregMSThompson/ledger-backend/internal/models"
)

const (
	minDescriptionLen = 3
	maxDescriptionLen = 100
)

var maxAmount = decimal.NewFromInt(100000)

// parseAmount reads an amount as typed in the app: "150", "12,50" or "12.50".
func parseAmount(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, errs.NewValidationError("Valor é obrigatório")
	}
	d, err := decimal.NewFromString(strings.Replace(raw, ",", ".", 1))
	if err != nil {
		return decimal.Zero, errs.NewValidationError("Valor deve ser um número válido")
	}
	if !d.IsPositive() {
		return decimal.Zero, errs.NewValidationError("Valor deve ser maior que zero")
	}
	if d.GreaterThan(maxAmount) {
		return decimal.Zero, errs.NewValidationError("Valor não pode exceder R$ 100.000")
	}
	return d, nil
}

func validateDescription(s string) error {
	if strings.TrimSpace(s) == "" {
		return errs.NewValidationError("Descrição é obrigatória")
	}
	n := utf8.RuneCountInString(s)
	if n < minDescriptionLen {
		return errs.NewValidationError("Descrição deve ter pelo menos 3 caracteres")
	}
	if n > maxDescriptionLen {
		return errs.NewValidationError("Descrição não pode exceder 100 caracteres")
	}
	return nil
}

func parseType(raw string) (models.TransactionType, error) {
	t, ok := models.ParseTransactionType(raw)
	if !ok {
		return "", errs.NewValidationError("Tipo de transação inválido")
	}
	return t, nil
}

// signedAmount applies the sign convention of t to an absolute amount.
func signedAmount(t models.TransactionType, abs decimal.Decimal) float64 {
	if t.Sign() < 0 {
		abs = abs.Neg()
	}
	return abs.InexactFloat64()
}
