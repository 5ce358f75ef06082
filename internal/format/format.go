// Package format renders money and calendar values the way the app shows them (pt-BR, BRL).
package format

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	currencySymbol = "R$"
	dateLayout     = "02/01/2006"

	// HiddenCurrency replaces a balance the user chose to hide.
	HiddenCurrency = "R$ ••••••"
)

var (
	locale = language.BrazilianPortuguese

	monthNames = [...]string{
		"janeiro", "fevereiro", "março", "abril", "maio", "junho",
		"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
	}
	weekdayNames = [...]string{
		"domingo", "segunda-feira", "terça-feira", "quarta-feira",
		"quinta-feira", "sexta-feira", "sábado",
	}
)

// Currency formats v as BRL, e.g. 1234.5 -> "R$ 1.234,50" and -80 -> "-R$ 80,00".
func Currency(v float64) string {
	d := decimal.NewFromFloat(v).Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	return fmt.Sprintf("%s%s %s", sign, currencySymbol, message.NewPrinter(locale).Sprint(number.Decimal(d.InexactFloat64(), number.Scale(2))))
}

// Date is the dd/mm/yyyy snapshot stored on each transaction.
func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// Month is the capitalised pt-BR month name used to group the ledger ("Novembro").
func Month(t time.Time) string {
	return capitalize(monthNames[t.Month()-1])
}

// Weekday renders the dashboard header date, e.g. "Quinta-feira, 08/09/2022".
func Weekday(t time.Time) string {
	return fmt.Sprintf("%s, %s", capitalize(weekdayNames[t.Weekday()]), Date(t))
}

// capitalize upper-cases the first letter only; cases.Title would also capitalise the part
// after the hyphen in "quinta-feira".
func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	// Casers keep state, so one per call.
	return cases.Upper(locale).String(string(r)) + s[size:]
}
