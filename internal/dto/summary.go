package dto

import "github.com/GregMSThompson/ledger-backend/internal/models"

type InvestmentSplit struct {
	Deposits       float64 `json:"deposits"`
	WithdrawalsAbs float64 `json:"withdrawalsAbs"`
	Available      float64 `json:"available"`
	FixedIncome    float64 `json:"fixedIncome"`
	VariableIncome float64 `json:"variableIncome"`
	Total          float64 `json:"total"` // FixedIncome + VariableIncome, may be Available ± 1
}

type CategoryItem struct {
	Type    models.TransactionType `json:"type"`
	Label   string                 `json:"label"`
	Amount  float64                `json:"amount"`
	Percent float64                `json:"percent"`
}

type CategoryStats struct {
	Items []CategoryItem `json:"items"`
	Total float64        `json:"total"`
}

// Summary is everything derived from one ledger version.
type Summary struct {
	Version    uint64          `json:"version"`
	Balance    float64         `json:"balance"`
	Investment InvestmentSplit `json:"investment"`
	Categories CategoryStats   `json:"categories"`
}

type SummaryResponse struct {
	Summary
	Greeting            string `json:"greeting"`
	DateLabel           string `json:"dateLabel"`
	BalanceHidden       bool   `json:"balanceHidden"`
	BalanceFormatted    string `json:"balanceFormatted"`
	InvestmentFormatted struct {
		Total    string `json:"total"`
		Fixed    string `json:"fixed"`
		Variable string `json:"variable"`
	} `json:"investmentFormatted"`
}
