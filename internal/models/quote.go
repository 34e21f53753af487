package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is a point-in-time price for a symbol.
type Quote struct {
	Symbol        string          `json:"symbol"`
	Price         decimal.Decimal `json:"price"`
	Change        decimal.Decimal `json:"change"`
	ChangePercent decimal.Decimal `json:"change_percent"`
	PreviousClose decimal.Decimal `json:"previous_close"`
	Source        string          `json:"source"`
	Timestamp     time.Time       `json:"timestamp"`
}
