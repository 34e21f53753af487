package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PortfolioHolding is a user's open position in one symbol. A holding with
// zero shares does not exist.
type PortfolioHolding struct {
	ID           string          `json:"id" badgerhold:"key"`
	UserID       string          `json:"user_id" badgerhold:"index"`
	Symbol       string          `json:"symbol"`
	Name         string          `json:"name"`
	Shares       decimal.Decimal `json:"shares"`
	AveragePrice decimal.Decimal `json:"average_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Sector       string          `json:"sector,omitempty"`
	Version      int64           `json:"version"`
	CreatedAt    time.Time       `json:"created_at"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// NormalizeSymbol upper-cases and trims a ticker.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// HoldingID is the deterministic key of a user's position in symbol.
func HoldingID(userID, symbol string) string {
	return userID + ":" + NormalizeSymbol(symbol)
}

// HoldingChange describes shares entering a portfolio.
type HoldingChange struct {
	UserID string
	Symbol string
	Name   string
	Shares decimal.Decimal
	Price  decimal.Decimal
	Sector string
}

// Price sources reported on a valued holding.
const (
	PriceSourceStored  = "stored"
	PriceSourceAverage = "average"
	PriceSourceNone    = "none"
)

// HoldingValuation is a holding priced at read time.
type HoldingValuation struct {
	PortfolioHolding
	Price          decimal.Decimal `json:"price"`
	Change         decimal.Decimal `json:"change"`
	ChangePercent  decimal.Decimal `json:"change_percent"`
	Value          decimal.Decimal `json:"value"`
	CostBasis      decimal.Decimal `json:"cost_basis"`
	Gain           decimal.Decimal `json:"gain"`
	GainPercent    decimal.Decimal `json:"gain_percent"`
	Allocation     decimal.Decimal `json:"allocation"`
	PriceSource    string          `json:"price_source"`
	PriceAvailable bool            `json:"price_available"`
}

// PortfolioView is the valued set of a user's holdings.
type PortfolioView struct {
	UserID     string             `json:"user_id"`
	Holdings   []HoldingValuation `json:"holdings"`
	TotalValue decimal.Decimal    `json:"total_value"`
	PricedAt   time.Time          `json:"priced_at"`
}

// PortfolioStats summarises a valued portfolio.
type PortfolioStats struct {
	UserID           string          `json:"user_id"`
	Positions        int             `json:"positions"`
	TotalValue       decimal.Decimal `json:"total_value"`
	TotalCost        decimal.Decimal `json:"total_cost"`
	TotalGain        decimal.Decimal `json:"total_gain"`
	TotalGainPercent decimal.Decimal `json:"total_gain_percent"`
	DayChange        decimal.Decimal `json:"day_change"`
	DayChangePercent decimal.Decimal `json:"day_change_percent"`
}
