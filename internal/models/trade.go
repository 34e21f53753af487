package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TradeSide is buy or sell.
type TradeSide string

const (
	TradeBuy  TradeSide = "buy"
	TradeSell TradeSide = "sell"
)

// OrderType decides whether a trade settles immediately.
type OrderType string

const (
	OrderMarket OrderType = "market"
	OrderLimit  OrderType = "limit"
	OrderStop   OrderType = "stop"
)

// TradeStatus is the lifecycle state of a trade.
type TradeStatus string

const (
	TradePending   TradeStatus = "pending"
	TradeExecuted  TradeStatus = "executed"
	TradeCancelled TradeStatus = "cancelled"
)

// Trade is a buy or sell order and, once executed, its settlement record.
type Trade struct {
	ID        string          `json:"id" badgerhold:"key"`
	UserID    string          `json:"user_id" badgerhold:"index"`
	Symbol    string          `json:"symbol"`
	Name      string          `json:"name"`
	Type      TradeSide       `json:"type"`
	OrderType OrderType       `json:"order_type"`
	Quantity  decimal.Decimal `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Total     decimal.Decimal `json:"total"`
	Status    TradeStatus     `json:"status" badgerhold:"index"`
	Sector    string          `json:"sector,omitempty"`
	CreatedBy string          `json:"created_by"`
	FilledBy  string          `json:"filled_by,omitempty"`
	FilledAt  *time.Time      `json:"filled_at,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// TradeOrder is a request to trade. Price is optional: market orders ignore
// it, limit and stop orders fall back to a live quote when it is nil.
type TradeOrder struct {
	Symbol    string           `json:"symbol"`
	Name      string           `json:"name"`
	Type      TradeSide        `json:"type"`
	OrderType OrderType        `json:"order_type"`
	Quantity  decimal.Decimal  `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Sector    string           `json:"sector,omitempty"`
}

// Validate checks the order shape.
func (o TradeOrder) Validate() error {
	if NormalizeSymbol(o.Symbol) == "" {
		return invalid("symbol is required")
	}
	if o.Type != TradeBuy && o.Type != TradeSell {
		return invalid("type must be buy or sell")
	}
	switch o.OrderType {
	case OrderMarket, OrderLimit, OrderStop:
	default:
		return invalid("order_type must be market, limit or stop")
	}
	if !o.Quantity.IsPositive() {
		return invalid("quantity must be positive")
	}
	if o.Price != nil && !o.Price.IsPositive() {
		return invalid("price must be positive")
	}
	return nil
}
