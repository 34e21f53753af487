package surrealdb

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/models"
)

// Records mirror the models with decimals held as strings so that amounts
// survive the round trip exactly and stay readable in the database. The
// SurrealDB record id is omitted on read; each record carries its own id field.

type walletRecord struct {
	WalletID         string    `json:"wallet_id"`
	UserID           string    `json:"user_id"`
	Balance          string    `json:"balance"`
	AvailableBalance string    `json:"available_balance"`
	PendingBalance   string    `json:"pending_balance"`
	Currency         string    `json:"currency"`
	Status           string    `json:"status"`
	Version          int64     `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func toWalletRecord(w *models.Wallet) walletRecord {
	return walletRecord{
		WalletID:         w.ID,
		UserID:           w.UserID,
		Balance:          w.Balance.String(),
		AvailableBalance: w.AvailableBalance.String(),
		PendingBalance:   w.PendingBalance.String(),
		Currency:         w.Currency,
		Status:           string(w.Status),
		Version:          w.Version,
		CreatedAt:        w.CreatedAt,
		UpdatedAt:        w.UpdatedAt,
	}
}

func (r walletRecord) model() *models.Wallet {
	return &models.Wallet{
		ID:               r.WalletID,
		UserID:           r.UserID,
		Balance:          dec(r.Balance),
		AvailableBalance: dec(r.AvailableBalance),
		PendingBalance:   dec(r.PendingBalance),
		Currency:         r.Currency,
		Status:           models.WalletStatus(r.Status),
		Version:          r.Version,
		CreatedAt:        r.CreatedAt,
		UpdatedAt:        r.UpdatedAt,
	}
}

type transactionRecord struct {
	TxnID         string    `json:"txn_id"`
	WalletID      string    `json:"wallet_id"`
	UserID        string    `json:"user_id"`
	Type          string    `json:"type"`
	Amount        string    `json:"amount"`
	BalanceBefore string    `json:"balance_before"`
	BalanceAfter  string    `json:"balance_after"`
	Description   string    `json:"description"`
	ReferenceID   string    `json:"reference_id"`
	Status        string    `json:"status"`
	Sequence      int64     `json:"sequence"`
	CreatedAt     time.Time `json:"created_at"`
	CreatedBy     string    `json:"created_by"`
}

func toTransactionRecord(t *models.WalletTransaction) transactionRecord {
	return transactionRecord{
		TxnID:         t.ID,
		WalletID:      t.WalletID,
		UserID:        t.UserID,
		Type:          string(t.Type),
		Amount:        t.Amount.String(),
		BalanceBefore: t.BalanceBefore.String(),
		BalanceAfter:  t.BalanceAfter.String(),
		Description:   t.Description,
		ReferenceID:   t.ReferenceID,
		Status:        string(t.Status),
		Sequence:      t.Sequence,
		CreatedAt:     t.CreatedAt,
		CreatedBy:     t.CreatedBy,
	}
}

func (r transactionRecord) model() *models.WalletTransaction {
	return &models.WalletTransaction{
		ID:            r.TxnID,
		WalletID:      r.WalletID,
		UserID:        r.UserID,
		Type:          models.TransactionType(r.Type),
		Amount:        dec(r.Amount),
		BalanceBefore: dec(r.BalanceBefore),
		BalanceAfter:  dec(r.BalanceAfter),
		Description:   r.Description,
		ReferenceID:   r.ReferenceID,
		Status:        models.TransactionStatus(r.Status),
		Sequence:      r.Sequence,
		CreatedAt:     r.CreatedAt,
		CreatedBy:     r.CreatedBy,
	}
}

type holdingRecord struct {
	HoldingID    string    `json:"holding_id"`
	UserID       string    `json:"user_id"`
	Symbol       string    `json:"symbol"`
	Name         string    `json:"name"`
	Shares       string    `json:"shares"`
	AveragePrice string    `json:"average_price"`
	CurrentPrice string    `json:"current_price"`
	Sector       string    `json:"sector"`
	Version      int64     `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toHoldingRecord(h *models.PortfolioHolding) holdingRecord {
	return holdingRecord{
		HoldingID:    h.ID,
		UserID:       h.UserID,
		Symbol:       h.Symbol,
		Name:         h.Name,
		Shares:       h.Shares.String(),
		AveragePrice: h.AveragePrice.String(),
		CurrentPrice: h.CurrentPrice.String(),
		Sector:       h.Sector,
		Version:      h.Version,
		CreatedAt:    h.CreatedAt,
		UpdatedAt:    h.UpdatedAt,
	}
}

func (r holdingRecord) model() *models.PortfolioHolding {
	return &models.PortfolioHolding{
		ID:           r.HoldingID,
		UserID:       r.UserID,
		Symbol:       r.Symbol,
		Name:         r.Name,
		Shares:       dec(r.Shares),
		AveragePrice: dec(r.AveragePrice),
		CurrentPrice: dec(r.CurrentPrice),
		Sector:       r.Sector,
		Version:      r.Version,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

type tradeRecord struct {
	TradeID   string     `json:"trade_id"`
	UserID    string     `json:"user_id"`
	Symbol    string     `json:"symbol"`
	Name      string     `json:"name"`
	Type      string     `json:"type"`
	OrderType string     `json:"order_type"`
	Quantity  string     `json:"quantity"`
	Price     string     `json:"price"`
	Total     string     `json:"total"`
	Status    string     `json:"status"`
	Sector    string     `json:"sector"`
	CreatedBy string     `json:"created_by"`
	FilledBy  string     `json:"filled_by"`
	FilledAt  *time.Time `json:"filled_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

func toTradeRecord(t *models.Trade) tradeRecord {
	return tradeRecord{
		TradeID:   t.ID,
		UserID:    t.UserID,
		Symbol:    t.Symbol,
		Name:      t.Name,
		Type:      string(t.Type),
		OrderType: string(t.OrderType),
		Quantity:  t.Quantity.String(),
		Price:     t.Price.String(),
		Total:     t.Total.String(),
		Status:    string(t.Status),
		Sector:    t.Sector,
		CreatedBy: t.CreatedBy,
		FilledBy:  t.FilledBy,
		FilledAt:  t.FilledAt,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func (r tradeRecord) model() *models.Trade {
	return &models.Trade{
		ID:        r.TradeID,
		UserID:    r.UserID,
		Symbol:    r.Symbol,
		Name:      r.Name,
		Type:      models.TradeSide(r.Type),
		OrderType: models.OrderType(r.OrderType),
		Quantity:  dec(r.Quantity),
		Price:     dec(r.Price),
		Total:     dec(r.Total),
		Status:    models.TradeStatus(r.Status),
		Sector:    r.Sector,
		CreatedBy: r.CreatedBy,
		FilledBy:  r.FilledBy,
		FilledAt:  r.FilledAt,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

type fundingRecord struct {
	RequestID            string    `json:"request_id"`
	UserID               string    `json:"user_id"`
	UserEmail            string    `json:"user_email"`
	RequestedAmount      string    `json:"requested_amount"`
	Status               string    `json:"status"`
	Message              string    `json:"message"`
	AdminNotes           string    `json:"admin_notes"`
	ReviewedBy           string    `json:"reviewed_by"`
	DepositAmount        string    `json:"deposit_amount"`
	DepositTransactionID string    `json:"deposit_transaction_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toFundingRecord(f *models.FundingRequest) fundingRecord {
	return fundingRecord{
		RequestID:            f.ID,
		UserID:               f.UserID,
		UserEmail:            f.UserEmail,
		RequestedAmount:      f.RequestedAmount.String(),
		Status:               string(f.Status),
		Message:              f.Message,
		AdminNotes:           f.AdminNotes,
		ReviewedBy:           f.ReviewedBy,
		DepositAmount:        f.DepositAmount.String(),
		DepositTransactionID: f.DepositTransactionID,
		CreatedAt:            f.CreatedAt,
		UpdatedAt:            f.UpdatedAt,
	}
}

func (r fundingRecord) model() *models.FundingRequest {
	return &models.FundingRequest{
		ID:                   r.RequestID,
		UserID:               r.UserID,
		UserEmail:            r.UserEmail,
		RequestedAmount:      dec(r.RequestedAmount),
		Status:               models.FundingStatus(r.Status),
		Message:              r.Message,
		AdminNotes:           r.AdminNotes,
		ReviewedBy:           r.ReviewedBy,
		DepositAmount:        dec(r.DepositAmount),
		DepositTransactionID: r.DepositTransactionID,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// dec parses a stored amount; an empty or corrupt value reads as zero.
func dec(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return v
}
