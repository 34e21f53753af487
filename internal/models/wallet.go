package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletStatus is the lifecycle state of a wallet.
type WalletStatus string

const (
	WalletStatusActive    WalletStatus = "active"
	WalletStatusSuspended WalletStatus = "suspended"
	WalletStatusFrozen    WalletStatus = "frozen"
)

// DefaultCurrency is the only settlement currency.
const DefaultCurrency = "USD"

// Wallet holds one user's cash position. Balance only changes through a
// ledger entry; Version increments with every change and orders the ledger.
type Wallet struct {
	ID               string          `json:"id"`
	UserID           string          `json:"user_id" badgerhold:"key"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"available_balance"`
	PendingBalance   decimal.Decimal `json:"pending_balance"`
	Currency         string          `json:"currency"`
	Status           WalletStatus    `json:"status"`
	Version          int64           `json:"version"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// TransactionType classifies a ledger entry.
type TransactionType string

const (
	TransactionDeposit    TransactionType = "deposit"
	TransactionWithdrawal TransactionType = "withdrawal"
	TransactionTradeBuy   TransactionType = "trade_buy"
	TransactionTradeSell  TransactionType = "trade_sell"
	TransactionFee        TransactionType = "fee"
	TransactionAdjustment TransactionType = "adjustment"
)

// Valid reports whether t is a known transaction type.
func (t TransactionType) Valid() bool {
	switch t {
	case TransactionDeposit, TransactionWithdrawal, TransactionTradeBuy,
		TransactionTradeSell, TransactionFee, TransactionAdjustment:
		return true
	}
	return false
}

// Floored reports whether entries of this type may never take a balance below zero.
// Other types are governed by the configured adjustment policy.
func (t TransactionType) Floored() bool {
	switch t {
	case TransactionWithdrawal, TransactionTradeBuy, TransactionFee:
		return true
	}
	return false
}

// SignOK reports whether amount carries a sign its type allows. Debits are
// always negative; deposits, sells and adjustments may be reversed.
func (t TransactionType) SignOK(amount decimal.Decimal) bool {
	switch t {
	case TransactionWithdrawal, TransactionTradeBuy, TransactionFee:
		return amount.IsNegative()
	case TransactionDeposit, TransactionTradeSell, TransactionAdjustment:
		return !amount.IsZero()
	}
	return false
}

// TransactionStatus is always completed for now; the field is kept for pending
// settlement flows.
type TransactionStatus string

const TransactionCompleted TransactionStatus = "completed"

// Actors that appear in CreatedBy besides user ids.
const (
	ActorSystem = "system"
	ActorAdmin  = "admin"
)

// WalletTransaction is one immutable ledger entry.
type WalletTransaction struct {
	ID            string            `json:"id" badgerhold:"key"`
	WalletID      string            `json:"wallet_id" badgerhold:"index"`
	UserID        string            `json:"user_id"`
	Type          TransactionType   `json:"type"`
	Amount        decimal.Decimal   `json:"amount"`
	BalanceBefore decimal.Decimal   `json:"balance_before"`
	BalanceAfter  decimal.Decimal   `json:"balance_after"`
	Description   string            `json:"description"`
	ReferenceID   string            `json:"reference_id,omitempty"`
	Status        TransactionStatus `json:"status"`
	Sequence      int64             `json:"sequence"`
	CreatedAt     time.Time         `json:"created_at"`
	CreatedBy     string            `json:"created_by"`
}

// BalanceUpdate is the input to the single balance-mutation operation.
type BalanceUpdate struct {
	UserID      string
	Amount      decimal.Decimal
	Type        TransactionType
	Description string
	ReferenceID string
	CreatedBy   string
}

// LedgerBreak describes an entry that does not chain onto its predecessor.
type LedgerBreak struct {
	TransactionID string          `json:"transaction_id"`
	Sequence      int64           `json:"sequence"`
	Expected      decimal.Decimal `json:"expected_before"`
	Recorded      decimal.Decimal `json:"recorded_before"`
	Reason        string          `json:"reason"`
}

// Reconciliation is the result of replaying a wallet's ledger.
type Reconciliation struct {
	WalletID        string          `json:"wallet_id"`
	UserID          string          `json:"user_id"`
	StoredBalance   decimal.Decimal `json:"stored_balance"`
	ReplayedBalance decimal.Decimal `json:"replayed_balance"`
	Entries         int             `json:"entries"`
	Breaks          []LedgerBreak   `json:"breaks,omitempty"`
	Consistent      bool            `json:"consistent"`
}
