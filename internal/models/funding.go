package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// FundingStatus is the state of a funding request.
type FundingStatus string

const (
	FundingPending   FundingStatus = "pending"
	FundingApproved  FundingStatus = "approved"
	FundingRejected  FundingStatus = "rejected"
	FundingCompleted FundingStatus = "completed"
)

// Valid reports whether s is a known status.
func (s FundingStatus) Valid() bool {
	switch s {
	case FundingPending, FundingApproved, FundingRejected, FundingCompleted:
		return true
	}
	return false
}

// CanTransition reports whether the workflow allows from -> to.
// pending -> approved -> completed, pending -> rejected.
func (s FundingStatus) CanTransition(to FundingStatus) bool {
	switch s {
	case FundingPending:
		return to == FundingApproved || to == FundingRejected
	case FundingApproved:
		return to == FundingCompleted
	}
	return false
}

// FundingRequest is a user's request for an admin-credited deposit.
type FundingRequest struct {
	ID                   string          `json:"id" badgerhold:"key"`
	UserID               string          `json:"user_id" badgerhold:"index"`
	UserEmail            string          `json:"user_email"`
	RequestedAmount      decimal.Decimal `json:"requested_amount"`
	Status               FundingStatus   `json:"status" badgerhold:"index"`
	Message              string          `json:"message,omitempty"`
	AdminNotes           string          `json:"admin_notes,omitempty"`
	ReviewedBy           string          `json:"reviewed_by,omitempty"`
	DepositAmount        decimal.Decimal `json:"deposit_amount"`
	DepositTransactionID string          `json:"deposit_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// FundingFilter narrows a funding request listing. Zero values match all.
type FundingFilter struct {
	UserID string
	Status FundingStatus
}
