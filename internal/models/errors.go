package models

import (
	"errors"
	"fmt"
)

// Ledger and settlement errors. Callers match with errors.Is; messages may be
// wrapped with amounts or ids.
var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientShares     = errors.New("insufficient shares")
	ErrPositionNotFound       = errors.New("position not found")
	ErrOrderNotPending        = errors.New("order is not pending")
	ErrWalletNotFound         = errors.New("wallet not found")
	ErrWalletExists           = errors.New("wallet already exists")
	ErrQuoteUnavailable       = errors.New("quote unavailable")
	ErrPriceUnavailable       = errors.New("price unavailable")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrTradeNotFound          = errors.New("trade not found")
	ErrFundingRequestNotFound = errors.New("funding request not found")
	ErrForbidden              = errors.New("forbidden")
	ErrInvalidInput           = errors.New("invalid input")
	ErrConcurrentUpdate       = errors.New("concurrent update")
	ErrRateLimited            = errors.New("rate limited")
)

func invalid(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// Invalid wraps ErrInvalidInput with a message.
func Invalid(format string, args ...any) error {
	return invalid(fmt.Sprintf(format, args...))
}
