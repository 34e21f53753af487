// Package interfaces defines service contracts for papertrade
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/papertrade/internal/models"
)

// StorageManager coordinates the ledger stores of one backend
type StorageManager interface {
	WalletStore() WalletStore
	PortfolioStore() PortfolioStore
	TradeStore() TradeStore
	FundingRequestStore() FundingRequestStore

	// Apply commits every write in cs atomically. Guard failures (stale
	// version, unexpected status, duplicate create) return
	// models.ErrConcurrentUpdate and leave the store unchanged.
	Apply(ctx context.Context, cs *models.ChangeSet) error

	// Lifecycle
	Close() error
}

// WalletStore reads wallets and their ledger entries
type WalletStore interface {
	// GetWallet returns models.ErrWalletNotFound when the user has no wallet.
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	ListWallets(ctx context.Context) ([]*models.Wallet, error)
	// ListTransactions returns entries newest first. limit <= 0 returns all.
	ListTransactions(ctx context.Context, walletID string, limit int) ([]*models.WalletTransaction, error)
}

// PortfolioStore reads holdings
type PortfolioStore interface {
	// GetHolding returns models.ErrPositionNotFound when absent.
	GetHolding(ctx context.Context, userID, symbol string) (*models.PortfolioHolding, error)
	ListHoldings(ctx context.Context, userID string) ([]*models.PortfolioHolding, error)
}

// TradeStore reads trades
type TradeStore interface {
	// GetTrade returns models.ErrTradeNotFound when absent.
	GetTrade(ctx context.Context, id string) (*models.Trade, error)
	// ListTrades returns a user's trades newest first. limit <= 0 returns all.
	ListTrades(ctx context.Context, userID string, limit int) ([]*models.Trade, error)
	ListTradesByStatus(ctx context.Context, status models.TradeStatus) ([]*models.Trade, error)
	ListTradesSince(ctx context.Context, since time.Time) ([]*models.Trade, error)
}

// FundingRequestStore reads funding requests
type FundingRequestStore interface {
	// GetFundingRequest returns models.ErrFundingRequestNotFound when absent.
	GetFundingRequest(ctx context.Context, id string) (*models.FundingRequest, error)
	// ListFundingRequests returns matches newest first.
	ListFundingRequests(ctx context.Context, filter models.FundingFilter) ([]*models.FundingRequest, error)
}

// Locker serializes operations sharing a key. The returned func releases the
// lock and is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
