package interfaces

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/models"
)

// QuoteProvider resolves a live price. All failures surface as
// models.ErrQuoteUnavailable.
type QuoteProvider interface {
	GetQuote(ctx context.Context, symbol string) (*models.Quote, error)
}

// WalletService owns balances and the ledger
type WalletService interface {
	GetWallet(ctx context.Context, userID string) (*models.Wallet, error)
	CreateWallet(ctx context.Context, userID string, initialBalance decimal.Decimal) (*models.Wallet, error)
	CheckSufficientFunds(ctx context.Context, userID string, amount decimal.Decimal) bool
	UpdateBalance(ctx context.Context, update models.BalanceUpdate) (*models.WalletTransaction, error)
	ListTransactions(ctx context.Context, walletID string, limit int) ([]*models.WalletTransaction, error)
	Reconcile(ctx context.Context, userID string) (*models.Reconciliation, error)

	// Stage applies UpdateBalance's rules to cs without committing. The
	// caller must hold the user's lock and apply cs.
	Stage(ctx context.Context, cs *models.ChangeSet, update models.BalanceUpdate) (*models.WalletTransaction, error)
}

// PortfolioService owns holdings
type PortfolioService interface {
	GetHoldings(ctx context.Context, userID string) (*models.PortfolioView, error)
	GetStats(ctx context.Context, userID string) (*models.PortfolioStats, error)
	AddToPortfolio(ctx context.Context, change models.HoldingChange) (*models.PortfolioHolding, error)
	RemoveFromPortfolio(ctx context.Context, userID, symbol string, shares decimal.Decimal) (*models.PortfolioHolding, error)
	RefreshPrices(ctx context.Context, userID string) (int, error)

	// StageAdd and StageRemove apply the holding rules to cs without
	// committing. The caller must hold the user's lock and apply cs.
	StageAdd(ctx context.Context, cs *models.ChangeSet, change models.HoldingChange) (*models.PortfolioHolding, error)
	StageRemove(ctx context.Context, cs *models.ChangeSet, userID, symbol string, shares decimal.Decimal) (*models.PortfolioHolding, error)
}

// TradeService executes and manages orders
type TradeService interface {
	ExecuteTrade(ctx context.Context, userID string, order models.TradeOrder) (*models.Trade, error)
	FillOrder(ctx context.Context, tradeID, adminID string) (*models.Trade, error)
	CancelTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error)
	ListTrades(ctx context.Context, userID string, limit int) ([]*models.Trade, error)
	CreateOrderForUser(ctx context.Context, adminID, userID string, order models.TradeOrder) (*models.Trade, error)
	ListPendingOrders(ctx context.Context) ([]*models.Trade, error)
}

// FundingService runs the funding request workflow
type FundingService interface {
	Submit(ctx context.Context, userID, userEmail string, amount decimal.Decimal, message string) (*models.FundingRequest, error)
	Approve(ctx context.Context, requestID, adminID, notes string) (*models.FundingRequest, error)
	Reject(ctx context.Context, requestID, adminID, notes string) (*models.FundingRequest, error)
	Complete(ctx context.Context, requestID, adminID string, depositAmount decimal.Decimal, notes string) (*models.FundingRequest, error)
	ListRequests(ctx context.Context, status *models.FundingStatus) ([]*models.FundingRequest, error)
	ListUserRequests(ctx context.Context, userID string) ([]*models.FundingRequest, error)
}

// AdminService provides back-office views and balance adjustments
type AdminService interface {
	AdjustWallet(ctx context.Context, adminID, userID string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.WalletTransaction, error)
	Stats(ctx context.Context) (*models.AdminStats, error)
	UserStats(ctx context.Context, userID string) (*models.UserStats, error)
}
