// Package admin provides back-office views and manual balance adjustments.
package admin

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// Compile-time interface check
var _ interfaces.AdminService = (*Service)(nil)

// Service implements AdminService
type Service struct {
	storage interfaces.StorageManager
	wallets interfaces.WalletService
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new admin service
func NewService(storage interfaces.StorageManager, wallets interfaces.WalletService, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		wallets: wallets,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// adjustableTypes are the entry types an admin may post by hand.
var adjustableTypes = map[models.TransactionType]bool{
	models.TransactionAdjustment: true,
	models.TransactionDeposit:    true,
	models.TransactionWithdrawal: true,
	models.TransactionFee:        true,
}

// AdjustWallet posts a manual entry through the normal balance update.
func (s *Service) AdjustWallet(ctx context.Context, adminID, userID string, amount decimal.Decimal, txType models.TransactionType, description string) (*models.WalletTransaction, error) {
	if err := common.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if txType == "" {
		txType = models.TransactionAdjustment
	}
	if !adjustableTypes[txType] {
		return nil, models.Invalid("admins cannot post %s entries", txType)
	}
	if description == "" {
		description = "Admin " + string(txType)
	}

	entry, err := s.wallets.UpdateBalance(ctx, models.BalanceUpdate{
		UserID:      userID,
		Amount:      amount,
		Type:        txType,
		Description: description,
		CreatedBy:   adminID,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("admin_id", adminID).
		Str("user_id", userID).
		Str("type", string(txType)).
		Str("amount", amount.String()).
		Msg("Wallet adjusted by admin")
	return entry, nil
}

// Stats returns the back-office overview. "Today" starts at midnight UTC.
func (s *Service) Stats(ctx context.Context) (*models.AdminStats, error) {
	now := s.now()
	stats := &models.AdminStats{
		TotalWalletBalance: decimal.Zero,
		VolumeToday:        decimal.Zero,
		AsOf:               now,
	}

	wallets, err := s.storage.WalletStore().ListWallets(ctx)
	if err != nil {
		return nil, err
	}
	stats.Wallets = len(wallets)
	for _, w := range wallets {
		stats.TotalWalletBalance = stats.TotalWalletBalance.Add(w.Balance)
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.storage.TradeStore().ListTradesSince(ctx, startOfDay)
	if err != nil {
		return nil, err
	}
	stats.TradesToday = len(today)
	for _, t := range today {
		if t.Status == models.TradeExecuted {
			stats.VolumeToday = stats.VolumeToday.Add(t.Total)
		}
	}

	pending, err := s.storage.TradeStore().ListTradesByStatus(ctx, models.TradePending)
	if err != nil {
		return nil, err
	}
	stats.PendingOrders = len(pending)

	requests, err := s.storage.FundingRequestStore().ListFundingRequests(ctx, models.FundingFilter{Status: models.FundingPending})
	if err != nil {
		return nil, err
	}
	stats.PendingFundingRequests = len(requests)
	return stats, nil
}

// UserStats summarises one account. Holdings are valued at their stored
// current price; no live quotes are fetched.
func (s *Service) UserStats(ctx context.Context, userID string) (*models.UserStats, error) {
	stats := &models.UserStats{
		UserID:           userID,
		WalletBalance:    decimal.Zero,
		PortfolioValue:   decimal.Zero,
		TotalDeposits:    decimal.Zero,
		TotalWithdrawals: decimal.Zero,
		ProfitLoss:       decimal.Zero,
		ProfitLossPct:    decimal.Zero,
	}

	w, err := s.storage.WalletStore().GetWallet(ctx, userID)
	switch {
	case err == nil:
		stats.WalletBalance = w.Balance
		entries, err := s.storage.WalletStore().ListTransactions(ctx, w.ID, 0)
		if err != nil {
			return nil, err
		}
		for _, e := range entries {
			switch e.Type {
			case models.TransactionDeposit:
				stats.TotalDeposits = stats.TotalDeposits.Add(e.Amount)
			case models.TransactionWithdrawal:
				stats.TotalWithdrawals = stats.TotalWithdrawals.Add(e.Amount.Abs())
			}
		}
	case !errors.Is(err, models.ErrWalletNotFound):
		return nil, err
	}

	holdings, err := s.storage.PortfolioStore().ListHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}
	cost := decimal.Zero
	for _, h := range holdings {
		stats.PortfolioValue = stats.PortfolioValue.Add(h.Shares.Mul(h.CurrentPrice))
		cost = cost.Add(h.Shares.Mul(h.AveragePrice))
	}
	stats.ProfitLoss = stats.PortfolioValue.Sub(cost)
	if cost.IsPositive() {
		stats.ProfitLossPct = stats.ProfitLoss.Div(cost).Mul(decimal.NewFromInt(100)).Round(2)
	}

	trades, err := s.storage.TradeStore().ListTrades(ctx, userID, 0)
	if err != nil {
		return nil, err
	}
	stats.TotalTrades = len(trades)
	return stats, nil
}
