package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminStats is the back-office overview.
type AdminStats struct {
	Wallets                int             `json:"wallets"`
	TotalWalletBalance     decimal.Decimal `json:"total_wallet_balance"`
	TradesToday            int             `json:"trades_today"`
	VolumeToday            decimal.Decimal `json:"volume_today"`
	PendingOrders          int             `json:"pending_orders"`
	PendingFundingRequests int             `json:"pending_funding_requests"`
	AsOf                   time.Time       `json:"as_of"`
}

// UserStats is one user's account summary.
type UserStats struct {
	UserID           string          `json:"user_id"`
	WalletBalance    decimal.Decimal `json:"wallet_balance"`
	PortfolioValue   decimal.Decimal `json:"portfolio_value"`
	TotalTrades      int             `json:"total_trades"`
	TotalDeposits    decimal.Decimal `json:"total_deposits"`
	TotalWithdrawals decimal.Decimal `json:"total_withdrawals"`
	ProfitLoss       decimal.Decimal `json:"profit_loss"`
	ProfitLossPct    decimal.Decimal `json:"profit_loss_percent"`
}
