// Package surrealdb provides the SurrealDB ledger store.
package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
)

// Table names.
const (
	tableWallet         = "wallet"
	tableTransaction    = "wallet_transaction"
	tableHolding        = "portfolio_holding"
	tableTrade          = "trade"
	tableFundingRequest = "funding_request"
)

// Manager implements interfaces.StorageManager using SurrealDB.
type Manager struct {
	db     *surrealdb.DB
	logger *common.Logger

	walletStore    *WalletStore
	portfolioStore *PortfolioStore
	tradeStore     *TradeStore
	fundingStore   *FundingStore
}

// NewManager creates a new StorageManager connected to SurrealDB.
func NewManager(logger *common.Logger, config common.SurrealDBConfig) (*Manager, error) {
	ctx := context.Background()

	db, err := surrealdb.New(config.Address)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to SurrealDB: %w", err)
	}

	if _, err := db.SignIn(ctx, map[string]interface{}{
		"user": config.Username,
		"pass": config.Password,
	}); err != nil {
		return nil, fmt.Errorf("failed to sign in to SurrealDB: %w", err)
	}

	if err := db.Use(ctx, config.Namespace, config.Database); err != nil {
		return nil, fmt.Errorf("failed to select namespace/database: %w", err)
	}

	m, err := newManager(ctx, db, logger)
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str("address", config.Address).
		Str("namespace", config.Namespace).
		Str("database", config.Database).
		Msg("SurrealDB storage manager initialized")

	return m, nil
}

// newManager defines the tables on an open connection and wires the stores.
func newManager(ctx context.Context, db *surrealdb.DB, logger *common.Logger) (*Manager, error) {
	// SurrealDB v3 errors on querying non-existent tables
	tables := []string{tableWallet, tableTransaction, tableHolding, tableTrade, tableFundingRequest}
	for _, table := range tables {
		sql := fmt.Sprintf("DEFINE TABLE IF NOT EXISTS %s SCHEMALESS", table)
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define table %s: %w", table, err)
		}
	}

	indexes := []string{
		"DEFINE INDEX IF NOT EXISTS wallet_user ON wallet FIELDS user_id UNIQUE",
		"DEFINE INDEX IF NOT EXISTS wtx_wallet ON wallet_transaction FIELDS wallet_id",
		"DEFINE INDEX IF NOT EXISTS holding_user ON portfolio_holding FIELDS user_id",
		"DEFINE INDEX IF NOT EXISTS trade_user ON trade FIELDS user_id",
		"DEFINE INDEX IF NOT EXISTS trade_status ON trade FIELDS status",
		"DEFINE INDEX IF NOT EXISTS funding_status ON funding_request FIELDS status",
	}
	for _, sql := range indexes {
		if _, err := surrealdb.Query[any](ctx, db, sql, nil); err != nil {
			return nil, fmt.Errorf("failed to define index: %w", err)
		}
	}

	return &Manager{
		db:             db,
		logger:         logger,
		walletStore:    NewWalletStore(db, logger),
		portfolioStore: NewPortfolioStore(db, logger),
		tradeStore:     NewTradeStore(db, logger),
		fundingStore:   NewFundingStore(db, logger),
	}, nil
}

func (m *Manager) WalletStore() interfaces.WalletStore {
	return m.walletStore
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolioStore
}

func (m *Manager) TradeStore() interfaces.TradeStore {
	return m.tradeStore
}

func (m *Manager) FundingRequestStore() interfaces.FundingRequestStore {
	return m.fundingStore
}

func (m *Manager) Close() error {
	m.db.Close(context.Background())
	return nil
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
