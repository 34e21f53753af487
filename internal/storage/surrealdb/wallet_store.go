package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// WalletStore implements interfaces.WalletStore using SurrealDB.
type WalletStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewWalletStore creates a new WalletStore.
func NewWalletStore(db *surrealdb.DB, logger *common.Logger) *WalletStore {
	return &WalletStore{db: db, logger: logger}
}

func (s *WalletStore) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	sql := "SELECT * OMIT id FROM wallet WHERE user_id = $user_id LIMIT 1"
	rows, err := selectRecords[walletRecord](ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to get wallet for '%s': %w", userID, err)
	}
	if len(rows) == 0 {
		return nil, models.ErrWalletNotFound
	}
	return rows[0].model(), nil
}

func (s *WalletStore) ListWallets(ctx context.Context) ([]*models.Wallet, error) {
	rows, err := selectRecords[walletRecord](ctx, s.db, "SELECT * OMIT id FROM wallet", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	out := make([]*models.Wallet, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

func (s *WalletStore) ListTransactions(ctx context.Context, walletID string, limit int) ([]*models.WalletTransaction, error) {
	sql := "SELECT * OMIT id FROM wallet_transaction WHERE wallet_id = $wallet_id ORDER BY sequence DESC" + limitClause(limit)
	rows, err := selectRecords[transactionRecord](ctx, s.db, sql, map[string]any{"wallet_id": walletID})
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for wallet '%s': %w", walletID, err)
	}
	out := make([]*models.WalletTransaction, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

var _ interfaces.WalletStore = (*WalletStore)(nil)
