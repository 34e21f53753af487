package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

type walletStorage struct {
	store  *Store
	logger *common.Logger
}

func newWalletStorage(store *Store, logger *common.Logger) *walletStorage {
	return &walletStorage{store: store, logger: logger}
}

func (s *walletStorage) GetWallet(_ context.Context, userID string) (*models.Wallet, error) {
	var w models.Wallet
	if err := s.store.db.Get(userID, &w); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrWalletNotFound
		}
		return nil, fmt.Errorf("failed to get wallet for '%s': %w", userID, err)
	}
	return &w, nil
}

func (s *walletStorage) ListWallets(_ context.Context) ([]*models.Wallet, error) {
	var wallets []models.Wallet
	if err := s.store.db.Find(&wallets, nil); err != nil {
		return nil, fmt.Errorf("failed to list wallets: %w", err)
	}
	out := make([]*models.Wallet, len(wallets))
	for i := range wallets {
		out[i] = &wallets[i]
	}
	return out, nil
}

func (s *walletStorage) ListTransactions(_ context.Context, walletID string, limit int) ([]*models.WalletTransaction, error) {
	var entries []models.WalletTransaction
	q := badgerhold.Where("WalletID").Eq(walletID).Index("WalletID")
	if err := s.store.db.Find(&entries, q); err != nil {
		return nil, fmt.Errorf("failed to list transactions for wallet '%s': %w", walletID, err)
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Sequence > entries[j].Sequence
	})
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}

	out := make([]*models.WalletTransaction, len(entries))
	for i := range entries {
		out[i] = &entries[i]
	}
	return out, nil
}
