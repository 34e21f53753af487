package badger

import (
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/papertrade/internal/models"
)

// Apply commits cs inside one Badger read-write transaction. Every guard is
// checked against the transaction's snapshot; Badger's own conflict detection
// rejects the commit if a concurrent transaction touched the same keys.
func (m *Manager) Apply(ctx context.Context, cs *models.ChangeSet) error {
	if cs == nil || cs.Empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	db := m.store.db
	err := db.Badger().Update(func(tx *badger.Txn) error {
		for _, w := range cs.Wallets {
			if err := applyWallet(db, tx, w); err != nil {
				return err
			}
		}
		for _, entry := range cs.Transactions {
			if err := db.TxInsert(tx, entry.ID, entry); err != nil {
				if errors.Is(err, badgerhold.ErrKeyExists) {
					return fmt.Errorf("%w: transaction %s already recorded", models.ErrConcurrentUpdate, entry.ID)
				}
				return fmt.Errorf("insert transaction %s: %w", entry.ID, err)
			}
		}
		for _, h := range cs.Holdings {
			if err := applyHolding(db, tx, h); err != nil {
				return err
			}
		}
		for _, t := range cs.Trades {
			if err := applyTrade(db, tx, t); err != nil {
				return err
			}
		}
		for _, f := range cs.FundingRequests {
			if err := applyFunding(db, tx, f); err != nil {
				return err
			}
		}
		return nil
	})

	if errors.Is(err, badger.ErrConflict) {
		return fmt.Errorf("%w: %v", models.ErrConcurrentUpdate, err)
	}
	if err != nil {
		return err
	}

	m.logger.Debug().
		Int("wallets", len(cs.Wallets)).
		Int("transactions", len(cs.Transactions)).
		Int("holdings", len(cs.Holdings)).
		Int("trades", len(cs.Trades)).
		Int("funding_requests", len(cs.FundingRequests)).
		Msg("Change set applied")
	return nil
}

func applyWallet(db *badgerhold.Store, tx *badger.Txn, w models.WalletWrite) error {
	var current models.Wallet
	err := db.TxGet(tx, w.Wallet.UserID, &current)
	switch {
	case err == nil && w.Create:
		return fmt.Errorf("%w: wallet for %s already exists", models.ErrConcurrentUpdate, w.Wallet.UserID)
	case errors.Is(err, badgerhold.ErrNotFound) && !w.Create:
		return fmt.Errorf("%w: wallet for %s disappeared", models.ErrConcurrentUpdate, w.Wallet.UserID)
	case err != nil && !errors.Is(err, badgerhold.ErrNotFound):
		return fmt.Errorf("read wallet %s: %w", w.Wallet.UserID, err)
	case err == nil && current.Version != w.ExpectedVersion:
		return fmt.Errorf("%w: wallet for %s at version %d, expected %d",
			models.ErrConcurrentUpdate, w.Wallet.UserID, current.Version, w.ExpectedVersion)
	}
	if err := db.TxUpsert(tx, w.Wallet.UserID, w.Wallet); err != nil {
		return fmt.Errorf("write wallet %s: %w", w.Wallet.UserID, err)
	}
	return nil
}

func applyHolding(db *badgerhold.Store, tx *badger.Txn, h models.HoldingWrite) error {
	id := h.Holding.ID
	var current models.PortfolioHolding
	err := db.TxGet(tx, id, &current)
	switch {
	case err == nil && h.Create:
		return fmt.Errorf("%w: holding %s already exists", models.ErrConcurrentUpdate, id)
	case errors.Is(err, badgerhold.ErrNotFound) && !h.Create:
		return fmt.Errorf("%w: holding %s disappeared", models.ErrConcurrentUpdate, id)
	case err != nil && !errors.Is(err, badgerhold.ErrNotFound):
		return fmt.Errorf("read holding %s: %w", id, err)
	case err == nil && current.Version != h.ExpectedVersion:
		return fmt.Errorf("%w: holding %s at version %d, expected %d",
			models.ErrConcurrentUpdate, id, current.Version, h.ExpectedVersion)
	}

	if h.Delete {
		if err := db.TxDelete(tx, id, models.PortfolioHolding{}); err != nil {
			return fmt.Errorf("delete holding %s: %w", id, err)
		}
		return nil
	}
	if err := db.TxUpsert(tx, id, h.Holding); err != nil {
		return fmt.Errorf("write holding %s: %w", id, err)
	}
	return nil
}

func applyTrade(db *badgerhold.Store, tx *badger.Txn, t models.TradeWrite) error {
	id := t.Trade.ID
	if t.Create {
		if err := db.TxInsert(tx, id, t.Trade); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf("%w: trade %s already exists", models.ErrConcurrentUpdate, id)
			}
			return fmt.Errorf("insert trade %s: %w", id, err)
		}
		return nil
	}

	var current models.Trade
	if err := db.TxGet(tx, id, &current); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return models.ErrTradeNotFound
		}
		return fmt.Errorf("read trade %s: %w", id, err)
	}
	if current.Status != t.ExpectedStatus {
		return fmt.Errorf("%w: trade %s is %s, expected %s", models.ErrConcurrentUpdate, id, current.Status, t.ExpectedStatus)
	}
	if err := db.TxUpsert(tx, id, t.Trade); err != nil {
		return fmt.Errorf("write trade %s: %w", id, err)
	}
	return nil
}

func applyFunding(db *badgerhold.Store, tx *badger.Txn, f models.FundingWrite) error {
	id := f.Request.ID
	if f.Create {
		if err := db.TxInsert(tx, id, f.Request); err != nil {
			if errors.Is(err, badgerhold.ErrKeyExists) {
				return fmt.Errorf("%w: funding request %s already exists", models.ErrConcurrentUpdate, id)
			}
			return fmt.Errorf("insert funding request %s: %w", id, err)
		}
		return nil
	}

	var current models.FundingRequest
	if err := db.TxGet(tx, id, &current); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return models.ErrFundingRequestNotFound
		}
		return fmt.Errorf("read funding request %s: %w", id, err)
	}
	if current.Status != f.ExpectedStatus {
		return fmt.Errorf("%w: funding request %s is %s, expected %s", models.ErrConcurrentUpdate, id, current.Status, f.ExpectedStatus)
	}
	if err := db.TxUpsert(tx, id, f.Request); err != nil {
		return fmt.Errorf("write funding request %s: %w", id, err)
	}
	return nil
}
