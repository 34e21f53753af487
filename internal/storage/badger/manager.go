package badger

import (
	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
)

// Manager implements interfaces.StorageManager on one BadgerHold store.
type Manager struct {
	store  *Store
	logger *common.Logger

	wallets   *walletStorage
	portfolio *portfolioStorage
	trades    *tradeStorage
	funding   *fundingStorage
}

// NewManager opens the store at path and wires the ledger stores.
func NewManager(logger *common.Logger, path string) (*Manager, error) {
	store, err := NewStore(logger, path)
	if err != nil {
		return nil, err
	}

	m := &Manager{
		store:     store,
		logger:    logger,
		wallets:   newWalletStorage(store, logger),
		portfolio: newPortfolioStorage(store, logger),
		trades:    newTradeStorage(store, logger),
		funding:   newFundingStorage(store, logger),
	}

	logger.Info().Str("path", path).Msg("Badger storage manager initialized")
	return m, nil
}

func (m *Manager) WalletStore() interfaces.WalletStore {
	return m.wallets
}

func (m *Manager) PortfolioStore() interfaces.PortfolioStore {
	return m.portfolio
}

func (m *Manager) TradeStore() interfaces.TradeStore {
	return m.trades
}

func (m *Manager) FundingRequestStore() interfaces.FundingRequestStore {
	return m.funding
}

func (m *Manager) Close() error {
	return m.store.Close()
}

// Compile-time check
var _ interfaces.StorageManager = (*Manager)(nil)
