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

type portfolioStorage struct {
	store  *Store
	logger *common.Logger
}

func newPortfolioStorage(store *Store, logger *common.Logger) *portfolioStorage {
	return &portfolioStorage{store: store, logger: logger}
}

func (s *portfolioStorage) GetHolding(_ context.Context, userID, symbol string) (*models.PortfolioHolding, error) {
	var h models.PortfolioHolding
	if err := s.store.db.Get(models.HoldingID(userID, symbol), &h); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrPositionNotFound
		}
		return nil, fmt.Errorf("failed to get holding %s for '%s': %w", symbol, userID, err)
	}
	return &h, nil
}

func (s *portfolioStorage) ListHoldings(_ context.Context, userID string) ([]*models.PortfolioHolding, error) {
	var holdings []models.PortfolioHolding
	q := badgerhold.Where("UserID").Eq(userID).Index("UserID")
	if err := s.store.db.Find(&holdings, q); err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", userID, err)
	}
	sort.Slice(holdings, func(i, j int) bool { return holdings[i].Symbol < holdings[j].Symbol })

	out := make([]*models.PortfolioHolding, len(holdings))
	for i := range holdings {
		out[i] = &holdings[i]
	}
	return out, nil
}
