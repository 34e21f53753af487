package badger

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/timshannon/badgerhold/v4"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

type tradeStorage struct {
	store  *Store
	logger *common.Logger
}

func newTradeStorage(store *Store, logger *common.Logger) *tradeStorage {
	return &tradeStorage{store: store, logger: logger}
}

func (s *tradeStorage) GetTrade(_ context.Context, id string) (*models.Trade, error) {
	var t models.Trade
	if err := s.store.db.Get(id, &t); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrTradeNotFound
		}
		return nil, fmt.Errorf("failed to get trade '%s': %w", id, err)
	}
	return &t, nil
}

func (s *tradeStorage) ListTrades(_ context.Context, userID string, limit int) ([]*models.Trade, error) {
	return s.find(badgerhold.Where("UserID").Eq(userID).Index("UserID"), limit)
}

func (s *tradeStorage) ListTradesByStatus(_ context.Context, status models.TradeStatus) ([]*models.Trade, error) {
	return s.find(badgerhold.Where("Status").Eq(status).Index("Status"), 0)
}

func (s *tradeStorage) ListTradesSince(_ context.Context, since time.Time) ([]*models.Trade, error) {
	all, err := s.find(nil, 0)
	if err != nil {
		return nil, err
	}
	var out []*models.Trade
	for _, t := range all {
		if !t.CreatedAt.Before(since) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (s *tradeStorage) find(q *badgerhold.Query, limit int) ([]*models.Trade, error) {
	var trades []models.Trade
	if err := s.store.db.Find(&trades, q); err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	sortTradesNewestFirst(trades)
	if limit > 0 && len(trades) > limit {
		trades = trades[:limit]
	}
	out := make([]*models.Trade, len(trades))
	for i := range trades {
		out[i] = &trades[i]
	}
	return out, nil
}

func sortTradesNewestFirst(trades []models.Trade) {
	sort.Slice(trades, func(i, j int) bool {
		if trades[i].CreatedAt.Equal(trades[j].CreatedAt) {
			return trades[i].ID > trades[j].ID
		}
		return trades[i].CreatedAt.After(trades[j].CreatedAt)
	})
}
