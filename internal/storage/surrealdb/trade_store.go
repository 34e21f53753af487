package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// TradeStore implements interfaces.TradeStore using SurrealDB.
type TradeStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewTradeStore creates a new TradeStore.
func NewTradeStore(db *surrealdb.DB, logger *common.Logger) *TradeStore {
	return &TradeStore{db: db, logger: logger}
}

func (s *TradeStore) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	sql := "SELECT * OMIT id FROM trade WHERE trade_id = $trade_id LIMIT 1"
	rows, err := selectRecords[tradeRecord](ctx, s.db, sql, map[string]any{"trade_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get trade '%s': %w", id, err)
	}
	if len(rows) == 0 {
		return nil, models.ErrTradeNotFound
	}
	return rows[0].model(), nil
}

func (s *TradeStore) ListTrades(ctx context.Context, userID string, limit int) ([]*models.Trade, error) {
	// trade ids are time-ordered, so ordering by id is creation order
	sql := "SELECT * OMIT id FROM trade WHERE user_id = $user_id ORDER BY trade_id DESC" + limitClause(limit)
	return s.list(ctx, sql, map[string]any{"user_id": userID})
}

func (s *TradeStore) ListTradesByStatus(ctx context.Context, status models.TradeStatus) ([]*models.Trade, error) {
	sql := "SELECT * OMIT id FROM trade WHERE status = $status"
	return s.list(ctx, sql, map[string]any{"status": string(status)})
}

func (s *TradeStore) ListTradesSince(ctx context.Context, since time.Time) ([]*models.Trade, error) {
	all, err := s.list(ctx, "SELECT * OMIT id FROM trade", nil)
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

func (s *TradeStore) list(ctx context.Context, sql string, vars map[string]any) ([]*models.Trade, error) {
	rows, err := selectRecords[tradeRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list trades: %w", err)
	}
	out := make([]*models.Trade, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

var _ interfaces.TradeStore = (*TradeStore)(nil)
