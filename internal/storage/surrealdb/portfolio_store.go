package surrealdb

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// PortfolioStore implements interfaces.PortfolioStore using SurrealDB.
type PortfolioStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewPortfolioStore creates a new PortfolioStore.
func NewPortfolioStore(db *surrealdb.DB, logger *common.Logger) *PortfolioStore {
	return &PortfolioStore{db: db, logger: logger}
}

func (s *PortfolioStore) GetHolding(ctx context.Context, userID, symbol string) (*models.PortfolioHolding, error) {
	sql := "SELECT * OMIT id FROM portfolio_holding WHERE holding_id = $holding_id LIMIT 1"
	rows, err := selectRecords[holdingRecord](ctx, s.db, sql, map[string]any{"holding_id": models.HoldingID(userID, symbol)})
	if err != nil {
		return nil, fmt.Errorf("failed to get holding %s for '%s': %w", symbol, userID, err)
	}
	if len(rows) == 0 {
		return nil, models.ErrPositionNotFound
	}
	return rows[0].model(), nil
}

func (s *PortfolioStore) ListHoldings(ctx context.Context, userID string) ([]*models.PortfolioHolding, error) {
	sql := "SELECT * OMIT id FROM portfolio_holding WHERE user_id = $user_id ORDER BY symbol ASC"
	rows, err := selectRecords[holdingRecord](ctx, s.db, sql, map[string]any{"user_id": userID})
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings for '%s': %w", userID, err)
	}
	out := make([]*models.PortfolioHolding, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	return out, nil
}

var _ interfaces.PortfolioStore = (*PortfolioStore)(nil)
