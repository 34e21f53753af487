package surrealdb

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/surrealdb/surrealdb.go"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// FundingStore implements interfaces.FundingRequestStore using SurrealDB.
type FundingStore struct {
	db     *surrealdb.DB
	logger *common.Logger
}

// NewFundingStore creates a new FundingStore.
func NewFundingStore(db *surrealdb.DB, logger *common.Logger) *FundingStore {
	return &FundingStore{db: db, logger: logger}
}

func (s *FundingStore) GetFundingRequest(ctx context.Context, id string) (*models.FundingRequest, error) {
	sql := "SELECT * OMIT id FROM funding_request WHERE request_id = $request_id LIMIT 1"
	rows, err := selectRecords[fundingRecord](ctx, s.db, sql, map[string]any{"request_id": id})
	if err != nil {
		return nil, fmt.Errorf("failed to get funding request '%s': %w", id, err)
	}
	if len(rows) == 0 {
		return nil, models.ErrFundingRequestNotFound
	}
	return rows[0].model(), nil
}

func (s *FundingStore) ListFundingRequests(ctx context.Context, filter models.FundingFilter) ([]*models.FundingRequest, error) {
	var where []string
	vars := map[string]any{}
	if filter.UserID != "" {
		where = append(where, "user_id = $user_id")
		vars["user_id"] = filter.UserID
	}
	if filter.Status != "" {
		where = append(where, "status = $status")
		vars["status"] = string(filter.Status)
	}

	sql := "SELECT * OMIT id FROM funding_request"
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}

	rows, err := selectRecords[fundingRecord](ctx, s.db, sql, vars)
	if err != nil {
		return nil, fmt.Errorf("failed to list funding requests: %w", err)
	}
	out := make([]*models.FundingRequest, len(rows))
	for i := range rows {
		out[i] = rows[i].model()
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

var _ interfaces.FundingRequestStore = (*FundingStore)(nil)
