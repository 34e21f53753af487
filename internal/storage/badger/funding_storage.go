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

type fundingStorage struct {
	store  *Store
	logger *common.Logger
}

func newFundingStorage(store *Store, logger *common.Logger) *fundingStorage {
	return &fundingStorage{store: store, logger: logger}
}

func (s *fundingStorage) GetFundingRequest(_ context.Context, id string) (*models.FundingRequest, error) {
	var r models.FundingRequest
	if err := s.store.db.Get(id, &r); err != nil {
		if errors.Is(err, badgerhold.ErrNotFound) {
			return nil, models.ErrFundingRequestNotFound
		}
		return nil, fmt.Errorf("failed to get funding request '%s': %w", id, err)
	}
	return &r, nil
}

func (s *fundingStorage) ListFundingRequests(_ context.Context, filter models.FundingFilter) ([]*models.FundingRequest, error) {
	var q *badgerhold.Query
	switch {
	case filter.UserID != "" && filter.Status != "":
		q = badgerhold.Where("UserID").Eq(filter.UserID).Index("UserID").And("Status").Eq(filter.Status)
	case filter.UserID != "":
		q = badgerhold.Where("UserID").Eq(filter.UserID).Index("UserID")
	case filter.Status != "":
		q = badgerhold.Where("Status").Eq(filter.Status).Index("Status")
	}

	var requests []models.FundingRequest
	if err := s.store.db.Find(&requests, q); err != nil {
		return nil, fmt.Errorf("failed to list funding requests: %w", err)
	}
	sort.Slice(requests, func(i, j int) bool {
		return requests[i].CreatedAt.After(requests[j].CreatedAt)
	})

	out := make([]*models.FundingRequest, len(requests))
	for i := range requests {
		out[i] = &requests[i]
	}
	return out, nil
}
