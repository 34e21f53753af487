// Package portfolio owns share holdings and values them against live quotes.
package portfolio

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// Compile-time interface check
var _ interfaces.PortfolioService = (*Service)(nil)

// quoteConcurrency bounds parallel quote lookups for one portfolio.
const quoteConcurrency = 8

var hundred = decimal.NewFromInt(100)

// Service implements PortfolioService
type Service struct {
	storage interfaces.StorageManager
	quotes  interfaces.QuoteProvider
	locker  interfaces.Locker
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new portfolio service
func NewService(storage interfaces.StorageManager, quotes interfaces.QuoteProvider, locker interfaces.Locker, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		quotes:  quotes,
		locker:  locker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// AddToPortfolio records bought shares.
func (s *Service) AddToPortfolio(ctx context.Context, change models.HoldingChange) (*models.PortfolioHolding, error) {
	unlock, err := s.locker.Lock(ctx, common.UserLockKey(change.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cs := &models.ChangeSet{}
	h, err := s.StageAdd(ctx, cs, change)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to add holding: %w", err)
	}
	return h, nil
}

// RemoveFromPortfolio records sold shares. The returned holding has zero
// shares when the position was closed.
func (s *Service) RemoveFromPortfolio(ctx context.Context, userID, symbol string, shares decimal.Decimal) (*models.PortfolioHolding, error) {
	unlock, err := s.locker.Lock(ctx, common.UserLockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cs := &models.ChangeSet{}
	h, err := s.StageRemove(ctx, cs, userID, symbol, shares)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to remove holding: %w", err)
	}
	return h, nil
}

// StageAdd creates the position or folds the shares into it at a
// shares-weighted average price.
func (s *Service) StageAdd(ctx context.Context, cs *models.ChangeSet, change models.HoldingChange) (*models.PortfolioHolding, error) {
	symbol := models.NormalizeSymbol(change.Symbol)
	switch {
	case strings.TrimSpace(change.UserID) == "":
		return nil, models.Invalid("user id is required")
	case symbol == "":
		return nil, models.Invalid("symbol is required")
	case !change.Shares.IsPositive():
		return nil, models.Invalid("shares must be positive")
	case !change.Price.IsPositive():
		return nil, models.Invalid("price must be positive")
	}

	current, err := s.currentHolding(ctx, cs, change.UserID, symbol)
	if err != nil && !errors.Is(err, models.ErrPositionNotFound) {
		return nil, err
	}

	now := s.now()
	if current == nil {
		h := &models.PortfolioHolding{
			ID:           models.HoldingID(change.UserID, symbol),
			UserID:       change.UserID,
			Symbol:       symbol,
			Name:         change.Name,
			Shares:       change.Shares,
			AveragePrice: change.Price,
			CurrentPrice: change.Price,
			Sector:       change.Sector,
			Version:      1,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		cs.PutHolding(models.HoldingWrite{Holding: h, Create: true})
		return h, nil
	}

	next := *current
	next.Shares = current.Shares.Add(change.Shares)
	next.AveragePrice = current.Shares.Mul(current.AveragePrice).
		Add(change.Shares.Mul(change.Price)).
		Div(next.Shares)
	next.CurrentPrice = change.Price
	if change.Name != "" {
		next.Name = change.Name
	}
	if change.Sector != "" {
		next.Sector = change.Sector
	}
	next.Version = current.Version + 1
	next.UpdatedAt = now
	cs.PutHolding(models.HoldingWrite{Holding: &next, ExpectedVersion: current.Version})
	return &next, nil
}

// StageRemove takes shares out of a position, deleting it when none remain.
// The average price of what is left is unchanged.
func (s *Service) StageRemove(ctx context.Context, cs *models.ChangeSet, userID, symbol string, shares decimal.Decimal) (*models.PortfolioHolding, error) {
	if !shares.IsPositive() {
		return nil, models.Invalid("shares must be positive")
	}
	symbol = models.NormalizeSymbol(symbol)

	current, err := s.currentHolding(ctx, cs, userID, symbol)
	if err != nil {
		return nil, err
	}
	if shares.GreaterThan(current.Shares) {
		return nil, fmt.Errorf("%w: hold %s %s, selling %s", models.ErrInsufficientShares, current.Shares, symbol, shares)
	}

	next := *current
	next.Shares = current.Shares.Sub(shares)
	next.Version = current.Version + 1
	next.UpdatedAt = s.now()
	cs.PutHolding(models.HoldingWrite{
		Holding:         &next,
		ExpectedVersion: current.Version,
		Delete:          next.Shares.IsZero(),
	})
	return &next, nil
}

// currentHolding returns the staged holding if cs already touches it, else the
// stored one.
func (s *Service) currentHolding(ctx context.Context, cs *models.ChangeSet, userID, symbol string) (*models.PortfolioHolding, error) {
	if hw, ok := cs.StagedHolding(models.HoldingID(userID, symbol)); ok {
		if hw.Delete {
			return nil, models.ErrPositionNotFound
		}
		return hw.Holding, nil
	}
	return s.storage.PortfolioStore().GetHolding(ctx, userID, symbol)
}

// GetHoldings values every holding. Quotes are fetched in parallel; a failed
// quote falls back to the stored price, then the average price.
func (s *Service) GetHoldings(ctx context.Context, userID string) (*models.PortfolioView, error) {
	holdings, err := s.storage.PortfolioStore().ListHoldings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	quotes := s.fetchQuotes(ctx, holdings)

	view := &models.PortfolioView{
		UserID:     userID,
		Holdings:   make([]models.HoldingValuation, len(holdings)),
		TotalValue: decimal.Zero,
		PricedAt:   s.now(),
	}
	for i, h := range holdings {
		v := value(h, quotes[i])
		view.Holdings[i] = v
		view.TotalValue = view.TotalValue.Add(v.Value)
	}

	// allocation needs the total, so it is a second pass
	for i := range view.Holdings {
		if view.TotalValue.IsPositive() {
			view.Holdings[i].Allocation = view.Holdings[i].Value.Div(view.TotalValue).Mul(hundred).Round(2)
		} else {
			view.Holdings[i].Allocation = decimal.Zero
		}
	}
	return view, nil
}

// fetchQuotes returns one quote per holding, nil where unavailable.
func (s *Service) fetchQuotes(ctx context.Context, holdings []*models.PortfolioHolding) []*models.Quote {
	quotes := make([]*models.Quote, len(holdings))
	if s.quotes == nil {
		return quotes
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(quoteConcurrency)
	for i, h := range holdings {
		g.Go(func() error {
			q, err := s.quotes.GetQuote(gctx, h.Symbol)
			if err != nil {
				s.logger.Debug().Err(err).Str("symbol", h.Symbol).Msg("Quote unavailable, using stored price")
				return nil
			}
			quotes[i] = q
			return nil
		})
	}
	_ = g.Wait()
	return quotes
}

func value(h *models.PortfolioHolding, q *models.Quote) models.HoldingValuation {
	v := models.HoldingValuation{
		PortfolioHolding: *h,
		Change:           decimal.Zero,
		ChangePercent:    decimal.Zero,
		PriceAvailable:   true,
	}

	switch {
	case q != nil && q.Price.IsPositive():
		v.Price = q.Price
		v.Change = q.Change
		v.ChangePercent = q.ChangePercent
		v.PriceSource = q.Source
	case h.CurrentPrice.IsPositive():
		v.Price = h.CurrentPrice
		v.PriceSource = models.PriceSourceStored
	case h.AveragePrice.IsPositive():
		v.Price = h.AveragePrice
		v.PriceSource = models.PriceSourceAverage
	default:
		v.Price = decimal.Zero
		v.PriceSource = models.PriceSourceNone
		v.PriceAvailable = false
	}

	v.Value = h.Shares.Mul(v.Price)
	v.CostBasis = h.Shares.Mul(h.AveragePrice)
	v.Gain = v.Value.Sub(v.CostBasis)
	v.GainPercent = percent(v.Gain, v.CostBasis)
	if !v.PriceAvailable {
		v.Gain = decimal.Zero
		v.GainPercent = decimal.Zero
	}
	return v
}

// percent returns part/whole*100 rounded to 2 places, or zero for an empty whole.
func percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(hundred).Round(2)
}

// GetStats summarises the valued portfolio.
func (s *Service) GetStats(ctx context.Context, userID string) (*models.PortfolioStats, error) {
	view, err := s.GetHoldings(ctx, userID)
	if err != nil {
		return nil, err
	}

	stats := &models.PortfolioStats{
		UserID:     userID,
		Positions:  len(view.Holdings),
		TotalValue: view.TotalValue,
		TotalCost:  decimal.Zero,
		DayChange:  decimal.Zero,
	}
	for _, h := range view.Holdings {
		stats.TotalCost = stats.TotalCost.Add(h.CostBasis)
		stats.DayChange = stats.DayChange.Add(h.Shares.Mul(h.Change))
	}
	stats.TotalGain = stats.TotalValue.Sub(stats.TotalCost)
	stats.TotalGainPercent = percent(stats.TotalGain, stats.TotalCost)
	stats.DayChangePercent = percent(stats.DayChange, stats.TotalValue.Sub(stats.DayChange))
	return stats, nil
}

// RefreshPrices persists the latest quote of each holding as its current
// price and returns how many holdings changed.
func (s *Service) RefreshPrices(ctx context.Context, userID string) (int, error) {
	holdings, err := s.storage.PortfolioStore().ListHoldings(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list holdings: %w", err)
	}
	quotes := s.fetchQuotes(ctx, holdings)
	prices := make(map[string]decimal.Decimal, len(holdings))
	for i, h := range holdings {
		if quotes[i] != nil && quotes[i].Price.IsPositive() {
			prices[h.Symbol] = quotes[i].Price
		}
	}
	if len(prices) == 0 {
		return 0, nil
	}

	unlock, err := s.locker.Lock(ctx, common.UserLockKey(userID))
	if err != nil {
		return 0, err
	}
	defer unlock()

	// re-read under the lock; trades may have landed while quoting
	holdings, err = s.storage.PortfolioStore().ListHoldings(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to list holdings: %w", err)
	}

	cs := &models.ChangeSet{}
	now := s.now()
	for _, h := range holdings {
		price, ok := prices[h.Symbol]
		if !ok || price.Equal(h.CurrentPrice) {
			continue
		}
		next := *h
		next.CurrentPrice = price
		next.Version = h.Version + 1
		next.UpdatedAt = now
		cs.PutHolding(models.HoldingWrite{Holding: &next, ExpectedVersion: h.Version})
	}
	if cs.Empty() {
		return 0, nil
	}
	if err := s.storage.Apply(ctx, cs); err != nil {
		return 0, fmt.Errorf("failed to refresh prices: %w", err)
	}

	s.logger.Info().Str("user_id", userID).Int("updated", len(cs.Holdings)).Msg("Holding prices refreshed")
	return len(cs.Holdings), nil
}
