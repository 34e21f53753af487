// Package trade places, settles and cancels orders.
package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/metrics"
	"github.com/bobmcallan/papertrade/internal/models"
)

// Compile-time interface check
var _ interfaces.TradeService = (*Service)(nil)

// DefaultListLimit bounds ListTrades when the caller passes no limit.
const DefaultListLimit = 50

// Service implements TradeService. Settlement of an executed order (trade
// record, wallet, ledger entry, holding) is one change set.
type Service struct {
	storage   interfaces.StorageManager
	wallets   interfaces.WalletService
	portfolio interfaces.PortfolioService
	quotes    interfaces.QuoteProvider
	locker    interfaces.Locker
	logger    *common.Logger
	now       func() time.Time
}

// NewService creates a new trade service
func NewService(
	storage interfaces.StorageManager,
	wallets interfaces.WalletService,
	portfolio interfaces.PortfolioService,
	quotes interfaces.QuoteProvider,
	locker interfaces.Locker,
	logger *common.Logger,
) *Service {
	return &Service{
		storage:   storage,
		wallets:   wallets,
		portfolio: portfolio,
		quotes:    quotes,
		locker:    locker,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteTrade places an order for the user. Market orders settle
// immediately; limit and stop orders wait for an admin fill.
func (s *Service) ExecuteTrade(ctx context.Context, userID string, order models.TradeOrder) (*models.Trade, error) {
	return s.place(ctx, userID, userID, order, false)
}

// CreateOrderForUser places a pending order on a user's behalf.
func (s *Service) CreateOrderForUser(ctx context.Context, adminID, userID string, order models.TradeOrder) (*models.Trade, error) {
	if err := common.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	return s.place(ctx, userID, adminID, order, true)
}

func (s *Service) place(ctx context.Context, userID, createdBy string, order models.TradeOrder, forcePending bool) (*models.Trade, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.Invalid("user id is required")
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	order.Symbol = models.NormalizeSymbol(order.Symbol)

	price, err := s.resolvePrice(ctx, userID, order)
	if err != nil {
		return nil, err
	}
	total := order.Quantity.Mul(price)

	unlock, err := s.locker.Lock(ctx, common.UserLockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if order.Type == models.TradeBuy && !s.wallets.CheckSufficientFunds(ctx, userID, total) {
		return nil, fmt.Errorf("%w: order total %s", models.ErrInsufficientFunds, total)
	}

	now := s.now()
	t := &models.Trade{
		ID:        common.NewID(common.PrefixTrade),
		UserID:    userID,
		Symbol:    order.Symbol,
		Name:      order.Name,
		Type:      order.Type,
		OrderType: order.OrderType,
		Quantity:  order.Quantity,
		Price:     price,
		Total:     total,
		Status:    models.TradePending,
		Sector:    order.Sector,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}

	cs := &models.ChangeSet{}
	if order.OrderType == models.OrderMarket && !forcePending {
		if err := s.settle(ctx, cs, t, createdBy); err != nil {
			return nil, err
		}
		t.Status = models.TradeExecuted
		t.FilledAt = &now
		t.FilledBy = models.ActorSystem
	} else if order.Type == models.TradeSell {
		if err := s.checkPosition(ctx, userID, order.Symbol, order.Quantity); err != nil {
			return nil, err
		}
	}
	cs.PutTrade(t, "", true)

	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to record trade: %w", err)
	}
	metrics.RecordLedger(cs)
	metrics.Trades.WithLabelValues(string(t.Type), string(t.OrderType), string(t.Status)).Inc()

	s.logger.Info().
		Str("trade_id", t.ID).
		Str("user_id", userID).
		Str("symbol", t.Symbol).
		Str("side", string(t.Type)).
		Str("quantity", t.Quantity.String()).
		Str("price", t.Price.String()).
		Str("status", string(t.Status)).
		Msg("Order placed")
	return t, nil
}

// resolvePrice picks the execution price: the caller's price for limit and
// stop orders, else a live quote, else the stored price of the user's holding.
func (s *Service) resolvePrice(ctx context.Context, userID string, order models.TradeOrder) (decimal.Decimal, error) {
	if order.OrderType != models.OrderMarket && order.Price != nil {
		return *order.Price, nil
	}

	if s.quotes != nil {
		q, err := s.quotes.GetQuote(ctx, order.Symbol)
		if err == nil && q.Price.IsPositive() {
			return q.Price, nil
		}
		s.logger.Warn().Err(err).Str("symbol", order.Symbol).Msg("Live quote unavailable, trying stored price")
	}

	h, err := s.storage.PortfolioStore().GetHolding(ctx, userID, order.Symbol)
	if err == nil && h.CurrentPrice.IsPositive() {
		return h.CurrentPrice, nil
	}
	return decimal.Zero, fmt.Errorf("%w: %s", models.ErrPriceUnavailable, order.Symbol)
}

func (s *Service) checkPosition(ctx context.Context, userID, symbol string, quantity decimal.Decimal) error {
	h, err := s.storage.PortfolioStore().GetHolding(ctx, userID, symbol)
	if err != nil {
		return err
	}
	if quantity.GreaterThan(h.Shares) {
		return fmt.Errorf("%w: hold %s %s, selling %s", models.ErrInsufficientShares, h.Shares, symbol, quantity)
	}
	return nil
}

// settle stages the cash and holding side of t. A sell removes the shares
// before crediting, so selling a missing position writes nothing.
func (s *Service) settle(ctx context.Context, cs *models.ChangeSet, t *models.Trade, actor string) error {
	desc := fmt.Sprintf("%s %s shares of %s", sideVerb(t.Type), t.Quantity, t.Symbol)

	switch t.Type {
	case models.TradeBuy:
		if _, err := s.wallets.Stage(ctx, cs, models.BalanceUpdate{
			UserID:      t.UserID,
			Amount:      t.Total.Neg(),
			Type:        models.TransactionTradeBuy,
			Description: desc,
			ReferenceID: t.ID,
			CreatedBy:   actor,
		}); err != nil {
			return err
		}
		_, err := s.portfolio.StageAdd(ctx, cs, models.HoldingChange{
			UserID: t.UserID,
			Symbol: t.Symbol,
			Name:   t.Name,
			Shares: t.Quantity,
			Price:  t.Price,
			Sector: t.Sector,
		})
		return err

	case models.TradeSell:
		if _, err := s.portfolio.StageRemove(ctx, cs, t.UserID, t.Symbol, t.Quantity); err != nil {
			return err
		}
		_, err := s.wallets.Stage(ctx, cs, models.BalanceUpdate{
			UserID:      t.UserID,
			Amount:      t.Total,
			Type:        models.TransactionTradeSell,
			Description: desc,
			ReferenceID: t.ID,
			CreatedBy:   actor,
		})
		return err
	}
	return models.Invalid("unknown trade type %q", t.Type)
}

func sideVerb(side models.TradeSide) string {
	if side == models.TradeSell {
		return "Sell"
	}
	return "Buy"
}

// FillOrder settles a pending order at its stored price.
func (s *Service) FillOrder(ctx context.Context, tradeID, adminID string) (*models.Trade, error) {
	if err := common.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}

	t, err := s.storage.TradeStore().GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, common.UserLockKey(t.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	// re-read under the user's lock
	if t, err = s.storage.TradeStore().GetTrade(ctx, tradeID); err != nil {
		return nil, err
	}
	if t.Status != models.TradePending {
		return nil, fmt.Errorf("%w: trade %s is %s", models.ErrOrderNotPending, tradeID, t.Status)
	}

	cs := &models.ChangeSet{}
	if err := s.settle(ctx, cs, t, adminID); err != nil {
		return nil, err
	}

	now := s.now()
	filled := *t
	filled.Status = models.TradeExecuted
	filled.FilledAt = &now
	filled.FilledBy = adminID
	filled.UpdatedAt = now
	cs.PutTrade(&filled, models.TradePending, false)

	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to fill order: %w", err)
	}
	metrics.RecordLedger(cs)
	metrics.Trades.WithLabelValues(string(filled.Type), string(filled.OrderType), string(filled.Status)).Inc()

	s.logger.Info().Str("trade_id", tradeID).Str("admin_id", adminID).Str("user_id", t.UserID).Msg("Order filled")
	return &filled, nil
}

// CancelTrade cancels a pending order owned by the user. Admins may cancel
// any order.
func (s *Service) CancelTrade(ctx context.Context, userID, tradeID string) (*models.Trade, error) {
	t, err := s.storage.TradeStore().GetTrade(ctx, tradeID)
	if err != nil {
		return nil, err
	}
	if t.UserID != userID && !common.IsAdminContext(ctx) {
		return nil, models.ErrForbidden
	}

	unlock, err := s.locker.Lock(ctx, common.UserLockKey(t.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if t, err = s.storage.TradeStore().GetTrade(ctx, tradeID); err != nil {
		return nil, err
	}
	if t.Status != models.TradePending {
		return nil, fmt.Errorf("%w: trade %s is %s", models.ErrOrderNotPending, tradeID, t.Status)
	}

	cancelled := *t
	cancelled.Status = models.TradeCancelled
	cancelled.UpdatedAt = s.now()
	cs := &models.ChangeSet{}
	cs.PutTrade(&cancelled, models.TradePending, false)
	if err := s.storage.Apply(ctx, cs); err != nil {
		if errors.Is(err, models.ErrConcurrentUpdate) {
			return nil, fmt.Errorf("%w: trade %s changed while cancelling", models.ErrOrderNotPending, tradeID)
		}
		return nil, fmt.Errorf("failed to cancel trade: %w", err)
	}
	metrics.Trades.WithLabelValues(string(cancelled.Type), string(cancelled.OrderType), string(cancelled.Status)).Inc()

	s.logger.Info().Str("trade_id", tradeID).Str("user_id", t.UserID).Msg("Order cancelled")
	return &cancelled, nil
}

// ListTrades returns the user's trades newest first.
func (s *Service) ListTrades(ctx context.Context, userID string, limit int) ([]*models.Trade, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.storage.TradeStore().ListTrades(ctx, userID, limit)
}

// ListPendingOrders returns every order awaiting a fill.
func (s *Service) ListPendingOrders(ctx context.Context) ([]*models.Trade, error) {
	return s.storage.TradeStore().ListTradesByStatus(ctx, models.TradePending)
}
