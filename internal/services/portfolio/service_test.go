package portfolio

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
	"github.com/bobmcallan/papertrade/internal/storage/badger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// mockQuotes serves fixed quotes; unknown symbols are unavailable.
type mockQuotes struct {
	quotes map[string]*models.Quote
}

func (m *mockQuotes) GetQuote(_ context.Context, symbol string) (*models.Quote, error) {
	if q, ok := m.quotes[symbol]; ok {
		return q, nil
	}
	return nil, models.ErrQuoteUnavailable
}

func quote(symbol, price, change string) *models.Quote {
	return &models.Quote{
		Symbol: symbol, Price: d(price), Change: d(change), ChangePercent: decimal.Zero,
		Source: "mock", Timestamp: time.Now(),
	}
}

func newTestService(t *testing.T, quotes interfaces.QuoteProvider) (*Service, interfaces.StorageManager) {
	t.Helper()
	store, err := badger.NewManager(common.NewSilentLogger(), filepath.Join(t.TempDir(), "ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store, quotes, common.NewLocalLocker(), common.NewSilentLogger()), store
}

func add(t *testing.T, svc *Service, user, symbol, shares, price string) *models.PortfolioHolding {
	t.Helper()
	h, err := svc.AddToPortfolio(context.Background(), models.HoldingChange{
		UserID: user, Symbol: symbol, Name: symbol + " Inc", Shares: d(shares), Price: d(price),
	})
	require.NoError(t, err)
	return h
}

func TestAddToPortfolio_WeightedAverage(t *testing.T) {
	svc, store := newTestService(t, &mockQuotes{})

	add(t, svc, "alice", "aapl", "10", "20")
	h := add(t, svc, "alice", "AAPL", "10", "30")

	assert.Equal(t, "AAPL", h.Symbol)
	assert.True(t, h.Shares.Equal(d("20")))
	assert.True(t, h.AveragePrice.Equal(d("25")))
	assert.True(t, h.CurrentPrice.Equal(d("30")))
	assert.Equal(t, int64(2), h.Version)

	stored, err := store.PortfolioStore().GetHolding(context.Background(), "alice", "AAPL")
	require.NoError(t, err)
	assert.True(t, stored.AveragePrice.Equal(d("25")))
}

func TestAddToPortfolio_Rejects(t *testing.T) {
	svc, _ := newTestService(t, &mockQuotes{})
	ctx := context.Background()

	bad := []models.HoldingChange{
		{UserID: "u", Symbol: "X", Shares: d("0"), Price: d("1")},
		{UserID: "u", Symbol: "X", Shares: d("1"), Price: d("-1")},
		{UserID: "u", Symbol: " ", Shares: d("1"), Price: d("1")},
		{UserID: "", Symbol: "X", Shares: d("1"), Price: d("1")},
	}
	for _, c := range bad {
		_, err := svc.AddToPortfolio(ctx, c)
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	}
}

func TestRemoveFromPortfolio(t *testing.T) {
	svc, store := newTestService(t, &mockQuotes{})
	ctx := context.Background()

	_, err := svc.RemoveFromPortfolio(ctx, "bob", "MSFT", d("1"))
	assert.ErrorIs(t, err, models.ErrPositionNotFound)

	add(t, svc, "bob", "MSFT", "10", "25")

	_, err = svc.RemoveFromPortfolio(ctx, "bob", "MSFT", d("11"))
	assert.ErrorIs(t, err, models.ErrInsufficientShares)

	h, err := svc.RemoveFromPortfolio(ctx, "bob", "msft", d("4"))
	require.NoError(t, err)
	assert.True(t, h.Shares.Equal(d("6")))
	assert.True(t, h.AveragePrice.Equal(d("25")))

	h, err = svc.RemoveFromPortfolio(ctx, "bob", "MSFT", d("6"))
	require.NoError(t, err)
	assert.True(t, h.Shares.IsZero())

	_, err = store.PortfolioStore().GetHolding(ctx, "bob", "MSFT")
	assert.ErrorIs(t, err, models.ErrPositionNotFound)
}

func TestStage_AddThenRemoveWithinOneChangeSet(t *testing.T) {
	svc, store := newTestService(t, &mockQuotes{})
	ctx := context.Background()
	add(t, svc, "carol", "TSLA", "5", "100")

	cs := &models.ChangeSet{}
	_, err := svc.StageAdd(ctx, cs, models.HoldingChange{UserID: "carol", Symbol: "TSLA", Shares: d("5"), Price: d("200")})
	require.NoError(t, err)
	h, err := svc.StageRemove(ctx, cs, "carol", "TSLA", d("10"))
	require.NoError(t, err)
	assert.True(t, h.Shares.IsZero())

	_, err = svc.StageRemove(ctx, cs, "carol", "TSLA", d("1"))
	assert.ErrorIs(t, err, models.ErrPositionNotFound)

	require.NoError(t, store.Apply(ctx, cs))
	_, err = store.PortfolioStore().GetHolding(ctx, "carol", "TSLA")
	assert.ErrorIs(t, err, models.ErrPositionNotFound)
}

func TestGetHoldings_PriceFallbacks(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "40", "2")}}
	svc, _ := newTestService(t, quotes)
	ctx := context.Background()

	add(t, svc, "dave", "AAPL", "10", "20")
	add(t, svc, "dave", "MSFT", "10", "30")

	view, err := svc.GetHoldings(ctx, "dave")
	require.NoError(t, err)
	require.Len(t, view.Holdings, 2)

	aapl, msft := view.Holdings[0], view.Holdings[1]
	assert.Equal(t, "mock", aapl.PriceSource)
	assert.True(t, aapl.Value.Equal(d("400")))
	assert.True(t, aapl.Gain.Equal(d("200")))
	assert.True(t, aapl.GainPercent.Equal(d("100")))
	assert.True(t, aapl.Change.Equal(d("2")))

	assert.Equal(t, models.PriceSourceStored, msft.PriceSource)
	assert.True(t, msft.Price.Equal(d("30")))
	assert.True(t, msft.Change.IsZero())
	assert.True(t, msft.PriceAvailable)

	assert.True(t, view.TotalValue.Equal(d("700")))
	assert.True(t, aapl.Allocation.Add(msft.Allocation).Sub(d("100")).Abs().LessThanOrEqual(d("0.01")))
	assert.True(t, aapl.Allocation.Equal(d("57.14")))
}

func TestValue_NoPriceAnywhere(t *testing.T) {
	v := value(&models.PortfolioHolding{Symbol: "ZZZ", Shares: d("3")}, nil)
	assert.False(t, v.PriceAvailable)
	assert.Equal(t, models.PriceSourceNone, v.PriceSource)
	assert.True(t, v.Value.IsZero())
}

func TestGetHoldings_EmptyPortfolio(t *testing.T) {
	svc, _ := newTestService(t, &mockQuotes{})
	view, err := svc.GetHoldings(context.Background(), "nobody")
	require.NoError(t, err)
	assert.Empty(t, view.Holdings)
	assert.True(t, view.TotalValue.IsZero())
}

func TestGetStats(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*models.Quote{
		"AAPL": quote("AAPL", "40", "2"),
		"MSFT": quote("MSFT", "30", "-1"),
	}}
	svc, _ := newTestService(t, quotes)
	add(t, svc, "erin", "AAPL", "10", "20")
	add(t, svc, "erin", "MSFT", "10", "30")

	stats, err := svc.GetStats(context.Background(), "erin")
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Positions)
	assert.True(t, stats.TotalValue.Equal(d("700")))
	assert.True(t, stats.TotalCost.Equal(d("500")))
	assert.True(t, stats.TotalGain.Equal(d("200")))
	assert.True(t, stats.TotalGainPercent.Equal(d("40")))
	assert.True(t, stats.DayChange.Equal(d("10")))
}

func TestRefreshPrices(t *testing.T) {
	quotes := &mockQuotes{quotes: map[string]*models.Quote{"AAPL": quote("AAPL", "42.5", "0")}}
	svc, store := newTestService(t, quotes)
	ctx := context.Background()
	add(t, svc, "frank", "AAPL", "1", "40")
	add(t, svc, "frank", "IBM", "1", "100")

	n, err := svc.RefreshPrices(ctx, "frank")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	h, err := store.PortfolioStore().GetHolding(ctx, "frank", "AAPL")
	require.NoError(t, err)
	assert.True(t, h.CurrentPrice.Equal(d("42.5")))
	assert.True(t, h.AveragePrice.Equal(d("40")))

	n, err = svc.RefreshPrices(ctx, "frank")
	require.NoError(t, err)
	assert.Zero(t, n)
}
