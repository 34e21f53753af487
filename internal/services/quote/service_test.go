package quote

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
)

// --- Mocks ---

type mockSource struct {
	name  string
	price string
	err   error
	delay time.Duration

	mu    sync.Mutex
	calls int
}

func (m *mockSource) Name() string { return m.name }

func (m *mockSource) GetQuote(ctx context.Context, symbol string) (*models.Quote, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	return &models.Quote{Symbol: symbol, Price: decimal.RequireFromString(m.price), Timestamp: time.Now()}, nil
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func newTestService(t *testing.T, cfg common.QuotesConfig, sources ...interfaces.QuoteSource) *Service {
	t.Helper()
	svc, err := NewService(sources, cfg, common.NewSilentLogger())
	require.NoError(t, err)
	t.Cleanup(svc.Close)
	return svc
}

// --- Tests ---

func TestGetQuote_FirstSourceWins(t *testing.T) {
	primary := &mockSource{name: "primary", price: "10"}
	secondary := &mockSource{name: "secondary", price: "20"}
	svc := newTestService(t, common.QuotesConfig{}, primary, secondary)

	q, err := svc.GetQuote(context.Background(), "aapl")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, "primary", q.Source)
	assert.Equal(t, "AAPL", q.Symbol)
	assert.Zero(t, secondary.callCount())
}

func TestGetQuote_FallsBackOnError(t *testing.T) {
	primary := &mockSource{name: "primary", err: errors.New("boom")}
	secondary := &mockSource{name: "secondary", price: "20"}
	svc := newTestService(t, common.QuotesConfig{}, primary, secondary)

	q, err := svc.GetQuote(context.Background(), "MSFT")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Source)
}

func TestGetQuote_ZeroPriceIsNotAQuote(t *testing.T) {
	primary := &mockSource{name: "primary", price: "0"}
	secondary := &mockSource{name: "secondary", price: "5"}
	svc := newTestService(t, common.QuotesConfig{}, primary, secondary)

	q, err := svc.GetQuote(context.Background(), "X")
	require.NoError(t, err)
	assert.Equal(t, "secondary", q.Source)
}

func TestGetQuote_AllFail(t *testing.T) {
	svc := newTestService(t, common.QuotesConfig{},
		&mockSource{name: "a", err: errors.New("down")},
		&mockSource{name: "b", err: models.ErrRateLimited},
	)
	_, err := svc.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)

	_, err = svc.GetQuote(context.Background(), "  ")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
}

func TestGetQuote_Cached(t *testing.T) {
	src := &mockSource{name: "primary", price: "10"}
	svc := newTestService(t, common.QuotesConfig{CacheTTL: "1m"}, src)

	_, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	q, err := svc.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 1, src.callCount())
}

func TestGetQuote_RateLimitedSourceCoolsDown(t *testing.T) {
	limited := &mockSource{name: "limited", err: models.ErrRateLimited}
	backup := &mockSource{name: "backup", price: "7"}
	svc := newTestService(t, common.QuotesConfig{Cooldown: "1m", CacheTTL: "1ms"}, limited, backup)

	now := time.Date(2026, 1, 5, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.GetQuote(context.Background(), "AAA")
	require.NoError(t, err)
	_, err = svc.GetQuote(context.Background(), "BBB")
	require.NoError(t, err)
	assert.Equal(t, 1, limited.callCount())

	now = now.Add(2 * time.Minute)
	_, err = svc.GetQuote(context.Background(), "CCC")
	require.NoError(t, err)
	assert.Equal(t, 2, limited.callCount())
}

func TestGetQuote_Timeout(t *testing.T) {
	slow := &mockSource{name: "slow", price: "1", delay: time.Second}
	svc := newTestService(t, common.QuotesConfig{Timeout: "20ms"}, slow)

	start := time.Now()
	_, err := svc.GetQuote(context.Background(), "SLOW")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestGetQuote_SlowSourceFallsThrough(t *testing.T) {
	slow := &mockSource{name: "finnhub", price: "1", delay: time.Second}
	fast := &mockSource{name: "synthetic", price: "42"}
	svc := newTestService(t, common.QuotesConfig{Timeout: "50ms"}, slow, fast)

	q, err := svc.GetQuote(context.Background(), "ABC")
	require.NoError(t, err)
	assert.True(t, q.Price.Equal(decimal.NewFromInt(42)))
	assert.Equal(t, "synthetic", q.Source)
	assert.Equal(t, 1, fast.callCount())
}

func TestGetQuote_CancelledCallerStopsChain(t *testing.T) {
	first := &mockSource{name: "first", err: errors.New("boom")}
	second := &mockSource{name: "second", price: "7"}
	svc := newTestService(t, common.QuotesConfig{}, first, second)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.GetQuote(ctx, "ABC")
	assert.ErrorIs(t, err, models.ErrQuoteUnavailable)
	assert.Equal(t, 0, second.callCount())
}
