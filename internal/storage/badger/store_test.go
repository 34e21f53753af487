package badger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/models"
)

// --- Test helpers ---

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager(common.NewSilentLogger(), filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func walletAt(userID string, version int64, balance string) *models.Wallet {
	return &models.Wallet{
		ID:               "wlt_" + userID,
		UserID:           userID,
		Balance:          d(balance),
		AvailableBalance: d(balance),
		Currency:         models.DefaultCurrency,
		Status:           models.WalletStatusActive,
		Version:          version,
		CreatedAt:        time.Now(),
		UpdatedAt:        time.Now(),
	}
}

// --- Store tests ---

func TestStore_OpenClose(t *testing.T) {
	store, err := NewStore(common.NewSilentLogger(), filepath.Join(t.TempDir(), "badger"))
	require.NoError(t, err)
	require.NotNil(t, store.DB())
	require.NoError(t, store.Close())
}

func TestStore_CloseNilDB(t *testing.T) {
	store := &Store{}
	assert.NoError(t, store.Close())
}

func TestWalletStore_NotFound(t *testing.T) {
	m := newTestManager(t)
	_, err := m.WalletStore().GetWallet(context.Background(), "nobody")
	assert.ErrorIs(t, err, models.ErrWalletNotFound)
}

func TestApply_WalletAndLedgerRoundTrip(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	w := walletAt("alice", 1, "100")
	cs := &models.ChangeSet{}
	cs.PutWallet(w, 0, true)
	cs.AddTransaction(&models.WalletTransaction{
		ID: "wtx_1", WalletID: w.ID, UserID: "alice", Type: models.TransactionDeposit,
		Amount: d("100"), BalanceBefore: d("0"), BalanceAfter: d("100"),
		Status: models.TransactionCompleted, Sequence: 1, CreatedAt: time.Now(), CreatedBy: models.ActorSystem,
	})
	require.NoError(t, m.Apply(ctx, cs))

	got, err := m.WalletStore().GetWallet(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("100")))
	assert.Equal(t, int64(1), got.Version)

	entries, err := m.WalletStore().ListTransactions(ctx, w.ID, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, entries[0].BalanceAfter.Equal(d("100")))
}

func TestApply_StaleVersionRejectsWholeChangeSet(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	seed := &models.ChangeSet{}
	seed.PutWallet(walletAt("bob", 3, "50"), 0, true)
	require.NoError(t, m.Apply(ctx, seed))

	cs := &models.ChangeSet{}
	cs.PutWallet(walletAt("bob", 3, "10"), 2, false) // stored version is 3
	cs.AddTransaction(&models.WalletTransaction{ID: "wtx_stale", WalletID: "wlt_bob", UserID: "bob"})
	cs.PutTrade(&models.Trade{ID: "trd_x", UserID: "bob", Status: models.TradeExecuted, CreatedAt: time.Now()}, "", true)

	err := m.Apply(ctx, cs)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrConcurrentUpdate))

	got, err := m.WalletStore().GetWallet(ctx, "bob")
	require.NoError(t, err)
	assert.True(t, got.Balance.Equal(d("50")), "wallet must be untouched")

	entries, err := m.WalletStore().ListTransactions(ctx, "wlt_bob", 0)
	require.NoError(t, err)
	assert.Empty(t, entries, "no ledger entry may be written")

	_, err = m.TradeStore().GetTrade(ctx, "trd_x")
	assert.ErrorIs(t, err, models.ErrTradeNotFound, "no trade may be written")
}

func TestApply_DuplicateCreateRejected(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cs := &models.ChangeSet{}
	cs.PutWallet(walletAt("carol", 0, "0"), 0, true)
	require.NoError(t, m.Apply(ctx, cs))

	again := &models.ChangeSet{}
	again.PutWallet(walletAt("carol", 0, "0"), 0, true)
	assert.ErrorIs(t, m.Apply(ctx, again), models.ErrConcurrentUpdate)
}

func TestApply_HoldingLifecycle(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	id := models.HoldingID("dave", "aapl")

	h := &models.PortfolioHolding{ID: id, UserID: "dave", Symbol: "AAPL", Shares: d("10"), AveragePrice: d("20"), Version: 1}
	cs := &models.ChangeSet{}
	cs.PutHolding(models.HoldingWrite{Holding: h, Create: true})
	require.NoError(t, m.Apply(ctx, cs))

	got, err := m.PortfolioStore().GetHolding(ctx, "dave", "AAPL")
	require.NoError(t, err)
	assert.True(t, got.Shares.Equal(d("10")))

	list, err := m.PortfolioStore().ListHoldings(ctx, "dave")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	del := &models.ChangeSet{}
	del.PutHolding(models.HoldingWrite{Holding: got, ExpectedVersion: 1, Delete: true})
	require.NoError(t, m.Apply(ctx, del))

	_, err = m.PortfolioStore().GetHolding(ctx, "dave", "AAPL")
	assert.ErrorIs(t, err, models.ErrPositionNotFound)
}

func TestApply_TradeStatusGuard(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	trade := &models.Trade{ID: "trd_1", UserID: "erin", Status: models.TradePending, CreatedAt: time.Now()}
	cs := &models.ChangeSet{}
	cs.PutTrade(trade, "", true)
	require.NoError(t, m.Apply(ctx, cs))

	cancelled := *trade
	cancelled.Status = models.TradeCancelled
	cs = &models.ChangeSet{}
	cs.PutTrade(&cancelled, models.TradePending, false)
	require.NoError(t, m.Apply(ctx, cs))

	executed := *trade
	executed.Status = models.TradeExecuted
	cs = &models.ChangeSet{}
	cs.PutTrade(&executed, models.TradePending, false)
	assert.ErrorIs(t, m.Apply(ctx, cs), models.ErrConcurrentUpdate)

	pending, err := m.TradeStore().ListTradesByStatus(ctx, models.TradePending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestTradeStore_ListNewestFirstWithLimit(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	cs := &models.ChangeSet{}
	for i, id := range []string{"trd_a", "trd_b", "trd_c"} {
		cs.PutTrade(&models.Trade{ID: id, UserID: "fay", Status: models.TradeExecuted, CreatedAt: base.Add(time.Duration(i) * time.Minute)}, "", true)
	}
	cs.PutTrade(&models.Trade{ID: "trd_other", UserID: "gus", Status: models.TradeExecuted, CreatedAt: base}, "", true)
	require.NoError(t, m.Apply(ctx, cs))

	trades, err := m.TradeStore().ListTrades(ctx, "fay", 2)
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.Equal(t, "trd_c", trades[0].ID)
	assert.Equal(t, "trd_b", trades[1].ID)

	since, err := m.TradeStore().ListTradesSince(ctx, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, since, 2)
}

func TestFundingStore_Filter(t *testing.T) {
	m := newTestManager(t)
	ctx := context.Background()

	cs := &models.ChangeSet{}
	cs.PutFundingRequest(&models.FundingRequest{ID: "fr_1", UserID: "hal", Status: models.FundingPending, CreatedAt: time.Now()}, "", true)
	cs.PutFundingRequest(&models.FundingRequest{ID: "fr_2", UserID: "hal", Status: models.FundingApproved, CreatedAt: time.Now()}, "", true)
	cs.PutFundingRequest(&models.FundingRequest{ID: "fr_3", UserID: "ivy", Status: models.FundingPending, CreatedAt: time.Now()}, "", true)
	require.NoError(t, m.Apply(ctx, cs))

	all, err := m.FundingRequestStore().ListFundingRequests(ctx, models.FundingFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	pending, err := m.FundingRequestStore().ListFundingRequests(ctx, models.FundingFilter{Status: models.FundingPending})
	require.NoError(t, err)
	assert.Len(t, pending, 2)

	hals, err := m.FundingRequestStore().ListFundingRequests(ctx, models.FundingFilter{UserID: "hal", Status: models.FundingApproved})
	require.NoError(t, err)
	require.Len(t, hals, 1)
	assert.Equal(t, "fr_2", hals[0].ID)
}
