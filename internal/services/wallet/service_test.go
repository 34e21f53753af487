package wallet

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/models"
	"github.com/bobmcallan/papertrade/internal/storage/badger"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newTestService(t *testing.T, policy common.AdjustmentPolicy) (*Service, interfaces.StorageManager) {
	t.Helper()
	store, err := badger.NewManager(common.NewSilentLogger(), filepath.Join(t.TempDir(), "ledger"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return NewService(store, common.NewLocalLocker(), policy, common.NewSilentLogger()), store
}

// failingStore rejects every Apply.
type failingStore struct {
	interfaces.StorageManager
}

func (f failingStore) Apply(context.Context, *models.ChangeSet) error {
	return errors.New("disk full")
}

func TestCreateWallet_InitialDeposit(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "alice", d("1000"))
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(d("1000")))
	assert.True(t, w.AvailableBalance.Equal(d("1000")))
	assert.True(t, w.PendingBalance.IsZero())
	assert.Equal(t, models.DefaultCurrency, w.Currency)
	assert.Equal(t, int64(1), w.Version)

	txns, err := svc.ListTransactions(ctx, w.ID, 0)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, models.TransactionDeposit, txns[0].Type)
	assert.Equal(t, models.ActorSystem, txns[0].CreatedBy)
	assert.True(t, txns[0].BalanceBefore.IsZero())
	assert.True(t, txns[0].BalanceAfter.Equal(d("1000")))
}

func TestCreateWallet_ZeroBalanceWritesNoEntry(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "bob", decimal.Zero)
	require.NoError(t, err)
	txns, err := svc.ListTransactions(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, txns)
}

func TestCreateWallet_Rejects(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	_, err := svc.CreateWallet(ctx, "carol", d("-1"))
	assert.ErrorIs(t, err, models.ErrInvalidInput)

	_, err = svc.CreateWallet(ctx, "carol", d("5"))
	require.NoError(t, err)
	_, err = svc.CreateWallet(ctx, "carol", d("5"))
	assert.ErrorIs(t, err, models.ErrWalletExists)
}

func TestGetWallet_NotFoundHasNoSideEffect(t *testing.T) {
	svc, store := newTestService(t, "")
	ctx := context.Background()

	_, err := svc.GetWallet(ctx, "ghost")
	assert.ErrorIs(t, err, models.ErrWalletNotFound)
	wallets, err := store.WalletStore().ListWallets(ctx)
	require.NoError(t, err)
	assert.Empty(t, wallets)
}

func TestUpdateBalance_AutoCreatesWallet(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	entry, err := svc.UpdateBalance(ctx, models.BalanceUpdate{
		UserID: "dave", Amount: d("250"), Type: models.TransactionDeposit, Description: "Deposit",
	})
	require.NoError(t, err)
	assert.True(t, entry.BalanceBefore.IsZero())
	assert.True(t, entry.BalanceAfter.Equal(d("250")))
	assert.Equal(t, "dave", entry.CreatedBy)
	assert.Equal(t, int64(1), entry.Sequence)

	w, err := svc.GetWallet(ctx, "dave")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(d("250")))
}

func TestUpdateBalance_OverdraftRejectedWithoutEntry(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	w, err := svc.CreateWallet(ctx, "erin", d("1000"))
	require.NoError(t, err)

	_, err = svc.UpdateBalance(ctx, models.BalanceUpdate{
		UserID: "erin", Amount: d("-1500"), Type: models.TransactionWithdrawal,
	})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	after, err := svc.GetWallet(ctx, "erin")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(d("1000")))
	txns, err := svc.ListTransactions(ctx, w.ID, 0)
	require.NoError(t, err)
	assert.Len(t, txns, 1)
}

func TestUpdateBalance_FloorAppliesToFloorTypes(t *testing.T) {
	tests := []struct {
		name    string
		txType  models.TransactionType
		amount  string
		policy  common.AdjustmentPolicy
		wantErr error
	}{
		{"withdrawal", models.TransactionWithdrawal, "-11", common.AdjustmentFloor, models.ErrInsufficientFunds},
		{"trade buy", models.TransactionTradeBuy, "-11", common.AdjustmentFloor, models.ErrInsufficientFunds},
		{"fee", models.TransactionFee, "-11", common.AdjustmentFloor, models.ErrInsufficientFunds},
		{"adjustment floored", models.TransactionAdjustment, "-11", common.AdjustmentFloor, models.ErrInsufficientFunds},
		{"adjustment override", models.TransactionAdjustment, "-11", common.AdjustmentOverride, nil},
		{"deposit reversal floored", models.TransactionDeposit, "-11", common.AdjustmentFloor, models.ErrInsufficientFunds},
		{"deposit reversal override", models.TransactionDeposit, "-11", common.AdjustmentOverride, nil},
		{"sell reversal floored", models.TransactionTradeSell, "-11", common.AdjustmentFloor, models.ErrInsufficientFunds},
		{"withdrawal ignores override", models.TransactionWithdrawal, "-11", common.AdjustmentOverride, models.ErrInsufficientFunds},
		{"exact withdrawal", models.TransactionWithdrawal, "-10", common.AdjustmentFloor, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.policy)
			ctx := context.Background()
			_, err := svc.CreateWallet(ctx, "u", d("10"))
			require.NoError(t, err)

			_, err = svc.UpdateBalance(ctx, models.BalanceUpdate{UserID: "u", Amount: d(tt.amount), Type: tt.txType})
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestUpdateBalance_SignValidation(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	bad := []models.BalanceUpdate{
		{UserID: "u", Amount: d("5"), Type: models.TransactionWithdrawal},
		{UserID: "u", Amount: d("5"), Type: models.TransactionFee},
		{UserID: "u", Amount: decimal.Zero, Type: models.TransactionAdjustment},
		{UserID: "u", Amount: decimal.Zero, Type: models.TransactionDeposit},
		{UserID: "u", Amount: d("5"), Type: "bonus"},
		{UserID: "", Amount: d("5"), Type: models.TransactionDeposit},
	}
	for _, u := range bad {
		_, err := svc.UpdateBalance(ctx, u)
		assert.ErrorIs(t, err, models.ErrInvalidInput, "%+v", u)
	}
}

func TestUpdateBalance_ReversalsAllowed(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()
	_, err := svc.CreateWallet(ctx, "rita", d("1000"))
	require.NoError(t, err)

	for _, typ := range []models.TransactionType{models.TransactionDeposit, models.TransactionTradeSell} {
		entry, err := svc.UpdateBalance(ctx, models.BalanceUpdate{UserID: "rita", Amount: d("-50"), Type: typ})
		require.NoError(t, err, typ)
		assert.True(t, entry.Amount.Equal(d("-50")))
	}

	after, err := svc.GetWallet(ctx, "rita")
	require.NoError(t, err)
	assert.True(t, after.Balance.Equal(d("900")))

	rec, err := svc.Reconcile(ctx, "rita")
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}

func TestUpdateBalance_ApplyFailureLeavesNothing(t *testing.T) {
	svc, store := newTestService(t, "")
	ctx := context.Background()
	_, err := svc.CreateWallet(ctx, "frank", d("100"))
	require.NoError(t, err)

	broken := NewService(failingStore{store}, common.NewLocalLocker(), common.AdjustmentFloor, common.NewSilentLogger())
	_, err = broken.UpdateBalance(ctx, models.BalanceUpdate{UserID: "frank", Amount: d("50"), Type: models.TransactionDeposit})
	require.Error(t, err)

	w, err := svc.GetWallet(ctx, "frank")
	require.NoError(t, err)
	assert.True(t, w.Balance.Equal(d("100")))
}

func TestStage_ComposesUpdates(t *testing.T) {
	svc, store := newTestService(t, "")
	ctx := context.Background()
	_, err := svc.CreateWallet(ctx, "gina", d("100"))
	require.NoError(t, err)

	cs := &models.ChangeSet{}
	_, err = svc.Stage(ctx, cs, models.BalanceUpdate{UserID: "gina", Amount: d("-30"), Type: models.TransactionTradeBuy})
	require.NoError(t, err)
	second, err := svc.Stage(ctx, cs, models.BalanceUpdate{UserID: "gina", Amount: d("-70"), Type: models.TransactionFee})
	require.NoError(t, err)
	assert.True(t, second.BalanceBefore.Equal(d("70")))
	assert.True(t, second.BalanceAfter.IsZero())

	// a third debit would overdraw the staged state
	_, err = svc.Stage(ctx, cs, models.BalanceUpdate{UserID: "gina", Amount: d("-1"), Type: models.TransactionFee})
	assert.ErrorIs(t, err, models.ErrInsufficientFunds)

	require.NoError(t, store.Apply(ctx, cs))
	rec, err := svc.Reconcile(ctx, "gina")
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Equal(t, 3, rec.Entries)
}

func TestCheckSufficientFunds(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	assert.False(t, svc.CheckSufficientFunds(ctx, "nobody", d("1")))

	_, err := svc.CreateWallet(ctx, "hank", d("20"))
	require.NoError(t, err)
	assert.True(t, svc.CheckSufficientFunds(ctx, "hank", d("20")))
	assert.False(t, svc.CheckSufficientFunds(ctx, "hank", d("20.01")))
}

func TestReconcile_ReplayEqualsBalance(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()

	_, err := svc.CreateWallet(ctx, "ivy", d("1000"))
	require.NoError(t, err)
	updates := []models.BalanceUpdate{
		{UserID: "ivy", Amount: d("-200"), Type: models.TransactionTradeBuy},
		{UserID: "ivy", Amount: d("350.25"), Type: models.TransactionTradeSell},
		{UserID: "ivy", Amount: d("-0.25"), Type: models.TransactionFee},
		{UserID: "ivy", Amount: d("50"), Type: models.TransactionAdjustment},
	}
	for _, u := range updates {
		_, err := svc.UpdateBalance(ctx, u)
		require.NoError(t, err)
	}

	rec, err := svc.Reconcile(ctx, "ivy")
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
	assert.Empty(t, rec.Breaks)
	assert.Equal(t, 5, rec.Entries)
	assert.True(t, rec.ReplayedBalance.Equal(d("1200")))
	assert.True(t, rec.StoredBalance.Equal(d("1200")))
}

func TestUpdateBalance_ConcurrentDebitsNeverOverdraw(t *testing.T) {
	svc, _ := newTestService(t, "")
	ctx := context.Background()
	_, err := svc.CreateWallet(ctx, "jay", d("100"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.UpdateBalance(ctx, models.BalanceUpdate{UserID: "jay", Amount: d("-10"), Type: models.TransactionWithdrawal})
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, succeeded)
	w, err := svc.GetWallet(ctx, "jay")
	require.NoError(t, err)
	assert.True(t, w.Balance.IsZero())

	rec, err := svc.Reconcile(ctx, "jay")
	require.NoError(t, err)
	assert.True(t, rec.Consistent)
}
