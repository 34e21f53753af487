// Package wallet owns user cash balances and the immutable ledger behind them.
package wallet

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bobmcallan/papertrade/internal/common"
	"github.com/bobmcallan/papertrade/internal/interfaces"
	"github.com/bobmcallan/papertrade/internal/metrics"
	"github.com/bobmcallan/papertrade/internal/models"
)

// Compile-time interface check
var _ interfaces.WalletService = (*Service)(nil)

// DefaultTransactionLimit bounds ListTransactions when the caller passes no limit.
const DefaultTransactionLimit = 50

// Service implements WalletService
type Service struct {
	storage interfaces.StorageManager
	locker  interfaces.Locker
	policy  common.AdjustmentPolicy
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new wallet service
func NewService(storage interfaces.StorageManager, locker interfaces.Locker, policy common.AdjustmentPolicy, logger *common.Logger) *Service {
	if policy == "" {
		policy = common.AdjustmentFloor
	}
	return &Service{
		storage: storage,
		locker:  locker,
		policy:  policy,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// GetWallet returns the user's wallet without creating it.
func (s *Service) GetWallet(ctx context.Context, userID string) (*models.Wallet, error) {
	return s.storage.WalletStore().GetWallet(ctx, userID)
}

// CreateWallet opens a wallet, recording a system deposit for a positive
// initial balance.
func (s *Service) CreateWallet(ctx context.Context, userID string, initialBalance decimal.Decimal) (*models.Wallet, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.Invalid("user id is required")
	}
	if initialBalance.IsNegative() {
		return nil, models.Invalid("initial balance must not be negative")
	}

	unlock, err := s.locker.Lock(ctx, common.UserLockKey(userID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if _, err := s.storage.WalletStore().GetWallet(ctx, userID); err == nil {
		return nil, models.ErrWalletExists
	} else if !errors.Is(err, models.ErrWalletNotFound) {
		return nil, fmt.Errorf("failed to read wallet: %w", err)
	}

	cs := &models.ChangeSet{}
	w := s.newWallet(userID)
	cs.PutWallet(w, 0, true)

	if initialBalance.IsPositive() {
		if _, err := s.Stage(ctx, cs, models.BalanceUpdate{
			UserID:      userID,
			Amount:      initialBalance,
			Type:        models.TransactionDeposit,
			Description: "Initial wallet funding",
			CreatedBy:   models.ActorSystem,
		}); err != nil {
			return nil, err
		}
	}

	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to create wallet: %w", err)
	}
	metrics.RecordLedger(cs)

	created := cs.StagedWallet(userID)
	s.logger.Info().Str("user_id", userID).Str("balance", created.Balance.String()).Msg("Wallet created")
	return created, nil
}

// CheckSufficientFunds reports whether the available balance covers amount.
// Any read failure answers false.
func (s *Service) CheckSufficientFunds(ctx context.Context, userID string, amount decimal.Decimal) bool {
	w, err := s.storage.WalletStore().GetWallet(ctx, userID)
	if err != nil {
		return false
	}
	return w.AvailableBalance.GreaterThanOrEqual(amount)
}

// UpdateBalance is the only way a balance changes. It writes the wallet and
// exactly one ledger entry, or nothing.
func (s *Service) UpdateBalance(ctx context.Context, update models.BalanceUpdate) (*models.WalletTransaction, error) {
	unlock, err := s.locker.Lock(ctx, common.UserLockKey(update.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	cs := &models.ChangeSet{}
	entry, err := s.Stage(ctx, cs, update)
	if err != nil {
		return nil, err
	}
	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to update balance: %w", err)
	}
	metrics.RecordLedger(cs)

	s.logger.Info().
		Str("user_id", update.UserID).
		Str("type", string(update.Type)).
		Str("amount", update.Amount.String()).
		Str("balance_after", entry.BalanceAfter.String()).
		Msg("Wallet balance updated")
	return entry, nil
}

// Stage applies the balance rules to cs. A wallet already staged in cs is
// used as the starting state, so several updates compose in one change set.
func (s *Service) Stage(ctx context.Context, cs *models.ChangeSet, update models.BalanceUpdate) (*models.WalletTransaction, error) {
	if err := s.validate(update); err != nil {
		return nil, err
	}

	current, create, err := s.startingState(ctx, cs, update.UserID)
	if err != nil {
		return nil, err
	}

	newBalance := current.Balance.Add(update.Amount)
	if newBalance.IsNegative() {
		switch {
		case update.Type.Floored(), s.policy == common.AdjustmentFloor:
			return nil, fmt.Errorf("%w: balance %s, change %s", models.ErrInsufficientFunds, current.Balance, update.Amount)
		default:
			s.logger.Warn().
				Str("user_id", update.UserID).
				Str("type", string(update.Type)).
				Str("amount", update.Amount.String()).
				Str("balance_after", newBalance.String()).
				Msg("Reversal drives wallet negative")
		}
	}

	now := s.now()
	next := *current
	next.Balance = newBalance
	next.AvailableBalance = newBalance
	next.Version = current.Version + 1
	next.UpdatedAt = now
	cs.PutWallet(&next, current.Version, create)

	createdBy := update.CreatedBy
	if createdBy == "" {
		createdBy = update.UserID
	}
	entry := &models.WalletTransaction{
		ID:            common.NewID(common.PrefixTransaction),
		WalletID:      next.ID,
		UserID:        update.UserID,
		Type:          update.Type,
		Amount:        update.Amount,
		BalanceBefore: current.Balance,
		BalanceAfter:  newBalance,
		Description:   update.Description,
		ReferenceID:   update.ReferenceID,
		Status:        models.TransactionCompleted,
		Sequence:      next.Version,
		CreatedAt:     now,
		CreatedBy:     createdBy,
	}
	cs.AddTransaction(entry)
	return entry, nil
}

func (s *Service) validate(update models.BalanceUpdate) error {
	if strings.TrimSpace(update.UserID) == "" {
		return models.Invalid("user id is required")
	}
	if !update.Type.Valid() {
		return models.Invalid("unknown transaction type %q", update.Type)
	}
	if !update.Type.SignOK(update.Amount) {
		return models.Invalid("amount %s has the wrong sign for %s", update.Amount, update.Type)
	}
	return nil
}

// startingState returns the wallet the next update builds on and whether it
// still has to be created.
func (s *Service) startingState(ctx context.Context, cs *models.ChangeSet, userID string) (*models.Wallet, bool, error) {
	if staged := cs.StagedWallet(userID); staged != nil {
		return staged, false, nil
	}
	w, err := s.storage.WalletStore().GetWallet(ctx, userID)
	switch {
	case err == nil:
		return w, false, nil
	case errors.Is(err, models.ErrWalletNotFound):
		return s.newWallet(userID), true, nil
	default:
		return nil, false, fmt.Errorf("failed to read wallet: %w", err)
	}
}

func (s *Service) newWallet(userID string) *models.Wallet {
	now := s.now()
	return &models.Wallet{
		ID:               common.NewID(common.PrefixWallet),
		UserID:           userID,
		Balance:          decimal.Zero,
		AvailableBalance: decimal.Zero,
		PendingBalance:   decimal.Zero,
		Currency:         models.DefaultCurrency,
		Status:           models.WalletStatusActive,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// ListTransactions returns a wallet's ledger newest first.
func (s *Service) ListTransactions(ctx context.Context, walletID string, limit int) ([]*models.WalletTransaction, error) {
	if limit <= 0 {
		limit = DefaultTransactionLimit
	}
	return s.storage.WalletStore().ListTransactions(ctx, walletID, limit)
}

// Reconcile replays the full ledger and compares it with the stored balance.
func (s *Service) Reconcile(ctx context.Context, userID string) (*models.Reconciliation, error) {
	w, err := s.storage.WalletStore().GetWallet(ctx, userID)
	if err != nil {
		return nil, err
	}
	entries, err := s.storage.WalletStore().ListTransactions(ctx, w.ID, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read ledger: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Sequence < entries[j].Sequence })

	rec := &models.Reconciliation{
		WalletID:      w.ID,
		UserID:        userID,
		StoredBalance: w.Balance,
		Entries:       len(entries),
	}

	running := decimal.Zero
	var prevSeq int64
	for _, e := range entries {
		if e.Sequence != prevSeq+1 {
			rec.Breaks = append(rec.Breaks, models.LedgerBreak{
				TransactionID: e.ID, Sequence: e.Sequence, Expected: running, Recorded: e.BalanceBefore,
				Reason: fmt.Sprintf("sequence gap after %d", prevSeq),
			})
		}
		if !e.BalanceBefore.Equal(running) {
			rec.Breaks = append(rec.Breaks, models.LedgerBreak{
				TransactionID: e.ID, Sequence: e.Sequence, Expected: running, Recorded: e.BalanceBefore,
				Reason: "balance_before does not continue the previous entry",
			})
		}
		if !e.BalanceBefore.Add(e.Amount).Equal(e.BalanceAfter) {
			rec.Breaks = append(rec.Breaks, models.LedgerBreak{
				TransactionID: e.ID, Sequence: e.Sequence, Expected: e.BalanceBefore.Add(e.Amount), Recorded: e.BalanceAfter,
				Reason: "balance_after is not balance_before plus amount",
			})
		}
		running = running.Add(e.Amount)
		prevSeq = e.Sequence
	}

	rec.ReplayedBalance = running
	rec.Consistent = len(rec.Breaks) == 0 && running.Equal(w.Balance)
	if !rec.Consistent {
		s.logger.Warn().
			Str("user_id", userID).
			Str("stored", w.Balance.String()).
			Str("replayed", running.String()).
			Int("breaks", len(rec.Breaks)).
			Msg("Ledger does not reconcile")
	}
	return rec, nil
}
