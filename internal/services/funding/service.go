// Package funding runs the admin-mediated deposit request workflow:
// pending -> approved -> completed, or pending -> rejected.
package funding

import (
	"context"
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
var _ interfaces.FundingService = (*Service)(nil)

// Service implements FundingService
type Service struct {
	storage interfaces.StorageManager
	wallets interfaces.WalletService
	locker  interfaces.Locker
	logger  *common.Logger
	now     func() time.Time
}

// NewService creates a new funding service
func NewService(storage interfaces.StorageManager, wallets interfaces.WalletService, locker interfaces.Locker, logger *common.Logger) *Service {
	return &Service{
		storage: storage,
		wallets: wallets,
		locker:  locker,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Submit records a new pending request.
func (s *Service) Submit(ctx context.Context, userID, userEmail string, amount decimal.Decimal, message string) (*models.FundingRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, models.Invalid("user id is required")
	}
	if !amount.IsPositive() {
		return nil, models.Invalid("requested amount must be positive")
	}

	now := s.now()
	req := &models.FundingRequest{
		ID:              common.NewID(common.PrefixFunding),
		UserID:          userID,
		UserEmail:       userEmail,
		RequestedAmount: amount,
		Status:          models.FundingPending,
		Message:         strings.TrimSpace(message),
		DepositAmount:   decimal.Zero,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	cs := &models.ChangeSet{}
	cs.PutFundingRequest(req, "", true)
	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to submit funding request: %w", err)
	}
	metrics.FundingTransitions.WithLabelValues(string(req.Status)).Inc()

	s.logger.Info().Str("request_id", req.ID).Str("user_id", userID).Str("amount", amount.String()).Msg("Funding request submitted")
	return req, nil
}

// Approve moves a pending request to approved.
func (s *Service) Approve(ctx context.Context, requestID, adminID, notes string) (*models.FundingRequest, error) {
	return s.review(ctx, requestID, adminID, notes, models.FundingApproved)
}

// Reject moves a pending request to rejected.
func (s *Service) Reject(ctx context.Context, requestID, adminID, notes string) (*models.FundingRequest, error) {
	return s.review(ctx, requestID, adminID, notes, models.FundingRejected)
}

func (s *Service) review(ctx context.Context, requestID, adminID, notes string, to models.FundingStatus) (*models.FundingRequest, error) {
	if err := common.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	req, err := s.storage.FundingRequestStore().GetFundingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(to) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, req.Status, to)
	}

	next := *req
	next.Status = to
	next.ReviewedBy = adminID
	if notes != "" {
		next.AdminNotes = notes
	}
	next.UpdatedAt = s.now()

	cs := &models.ChangeSet{}
	cs.PutFundingRequest(&next, req.Status, false)
	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to %s funding request: %w", verb(to), err)
	}
	metrics.FundingTransitions.WithLabelValues(string(to)).Inc()

	s.logger.Info().Str("request_id", requestID).Str("admin_id", adminID).Str("status", string(to)).Msg("Funding request reviewed")
	return &next, nil
}

func verb(to models.FundingStatus) string {
	if to == models.FundingRejected {
		return "reject"
	}
	return "approve"
}

// Complete credits the deposit and closes an approved request in one change
// set. On failure the request stays approved.
func (s *Service) Complete(ctx context.Context, requestID, adminID string, depositAmount decimal.Decimal, notes string) (*models.FundingRequest, error) {
	if err := common.RequireAdmin(ctx, adminID); err != nil {
		return nil, err
	}
	if !depositAmount.IsPositive() {
		return nil, models.Invalid("deposit amount must be positive")
	}

	req, err := s.storage.FundingRequestStore().GetFundingRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}

	unlock, err := s.locker.Lock(ctx, common.UserLockKey(req.UserID))
	if err != nil {
		return nil, err
	}
	defer unlock()

	if req, err = s.storage.FundingRequestStore().GetFundingRequest(ctx, requestID); err != nil {
		return nil, err
	}
	if !req.Status.CanTransition(models.FundingCompleted) {
		return nil, fmt.Errorf("%w: %s -> %s", models.ErrInvalidTransition, req.Status, models.FundingCompleted)
	}

	cs := &models.ChangeSet{}
	entry, err := s.wallets.Stage(ctx, cs, models.BalanceUpdate{
		UserID:      req.UserID,
		Amount:      depositAmount,
		Type:        models.TransactionDeposit,
		Description: "Funding request deposit",
		ReferenceID: req.ID,
		CreatedBy:   adminID,
	})
	if err != nil {
		return nil, err
	}

	next := *req
	next.Status = models.FundingCompleted
	next.DepositAmount = depositAmount
	next.DepositTransactionID = entry.ID
	next.ReviewedBy = adminID
	if notes != "" {
		next.AdminNotes = notes
	}
	next.UpdatedAt = s.now()
	cs.PutFundingRequest(&next, models.FundingApproved, false)

	if err := s.storage.Apply(ctx, cs); err != nil {
		return nil, fmt.Errorf("failed to complete funding request: %w", err)
	}
	metrics.RecordLedger(cs)
	metrics.FundingTransitions.WithLabelValues(string(next.Status)).Inc()

	s.logger.Info().
		Str("request_id", requestID).
		Str("admin_id", adminID).
		Str("user_id", req.UserID).
		Str("deposit", depositAmount.String()).
		Msg("Funding request completed")
	return &next, nil
}

// ListRequests lists every request, optionally narrowed to one status.
func (s *Service) ListRequests(ctx context.Context, status *models.FundingStatus) ([]*models.FundingRequest, error) {
	filter := models.FundingFilter{}
	if status != nil {
		if !status.Valid() {
			return nil, models.Invalid("unknown funding status %q", *status)
		}
		filter.Status = *status
	}
	return s.storage.FundingRequestStore().ListFundingRequests(ctx, filter)
}

// ListUserRequests lists one user's requests.
func (s *Service) ListUserRequests(ctx context.Context, userID string) ([]*models.FundingRequest, error) {
	return s.storage.FundingRequestStore().ListFundingRequests(ctx, models.FundingFilter{UserID: userID})
}
