package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/metrics"
	approvaldto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/approval"
)

const (
	DefaultPendingApprovalTTL = 24 * time.Hour

	approvedBySystem   = "system"
	staleSweepPageSize = 100
	hookTimeout        = 10 * time.Second
)

type ApprovalUsecase interface {
	Approve(ctx context.Context, approvalID, by string) (*domain.Approval, error)
	Reject(ctx context.Context, approvalID, reason string) (*domain.Approval, error)
	Cancel(ctx context.Context, approvalID, reason string) (*domain.Approval, error)
	Delete(ctx context.Context, approvalID string) (*domain.Approval, error)
	ExpireStale(ctx context.Context) (int64, error)

	GetApproval(ctx context.Context, approvalID string) (*domain.Approval, error)
	ListApprovals(ctx context.Context, input *approvaldto.ListApprovalsInput) ([]*domain.Approval, error)

	// CreateForMatch creates the approval for a freshly matched notification
	// and routes it, all inside tx. Complete must run after tx commits.
	CreateForMatch(ctx context.Context, tx domain.Store, notification *domain.Notification, matched *domain.UniquePaymentAmount, cfg domain.DeviceConfig) (*ApprovalOutcome, error)
	Complete(ctx context.Context, outcome *ApprovalOutcome)
}

// ApprovalOutcome is what a committed unit of work did to one approval.
type ApprovalOutcome struct {
	Approval     *domain.Approval
	Amount       decimal.Decimal
	Created      bool
	Transitioned bool
}

// ShouldAutoApprove applies the device's approval mode to an assessed match.
func ShouldAutoApprove(mode domain.ApprovalMode, confidence domain.Confidence) bool {
	switch mode {
	case domain.ApprovalModeAuto:
		return true
	case domain.ApprovalModeSmart:
		return confidence == domain.ConfidenceHigh
	default:
		return false
	}
}

func notificationStatusFor(status domain.ApprovalStatus) (domain.NotificationStatus, bool) {
	switch status {
	case domain.ApprovalStatusAutoApproved, domain.ApprovalStatusManuallyApproved:
		return domain.NotificationStatusConfirmed, true
	case domain.ApprovalStatusRejected, domain.ApprovalStatusCancelled, domain.ApprovalStatusDeleted:
		return domain.NotificationStatusRejected, true
	case domain.ApprovalStatusExpired:
		return domain.NotificationStatusExpired, true
	}
	return "", false
}

type DefaultApprovalUsecase struct {
	store      domain.Store
	policy     ConfidencePolicy
	notifier   domain.OrderConfirmationNotifier
	publisher  domain.EventPublisher
	metrics    *metrics.MatchingMetrics
	pendingTTL time.Duration
	clock      Clock
	logger     *slog.Logger
}

func NewDefaultApprovalUsecase(
	store domain.Store,
	policy ConfidencePolicy,
	notifier domain.OrderConfirmationNotifier,
	publisher domain.EventPublisher,
	matchingMetrics *metrics.MatchingMetrics,
	pendingTTL time.Duration,
	clock Clock,
	logger *slog.Logger,
) *DefaultApprovalUsecase {
	if policy == nil {
		policy = NewWindowedCohortPolicy(DefaultAmbiguousWindow, DefaultAmbiguousThreshold)
	}
	if notifier == nil {
		notifier = NoopConfirmationNotifier{}
	}
	if publisher == nil {
		publisher = NoopEventPublisher{}
	}
	if pendingTTL <= 0 {
		pendingTTL = DefaultPendingApprovalTTL
	}
	return &DefaultApprovalUsecase{
		store:      store,
		policy:     policy,
		notifier:   notifier,
		publisher:  publisher,
		metrics:    matchingMetrics,
		pendingTTL: pendingTTL,
		clock:      clock,
		logger:     logger,
	}
}

func (uc *DefaultApprovalUsecase) CreateForMatch(ctx context.Context, tx domain.Store, notification *domain.Notification, matched *domain.UniquePaymentAmount, cfg domain.DeviceConfig) (*ApprovalOutcome, error) {
	now := uc.clock.now()
	confidence, err := uc.policy.Assess(ctx, tx.Reservations(), notification, matched, now)
	if err != nil {
		return nil, err
	}

	approval := &domain.Approval{
		ID:                   uuid.NewString(),
		NotificationID:       notification.ID,
		MatchedTransactionID: matched.TransactionID,
		DeviceID:             notification.DeviceID,
		Status:               domain.ApprovalStatusPendingReview,
		Confidence:           confidence,
		SyncedVersion:        1,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := tx.Approvals().CreateApproval(ctx, approval); err != nil {
		return nil, err
	}
	if err := tx.Notifications().AttachMatch(ctx, notification.ID, matched.TransactionID, approval.ID); err != nil {
		return nil, err
	}
	notification.Status = domain.NotificationStatusMatched
	notification.MatchedTransactionID = matched.TransactionID
	notification.ApprovalID = approval.ID

	outcome := &ApprovalOutcome{Approval: approval, Amount: notification.Amount, Created: true}
	if !ShouldAutoApprove(cfg.ApprovalMode, confidence) {
		return outcome, nil
	}

	updated, ok, err := uc.transition(ctx, tx, approval, domain.ApprovalTransition{
		To: domain.ApprovalStatusAutoApproved,
		By: domain.ApprovedByAuto,
		At: now,
	})
	if err != nil {
		return nil, err
	}
	if ok {
		outcome.Approval = updated
		outcome.Transitioned = true
		notification.Status = domain.NotificationStatusConfirmed
	}
	return outcome, nil
}

// transition moves an approval out of pending_review and lets the
// notification follow. ok is false when another writer got there first.
func (uc *DefaultApprovalUsecase) transition(ctx context.Context, tx domain.Store, approval *domain.Approval, t domain.ApprovalTransition) (*domain.Approval, bool, error) {
	ok, err := tx.Approvals().TransitionApproval(ctx, approval.ID, t)
	if err != nil || !ok {
		return nil, false, err
	}
	if next, follows := notificationStatusFor(t.To); follows {
		_, err := tx.Notifications().AdvanceStatus(ctx, approval.NotificationID, next,
			domain.NotificationStatusPending, domain.NotificationStatusMatched)
		if err != nil {
			return nil, false, err
		}
	}
	updated, err := tx.Approvals().GetApprovalByID(ctx, approval.ID)
	if err != nil {
		return nil, false, err
	}
	return updated, true, nil
}

func (uc *DefaultApprovalUsecase) decide(ctx context.Context, approvalID string, t domain.ApprovalTransition) (*domain.Approval, error) {
	var outcome *ApprovalOutcome
	err := uc.store.InTx(ctx, func(tx domain.Store) error {
		approval, err := tx.Approvals().GetApprovalByID(ctx, approvalID)
		if err != nil {
			return err
		}
		if approval.Status != domain.ApprovalStatusPendingReview {
			return domain.ErrApprovalNotPending
		}

		t.At = uc.clock.now()
		updated, ok, err := uc.transition(ctx, tx, approval, t)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrApprovalNotPending
		}

		outcome = &ApprovalOutcome{Approval: updated, Transitioned: true}
		notification, err := tx.Notifications().GetNotificationByID(ctx, approval.NotificationID)
		switch {
		case err == nil:
			outcome.Amount = notification.Amount
		case !errors.Is(err, domain.ErrNotificationNotFound):
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.Complete(ctx, outcome)
	return outcome.Approval, nil
}

func (uc *DefaultApprovalUsecase) Approve(ctx context.Context, approvalID, by string) (*domain.Approval, error) {
	to := domain.ApprovalStatusManuallyApproved
	if by == domain.ApprovedByAuto {
		to = domain.ApprovalStatusAutoApproved
	}
	if by == "" {
		by = approvedBySystem
	}
	return uc.decide(ctx, approvalID, domain.ApprovalTransition{To: to, By: by})
}

func (uc *DefaultApprovalUsecase) Reject(ctx context.Context, approvalID, reason string) (*domain.Approval, error) {
	return uc.decide(ctx, approvalID, domain.ApprovalTransition{To: domain.ApprovalStatusRejected, Reason: reason})
}

func (uc *DefaultApprovalUsecase) Cancel(ctx context.Context, approvalID, reason string) (*domain.Approval, error) {
	return uc.decide(ctx, approvalID, domain.ApprovalTransition{To: domain.ApprovalStatusCancelled, Reason: reason})
}

func (uc *DefaultApprovalUsecase) Delete(ctx context.Context, approvalID string) (*domain.Approval, error) {
	return uc.decide(ctx, approvalID, domain.ApprovalTransition{To: domain.ApprovalStatusDeleted})
}

// ExpireStale expires approvals left in pending_review past the TTL.
func (uc *DefaultApprovalUsecase) ExpireStale(ctx context.Context) (int64, error) {
	cutoff := uc.clock.now().Add(-uc.pendingTTL)
	var expired int64
	for {
		stale, err := uc.store.Approvals().FindStalePending(ctx, cutoff, staleSweepPageSize)
		if err != nil {
			return expired, err
		}
		progressed := false
		for _, a := range stale {
			_, err := uc.decide(ctx, a.ID, domain.ApprovalTransition{
				To:     domain.ApprovalStatusExpired,
				By:     approvedBySystem,
				Reason: "pending review timed out",
			})
			if errors.Is(err, domain.ErrApprovalNotPending) {
				continue
			}
			if err != nil {
				return expired, err
			}
			expired++
			progressed = true
		}
		if len(stale) < staleSweepPageSize || !progressed {
			break
		}
	}
	uc.metrics.RecordSwept("approvals", expired)
	return expired, nil
}

func (uc *DefaultApprovalUsecase) GetApproval(ctx context.Context, approvalID string) (*domain.Approval, error) {
	return uc.store.Approvals().GetApprovalByID(ctx, approvalID)
}

func (uc *DefaultApprovalUsecase) ListApprovals(ctx context.Context, input *approvaldto.ListApprovalsInput) ([]*domain.Approval, error) {
	filter := domain.ApprovalFilter{
		DeviceID:     input.DeviceID,
		UpdatedSince: input.UpdatedSince,
		Limit:        input.Limit,
		Offset:       input.Offset,
	}
	if input.Status != "" {
		status := domain.ApprovalStatus(input.Status)
		if !status.Valid() {
			verr := domain.NewValidationError()
			verr.Add("status", "unknown approval status")
			return nil, verr
		}
		filter.Status = status
	}
	return uc.store.Approvals().ListApprovals(ctx, filter)
}

// Complete runs the side effects of a committed outcome: metrics, the approval
// event and, for a transition into an approved state, the order confirmation.
func (uc *DefaultApprovalUsecase) Complete(ctx context.Context, outcome *ApprovalOutcome) {
	if outcome == nil || outcome.Approval == nil {
		return
	}
	approval := outcome.Approval
	if outcome.Created {
		uc.metrics.RecordConfidence(string(approval.Confidence))
	}
	if outcome.Transitioned {
		uc.metrics.RecordApprovalTransition(string(approval.Status))
		uc.logger.Info("approval transitioned",
			"approval_id", approval.ID,
			"status", approval.Status,
			"transaction_id", approval.MatchedTransactionID,
			"synced_version", approval.SyncedVersion,
		)
	}

	event := domain.ApprovalEvent{
		ApprovalID:           approval.ID,
		NotificationID:       approval.NotificationID,
		MatchedTransactionID: approval.MatchedTransactionID,
		DeviceID:             approval.DeviceID,
		Status:               string(approval.Status),
		Confidence:           string(approval.Confidence),
		ApprovedBy:           approval.ApprovedBy,
		RejectionReason:      approval.RejectionReason,
		SyncedVersion:        approval.SyncedVersion,
		OccurredAt:           uc.clock.now(),
	}
	if err := uc.publisher.PublishApproval(ctx, event); err != nil {
		uc.metrics.RecordPublishError("approval")
		uc.logger.Error("failed to publish approval event", "approval_id", approval.ID, "error", err.Error())
	}

	if !outcome.Transitioned || !approval.Status.IsApproved() {
		return
	}

	approvedAt := uc.clock.now()
	if approval.ApprovedAt != nil {
		approvedAt = *approval.ApprovedAt
	}
	hookCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), hookTimeout)
	defer cancel()
	err := uc.notifier.ConfirmOrder(hookCtx, domain.OrderConfirmation{
		TransactionID:  approval.MatchedTransactionID,
		ApprovalID:     approval.ID,
		NotificationID: approval.NotificationID,
		DeviceID:       approval.DeviceID,
		Amount:         outcome.Amount,
		ApprovedBy:     approval.ApprovedBy,
		ApprovedAt:     approvedAt,
	})
	if err != nil {
		uc.metrics.RecordHookError("order_confirmation")
		uc.logger.Error("order confirmation hook failed",
			"approval_id", approval.ID,
			"transaction_id", approval.MatchedTransactionID,
			"error", err.Error(),
		)
	}
}
