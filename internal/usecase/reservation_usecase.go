package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	"github.com/xjanova/smschecker-sub001/internal/infrastructure/metrics"
	reservationdto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/reservation"
)

const DefaultReservationExpiry = 30 * time.Minute

type ReservationUsecase interface {
	Reserve(ctx context.Context, input *reservationdto.ReserveInput) (*reservationdto.ReservationOutput, error)
	GetReservation(ctx context.Context, transactionID string) (*reservationdto.ReservationOutput, error)
	Release(ctx context.Context, transactionID string) (bool, error)
	SweepExpired(ctx context.Context) (int64, error)
	// TryMatch claims the reservation whose unique amount equals amount,
	// inside the caller's transaction. It returns nil when nothing matches.
	TryMatch(ctx context.Context, tx domain.Store, amount decimal.Decimal) (*domain.UniquePaymentAmount, error)
}

type DefaultReservationUsecase struct {
	store     domain.Store
	expiry    time.Duration
	publisher domain.EventPublisher
	metrics   *metrics.MatchingMetrics
	clock     Clock
	logger    *slog.Logger
}

func NewDefaultReservationUsecase(
	store domain.Store,
	expiry time.Duration,
	publisher domain.EventPublisher,
	matchingMetrics *metrics.MatchingMetrics,
	clock Clock,
	logger *slog.Logger,
) *DefaultReservationUsecase {
	if expiry <= 0 {
		expiry = DefaultReservationExpiry
	}
	if publisher == nil {
		publisher = NoopEventPublisher{}
	}
	return &DefaultReservationUsecase{
		store:     store,
		expiry:    expiry,
		publisher: publisher,
		metrics:   matchingMetrics,
		clock:     clock,
		logger:    logger,
	}
}

func validateReserveInput(input *reservationdto.ReserveInput) error {
	verr := domain.NewValidationError()
	if input.TransactionID == "" {
		verr.Add("transaction_id", "is required")
	}
	if !input.BaseAmount.IsPositive() {
		verr.Add("base_amount", "must be greater than zero")
	} else if !domain.IsWholeAmount(input.BaseAmount) {
		verr.Add("base_amount", "must be a whole amount")
	} else if !domain.WithinAmountLimit(domain.UniqueAmountFor(input.BaseAmount, domain.MaxSuffixesPerBaseAmount)) {
		verr.Add("base_amount", "is too large")
	}
	if input.Expiry < 0 {
		verr.Add("expiry", "must not be negative")
	}
	return verr.OrNil()
}

// Reserve hands out the lowest free suffix for the base amount. A reservation
// already held by the same transaction for the same base is returned as is.
func (uc *DefaultReservationUsecase) Reserve(ctx context.Context, input *reservationdto.ReserveInput) (*reservationdto.ReservationOutput, error) {
	if err := validateReserveInput(input); err != nil {
		return nil, err
	}
	expiry := uc.expiry
	if input.Expiry > 0 {
		expiry = input.Expiry
	}
	base := input.BaseAmount

	var (
		granted *domain.UniquePaymentAmount
		reused  bool
	)
	err := uc.store.InTx(ctx, func(tx domain.Store) error {
		now := uc.clock.now()
		reservations := tx.Reservations()

		existing, err := uc.activeFor(ctx, reservations, input.TransactionID, base, now)
		if err != nil {
			return err
		}
		if existing != nil {
			granted, reused = existing, true
			return nil
		}

		scope := domain.OverdueScope{BaseAmount: &base, TransactionID: input.TransactionID}
		if _, err := reservations.ExpireOverdue(ctx, scope, now); err != nil {
			return fmt.Errorf("expire overdue reservations: %w", err)
		}
		held, err := reservations.ActiveSuffixes(ctx, base, now)
		if err != nil {
			return fmt.Errorf("load active suffixes: %w", err)
		}
		taken := make(map[int]struct{}, len(held))
		for _, s := range held {
			taken[s] = struct{}{}
		}

		for suffix := 1; suffix <= domain.MaxSuffixesPerBaseAmount; suffix++ {
			if _, ok := taken[suffix]; ok {
				continue
			}
			candidate := &domain.UniquePaymentAmount{
				ID:            uuid.NewString(),
				BaseAmount:    base,
				Suffix:        suffix,
				UniqueAmount:  domain.UniqueAmountFor(base, suffix),
				Status:        domain.ReservationStatusReserved,
				TransactionID: input.TransactionID,
				ExpiresAt:     now.Add(expiry),
				CreatedAt:     now,
			}
			inserted, err := reservations.InsertReservation(ctx, candidate)
			if err != nil {
				return fmt.Errorf("insert reservation: %w", err)
			}
			if inserted {
				granted = candidate
				return nil
			}

			// Lost the slot to a concurrent writer; it may have been the same transaction.
			existing, err := uc.activeFor(ctx, reservations, input.TransactionID, base, now)
			if err != nil {
				return err
			}
			if existing != nil {
				granted, reused = existing, true
				return nil
			}
		}
		return domain.ErrExhaustedSuffix
	})
	if err != nil {
		if errors.Is(err, domain.ErrExhaustedSuffix) {
			uc.metrics.RecordReservation("exhausted")
			uc.logger.Warn("reservation suffixes exhausted", "base_amount", base.String(), "transaction_id", input.TransactionID)
		}
		return nil, err
	}

	if !reused {
		uc.metrics.RecordReservation("granted")
		uc.publish(ctx, granted)
	}
	return toReservationOutput(granted, uc.clock.now()), nil
}

func (uc *DefaultReservationUsecase) activeFor(ctx context.Context, reservations domain.ReservationRepository, transactionID string, base decimal.Decimal, now time.Time) (*domain.UniquePaymentAmount, error) {
	existing, err := reservations.GetActiveByTransactionID(ctx, transactionID, now)
	if err != nil {
		if errors.Is(err, domain.ErrReservationNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !existing.BaseAmount.Equal(base) {
		return nil, domain.ErrReservationConflict
	}
	return existing, nil
}

func (uc *DefaultReservationUsecase) GetReservation(ctx context.Context, transactionID string) (*reservationdto.ReservationOutput, error) {
	r, err := uc.store.Reservations().GetLatestByTransactionID(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	return toReservationOutput(r, uc.clock.now()), nil
}

// Release frees the suffix held by a cancelled order. Releasing twice, or
// releasing an order that already paid, changes nothing.
func (uc *DefaultReservationUsecase) Release(ctx context.Context, transactionID string) (bool, error) {
	released, err := uc.store.Reservations().ReleaseByTransactionID(ctx, transactionID, uc.clock.now())
	if err != nil {
		return false, err
	}
	if !released {
		return false, nil
	}
	uc.metrics.RecordReservation("released")
	if r, err := uc.store.Reservations().GetLatestByTransactionID(ctx, transactionID); err == nil {
		uc.publish(ctx, r)
	}
	return true, nil
}

func (uc *DefaultReservationUsecase) SweepExpired(ctx context.Context) (int64, error) {
	n, err := uc.store.Reservations().ExpireOverdue(ctx, domain.OverdueScope{}, uc.clock.now())
	if err != nil {
		return 0, err
	}
	uc.metrics.RecordSwept("reservations", n)
	return n, nil
}

func (uc *DefaultReservationUsecase) TryMatch(ctx context.Context, tx domain.Store, amount decimal.Decimal) (*domain.UniquePaymentAmount, error) {
	matched, err := tx.Reservations().ClaimByUniqueAmount(ctx, amount, uc.clock.now())
	if err != nil {
		return nil, fmt.Errorf("claim reservation: %w", err)
	}
	uc.metrics.RecordMatch(matched != nil)
	return matched, nil
}

func (uc *DefaultReservationUsecase) publish(ctx context.Context, r *domain.UniquePaymentAmount) {
	event := domain.ReservationEvent{
		ReservationID: r.ID,
		TransactionID: r.TransactionID,
		BaseAmount:    r.BaseAmount.StringFixed(domain.MinorUnitExp),
		UniqueAmount:  r.UniqueAmount.StringFixed(domain.MinorUnitExp),
		Status:        string(r.Status),
		ExpiresAt:     r.ExpiresAt,
		OccurredAt:    uc.clock.now(),
	}
	if err := uc.publisher.PublishReservation(ctx, event); err != nil {
		uc.metrics.RecordPublishError("reservation")
		uc.logger.Error("failed to publish reservation event", "transaction_id", r.TransactionID, "error", err.Error())
	}
}

func toReservationOutput(r *domain.UniquePaymentAmount, now time.Time) *reservationdto.ReservationOutput {
	status := r.Status
	if status == domain.ReservationStatusReserved && !r.ExpiresAt.After(now) {
		status = domain.ReservationStatusExpired
	}
	return &reservationdto.ReservationOutput{
		ID:            r.ID,
		TransactionID: r.TransactionID,
		BaseAmount:    r.BaseAmount,
		Suffix:        r.Suffix,
		UniqueAmount:  r.UniqueAmount,
		Status:        string(status),
		ExpiresAt:     r.ExpiresAt,
		MatchedAt:     r.MatchedAt,
		CreatedAt:     r.CreatedAt,
	}
}
