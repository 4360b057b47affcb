package usecase

import (
	"context"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
)

const (
	DefaultAmbiguousWindow    = 10 * time.Minute
	DefaultAmbiguousThreshold = 2
)

// ConfidencePolicy decides whether a matched payment is safe to approve
// without a person looking at it.
type ConfidencePolicy interface {
	Assess(ctx context.Context, reservations domain.ReservationRepository, notification *domain.Notification, matched *domain.UniquePaymentAmount, now time.Time) (domain.Confidence, error)
}

// WindowedCohortPolicy marks a match ambiguous when at least Threshold other
// live reservations share its whole base amount and were created within
// Window. The base is the matched reservation's; it equals floor(amount)
// because bases are whole and suffixes stay below one unit.
type WindowedCohortPolicy struct {
	Window    time.Duration
	Threshold int
}

func NewWindowedCohortPolicy(window time.Duration, threshold int) WindowedCohortPolicy {
	if window <= 0 {
		window = DefaultAmbiguousWindow
	}
	if threshold <= 0 {
		threshold = DefaultAmbiguousThreshold
	}
	return WindowedCohortPolicy{Window: window, Threshold: threshold}
}

func (p WindowedCohortPolicy) Assess(ctx context.Context, reservations domain.ReservationRepository, notification *domain.Notification, matched *domain.UniquePaymentAmount, now time.Time) (domain.Confidence, error) {
	query := domain.CohortQuery{
		BaseAmount:   notification.Amount.Floor(),
		CreatedAfter: now.Add(-p.Window),
		Now:          now,
	}
	if matched != nil {
		query.BaseAmount = matched.BaseAmount
		query.ExcludeID = matched.ID
	}

	others, err := reservations.CountActiveCohort(ctx, query)
	if err != nil {
		return "", err
	}
	if others >= int64(p.Threshold) {
		return domain.ConfidenceAmbiguous, nil
	}
	return domain.ConfidenceHigh, nil
}
