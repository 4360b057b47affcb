package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type ReservationStatus string

const (
	ReservationStatusReserved ReservationStatus = "reserved"
	ReservationStatusUsed     ReservationStatus = "used"
	ReservationStatusExpired  ReservationStatus = "expired"
)

// MaxSuffixesPerBaseAmount is fixed: suffixes are the cents 01..99.
const MaxSuffixesPerBaseAmount = 99

// UniquePaymentAmount is a held amount of base_amount + suffix/100.
type UniquePaymentAmount struct {
	ID            string
	BaseAmount    decimal.Decimal
	Suffix        int
	UniqueAmount  decimal.Decimal
	Status        ReservationStatus
	TransactionID string
	ExpiresAt     time.Time
	MatchedAt     *time.Time
	CreatedAt     time.Time
}

func (r *UniquePaymentAmount) IsActive(now time.Time) bool {
	return r.Status == ReservationStatusReserved && r.ExpiresAt.After(now)
}

func UniqueAmountFor(base decimal.Decimal, suffix int) decimal.Decimal {
	return base.Add(decimal.New(int64(suffix), -MinorUnitExp))
}

type ReservationRepository interface {
	// ExpireOverdue flips reserved rows past expiry to expired. An empty
	// scope sweeps every row.
	ExpireOverdue(ctx context.Context, scope OverdueScope, now time.Time) (int64, error)
	ActiveSuffixes(ctx context.Context, base decimal.Decimal, now time.Time) ([]int, error)
	// InsertReservation returns false when the (base, suffix) slot is already held.
	InsertReservation(ctx context.Context, reservation *UniquePaymentAmount) (bool, error)
	GetActiveByTransactionID(ctx context.Context, transactionID string, now time.Time) (*UniquePaymentAmount, error)
	GetLatestByTransactionID(ctx context.Context, transactionID string) (*UniquePaymentAmount, error)
	// ClaimByUniqueAmount moves the matching active reservation to used and
	// returns it, or nil when nothing is claimable.
	ClaimByUniqueAmount(ctx context.Context, amount decimal.Decimal, now time.Time) (*UniquePaymentAmount, error)
	ReleaseByTransactionID(ctx context.Context, transactionID string, now time.Time) (bool, error)
	CountActiveCohort(ctx context.Context, query CohortQuery) (int64, error)
}

// CohortQuery selects active reservations that share a base amount.
type CohortQuery struct {
	BaseAmount   decimal.Decimal
	CreatedAfter time.Time
	Now          time.Time
	ExcludeID    string
}

// OverdueScope narrows an expiry sweep. Set fields are OR-ed together.
type OverdueScope struct {
	BaseAmount    *decimal.Decimal
	TransactionID string
}
