package domain

import (
	"context"
	"time"
)

type NonceRecord struct {
	Nonce    string
	DeviceID string
	UsedAt   time.Time
}

type NonceRepository interface {
	// InsertNonce returns false when the nonce is already in the ledger.
	InsertNonce(ctx context.Context, record *NonceRecord) (bool, error)
	DeleteNoncesBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// NonceCache is an optional fast path in front of the nonce ledger.
type NonceCache interface {
	Reserve(ctx context.Context, nonce string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, nonce string) error
}
