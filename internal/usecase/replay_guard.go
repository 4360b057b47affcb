package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/xjanova/smschecker-sub001/internal/domain"
)

const DefaultNonceRetention = 24 * time.Hour

// ReplayGuard admits each nonce at most once. The database ledger is the
// source of truth; the optional cache only turns away obvious repeats early.
type ReplayGuard struct {
	cache     domain.NonceCache
	retention time.Duration
	clock     Clock
	logger    *slog.Logger
}

func NewReplayGuard(cache domain.NonceCache, retention time.Duration, clock Clock, logger *slog.Logger) *ReplayGuard {
	if retention <= 0 {
		retention = DefaultNonceRetention
	}
	return &ReplayGuard{
		cache:     cache,
		retention: retention,
		clock:     clock,
		logger:    logger,
	}
}

// Precheck consults the cache. The returned release func must be called if
// the request does not commit, so a retried nonce is judged by the ledger.
func (g *ReplayGuard) Precheck(ctx context.Context, nonce string) (release func(), err error) {
	noop := func() {}
	if g.cache == nil {
		return noop, nil
	}
	fresh, err := g.cache.Reserve(ctx, nonce, g.retention)
	if err != nil {
		g.logger.Warn("nonce cache unavailable, falling back to ledger", "error", err.Error())
		return noop, nil
	}
	if !fresh {
		return noop, domain.ErrDuplicateNonce
	}
	return func() {
		if err := g.cache.Forget(context.WithoutCancel(ctx), nonce); err != nil {
			g.logger.Warn("failed to release cached nonce", "error", err.Error())
		}
	}, nil
}

// Admit records the nonce in the ledger bound to the caller's transaction.
func (g *ReplayGuard) Admit(ctx context.Context, nonces domain.NonceRepository, nonce, deviceID string, at time.Time) error {
	inserted, err := nonces.InsertNonce(ctx, &domain.NonceRecord{
		Nonce:    nonce,
		DeviceID: deviceID,
		UsedAt:   at,
	})
	if err != nil {
		return err
	}
	if !inserted {
		return domain.ErrDuplicateNonce
	}
	return nil
}

// Sweep deletes ledger entries older than the retention window. Retention is
// far longer than the timestamp tolerance, so a swept nonce can no longer
// arrive with an acceptable timestamp.
func (g *ReplayGuard) Sweep(ctx context.Context, nonces domain.NonceRepository) (int64, error) {
	return nonces.DeleteNoncesBefore(ctx, g.clock.now().Add(-g.retention))
}
