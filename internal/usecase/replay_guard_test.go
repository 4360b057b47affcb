package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	redisinfra "github.com/xjanova/smschecker-sub001/internal/infrastructure/redis"
)

func TestReplayGuardCachePrecheck(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	guard := NewReplayGuard(redisinfra.NewNonceCache(client, "test"), time.Hour, Clock(func() time.Time { return testNow }), discardLogger())
	ctx := context.Background()

	release, err := guard.Precheck(ctx, "nonce-1")
	if err != nil {
		t.Fatalf("first precheck: %v", err)
	}
	if _, err := guard.Precheck(ctx, "nonce-1"); !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("expected ErrDuplicateNonce from cache, got %v", err)
	}

	release()
	if _, err := guard.Precheck(ctx, "nonce-1"); err != nil {
		t.Fatalf("expected released nonce to pass precheck, got %v", err)
	}

	mr.Close()
	if _, err := guard.Precheck(ctx, "nonce-2"); err != nil {
		t.Fatalf("expected cache outage to fall back to the ledger, got %v", err)
	}
}

func TestReplayGuardLedgerAndSweep(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	nonces := h.store.Nonces()

	if err := h.replay.Admit(ctx, nonces, "nonce-1", "dev-1", testNow); err != nil {
		t.Fatalf("admit: %v", err)
	}
	if err := h.replay.Admit(ctx, nonces, "nonce-1", "dev-2", testNow); !errors.Is(err, domain.ErrDuplicateNonce) {
		t.Fatalf("expected ErrDuplicateNonce, got %v", err)
	}

	h.clock.Advance(23 * time.Hour)
	if n, err := h.replay.Sweep(ctx, nonces); err != nil || n != 0 {
		t.Fatalf("expected nothing swept inside retention, got %d %v", n, err)
	}
	h.clock.Advance(2 * time.Hour)
	if n, err := h.replay.Sweep(ctx, nonces); err != nil || n != 1 {
		t.Fatalf("expected 1 swept after retention, got %d %v", n, err)
	}
}
