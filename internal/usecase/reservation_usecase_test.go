package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xjanova/smschecker-sub001/internal/domain"
	reservationdto "github.com/xjanova/smschecker-sub001/internal/usecase/dto/reservation"
)

func reserveInput(base, txID string) *reservationdto.ReserveInput {
	return &reservationdto.ReserveInput{
		BaseAmount:    decimal.RequireFromString(base),
		TransactionID: txID,
	}
}

func TestReserveConcurrentCallersGetDistinctSuffixes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	const callers = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		suffixes = make(map[int]string)
		errs     []error
	)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			out, err := h.reservations.Reserve(ctx, reserveInput("100", fmt.Sprintf("order-%d", i)))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if prev, taken := suffixes[out.Suffix]; taken {
				errs = append(errs, fmt.Errorf("suffix %d handed to %s and %s", out.Suffix, prev, out.TransactionID))
				return
			}
			suffixes[out.Suffix] = out.TransactionID
		}(i)
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	for s := 1; s <= callers; s++ {
		if _, ok := suffixes[s]; !ok {
			t.Fatalf("expected lowest suffixes 1..%d to be used, missing %d", callers, s)
		}
	}
}

// rivalStore lets another writer take a slot after the suffix scan and
// before the insert, the window concurrent reservers race in.
type rivalStore struct {
	domain.Store
	rival *domain.UniquePaymentAmount
	fired bool
}

func (s *rivalStore) InTx(ctx context.Context, fn func(tx domain.Store) error) error {
	return s.Store.InTx(ctx, func(tx domain.Store) error {
		return fn(&rivalTx{Store: tx, parent: s})
	})
}

type rivalTx struct {
	domain.Store
	parent *rivalStore
}

func (tx *rivalTx) Reservations() domain.ReservationRepository {
	return &rivalReservations{ReservationRepository: tx.Store.Reservations(), parent: tx.parent}
}

type rivalReservations struct {
	domain.ReservationRepository
	parent *rivalStore
}

func (r *rivalReservations) ActiveSuffixes(ctx context.Context, base decimal.Decimal, now time.Time) ([]int, error) {
	suffixes, err := r.ReservationRepository.ActiveSuffixes(ctx, base, now)
	if err != nil || r.parent.fired {
		return suffixes, err
	}
	r.parent.fired = true
	ok, err := r.ReservationRepository.InsertReservation(ctx, r.parent.rival)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("rival insert was refused")
	}
	return suffixes, nil
}

func rivalReservation(base, txID string, suffix int) *domain.UniquePaymentAmount {
	b := decimal.RequireFromString(base)
	return &domain.UniquePaymentAmount{
		ID:            uuid.NewString(),
		BaseAmount:    b,
		Suffix:        suffix,
		UniqueAmount:  domain.UniqueAmountFor(b, suffix),
		Status:        domain.ReservationStatusReserved,
		TransactionID: txID,
		ExpiresAt:     testNow.Add(30 * time.Minute),
		CreatedAt:     testNow,
	}
}

func TestReserveMovesOnWhenSlotIsTakenMidway(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	store := &rivalStore{Store: h.store, rival: rivalReservation("100", "order-rival", 1)}
	reservations := NewDefaultReservationUsecase(store, 30*time.Minute, nil, nil, Clock(h.clock.Now), discardLogger())

	out, err := reservations.Reserve(ctx, reserveInput("100", "order-1"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if !store.fired {
		t.Fatal("rival never ran")
	}
	if out.Suffix != 2 || out.TransactionID != "order-1" {
		t.Fatalf("expected order-1 to fall through to suffix 2, got %+v", out)
	}

	held, err := h.store.Reservations().ActiveSuffixes(ctx, decimal.RequireFromString("100"), testNow)
	if err != nil {
		t.Fatalf("active suffixes: %v", err)
	}
	if len(held) != 2 || held[0] != 1 || held[1] != 2 {
		t.Fatalf("expected suffixes [1 2] held, got %v", held)
	}
}

func TestReserveReturnsReservationWonBySameTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	rival := rivalReservation("100", "order-1", 1)
	store := &rivalStore{Store: h.store, rival: rival}
	reservations := NewDefaultReservationUsecase(store, 30*time.Minute, nil, nil, Clock(h.clock.Now), discardLogger())

	out, err := reservations.Reserve(ctx, reserveInput("100", "order-1"))
	if err != nil {
		t.Fatalf("reserve: %v", err)
	}
	if out.ID != rival.ID || out.Suffix != 1 {
		t.Fatalf("expected the concurrent reservation %s back, got %+v", rival.ID, out)
	}

	held, err := h.store.Reservations().ActiveSuffixes(ctx, decimal.RequireFromString("100"), testNow)
	if err != nil || len(held) != 1 {
		t.Fatalf("expected a single live reservation, got %v (%v)", held, err)
	}
}

func TestReserveExhaustsAfterNinetyNineSuffixes(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 1; i <= domain.MaxSuffixesPerBaseAmount; i++ {
		out, err := h.reservations.Reserve(ctx, reserveInput("250", fmt.Sprintf("order-%d", i)))
		if err != nil {
			t.Fatalf("reserve %d: %v", i, err)
		}
		if out.Suffix != i {
			t.Fatalf("reserve %d: expected suffix %d, got %d", i, i, out.Suffix)
		}
		want := decimal.RequireFromString(fmt.Sprintf("250.%02d", i))
		if !out.UniqueAmount.Equal(want) {
			t.Fatalf("reserve %d: expected unique amount %s, got %s", i, want, out.UniqueAmount)
		}
	}

	_, err := h.reservations.Reserve(ctx, reserveInput("250", "order-100"))
	if !errors.Is(err, domain.ErrExhaustedSuffix) {
		t.Fatalf("expected ErrExhaustedSuffix, got %v", err)
	}

	// Another base amount is unaffected.
	out, err := h.reservations.Reserve(ctx, reserveInput("251", "order-100"))
	if err != nil {
		t.Fatalf("reserve other base: %v", err)
	}
	if out.Suffix != 1 {
		t.Fatalf("expected suffix 1 for a fresh base, got %d", out.Suffix)
	}
}

func TestReserveIsIdempotentPerTransaction(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first, err := h.reservations.Reserve(ctx, reserveInput("500", "order-a"))
	if err != nil {
		t.Fatalf("first reserve: %v", err)
	}
	again, err := h.reservations.Reserve(ctx, reserveInput("500", "order-a"))
	if err != nil {
		t.Fatalf("repeat reserve: %v", err)
	}
	if again.ID != first.ID || again.Suffix != first.Suffix {
		t.Fatalf("expected the same reservation back, got %+v then %+v", first, again)
	}

	if _, err := h.reservations.Reserve(ctx, reserveInput("600", "order-a")); !errors.Is(err, domain.ErrReservationConflict) {
		t.Fatalf("expected ErrReservationConflict for a different base, got %v", err)
	}
}

func TestReserveReusesSuffixAfterExpiry(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.reservations.Reserve(ctx, reserveInput("300", "order-old")); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	h.clock.Advance(31 * time.Minute)

	old, err := h.reservations.GetReservation(ctx, "order-old")
	if err != nil {
		t.Fatalf("get reservation: %v", err)
	}
	if old.Status != string(domain.ReservationStatusExpired) {
		t.Fatalf("expected lapsed reservation to read as expired, got %s", old.Status)
	}

	fresh, err := h.reservations.Reserve(ctx, reserveInput("300", "order-new"))
	if err != nil {
		t.Fatalf("reserve after expiry: %v", err)
	}
	if fresh.Suffix != 1 {
		t.Fatalf("expected suffix 1 to be reused, got %d", fresh.Suffix)
	}

	// The lapsed order may reserve again under a different base.
	if _, err := h.reservations.Reserve(ctx, reserveInput("301", "order-old")); err != nil {
		t.Fatalf("re-reserve lapsed order: %v", err)
	}
}

func TestReserveRejectsInvalidInput(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cases := map[string]*reservationdto.ReserveInput{
		"fractional base": reserveInput("100.50", "order-1"),
		"zero base":       reserveInput("0", "order-1"),
		"missing tx":      reserveInput("100", ""),
		"base over limit": reserveInput("1000000000000", "order-1"),
		"base wraps":      reserveInput("184467440737095616", "order-1"),
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := h.reservations.Reserve(ctx, input)
			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestReleaseFreesSuffixOnce(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	if _, err := h.reservations.Reserve(ctx, reserveInput("700", "order-x")); err != nil {
		t.Fatalf("reserve: %v", err)
	}
	released, err := h.reservations.Release(ctx, "order-x")
	if err != nil || !released {
		t.Fatalf("expected release, got %v %v", released, err)
	}
	released, err = h.reservations.Release(ctx, "order-x")
	if err != nil || released {
		t.Fatalf("expected second release to be a no-op, got %v %v", released, err)
	}

	next, err := h.reservations.Reserve(ctx, reserveInput("700", "order-y"))
	if err != nil {
		t.Fatalf("reserve after release: %v", err)
	}
	if next.Suffix != 1 {
		t.Fatalf("expected released suffix to be reused, got %d", next.Suffix)
	}

	if _, err := h.reservations.GetReservation(ctx, "order-missing"); !errors.Is(err, domain.ErrReservationNotFound) {
		t.Fatalf("expected ErrReservationNotFound, got %v", err)
	}
}

func TestSweepExpiredMarksLapsedReservations(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := h.reservations.Reserve(ctx, reserveInput("900", fmt.Sprintf("order-%d", i))); err != nil {
			t.Fatalf("reserve: %v", err)
		}
	}
	if n, err := h.reservations.SweepExpired(ctx); err != nil || n != 0 {
		t.Fatalf("expected nothing to sweep yet, got %d %v", n, err)
	}
	h.clock.Advance(time.Hour)
	if n, err := h.reservations.SweepExpired(ctx); err != nil || n != 3 {
		t.Fatalf("expected 3 swept, got %d %v", n, err)
	}
}
