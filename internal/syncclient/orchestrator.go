package syncclient

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

var (
	ErrSyncTimeout = errors.New("sync operation timed out")
	ErrNoTargets   = errors.New("no sync targets")
	// ErrNoWinner is returned by Race and FirstSuccess when every target failed.
	ErrNoWinner = errors.New("no target succeeded")
)

// Target is one server a sync operation can be sent to.
type Target struct {
	ID   string
	Name string
}

// Operation is the unit of work run against a single target. It must return
// promptly once ctx is done.
type Operation[T any] func(ctx context.Context, target Target) (T, error)

type SyncResult[T any] struct {
	TargetID   string
	TargetName string
	Success    bool
	Data       T
	Err        error
	Duration   time.Duration
}

type ParallelSyncReport[T any] struct {
	Results       []SyncResult[T]
	TotalDuration time.Duration
	SuccessCount  int
	FailureCount  int
}

// Failed returns the results that did not succeed.
func (r *ParallelSyncReport[T]) Failed() []SyncResult[T] {
	var out []SyncResult[T]
	for _, res := range r.Results {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// ExecuteAll runs op against every target with at most limit in flight.
// A failing or slow target never stops the others. Results keep the order
// of targets.
func ExecuteAll[T any](ctx context.Context, targets []Target, limit int, perOpTimeout time.Duration, op Operation[T]) *ParallelSyncReport[T] {
	started := time.Now()
	if limit < 1 {
		limit = 1
	}
	sem := semaphore.NewWeighted(int64(limit))
	results := make([]SyncResult[T], len(targets))

	var wg sync.WaitGroup
	for i, target := range targets {
		if err := sem.Acquire(ctx, 1); err != nil {
			results[i] = SyncResult[T]{TargetID: target.ID, TargetName: target.Name, Err: err}
			continue
		}
		wg.Add(1)
		go func(i int, target Target) {
			defer wg.Done()
			defer sem.Release(1)
			results[i] = runOne(ctx, target, perOpTimeout, op)
		}(i, target)
	}
	wg.Wait()

	report := &ParallelSyncReport[T]{Results: results, TotalDuration: time.Since(started)}
	for _, res := range results {
		if res.Success {
			report.SuccessCount++
		} else {
			report.FailureCount++
		}
	}
	return report
}

// Race starts op on every target at once and returns the first success.
// The remaining operations are cancelled as soon as a winner is known.
func Race[T any](ctx context.Context, targets []Target, perOpTimeout time.Duration, op Operation[T]) (*SyncResult[T], error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	raceCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan SyncResult[T], len(targets))
	for _, target := range targets {
		go func(target Target) {
			done <- runOne(raceCtx, target, perOpTimeout, op)
		}(target)
	}

	failures := make([]error, 0, len(targets))
	for range targets {
		res := <-done
		if res.Success {
			return &res, nil
		}
		failures = append(failures, fmt.Errorf("%s: %w", res.TargetID, res.Err))
	}
	return nil, fmt.Errorf("%w: %w", ErrNoWinner, errors.Join(failures...))
}

// FirstSuccess is Race without the metadata.
func FirstSuccess[T any](ctx context.Context, targets []Target, perOpTimeout time.Duration, op Operation[T]) (T, error) {
	res, err := Race(ctx, targets, perOpTimeout, op)
	if err != nil {
		var zero T
		return zero, err
	}
	return res.Data, nil
}

type outcome[T any] struct {
	data T
	err  error
}

// runOne applies the per-operation timeout. The result is recorded when the
// deadline passes even if op has not returned yet.
func runOne[T any](ctx context.Context, target Target, timeout time.Duration, op Operation[T]) SyncResult[T] {
	started := time.Now()
	res := SyncResult[T]{TargetID: target.ID, TargetName: target.Name}

	var (
		opCtx  context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(ctx, timeout)
	} else {
		opCtx, cancel = context.WithCancel(ctx)
	}
	defer cancel()

	finished := make(chan outcome[T], 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				finished <- outcome[T]{err: fmt.Errorf("sync operation panicked: %v", r)}
			}
		}()
		data, err := op(opCtx, target)
		finished <- outcome[T]{data: data, err: err}
	}()

	var out outcome[T]
	select {
	case out = <-finished:
	case <-opCtx.Done():
		out.err = opCtx.Err()
	}
	res.Duration = time.Since(started)

	switch {
	case out.err == nil:
		res.Success = true
		res.Data = out.data
	case errors.Is(out.err, context.DeadlineExceeded) && errors.Is(opCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		res.Err = fmt.Errorf("%w after %s", ErrSyncTimeout, timeout)
	default:
		res.Err = out.err
	}
	return res
}
