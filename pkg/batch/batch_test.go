package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

func TestProcessPreservesOrder(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}

	results, errs := Process(context.Background(), "doubles", items, 3,
		func(ctx context.Context, n int) (int, error) {
			return n * 2, nil
		}, nil)

	for i, n := range items {
		if errs[i] != nil {
			t.Errorf("errs[%d] = %v, want nil", i, errs[i])
		}
		if results[i] != n*2 {
			t.Errorf("results[%d] = %d, want %d", i, results[i], n*2)
		}
	}
}

func TestProcessEmptyInput(t *testing.T) {
	results, errs := Process(context.Background(), "empty", nil, 3,
		func(ctx context.Context, n int) (int, error) {
			t.Error("handler called for empty input")
			return 0, nil
		}, nil)

	if len(results) != 0 || len(errs) != 0 {
		t.Errorf("got %d results, %d errs for empty input", len(results), len(errs))
	}
}

func TestProcessCapsConcurrency(t *testing.T) {
	const limit = 3

	var current, peak atomic.Int32
	var mu sync.Mutex

	items := make([]int, 20)
	Process(context.Background(), "concurrency", items, limit,
		func(ctx context.Context, _ int) (struct{}, error) {
			n := current.Add(1)
			mu.Lock()
			if n > peak.Load() {
				peak.Store(n)
			}
			mu.Unlock()
			defer current.Add(-1)
			return struct{}{}, nil
		}, nil)

	if p := peak.Load(); p > limit {
		t.Errorf("peak concurrency = %d, want <= %d", p, limit)
	}
}

func TestProcessIsolatesFailures(t *testing.T) {
	boom := errors.New("boom")

	results, errs := Process(context.Background(), "failures", []int{1, 2, 3}, 2,
		func(ctx context.Context, n int) (string, error) {
			if n == 2 {
				return "", boom
			}
			return fmt.Sprintf("ok-%d", n), nil
		}, nil)

	if !errors.Is(errs[1], boom) {
		t.Errorf("errs[1] = %v, want %v", errs[1], boom)
	}
	if results[0] != "ok-1" || results[2] != "ok-3" {
		t.Errorf("healthy items affected by a failing one: %v", results)
	}
}

func TestProcessStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var calls atomic.Int32
	items := make([]int, 10)

	// Cancel during the first window; later windows must not start.
	_, errs := Process(ctx, "cancel", items, 2,
		func(ctx context.Context, _ int) (struct{}, error) {
			calls.Add(1)
			cancel()
			return struct{}{}, nil
		}, nil)

	if n := calls.Load(); n > 2 {
		t.Errorf("handler called %d times after cancellation, want <= 2", n)
	}

	cancelled := 0
	for _, err := range errs {
		if errors.Is(err, context.Canceled) {
			cancelled++
		}
	}
	if cancelled != 8 {
		t.Errorf("%d items reported cancellation, want 8", cancelled)
	}
}

func TestProcessReportsProgress(t *testing.T) {
	var updates []int
	var mu sync.Mutex

	items := make([]int, 12)
	Process(context.Background(), "progress", items, 4,
		func(ctx context.Context, _ int) (struct{}, error) {
			return struct{}{}, nil
		},
		func(completed, total int) {
			mu.Lock()
			updates = append(updates, completed)
			mu.Unlock()
		})

	// Every 5th completion plus the final one: 5, 10, 12.
	if len(updates) != 3 {
		t.Fatalf("got %d progress updates (%v), want 3", len(updates), updates)
	}
	last := updates[len(updates)-1]
	if last != 12 {
		t.Errorf("final progress update = %d, want 12", last)
	}
}
