// Package batch provides a bounded-concurrency batch processor.
//
// Items are processed in fixed-size windows: each window's handlers run
// concurrently and the window is awaited in full before the next one starts.
// This caps the number of in-flight operations without a shared work queue,
// which is all the platform APIs need to stay under their rate limits.
package batch

import (
	"context"
	"sync"
	"time"

	"github.com/projmd/projmd/pkg/observability"
)

// progressStep controls how often the observer fires: every 5th completed
// item, plus the final one.
const progressStep = 5

// Observer receives coarse progress updates during a batch run. It is called
// from handler goroutines and must not block; implementations that need to
// do real work should hand off to their own goroutine.
type Observer func(completed, total int)

// Process runs handler over items with at most limit concurrent invocations,
// returning results in input order.
//
// Handler errors do not stop the batch; each result slot carries its own
// error and the caller decides how to degrade. Context cancellation stops
// new windows from starting and is reported through the per-item errors of
// the remaining slots.
func Process[T, R any](ctx context.Context, label string, items []T, limit int, handler func(context.Context, T) (R, error), obs Observer) ([]R, []error) {
	if limit <= 0 {
		limit = 1
	}

	total := len(items)
	results := make([]R, total)
	errs := make([]error, total)
	if total == 0 {
		return results, errs
	}

	observability.Batch().OnBatchStart(ctx, label, total)
	start := time.Now()

	var completed int
	var mu sync.Mutex

	for begin := 0; begin < total; begin += limit {
		if err := ctx.Err(); err != nil {
			for i := begin; i < total; i++ {
				errs[i] = err
			}
			break
		}

		end := min(begin+limit, total)

		var wg sync.WaitGroup
		for i := begin; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = handler(ctx, items[i])

				mu.Lock()
				completed++
				done := completed
				mu.Unlock()

				if obs != nil && (done%progressStep == 0 || done == total) {
					obs(done, total)
				}
			}(i)
		}
		wg.Wait()
	}

	observability.Batch().OnBatchComplete(ctx, label, total, time.Since(start))
	return results, errs
}
