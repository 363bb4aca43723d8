package orchestrate

import (
	"context"
	"runtime"
	"sync"
)

// workerCount clamps a requested worker count to a usable positive value,
// defaulting to the number of usable CPUs when the caller has no opinion
// (workers <= 0).
func workerCount(workers int) int {
	if workers > 0 {
		return workers
	}
	if n := runtime.GOMAXPROCS(0); n > 0 {
		return n
	}
	return 1
}

// Map runs fn over every item in items using up to workers goroutines,
// returning one result per item in the same order items was given
// regardless of which goroutine finishes first.
//
// Once ctx is done, any item not yet picked up by a worker is skipped and
// its result is R's zero value; an item already in flight runs to
// completion, since fn is expected to do its own cheap ctx.Err() check for
// anything long-running, the same cooperative-cancellation contract every
// other suspending operation in this module follows.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	if len(items) == 0 {
		return results
	}

	n := workerCount(workers)
	if n > len(items) {
		n = len(items)
	}

	indices := make(chan int, len(items))
	for i := range items {
		indices <- i
	}
	close(indices)

	var wg sync.WaitGroup
	wg.Add(n)
	for w := 0; w < n; w++ {
		go func() {
			defer wg.Done()
			for i := range indices {
				if ctx.Err() != nil {
					continue
				}
				results[i] = fn(ctx, items[i])
			}
		}()
	}
	wg.Wait()

	return results
}
