package pipeline

import (
	"context"
	"sync"
)

// outcome pairs an input item with what processing it produced. Unlike a
// fail-fast pool, errors here do not cancel siblings: one bad account must
// not sink the rest of the run.
type outcome[T, R any] struct {
	Item  T
	Value R
	Err   error
}

// forEach processes items with a bounded worker pool and returns one
// outcome per item, in input order. Only context cancellation stops the
// pool early; unprocessed items report the context error.
func forEach[T, R any](ctx context.Context, items []T, workers int, process func(ctx context.Context, item T) (R, error)) []outcome[T, R] {
	if len(items) == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	out := make([]outcome[T, R], len(items))
	jobs := make(chan int)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := ctx.Err(); err != nil {
					out[idx] = outcome[T, R]{Item: items[idx], Err: err}
					continue
				}
				value, err := process(ctx, items[idx])
				out[idx] = outcome[T, R]{Item: items[idx], Value: value, Err: err}
			}
		}()
	}

	for idx := range items {
		jobs <- idx
	}
	close(jobs)
	wg.Wait()
	return out
}
