package workers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

// Result holds the outcome of one unit of work. Index always refers back to
// the position of the input item, regardless of completion order.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Ok reports whether the unit of work completed without error.
func (r Result[R]) Ok() bool {
	return r.Err == nil
}

// MapLimit runs fn over items with at most limit units in flight at once.
// Results are written to the slot matching each item's input index, so output
// order always matches input order. A failing item produces a Result with Err
// set; it never aborts sibling work. Context cancellation marks all remaining
// items as failed without starting them.
func MapLimit[T, R any](ctx context.Context, items []T, limit int, fn func(ctx context.Context, item T) (R, error)) []Result[R] {
	out := make([]Result[R], len(items))
	if len(items) == 0 {
		return out
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	var next int64 = -1
	var wg sync.WaitGroup
	wg.Add(limit)

	for w := 0; w < limit; w++ {
		go func() {
			defer wg.Done()
			for {
				idx := int(atomic.AddInt64(&next, 1))
				if idx >= len(items) {
					return
				}
				out[idx] = runOne(ctx, idx, items[idx], fn)
			}
		}()
	}

	wg.Wait()
	return out
}

func runOne[T, R any](ctx context.Context, idx int, item T, fn func(ctx context.Context, item T) (R, error)) (res Result[R]) {
	res.Index = idx

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			res.Err = fmt.Errorf("worker panic: %v", r)
		}
	}()

	res.Value, res.Err = fn(ctx, item)
	return res
}
