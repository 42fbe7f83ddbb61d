package pipeline

import (
	"context"
	"time"
)

// Batch groups values into slices of up to size. A positive maxWait emits
// a partial batch once that long has passed since its first value, which
// bounds latency when a slow source feeds a rate-limited consumer. A
// non-positive size means batches are cut by maxWait alone; with both
// unset every value is its own batch.
//
// A source error that arrives mid-batch is held back until the partial
// batch has been delivered.
func Batch[T any](p *Pipeline[T], size int, maxWait time.Duration) *Pipeline[[]T] {
	if size <= 0 && maxWait <= 0 {
		size = 1
	}
	full := func(n int) bool { return size > 0 && n >= size }

	return stage(func(ctx context.Context) Iterator[[]T] {
		src := p.open(ctx)
		var (
			pending error
			done    bool
		)
		return funcIter[[]T]{
			next: func(ctx context.Context) ([]T, bool, error) {
				if done {
					err := pending
					pending = nil
					return nil, false, err
				}
				var (
					batch    []T
					deadline time.Time
				)
				for !full(len(batch)) {
					v, ok, err := src.Next(ctx)
					if err != nil || !ok {
						done = true
						if len(batch) == 0 {
							return nil, false, err
						}
						pending = err
						return batch, true, nil
					}
					if batch == nil && maxWait > 0 {
						deadline = time.Now().Add(maxWait)
					}
					batch = append(batch, v)
					if !deadline.IsZero() && !time.Now().Before(deadline) {
						break
					}
				}
				return batch, true, nil
			},
			close: src.Close,
		}
	})
}
