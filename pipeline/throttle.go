package pipeline

import (
	"context"
	"time"
)

// Pace spaces emissions at least interval apart without dropping values.
// The first value is not delayed. A non-positive interval returns p as is.
func Pace[T any](p *Pipeline[T], interval time.Duration) *Pipeline[T] {
	if interval <= 0 {
		return p
	}
	return stage(func(ctx context.Context) Iterator[T] {
		src := p.open(ctx)
		var last time.Time
		return funcIter[T]{
			next: func(ctx context.Context) (T, bool, error) {
				v, ok, err := src.Next(ctx)
				if err != nil || !ok {
					return v, ok, err
				}
				if err := sleepUntil(ctx, last.Add(interval)); err != nil {
					var zero T
					return zero, false, err
				}
				last = time.Now()
				return v, true, nil
			},
			close: src.Close,
		}
	})
}

func sleepUntil(ctx context.Context, t time.Time) error {
	d := time.Until(t)
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
