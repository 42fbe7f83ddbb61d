package pipeline

import "context"

// Iterator yields values one at a time. Next reports ok=false with a nil
// error once the stream is exhausted.
type Iterator[T any] interface {
	Next(ctx context.Context) (T, bool, error)
	Close() error
}

// Pipeline is a lazy stream description. Each terminal opens a fresh
// iterator chain, so nothing runs before Collect, ForEach or Run.
type Pipeline[T any] struct {
	open func(ctx context.Context) Iterator[T]
}

// funcIter adapts a pair of closures to Iterator.
type funcIter[T any] struct {
	next  func(ctx context.Context) (T, bool, error)
	close func() error
}

func (it funcIter[T]) Next(ctx context.Context) (T, bool, error) { return it.next(ctx) }

func (it funcIter[T]) Close() error {
	if it.close == nil {
		return nil
	}
	return it.close()
}

func stage[T any](open func(ctx context.Context) Iterator[T]) *Pipeline[T] {
	return &Pipeline[T]{open: open}
}

// FromSlice streams the elements of items in order.
func FromSlice[T any](items []T) *Pipeline[T] {
	return stage(func(context.Context) Iterator[T] {
		pos := 0
		return funcIter[T]{next: func(context.Context) (T, bool, error) {
			var v T
			if pos >= len(items) {
				return v, false, nil
			}
			v = items[pos]
			pos++
			return v, true, nil
		}}
	})
}

// FromChannel streams values received on ch until it is closed.
func FromChannel[T any](ch <-chan T) *Pipeline[T] {
	return stage(func(context.Context) Iterator[T] {
		return funcIter[T]{next: func(ctx context.Context) (T, bool, error) {
			select {
			case v, ok := <-ch:
				return v, ok, nil
			case <-ctx.Done():
				var zero T
				return zero, false, ctx.Err()
			}
		}}
	})
}

// Map applies fn to each value. The first error ends the stream.
func Map[I, O any](p *Pipeline[I], fn func(context.Context, I) (O, error)) *Pipeline[O] {
	return stage(func(ctx context.Context) Iterator[O] {
		src := p.open(ctx)
		return funcIter[O]{
			next: func(ctx context.Context) (O, bool, error) {
				var zero O
				v, ok, err := src.Next(ctx)
				if err != nil || !ok {
					return zero, false, err
				}
				out, err := fn(ctx, v)
				if err != nil {
					return zero, false, err
				}
				return out, true, nil
			},
			close: src.Close,
		}
	})
}

// Runnable is a pipeline bound to its sink.
type Runnable struct {
	run func(ctx context.Context) error
}

// Run pulls the pipeline to completion, stopping at the first error.
func (r *Runnable) Run(ctx context.Context) error { return r.run(ctx) }

// Drain binds p to sink without starting it.
func Drain[T any](p *Pipeline[T], sink func(context.Context, T) error) *Runnable {
	return &Runnable{run: func(ctx context.Context) error {
		return pull(ctx, p, sink)
	}}
}

// ForEach runs p and hands every value to fn.
func ForEach[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	return pull(ctx, p, fn)
}

// Collect runs p and gathers its values. On error the values pulled so far
// are returned alongside it.
func Collect[T any](ctx context.Context, p *Pipeline[T]) ([]T, error) {
	var out []T
	err := pull(ctx, p, func(_ context.Context, v T) error {
		out = append(out, v)
		return nil
	})
	return out, err
}

func pull[T any](ctx context.Context, p *Pipeline[T], fn func(context.Context, T) error) error {
	it := p.open(ctx)
	defer it.Close() //nolint:errcheck
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(ctx, v); err != nil {
			return err
		}
	}
}
