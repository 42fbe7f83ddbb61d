package pipeline

import (
	"context"
	"sync"
)

// Indexed carries one OrderedMap outcome with its input position.
type Indexed[T any] struct {
	Index int
	Value T
	Err   error
}

// sourceFailed marks the outcome that carries an upstream error.
const sourceFailed = -1

// fanOut feeds values from src to n workers running fn. Every outcome is
// tagged with its input position; an upstream error arrives as a single
// outcome with Index sourceFailed. The channel closes once the feeder and
// all workers have returned.
func fanOut[I, O any](ctx context.Context, src Iterator[I], n int, fn func(context.Context, I) (O, error)) <-chan Indexed[O] {
	jobs := make(chan Indexed[I], n)
	out := make(chan Indexed[O], n)
	emit := func(o Indexed[O]) bool {
		select {
		case out <- o:
			return true
		case <-ctx.Done():
			return false
		}
	}

	var wg sync.WaitGroup
	wg.Go(func() {
		defer close(jobs)
		for idx := 0; ; idx++ {
			v, ok, err := src.Next(ctx)
			if err != nil {
				emit(Indexed[O]{Index: sourceFailed, Err: err})
				return
			}
			if !ok {
				return
			}
			select {
			case jobs <- Indexed[I]{Index: idx, Value: v}:
			case <-ctx.Done():
				return
			}
		}
	})
	for range n {
		wg.Go(func() {
			for job := range jobs {
				v, err := fn(ctx, job.Value)
				if !emit(Indexed[O]{Index: job.Index, Value: v, Err: err}) {
					return
				}
			}
		})
	}
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}

// recv takes one outcome from ch, honouring ctx.
func recv[T any](ctx context.Context, ch <-chan Indexed[T]) (Indexed[T], bool, error) {
	select {
	case o, open := <-ch:
		return o, open, nil
	case <-ctx.Done():
		return Indexed[T]{}, false, ctx.Err()
	}
}

// Parallel applies fn with up to n workers and emits results as they
// complete, so input order is not kept. The first error from the source or
// from fn ends the stream.
func Parallel[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[O] {
	n = max(n, 1)
	return stage(func(ctx context.Context) Iterator[O] {
		src := p.open(ctx)
		workCtx, cancel := context.WithCancel(ctx)
		results := fanOut(workCtx, src, n, fn)
		return funcIter[O]{
			next: func(ctx context.Context) (O, bool, error) {
				o, ok, err := recv(ctx, results)
				if err == nil && ok && o.Err != nil {
					cancel()
					err, ok = o.Err, false
				}
				return o.Value, ok, err
			},
			close: func() error {
				cancel()
				return src.Close()
			},
		}
	})
}

// OrderedMap applies fn to each value with up to n workers and emits the
// outcomes in input order, whatever order the workers finish in. A failing
// item does not stop the others; its error is reported in Indexed.Err. An
// upstream error is returned after every outcome before it.
func OrderedMap[I, O any](p *Pipeline[I], n int, fn func(context.Context, I) (O, error)) *Pipeline[Indexed[O]] {
	n = max(n, 1)
	return stage(func(ctx context.Context) Iterator[Indexed[O]] {
		src := p.open(ctx)
		workCtx, cancel := context.WithCancel(ctx)
		results := fanOut(workCtx, src, n, fn)

		held := make(map[int]Indexed[O])
		want := 0
		var upstream error
		return funcIter[Indexed[O]]{
			next: func(ctx context.Context) (Indexed[O], bool, error) {
				for {
					if o, ok := held[want]; ok {
						delete(held, want)
						want++
						return o, true, nil
					}
					o, open, err := recv(ctx, results)
					switch {
					case err != nil:
						return Indexed[O]{}, false, err
					case !open:
						return Indexed[O]{}, false, upstream
					case o.Index == sourceFailed:
						upstream = o.Err
					default:
						held[o.Index] = o
					}
				}
			},
			close: func() error {
				cancel()
				return src.Close()
			},
		}
	})
}
