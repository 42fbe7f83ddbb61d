package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func intSliceEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFromSlice_Collect(t *testing.T) {
	got, err := Collect(context.Background(), FromSlice([]int{1, 2, 3}))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", got)
	}
}

func TestFromChannel(t *testing.T) {
	ch := make(chan string, 3)
	ch <- "a.mp3"
	ch <- "b.txt"
	ch <- "c.wav"
	close(ch)

	got, err := Collect(context.Background(), FromChannel(ch))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 || got[0] != "a.mp3" || got[2] != "c.wav" {
		t.Errorf("got %v", got)
	}
}

func TestFromChannel_ContextCancel(t *testing.T) {
	ch := make(chan int)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Collect(ctx, FromChannel(ch)); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestMap_Error(t *testing.T) {
	p := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("map failed")
		}
		return n, nil
	})
	got, err := Collect(context.Background(), p)
	if err == nil || !strings.Contains(err.Error(), "map failed") {
		t.Fatalf("expected map error, got %v", err)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("expected values before the error, got %v", got)
	}
}

func TestBatch(t *testing.T) {
	batches, err := Collect(context.Background(), Batch(FromSlice([]int{1, 2, 3, 4, 5}), 2, 0))
	if err != nil {
		t.Fatal(err)
	}
	if len(batches) != 3 || len(batches[2]) != 1 || batches[2][0] != 5 {
		t.Errorf("unexpected batches %v", batches)
	}
}

func TestBatch_ErrorAfterPartialBatch(t *testing.T) {
	p := Map(FromSlice([]int{1, 2, 3, 4}), func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("transcribe failed")
		}
		return n, nil
	})
	batches, err := Collect(context.Background(), Batch(p, 10, 0))
	if err == nil || !strings.Contains(err.Error(), "transcribe failed") {
		t.Fatalf("expected source error, got %v", err)
	}
	if len(batches) != 1 || !intSliceEqual(batches[0], []int{1, 2}) {
		t.Errorf("expected the partial batch first, got %v", batches)
	}
}

func TestOrderedMap_UpstreamErrorAfterOutcomes(t *testing.T) {
	src := Map(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("read failed")
		}
		return n, nil
	})
	got, err := Collect(context.Background(), OrderedMap(src, 2, func(_ context.Context, n int) (int, error) {
		return n * 10, nil
	}))
	if err == nil || !strings.Contains(err.Error(), "read failed") {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if len(got) != 2 || got[0].Value != 10 || got[1].Value != 20 {
		t.Errorf("expected both earlier outcomes, got %+v", got)
	}
}

func TestPace_DelaysWithoutDropping(t *testing.T) {
	start := time.Now()
	got, err := Collect(context.Background(), Pace(FromSlice([]int{1, 2, 3}), 20*time.Millisecond))
	if err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(got, []int{1, 2, 3}) {
		t.Errorf("expected all values, got %v", got)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("expected at least 40ms between three values, got %v", elapsed)
	}
}

func TestPace_ZeroIntervalIsPassthrough(t *testing.T) {
	src := FromSlice([]int{1})
	if Pace(src, 0) != src {
		t.Error("expected the source pipeline back")
	}
}

func TestPace_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	got, err := Collect(ctx, Pace(FromSlice([]int{1, 2}), time.Hour))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	if !intSliceEqual(got, []int{1}) {
		t.Errorf("expected first value only, got %v", got)
	}
}

func TestParallel(t *testing.T) {
	doubled := Parallel(FromSlice([]int{1, 2, 3, 4, 5}), 3, func(_ context.Context, n int) (int, error) {
		return n * 2, nil
	})
	got, err := Collect(context.Background(), doubled)
	if err != nil {
		t.Fatal(err)
	}
	sort.Ints(got)
	if !intSliceEqual(got, []int{2, 4, 6, 8, 10}) {
		t.Errorf("got %v", got)
	}
}

func TestParallel_Error(t *testing.T) {
	failing := Parallel(FromSlice([]int{1, 2, 3, 4, 5}), 2, func(_ context.Context, n int) (int, error) {
		if n == 3 {
			return 0, errors.New("worker failed")
		}
		return n, nil
	})
	if _, err := Collect(context.Background(), failing); err == nil {
		t.Fatal("expected error from parallel worker")
	}
}

func TestOrderedMap_PreservesOrderUnderReversedCompletion(t *testing.T) {
	chunks := []string{"c0", "c1", "c2", "c3", "c4"}
	n := len(chunks)
	summarize := func(ctx context.Context, chunk string) (string, error) {
		var idx int
		_, _ = fmt.Sscanf(chunk, "c%d", &idx)
		// Later chunks finish first.
		time.Sleep(time.Duration(n-idx) * 10 * time.Millisecond)
		return "summary of " + chunk, nil
	}

	got, err := Collect(context.Background(), OrderedMap(FromSlice(chunks), n, summarize))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != n {
		t.Fatalf("expected %d outcomes, got %d", n, len(got))
	}
	for i, r := range got {
		if r.Index != i || r.Value != "summary of "+chunks[i] || r.Err != nil {
			t.Errorf("outcome %d = %+v", i, r)
		}
	}
}

func TestOrderedMap_ErrorsStayInPlace(t *testing.T) {
	got, err := Collect(context.Background(), OrderedMap(FromSlice([]int{1, 2, 3}), 2, func(_ context.Context, n int) (int, error) {
		if n == 2 {
			return 0, errors.New("chunk failed")
		}
		return n * 10, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 outcomes, got %d", len(got))
	}
	if got[0].Value != 10 || got[2].Value != 30 {
		t.Errorf("unexpected values %+v", got)
	}
	if got[1].Err == nil || got[1].Index != 1 {
		t.Errorf("expected error at index 1, got %+v", got[1])
	}
}

func TestOrderedMap_BoundsConcurrency(t *testing.T) {
	var active, peak atomic.Int32
	_, err := Collect(context.Background(), OrderedMap(FromSlice(make([]int, 10)), 3, func(_ context.Context, n int) (int, error) {
		cur := active.Add(1)
		for {
			p := peak.Load()
			if cur <= p || peak.CompareAndSwap(p, cur) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		active.Add(-1)
		return n, nil
	}))
	if err != nil {
		t.Fatal(err)
	}
	if peak.Load() > 3 {
		t.Errorf("expected at most 3 concurrent workers, saw %d", peak.Load())
	}
}

func TestDrain_Run(t *testing.T) {
	var collected []int
	r := Drain(FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		collected = append(collected, n)
		return nil
	})
	if err := r.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !intSliceEqual(collected, []int{1, 2, 3}) {
		t.Errorf("got %v, want [1 2 3]", collected)
	}
}

func TestForEach(t *testing.T) {
	var sum int
	err := ForEach(context.Background(), FromSlice([]int{1, 2, 3}), func(_ context.Context, n int) error {
		sum += n
		return nil
	})
	if err != nil || sum != 6 {
		t.Errorf("sum = %d, err = %v", sum, err)
	}
}
