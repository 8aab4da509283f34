package inflight

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/unkn0wn-root/batchcache"
	"github.com/unkn0wn-root/batchcache/store/memory"
)

func itoa(x int) (string, error) { return strconv.Itoa(x), nil }

// recorder is a batch func whose first call blocks until release is closed.
type recorder struct {
	mu      sync.Mutex
	calls   [][]int
	started chan struct{}
	release chan struct{}
	fail    error
}

func newRecorder() *recorder {
	return &recorder{started: make(chan struct{}, 8), release: make(chan struct{})}
}

func (r *recorder) fn(ctx context.Context, xs []int) ([]int, error) {
	r.mu.Lock()
	r.calls = append(r.calls, append([]int(nil), xs...))
	first := len(r.calls) == 1
	r.mu.Unlock()
	r.started <- struct{}{}
	if first {
		<-r.release
		if r.fail != nil {
			return nil, r.fail
		}
	}
	out := make([]int, len(xs))
	for i, x := range xs {
		out[i] = x * 10
	}
	return out, nil
}

func (r *recorder) snapshot() [][]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]int(nil), r.calls...)
}

func waitStarted(t *testing.T, r *recorder) {
	t.Helper()
	select {
	case <-r.started:
	case <-time.After(2 * time.Second):
		t.Fatalf("batch func was not called")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOverlappingCallersComputeSharedKeyOnce(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	g := New[int, int](itoa, rec.fn)

	var aOut []int
	var aErr error
	aDone := make(chan struct{})
	go func() {
		defer close(aDone)
		aOut, aErr = g.Do(ctx, []int{1, 2})
	}()
	waitStarted(t, rec) // A owns 1 and 2
	if n := g.InFlight(); n != 2 {
		t.Fatalf("expected keys 1 and 2 in flight, got %d", n)
	}

	var bOut []int
	var bErr error
	bDone := make(chan struct{})
	go func() {
		defer close(bDone)
		bOut, bErr = g.Do(ctx, []int{2, 3, 2})
	}()
	waitStarted(t, rec) // B computes 3, then waits for 2
	waitFor(t, func() bool { return g.Waiting() == 1 })

	close(rec.release)
	<-aDone
	<-bDone

	if aErr != nil || bErr != nil {
		t.Fatalf("unexpected errors: a=%v b=%v", aErr, bErr)
	}
	if len(aOut) != 2 || aOut[0] != 10 || aOut[1] != 20 {
		t.Fatalf("A results: %v", aOut)
	}
	if len(bOut) != 3 || bOut[0] != 20 || bOut[1] != 30 || bOut[2] != 20 {
		t.Fatalf("B results: %v", bOut)
	}
	calls := rec.snapshot()
	if len(calls) != 2 || len(calls[1]) != 1 || calls[1][0] != 3 {
		t.Fatalf("expected B to compute only [3], calls=%v", calls)
	}
	if g.InFlight() != 0 {
		t.Fatalf("keys left in flight after completion")
	}
}

func TestWaiterReceivesOwnerError(t *testing.T) {
	ctx := context.Background()
	rec := newRecorder()
	rec.fail = errors.New("upstream down")
	g := New[int, int](itoa, rec.fn)

	aErr := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, []int{7})
		aErr <- err
	}()
	waitStarted(t, rec)

	bErr := make(chan error, 1)
	go func() {
		_, err := g.Do(ctx, []int{7})
		bErr <- err
	}()
	waitFor(t, func() bool { return g.Waiting() == 1 })
	close(rec.release)

	if err := <-aErr; !errors.Is(err, rec.fail) {
		t.Fatalf("owner error: %v", err)
	}
	if err := <-bErr; !errors.Is(err, rec.fail) {
		t.Fatalf("waiter error: %v", err)
	}
	// nothing remembered: the next call computes again
	if _, err := g.Do(ctx, []int{7}); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
}

func TestWaiterContextCancel(t *testing.T) {
	rec := newRecorder()
	g := New[int, int](itoa, rec.fn)

	go func() { _, _ = g.Do(context.Background(), []int{1}) }()
	waitStarted(t, rec)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := g.Do(ctx, []int{1}); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
	close(rec.release)
}

func TestResultCountMismatchReleasesKeys(t *testing.T) {
	g := New[int, int](itoa, func(_ context.Context, xs []int) ([]int, error) {
		return []int{1}, nil
	})
	_, err := g.Do(context.Background(), []int{1, 2})
	var rc *batchcache.ResultCountError
	if !errors.As(err, &rc) || rc.Want != 2 || rc.Got != 1 {
		t.Fatalf("expected ResultCountError{2,1}, got %v", err)
	}
	if g.InFlight() != 0 {
		t.Fatalf("keys leaked after failed call")
	}
}

func TestPanicReleasesKeys(t *testing.T) {
	g := New[int, int](itoa, func(context.Context, []int) ([]int, error) {
		panic("boom")
	})
	func() {
		defer func() {
			if recover() == nil {
				t.Fatalf("expected panic to propagate")
			}
		}()
		_, _ = g.Do(context.Background(), []int{1})
	}()
	if g.InFlight() != 0 {
		t.Fatalf("keys leaked after panic")
	}
}

func TestUnderMerger(t *testing.T) {
	ctx := context.Background()
	const callers = 8

	// every caller must pass the merger's partition (all misses) before the
	// single owner is allowed to finish
	var entered sync.WaitGroup
	entered.Add(callers)

	var mu sync.Mutex
	computed := map[int]int{}
	fn := func(_ context.Context, xs []int) ([]int, error) {
		entered.Wait()
		mu.Lock()
		defer mu.Unlock()
		out := make([]int, len(xs))
		for i, x := range xs {
			computed[x]++
			out[i] = x * 10
		}
		return out, nil
	}

	g := New[int, int](itoa, fn)
	gate := func(ctx context.Context, xs []int) ([]int, error) {
		entered.Done()
		return g.Do(ctx, xs)
	}
	m, err := batchcache.New(batchcache.Options[int, int]{
		Store:  memory.New[int](),
		Hasher: itoa,
		Func:   gate,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := m.Invoke(ctx, []int{1, 2, 3})
			if err != nil || len(got) != 3 || got[2] != 30 {
				t.Errorf("Invoke: got=%v err=%v", got, err)
			}
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(computed) != 3 {
		t.Fatalf("expected 3 computed keys, got %v", computed)
	}
	for x, n := range computed {
		if n != 1 {
			t.Fatalf("key %d computed %d times", x, n)
		}
	}
}
