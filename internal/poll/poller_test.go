package poll

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// gatedFetch hands out results one at a time. Each call blocks until the
// test releases it with a value or an error.
type gatedFetch struct {
	calls   atomic.Int32
	started chan struct{}
	results chan result
}

type result struct {
	data int
	err  error
}

func newGatedFetch() *gatedFetch {
	return &gatedFetch{
		started: make(chan struct{}, 16),
		results: make(chan result),
	}
}

func (g *gatedFetch) fetch(ctx context.Context) (int, error) {
	g.calls.Add(1)
	g.started <- struct{}{}
	select {
	case r := <-g.results:
		return r.data, r.err
	case <-ctx.Done():
		return 0, ctx.Err()
	}
}

func (g *gatedFetch) waitStarted(t *testing.T) {
	t.Helper()
	select {
	case <-g.started:
	case <-time.After(2 * time.Second):
		t.Fatal("fetch did not start")
	}
}

func (g *gatedFetch) succeed(v int) { g.results <- result{data: v} }
func (g *gatedFetch) fail(msg string) {
	g.results <- result{err: stderrors.New(msg)}
}

func waitUpdate[T any](t *testing.T, p *Poller[T]) Snapshot[T] {
	t.Helper()
	select {
	case <-p.Updates():
	case <-time.After(2 * time.Second):
		t.Fatal("no update")
	}
	return p.Snapshot()
}

// newManual builds a poller whose schedule is too slow to fire during a
// test, so only Start's immediate fetch and Refresh drive it.
func newManual(g *gatedFetch, opts Options[int]) *Poller[int] {
	opts.Interval = time.Hour
	return New(g.fetch, opts)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "loading", Uninitialized.String())
	assert.Equal(t, "loaded", Loaded.String())
	assert.Equal(t, "stale", ErrorWhileLoaded.String())
	assert.Equal(t, "failed", Failed.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestNew_Defaults(t *testing.T) {
	p := New(func(context.Context) (int, error) { return 0, nil }, Options[int]{Name: "jobs"})
	assert.Equal(t, "jobs", p.Name())
	assert.Equal(t, time.Second, p.Interval())

	snap := p.Snapshot()
	assert.Equal(t, Uninitialized, snap.State)
	assert.True(t, snap.Loading())
	assert.False(t, snap.HasData())
}

func TestPoller_LoadStates(t *testing.T) {
	g := newGatedFetch()
	p := newManual(g, Options[int]{})
	p.Start(context.Background())
	defer p.Stop()

	// first fetch fails: nothing to show yet
	g.waitStarted(t)
	g.fail("connection refused")
	snap := waitUpdate(t, p)
	assert.Equal(t, Failed, snap.State)
	assert.Equal(t, "connection refused", snap.Err)
	assert.False(t, snap.Loading())
	assert.Zero(t, snap.Version)

	p.Refresh()
	g.waitStarted(t)
	g.succeed(7)
	snap = waitUpdate(t, p)
	assert.Equal(t, Loaded, snap.State)
	assert.Equal(t, 7, snap.Data)
	assert.Empty(t, snap.Err)
	assert.Equal(t, uint64(1), snap.Version)

	p.Refresh()
	g.waitStarted(t)
	g.fail("timeout")
	snap = waitUpdate(t, p)
	assert.Equal(t, ErrorWhileLoaded, snap.State)
	assert.Equal(t, 7, snap.Data, "stale data is kept")
	assert.Equal(t, "timeout", snap.Err)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Equal(t, uint64(2), snap.Failures)
	assert.Equal(t, uint64(1), snap.Successes)

	p.Refresh()
	g.waitStarted(t)
	g.succeed(8)
	snap = waitUpdate(t, p)
	assert.Equal(t, Loaded, snap.State)
	assert.Equal(t, 8, snap.Data)
	assert.Empty(t, snap.Err)
	assert.Equal(t, uint64(2), snap.Version)
}

func TestPoller_SkipsTicksWhileFetching(t *testing.T) {
	g := newGatedFetch()
	p := New(g.fetch, Options[int]{Interval: 5 * time.Millisecond})
	p.Start(context.Background())
	defer p.Stop()

	g.waitStarted(t)
	// many intervals pass while the first fetch is held
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), g.calls.Load())
	assert.True(t, p.Busy())

	g.succeed(1)
	waitUpdate(t, p)
}

func TestPoller_RefreshWhileInFlightQueuesOneFollowUp(t *testing.T) {
	g := newGatedFetch()
	p := newManual(g, Options[int]{})
	p.Start(context.Background())
	defer p.Stop()

	g.waitStarted(t)
	p.Refresh()
	p.Refresh()
	p.Refresh()
	assert.Equal(t, int32(1), g.calls.Load())

	g.succeed(1)
	g.waitStarted(t)
	assert.Equal(t, int32(2), g.calls.Load())

	g.succeed(2)
	require.Eventually(t, func() bool { return p.Snapshot().Data == 2 }, 2*time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, int32(2), g.calls.Load(), "repeated refreshes collapse into one follow-up")
}

func TestPoller_OnSuccess(t *testing.T) {
	g := newGatedFetch()
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var mu sync.Mutex
	var seen []int
	p := newManual(g, Options[int]{
		Now: func() time.Time { return at },
		OnSuccess: func(v int, ts time.Time) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, v)
			assert.Equal(t, at, ts)
		},
	})
	p.Start(context.Background())
	defer p.Stop()

	g.waitStarted(t)
	g.succeed(3)
	snap := waitUpdate(t, p)
	assert.Equal(t, at, snap.UpdatedAt)

	p.Refresh()
	g.waitStarted(t)
	g.fail("nope")
	waitUpdate(t, p)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{3}, seen, "hook only runs on success")
}

func TestPoller_StopDiscardsLateResult(t *testing.T) {
	hooked := atomic.Int32{}
	release := make(chan struct{})
	returned := make(chan struct{})

	fetch := func(ctx context.Context) (int, error) {
		<-release
		defer close(returned)
		// ignores cancellation on purpose
		return 99, nil
	}

	p := New(fetch, Options[int]{
		Interval:  time.Hour,
		OnSuccess: func(int, time.Time) { hooked.Add(1) },
	})
	p.Start(context.Background())
	require.Eventually(t, p.Busy, time.Second, time.Millisecond)

	p.Stop()
	close(release)
	<-returned
	time.Sleep(10 * time.Millisecond)

	snap := p.Snapshot()
	assert.Equal(t, Uninitialized, snap.State)
	assert.Zero(t, snap.Data)
	assert.Zero(t, hooked.Load())
}

func TestPoller_StopIsIdempotentAndSafeBeforeStart(t *testing.T) {
	g := newGatedFetch()
	p := newManual(g, Options[int]{})

	p.Stop()
	p.Stop()
	p.Start(context.Background())
	p.Refresh()

	time.Sleep(10 * time.Millisecond)
	assert.Zero(t, g.calls.Load())
}

func TestPoller_StopsWithParentContext(t *testing.T) {
	g := newGatedFetch()
	p := newManual(g, Options[int]{})

	ctx, cancel := context.WithCancel(context.Background())
	p.Start(ctx)
	g.waitStarted(t)

	cancel()
	require.Eventually(t, func() bool {
		p.Refresh()
		return !p.Busy()
	}, 2*time.Second, time.Millisecond)

	assert.Equal(t, Uninitialized, p.Snapshot().State)
	p.Stop()
}

func TestPoller_StartTwice(t *testing.T) {
	g := newGatedFetch()
	p := newManual(g, Options[int]{})
	p.Start(context.Background())
	p.Start(context.Background())
	defer p.Stop()

	g.waitStarted(t)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), g.calls.Load())
	g.succeed(1)
	waitUpdate(t, p)
}

func TestPoller_RefreshBeforeStart(t *testing.T) {
	g := newGatedFetch()
	p := newManual(g, Options[int]{})
	defer p.Stop()

	p.Refresh()
	g.waitStarted(t)
	g.succeed(5)
	snap := waitUpdate(t, p)
	assert.Equal(t, 5, snap.Data)
}

func TestPoller_TicksOnInterval(t *testing.T) {
	var calls atomic.Int32
	p := New(func(context.Context) (int, error) {
		return int(calls.Add(1)), nil
	}, Options[int]{Interval: 5 * time.Millisecond})

	p.Start(context.Background())
	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	p.Stop()

	v := p.Snapshot().Version
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, v, p.Snapshot().Version, "no updates after Stop")
}
