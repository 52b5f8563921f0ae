// Package poll runs a fetch function on a fixed interval and keeps the
// last good result alongside the latest error.
//
// A Poller never has more than one fetch outstanding. Failed fetches leave
// the previous data in place. After Stop returns, no further state change or
// hook call happens, even if a fetch resolves later.
package poll

import (
	"context"
	"sync"
	"time"

	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/internal/logger"
)

// State is the load state of a poller's data.
type State int

const (
	// Uninitialized means no fetch has completed yet.
	Uninitialized State = iota
	// Loaded means the last fetch succeeded.
	Loaded
	// ErrorWhileLoaded means the last fetch failed but earlier data is kept.
	ErrorWhileLoaded
	// Failed means every fetch so far has failed; there is no data.
	Failed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "loading"
	case Loaded:
		return "loaded"
	case ErrorWhileLoaded:
		return "stale"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Snapshot is a consistent copy of a poller's state. Data is shared with
// the poller and must be treated as read-only.
type Snapshot[T any] struct {
	State State
	Data  T
	// Err is the message from the latest failed fetch, cleared on success.
	Err string
	// Version increments every time Data is replaced.
	Version uint64
	// UpdatedAt is when Data was last replaced.
	UpdatedAt time.Time
	Successes uint64
	Failures  uint64
}

// HasData reports whether at least one fetch has succeeded.
func (s Snapshot[T]) HasData() bool {
	return s.State == Loaded || s.State == ErrorWhileLoaded
}

// Loading reports whether the UI should show a loading indicator.
func (s Snapshot[T]) Loading() bool {
	return s.State == Uninitialized
}

// FetchFunc retrieves one result.
type FetchFunc[T any] func(ctx context.Context) (T, error)

// Options configure a Poller.
type Options[T any] struct {
	Name     string
	Interval time.Duration
	Logger   logger.Logger
	// OnSuccess runs after Data is replaced, while the poller's lock is
	// held. It must not call back into the poller.
	OnSuccess func(data T, at time.Time)
	// Now overrides the clock in tests.
	Now func() time.Time
}

// Poller owns the polling loop for one source.
type Poller[T any] struct {
	name      string
	interval  time.Duration
	fetch     FetchFunc[T]
	onSuccess func(T, time.Time)
	log       logger.Logger
	now       func() time.Time
	updates   chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	loop   sync.WaitGroup

	mu       sync.Mutex
	snap     Snapshot[T]
	started  bool
	stopped  bool
	inFlight bool
	pending  bool
}

// New creates a stopped poller. Call Start to begin polling.
func New[T any](fetch FetchFunc[T], opts Options[T]) *Poller[T] {
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.Noop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Poller[T]{
		name:      opts.Name,
		interval:  opts.Interval,
		fetch:     fetch,
		onSuccess: opts.OnSuccess,
		log:       opts.Logger,
		now:       opts.Now,
		updates:   make(chan struct{}, 1),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Name returns the poller's name.
func (p *Poller[T]) Name() string {
	return p.name
}

// Interval returns the polling period.
func (p *Poller[T]) Interval() time.Duration {
	return p.interval
}

// Start fetches immediately and then once per interval until Stop is called
// or ctx is done. Calling Start more than once has no effect.
func (p *Poller[T]) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	stopWithParent := context.AfterFunc(ctx, p.cancel)

	p.loop.Add(1)
	go func() {
		defer p.loop.Done()
		defer stopWithParent()
		p.run()
	}()
}

func (p *Poller[T]) run() {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick()
	for {
		select {
		case <-p.ctx.Done():
			p.mu.Lock()
			p.stopped = true
			p.mu.Unlock()
			return
		case <-ticker.C:
			p.tick()
		}
	}
}

// tick starts a fetch unless one is already outstanding.
func (p *Poller[T]) tick() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.inFlight {
		p.log.Debug("fetch still outstanding, skipping tick")
		return
	}
	p.launchLocked()
}

// Refresh fetches now, outside the regular schedule. If a fetch is already
// outstanding, exactly one more runs as soon as it completes.
func (p *Poller[T]) Refresh() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.stopped {
		return
	}
	if p.inFlight {
		p.pending = true
		return
	}
	p.launchLocked()
}

func (p *Poller[T]) launchLocked() {
	p.inFlight = true
	ctx := p.ctx
	go func() {
		data, err := p.fetch(ctx)
		p.complete(data, err)
	}()
}

func (p *Poller[T]) complete(data T, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.inFlight = false
	if p.stopped || p.ctx.Err() != nil {
		p.stopped = true
		return
	}

	if err != nil {
		p.snap.Failures++
		wasFailing := p.snap.Err != ""
		p.snap.Err = errors.Summary(err)
		if p.snap.HasData() {
			p.snap.State = ErrorWhileLoaded
		} else {
			p.snap.State = Failed
		}
		if wasFailing {
			p.log.Debug("fetch failed: %s", p.snap.Err)
		} else {
			p.log.Warn("fetch failed: %s", p.snap.Err)
		}
	} else {
		now := p.now()
		if p.snap.Err != "" {
			p.log.Info("recovered after %d failed fetches", p.snap.Failures)
		}
		p.snap.Successes++
		p.snap.Data = data
		p.snap.Err = ""
		p.snap.State = Loaded
		p.snap.Version++
		p.snap.UpdatedAt = now
		if p.onSuccess != nil {
			p.onSuccess(data, now)
		}
		p.log.Debug("fetch ok (version %d)", p.snap.Version)
	}

	p.notifyLocked()

	if p.pending {
		p.pending = false
		p.launchLocked()
	}
}

func (p *Poller[T]) notifyLocked() {
	select {
	case p.updates <- struct{}{}:
	default:
	}
}

// Stop ends polling. After it returns the snapshot no longer changes and
// OnSuccess is not called again. Stop is idempotent and safe before Start.
func (p *Poller[T]) Stop() {
	p.mu.Lock()
	p.stopped = true
	p.pending = false
	p.mu.Unlock()

	p.cancel()
	p.loop.Wait()
}

// Snapshot returns a copy of the current state.
func (p *Poller[T]) Snapshot() Snapshot[T] {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snap
}

// Updates signals after every completed fetch. The channel has a buffer of
// one, so a slow reader sees coalesced notifications rather than a backlog.
func (p *Poller[T]) Updates() <-chan struct{} {
	return p.updates
}

// Busy reports whether a fetch is outstanding.
func (p *Poller[T]) Busy() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.inFlight
}
