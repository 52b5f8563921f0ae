// Package engine wires the telemetry, job and queue pollers to the history
// buffer, the aggregator and the queue controller. The dashboard, the
// headless watcher and the metrics exporter all read from one Engine.
package engine

import (
	"context"
	"time"

	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/history"
	"github.com/rileyhilliard/trainq/internal/logger"
	"github.com/rileyhilliard/trainq/internal/poll"
	"github.com/rileyhilliard/trainq/internal/queue"
	"github.com/rileyhilliard/trainq/internal/telemetry"
)

// Backend is the scheduler API the engine polls and commands.
type Backend interface {
	Jobs(ctx context.Context, activeOnly bool) ([]api.Job, error)
	Queues(ctx context.Context) ([]api.Queue, error)
	queue.Commander
}

// Options configure an Engine.
type Options struct {
	TelemetryInterval time.Duration
	JobsInterval      time.Duration
	ActiveOnly        bool
	HistorySize       int
	// Logger overrides the per-component env loggers (tests).
	Logger logger.Logger
}

// Engine owns the pollers and everything derived from them.
type Engine struct {
	Telemetry  *poll.Poller[api.TelemetryReport]
	Jobs       *poll.Poller[[]api.Job]
	Queues     *poll.Poller[[]api.Queue]
	History    *history.Buffer
	Controller *queue.Controller

	source     telemetry.Source
	activeOnly bool
	memo       queue.Memo
}

// New builds an engine. Nothing is fetched until Start or Refresh.
func New(source telemetry.Source, backend Backend, opts Options) *Engine {
	if opts.TelemetryInterval <= 0 {
		opts.TelemetryInterval = time.Second
	}
	if opts.JobsInterval <= 0 {
		opts.JobsInterval = 5 * time.Second
	}
	named := func(prefix string) logger.Logger {
		if opts.Logger != nil {
			return opts.Logger
		}
		return logger.NewEnvLogger(prefix)
	}

	e := &Engine{
		History:    history.New(opts.HistorySize),
		source:     source,
		activeOnly: opts.ActiveOnly,
	}

	e.Telemetry = poll.New(source.Fetch, poll.Options[api.TelemetryReport]{
		Name:      "telemetry",
		Interval:  opts.TelemetryInterval,
		Logger:    named("[telemetry]"),
		OnSuccess: e.record,
	})

	activeOnly := opts.ActiveOnly
	e.Jobs = poll.New(func(ctx context.Context) ([]api.Job, error) {
		return backend.Jobs(ctx, activeOnly)
	}, poll.Options[[]api.Job]{
		Name:     "jobs",
		Interval: opts.JobsInterval,
		Logger:   named("[jobs]"),
	})

	e.Queues = poll.New(backend.Queues, poll.Options[[]api.Queue]{
		Name:     "queues",
		Interval: opts.JobsInterval,
		Logger:   named("[queue]"),
	})

	e.Controller = queue.NewController(backend, named("[queue]"), e.Telemetry, e.Jobs, e.Queues)
	return e
}

// record feeds a successful telemetry report into the history buffer.
func (e *Engine) record(report api.TelemetryReport, at time.Time) {
	for _, d := range report.GPUs {
		e.History.Append(d.Index, history.Sample{
			Timestamp:     at,
			LoadPercent:   float64(d.Utilization.GPU),
			MemoryPercent: d.MemoryPercent(),
		})
	}
}

// Start begins all three polling loops.
func (e *Engine) Start(ctx context.Context) {
	e.Telemetry.Start(ctx)
	e.Jobs.Start(ctx)
	e.Queues.Start(ctx)
}

// Stop ends all polling. Once it returns no snapshot changes.
func (e *Engine) Stop() {
	e.Telemetry.Stop()
	e.Jobs.Stop()
	e.Queues.Stop()
	if c, ok := e.source.(interface{ Close() error }); ok {
		_ = c.Close()
	}
}

// RefreshAll re-polls every source now.
func (e *Engine) RefreshAll() {
	e.Telemetry.Refresh()
	e.Jobs.Refresh()
	e.Queues.Refresh()
}

// SourceName reports where telemetry comes from.
func (e *Engine) SourceName() string {
	return e.source.Name()
}

// ActiveOnly reports whether the job query is restricted to active jobs.
func (e *Engine) ActiveOnly() bool {
	return e.activeOnly
}

// View returns the current queue grouping, recomputed only when either
// input has changed.
func (e *Engine) View() queue.View {
	t := e.Telemetry.Snapshot()
	j := e.Jobs.Snapshot()
	return e.memo.Get(t.Version, t.Data.GPUs, j.Version, j.Data)
}

// Stats returns the header summary for the current data.
func (e *Engine) Stats() queue.Stats {
	return queue.Summarize(e.Telemetry.Snapshot().Data.GPUs, e.Jobs.Snapshot().Data)
}

// QueueState returns the scheduler lane for a device key, if it has one.
func (e *Engine) QueueState(key string) (api.Queue, bool) {
	for _, q := range e.Queues.Snapshot().Data {
		if q.GPUIDs == key {
			return q, true
		}
	}
	return api.Queue{}, false
}
