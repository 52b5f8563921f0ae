package doctor

import (
	"context"
	"fmt"
	"time"

	"github.com/rileyhilliard/trainq/internal/api"
)

// Scheduler is the part of the API client the backend checks call.
type Scheduler interface {
	BaseURL() string
	Jobs(ctx context.Context, activeOnly bool) ([]api.Job, error)
	Queues(ctx context.Context) ([]api.Queue, error)
}

// JobsEndpointCheck fetches the job list once.
type JobsEndpointCheck struct {
	Backend    Scheduler
	ActiveOnly bool
}

func (c *JobsEndpointCheck) Name() string     { return "backend_jobs" }
func (c *JobsEndpointCheck) Category() string { return CategoryBackend }

func (c *JobsEndpointCheck) Run(ctx context.Context) CheckResult {
	start := time.Now()
	jobs, err := c.Backend.Jobs(ctx, c.ActiveOnly)
	if err != nil {
		return failFromError(c.Name(), err, "")
	}

	active := 0
	for _, j := range jobs {
		if j.Status.Active() {
			active++
		}
	}
	return CheckResult{
		Name:   c.Name(),
		Status: StatusPass,
		Message: fmt.Sprintf("%s: %d job%s, %d active (%s)",
			c.Backend.BaseURL(), len(jobs), pluralize(len(jobs)), active, formatLatency(time.Since(start))),
	}
}

// QueuesEndpointCheck fetches the queue state once. A scheduler that reports
// no queues is usable but can't be controlled from trainq.
type QueuesEndpointCheck struct {
	Backend Scheduler
}

func (c *QueuesEndpointCheck) Name() string     { return "backend_queues" }
func (c *QueuesEndpointCheck) Category() string { return CategoryBackend }

func (c *QueuesEndpointCheck) Run(ctx context.Context) CheckResult {
	queues, err := c.Backend.Queues(ctx)
	if err != nil {
		return failFromError(c.Name(), err, "")
	}
	if len(queues) == 0 {
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "Scheduler reports no queues",
			Suggestion: "Queues appear once the scheduler has seen a job for a GPU.",
		}
	}

	running := 0
	for _, q := range queues {
		if q.IsRunning {
			running++
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d queue%s, %d running", len(queues), pluralize(len(queues)), running),
	}
}

func formatLatency(d time.Duration) string {
	if d < time.Millisecond {
		return "<1ms"
	}
	return d.Round(time.Millisecond).String()
}
