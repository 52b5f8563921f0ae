package cli

import (
	"context"
	"sort"
	"time"

	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/history"
	"github.com/rileyhilliard/trainq/internal/queue"
	"github.com/rileyhilliard/trainq/internal/telemetry"
	"golang.org/x/sync/errgroup"
)

// snapshot is one consistent-enough read of every source for the one-shot
// commands.
type snapshot struct {
	Source    string
	Telemetry api.TelemetryReport
	Jobs      []api.Job
	Queues    []api.Queue
	History   *history.Buffer
}

// fetchOptions say which parts a command needs.
type fetchOptions struct {
	Jobs       bool
	Queues     bool
	ActiveOnly bool
	// Samples > 1 polls telemetry repeatedly, Interval apart, to build a
	// short trend.
	Samples  int
	Interval time.Duration
}

// jobSource is the part of the API client the one-shot commands read.
type jobSource interface {
	Jobs(ctx context.Context, activeOnly bool) ([]api.Job, error)
	Queues(ctx context.Context) ([]api.Queue, error)
}

// fetchSnapshot reads telemetry, jobs and queues concurrently. Any failure
// fails the whole snapshot: a one-shot command has no stale data to fall
// back on.
func fetchSnapshot(ctx context.Context, src telemetry.Source, backend jobSource, opts fetchOptions) (*snapshot, error) {
	snap := &snapshot{
		Source:  src.Name(),
		History: history.New(history.DefaultCapacity),
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		report, err := sampleTelemetry(gctx, src, snap.History, opts.Samples, opts.Interval)
		snap.Telemetry = report
		return err
	})
	if opts.Jobs {
		g.Go(func() error {
			jobs, err := backend.Jobs(gctx, opts.ActiveOnly)
			snap.Jobs = jobs
			return err
		})
	}
	if opts.Queues {
		g.Go(func() error {
			queues, err := backend.Queues(gctx)
			snap.Queues = queues
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snap, nil
}

// sampleTelemetry fetches n reports, recording each into hist, and returns
// the last one.
func sampleTelemetry(ctx context.Context, src telemetry.Source, hist *history.Buffer, n int, interval time.Duration) (api.TelemetryReport, error) {
	if n < 1 {
		n = 1
	}

	var report api.TelemetryReport
	for i := 0; i < n; i++ {
		if i > 0 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return report, ctx.Err()
			case <-timer.C:
			}
		}

		r, err := src.Fetch(ctx)
		if err != nil {
			return report, err
		}
		report = r
		now := time.Now()
		for _, d := range r.GPUs {
			hist.Append(d.Index, history.Sample{
				Timestamp:     now,
				LoadPercent:   float64(d.Utilization.GPU),
				MemoryPercent: d.MemoryPercent(),
			})
		}
	}
	return report, nil
}

// View groups the snapshot's jobs by device.
func (s *snapshot) View() queue.View {
	return queue.Aggregate(s.Telemetry.GPUs, s.Jobs)
}

// QueueState finds the scheduler lane for a device key.
func (s *snapshot) QueueState(key string) (api.Queue, bool) {
	for _, q := range s.Queues {
		if q.GPUIDs == key {
			return q, true
		}
	}
	return api.Queue{}, false
}

// sortedBuckets orders device buckets by device index.
func sortedBuckets(v queue.View) []queue.Bucket {
	out := make([]queue.Bucket, len(v.Devices))
	copy(out, v.Devices)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Device.Index < out[j].Device.Index
	})
	return out
}

// JSON shapes

type jobJSON struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Status        string   `json:"status"`
	Step          int      `json:"step"`
	TotalSteps    int      `json:"total_steps"`
	Progress      float64  `json:"progress"`
	GPUIDs        []string `json:"gpu_ids"`
	QueuePosition *int     `json:"queue_position"`
}

type bucketJSON struct {
	GPU          string    `json:"gpu"`
	Name         string    `json:"name"`
	HasQueue     bool      `json:"has_queue"`
	QueueRunning bool      `json:"queue_running"`
	Jobs         []jobJSON `json:"jobs"`
}

type queuesJSON struct {
	Devices []bucketJSON `json:"devices"`
	Idle    []jobJSON    `json:"idle"`
}

type statsJSON struct {
	ActiveJobs int      `json:"active_jobs"`
	QueuedJobs int      `json:"queued_jobs"`
	GPUs       int      `json:"gpus"`
	AvgTemp    *float64 `json:"avg_temp,omitempty"`
	HighTemp   bool     `json:"high_temp"`
}

type statusJSON struct {
	Source    string              `json:"source"`
	Telemetry api.TelemetryReport `json:"telemetry"`
	Stats     statsJSON           `json:"stats"`
	Queues    queuesJSON          `json:"queues"`
}

func toJobsJSON(jobs []api.Job) []jobJSON {
	out := make([]jobJSON, 0, len(jobs))
	for _, j := range jobs {
		ids := j.GPUIDs
		if ids == nil {
			ids = []string{}
		}
		out = append(out, jobJSON{
			ID:            j.ID,
			Name:          j.Name,
			Status:        string(j.Status),
			Step:          j.Step,
			TotalSteps:    j.TotalSteps,
			Progress:      queue.JobProgress(j),
			GPUIDs:        ids,
			QueuePosition: j.QueuePosition,
		})
	}
	return out
}

func (s *snapshot) queuesJSON(includeIdle bool) queuesJSON {
	v := s.View()
	out := queuesJSON{Devices: []bucketJSON{}, Idle: []jobJSON{}}
	for _, b := range sortedBuckets(v) {
		q, ok := s.QueueState(b.Key)
		out.Devices = append(out.Devices, bucketJSON{
			GPU:          b.Key,
			Name:         b.Device.Name,
			HasQueue:     ok,
			QueueRunning: ok && q.IsRunning,
			Jobs:         toJobsJSON(b.Jobs),
		})
	}
	if includeIdle {
		out.Idle = toJobsJSON(v.Idle)
	}
	return out
}

func (s *snapshot) statsJSON() statsJSON {
	st := queue.Summarize(s.Telemetry.GPUs, s.Jobs)
	out := statsJSON{
		ActiveJobs: st.ActiveJobs,
		QueuedJobs: st.QueuedJobs,
		GPUs:       st.Devices,
		HighTemp:   st.HighTemp,
	}
	if st.HasAvgTemp {
		avg := st.AvgTemp
		out.AvgTemp = &avg
	}
	return out
}
