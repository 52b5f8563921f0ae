// Package exporter serves the latest poller snapshots as Prometheus metrics.
package exporter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/engine"
	"github.com/rileyhilliard/trainq/internal/poll"
	"github.com/rileyhilliard/trainq/internal/queue"
)

const namespace = "trainq"

// mebibyte converts the MB figures nvidia-smi reports to bytes.
const mebibyte = 1 << 20

// Snapshots is the read side of the engine the collector scrapes.
type Snapshots interface {
	TelemetrySnapshot() poll.Snapshot[api.TelemetryReport]
	JobsSnapshot() poll.Snapshot[[]api.Job]
	QueuesSnapshot() poll.Snapshot[[]api.Queue]
	View() queue.View
}

// engineSnapshots adapts an Engine to Snapshots.
type engineSnapshots struct {
	*engine.Engine
}

func (e engineSnapshots) TelemetrySnapshot() poll.Snapshot[api.TelemetryReport] {
	return e.Telemetry.Snapshot()
}

func (e engineSnapshots) JobsSnapshot() poll.Snapshot[[]api.Job] {
	return e.Jobs.Snapshot()
}

func (e engineSnapshots) QueuesSnapshot() poll.Snapshot[[]api.Queue] {
	return e.Queues.Snapshot()
}

// FromEngine exposes an engine's snapshots to the collector.
func FromEngine(e *engine.Engine) Snapshots {
	return engineSnapshots{e}
}

// Collector reads snapshots at scrape time, so metrics are never more stale
// than the pollers themselves.
type Collector struct {
	src Snapshots

	nvidiaSMI    *prometheus.Desc
	utilization  *prometheus.Desc
	memoryUsed   *prometheus.Desc
	memoryTotal  *prometheus.Desc
	temperature  *prometheus.Desc
	fanSpeed     *prometheus.Desc
	powerDraw    *prometheus.Desc
	queueDepth   *prometheus.Desc
	queueRunning *prometheus.Desc
	idleJobs     *prometheus.Desc
	jobs         *prometheus.Desc
	pollUp       *prometheus.Desc
	pollFailures *prometheus.Desc
	pollSuccess  *prometheus.Desc
	pollLastOK   *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

// NewCollector creates a collector over src.
func NewCollector(src Snapshots) *Collector {
	gpu := []string{"index", "name"}
	desc := func(name, help string, labels []string) *prometheus.Desc {
		return prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, labels, nil)
	}

	return &Collector{
		src:          src,
		nvidiaSMI:    desc("nvidia_smi_available", "Whether the telemetry source reports nvidia-smi as present.", nil),
		utilization:  desc("gpu_utilization_percent", "GPU utilization in percent.", gpu),
		memoryUsed:   desc("gpu_memory_used_bytes", "GPU memory in use.", gpu),
		memoryTotal:  desc("gpu_memory_total_bytes", "GPU memory capacity.", gpu),
		temperature:  desc("gpu_temperature_celsius", "GPU temperature.", gpu),
		fanSpeed:     desc("gpu_fan_speed_percent", "GPU fan speed in percent.", gpu),
		powerDraw:    desc("gpu_power_draw_watts", "GPU power draw. Absent when the driver doesn't report it.", gpu),
		queueDepth:   desc("queue_jobs", "Active jobs queued on a device.", []string{"gpu"}),
		queueRunning: desc("queue_running", "Whether the scheduler is working through a device's queue.", []string{"gpu"}),
		idleJobs:     desc("idle_jobs", "Jobs not queued on any reported device.", nil),
		jobs:         desc("jobs", "Jobs by status.", []string{"status"}),
		pollUp:       desc("poll_up", "Whether the latest fetch for a source succeeded.", []string{"source"}),
		pollFailures: desc("poll_failures_total", "Failed fetches per source.", []string{"source"}),
		pollSuccess:  desc("poll_successes_total", "Successful fetches per source.", []string{"source"}),
		pollLastOK:   desc("poll_last_success_timestamp_seconds", "Unix time of the last successful fetch per source.", []string{"source"}),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.nvidiaSMI, c.utilization, c.memoryUsed, c.memoryTotal, c.temperature,
		c.fanSpeed, c.powerDraw, c.queueDepth, c.queueRunning, c.idleJobs, c.jobs,
		c.pollUp, c.pollFailures, c.pollSuccess, c.pollLastOK,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	tel := c.src.TelemetrySnapshot()
	jobs := c.src.JobsSnapshot()
	queues := c.src.QueuesSnapshot()

	c.collectPoll(ch, "telemetry", tel.State, tel.Successes, tel.Failures, tel.UpdatedAt.Unix())
	c.collectPoll(ch, "jobs", jobs.State, jobs.Successes, jobs.Failures, jobs.UpdatedAt.Unix())
	c.collectPoll(ch, "queues", queues.State, queues.Successes, queues.Failures, queues.UpdatedAt.Unix())

	if tel.HasData() {
		ch <- prometheus.MustNewConstMetric(c.nvidiaSMI, prometheus.GaugeValue, boolValue(tel.Data.HasNvidiaSMI))
		seen := map[string]bool{}
		for _, d := range tel.Data.GPUs {
			// the registry rejects duplicate label sets
			if seen[d.Key()] {
				continue
			}
			seen[d.Key()] = true
			labels := []string{d.Key(), d.Name}
			gauge := func(desc *prometheus.Desc, v float64) {
				ch <- prometheus.MustNewConstMetric(desc, prometheus.GaugeValue, v, labels...)
			}
			gauge(c.utilization, float64(d.Utilization.GPU))
			gauge(c.memoryUsed, float64(d.Memory.Used)*mebibyte)
			gauge(c.memoryTotal, float64(d.Memory.Total)*mebibyte)
			gauge(c.temperature, float64(d.Temperature))
			gauge(c.fanSpeed, float64(d.Fan.Speed))
			if d.Power.Draw != nil {
				gauge(c.powerDraw, *d.Power.Draw)
			}
		}
	}

	if jobs.HasData() {
		counts := map[string]int{}
		for _, j := range jobs.Data {
			counts[string(j.Status)]++
		}
		for status, n := range counts {
			ch <- prometheus.MustNewConstMetric(c.jobs, prometheus.GaugeValue, float64(n), status)
		}

		view := c.src.View()
		seen := map[string]bool{}
		for _, b := range view.Devices {
			if seen[b.Key] {
				continue
			}
			seen[b.Key] = true
			ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(len(b.Jobs)), b.Key)
		}
		ch <- prometheus.MustNewConstMetric(c.idleJobs, prometheus.GaugeValue, float64(len(view.Idle)))
	}

	seenQueue := map[string]bool{}
	for _, q := range queues.Data {
		if seenQueue[q.GPUIDs] {
			continue
		}
		seenQueue[q.GPUIDs] = true
		ch <- prometheus.MustNewConstMetric(c.queueRunning, prometheus.GaugeValue, boolValue(q.IsRunning), q.GPUIDs)
	}
}

func (c *Collector) collectPoll(ch chan<- prometheus.Metric, source string, state poll.State, ok, failed uint64, lastOK int64) {
	ch <- prometheus.MustNewConstMetric(c.pollUp, prometheus.GaugeValue, boolValue(state == poll.Loaded), source)
	ch <- prometheus.MustNewConstMetric(c.pollSuccess, prometheus.CounterValue, float64(ok), source)
	ch <- prometheus.MustNewConstMetric(c.pollFailures, prometheus.CounterValue, float64(failed), source)
	if ok > 0 {
		ch <- prometheus.MustNewConstMetric(c.pollLastOK, prometheus.GaugeValue, float64(lastOK), source)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
