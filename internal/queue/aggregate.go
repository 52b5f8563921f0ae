// Package queue groups jobs into per-device queues and issues queue
// start/stop commands.
package queue

import (
	"sort"
	"sync"

	"github.com/rileyhilliard/trainq/internal/api"
)

// IdleKey names the bucket for jobs that aren't queued on any known device.
const IdleKey = "idle"

// Bucket is one device's ordered queue.
type Bucket struct {
	Key    string
	Device api.Device
	Jobs   []api.Job
}

// View is the grouping of one job list over one device list. Every job
// appears in exactly one of Devices or Idle.
type View struct {
	Devices []Bucket // device-list order
	Idle    []api.Job
}

// Bucket returns the bucket for a device key.
func (v View) Bucket(key string) (Bucket, bool) {
	for _, b := range v.Devices {
		if b.Key == key {
			return b, true
		}
	}
	return Bucket{}, false
}

// Len returns the number of jobs across all buckets.
func (v View) Len() int {
	n := len(v.Idle)
	for _, b := range v.Devices {
		n += len(b.Jobs)
	}
	return n
}

// Aggregate groups jobs by device.
//
// A job is queued on the first device, in device order, whose key appears in
// its GPU ids, provided its status is queued, running or stopping. Every
// other job goes to Idle, including active jobs pointing at devices that
// aren't reported. Device queues are ordered by queue position with missing
// positions last; ties keep their arrival order. Idle keeps arrival order.
func Aggregate(devices []api.Device, jobs []api.Job) View {
	view := View{
		Devices: make([]Bucket, len(devices)),
		Idle:    []api.Job{},
	}
	slot := make(map[string]int, len(devices))
	for i, d := range devices {
		key := d.Key()
		view.Devices[i] = Bucket{Key: key, Device: d, Jobs: []api.Job{}}
		if _, dup := slot[key]; !dup {
			slot[key] = i
		}
	}

	for _, job := range jobs {
		i, ok := firstDevice(devices, slot, job)
		if !ok || !job.Status.Active() {
			view.Idle = append(view.Idle, job)
			continue
		}
		view.Devices[i].Jobs = append(view.Devices[i].Jobs, job)
	}

	for i := range view.Devices {
		sortByPosition(view.Devices[i].Jobs)
	}
	return view
}

// firstDevice finds the earliest device in list order that the job names.
func firstDevice(devices []api.Device, slot map[string]int, job api.Job) (int, bool) {
	best := -1
	for _, id := range job.GPUIDs {
		if i, ok := slot[id]; ok && (best == -1 || i < best) {
			best = i
		}
	}
	return best, best != -1
}

func sortByPosition(jobs []api.Job) {
	sort.SliceStable(jobs, func(i, j int) bool {
		a, b := jobs[i].QueuePosition, jobs[j].QueuePosition
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// Memo caches the last Aggregate result, keyed on the versions of its two
// inputs. It is safe for concurrent use.
type Memo struct {
	mu          sync.Mutex
	valid       bool
	devicesVer  uint64
	jobsVer     uint64
	view        View
	computeRuns int
}

// Get returns the cached view when both versions match the last call,
// otherwise aggregates and caches.
func (m *Memo) Get(devicesVer uint64, devices []api.Device, jobsVer uint64, jobs []api.Job) View {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.valid && m.devicesVer == devicesVer && m.jobsVer == jobsVer {
		return m.view
	}
	m.view = Aggregate(devices, jobs)
	m.devicesVer, m.jobsVer = devicesVer, jobsVer
	m.valid = true
	m.computeRuns++
	return m.view
}

// Computations returns how many times Get actually aggregated.
func (m *Memo) Computations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.computeRuns
}
