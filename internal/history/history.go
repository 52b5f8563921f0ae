// Package history keeps a short rolling window of utilization samples per GPU
// for trend graphs.
package history

import (
	"sort"
	"sync"
	"time"
)

// DefaultCapacity is the number of samples retained per device
// (30 seconds at the default 1s telemetry cadence).
const DefaultCapacity = 30

// Sample is one point on a device's trend graph.
type Sample struct {
	Timestamp     time.Time
	LoadPercent   float64
	MemoryPercent float64
}

// Buffer manages sample history for multiple devices using ring buffers.
// Buffers are never pruned: a device that stops reporting keeps its last
// window until the process exits.
type Buffer struct {
	mu       sync.RWMutex
	capacity int
	devices  map[int]*ring
}

// ring is a fixed-size circular buffer of samples.
type ring struct {
	data  []Sample
	head  int // next write position
	count int
}

// New creates a history buffer holding up to capacity samples per device.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Buffer{
		capacity: capacity,
		devices:  make(map[int]*ring),
	}
}

// Capacity returns the per-device sample limit.
func (b *Buffer) Capacity() int {
	return b.capacity
}

// Append adds a sample for the device. Once the device's window is full the
// oldest sample is overwritten.
func (b *Buffer) Append(index int, s Sample) {
	b.mu.Lock()
	defer b.mu.Unlock()

	r, ok := b.devices[index]
	if !ok {
		r = &ring{data: make([]Sample, b.capacity)}
		b.devices[index] = r
	}
	r.push(s)
}

// Read returns the device's samples, oldest first. Returns nil for a device
// that has never been sampled.
func (b *Buffer) Read(index int) []Sample {
	b.mu.RLock()
	defer b.mu.RUnlock()

	r, ok := b.devices[index]
	if !ok {
		return nil
	}
	return r.last(r.count)
}

// Loads returns just the load percentages for the device, oldest first.
func (b *Buffer) Loads(index int) []float64 {
	samples := b.Read(index)
	if samples == nil {
		return nil
	}
	out := make([]float64, len(samples))
	for i, s := range samples {
		out[i] = s.LoadPercent
	}
	return out
}

// Len returns the number of samples held for the device.
func (b *Buffer) Len(index int) int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if r, ok := b.devices[index]; ok {
		return r.count
	}
	return 0
}

// Devices returns the indices that have a buffer, ascending.
func (b *Buffer) Devices() []int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]int, 0, len(b.devices))
	for idx := range b.devices {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

func (r *ring) push(s Sample) {
	r.data[r.head] = s
	r.head = (r.head + 1) % len(r.data)
	if r.count < len(r.data) {
		r.count++
	}
}

// last returns the most recent n samples in chronological order.
func (r *ring) last(n int) []Sample {
	if n <= 0 || r.count == 0 {
		return nil
	}
	if n > r.count {
		n = r.count
	}

	size := len(r.data)
	out := make([]Sample, n)
	// head points at the next write slot, so the newest sample is head-1
	start := (r.head - n + size) % size
	for i := 0; i < n; i++ {
		out[i] = r.data[(start+i)%size]
	}
	return out
}
