package api

import (
	"strconv"
	"strings"
)

// Device is one GPU as reported by the telemetry endpoint or nvidia-smi.
// A device list is always replaced wholesale; devices are never patched.
type Device struct {
	Index         int         `json:"index"`
	Name          string      `json:"name"`
	DriverVersion string      `json:"driverVersion,omitempty"`
	Temperature   int         `json:"temperature"`
	Utilization   Utilization `json:"utilization"`
	Memory        Memory      `json:"memory"`
	Power         Power       `json:"power"`
	Fan           Fan         `json:"fan"`
}

// Utilization holds percent-busy figures.
type Utilization struct {
	GPU    int `json:"gpu"`
	Memory int `json:"memory,omitempty"`
}

// Memory is reported in MB.
type Memory struct {
	Total int `json:"total"`
	Used  int `json:"used"`
	Free  int `json:"free,omitempty"`
}

// Power is in watts. Draw is nil when the driver doesn't report it.
type Power struct {
	Draw  *float64 `json:"draw,omitempty"`
	Limit *float64 `json:"limit,omitempty"`
}

// Fan speed in percent.
type Fan struct {
	Speed int `json:"speed"`
}

// Key is the device index as a string, the form used in job gpu_ids and
// queue keys.
func (d Device) Key() string {
	return strconv.Itoa(d.Index)
}

// MemoryPercent returns used/total as a percentage. A device with no total
// reports 0 rather than dividing by zero.
func (d Device) MemoryPercent() float64 {
	if d.Memory.Total <= 0 {
		return 0
	}
	return float64(d.Memory.Used) / float64(d.Memory.Total) * 100
}

// TelemetryReport is the payload of the telemetry endpoint.
//
// HasNvidiaSMI=false means the toolkit is missing on the training host. That
// is a different situation from HasNvidiaSMI=true with zero GPUs, even though
// both carry an empty device list.
type TelemetryReport struct {
	HasNvidiaSMI bool     `json:"hasNvidiaSmi"`
	Error        string   `json:"error,omitempty"`
	GPUs         []Device `json:"gpus"`
}

// JobStatus is the scheduler-owned lifecycle state of a job.
type JobStatus string

const (
	StatusQueued    JobStatus = "queued"
	StatusRunning   JobStatus = "running"
	StatusStopping  JobStatus = "stopping"
	StatusStopped   JobStatus = "stopped"
	StatusCompleted JobStatus = "completed"
	StatusFailed    JobStatus = "failed"
)

// Known reports whether the status is one the scheduler is documented to send.
// Unknown values are kept verbatim and treated as inactive.
func (s JobStatus) Known() bool {
	switch s {
	case StatusQueued, StatusRunning, StatusStopping, StatusStopped, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Active reports whether the job occupies a device queue.
func (s JobStatus) Active() bool {
	return s == StatusQueued || s == StatusRunning || s == StatusStopping
}

// Job is the domain form of a training job.
type Job struct {
	ID            string
	Name          string
	Status        JobStatus
	Step          int
	TotalSteps    int // 0 when the job config doesn't say
	GPUIDs        []string
	QueuePosition *int
	Info          string
}

// OnDevice reports whether key appears in the job's gpu ids.
func (j Job) OnDevice(key string) bool {
	for _, id := range j.GPUIDs {
		if id == key {
			return true
		}
	}
	return false
}

// Queue is the scheduler's lane for one device key.
type Queue struct {
	GPUIDs    string `json:"gpu_ids"`
	IsRunning bool   `json:"is_running"`
}

// SplitGPUIDs turns the wire form "0, 1" into ["0", "1"], dropping blanks.
func SplitGPUIDs(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	ids := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			ids = append(ids, p)
		}
	}
	return ids
}
