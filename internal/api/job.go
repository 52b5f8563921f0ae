package api

import (
	"bytes"
	"encoding/json"
)

// JobRecord is a job as the scheduler serializes it.
type JobRecord struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Status        string          `json:"status"`
	Step          int             `json:"step"`
	GPUIDs        string          `json:"gpu_ids"`
	QueuePosition *int            `json:"queue_position"`
	JobConfig     json.RawMessage `json:"job_config"`
	Info          string          `json:"info,omitempty"`
}

// jobConfig is the slice of the training config we care about:
// config.process[0].train.steps.
type jobConfig struct {
	Config struct {
		Process []struct {
			Train struct {
				Steps float64 `json:"steps"`
			} `json:"train"`
		} `json:"process"`
	} `json:"config"`
}

// ToJob converts the wire record to the domain Job.
func (r JobRecord) ToJob() Job {
	return Job{
		ID:            r.ID,
		Name:          r.Name,
		Status:        JobStatus(r.Status),
		Step:          r.Step,
		TotalSteps:    TotalSteps(r.JobConfig),
		GPUIDs:        SplitGPUIDs(r.GPUIDs),
		QueuePosition: r.QueuePosition,
		Info:          r.Info,
	}
}

// TotalSteps extracts the configured step count from a job config payload.
// The scheduler stores the config as a JSON string, but a raw object is
// accepted too. Anything missing or malformed yields 0.
func TotalSteps(raw json.RawMessage) int {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0
	}

	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return 0
		}
		raw = json.RawMessage(inner)
	}

	var cfg jobConfig
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return 0
	}
	if len(cfg.Config.Process) == 0 {
		return 0
	}
	steps := cfg.Config.Process[0].Train.Steps
	if steps <= 0 {
		return 0
	}
	return int(steps)
}
