package queue

import (
	"testing"

	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/stretchr/testify/assert"
)

func TestSummarize(t *testing.T) {
	devices := []api.Device{{Index: 0, Temperature: 70}, {Index: 1, Temperature: 95}}
	jobs := []api.Job{
		{Status: api.StatusRunning},
		{Status: api.StatusStopping},
		{Status: api.StatusQueued},
		{Status: api.StatusQueued},
		{Status: api.StatusQueued},
		{Status: api.StatusCompleted},
		{Status: "mystery"},
	}

	s := Summarize(devices, jobs)
	assert.Equal(t, 2, s.ActiveJobs)
	assert.Equal(t, 3, s.QueuedJobs)
	assert.Equal(t, 2, s.Devices)
	assert.True(t, s.HasAvgTemp)
	assert.InDelta(t, 82.5, s.AvgTemp, 0.001)
	assert.True(t, s.HighTemp)
}

func TestSummarize_NoDevices(t *testing.T) {
	s := Summarize(nil, nil)
	assert.Zero(t, s.Devices)
	assert.False(t, s.HasAvgTemp)
	assert.False(t, s.HighTemp)
}

func TestSummarize_ExactlyEightyIsNotHigh(t *testing.T) {
	s := Summarize([]api.Device{{Temperature: 80}}, nil)
	assert.False(t, s.HighTemp)
}
