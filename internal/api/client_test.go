package api

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig(srv.URL)
	cfg.Timeout = 2 * time.Second
	return NewClient(cfg)
}

func TestTelemetry(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, PathTelemetry, r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"hasNvidiaSmi": true,
			"gpus": [
				{"index": 0, "name": "RTX 4090", "temperature": 61,
				 "utilization": {"gpu": 87}, "memory": {"total": 24564, "used": 20100},
				 "power": {"draw": 312.5}, "fan": {"speed": 55}},
				{"index": 1, "name": "RTX 4090", "temperature": 40,
				 "utilization": {"gpu": 0}, "memory": {"total": 24564, "used": 3}, "fan": {"speed": 30}}
			]
		}`)
	})

	report, err := client.Telemetry(context.Background())
	require.NoError(t, err)

	assert.True(t, report.HasNvidiaSMI)
	require.Len(t, report.GPUs, 2)
	assert.Equal(t, "RTX 4090", report.GPUs[0].Name)
	assert.Equal(t, 87, report.GPUs[0].Utilization.GPU)
	require.NotNil(t, report.GPUs[0].Power.Draw)
	assert.InDelta(t, 312.5, *report.GPUs[0].Power.Draw, 0.001)
	assert.Nil(t, report.GPUs[1].Power.Draw)
	assert.Equal(t, "1", report.GPUs[1].Key())
}

func TestTelemetry_NoNvidiaSMI(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hasNvidiaSmi": false, "gpus": null}`)
	})

	report, err := client.Telemetry(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasNvidiaSMI)
	assert.NotNil(t, report.GPUs)
	assert.Empty(t, report.GPUs)
}

func TestTelemetry_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nvidia-smi exploded", http.StatusInternalServerError)
	})

	_, err := client.Telemetry(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrFetch))
	assert.Contains(t, err.Error(), "HTTP 500")
}

func TestTelemetry_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	client := NewClient(DefaultConfig(url))
	_, err := client.Telemetry(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrFetch))
}

func TestTelemetry_ContextCanceled(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := client.Telemetry(ctx)
	require.Error(t, err)
}

func TestJobs(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathJobs, r.URL.Path)
		assert.Empty(t, r.URL.Query().Get("status"))
		fmt.Fprint(w, `{"jobs": [
			{"id": "a", "name": "lora-a", "status": "running", "step": 250, "gpu_ids": "0",
			 "queue_position": null, "job_config": "{\"config\":{\"process\":[{\"train\":{\"steps\":1000}}]}}"},
			{"id": "b", "name": "lora-b", "status": "queued", "step": 0, "gpu_ids": "0,1",
			 "queue_position": 2, "job_config": "{}"}
		]}`)
	})

	jobs, err := client.Jobs(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, jobs, 2)

	assert.Equal(t, "a", jobs[0].ID)
	assert.Equal(t, StatusRunning, jobs[0].Status)
	assert.Equal(t, 1000, jobs[0].TotalSteps)
	assert.Nil(t, jobs[0].QueuePosition)

	assert.Equal(t, []string{"0", "1"}, jobs[1].GPUIDs)
	require.NotNil(t, jobs[1].QueuePosition)
	assert.Equal(t, 2, *jobs[1].QueuePosition)
	assert.Equal(t, 0, jobs[1].TotalSteps)
}

func TestJobs_ActiveOnly(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "active", r.URL.Query().Get("status"))
		fmt.Fprint(w, `{"jobs": []}`)
	})

	jobs, err := client.Jobs(context.Background(), true)
	require.NoError(t, err)
	assert.NotNil(t, jobs)
	assert.Empty(t, jobs)
}

func TestJobs_BadJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"jobs": [`)
	})

	_, err := client.Jobs(context.Background(), false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrFetch))
}

func TestQueues(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, PathQueues, r.URL.Path)
		fmt.Fprint(w, `{"queues": [{"gpu_ids": "0", "is_running": true}, {"gpu_ids": "1", "is_running": false}]}`)
	})

	queues, err := client.Queues(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Queue{{GPUIDs: "0", IsRunning: true}, {GPUIDs: "1", IsRunning: false}}, queues)
}

func TestQueues_Empty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{}`)
	})

	queues, err := client.Queues(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, queues)
	assert.Empty(t, queues)
}

func TestQueueCommands(t *testing.T) {
	tests := []struct {
		name string
		call func(*Client) error
		path string
	}{
		{"start", func(c *Client) error { return c.StartQueue(context.Background(), "3") }, "/api/queue/3/start"},
		{"stop", func(c *Client) error { return c.StopQueue(context.Background(), "0") }, "/api/queue/0/stop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var hits atomic.Int32
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, tt.path, r.URL.Path)
				w.WriteHeader(http.StatusOK)
			})

			require.NoError(t, tt.call(client))
			assert.Equal(t, int32(1), hits.Load())
		})
	}
}

func TestQueueCommand_Rejected(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "queue busy", http.StatusConflict)
	})

	err := client.StopQueue(context.Background(), "1")
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCommand))
	assert.Contains(t, err.Error(), "GPU 1")
	assert.Contains(t, err.Error(), "queue busy")
}

func TestNewClient_NilConfig(t *testing.T) {
	c := NewClient(nil)
	assert.Equal(t, "http://localhost:8675", c.BaseURL())
}
