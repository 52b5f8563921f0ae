// Package api is the HTTP client for the training backend: GPU telemetry,
// the job list, queue state and the queue start/stop commands.
package api

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rileyhilliard/trainq/internal/errors"
)

// Backend endpoints.
const (
	PathTelemetry  = "/api/gpu"
	PathJobs       = "/api/jobs"
	PathQueues     = "/api/queue"
	PathQueueStart = "/api/queue/{gpu}/start"
	PathQueueStop  = "/api/queue/{gpu}/stop"
)

// Config controls how the client talks to the backend.
type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RetryCount    int
	RetryWaitTime time.Duration
	Debug         bool
}

// DefaultConfig returns the client defaults for baseURL. Polls are not
// retried: the next tick is the retry.
func DefaultConfig(baseURL string) *Config {
	return &Config{
		BaseURL:       baseURL,
		Timeout:       10 * time.Second,
		RetryCount:    0,
		RetryWaitTime: 500 * time.Millisecond,
	}
}

// Client is the backend HTTP client.
type Client struct {
	client  *resty.Client
	baseURL string
}

// NewClient creates a backend client. A nil config uses the defaults for
// a backend on localhost.
func NewClient(cfg *Config) *Client {
	if cfg == nil {
		cfg = DefaultConfig("http://localhost:8675")
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(cfg.RetryWaitTime).
		SetHeader("Accept", "application/json")

	if cfg.Debug {
		client.SetDebug(true)
	}

	return &Client{
		client:  client,
		baseURL: cfg.BaseURL,
	}
}

// BaseURL returns the backend address this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Telemetry fetches the GPU report.
func (c *Client) Telemetry(ctx context.Context) (TelemetryReport, error) {
	var report TelemetryReport

	resp, err := c.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&report).
		Get(PathTelemetry)
	if err := c.check("GPU telemetry", resp, err); err != nil {
		return TelemetryReport{}, err
	}

	if report.GPUs == nil {
		report.GPUs = []Device{}
	}
	return report, nil
}

// Jobs fetches the job list in scheduler order. With activeOnly the backend
// filters out terminal jobs.
func (c *Client) Jobs(ctx context.Context, activeOnly bool) ([]Job, error) {
	var response struct {
		Jobs []JobRecord `json:"jobs"`
	}

	req := c.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&response)
	if activeOnly {
		req.SetQueryParam("status", "active")
	}

	resp, err := req.Get(PathJobs)
	if err := c.check("jobs", resp, err); err != nil {
		return nil, err
	}

	jobs := make([]Job, 0, len(response.Jobs))
	for _, rec := range response.Jobs {
		jobs = append(jobs, rec.ToJob())
	}
	return jobs, nil
}

// Queues fetches the per-device queue state.
func (c *Client) Queues(ctx context.Context) ([]Queue, error) {
	var response struct {
		Queues []Queue `json:"queues"`
	}

	resp, err := c.client.R().
		SetContext(ctx).
		ForceContentType("application/json").
		SetResult(&response).
		Get(PathQueues)
	if err := c.check("queues", resp, err); err != nil {
		return nil, err
	}

	if response.Queues == nil {
		return []Queue{}, nil
	}
	return response.Queues, nil
}

// StartQueue asks the scheduler to start working through a device's queue.
func (c *Client) StartQueue(ctx context.Context, key string) error {
	return c.command(ctx, PathQueueStart, "start", key)
}

// StopQueue asks the scheduler to stop a device's queue.
func (c *Client) StopQueue(ctx context.Context, key string) error {
	return c.command(ctx, PathQueueStop, "stop", key)
}

func (c *Client) command(ctx context.Context, path, verb, key string) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("gpu", key).
		Post(path)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrCommand,
			fmt.Sprintf("Couldn't %s queue for GPU %s", verb, key),
			fmt.Sprintf("Check the backend is reachable at %s", c.baseURL))
	}
	if resp.IsError() {
		return errors.WrapWithCode(httpError(resp), errors.ErrCommand,
			fmt.Sprintf("Backend refused to %s queue for GPU %s", verb, key),
			"The queue state shown after the next refresh is authoritative.")
	}
	return nil
}

// check turns a transport error or non-2xx response into a FETCH error.
func (c *Client) check(what string, resp *resty.Response, err error) error {
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrFetch,
			fmt.Sprintf("Couldn't load %s", what),
			fmt.Sprintf("Check the backend is reachable at %s", c.baseURL))
	}
	if resp.IsError() {
		return errors.WrapWithCode(httpError(resp), errors.ErrFetch,
			fmt.Sprintf("Couldn't load %s", what),
			"The backend returned an error; it will be retried on the next poll.")
	}
	return nil
}

func httpError(resp *resty.Response) error {
	body := resp.String()
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Errorf("HTTP %d", resp.StatusCode())
	}
	return fmt.Errorf("HTTP %d: %s", resp.StatusCode(), body)
}
