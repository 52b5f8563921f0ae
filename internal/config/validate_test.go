package config

import (
	"testing"
	"time"

	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"future version", func(c *Config) { c.Version = 99 }, "from the future"},
		{"no scheme", func(c *Config) { c.Backend.URL = "localhost:8675" }, "isn't an http(s) URL"},
		{"ftp url", func(c *Config) { c.Backend.URL = "ftp://box" }, "isn't an http(s) URL"},
		{"https ok", func(c *Config) { c.Backend.URL = "https://sched.example.com" }, ""},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }, "backend.timeout"},
		{"negative retries", func(c *Config) { c.Backend.RetryCount = -1 }, "retry_count"},
		{"unknown source", func(c *Config) { c.Telemetry.Source = "dcgm" }, "Unknown telemetry.source"},
		{"ssh without host", func(c *Config) { c.Telemetry.Source = SourceSSH }, "ssh_host is empty"},
		{"ssh with host", func(c *Config) {
			c.Telemetry.Source = SourceSSH
			c.Telemetry.SSHHost = "rig"
		}, ""},
		{"local", func(c *Config) { c.Telemetry.Source = SourceLocal }, ""},
		{"telemetry too fast", func(c *Config) { c.Telemetry.Interval = 100 * time.Millisecond }, "telemetry.interval"},
		{"jobs too fast", func(c *Config) { c.Jobs.Interval = time.Millisecond }, "jobs.interval"},
		{"minimum interval ok", func(c *Config) { c.Jobs.Interval = MinInterval }, ""},
		{"history zero", func(c *Config) { c.History.Size = 0 }, "history.size"},
		{"bad listen when enabled", func(c *Config) {
			c.Exporter.Enabled = true
			c.Exporter.Listen = "9400"
		}, "exporter.listen"},
		{"bad listen when disabled", func(c *Config) { c.Exporter.Listen = "9400" }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.IsCode(err, errors.ErrConfig))
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
