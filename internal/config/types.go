package config

import "time"

// CurrentConfigVersion is the schema version for the config file.
// Increment when making breaking changes to the config structure.
const CurrentConfigVersion = 1

// Telemetry source names.
const (
	SourceAPI   = "api"
	SourceLocal = "local"
	SourceSSH   = "ssh"
)

// MinInterval is the fastest polling cadence accepted.
const MinInterval = 250 * time.Millisecond

// Config represents the complete .trainq.yaml configuration file.
type Config struct {
	Version   int             `yaml:"version" mapstructure:"version"`
	Backend   BackendConfig   `yaml:"backend" mapstructure:"backend"`
	Telemetry TelemetryConfig `yaml:"telemetry" mapstructure:"telemetry"`
	Jobs      JobsConfig      `yaml:"jobs" mapstructure:"jobs"`
	History   HistoryConfig   `yaml:"history" mapstructure:"history"`
	Exporter  ExporterConfig  `yaml:"exporter" mapstructure:"exporter"`
}

// BackendConfig points at the training scheduler's HTTP API.
type BackendConfig struct {
	// URL is the scheduler base URL, e.g. http://localhost:8675.
	URL string `yaml:"url" mapstructure:"url"`

	// Timeout bounds each HTTP request.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// RetryCount is how many times a failed request is retried within one
	// poll. The poll interval already acts as a retry, so 0 is usual.
	RetryCount int `yaml:"retry_count" mapstructure:"retry_count"`
}

// TelemetryConfig controls where GPU telemetry comes from.
type TelemetryConfig struct {
	// Source is "api" (the backend), "local" (nvidia-smi here) or "ssh"
	// (nvidia-smi on SSHHost).
	Source string `yaml:"source" mapstructure:"source"`

	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// SSHHost is an ssh alias, hostname, user@host or host:port.
	SSHHost string `yaml:"ssh_host" mapstructure:"ssh_host"`

	// InsecureIgnoreHostKey skips known_hosts verification for SSHHost.
	InsecureIgnoreHostKey bool `yaml:"insecure_ignore_host_key" mapstructure:"insecure_ignore_host_key"`

	// NvidiaSMI is the binary name or path.
	NvidiaSMI string `yaml:"nvidia_smi" mapstructure:"nvidia_smi"`
}

// JobsConfig controls job and queue polling.
type JobsConfig struct {
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`

	// ActiveOnly asks the backend for queued/running/stopping jobs only.
	ActiveOnly bool `yaml:"active_only" mapstructure:"active_only"`
}

// HistoryConfig sizes the per-device trend window.
type HistoryConfig struct {
	Size int `yaml:"size" mapstructure:"size"`
}

// ExporterConfig controls the Prometheus endpoint.
type ExporterConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	Listen  string `yaml:"listen" mapstructure:"listen"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Version: CurrentConfigVersion,
		Backend: BackendConfig{
			URL:        "http://localhost:8675",
			Timeout:    10 * time.Second,
			RetryCount: 0,
		},
		Telemetry: TelemetryConfig{
			Source:    SourceAPI,
			Interval:  time.Second,
			NvidiaSMI: "nvidia-smi",
		},
		Jobs: JobsConfig{
			Interval:   5 * time.Second,
			ActiveOnly: false,
		},
		History: HistoryConfig{
			Size: 30,
		},
		Exporter: ExporterConfig{
			Enabled: false,
			Listen:  ":9400",
		},
	}
}

// Overrides are command-line values that win over the file. Nil fields are
// left alone.
type Overrides struct {
	Backend           *string
	Source            *string
	SSHHost           *string
	TelemetryInterval *time.Duration
	JobsInterval      *time.Duration
	ActiveOnly        *bool
	ExporterListen    *string
}

// Apply copies every set override into cfg.
func (c *Config) Apply(o Overrides) {
	if o.Backend != nil {
		c.Backend.URL = *o.Backend
	}
	if o.Source != nil {
		c.Telemetry.Source = *o.Source
	}
	if o.SSHHost != nil {
		c.Telemetry.SSHHost = *o.SSHHost
	}
	if o.TelemetryInterval != nil {
		c.Telemetry.Interval = *o.TelemetryInterval
	}
	if o.JobsInterval != nil {
		c.Jobs.Interval = *o.JobsInterval
	}
	if o.ActiveOnly != nil {
		c.Jobs.ActiveOnly = *o.ActiveOnly
	}
	if o.ExporterListen != nil {
		c.Exporter.Listen = *o.ExporterListen
		c.Exporter.Enabled = true
	}
}
