package config

import (
	"fmt"
	"net"
	"net/url"
	"time"

	"github.com/rileyhilliard/trainq/internal/errors"
)

// Validate checks the config for errors and returns structured error messages.
func Validate(cfg *Config) error {
	if cfg.Version > CurrentConfigVersion {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("This config is from the future (version %d, but trainq only knows up to %d)", cfg.Version, CurrentConfigVersion),
			"Upgrade trainq to read this config.")
	}

	if err := validateBackend(cfg.Backend); err != nil {
		return err
	}
	if err := validateTelemetry(cfg.Telemetry); err != nil {
		return err
	}
	if err := validateInterval("jobs.interval", cfg.Jobs.Interval); err != nil {
		return err
	}

	if cfg.History.Size < 1 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("history.size must be at least 1, got %d", cfg.History.Size),
			"The default keeps 30 samples per GPU.")
	}

	if cfg.Exporter.Enabled {
		if _, _, err := net.SplitHostPort(cfg.Exporter.Listen); err != nil {
			return errors.WrapWithCode(err, errors.ErrConfig,
				fmt.Sprintf("exporter.listen '%s' isn't a host:port address", cfg.Exporter.Listen),
				"Use something like ':9400' or '127.0.0.1:9400'.")
		}
	}

	return nil
}

func validateBackend(b BackendConfig) error {
	u, err := url.Parse(b.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("backend.url '%s' isn't an http(s) URL", b.URL),
			"Set it to the scheduler address, e.g. http://localhost:8675")
	}
	if b.Timeout <= 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("backend.timeout must be positive, got %s", b.Timeout),
			"Try 10s.")
	}
	if b.RetryCount < 0 {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("backend.retry_count can't be negative, got %d", b.RetryCount),
			"Use 0 to rely on the next poll instead of retrying.")
	}
	return nil
}

func validateTelemetry(t TelemetryConfig) error {
	switch t.Source {
	case SourceAPI, SourceLocal:
	case SourceSSH:
		if t.SSHHost == "" {
			return errors.New(errors.ErrConfig,
				"telemetry.source is 'ssh' but telemetry.ssh_host is empty",
				"Set ssh_host to an alias from ~/.ssh/config or user@host.")
		}
	default:
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("Unknown telemetry.source '%s'", t.Source),
			"Use one of: api, local, ssh.")
	}
	return validateInterval("telemetry.interval", t.Interval)
}

func validateInterval(field string, d time.Duration) error {
	if d < MinInterval {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s is %s, the minimum is %s", field, d, MinInterval),
			"Polling faster than that mostly measures the poller.")
	}
	return nil
}
