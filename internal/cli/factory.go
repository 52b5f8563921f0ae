package cli

import (
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/rileyhilliard/trainq/internal/engine"
	"github.com/rileyhilliard/trainq/internal/logger"
	"github.com/rileyhilliard/trainq/internal/telemetry"
	"github.com/rileyhilliard/trainq/pkg/sshutil"
)

// newClient builds the scheduler API client from config.
func newClient(cfg *config.Config) *api.Client {
	c := api.DefaultConfig(cfg.Backend.URL)
	c.Timeout = cfg.Backend.Timeout
	c.RetryCount = cfg.Backend.RetryCount
	return api.NewClient(c)
}

// newSource picks the telemetry source named in config.
func newSource(cfg *config.Config, client *api.Client) telemetry.Source {
	switch cfg.Telemetry.Source {
	case config.SourceLocal:
		return telemetry.NewLocalSource(cfg.Telemetry.NvidiaSMI)
	case config.SourceSSH:
		opts := sshutil.Options{
			Timeout:               cfg.Backend.Timeout,
			InsecureIgnoreHostKey: cfg.Telemetry.InsecureIgnoreHostKey,
		}
		return telemetry.NewSSHSource(cfg.Telemetry.SSHHost, cfg.Telemetry.NvidiaSMI,
			opts, sshutil.Dial, logger.NewEnvLogger("[ssh]"))
	default:
		return telemetry.NewAPISource(client)
	}
}

// newEngine wires the pollers for cfg. Nothing is fetched until the engine
// is started or refreshed.
func newEngine(cfg *config.Config) *engine.Engine {
	client := newClient(cfg)
	return engine.New(newSource(cfg, client), client, engine.Options{
		TelemetryInterval: cfg.Telemetry.Interval,
		JobsInterval:      cfg.Jobs.Interval,
		ActiveOnly:        cfg.Jobs.ActiveOnly,
		HistorySize:       cfg.History.Size,
	})
}
