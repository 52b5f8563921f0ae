package cli

import (
	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/spf13/cobra"
)

// overridesFromFlags collects the global flags the user actually set.
// Unset flags leave the file (or environment) value alone.
func overridesFromFlags(cmd *cobra.Command) config.Overrides {
	var o config.Overrides
	f := cmd.Flags()
	if f.Changed("backend") {
		o.Backend = &backendFlag
	}
	if f.Changed("source") {
		o.Source = &sourceFlag
	}
	if f.Changed("ssh-host") {
		o.SSHHost = &sshHostFlag
	}
	if f.Changed("interval") {
		o.TelemetryInterval = &intervalFlag
	}
	if f.Changed("jobs-interval") {
		o.JobsInterval = &jobsIntervalFlag
	}
	if f.Changed("active-only") {
		o.ActiveOnly = &activeOnlyFlag
	}
	return o
}

// loadConfig resolves the config file, applies flag overrides and validates
// the result.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, _, err := config.LoadOrDefault(cfgFile)
	if err != nil {
		return nil, err
	}
	cfg.Apply(overridesFromFlags(cmd))
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
