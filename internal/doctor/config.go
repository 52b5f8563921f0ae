package doctor

import (
	"context"
	stderrors "errors"
	"fmt"

	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/rileyhilliard/trainq/internal/errors"
)

// ConfigFileCheck reports which config file is in use. Running on defaults
// is a warning, not a failure.
type ConfigFileCheck struct {
	Path string // result of config.Find
	Err  error  // error from config.Find or config.Load
}

func (c *ConfigFileCheck) Name() string     { return "config_file" }
func (c *ConfigFileCheck) Category() string { return CategoryConfig }

func (c *ConfigFileCheck) Run(context.Context) CheckResult {
	switch {
	case c.Err != nil:
		return failFromError(c.Name(), c.Err, "Check the YAML syntax in your config file")
	case c.Path == "":
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "No config file found, using defaults",
			Suggestion: "Run 'trainq init' to create a " + config.ConfigFileName,
		}
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("Config file: %s", c.Path),
	}
}

// ConfigValidCheck validates the effective config, flags included.
type ConfigValidCheck struct {
	Config *config.Config
}

func (c *ConfigValidCheck) Name() string     { return "config_valid" }
func (c *ConfigValidCheck) Category() string { return CategoryConfig }

func (c *ConfigValidCheck) Run(context.Context) CheckResult {
	if c.Config == nil {
		return CheckResult{Name: c.Name(), Status: StatusFail, Message: "No config to validate"}
	}
	if err := config.Validate(c.Config); err != nil {
		return failFromError(c.Name(), err, "")
	}
	return CheckResult{
		Name:   c.Name(),
		Status: StatusPass,
		Message: fmt.Sprintf("Telemetry from %s every %s, jobs every %s",
			c.Config.Telemetry.Source, c.Config.Telemetry.Interval, c.Config.Jobs.Interval),
	}
}

// failFromError turns an error into a failed result, keeping the suggestion
// of a structured error when it has one.
func failFromError(name string, err error, fallback string) CheckResult {
	r := CheckResult{
		Name:       name,
		Status:     StatusFail,
		Message:    errors.Summary(err),
		Suggestion: fallback,
	}
	var e *errors.Error
	if stderrors.As(err, &e) && e.Suggestion != "" {
		r.Suggestion = e.Suggestion
	}
	return r
}
