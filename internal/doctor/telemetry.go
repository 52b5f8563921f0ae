package doctor

import (
	"context"
	"fmt"
	"strings"

	"github.com/rileyhilliard/trainq/internal/telemetry"
)

// TelemetryCheck reads the configured telemetry source once.
type TelemetryCheck struct {
	Source telemetry.Source
}

func (c *TelemetryCheck) Name() string     { return "telemetry_" + c.Source.Name() }
func (c *TelemetryCheck) Category() string { return CategoryTelemetry }

func (c *TelemetryCheck) Run(ctx context.Context) CheckResult {
	report, err := c.Source.Fetch(ctx)
	if err != nil {
		return failFromError(c.Name(), err, "")
	}

	switch {
	case !report.HasNvidiaSMI:
		r := CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "nvidia-smi is not available on the training host",
			Suggestion: "Install the NVIDIA driver utilities, or pick another --source.",
		}
		if report.Error != "" {
			r.Message += ": " + report.Error
		}
		return r
	case len(report.GPUs) == 0:
		return CheckResult{
			Name:       c.Name(),
			Status:     StatusWarn,
			Message:    "nvidia-smi is available but reports no GPUs",
			Suggestion: "Check the driver is loaded with 'nvidia-smi -L'.",
		}
	}

	names := make([]string, 0, len(report.GPUs))
	for _, d := range report.GPUs {
		names = append(names, fmt.Sprintf("%d:%s", d.Index, d.Name))
	}
	return CheckResult{
		Name:    c.Name(),
		Status:  StatusPass,
		Message: fmt.Sprintf("%d GPU%s via %s (%s)", len(report.GPUs), pluralize(len(report.GPUs)), c.Source.Name(), strings.Join(names, ", ")),
	}
}
