package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/rileyhilliard/trainq/internal/doctor"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/internal/ui"
	"github.com/spf13/cobra"
)

// doctorTimeout bounds the whole run; checks run in parallel.
const doctorTimeout = 30 * time.Second

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check the config, the scheduler API and the telemetry source",
	Long: `Run diagnostic checks and print a report. Exits non-zero when any
check fails.

Examples:
  trainq doctor
  trainq doctor --source ssh --ssh-host gpu-box
  trainq doctor --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return doctorCommand(cmd)
	},
}

func init() {
	doctorCmd.Flags().BoolVar(&machineMode, "json", false, "output JSON")
	rootCmd.AddCommand(doctorCmd)
}

// DoctorOutput is the --json form of the report.
type DoctorOutput struct {
	Categories []CategoryOutput `json:"categories"`
	Summary    SummaryOutput    `json:"summary"`
}

// CategoryOutput represents a category of check results.
type CategoryOutput struct {
	Name    string               `json:"name"`
	Results []doctor.CheckResult `json:"results"`
}

// SummaryOutput summarizes the check results.
type SummaryOutput struct {
	Pass     int  `json:"pass"`
	Warn     int  `json:"warn"`
	Fail     int  `json:"fail"`
	AllClear bool `json:"all_clear"`
}

func doctorCommand(cmd *cobra.Command) error {
	checks, closeSource := collectChecks(cmd)
	defer closeSource()

	ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
	defer cancel()

	results := doctor.RunAll(ctx, checks)

	out := cmd.OutOrStdout()
	failed := doctor.HasFailures(results)
	if MachineMode() {
		env := JSONEnvelope{Success: !failed, Data: buildDoctorOutput(checks, results)}
		if err := writeJSONEnvelope(out, env); err != nil {
			return err
		}
		if failed {
			return errReported
		}
		return nil
	}

	renderDoctor(out, checks, results)
	if failed {
		return errors.New(errors.ErrConfig, doctor.Summary(results), "Fix the failed checks above and run 'trainq doctor' again.")
	}
	return nil
}

// collectChecks builds the check list. A config that doesn't load or
// validate stops the list there: the remaining checks would only repeat the
// same failure.
func collectChecks(cmd *cobra.Command) ([]doctor.Check, func()) {
	noop := func() {}

	path, err := config.Find(cfgFile)
	if err != nil {
		return []doctor.Check{&doctor.ConfigFileCheck{Err: err}}, noop
	}
	cfg, _, err := config.LoadOrDefault(path)
	if err != nil {
		return []doctor.Check{&doctor.ConfigFileCheck{Path: path, Err: err}}, noop
	}
	cfg.Apply(overridesFromFlags(cmd))

	checks := []doctor.Check{
		&doctor.ConfigFileCheck{Path: path},
		&doctor.ConfigValidCheck{Config: cfg},
	}
	if config.Validate(cfg) != nil {
		return checks, noop
	}

	client := newClient(cfg)
	src := newSource(cfg, client)
	checks = append(checks,
		&doctor.JobsEndpointCheck{Backend: client, ActiveOnly: cfg.Jobs.ActiveOnly},
		&doctor.QueuesEndpointCheck{Backend: client},
		&doctor.TelemetryCheck{Source: src},
	)

	closeSource := noop
	if c, ok := src.(interface{ Close() error }); ok {
		closeSource = func() { _ = c.Close() }
	}
	return checks, closeSource
}

func buildDoctorOutput(checks []doctor.Check, results []doctor.CheckResult) DoctorOutput {
	output := DoctorOutput{Categories: []CategoryOutput{}}
	index := make(map[string]int)
	for i, check := range checks {
		cat := check.Category()
		idx, ok := index[cat]
		if !ok {
			idx = len(output.Categories)
			index[cat] = idx
			output.Categories = append(output.Categories, CategoryOutput{Name: cat})
		}
		output.Categories[idx].Results = append(output.Categories[idx].Results, results[i])
	}

	counts := doctor.CountByStatus(results)
	output.Summary = SummaryOutput{
		Pass:     counts[doctor.StatusPass],
		Warn:     counts[doctor.StatusWarn],
		Fail:     counts[doctor.StatusFail],
		AllClear: !doctor.HasIssues(results),
	}
	return output
}

func renderDoctor(w io.Writer, checks []doctor.Check, results []doctor.CheckResult) {
	errorStyle := lipgloss.NewStyle().Foreground(ui.ColorError)

	fmt.Fprintln(w)
	fmt.Fprintln(w, headingStyle.Render("trainq diagnostic report"))
	fmt.Fprintln(w)

	for _, category := range []string{doctor.CategoryConfig, doctor.CategoryBackend, doctor.CategoryTelemetry} {
		printed := false
		for i, check := range checks {
			if check.Category() != category {
				continue
			}
			if !printed {
				fmt.Fprintln(w, headingStyle.Render(category))
				printed = true
			}
			renderCheckResult(w, results[i], errorStyle)
		}
		if printed {
			fmt.Fprintln(w)
		}
	}

	fmt.Fprintln(w, strings.Repeat("━", 60))
	if doctor.HasIssues(results) {
		fmt.Fprintf(w, "%s %s\n", errorStyle.Render(ui.SymbolFail), doctor.Summary(results))
	} else {
		fmt.Fprintf(w, "%s %s\n", okStyle.Render(ui.SymbolSuccess), doctor.Summary(results))
	}
}

func renderCheckResult(w io.Writer, r doctor.CheckResult, errorStyle lipgloss.Style) {
	symbol, style := ui.SymbolComplete, okStyle
	switch r.Status {
	case doctor.StatusWarn:
		style = warnStyle
	case doctor.StatusFail:
		symbol, style = ui.SymbolFail, errorStyle
	}

	fmt.Fprintf(w, "  %s %s\n", style.Render(symbol), r.Message)
	if r.Suggestion != "" && r.Status != doctor.StatusPass {
		for _, line := range strings.Split(r.Suggestion, "\n") {
			fmt.Fprintf(w, "    %s\n", mutedStyle.Render(line))
		}
	}
}
