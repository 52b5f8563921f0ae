package cli

import (
	stderrors "errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rileyhilliard/trainq/internal/ui"
	"github.com/spf13/cobra"
)

// Global flags
var (
	cfgFile          string
	noColor          bool
	logFile          string
	backendFlag      string
	sourceFlag       string
	sshHostFlag      string
	intervalFlag     time.Duration
	jobsIntervalFlag time.Duration
	activeOnlyFlag   bool
)

// rootCmd is the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "trainq",
	Short: "Watch GPU training jobs and their queues",
	Long: `trainq shows live GPU telemetry, per-GPU job queues and queue controls
for a training scheduler.

Telemetry comes from the scheduler's API, from nvidia-smi on this machine,
or from nvidia-smi on a remote host over SSH.

Examples:
  trainq watch
  trainq status --json
  trainq queue stop 0`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		ui.ConfigureColor(cmd.OutOrStdout(), noColor)
	},
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default: .trainq.yaml in this or a parent directory)")
	pf.BoolVar(&noColor, "no-color", false, "disable colored output")
	pf.StringVar(&logFile, "log-file", "", "write logs to this file")
	pf.StringVar(&backendFlag, "backend", "", "scheduler base URL (e.g. http://gpu-box:8675)")
	pf.StringVar(&sourceFlag, "source", "", "telemetry source: api, local or ssh")
	pf.StringVar(&sshHostFlag, "ssh-host", "", "host to run nvidia-smi on when --source=ssh")
	pf.DurationVar(&intervalFlag, "interval", 0, "telemetry poll interval (e.g. 1s)")
	pf.DurationVar(&jobsIntervalFlag, "jobs-interval", 0, "job and queue poll interval (e.g. 5s)")
	pf.BoolVar(&activeOnlyFlag, "active-only", false, "only fetch queued, running and stopping jobs")
}

// errReported means the command already wrote its own failure output.
var errReported = stderrors.New("failure already reported")

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if stderrors.Is(err, errReported) {
			os.Exit(1)
		}
		if MachineMode() {
			_ = WriteJSONFromError(os.Stdout, err)
		} else {
			fmt.Fprintln(os.Stderr, strings.TrimRight(err.Error(), "\n"))
		}
		os.Exit(1)
	}
}
