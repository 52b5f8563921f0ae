package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	gpusSamples int
)

// statusCmd prints telemetry, queues and jobs once
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show GPUs and job queues once",
	Long: `Fetch GPU telemetry, jobs and queue state once and print them.

Examples:
  trainq status
  trainq status --active-only
  trainq status --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, statusView)
	},
}

// gpusCmd prints telemetry only
var gpusCmd = &cobra.Command{
	Use:   "gpus",
	Short: "Show GPU telemetry once",
	Long: `Fetch GPU telemetry and print one row per device.

With --samples N telemetry is read N times, one telemetry interval apart,
and a load trend column is added.

Examples:
  trainq gpus
  trainq gpus --source local
  trainq gpus --samples 10 --interval 500ms`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, gpusView)
	},
}

// jobsCmd prints the per-GPU queues
var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "Show jobs grouped by GPU queue",
	Long: `Fetch jobs and group them into one queue per GPU, in queue order.
Jobs that are not active on a known GPU are listed under Idle.

Examples:
  trainq jobs
  trainq jobs --active-only --json`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runOneShot(cmd, jobsView)
	},
}

type oneShotView int

const (
	statusView oneShotView = iota
	gpusView
	jobsView
)

func init() {
	for _, c := range []*cobra.Command{statusCmd, gpusCmd, jobsCmd} {
		c.Flags().BoolVar(&machineMode, "json", false, "output JSON")
		rootCmd.AddCommand(c)
	}
	gpusCmd.Flags().IntVar(&gpusSamples, "samples", 1, "telemetry reads to take (adds a trend column when > 1)")
}

// runOneShot fetches what the view needs and prints it.
func runOneShot(cmd *cobra.Command, view oneShotView) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	client := newClient(cfg)
	src := newSource(cfg, client)
	if c, ok := src.(interface{ Close() error }); ok {
		defer c.Close()
	}

	opts := fetchOptions{
		Jobs:       view != gpusView,
		Queues:     view != gpusView,
		ActiveOnly: cfg.Jobs.ActiveOnly,
		Samples:    1,
		Interval:   cfg.Telemetry.Interval,
	}
	if view == gpusView {
		opts.Samples = gpusSamples
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), oneShotTimeout(cfg, opts))
	defer cancel()

	snap, err := fetchSnapshot(ctx, src, client, opts)
	if err != nil {
		return err
	}

	return printOneShot(cmd.OutOrStdout(), snap, view, cfg.Jobs.ActiveOnly)
}

// oneShotTimeout allows one request timeout plus the sampling time.
func oneShotTimeout(cfg *config.Config, opts fetchOptions) time.Duration {
	d := cfg.Backend.Timeout + 5*time.Second
	if opts.Samples > 1 {
		d += time.Duration(opts.Samples-1) * (opts.Interval + cfg.Backend.Timeout)
	}
	return d
}

func printOneShot(w io.Writer, snap *snapshot, view oneShotView, activeOnly bool) error {
	includeIdle := !activeOnly

	if MachineMode() {
		switch view {
		case gpusView:
			return WriteJSONSuccess(w, snap.Telemetry)
		case jobsView:
			return WriteJSONSuccess(w, snap.queuesJSON(includeIdle))
		default:
			return WriteJSONSuccess(w, statusJSON{
				Source:    snap.Source,
				Telemetry: snap.Telemetry,
				Stats:     snap.statsJSON(),
				Queues:    snap.queuesJSON(includeIdle),
			})
		}
	}

	switch view {
	case gpusView:
		renderGPUs(w, snap)
	case jobsView:
		renderQueues(w, snap, includeIdle)
	default:
		renderStats(w, snap)
		fmt.Fprintln(w)
		renderGPUs(w, snap)
		fmt.Fprintln(w)
		renderQueues(w, snap, includeIdle)
	}
	return nil
}
