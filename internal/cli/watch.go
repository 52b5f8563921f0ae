package cli

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/rileyhilliard/trainq/internal/dashboard"
	"github.com/rileyhilliard/trainq/internal/engine"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/internal/exporter"
	"github.com/rileyhilliard/trainq/internal/logger"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// Command-specific flags
var (
	watchHeadless bool
	watchMetrics  string
)

// watchCmd runs the live dashboard
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Live dashboard of GPUs and job queues",
	Long: `Open a full-screen dashboard with live GPU telemetry, load trends and
per-GPU job queues. Queues can be started and stopped from the dashboard.

With --headless the pollers run without a screen, which is useful together
with --metrics to expose Prometheus metrics.

Examples:
  trainq watch
  trainq watch --interval 500ms --active-only
  trainq watch --headless --metrics :9400`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("metrics") {
			cfg.Apply(config.Overrides{ExporterListen: &watchMetrics})
			if err := config.Validate(cfg); err != nil {
				return err
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if watchHeadless {
			return runHeadless(ctx, cfg)
		}
		return runDashboard(ctx, cfg)
	},
}

func init() {
	watchCmd.Flags().BoolVar(&watchHeadless, "headless", false, "poll without the dashboard (until interrupted)")
	watchCmd.Flags().StringVar(&watchMetrics, "metrics", "", "serve Prometheus metrics on this address (e.g. :9400)")
	rootCmd.AddCommand(watchCmd)
}

// runDashboard runs the TUI, plus the exporter when enabled, until the user
// quits or ctx is cancelled.
func runDashboard(ctx context.Context, cfg *config.Config) error {
	if !interactiveFunc() {
		return errors.New(errors.ErrConfig,
			"The dashboard needs a terminal",
			"Use 'trainq status' for one-shot output or 'trainq watch --headless'.")
	}

	closeLog, err := redirectLogs(logFile, io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	e := newEngine(cfg)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	if err := startExporter(g, gctx, cfg, e); err != nil {
		return err
	}

	e.Start(gctx)
	defer e.Stop()

	g.Go(func() error {
		defer cancel()
		model := dashboard.NewModel(gctx, e, dashboard.Options{CommandTimeout: cfg.Backend.Timeout})
		p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(gctx))
		if _, err := p.Run(); err != nil && !stderrors.Is(err, tea.ErrProgramKilled) {
			return err
		}
		return nil
	})

	return g.Wait()
}

// runHeadless polls and logs a status line every jobs interval until ctx is
// cancelled.
func runHeadless(ctx context.Context, cfg *config.Config) error {
	closeLog, err := redirectLogs(logFile, nil)
	if err != nil {
		return err
	}
	defer closeLog()

	log := logger.NewEnvLogger("[watch]")
	e := newEngine(cfg)

	g, gctx := errgroup.WithContext(ctx)
	if err := startExporter(g, gctx, cfg, e); err != nil {
		return err
	}

	e.Start(gctx)
	defer e.Stop()
	log.Info("polling %s (telemetry every %s, jobs every %s)", e.SourceName(), cfg.Telemetry.Interval, cfg.Jobs.Interval)

	g.Go(func() error {
		ticker := time.NewTicker(cfg.Jobs.Interval)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				logSummary(log, e)
			}
		}
	})

	return g.Wait()
}

// startExporter adds the metrics server to g when it is enabled.
func startExporter(g *errgroup.Group, ctx context.Context, cfg *config.Config, e *engine.Engine) error {
	if !cfg.Exporter.Enabled {
		return nil
	}
	srv, err := exporter.NewServer(cfg.Exporter.Listen,
		exporter.NewCollector(exporter.FromEngine(e)),
		logger.NewEnvLogger("[exporter]"))
	if err != nil {
		return err
	}
	g.Go(func() error { return srv.Run(ctx) })
	return nil
}

func logSummary(log logger.Logger, e *engine.Engine) {
	t := e.Telemetry.Snapshot()
	j := e.Jobs.Snapshot()
	st := e.Stats()
	log.Info("telemetry %s (%d GPUs), jobs %s (%d active, %d queued)",
		t.State, st.Devices, j.State, st.ActiveJobs, st.QueuedJobs)
}

// redirectLogs sends log output to path, or to fallback when path is empty.
// A nil fallback leaves logging on stderr.
func redirectLogs(path string, fallback io.Writer) (func(), error) {
	if path == "" {
		if fallback != nil {
			logger.Redirect(fallback)
			return func() { logger.Redirect(os.Stderr) }, nil
		}
		return func() {}, nil
	}

	f, err := os.OpenFile(config.ExpandTilde(path), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't open log file "+path,
			"Check the path and its permissions.")
	}
	logger.Redirect(f)
	return func() {
		logger.Redirect(os.Stderr)
		_ = f.Close()
	}, nil
}
