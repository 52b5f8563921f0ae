package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/engine"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/internal/ui"
	"github.com/spf13/cobra"
)

// Command-specific flags
var (
	queueYes bool
)

// confirmFunc asks the operator to confirm a queue stop. Replaced in tests.
var confirmFunc = confirmStop

// interactiveFunc reports whether prompts can be shown. Replaced in tests.
var interactiveFunc = ui.IsInteractive

// queueCmd groups the queue controls
var queueCmd = &cobra.Command{
	Use:   "queue",
	Short: "Start or stop a GPU's job queue",
}

var queueStartCmd = &cobra.Command{
	Use:   "start <gpu>",
	Short: "Start working through a GPU's queue",
	Long: `Ask the scheduler to start the queue for one GPU, then show the queue
state it reports afterwards.

Examples:
  trainq queue start 0`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queueCommand(cmd, verbStart, args[0])
	},
}

var queueStopCmd = &cobra.Command{
	Use:   "stop <gpu>",
	Short: "Stop a GPU's queue",
	Long: `Ask the scheduler to stop the queue for one GPU. On a terminal you are
asked to confirm unless --yes is given.

Examples:
  trainq queue stop 1
  trainq queue stop 1 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return queueCommand(cmd, verbStop, args[0])
	},
}

const (
	verbStart = "start"
	verbStop  = "stop"
)

// queueSettle bounds the wait for the post-command queue refresh.
const queueSettle = 10 * time.Second

func init() {
	queueStopCmd.Flags().BoolVarP(&queueYes, "yes", "y", false, "don't ask for confirmation")
	for _, c := range []*cobra.Command{queueStartCmd, queueStopCmd} {
		c.Flags().BoolVar(&machineMode, "json", false, "output JSON")
		queueCmd.AddCommand(c)
	}
	rootCmd.AddCommand(queueCmd)
}

type queueResultJSON struct {
	GPU          string `json:"gpu"`
	Action       string `json:"action"`
	HasQueue     bool   `json:"has_queue"`
	QueueRunning bool   `json:"queue_running"`
}

func queueCommand(cmd *cobra.Command, verb, key string) error {
	if verb == verbStop && !queueYes && !MachineMode() && interactiveFunc() {
		ok, err := confirmFunc(key)
		if err != nil {
			return errors.WrapWithCode(err, errors.ErrCommand,
				"Failed to get confirmation",
				"Re-run with --yes to skip the prompt.")
		}
		if !ok {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	e := newEngine(cfg)
	defer e.Stop()

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Backend.Timeout+queueSettle)
	defer cancel()

	q, ok, err := runQueueCommand(ctx, e, verb, key)
	if err != nil {
		return err
	}
	return printQueueResult(cmd.OutOrStdout(), verb, key, q, ok)
}

// runQueueCommand issues the command through the engine's controller, which
// refreshes every poller afterwards, and waits for the refreshed queue state.
func runQueueCommand(ctx context.Context, e *engine.Engine, verb, key string) (api.Queue, bool, error) {
	var err error
	if verb == verbStart {
		err = e.Controller.StartQueue(ctx, key)
	} else {
		err = e.Controller.StopQueue(ctx, key)
	}
	if err != nil {
		return api.Queue{}, false, err
	}

	select {
	case <-e.Queues.Updates():
	case <-ctx.Done():
		return api.Queue{}, false, errors.WrapWithCode(ctx.Err(), errors.ErrFetch,
			"Command sent, but the queue state didn't refresh in time",
			"Run 'trainq jobs' to check the queue.")
	}

	snap := e.Queues.Snapshot()
	if !snap.HasData() {
		return api.Queue{}, false, errors.New(errors.ErrFetch,
			"Command sent, but the queue state couldn't be read: "+snap.Err,
			"Run 'trainq jobs' to check the queue.")
	}
	q, ok := e.QueueState(key)
	return q, ok, nil
}

func printQueueResult(w io.Writer, verb, key string, q api.Queue, ok bool) error {
	if MachineMode() {
		return WriteJSONSuccess(w, queueResultJSON{
			GPU:          key,
			Action:       verb,
			HasQueue:     ok,
			QueueRunning: ok && q.IsRunning,
		})
	}

	switch {
	case !ok:
		fmt.Fprintf(w, "%s %s sent for GPU %s; the scheduler reports no queue for it\n",
			warnStyle.Render(ui.SymbolPending), verb, key)
	case q.IsRunning:
		fmt.Fprintf(w, "%s Queue for GPU %s is running\n", okStyle.Render(ui.SymbolSuccess), key)
	default:
		fmt.Fprintf(w, "%s Queue for GPU %s is stopped\n", okStyle.Render(ui.SymbolSuccess), key)
	}
	return nil
}

// confirmStop asks before stopping a queue.
func confirmStop(key string) (bool, error) {
	var confirm bool
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title(fmt.Sprintf("Stop the queue for GPU %s?", key)).
				Description("The running job is asked to stop; queued jobs stay queued.").
				Value(&confirm),
		),
	)
	if err := form.Run(); err != nil {
		return false, err
	}
	return confirm, nil
}
