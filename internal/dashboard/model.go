package dashboard

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rileyhilliard/trainq/internal/engine"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/internal/queue"
)

// DefaultCommandTimeout bounds a queue start/stop request.
const DefaultCommandTimeout = 15 * time.Second

const (
	verbStart = "start"
	verbStop  = "stop"
)

// Options configure the dashboard model.
type Options struct {
	CommandTimeout time.Duration
	// Now is the clock used for "updated Ns ago" (tests).
	Now func() time.Time
}

// Model is the Bubble Tea model for the training dashboard.
type Model struct {
	ctx    context.Context
	engine *engine.Engine

	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	width    int
	height   int
	focus    Focus
	selected int
	showHelp bool
	quitting bool

	flash    string
	flashErr bool

	cmdTimeout time.Duration
	now        func() time.Time
}

// telemetryMsg, jobsMsg and queuesMsg signal that a poller has new state.
type (
	telemetryMsg struct{}
	jobsMsg      struct{}
	queuesMsg    struct{}
)

// commandResultMsg carries the outcome of a queue start/stop.
type commandResultMsg struct {
	verb string
	key  string
	err  error
}

// NewModel creates a dashboard over e. The engine is started and stopped by
// the caller; ctx bounds queue commands issued from the dashboard.
func NewModel(ctx context.Context, e *engine.Engine, opts Options) Model {
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = LabelStyle

	return Model{
		ctx:        ctx,
		engine:     e,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		spinner:    s,
		cmdTimeout: opts.CommandTimeout,
		now:        opts.Now,
	}
}

// Init starts listening to all three pollers and the loading spinner.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		waitFor(m.engine.Telemetry.Updates(), telemetryMsg{}),
		waitFor(m.engine.Jobs.Updates(), jobsMsg{}),
		waitFor(m.engine.Queues.Updates(), queuesMsg{}),
		m.spinner.Tick,
	)
}

// waitFor blocks on a poller's update channel and reports it as msg.
func waitFor(ch <-chan struct{}, msg tea.Msg) tea.Cmd {
	return func() tea.Msg {
		if _, ok := <-ch; !ok {
			return nil
		}
		return msg
	}
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if handled, cmd := m.HandleKeyMsg(msg); handled {
			return m, cmd
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width

	case telemetryMsg:
		m.clampSelection()
		return m, waitFor(m.engine.Telemetry.Updates(), telemetryMsg{})

	case jobsMsg:
		return m, waitFor(m.engine.Jobs.Updates(), jobsMsg{})

	case queuesMsg:
		return m, waitFor(m.engine.Queues.Updates(), queuesMsg{})

	case commandResultMsg:
		if msg.err != nil {
			m.setFlash(errors.Summary(msg.err), true)
		} else {
			m.setFlash(fmt.Sprintf("Queue %s requested for GPU %s", msg.verb, msg.key), false)
		}

	case spinner.TickMsg:
		if !m.loading() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.showHelp {
		return m.renderHelpOverlay()
	}
	return m.renderDashboard()
}

// loading reports whether any poller is still waiting for its first result.
func (m Model) loading() bool {
	return m.engine.Telemetry.Snapshot().Loading() ||
		m.engine.Jobs.Snapshot().Loading() ||
		m.engine.Queues.Snapshot().Loading()
}

// buckets returns the device buckets ordered by device index.
func (m Model) buckets() []queue.Bucket {
	view := m.engine.View()
	out := make([]queue.Bucket, len(view.Devices))
	copy(out, view.Devices)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Device.Index < out[j].Device.Index
	})
	return out
}

func (m Model) deviceKeys() []string {
	b := m.buckets()
	keys := make([]string, len(b))
	for i := range b {
		keys[i] = b[i].Key
	}
	return keys
}

// SelectedKey returns the device key under the cursor, or "" with no
// devices.
func (m Model) SelectedKey() string {
	keys := m.deviceKeys()
	if m.selected >= 0 && m.selected < len(keys) {
		return keys[m.selected]
	}
	return ""
}

// Focus returns the focused section.
func (m Model) Focus() Focus {
	return m.focus
}

// Flash returns the current one-line status message.
func (m Model) Flash() string {
	return m.flash
}

func (m *Model) clampSelection() {
	n := len(m.deviceKeys())
	if m.selected >= n {
		m.selected = n - 1
	}
	if m.selected < 0 {
		m.selected = 0
	}
}

func (m *Model) setFlash(msg string, isErr bool) {
	m.flash = msg
	m.flashErr = isErr
}

// queueAction starts or stops the selected device's queue. The control is
// only offered when the scheduler reports a queue for the device, and only
// in the direction that changes its state.
func (m *Model) queueAction(verb string) tea.Cmd {
	key := m.SelectedKey()
	if key == "" {
		m.setFlash("No GPU selected", true)
		return nil
	}

	q, ok := m.engine.QueueState(key)
	switch {
	case !ok:
		m.setFlash(fmt.Sprintf("GPU %s has no queue", key), true)
		return nil
	case verb == verbStart && q.IsRunning:
		m.setFlash(fmt.Sprintf("Queue for GPU %s is already running", key), true)
		return nil
	case verb == verbStop && !q.IsRunning:
		m.setFlash(fmt.Sprintf("Queue for GPU %s is not running", key), true)
		return nil
	}

	m.setFlash(fmt.Sprintf("Sending %s for GPU %s…", verb, key), false)

	ctx, ctrl, timeout := m.ctx, m.engine.Controller, m.cmdTimeout
	return func() tea.Msg {
		cctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		var err error
		if verb == verbStart {
			err = ctrl.StartQueue(cctx, key)
		} else {
			err = ctrl.StopQueue(cctx, key)
		}
		return commandResultMsg{verb: verb, key: key, err: err}
	}
}
