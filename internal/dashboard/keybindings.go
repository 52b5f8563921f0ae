package dashboard

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Focus is the dashboard section that j/k and the selection highlight
// apply to.
type Focus int

const (
	FocusDevices Focus = iota
	FocusQueues
)

// String returns a human-readable label for the focus.
func (f Focus) String() string {
	if f == FocusQueues {
		return "queues"
	}
	return "devices"
}

// Next toggles between devices and queues.
func (f Focus) Next() Focus {
	return Focus((int(f) + 1) % 2)
}

// KeyMap holds the dashboard key bindings.
type KeyMap struct {
	Quit    key.Binding
	Refresh key.Binding
	Focus   key.Binding
	Up      key.Binding
	Down    key.Binding
	Start   key.Binding
	Stop    key.Binding
	Help    key.Binding
}

// DefaultKeyMap returns the standard bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "refresh"),
		),
		Focus: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "devices/queues"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "previous GPU"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "next GPU"),
		),
		Start: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "start queue"),
		),
		Stop: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "stop queue"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
	}
}

// ShortHelp is shown in the footer.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Quit, k.Refresh, k.Focus, k.Start, k.Stop, k.Help}
}

// FullHelp is shown in the help overlay.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Focus},
		{k.Start, k.Stop, k.Refresh},
		{k.Help, k.Quit},
	}
}

// HandleKeyMsg processes keyboard input. It returns false for keys the
// dashboard does not bind.
func (m *Model) HandleKeyMsg(msg tea.KeyMsg) (bool, tea.Cmd) {
	if key.Matches(msg, m.keys.Help) {
		m.showHelp = !m.showHelp
		return true, nil
	}
	if m.showHelp && msg.String() == "esc" {
		m.showHelp = false
		return true, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return true, tea.Quit

	case key.Matches(msg, m.keys.Refresh):
		m.engine.RefreshAll()
		m.setFlash("Refreshing…", false)
		return true, nil

	case key.Matches(msg, m.keys.Focus):
		m.focus = m.focus.Next()
		return true, nil

	case key.Matches(msg, m.keys.Up):
		if m.selected > 0 {
			m.selected--
		}
		return true, nil

	case key.Matches(msg, m.keys.Down):
		if m.selected < len(m.deviceKeys())-1 {
			m.selected++
		}
		return true, nil

	case key.Matches(msg, m.keys.Start):
		return true, m.queueAction(verbStart)

	case key.Matches(msg, m.keys.Stop):
		return true, m.queueAction(verbStop)
	}

	return false, nil
}
