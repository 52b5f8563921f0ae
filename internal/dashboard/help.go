package dashboard

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	helpBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorAccent).
			Padding(1, 2)

	helpTitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)
)

// renderHelpOverlay renders the full key help in a centered box.
func (m Model) renderHelpOverlay() string {
	content := lipgloss.JoinVertical(lipgloss.Left,
		helpTitleStyle.Render("Keyboard Shortcuts"),
		"",
		m.help.FullHelpView(m.keys.FullHelp()),
		"",
		LabelStyle.Render("Press ? or esc to close"),
	)
	box := helpBoxStyle.Render(content)

	if m.width <= 0 || m.height <= 0 {
		return box
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
}
