package dashboard

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainq/internal/poll"
	"github.com/rileyhilliard/trainq/internal/ui"
)

// Telemetry empty states. A missing toolkit and a toolkit with no GPUs
// both arrive with an empty device list and must read differently.
const (
	MsgNoNvidiaSMI = "No NVIDIA GPUs detected! nvidia-smi is not available on this system."
	MsgNoGPUs      = "No GPUs found, but nvidia-smi is available."
)

// renderDashboard renders the complete dashboard view.
func (m Model) renderDashboard() string {
	sections := []string{m.renderHeader()}

	if banners := m.renderBanners(); banners != "" {
		sections = append(sections, banners)
	}
	sections = append(sections, m.renderDevices(), m.renderQueues())
	if m.flash != "" {
		sections = append(sections, m.renderFlash())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n\n")
}

// renderHeader renders the title bar with the summary stats.
func (m Model) renderHeader() string {
	stats := m.engine.Stats()

	parts := []string{
		"source " + m.engine.SourceName(),
		plural(stats.Devices, "GPU"),
		fmt.Sprintf("%d active", stats.ActiveJobs),
		fmt.Sprintf("%d queued", stats.QueuedJobs),
	}
	if stats.HasAvgTemp {
		temp := fmt.Sprintf("avg %.0f°C", stats.AvgTemp)
		if stats.HighTemp {
			temp += " " + lipgloss.NewStyle().Foreground(ColorCritical).Render("High")
		}
		parts = append(parts, temp)
	}
	if m.engine.ActiveOnly() {
		parts = append(parts, "active only")
	}
	if t := m.engine.Telemetry.Snapshot(); !t.UpdatedAt.IsZero() {
		parts = append(parts, "updated "+ago(m.now().Sub(t.UpdatedAt)))
	}

	title := TitleStyle.Render("trainq")
	rest := lipgloss.NewStyle().Foreground(ColorTextSecondary).Render(" | " + strings.Join(parts, " | "))
	return HeaderStyle.Render(title + rest)
}

// renderBanners reports poll failures. Stale data stays on screen below.
func (m Model) renderBanners() string {
	var lines []string
	add := func(what string, state poll.State, errMsg string, updated time.Time) {
		switch state {
		case poll.Failed:
			lines = append(lines, ErrorBannerStyle.Render(
				fmt.Sprintf("%s Couldn't load %s: %s", ui.SymbolFail, what, errMsg)))
		case poll.ErrorWhileLoaded:
			lines = append(lines, ErrorBannerStyle.Render(
				fmt.Sprintf("%s Couldn't refresh %s: %s (showing data from %s)",
					ui.SymbolFail, what, errMsg, ago(m.now().Sub(updated)))))
		}
	}

	t := m.engine.Telemetry.Snapshot()
	add("GPU telemetry", t.State, t.Err, t.UpdatedAt)
	j := m.engine.Jobs.Snapshot()
	add("jobs", j.State, j.Err, j.UpdatedAt)
	q := m.engine.Queues.Snapshot()
	add("queue state", q.State, q.Err, q.UpdatedAt)

	return strings.Join(lines, "\n")
}

// renderDevices renders the device cards or the matching empty state.
func (m Model) renderDevices() string {
	t := m.engine.Telemetry.Snapshot()
	switch {
	case t.Loading():
		return "  " + m.spinner.View() + LabelStyle.Render(" Loading GPU telemetry…")
	case !t.HasData():
		return ""
	case !t.Data.HasNvidiaSMI:
		msg := MsgNoNvidiaSMI
		if t.Data.Error != "" {
			msg += "\n" + MutedStyle.Render(t.Data.Error)
		}
		return NoticeStyle.Render(msg)
	case len(t.Data.GPUs) == 0:
		return NoticeStyle.Render(MsgNoGPUs)
	}

	selectedKey := m.SelectedKey()
	cardWidth := m.cardWidth()
	var cards []string
	for _, b := range m.buckets() {
		selected := m.focus == FocusDevices && b.Key == selectedKey
		cards = append(cards, m.renderCard(b.Device, cardWidth, selected))
	}
	return m.layoutCards(cards, cardWidth)
}

// renderQueues renders one pane per device bucket and the Idle pane.
func (m Model) renderQueues() string {
	j := m.engine.Jobs.Snapshot()
	switch {
	case j.Loading():
		return "  " + m.spinner.View() + LabelStyle.Render(" Loading jobs…")
	case !j.HasData():
		return ""
	}

	width := m.paneWidth()
	selectedKey := m.SelectedKey()
	var panes []string
	for _, b := range m.buckets() {
		selected := m.focus == FocusQueues && b.Key == selectedKey
		panes = append(panes, m.renderQueuePane(b, width, selected))
	}
	// With the active-only filter terminal jobs are never fetched, so the
	// Idle pane would only ever hold misassigned jobs.
	if !m.engine.ActiveOnly() {
		panes = append(panes, m.renderIdlePane(m.engine.View().Idle, width))
	}
	if len(panes) == 0 {
		return MutedStyle.Render("  No jobs")
	}
	return lipgloss.JoinVertical(lipgloss.Left, panes...)
}

func (m Model) renderFlash() string {
	if m.flashErr {
		return FlashErrStyle.Render(ui.SymbolFail + " " + m.flash)
	}
	return FlashOKStyle.Render(m.flash)
}

// renderFooter renders the short key help.
func (m Model) renderFooter() string {
	return FooterStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp()))
}

func (m Model) cardWidth() int {
	if m.width > 0 && m.width < DefaultCardWidth+1 {
		return m.width - 1
	}
	return DefaultCardWidth
}

func (m Model) paneWidth() int {
	if m.width <= 0 {
		return defaultPaneWidth
	}
	return m.width - 1
}

// ago renders a duration as "just now", "1s ago" or "42s ago".
func ago(d time.Duration) string {
	s := int(d.Seconds())
	switch {
	case s <= 0:
		return "just now"
	case s < 60:
		return fmt.Sprintf("%ds ago", s)
	default:
		return fmt.Sprintf("%dm ago", s/60)
	}
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
