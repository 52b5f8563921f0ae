package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/ui"
)

// Card geometry.
const (
	DefaultCardWidth = 40
	sparklineRows    = 2
	minBarWidth      = 4
)

// renderCard renders one device: name and index, temperature and load,
// the load trend once enough samples exist, VRAM, fan and power.
func (m Model) renderCard(d api.Device, width int, selected bool) string {
	inner := width - 4 // border + padding
	if inner < 16 {
		inner = 16
	}

	index := MutedStyle.Render("#" + d.Key())
	name := NameStyle.Render(ui.Truncate(d.Name, inner-lipgloss.Width(index)-1))
	lines := []string{name + " " + index}

	load := float64(d.Utilization.GPU)
	loadStyle := lipgloss.NewStyle().Foreground(LoadColor(load)).Bold(true)
	lines = append(lines,
		LabelStyle.Render("Temp ")+TempStyle(d.Temperature).Render(ui.FormatTemp(d.Temperature))+
			"   "+LabelStyle.Render("Load ")+loadStyle.Render(ui.FormatPercent(load)))

	if loads := m.engine.History.Loads(d.Index); len(loads) >= MinSparklineSamples {
		lines = append(lines, RenderBrailleSparkline(loads, inner, sparklineRows))
	}

	lines = append(lines, renderVRAM(d, inner))

	lines = append(lines,
		LabelStyle.Render("Fan ")+ValueStyle.Render(fmt.Sprintf("%d%%", d.Fan.Speed))+
			"   "+LabelStyle.Render("Power ")+ValueStyle.Render(ui.FormatPower(d.Power.Draw)))

	style := CardStyle
	if selected {
		style = CardSelectedStyle
	}
	return style.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// renderVRAM renders "VRAM ██████░░░░ 12.0GB / 24.0GB", sizing the bar to
// whatever the label and figures leave.
func renderVRAM(d api.Device, inner int) string {
	label := LabelStyle.Render("VRAM ")
	figures := ValueStyle.Render(fmt.Sprintf("%s / %s",
		ui.FormatMemory(d.Memory.Used), ui.FormatMemory(d.Memory.Total)))

	barWidth := inner - lipgloss.Width(label) - lipgloss.Width(figures) - 1
	if barWidth < minBarWidth {
		barWidth = minBarWidth
	}
	pct := d.MemoryPercent()
	bar := lipgloss.NewStyle().Foreground(MemoryColor(pct)).Render(ui.Bar(pct, barWidth))
	return label + bar + " " + figures
}

// layoutCards arranges cards in rows that fit the terminal width.
func (m Model) layoutCards(cards []string, cardWidth int) string {
	if len(cards) == 0 {
		return ""
	}

	perRow := 1
	if m.width > 0 {
		perRow = m.width / (cardWidth + 1) // + right margin
		if perRow < 1 {
			perRow = 1
		}
	}

	var rows []string
	for i := 0; i < len(cards); i += perRow {
		end := i + perRow
		if end > len(cards) {
			end = len(cards)
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cards[i:end]...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}
