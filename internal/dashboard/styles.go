package dashboard

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/ui"
)

// Dashboard palette
const (
	ColorSurfaceBg = lipgloss.Color("#12121A")
	ColorBorder    = lipgloss.Color("#2A2A4A")

	ColorHealthy  = lipgloss.Color("#39FF14")
	ColorWarning  = lipgloss.Color("#FFAA00")
	ColorCritical = lipgloss.Color("#FF0055")

	ColorTextPrimary   = lipgloss.Color("#FFFFFF")
	ColorTextSecondary = lipgloss.Color("#B4B4D0")
	ColorTextMuted     = lipgloss.Color("#6B6B8D")

	ColorAccent = lipgloss.Color("#FF2E97")
	ColorQueued = lipgloss.Color("#00FFFF")
	ColorBar    = lipgloss.Color("#BF40FF")
)

var (
	HeaderStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Background(ColorSurfaceBg).
			Bold(true).
			Padding(0, 1)

	TitleStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted).
			Padding(0, 1)

	CardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1).
			MarginRight(1)

	CardSelectedStyle = CardStyle.
				BorderForeground(ColorAccent)

	PaneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorBorder).
			Padding(0, 1)

	PaneSelectedStyle = PaneStyle.
				BorderForeground(ColorAccent)

	NameStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary).
			Bold(true)

	LabelStyle = lipgloss.NewStyle().
			Foreground(ColorTextSecondary)

	ValueStyle = lipgloss.NewStyle().
			Foreground(ColorTextPrimary)

	MutedStyle = lipgloss.NewStyle().
			Foreground(ColorTextMuted)

	ErrorBannerStyle = lipgloss.NewStyle().
				Foreground(ColorCritical).
				Bold(true).
				Padding(0, 1)

	NoticeStyle = lipgloss.NewStyle().
			Foreground(ColorWarning).
			Padding(1, 2)

	FlashOKStyle = lipgloss.NewStyle().
			Foreground(ColorHealthy).
			Padding(0, 1)

	FlashErrStyle = lipgloss.NewStyle().
			Foreground(ColorCritical).
			Padding(0, 1)
)

// LoadColor maps a utilization percentage to green, amber or red.
func LoadColor(percent float64) lipgloss.Color {
	switch {
	case percent < ui.LoadLow:
		return ColorHealthy
	case percent < ui.LoadHigh:
		return ColorWarning
	default:
		return ColorCritical
	}
}

// TempStyle is critical red above the hot threshold.
func TempStyle(celsius int) lipgloss.Style {
	if celsius > ui.HotTemperature {
		return lipgloss.NewStyle().Foreground(ColorCritical).Bold(true)
	}
	return ValueStyle
}

// MemoryColor follows the same bands as a fill bar: amber from 60%, red
// from 80%.
func MemoryColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorCritical
	case percent >= 60:
		return ColorWarning
	default:
		return ColorHealthy
	}
}

// StatusStyle colors a job status badge.
func StatusStyle(s api.JobStatus) lipgloss.Style {
	var c lipgloss.Color
	switch s {
	case api.StatusRunning, api.StatusCompleted:
		c = ColorHealthy
	case api.StatusQueued:
		c = ColorQueued
	case api.StatusStopping, api.StatusStopped:
		c = ColorWarning
	case api.StatusFailed:
		c = ColorCritical
	default:
		c = ColorTextMuted
	}
	return lipgloss.NewStyle().Foreground(c)
}
