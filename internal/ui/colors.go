package ui

import "github.com/charmbracelet/lipgloss"

// Semantic colors as ANSI codes so they follow the terminal theme.
const (
	ColorSuccess lipgloss.Color = "2" // Green
	ColorError   lipgloss.Color = "1" // Red
	ColorWarning lipgloss.Color = "3" // Yellow
	ColorInfo    lipgloss.Color = "6" // Cyan
)

// Text colors for content hierarchy
const (
	ColorPrimary   lipgloss.Color = "7" // White/default
	ColorSecondary lipgloss.Color = "4" // Blue
	ColorMuted     lipgloss.Color = "8" // Gray (bright black)
)

// Load and temperature thresholds.
const (
	LoadLow        = 30.0
	LoadHigh       = 70.0
	HotTemperature = 80
)

// LoadColor colors a utilization percentage: green below 30, amber below
// 70, red otherwise.
func LoadColor(percent float64) lipgloss.Color {
	switch {
	case percent < LoadLow:
		return ColorSuccess
	case percent < LoadHigh:
		return ColorWarning
	default:
		return ColorError
	}
}

// TempColor is red above 80°C and the primary text color otherwise.
func TempColor(celsius int) lipgloss.Color {
	if celsius > HotTemperature {
		return ColorError
	}
	return ColorPrimary
}

// thresholdColor is used for fill bars: memory pressure turns amber at 60%
// and red at 80%.
func thresholdColor(percent float64) lipgloss.Color {
	switch {
	case percent >= 80:
		return ColorError
	case percent >= 60:
		return ColorWarning
	default:
		return ColorSuccess
	}
}
