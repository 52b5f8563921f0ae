package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	progressFilled = '█'
	progressEmpty  = '░'
)

// Bar returns a bare fill bar of width cells for percent (clamped to 0-100).
func Bar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := int(clampPercent(percent) / 100 * float64(width))

	var sb strings.Builder
	sb.Grow(width * 3)
	sb.WriteString(strings.Repeat(string(progressFilled), filled))
	sb.WriteString(strings.Repeat(string(progressEmpty), width-filled))
	return sb.String()
}

// RenderProgressBar renders "[████░░░░]  67%". The bar turns amber at 60%
// and red at 80%, which suits memory pressure.
func RenderProgressBar(percent float64, width int) string {
	if width <= 0 {
		return ""
	}
	style := lipgloss.NewStyle().Foreground(thresholdColor(clampPercent(percent)))
	return "[" + style.Render(Bar(percent, width)) + "]" + fmt.Sprintf(" %3.0f%%", clampPercent(percent))
}

// RenderJobProgress renders a job's training progress in a single color:
// "████░░░░ 120 / 1000  12%".
func RenderJobProgress(step, total int, percent float64, width int) string {
	style := lipgloss.NewStyle().Foreground(ColorSecondary)
	bar := style.Render(Bar(percent, width))
	if total <= 0 {
		return fmt.Sprintf("%s %d / ?", bar, step)
	}
	return fmt.Sprintf("%s %d / %d %3.0f%%", bar, step, total, clampPercent(percent))
}
