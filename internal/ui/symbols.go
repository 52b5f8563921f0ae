package ui

// Status symbols.
const (
	SymbolSuccess  = "✓"
	SymbolFail     = "✗"
	SymbolPending  = "○"
	SymbolProgress = "◐"
	SymbolComplete = "●"
	SymbolStopped  = "■"
)

// StatusSymbol maps a job status string to its indicator.
func StatusSymbol(status string) string {
	switch status {
	case "running":
		return SymbolProgress
	case "queued":
		return SymbolPending
	case "stopping", "stopped":
		return SymbolStopped
	case "completed":
		return SymbolSuccess
	case "failed":
		return SymbolFail
	default:
		return SymbolPending
	}
}

// StatusColor picks the color for a job status badge.
func StatusColor(status string) string {
	switch status {
	case "running", "completed":
		return string(ColorSuccess)
	case "queued":
		return string(ColorInfo)
	case "stopping", "stopped":
		return string(ColorWarning)
	case "failed":
		return string(ColorError)
	default:
		return string(ColorMuted)
	}
}
