package ui

import "fmt"

// FormatMemory renders a megabyte count, switching to GB with one decimal at
// 1024 MB.
func FormatMemory(mb int) string {
	if mb >= 1024 {
		return fmt.Sprintf("%.1fGB", float64(mb)/1024)
	}
	return fmt.Sprintf("%dMB", mb)
}

// FormatPower renders watts, or "--" when the device did not report it.
func FormatPower(watts *float64) string {
	if watts == nil {
		return "--"
	}
	return fmt.Sprintf("%.0fW", *watts)
}

// FormatTemp renders a temperature in degrees Celsius.
func FormatTemp(celsius int) string {
	return fmt.Sprintf("%d°C", celsius)
}

// FormatPercent renders a whole-number percentage.
func FormatPercent(p float64) string {
	return fmt.Sprintf("%.0f%%", p)
}

// Truncate shortens s to max runes, ending with an ellipsis when cut.
func Truncate(s string, max int) string {
	r := []rune(s)
	if max <= 0 {
		return ""
	}
	if len(r) <= max {
		return s
	}
	if max == 1 {
		return "…"
	}
	return string(r[:max-1]) + "…"
}
