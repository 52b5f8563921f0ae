package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// IsTerminal reports whether f is attached to a terminal.
func IsTerminal(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// IsInteractive reports whether both stdin and stdout are terminals, which
// is what prompts and the full-screen dashboard need.
func IsInteractive() bool {
	return IsTerminal(os.Stdin) && IsTerminal(os.Stdout)
}

// DisableColors switches lipgloss to monochrome output.
func DisableColors() {
	lipgloss.SetColorProfile(termenv.Ascii)
}

// ConfigureColor picks the color profile for w. Colors are off with
// noColor, when NO_COLOR is set, or when w is not a terminal.
func ConfigureColor(w io.Writer, noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		DisableColors()
		return
	}
	if f, ok := w.(*os.File); ok && !IsTerminal(f) {
		DisableColors()
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(w).EnvColorProfile())
}
