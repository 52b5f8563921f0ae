package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/dashboard"
	"github.com/rileyhilliard/trainq/internal/queue"
	"github.com/rileyhilliard/trainq/internal/ui"
)

var (
	headingStyle = lipgloss.NewStyle().Bold(true).Foreground(ui.ColorPrimary)
	mutedStyle   = lipgloss.NewStyle().Foreground(ui.ColorMuted)
	warnStyle    = lipgloss.NewStyle().Foreground(ui.ColorWarning)
	okStyle      = lipgloss.NewStyle().Foreground(ui.ColorSuccess)
)

const trendWidth = 20

// renderStats writes the one-line summary: "2 GPUs · 1 active · 3 queued · avg 64°C".
func renderStats(w io.Writer, s *snapshot) {
	st := queue.Summarize(s.Telemetry.GPUs, s.Jobs)
	parts := []string{
		fmt.Sprintf("%d GPU%s", st.Devices, plural(st.Devices)),
		fmt.Sprintf("%d active", st.ActiveJobs),
		fmt.Sprintf("%d queued", st.QueuedJobs),
	}
	if st.HasAvgTemp {
		temp := fmt.Sprintf("avg %.0f°C", st.AvgTemp)
		if st.HighTemp {
			temp += " " + lipgloss.NewStyle().Foreground(ui.ColorError).Render("High")
		}
		parts = append(parts, temp)
	}
	fmt.Fprintln(w, headingStyle.Render("trainq")+" "+mutedStyle.Render("("+s.Source+")")+"  "+strings.Join(parts, " · "))
}

// renderGPUs writes the device table, or the matching empty state. With
// more than one sample per device a load trend column is added.
func renderGPUs(w io.Writer, s *snapshot) {
	r := s.Telemetry
	switch {
	case !r.HasNvidiaSMI:
		fmt.Fprintln(w, warnStyle.Render(dashboard.MsgNoNvidiaSMI))
		if r.Error != "" {
			fmt.Fprintln(w, mutedStyle.Render("  "+r.Error))
		}
		return
	case len(r.GPUs) == 0:
		fmt.Fprintln(w, warnStyle.Render(dashboard.MsgNoGPUs))
		return
	}

	trend := false
	for _, d := range r.GPUs {
		if s.History.Len(d.Index) > 1 {
			trend = true
			break
		}
	}

	columns := []ui.TableColumn{
		{Title: "GPU", Width: 4},
		{Title: "NAME", Width: 24},
		{Title: "TEMP", Width: 6},
		{Title: "LOAD", Width: 5},
		{Title: "VRAM", Width: 24},
		{Title: "FAN", Width: 5},
		{Title: "POWER", Width: 6},
	}
	if trend {
		columns = append(columns, ui.TableColumn{Title: "TREND"})
	}

	rows := make([][]string, 0, len(r.GPUs))
	for _, d := range r.GPUs {
		temp := ui.FormatTemp(d.Temperature)
		if d.Temperature > ui.HotTemperature {
			temp += "!"
		}
		row := []string{
			d.Key(),
			d.Name,
			temp,
			ui.FormatPercent(float64(d.Utilization.GPU)),
			fmt.Sprintf("%s / %s (%.0f%%)", ui.FormatMemory(d.Memory.Used), ui.FormatMemory(d.Memory.Total), d.MemoryPercent()),
			fmt.Sprintf("%d%%", d.Fan.Speed),
			ui.FormatPower(d.Power.Draw),
		}
		if trend {
			row = append(row, ui.RenderSparkline(s.History.Loads(d.Index), trendWidth))
		}
		rows = append(rows, row)
	}
	fmt.Fprint(w, ui.RenderSimpleTable(columns, rows))
}

// renderQueues writes each device queue with its jobs, then Idle.
func renderQueues(w io.Writer, s *snapshot, includeIdle bool) {
	v := s.View()
	buckets := sortedBuckets(v)

	for _, b := range buckets {
		state := mutedStyle.Render("no queue")
		if q, ok := s.QueueState(b.Key); ok {
			if q.IsRunning {
				state = okStyle.Render(ui.SymbolComplete + " running")
			} else {
				state = warnStyle.Render(ui.SymbolPending + " stopped")
			}
		}
		fmt.Fprintf(w, "%s %s  %s\n", headingStyle.Render("GPU "+b.Key), mutedStyle.Render(b.Device.Name), state)
		renderJobLines(w, b.Jobs, "no jobs queued")
	}

	if includeIdle {
		fmt.Fprintf(w, "%s %s\n", headingStyle.Render("Idle"), mutedStyle.Render(fmt.Sprintf("(%d)", len(v.Idle))))
		renderJobLines(w, v.Idle, "no idle jobs")
	}

	if len(buckets) == 0 && !includeIdle {
		fmt.Fprintln(w, mutedStyle.Render("No jobs"))
	}
}

func renderJobLines(w io.Writer, jobs []api.Job, empty string) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "  "+mutedStyle.Render(empty))
		return
	}
	for i, j := range jobs {
		status := lipgloss.NewStyle().Foreground(lipgloss.Color(ui.StatusColor(string(j.Status))))
		name := j.Name
		if name == "" {
			name = j.ID
		}
		fmt.Fprintf(w, "  %s %d. %s  %s  %s  %s\n",
			status.Render(ui.StatusSymbol(string(j.Status))),
			i+1,
			ui.PadRight(ui.Truncate(name, 28), 28),
			status.Render(ui.PadRight(string(j.Status), 9)),
			mutedStyle.Render("GPU "+strings.Join(j.GPUIDs, ",")),
			ui.RenderJobProgress(j.Step, j.TotalSteps, queue.JobProgress(j), 12),
		)
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
