package dashboard

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/queue"
	"github.com/rileyhilliard/trainq/internal/ui"
)

const (
	defaultPaneWidth = 80
	jobBarWidth      = 20
)

// renderQueuePane renders one device bucket: header with the scheduler's
// queue state and the control on offer, then the jobs in queue order.
func (m Model) renderQueuePane(b queue.Bucket, width int, selected bool) string {
	inner := width - 4

	title := NameStyle.Render("GPU "+b.Key) + " " + MutedStyle.Render(ui.Truncate(b.Device.Name, 24))
	state := MutedStyle.Render("no queue")
	if q, ok := m.engine.QueueState(b.Key); ok {
		if q.IsRunning {
			state = lipgloss.NewStyle().Foreground(ColorHealthy).Render(ui.SymbolComplete+" running") +
				MutedStyle.Render("  x stop")
		} else {
			state = lipgloss.NewStyle().Foreground(ColorWarning).Render(ui.SymbolPending+" stopped") +
				MutedStyle.Render("  s start")
		}
	}

	lines := []string{title + "  " + state}
	lines = append(lines, renderJobs(b.Jobs, inner, "No jobs queued")...)

	style := PaneStyle
	if selected {
		style = PaneSelectedStyle
	}
	return style.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// renderIdlePane renders jobs that are not active on any known device.
func (m Model) renderIdlePane(jobs []api.Job, width int) string {
	inner := width - 4
	title := NameStyle.Render("Idle") + " " + MutedStyle.Render(fmt.Sprintf("(%d)", len(jobs)))
	lines := append([]string{title}, renderJobs(jobs, inner, "No idle jobs")...)
	return PaneStyle.Width(inner + 2).Render(strings.Join(lines, "\n"))
}

// renderJobs renders two lines per job: status, name and devices, then
// training progress.
func renderJobs(jobs []api.Job, inner int, empty string) []string {
	if len(jobs) == 0 {
		return []string{MutedStyle.Render(empty)}
	}

	var lines []string
	for i, j := range jobs {
		status := StatusStyle(j.Status)
		badge := status.Render(string(j.Status))
		gpus := MutedStyle.Render("GPU " + strings.Join(j.GPUIDs, ","))
		if len(j.GPUIDs) == 0 {
			gpus = MutedStyle.Render("no GPU")
		}

		prefix := status.Render(ui.StatusSymbol(string(j.Status))) + fmt.Sprintf(" %d. ", i+1)
		room := inner - lipgloss.Width(prefix) - lipgloss.Width(gpus) - lipgloss.Width(badge) - 4
		if room < 8 {
			room = 8
		}
		name := ValueStyle.Render(ui.PadRight(ui.Truncate(jobName(j), room), room))
		lines = append(lines, prefix+name+"  "+gpus+"  "+badge)

		bar := lipgloss.NewStyle().Foreground(ColorBar).Render(ui.Bar(queue.JobProgress(j), jobBarWidth))
		lines = append(lines, "     "+bar+" "+MutedStyle.Render(progressText(j)))
	}
	return lines
}

// progressText renders "step / total  pct%", or "step / ?" when the job
// config does not say how many steps it runs.
func progressText(j api.Job) string {
	if j.TotalSteps <= 0 {
		return fmt.Sprintf("%d / ?", j.Step)
	}
	return fmt.Sprintf("%d / %d  %.0f%%", j.Step, j.TotalSteps, queue.JobProgress(j))
}

func jobName(j api.Job) string {
	if j.Name != "" {
		return j.Name
	}
	return j.ID
}
