package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// TableColumn defines a table column with name and maximum width.
type TableColumn struct {
	Title string
	Width int
}

// RenderSimpleTable renders a borderless table for one-shot CLI output,
// with a rule under the header. Cells wider than their column are
// truncated.
func RenderSimpleTable(columns []TableColumn, rows [][]string) string {
	if len(rows) == 0 {
		return ""
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Title
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		r := make([]string, len(row))
		for j, cell := range row {
			if j < len(columns) && columns[j].Width > 0 {
				cell = Truncate(cell, columns[j].Width)
			}
			r[j] = cell
		}
		cells[i] = r
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary).PaddingRight(2)
	cellStyle := lipgloss.NewStyle().Foreground(ColorPrimary).PaddingRight(2)

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(ColorMuted)).
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderRow(false).
		BorderHeader(true).
		Headers(headers...).
		Rows(cells...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	return strings.TrimRight(t.String(), "\n") + "\n"
}

// PadRight pads s with spaces to width visible cells, ignoring ANSI codes.
func PadRight(s string, width int) string {
	visible := lipgloss.Width(s)
	if visible >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visible)
}
