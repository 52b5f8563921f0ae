package dashboard

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Braille patterns use a 2x4 dot matrix per character:
//
//	  Col 0  Col 1
//	Row 0:   ⠁      ⠈     (dots 1, 4)
//	Row 1:   ⠂      ⠐     (dots 2, 5)
//	Row 2:   ⠄      ⠠     (dots 3, 6)
//	Row 3:   ⡀      ⢀     (dots 7, 8)
//
// Unicode braille starts at U+2800 (empty); dot n is bit n-1.
const brailleBase = '⠀'

// brailleDots maps [row][col] to the bit for that dot.
var brailleDots = [4][2]uint8{
	{0, 3},
	{1, 4},
	{2, 5},
	{6, 7},
}

// MinSparklineSamples is how many samples a device needs before its trend
// graph is drawn. Two points make a line segment, not a trend.
const MinSparklineSamples = 3

// RenderBrailleSparkline plots percentages (0-100, fixed scale) as a
// braille area graph width characters wide and height rows tall. Each
// character holds two samples. Short series are right-aligned so the newest
// sample is always at the right edge; long series keep only the newest
// 2*width samples. Each column takes the load color of its highest sample.
func RenderBrailleSparkline(data []float64, width, height int) string {
	if len(data) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	points := width * 2
	if len(data) > points {
		data = data[len(data)-points:]
	}
	offset := points - len(data)
	totalDots := height * 4

	grid := make([][]rune, height)
	for i := range grid {
		grid[i] = make([]rune, width)
		for j := range grid[i] {
			grid[i][j] = brailleBase
		}
	}
	colMax := make([]float64, width)

	for i, v := range data {
		v = clampPercent(v)
		col := (i + offset) / 2
		sub := (i + offset) % 2
		if v > colMax[col] {
			colMax[col] = v
		}

		dots := int(v / 100 * float64(totalDots))
		// Any non-zero load gets at least one dot so it is visible.
		if dots == 0 && v > 0 {
			dots = 1
		}
		for dot := 0; dot < dots; dot++ {
			row := height - 1 - dot/4
			subRow := 3 - dot%4
			grid[row][col] |= rune(1 << brailleDots[subRow][sub])
		}
	}

	lines := make([]string, height)
	for r, row := range grid {
		var sb strings.Builder
		for c, ch := range row {
			style := lipgloss.NewStyle().Foreground(LoadColor(colMax[c]))
			sb.WriteString(style.Render(string(ch)))
		}
		lines[r] = sb.String()
	}
	return strings.Join(lines, "\n")
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
