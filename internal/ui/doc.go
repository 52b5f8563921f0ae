// Package ui holds the terminal helpers shared by the one-shot commands and
// the dashboard: the ANSI color palette with load and temperature
// thresholds, block sparklines, fill bars, memory/power formatting and
// tables.
//
// Colors follow the terminal: ConfigureColor turns them off for --no-color,
// NO_COLOR or a non-terminal writer.
//
//	ui.RenderSparkline(history, 30) // ▁▂▅▇█ colored by the latest load
//	ui.RenderProgressBar(67.5, 20)  // [█████████████░░░░░░░]  68%
//	ui.FormatMemory(24576)          // 24.0GB
package ui
