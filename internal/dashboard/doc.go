// Package dashboard is the full-screen `trainq watch` view.
//
// The model never fetches anything itself. It reads poller snapshots from
// an engine.Engine and re-renders whenever a poller signals an update:
//
//	Telemetry.Updates() ─┐
//	Jobs.Updates()      ─┼─> waitFor Cmd ─> update msg ─> View()
//	Queues.Updates()    ─┘
//
// Each update msg re-arms its own waitFor, so at most one pending read per
// poller exists at a time.
//
// # Layout
//
//	trainq | source api | 4 GPUs | 2 active | 3 queued | avg 64°C
//	┌ device cards (load sparkline, VRAM bar, fan, power) ┐
//	┌ queue pane per device, then Idle                    ┐
//	flash line
//	key hints
//
// # Keys
//
//	q / ctrl+c  quit
//	r           refresh all sources now
//	tab         switch focus between devices and queues
//	j/k         select device
//	s / x       start / stop the selected device's queue
//	?           toggle help
package dashboard
