package queue

import "github.com/rileyhilliard/trainq/internal/api"

// HotTemperature is the temperature, in °C, above which a device is flagged.
const HotTemperature = 80

// Stats are the dashboard header figures.
type Stats struct {
	ActiveJobs int // running or stopping
	QueuedJobs int
	Devices    int
	AvgTemp    float64
	HighTemp   bool
	HasAvgTemp bool
}

// Summarize computes header stats from the current device and job lists.
func Summarize(devices []api.Device, jobs []api.Job) Stats {
	var s Stats
	for _, j := range jobs {
		switch j.Status {
		case api.StatusRunning, api.StatusStopping:
			s.ActiveJobs++
		case api.StatusQueued:
			s.QueuedJobs++
		}
	}

	s.Devices = len(devices)
	if len(devices) > 0 {
		total := 0
		for _, d := range devices {
			total += d.Temperature
		}
		s.AvgTemp = float64(total) / float64(len(devices))
		s.HasAvgTemp = true
		s.HighTemp = s.AvgTemp > HotTemperature
	}
	return s
}
