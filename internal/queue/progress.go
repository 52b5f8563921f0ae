package queue

import "github.com/rileyhilliard/trainq/internal/api"

// Progress returns step/totalSteps as a percentage in [0, 100]. An unknown
// or non-positive total reads as 0.
func Progress(step, totalSteps int) float64 {
	if totalSteps <= 0 {
		return 0
	}
	pct := float64(step) / float64(totalSteps) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// JobProgress is Progress for a job.
func JobProgress(j api.Job) float64 {
	return Progress(j.Step, j.TotalSteps)
}
