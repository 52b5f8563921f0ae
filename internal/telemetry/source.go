// Package telemetry collects GPU reports from the backend, from a local
// nvidia-smi, or from nvidia-smi on a remote host over SSH.
package telemetry

import (
	"context"

	"github.com/rileyhilliard/trainq/internal/api"
)

// Source produces one GPU report per call.
type Source interface {
	Fetch(ctx context.Context) (api.TelemetryReport, error)
	Name() string
}

// Backend is the part of the API client the API source needs.
type Backend interface {
	Telemetry(ctx context.Context) (api.TelemetryReport, error)
}

// APISource reads telemetry from the training backend.
type APISource struct {
	backend Backend
}

// NewAPISource wraps a backend client as a Source.
func NewAPISource(backend Backend) *APISource {
	return &APISource{backend: backend}
}

// Fetch implements Source.
func (s *APISource) Fetch(ctx context.Context) (api.TelemetryReport, error) {
	return s.backend.Telemetry(ctx)
}

// Name implements Source.
func (s *APISource) Name() string {
	return "api"
}
