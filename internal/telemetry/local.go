package telemetry

import (
	"bytes"
	"context"
	stderrors "errors"
	"os/exec"
	"strings"

	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/errors"
)

// LocalSource runs nvidia-smi on this machine.
type LocalSource struct {
	binary   string
	lookPath func(string) (string, error)
	run      func(ctx context.Context, path string, args ...string) ([]byte, []byte, error)
}

// NewLocalSource creates a source for the given nvidia-smi binary name or path.
func NewLocalSource(binary string) *LocalSource {
	if binary == "" {
		binary = "nvidia-smi"
	}
	return &LocalSource{
		binary:   binary,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

// Name implements Source.
func (s *LocalSource) Name() string {
	return "local"
}

// Fetch implements Source. A missing binary is a normal report with
// HasNvidiaSMI=false, not an error.
func (s *LocalSource) Fetch(ctx context.Context) (api.TelemetryReport, error) {
	path, err := s.lookPath(s.binary)
	if err != nil {
		return api.TelemetryReport{HasNvidiaSMI: false, GPUs: []api.Device{}}, nil
	}

	stdout, stderr, err := s.run(ctx, path, QueryArgs...)
	if err != nil {
		return api.TelemetryReport{}, errors.WrapWithCode(commandError(err, stderr), errors.ErrExec,
			"nvidia-smi failed",
			"Run nvidia-smi by hand to check the driver is loaded.")
	}

	devices, err := ParseNvidiaSMI(string(stdout))
	if err != nil {
		return api.TelemetryReport{}, errors.WrapWithCode(err, errors.ErrFetch,
			"Couldn't parse nvidia-smi output",
			"The driver may be too old for the query fields trainq uses.")
	}
	return api.TelemetryReport{HasNvidiaSMI: true, GPUs: devices}, nil
}

func runCommand(ctx context.Context, path string, args ...string) ([]byte, []byte, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

// commandError prefers the tool's own complaint over a bare exit status.
func commandError(err error, stderr []byte) error {
	var exitErr *exec.ExitError
	msg := strings.TrimSpace(string(stderr))
	if stderrors.As(err, &exitErr) && msg != "" {
		return stderrors.New(msg)
	}
	return err
}
