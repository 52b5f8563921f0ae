package telemetry

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/internal/logger"
	"github.com/rileyhilliard/trainq/pkg/sshutil"
)

// SSHSource runs nvidia-smi on a remote host. The connection is kept open
// between polls and redialed after any failure.
type SSHSource struct {
	host    string
	command string
	opts    sshutil.Options
	dial    sshutil.DialFunc
	log     logger.Logger

	mu     sync.Mutex
	runner sshutil.Runner
}

// NewSSHSource creates a source for host. A nil dial uses sshutil.Dial.
func NewSSHSource(host, binary string, opts sshutil.Options, dial sshutil.DialFunc, log logger.Logger) *SSHSource {
	if dial == nil {
		dial = sshutil.Dial
	}
	if log == nil {
		log = logger.Noop()
	}
	return &SSHSource{
		host:    host,
		command: Command(binary),
		opts:    opts,
		dial:    dial,
		log:     log,
	}
}

// Name implements Source.
func (s *SSHSource) Name() string {
	return "ssh:" + s.host
}

// Fetch implements Source.
func (s *SSHSource) Fetch(ctx context.Context) (api.TelemetryReport, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.runner == nil {
		s.log.Debug("dialing %s", s.host)
		runner, err := s.dial(s.host, s.opts)
		if err != nil {
			return api.TelemetryReport{}, err
		}
		s.runner = runner
	}

	res, err := s.runner.Run(ctx, s.command)
	if err != nil {
		s.dropLocked()
		return api.TelemetryReport{}, err
	}

	switch {
	case res.ExitCode == commandNotFound:
		return api.TelemetryReport{HasNvidiaSMI: false, GPUs: []api.Device{}}, nil
	case res.ExitCode != 0:
		msg := strings.TrimSpace(string(res.Stderr))
		if msg == "" {
			msg = fmt.Sprintf("exit status %d", res.ExitCode)
		}
		return api.TelemetryReport{}, errors.New(errors.ErrExec,
			fmt.Sprintf("nvidia-smi failed on %s: %s", s.host, msg),
			"Run nvidia-smi on the host by hand to check the driver is loaded.")
	}

	devices, err := ParseNvidiaSMI(string(res.Stdout))
	if err != nil {
		return api.TelemetryReport{}, errors.WrapWithCode(err, errors.ErrFetch,
			fmt.Sprintf("Couldn't parse nvidia-smi output from %s", s.host),
			"The driver may be too old for the query fields trainq uses.")
	}
	return api.TelemetryReport{HasNvidiaSMI: true, GPUs: devices}, nil
}

// Close drops the cached connection.
func (s *SSHSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropLocked()
}

func (s *SSHSource) dropLocked() error {
	if s.runner == nil {
		return nil
	}
	err := s.runner.Close()
	s.runner = nil
	return err
}
