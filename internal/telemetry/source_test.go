package telemetry

import (
	"context"
	stderrors "errors"
	"os/exec"
	"testing"

	"github.com/rileyhilliard/trainq/internal/api"
	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/rileyhilliard/trainq/pkg/sshutil"
	sshtest "github.com/rileyhilliard/trainq/pkg/sshutil/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const smiOutput = "0, RTX 4090, 61, 87, 20100, 24564, 55, 312.45\n1, RTX 4090, 40, 0, 3, 24564, 30, 21.02\n"

type fakeBackend struct {
	report api.TelemetryReport
	err    error
}

func (f *fakeBackend) Telemetry(ctx context.Context) (api.TelemetryReport, error) {
	return f.report, f.err
}

func TestAPISource(t *testing.T) {
	backend := &fakeBackend{report: api.TelemetryReport{HasNvidiaSMI: true, GPUs: []api.Device{{Index: 0}}}}
	src := NewAPISource(backend)

	report, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.GPUs, 1)
	assert.Equal(t, "api", src.Name())

	backend.err = stderrors.New("down")
	_, err = src.Fetch(context.Background())
	assert.Error(t, err)
}

func localSource(lookErr error, stdout, stderr string, runErr error) *LocalSource {
	s := NewLocalSource("")
	s.lookPath = func(string) (string, error) {
		if lookErr != nil {
			return "", lookErr
		}
		return "/usr/bin/nvidia-smi", nil
	}
	s.run = func(ctx context.Context, path string, args ...string) ([]byte, []byte, error) {
		return []byte(stdout), []byte(stderr), runErr
	}
	return s
}

func TestLocalSource(t *testing.T) {
	src := localSource(nil, smiOutput, "", nil)

	report, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasNvidiaSMI)
	assert.Len(t, report.GPUs, 2)
	assert.Equal(t, "local", src.Name())
}

func TestLocalSource_BinaryMissing(t *testing.T) {
	src := localSource(exec.ErrNotFound, "", "", nil)

	report, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasNvidiaSMI)
	assert.NotNil(t, report.GPUs)
	assert.Empty(t, report.GPUs)
}

func TestLocalSource_NoDevices(t *testing.T) {
	src := localSource(nil, "", "", nil)

	report, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.True(t, report.HasNvidiaSMI)
	assert.Empty(t, report.GPUs)
}

func TestLocalSource_CommandFails(t *testing.T) {
	src := localSource(nil, "", "", stderrors.New("signal: killed"))

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
}

func TestLocalSource_BadOutput(t *testing.T) {
	src := localSource(nil, "garbage", "", nil)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrFetch))
}

func TestSSHSource_ReusesConnection(t *testing.T) {
	runner := sshtest.NewMockRunner("rig")
	runner.SetResponse(Command(""), sshtest.Response{Stdout: []byte(smiOutput)})
	dial, dials := sshtest.Dialer(runner)

	src := NewSSHSource("rig", "", sshutil.Options{}, dial, nil)
	for i := 0; i < 3; i++ {
		report, err := src.Fetch(context.Background())
		require.NoError(t, err)
		assert.True(t, report.HasNvidiaSMI)
		assert.Len(t, report.GPUs, 2)
	}

	assert.Equal(t, 1, *dials)
	assert.Len(t, runner.Calls(), 3)
	assert.Equal(t, "ssh:rig", src.Name())
}

func TestSSHSource_RedialsAfterFailure(t *testing.T) {
	broken := sshtest.NewMockRunner("rig")
	broken.SetResponse(".*", sshtest.Response{Error: stderrors.New("broken pipe")})
	healthy := sshtest.NewMockRunner("rig")
	healthy.SetResponse(".*", sshtest.Response{Stdout: []byte(smiOutput)})
	dial, dials := sshtest.Dialer(broken, healthy)

	src := NewSSHSource("rig", "", sshutil.Options{}, dial, nil)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, broken.Closed())

	report, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.Len(t, report.GPUs, 2)
	assert.Equal(t, 2, *dials)
}

func TestSSHSource_DialFailure(t *testing.T) {
	dial, _ := sshtest.Dialer()
	src := NewSSHSource("rig", "", sshutil.Options{}, dial, nil)

	_, err := src.Fetch(context.Background())
	assert.Error(t, err)
}

func TestSSHSource_NvidiaSMIMissing(t *testing.T) {
	runner := sshtest.NewMockRunner("rig")
	dial, _ := sshtest.Dialer(runner)
	src := NewSSHSource("rig", "", sshutil.Options{}, dial, nil)

	report, err := src.Fetch(context.Background())
	require.NoError(t, err)
	assert.False(t, report.HasNvidiaSMI)
	assert.Empty(t, report.GPUs)
}

func TestSSHSource_NonZeroExit(t *testing.T) {
	runner := sshtest.NewMockRunner("rig")
	runner.SetResponse(".*", sshtest.Response{
		Stderr:   []byte("NVIDIA-SMI has failed because it couldn't communicate with the NVIDIA driver."),
		ExitCode: 9,
	})
	dial, _ := sshtest.Dialer(runner)
	src := NewSSHSource("rig", "", sshutil.Options{}, dial, nil)

	_, err := src.Fetch(context.Background())
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrExec))
	assert.Contains(t, err.Error(), "couldn't communicate")
	assert.False(t, runner.Closed())
}

func TestSSHSource_Close(t *testing.T) {
	runner := sshtest.NewMockRunner("rig")
	runner.SetResponse(".*", sshtest.Response{Stdout: []byte(smiOutput)})
	dial, _ := sshtest.Dialer(runner)
	src := NewSSHSource("rig", "", sshutil.Options{}, dial, nil)

	_, err := src.Fetch(context.Background())
	require.NoError(t, err)
	require.NoError(t, src.Close())
	assert.True(t, runner.Closed())
	require.NoError(t, src.Close())
}
