package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/rileyhilliard/trainq/pkg/sshutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockRunner(t *testing.T) {
	m := NewMockRunner("rig")
	m.SetResponse("uptime", Response{Stdout: []byte("up 3 days")})
	m.SetResponse("^nvidia-smi .*", Response{Stdout: []byte("0, A100")})
	m.SetResponse("boom", Response{Error: errors.New("broken pipe")})

	res, err := m.Run(context.Background(), "uptime")
	require.NoError(t, err)
	assert.Equal(t, "up 3 days", string(res.Stdout))

	res, err = m.Run(context.Background(), "nvidia-smi --query-gpu=index")
	require.NoError(t, err)
	assert.Equal(t, "0, A100", string(res.Stdout))

	res, err = m.Run(context.Background(), "missing")
	require.NoError(t, err)
	assert.Equal(t, 127, res.ExitCode)

	_, err = m.Run(context.Background(), "boom")
	assert.Error(t, err)

	assert.Len(t, m.Calls(), 4)
	assert.Equal(t, "rig", m.Host())

	require.NoError(t, m.Close())
	assert.True(t, m.Closed())
	_, err = m.Run(context.Background(), "uptime")
	assert.Error(t, err)
}

func TestDialer(t *testing.T) {
	a, b := NewMockRunner("a"), NewMockRunner("b")
	dial, count := Dialer(a, b)

	r, err := dial("x", sshutil.Options{})
	require.NoError(t, err)
	assert.Same(t, a, r)

	r, err = dial("x", sshutil.Options{})
	require.NoError(t, err)
	assert.Same(t, b, r)

	_, err = dial("x", sshutil.Options{})
	assert.Error(t, err)
	assert.Equal(t, 3, *count)
}
