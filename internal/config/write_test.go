package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshal(t *testing.T) {
	data, err := Marshal(DefaultConfig())
	require.NoError(t, err)

	out := string(data)
	assert.Contains(t, out, "# trainq configuration")
	assert.Contains(t, out, "interval: 1s")
	assert.Contains(t, out, "interval: 5s")
	assert.Contains(t, out, "timeout: 10s")
	assert.Contains(t, out, "# source: api | local | ssh")
	assert.NotContains(t, out, "insecure_ignore_host_key")
}

func TestWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", ".trainq.yaml")
	cfg := DefaultConfig()
	cfg.Backend.URL = "http://rig:8675"
	cfg.Telemetry.Source = SourceSSH
	cfg.Telemetry.SSHHost = "rig"
	cfg.Jobs.Interval = 3 * time.Second
	cfg.Exporter.Enabled = true

	require.NoError(t, Write(path, cfg, false))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestWrite_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".trainq.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep me"), 0644))

	err := Write(path, DefaultConfig(), false)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrConfig))

	data, _ := os.ReadFile(path)
	assert.Equal(t, "keep me", string(data))

	require.NoError(t, Write(path, DefaultConfig(), true))
	data, _ = os.ReadFile(path)
	assert.Contains(t, string(data), "backend:")
}
