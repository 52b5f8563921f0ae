package cli

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rileyhilliard/trainq/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubOverwrite(t *testing.T, interactive, answer bool) {
	t.Helper()
	origConfirm, origInteractive := confirmOverwriteFunc, interactiveFunc
	confirmOverwriteFunc = func(string) (bool, error) { return answer, nil }
	interactiveFunc = func() bool { return interactive }
	t.Cleanup(func() {
		confirmOverwriteFunc = origConfirm
		interactiveFunc = origInteractive
	})
}

func TestInit_WritesConfigWithFlags(t *testing.T) {
	dir := t.TempDir()
	stubOverwrite(t, false, false)

	out, err := runCLI(t, "init", "--dir", dir,
		"--backend", "http://gpu-box:8675", "--source", "ssh", "--ssh-host", "gpu-box", "--interval", "2s")
	require.NoError(t, err)

	path := filepath.Join(dir, config.ConfigFileName)
	assert.Contains(t, out, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://gpu-box:8675", cfg.Backend.URL)
	assert.Equal(t, config.SourceSSH, cfg.Telemetry.Source)
	assert.Equal(t, "gpu-box", cfg.Telemetry.SSHHost)
	assert.Equal(t, 2*time.Second, cfg.Telemetry.Interval)
}

func TestInit_InvalidFlagsWriteNothing(t *testing.T) {
	dir := t.TempDir()
	stubOverwrite(t, false, false)

	_, err := runCLI(t, "init", "--dir", dir, "--source", "ssh")
	require.Error(t, err)

	_, statErr := os.Stat(filepath.Join(dir, config.ConfigFileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInit_ExistingFile(t *testing.T) {
	tests := []struct {
		name        string
		interactive bool
		answer      bool
		args        []string
		wantErr     bool
		wantOut     string
		replaced    bool
	}{
		{name: "non-interactive refuses", wantErr: true},
		{name: "force replaces", args: []string{"--force"}, replaced: true},
		{name: "confirmed replaces", interactive: true, answer: true, replaced: true},
		{name: "declined keeps", interactive: true, answer: false, wantOut: "Cancelled."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := filepath.Join(dir, config.ConfigFileName)
			require.NoError(t, os.WriteFile(path, []byte("# mine\n"), 0644))
			stubOverwrite(t, tt.interactive, tt.answer)

			args := append([]string{"init", "--dir", dir}, tt.args...)
			out, err := runCLI(t, args...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "already exists")
			} else {
				require.NoError(t, err)
			}
			if tt.wantOut != "" {
				assert.Contains(t, out, tt.wantOut)
			}

			data, err := os.ReadFile(path)
			require.NoError(t, err)
			if tt.replaced {
				assert.NotEqual(t, "# mine\n", string(data))
			} else {
				assert.Equal(t, "# mine\n", string(data))
			}
		})
	}
}
