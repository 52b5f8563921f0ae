package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSONSuccess(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSONSuccess(&buf, map[string]int{"gpus": 2}))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.True(t, env.Success)
	assert.Nil(t, env.Error)

	data, ok := env.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(2), data["gpus"])
}

func TestWriteJSONFromError(t *testing.T) {
	var buf bytes.Buffer
	err := errors.New(errors.ErrConfig, "Unknown telemetry.source 'x'", "Use api, local or ssh.")
	require.NoError(t, WriteJSONFromError(&buf, err))

	var env JSONEnvelope
	require.NoError(t, json.Unmarshal(buf.Bytes(), &env))
	assert.False(t, env.Success)
	assert.Nil(t, env.Data)
	require.NotNil(t, env.Error)
	assert.Equal(t, ErrCodeConfigInvalid, env.Error.Code)
	assert.Equal(t, "Unknown telemetry.source 'x'", env.Error.Message)
	assert.Equal(t, "Use api, local or ssh.", env.Error.Suggestion)
}

func TestErrorToJSON(t *testing.T) {
	cause := fmt.Errorf("dial tcp 10.0.0.5:8675: connect: connection refused\nmore detail")

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantMsg  string
	}{
		{"fetch", errors.WrapWithCode(cause, errors.ErrFetch, "Couldn't load jobs", ""), ErrCodeBackendFailed,
			"Couldn't load jobs: dial tcp 10.0.0.5:8675: connect: connection refused"},
		{"command", errors.New(errors.ErrCommand, "Backend refused to stop queue for GPU 1", ""), ErrCodeCommandFailed,
			"Backend refused to stop queue for GPU 1"},
		{"ssh", errors.New(errors.ErrSSH, "Couldn't connect to gpu-box", ""), ErrCodeSSHFailed, "Couldn't connect to gpu-box"},
		{"nvidia-smi", errors.New(errors.ErrExec, "nvidia-smi failed", ""), ErrCodeNvidiaSMIError, "nvidia-smi failed"},
		{"wrapped", fmt.Errorf("outer: %w", errors.New(errors.ErrConfig, "bad interval", "")), ErrCodeConfigInvalid, "bad interval"},
		{"plain", fmt.Errorf("boom"), ErrCodeUnknown, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := ErrorToJSON(tt.err)
			require.NotNil(t, j)
			assert.Equal(t, tt.wantCode, j.Code)
			assert.Equal(t, tt.wantMsg, j.Message)
		})
	}

	assert.Nil(t, ErrorToJSON(nil))
}
