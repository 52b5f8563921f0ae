package logger

import (
	"bytes"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// capture redirects env loggers into a buffer for the test.
func capture(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	Redirect(&buf)
	t.Cleanup(func() { Redirect(os.Stderr) })
	return &buf
}

func TestEnvLogger_DebugGatedOnEnv(t *testing.T) {
	buf := capture(t)

	t.Setenv(DebugEnv, "")
	NewEnvLogger("[jobs]").Debug("fetch ok (version %d)", 3)
	assert.Empty(t, buf.String())

	t.Setenv(DebugEnv, "1")
	NewEnvLogger("[jobs]").Debug("fetch ok (version %d)", 4)
	assert.Contains(t, buf.String(), "[jobs] fetch ok (version 4)")
}

func TestEnvLogger_Levels(t *testing.T) {
	buf := capture(t)
	l := NewEnvLogger("[telemetry]")

	l.Info("polling every %s", "1s")
	l.Warn("fetch failed: %s", "connection refused")
	l.Error("giving up on %s", "gpu-box")

	out := buf.String()
	assert.Contains(t, out, "[telemetry] polling every 1s")
	assert.Contains(t, out, "[telemetry] WARN: fetch failed: connection refused")
	assert.Contains(t, out, "[telemetry] ERROR: giving up on gpu-box")
}

func TestNoop(t *testing.T) {
	buf := capture(t)
	t.Setenv(DebugEnv, "1")

	l := Noop()
	l.Debug("x")
	l.Info("x")
	l.Warn("x")
	l.Error("x")
	assert.Empty(t, buf.String())
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()
	l.Warn("fetch failed: %s", "HTTP 500")
	l.Info("recovered after %d failed fetches", 2)

	entries := l.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, LogMessage{Level: "warn", Message: "fetch failed: HTTP 500"}, entries[0])
	assert.Equal(t, "recovered after 2 failed fetches", entries[1].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("error"))

	l.Clear()
	assert.Empty(t, l.Entries())
	assert.False(t, l.HasLevel("warn"))
}

func TestBufferLogger_ConcurrentFetchGoroutines(t *testing.T) {
	l := NewBufferLogger()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				l.Debug("%s", fmt.Sprintf("poller %d tick %d", n, j))
			}
		}(i)
	}
	wg.Wait()

	assert.Len(t, l.Entries(), 400)
}
