// Package testing provides an in-memory sshutil.Runner for tests.
package testing

import (
	"context"
	"errors"
	"regexp"
	"sync"

	"github.com/rileyhilliard/trainq/pkg/sshutil"
)

// Response is a canned reply for a command pattern.
type Response struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
	Error    error
}

// MockRunner answers commands from canned responses. Patterns are tried as
// exact matches first, then as regular expressions.
type MockRunner struct {
	mu        sync.Mutex
	host      string
	responses map[string]Response
	calls     []string
	closed    bool
}

var _ sshutil.Runner = (*MockRunner)(nil)

// NewMockRunner creates a runner for host with no responses configured.
func NewMockRunner(host string) *MockRunner {
	return &MockRunner{host: host, responses: make(map[string]Response)}
}

// SetResponse registers the reply for a command or pattern.
func (m *MockRunner) SetResponse(pattern string, resp Response) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[pattern] = resp
}

// Run implements sshutil.Runner. Unknown commands exit 127.
func (m *MockRunner) Run(ctx context.Context, cmd string) (sshutil.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, cmd)
	if m.closed {
		return sshutil.Result{ExitCode: -1}, errors.New("connection closed")
	}
	if err := ctx.Err(); err != nil {
		return sshutil.Result{ExitCode: -1}, err
	}

	resp, ok := m.responses[cmd]
	if !ok {
		for pattern, r := range m.responses {
			if matched, _ := regexp.MatchString(pattern, cmd); matched {
				resp, ok = r, true
				break
			}
		}
	}
	if !ok {
		return sshutil.Result{Stderr: []byte("command not found"), ExitCode: 127}, nil
	}
	if resp.Error != nil {
		return sshutil.Result{ExitCode: -1}, resp.Error
	}
	return sshutil.Result{Stdout: resp.Stdout, Stderr: resp.Stderr, ExitCode: resp.ExitCode}, nil
}

// Close implements sshutil.Runner.
func (m *MockRunner) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Host implements sshutil.Runner.
func (m *MockRunner) Host() string {
	return m.host
}

// Calls returns the commands run so far.
func (m *MockRunner) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Closed reports whether Close was called.
func (m *MockRunner) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Dialer returns a sshutil.DialFunc that hands out runners from next in
// order, and counts how often it was called.
func Dialer(next ...sshutil.Runner) (sshutil.DialFunc, *int) {
	var mu sync.Mutex
	count := 0
	return func(host string, _ sshutil.Options) (sshutil.Runner, error) {
		mu.Lock()
		defer mu.Unlock()
		if count >= len(next) {
			count++
			return nil, errors.New("no more runners")
		}
		r := next[count]
		count++
		return r, nil
	}, &count
}
