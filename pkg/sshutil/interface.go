package sshutil

import "context"

// Result is the captured outcome of a remote command.
type Result struct {
	Stdout   []byte
	Stderr   []byte
	ExitCode int
}

// Runner executes commands on one remote host. The real Client and test
// fakes both satisfy it.
//
// A non-zero exit code is reported in Result with a nil error; the error is
// reserved for commands that could not be run at all (dead connection,
// canceled context).
type Runner interface {
	Run(ctx context.Context, cmd string) (Result, error)
	Close() error
	Host() string
}

// DialFunc opens a Runner for a host. Dial is the production implementation.
type DialFunc func(host string, opts Options) (Runner, error)
