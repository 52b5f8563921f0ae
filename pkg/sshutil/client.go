// Package sshutil dials SSH hosts the way the ssh command line would
// (~/.ssh/config aliases, the agent, default keys, known_hosts) and runs
// one-shot commands on them.
package sshutil

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rileyhilliard/trainq/internal/errors"
	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"
	"golang.org/x/crypto/ssh/knownhosts"
)

// Options tune how a host is dialed.
type Options struct {
	Timeout time.Duration
	// InsecureIgnoreHostKey skips known_hosts verification.
	InsecureIgnoreHostKey bool
	// ConfigPath and KnownHostsPath default to the files under ~/.ssh.
	ConfigPath     string
	KnownHostsPath string
}

// Client is a live SSH connection.
type Client struct {
	conn    *ssh.Client
	host    string
	address string
}

var _ Runner = (*Client)(nil)

// Dial resolves host and opens a connection to it.
func Dial(host string, opts Options) (Runner, error) {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	settings := Resolve(host, opts.ConfigPath)

	config, err := clientConfig(settings, opts)
	if err != nil {
		var tqErr *errors.Error
		if stderrors.As(err, &tqErr) {
			return nil, err
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Couldn't set up SSH for '%s'", host),
			"Check your keys are loaded: ssh-add -l")
	}

	address := settings.Address()
	conn, err := net.DialTimeout("tcp", address, opts.Timeout)
	if err != nil {
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("Can't reach '%s' at %s", host, address),
			suggestionForDialError(err))
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, config)
	if err != nil {
		conn.Close()

		var mismatch *HostKeyMismatchError
		if stderrors.As(err, &mismatch) {
			return nil, errors.New(errors.ErrSSH, mismatch.Error(), mismatch.Suggestion())
		}
		return nil, errors.WrapWithCode(err, errors.ErrSSH,
			fmt.Sprintf("SSH handshake with '%s' didn't go through", host),
			suggestionForHandshakeError(err))
	}

	return &Client{
		conn:    ssh.NewClient(sshConn, chans, reqs),
		host:    host,
		address: address,
	}, nil
}

// Host returns the host string the client was dialed with.
func (c *Client) Host() string {
	return c.host
}

// Address returns the resolved host:port.
func (c *Client) Address() string {
	return c.address
}

// Close closes the connection.
func (c *Client) Close() error {
	if c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Run executes cmd in a fresh session and captures its output. Canceling
// ctx closes the session, which unblocks the command.
func (c *Client) Run(ctx context.Context, cmd string) (Result, error) {
	session, err := c.conn.NewSession()
	if err != nil {
		return Result{ExitCode: -1}, errors.WrapWithCode(err, errors.ErrSSH,
			"Failed to create SSH session",
			"Connection may have been closed. It will be re-established on the next attempt.")
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		session.Close()
		return Result{ExitCode: -1}, ctx.Err()
	case err = <-done:
	}

	res := Result{Stdout: stdout.Bytes(), Stderr: stderr.Bytes()}
	if err != nil {
		var exitErr *ssh.ExitError
		if stderrors.As(err, &exitErr) {
			res.ExitCode = exitErr.ExitStatus()
			return res, nil
		}
		res.ExitCode = -1
		return res, errors.WrapWithCode(err, errors.ErrExec,
			fmt.Sprintf("Failed to execute command on %s: %s", c.host, cmd),
			"Check the command exists on the remote host.")
	}
	return res, nil
}

func clientConfig(s Settings, opts Options) (*ssh.ClientConfig, error) {
	var methods []ssh.AuthMethod
	var encrypted []string

	if auth := agentAuth(); auth != nil {
		methods = append(methods, auth)
	}

	keys := []string{s.IdentityFile,
		filepath.Join(homeDir(), ".ssh", "id_ed25519"),
		filepath.Join(homeDir(), ".ssh", "id_rsa"),
		filepath.Join(homeDir(), ".ssh", "id_ecdsa"),
	}
	seen := map[string]bool{}
	for _, path := range keys {
		if path == "" || seen[path] {
			continue
		}
		seen[path] = true

		auth, err := keyFileAuth(path)
		if err != nil {
			var encErr *EncryptedKeyError
			if stderrors.As(err, &encErr) {
				encrypted = append(encrypted, path)
			}
			continue
		}
		methods = append(methods, auth)
	}

	if len(methods) == 0 {
		if len(encrypted) > 0 {
			return nil, errors.New(errors.ErrSSH,
				fmt.Sprintf("Found SSH key(s) but they're encrypted: %s", strings.Join(encrypted, ", ")),
				"Add them to the agent: ssh-add <key>")
		}
		return nil, errors.New(errors.ErrSSH,
			"No SSH auth methods available",
			"Check your keys are loaded: ssh-add -l")
	}

	callback := ssh.InsecureIgnoreHostKey() //nolint:gosec // opted out in config
	if !opts.InsecureIgnoreHostKey {
		path := opts.KnownHostsPath
		if path == "" {
			path = filepath.Join(homeDir(), ".ssh", "known_hosts")
		}
		var err error
		callback, err = hostKeyCallback(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load known_hosts: %w", err)
		}
	}

	return &ssh.ClientConfig{
		User:            s.User,
		Auth:            methods,
		HostKeyCallback: callback,
		Timeout:         opts.Timeout,
	}, nil
}

var (
	agentOnce   sync.Once
	agentClient agent.ExtendedAgent
)

// agentAuth returns agent-backed auth when SSH_AUTH_SOCK points at an agent
// holding at least one key. The agent connection is shared process-wide.
func agentAuth() ssh.AuthMethod {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil
	}

	agentOnce.Do(func() {
		conn, err := net.Dial("unix", socket)
		if err != nil {
			return
		}
		agentClient = agent.NewClient(conn)
	})
	if agentClient == nil {
		return nil
	}

	// An empty agent placed first makes servers reject the other methods.
	signers, err := agentClient.Signers()
	if err != nil || len(signers) == 0 {
		return nil
	}
	return ssh.PublicKeysCallback(agentClient.Signers)
}

func keyFileAuth(path string) (ssh.AuthMethod, error) {
	key, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	signer, err := ssh.ParsePrivateKey(key)
	if err != nil {
		var missing *ssh.PassphraseMissingError
		if stderrors.As(err, &missing) || bytes.Contains(key, []byte("ENCRYPTED")) {
			return nil, &EncryptedKeyError{Path: path}
		}
		return nil, err
	}
	return ssh.PublicKeys(signer), nil
}

// hostKeyCallback verifies against known_hosts, creating an empty file if
// none exists, and turns key mismatches into HostKeyMismatchError.
func hostKeyCallback(path string) (ssh.HostKeyCallback, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			return nil, err
		}
		if err := os.WriteFile(path, nil, 0600); err != nil {
			return nil, err
		}
	}

	check, err := knownhosts.New(path)
	if err != nil {
		return nil, err
	}

	return func(hostname string, remote net.Addr, key ssh.PublicKey) error {
		err := check(hostname, remote, key)
		var keyErr *knownhosts.KeyError
		if err != nil && stderrors.As(err, &keyErr) && len(keyErr.Want) > 0 {
			return &HostKeyMismatchError{
				Hostname:     hostname,
				ReceivedType: key.Type(),
				KnownHosts:   path,
			}
		}
		return err
	}, nil
}

func suggestionForDialError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "connection refused"):
		return "Is SSH running on that box? Try: ssh <host>"
	case strings.Contains(msg, "no route to host"), strings.Contains(msg, "network is unreachable"):
		return "Can't route to the host. Check your network connection."
	case strings.Contains(msg, "timeout"):
		return "Connection timed out. Host might be offline or blocked by a firewall."
	}
	return "Make sure the host is reachable: ping <host>"
}

func suggestionForHandshakeError(err error) string {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "unable to authenticate"), strings.Contains(msg, "no supported methods"):
		return "Auth failed. Check your keys are loaded: ssh-add -l"
	case strings.Contains(msg, "host key"):
		return "Host key issue. Try connecting manually first: ssh <host>"
	}
	return "Something went wrong during SSH setup. Try: ssh <host>"
}

// EncryptedKeyError is returned for a key that needs a passphrase.
type EncryptedKeyError struct {
	Path string
}

func (e *EncryptedKeyError) Error() string {
	return fmt.Sprintf("SSH key at %s is encrypted (passphrase protected)", e.Path)
}

// HostKeyMismatchError is returned when the server key contradicts known_hosts.
type HostKeyMismatchError struct {
	Hostname     string
	ReceivedType string
	KnownHosts   string
}

func (e *HostKeyMismatchError) Error() string {
	return fmt.Sprintf("host key mismatch for %s: server sent %s key", e.Hostname, e.ReceivedType)
}

// Suggestion tells the user how to reconcile known_hosts.
func (e *HostKeyMismatchError) Suggestion() string {
	host := e.Hostname
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return fmt.Sprintf("If the host was reinstalled, remove the old entry:\n    ssh-keygen -R %s\n  (known_hosts: %s)",
		host, e.KnownHosts)
}
