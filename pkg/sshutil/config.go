package sshutil

import (
	"bytes"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/kevinburke/ssh_config"
)

// Settings are the connection parameters resolved for a host string.
type Settings struct {
	Hostname     string
	Port         string
	User         string
	IdentityFile string
}

// Address returns the host:port string for dialing.
func (s Settings) Address() string {
	return net.JoinHostPort(s.Hostname, s.Port)
}

// matchWarningOnce keeps the Match directive warning to one per process.
var matchWarningOnce sync.Once

// WarningHandler receives non-fatal configuration warnings. Nil discards them.
var WarningHandler func(message string)

// Resolve parses a host string and fills in anything ~/.ssh/config knows
// about it. The host can be an alias, a hostname, user@hostname or
// hostname:port. An explicit user or port in the string wins over the file.
func Resolve(host, configPath string) Settings {
	s := Settings{Port: "22", User: currentUser()}

	explicitUser, explicitPort := false, false
	if at := strings.Index(host, "@"); at != -1 {
		s.User = host[:at]
		host = host[at+1:]
		explicitUser = true
	}
	if colon := strings.LastIndex(host, ":"); colon != -1 && isDigits(host[colon+1:]) {
		s.Port = host[colon+1:]
		host = host[:colon]
		explicitPort = true
	}
	s.Hostname = host

	if configPath == "" {
		configPath = filepath.Join(homeDir(), ".ssh", "config")
	}
	content, matchLine, err := readConfigBeforeMatch(configPath)
	if err != nil {
		return s
	}
	// ssh_config can't parse Match blocks, so only the part above the first
	// one is decoded.
	cfg, err := ssh_config.Decode(bytes.NewReader(content))
	if err != nil {
		return s
	}

	found := false
	if v, _ := cfg.Get(host, "HostName"); v != "" {
		s.Hostname = v
		found = true
	}
	if v, _ := cfg.Get(host, "Port"); v != "" && !explicitPort {
		s.Port = v
		found = true
	}
	if v, _ := cfg.Get(host, "User"); v != "" && !explicitUser {
		s.User = v
		found = true
	}
	if v, _ := cfg.Get(host, "IdentityFile"); v != "" {
		s.IdentityFile = expandPath(v)
		found = true
	}

	if matchLine > 0 && !found && WarningHandler != nil {
		matchWarningOnce.Do(func() {
			WarningHandler(fmt.Sprintf(
				"host '%s' not found in SSH config; entries after the Match block at line %d are ignored",
				host, matchLine))
		})
	}
	return s
}

// readConfigBeforeMatch returns the config content above the first Match
// directive and the 1-based line of that directive (0 when there is none).
func readConfigBeforeMatch(path string) ([]byte, int, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, 0, err
	}

	lines := strings.Split(string(content), "\n")
	for i, line := range lines {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(line)), "match ") {
			return []byte(strings.Join(lines[:i], "\n")), i + 1, nil
		}
	}
	return content, 0, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return os.Getenv("HOME")
	}
	return home
}

func currentUser() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "root"
}

func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir(), path[2:])
	}
	return path
}
