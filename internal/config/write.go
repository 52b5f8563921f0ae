package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rileyhilliard/trainq/internal/errors"
	"gopkg.in/yaml.v3"
)

const fileHeader = `# trainq configuration
# Search order: --config, ./.trainq.yaml, parent directories, ~/.config/trainq/config.yaml
# Any key can be overridden from the environment, e.g. TRAINQ_BACKEND_URL.
`

// fileConfig is Config as written to disk: durations as "5s" strings
// rather than nanosecond integers.
type fileConfig struct {
	Version int `yaml:"version"`
	Backend struct {
		URL        string `yaml:"url"`
		Timeout    string `yaml:"timeout"`
		RetryCount int    `yaml:"retry_count"`
	} `yaml:"backend"`
	Telemetry struct {
		Source                string `yaml:"source"`
		Interval              string `yaml:"interval"`
		SSHHost               string `yaml:"ssh_host"`
		InsecureIgnoreHostKey bool   `yaml:"insecure_ignore_host_key,omitempty"`
		NvidiaSMI             string `yaml:"nvidia_smi"`
	} `yaml:"telemetry"`
	Jobs struct {
		Interval   string `yaml:"interval"`
		ActiveOnly bool   `yaml:"active_only"`
	} `yaml:"jobs"`
	History  HistoryConfig  `yaml:"history"`
	Exporter ExporterConfig `yaml:"exporter"`
}

func toFile(cfg *Config) fileConfig {
	var f fileConfig
	f.Version = cfg.Version
	f.Backend.URL = cfg.Backend.URL
	f.Backend.Timeout = cfg.Backend.Timeout.String()
	f.Backend.RetryCount = cfg.Backend.RetryCount
	f.Telemetry.Source = cfg.Telemetry.Source
	f.Telemetry.Interval = cfg.Telemetry.Interval.String()
	f.Telemetry.SSHHost = cfg.Telemetry.SSHHost
	f.Telemetry.InsecureIgnoreHostKey = cfg.Telemetry.InsecureIgnoreHostKey
	f.Telemetry.NvidiaSMI = cfg.Telemetry.NvidiaSMI
	f.Jobs.Interval = cfg.Jobs.Interval.String()
	f.Jobs.ActiveOnly = cfg.Jobs.ActiveOnly
	f.History = cfg.History
	f.Exporter = cfg.Exporter
	return f
}

// Marshal renders cfg as YAML with a short header.
func Marshal(cfg *Config) ([]byte, error) {
	var node yaml.Node
	if err := node.Encode(toFile(cfg)); err != nil {
		return nil, err
	}
	annotate(&node)

	body, err := yaml.Marshal(&node)
	if err != nil {
		return nil, err
	}
	return append([]byte(fileHeader), body...), nil
}

// annotate attaches comments to the keys people most often edit.
func annotate(root *yaml.Node) {
	comments := map[string]string{
		"backend":   "Training scheduler HTTP API",
		"telemetry": "source: api | local | ssh (ssh needs ssh_host)",
		"jobs":      "active_only hides completed/failed/stopped jobs",
		"history":   "samples kept per GPU for the trend graph",
		"exporter":  "Prometheus /metrics endpoint for 'trainq watch'",
	}
	if root.Kind != yaml.MappingNode {
		return
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		if c, ok := comments[root.Content[i].Value]; ok {
			root.Content[i].HeadComment = c
		}
	}
}

// Write saves cfg to path. An existing file is only replaced when force is set.
func Write(path string, cfg *Config, force bool) error {
	if !force && fileExists(path) {
		return errors.New(errors.ErrConfig,
			fmt.Sprintf("%s already exists", path),
			"Use --force to overwrite it.")
	}

	data, err := Marshal(cfg)
	if err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig, "Couldn't encode config", "This is a bug; please report it.")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't create config directory",
			"Check directory permissions")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.WrapWithCode(err, errors.ErrConfig,
			"Couldn't write "+path,
			"Check file permissions")
	}
	return nil
}
