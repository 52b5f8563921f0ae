package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rileyhilliard/trainq/internal/errors"
	"github.com/spf13/viper"
)

const (
	// ConfigFileName is the default config file name.
	ConfigFileName = ".trainq.yaml"
	// GlobalConfigDir is the directory for global config.
	GlobalConfigDir = ".config/trainq"
	// GlobalConfigFile is the global config file name.
	GlobalConfigFile = "config.yaml"
	// EnvPrefix namespaces environment overrides, e.g. TRAINQ_BACKEND_URL.
	EnvPrefix = "TRAINQ"
)

// Load reads config from the specified path.
func Load(path string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.WrapWithCode(err, errors.ErrConfig,
				"Config file not found",
				"Run 'trainq init' to create a config file, or specify one with --config")
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Failed to read config file",
			"Check the file exists and is valid YAML")
	}

	return parseConfig(v, path)
}

// Find locates the config file using the search order:
// 1. Explicit path (from --config flag)
// 2. .trainq.yaml in current directory
// 3. .trainq.yaml in parent directories (stops at git root or home)
// 4. ~/.config/trainq/config.yaml (global defaults)
//
// Returns the path to the config file, or empty string if not found.
func Find(explicit string) (string, error) {
	if explicit != "" {
		explicit = ExpandTilde(explicit)
		if _, err := os.Stat(explicit); err != nil {
			if os.IsNotExist(err) {
				return "", errors.WrapWithCode(err, errors.ErrConfig,
					"Specified config file not found: "+explicit,
					"Check the path is correct")
			}
			return "", errors.WrapWithCode(err, errors.ErrConfig,
				"Cannot access config file: "+explicit,
				"Check file permissions")
		}
		return explicit, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", errors.WrapWithCode(err, errors.ErrConfig,
			"Cannot determine current directory",
			"Check directory permissions")
	}

	if local := filepath.Join(cwd, ConfigFileName); fileExists(local) {
		return local, nil
	}

	home, _ := os.UserHomeDir()
	dir := cwd
	for {
		if fileExists(filepath.Join(dir, ".git")) {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir || (home != "" && parent == home) {
			break
		}
		dir = parent

		if candidate := filepath.Join(dir, ConfigFileName); fileExists(candidate) {
			return candidate, nil
		}
	}

	if home != "" {
		if global := filepath.Join(home, GlobalConfigDir, GlobalConfigFile); fileExists(global) {
			return global, nil
		}
	}

	return "", nil
}

// LoadOrDefault loads the config found by Find(explicit), or the defaults
// (with environment overrides) when there is none.
func LoadOrDefault(explicit string) (*Config, string, error) {
	path, err := Find(explicit)
	if err != nil {
		return nil, "", err
	}

	if path == "" {
		cfg, err := parseConfig(newViper(), "")
		return cfg, "", err
	}

	cfg, err := Load(path)
	return cfg, path, err
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)
	return v
}

// parseConfig converts viper config to our Config struct with defaults merged in.
func parseConfig(v *viper.Viper, path string) (*Config, error) {
	cfg := DefaultConfig()

	if err := v.Unmarshal(cfg); err != nil {
		where := "your config"
		if path != "" {
			where = path
		}
		return nil, errors.WrapWithCode(err, errors.ErrConfig,
			"Invalid config format",
			"Check the YAML syntax in "+where)
	}

	cfg.Backend.URL = strings.TrimRight(cfg.Backend.URL, "/")
	return cfg, nil
}

// setDefaults registers every key so environment variables can override
// keys that the file doesn't mention.
func setDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("version", d.Version)
	v.SetDefault("backend.url", d.Backend.URL)
	v.SetDefault("backend.timeout", d.Backend.Timeout.String())
	v.SetDefault("backend.retry_count", d.Backend.RetryCount)
	v.SetDefault("telemetry.source", d.Telemetry.Source)
	v.SetDefault("telemetry.interval", d.Telemetry.Interval.String())
	v.SetDefault("telemetry.ssh_host", d.Telemetry.SSHHost)
	v.SetDefault("telemetry.insecure_ignore_host_key", false)
	v.SetDefault("telemetry.nvidia_smi", d.Telemetry.NvidiaSMI)
	v.SetDefault("jobs.interval", d.Jobs.Interval.String())
	v.SetDefault("jobs.active_only", d.Jobs.ActiveOnly)
	v.SetDefault("history.size", d.History.Size)
	v.SetDefault("exporter.enabled", d.Exporter.Enabled)
	v.SetDefault("exporter.listen", d.Exporter.Listen)
}

// ExpandTilde replaces a leading ~ or ~/ with the user's home directory.
func ExpandTilde(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
