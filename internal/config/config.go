// Package config loads Engram's on-disk settings: a small YAML file read
// directly (mirroring the teacher's local_config.go split, needed before
// any viper singleton exists) plus an optional TOML file of daemon
// tuning knobs.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig is the subset of <root>/.engram/config.yaml the daemon and
// CLI read directly, bypassing viper: values needed before the CLI's flag
// layer has initialized, or by a daemon process that never touches cobra.
type StoreConfig struct {
	LogLevel        string `yaml:"log-level"`
	FlushIntervalMs int    `yaml:"flush-interval-ms"`
	SocketMode      string `yaml:"socket-mode"`
}

// DefaultStoreConfig returns the settings used when config.yaml is absent.
func DefaultStoreConfig() StoreConfig {
	return StoreConfig{
		LogLevel:        "info",
		FlushIntervalMs: 0, // 0 means every append fsyncs immediately
		SocketMode:      "0600",
	}
}

// LoadStoreConfig reads configPath, returning defaults (not an error) if
// the file does not exist, matching LoadLocalConfig's "missing file is not
// fatal" behavior in the teacher.
func LoadStoreConfig(configPath string) (StoreConfig, error) {
	cfg := DefaultStoreConfig()

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", configPath, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", configPath, err)
	}
	return cfg, nil
}

// FlushInterval returns the configured flush interval, or zero if
// immediate fsync-per-append is configured.
func (c StoreConfig) FlushInterval() time.Duration {
	return time.Duration(c.FlushIntervalMs) * time.Millisecond
}
