package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// DaemonTuning is the optional <root>/.engram/daemon.toml advanced
// configuration: settings most operators never touch, given their own
// strictly-typed file rather than crowding config.yaml.
type DaemonTuning struct {
	FlushIntervalMs   int `toml:"flush_interval_ms"`
	MaxConnections    int `toml:"max_connections"`
	SlowQueryMs       int `toml:"slow_query_ms"`
}

// DefaultDaemonTuning returns the settings used when daemon.toml is absent.
func DefaultDaemonTuning() DaemonTuning {
	return DaemonTuning{
		FlushIntervalMs: 0,
		MaxConnections:  64,
		SlowQueryMs:     250,
	}
}

// LoadDaemonTuning reads tuningPath, returning defaults if the file does
// not exist.
func LoadDaemonTuning(tuningPath string) (DaemonTuning, error) {
	tuning := DefaultDaemonTuning()

	if _, err := os.Stat(tuningPath); err != nil {
		if os.IsNotExist(err) {
			return tuning, nil
		}
		return tuning, fmt.Errorf("config: stat %s: %w", tuningPath, err)
	}
	if _, err := toml.DecodeFile(tuningPath, &tuning); err != nil {
		return tuning, fmt.Errorf("config: parse %s: %w", tuningPath, err)
	}
	return tuning, nil
}

func (t DaemonTuning) SlowQueryThreshold() time.Duration {
	return time.Duration(t.SlowQueryMs) * time.Millisecond
}
