// Package config handles lox.toml, an optional per-directory file
// controlling the CLI driver's debug behavior.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the contents of a lox.toml file.
type Config struct {
	Debug DebugConfig `toml:"debug"`
}

// DebugConfig controls VM instrumentation. Trace enables the
// per-instruction dispatch log.
type DebugConfig struct {
	Trace bool `toml:"trace"`
}

// Load reads lox.toml from dir. A missing file is not an error: it
// returns a zero-value Config with tracing disabled.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, "lox.toml")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	if err := toml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	return &c, nil
}
