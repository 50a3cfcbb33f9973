// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Convert ConvertConfig `toml:"convert"`
	History HistoryConfig `toml:"history"`
}

// ConvertConfig maps conversion settings. Nil fields are unset.
type ConvertConfig struct {
	DataDir       *string `toml:"data-dir"`
	Input         *string `toml:"input"`
	Out           *string `toml:"out"`
	Format        *string `toml:"format"`
	Pretty        *bool   `toml:"pretty"`
	Verbose       *bool   `toml:"verbose"`
	SkipUnchanged *bool   `toml:"skip-unchanged"`
	NoHistory     *bool   `toml:"no-history"`
}

// HistoryConfig maps history listing settings.
type HistoryConfig struct {
	Last  *int  `toml:"last"`
	Plain *bool `toml:"plain"`
}

// Template is written by `appdef config` when no file exists yet.
const Template = `# appdef configuration

[convert]
# data-dir = "data"
# input = "appdef.xml"
# out = "src/config.js"
# format = "js"
# pretty = false
# verbose = false
# skip-unchanged = false
# no-history = false

[history]
# last = 20
# plain = false
`

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// EnsureConfigFile writes Template to path unless a file already exists.
func EnsureConfigFile(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(Template), 0o644); err != nil {
		return false, fmt.Errorf("failed to write config: %w", err)
	}
	return true, nil
}
