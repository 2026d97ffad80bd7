// Package config loads and saves hexrec's CLI-wide defaults, adapted from
// the teacher's TOML-backed configuration package: a platform-specific
// config path, a defaulted struct, and Load/Save helpers.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"github.com/BurntSushi/toml"
)

// Config carries CLI-wide defaults for hexrec's record-format codecs.
type Config struct {
	// Output settings applied when a command emits a textual record file.
	Output struct {
		LineEnding   string `toml:"line_ending"` // "crlf", "lf", or "cr"
		UpperCaseHex bool   `toml:"upper_case_hex"`
		MaxDataLen   int    `toml:"max_data_len"` // per-record data byte cap, 0 = format default
	} `toml:"output"`

	// IntelHex holds Intel HEX specific emission policy.
	IntelHex struct {
		AlwaysEmitInitialELA bool `toml:"always_emit_initial_ela"`
		PreferSegment        bool `toml:"prefer_segment_addressing"` // ESA over ELA when both fit
	} `toml:"intel_hex"`

	// Mos holds MOS papertape specific emission policy.
	Mos struct {
		EmitXOFF bool `toml:"emit_xoff"`
	} `toml:"mos"`

	// Memory holds sparse-memory operational limits.
	Memory struct {
		SizeGuardBytes uint64 `toml:"size_guard_bytes"` // 0 disables the guard
	} `toml:"memory"`
}

// DefaultConfig returns a Config populated with hexrec's built-in
// defaults.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Output.LineEnding = "crlf"
	cfg.Output.UpperCaseHex = true
	cfg.Output.MaxDataLen = 0

	cfg.IntelHex.AlwaysEmitInitialELA = false
	cfg.IntelHex.PreferSegment = false

	cfg.Mos.EmitXOFF = false

	cfg.Memory.SizeGuardBytes = 64 * 1024 * 1024

	return cfg
}

// GetConfigPath returns the platform-specific config file path.
func GetConfigPath() string {
	var configDir string

	switch runtime.GOOS {
	case "windows":
		configDir = os.Getenv("APPDATA")
		if configDir == "" {
			configDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		configDir = filepath.Join(configDir, "hexrec")

	case "darwin", "linux":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.toml"
		}
		configDir = filepath.Join(homeDir, ".config", "hexrec")

	default:
		return "config.toml"
	}

	if err := os.MkdirAll(configDir, 0750); err != nil {
		return "config.toml"
	}

	return filepath.Join(configDir, "config.toml")
}

// Load loads configuration from the default config file, falling back to
// DefaultConfig if no file exists.
func Load() (*Config, error) {
	return LoadFrom(GetConfigPath())
}

// LoadFrom loads configuration from the specified file.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse config file: %w", err)
	}

	return cfg, nil
}

// Save saves configuration to the default config file.
func (c *Config) Save() error {
	return c.SaveTo(GetConfigPath())
}

// SaveTo saves configuration to the specified file.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("config: failed to create config directory: %w", err)
	}

	f, err := os.Create(path) // #nosec G304 -- user config file path
	if err != nil {
		return fmt.Errorf("config: failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("config: failed to encode config: %w", err)
	}

	return nil
}
