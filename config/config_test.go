package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "crlf", cfg.Output.LineEnding)
	assert.True(t, cfg.Output.UpperCaseHex)
	assert.Equal(t, 0, cfg.Output.MaxDataLen)
	assert.False(t, cfg.IntelHex.AlwaysEmitInitialELA)
	assert.False(t, cfg.Mos.EmitXOFF)
	assert.Equal(t, uint64(64*1024*1024), cfg.Memory.SizeGuardBytes)
}

func TestLoadFromMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := DefaultConfig()
	cfg.Output.LineEnding = "lf"
	cfg.Output.UpperCaseHex = false
	cfg.IntelHex.AlwaysEmitInitialELA = true

	require.NoError(t, cfg.SaveTo(path))

	if _, err := os.Stat(path); err != nil {
		t.Fatalf("expected config file to exist: %v", err)
	}

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
