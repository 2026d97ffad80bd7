package registry_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/registry"
)

func TestLookupKnownFormats(t *testing.T) {
	for _, name := range []string{"ihex", "srec", "tek", "mos", "titxt", "avr", "raw"} {
		codec, err := registry.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, name, codec.Name())
	}
}

func TestLookupUnknownFormat(t *testing.T) {
	_, err := registry.Lookup("nonexistent")
	assert.Error(t, err)
}

func TestGuessFormatByExtension(t *testing.T) {
	cases := map[string]string{
		"firmware.hex":  "ihex",
		"firmware.ihex": "ihex",
		"firmware.mcs":  "ihex",
		"firmware.s19":  "srec",
		"firmware.s28":  "srec",
		"firmware.s37":  "srec",
		"firmware.srec": "srec",
		"firmware.mot":  "srec",
		"firmware.tek":  "tek",
		"firmware.mos":  "mos",
		"firmware.txt":  "titxt",
		"firmware.rom":  "avr",
		"firmware.bin":  "raw",
		"firmware.dat":  "raw",
	}
	for path, want := range cases {
		got, err := registry.GuessFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
}

func TestGuessFormatUnknownExtension(t *testing.T) {
	_, err := registry.GuessFormat("firmware.xyz")
	assert.Error(t, err)
}
