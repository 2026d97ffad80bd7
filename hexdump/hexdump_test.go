package hexdump_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/hexdump"
)

func TestDumpBasicLine(t *testing.T) {
	var buf bytes.Buffer
	err := hexdump.Dump(&buf, []byte("Hello, World!"), hexdump.Options{Upper: true})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "00000000:")
	assert.Contains(t, buf.String(), "Hello, World!")
}

func TestDumpNonPrintableBecomesDot(t *testing.T) {
	var buf bytes.Buffer
	err := hexdump.Dump(&buf, []byte{0x00, 0x01, 0xFF}, hexdump.Options{})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "...")
}

func TestDumpRespectsBaseAddress(t *testing.T) {
	var buf bytes.Buffer
	err := hexdump.Dump(&buf, []byte("x"), hexdump.Options{BaseAddress: 0x1000})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "00001000:")
}
