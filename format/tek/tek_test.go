package tek_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/tek"
	"github.com/TexZK/hexrec/hexfile"
)

// TestHelloWorldScenario reproduces spec §8's literal Tektronix example:
// data b"abc" at 0x1234 with default addrlen=8, and a start-0xABCD
// terminator.
func TestHelloWorldScenario(t *testing.T) {
	r, err := tek.CreateData(0x1234, []byte("abc"), tek.DefaultAddressLen)
	require.NoError(t, err)
	assert.Equal(t, "%14635800001234616263\r\n", string(r.Bytes([]byte("\r\n"), true)))

	term, err := tek.CreateEOF(0xABCD, tek.DefaultAddressLen)
	require.NoError(t, err)
	assert.Equal(t, "%0E84C80000ABCD\r\n", string(term.Bytes([]byte("\r\n"), true)))
}

func TestRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.")
	offset := uint64(0x8000)

	f := hexfile.FromBytes(tek.Codec{}, data, offset, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(tek.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(offset, offset+uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestValidateDetectsChecksumMismatch(t *testing.T) {
	r, err := tek.CreateData(0x1234, []byte("abc"), tek.DefaultAddressLen)
	require.NoError(t, err)
	r.Checksum = new(int)
	*r.Checksum = r.ComputeChecksum() + 1
	err = r.Validate(true, true)
	assert.Error(t, err)
}

func TestParseRejectsOutOfRangeAddressLen(t *testing.T) {
	_, err := tek.Parse([]byte("%0660C0"), true)
	assert.Error(t, err)
}
