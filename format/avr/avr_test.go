package avr_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/avr"
	"github.com/TexZK/hexrec/hexfile"
)

// TestHelloWorldScenario reproduces spec §8's literal AVR example:
// writing byte address 0xCA8642, bytes b"\xAB\xCD".
func TestHelloWorldScenario(t *testing.T) {
	r, err := avr.CreateWord(0xCA8642, []byte{0xAB, 0xCD})
	require.NoError(t, err)
	assert.Equal(t, "654321:ABCD\r\n", string(r.Bytes([]byte("\r\n"), true)))
}

func TestRoundTrip(t *testing.T) {
	data := []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	offset := uint64(0x1000)

	f := hexfile.FromBytes(avr.Codec{}, data, offset, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(avr.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(offset, offset+uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUpdateRecordsRejectsOddSizedBlock(t *testing.T) {
	f := hexfile.FromBytes(avr.Codec{}, []byte{1, 2, 3}, 0, hexfile.DefaultOptions())
	_, err := f.Records()
	assert.Error(t, err)
}

func TestUpdateRecordsRejectsUnalignedBlock(t *testing.T) {
	f := hexfile.FromBytes(avr.Codec{}, []byte{1, 2}, 1, hexfile.DefaultOptions())
	_, err := f.Records()
	assert.Error(t, err)
}
