package mos_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/mos"
	"github.com/TexZK/hexrec/hexfile"
)

// TestHelloWorldScenario reproduces spec §8's literal MOS papertape
// example: b"abc" at offset 0x1234.
func TestHelloWorldScenario(t *testing.T) {
	f := hexfile.FromBytes(mos.Codec{}, []byte("abc"), 0x1234, hexfile.DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	want := ";031234616263016F\r\n" + ";0000010001\r\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.")
	offset := uint64(0x4000)

	f := hexfile.FromBytes(mos.Codec{}, data, offset, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(mos.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(offset, offset+uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestEmitXOFF(t *testing.T) {
	f := hexfile.FromBytes(mos.Codec{}, []byte("x"), 0, hexfile.DefaultOptions())
	f.SetMeta(mos.Meta{EmitXOFF: true})

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))
	assert.Equal(t, byte(0x13), buf.Bytes()[buf.Len()-1])
}

func TestValidateDetectsRecordCountMismatch(t *testing.T) {
	r, err := mos.CreateData(0, []byte{1, 2, 3})
	require.NoError(t, err)
	end := mos.CreateEnd(2) // wrong: only one data record precedes it

	records := []hexfile.Record{r, end}
	err = mos.Codec{}.ValidateRecords(records, nil, hexfile.DefaultOptions())
	assert.Error(t, err)
}
