package raw_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/raw"
	"github.com/TexZK/hexrec/hexfile"
)

func TestRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.")

	f := hexfile.FromBytes(raw.Codec{}, data, 0, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))
	assert.Equal(t, data, buf.Bytes())

	parsed, err := hexfile.Parse(raw.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)
	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(0, uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestUpdateRecordsRejectsDisjointMemory(t *testing.T) {
	f := hexfile.FromBytes(raw.Codec{}, []byte("a"), 0, hexfile.DefaultOptions())
	require.NoError(t, f.Write(10, []byte("b")))

	_, err := f.Records()
	assert.Error(t, err)
}

func TestValidateRecordsRejectsNonZeroAddress(t *testing.T) {
	rec := raw.CreateData(0x10, []byte("x"))
	err := raw.Codec{}.ValidateRecords([]hexfile.Record{rec}, raw.Meta{}, hexfile.DefaultOptions())
	assert.Error(t, err)
}
