package ihex_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/ihex"
	"github.com/TexZK/hexrec/hexfile"
)

// TestHelloWorldScenario reproduces spec §8's literal Intel HEX example.
func TestHelloWorldScenario(t *testing.T) {
	f := hexfile.FromBytes(ihex.Codec{}, []byte("Hello, World!"), 0x1234, hexfile.DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	want := ":0D12340048656C6C6F2C20576F726C642144\r\n:00000001FF\r\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.")
	offset := uint64(0x8000)

	f := hexfile.FromBytes(ihex.Codec{}, data, offset, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(ihex.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(offset, offset+uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func Test64KiBBoundaryCrossing(t *testing.T) {
	data := make([]byte, 32)
	for i := range data {
		data[i] = byte(i)
	}
	offset := uint64(0xFFF0) // crosses the 0x10000 boundary partway through

	f := hexfile.FromBytes(ihex.Codec{}, data, offset, hexfile.DefaultOptions())
	records, err := f.Records()
	require.NoError(t, err)

	var dataRecords []*ihex.Record
	for _, rg := range records {
		r := rg.(*ihex.Record)
		if r.Tag == ihex.TagData {
			dataRecords = append(dataRecords, r)
		}
	}
	for _, r := range dataRecords {
		endAddr := r.Address + uint64(len(r.Data))
		assert.Equal(t, r.Address>>16, (endAddr-1)>>16, "a single data record must not straddle a 64 KiB boundary")
	}
}

func TestValidateDetectsChecksumMismatch(t *testing.T) {
	r, err := ihex.CreateData(0, []byte{1, 2, 3})
	require.NoError(t, err)
	r.Checksum = new(int)
	*r.Checksum = r.ComputeChecksum() + 1
	err = r.Validate(true, true)
	assert.Error(t, err)
}

func TestStartLinearAddressTermination(t *testing.T) {
	f := hexfile.FromBytes(ihex.Codec{}, []byte("x"), 0, hexfile.DefaultOptions())
	start := uint32(0x1000)
	f.SetMeta(ihex.Meta{StartLinearAddress: &start})

	records, err := f.Records()
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 3)

	last := records[len(records)-1].(*ihex.Record)
	assert.Equal(t, ihex.TagEOF, last.Tag)

	startRec := records[len(records)-2].(*ihex.Record)
	assert.Equal(t, ihex.TagStartLinearAddress, startRec.Tag)
}
