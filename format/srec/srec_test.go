package srec_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/srec"
	"github.com/TexZK/hexrec/hexfile"
)

// TestHelloWorldScenario reproduces spec §8's literal S-Record example.
func TestHelloWorldScenario(t *testing.T) {
	f := hexfile.FromBytes(srec.Codec{}, []byte("Hello, World!"), 0x1234, hexfile.DefaultOptions())

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	want := "S110123448656C6C6F2C20576F726C642140\r\n" +
		"S9031234B6\r\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.")
	offset := uint64(0x8000)

	f := hexfile.FromBytes(srec.Codec{}, data, offset, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(srec.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(offset, offset+uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestDataWidthEscalatesWithAddress(t *testing.T) {
	data := []byte{1, 2, 3, 4}
	offset := uint64(0x1000000) // beyond the 24-bit S2 field, needs S3

	f := hexfile.FromBytes(srec.Codec{}, data, offset, hexfile.DefaultOptions())
	records, err := f.Records()
	require.NoError(t, err)

	var sawData32, sawTerm32 bool
	for _, rg := range records {
		r := rg.(*srec.Record)
		if r.Tag == srec.TagData32 {
			sawData32 = true
		}
		if r.Tag == srec.TagTerminator32 {
			sawTerm32 = true
		}
	}
	assert.True(t, sawData32)
	assert.True(t, sawTerm32)
}

func TestValidateRejectsMixedDataWidths(t *testing.T) {
	r1, err := srec.CreateData(srec.TagData16, 0, []byte{1})
	require.NoError(t, err)
	r2, err := srec.CreateData(srec.TagData24, 0x10000, []byte{2})
	require.NoError(t, err)
	term, err := srec.CreateTerminator(srec.TagData16, 0)
	require.NoError(t, err)

	records := []hexfile.Record{r1, r2, term}
	err = srec.Codec{}.ValidateRecords(records, nil, hexfile.DefaultOptions())
	assert.Error(t, err)
}

func TestValidateDetectsChecksumMismatch(t *testing.T) {
	r, err := srec.CreateData(srec.TagData16, 0, []byte{1, 2, 3})
	require.NoError(t, err)
	r.Checksum = new(int)
	*r.Checksum = r.ComputeChecksum() + 1
	err = r.Validate(true, true)
	assert.Error(t, err)
}

func TestHeaderOmittedByDefault(t *testing.T) {
	f := hexfile.FromBytes(srec.Codec{}, []byte("x"), 0, hexfile.DefaultOptions())
	records, err := f.Records()
	require.NoError(t, err)
	for _, rg := range records {
		assert.NotEqual(t, srec.TagHeader, rg.(*srec.Record).Tag)
	}
}
