package titxt_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/titxt"
	"github.com/TexZK/hexrec/hexfile"
	"github.com/TexZK/hexrec/memory"
)

// TestHelloWorldScenario reproduces spec §8's literal TI-TXT example:
// blocks [(0,"abc"),(0x1234,"xyz")].
func TestHelloWorldScenario(t *testing.T) {
	blocks := []memory.Block{
		{Start: 0, Data: []byte("abc")},
		{Start: 0x1234, Data: []byte("xyz")},
	}
	f, err := hexfile.FromBlocks(titxt.Codec{}, blocks, hexfile.DefaultOptions())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	want := "61 62 63\r\n@1234\r\n78 79 7A\r\nq\r\n"
	assert.Equal(t, want, buf.String())
}

func TestRoundTrip(t *testing.T) {
	data := []byte("The quick brown fox jumps over the lazy dog.")
	offset := uint64(0x2000)

	f := hexfile.FromBytes(titxt.Codec{}, data, offset, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(titxt.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)

	fill := byte(0)
	got, err := mem.Read(offset, offset+uint64(len(data)), &fill)
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func TestValidateRequiresTerminator(t *testing.T) {
	records := []hexfile.Record{titxt.CreateData(0, []byte{1, 2, 3})}
	err := titxt.Codec{}.ValidateRecords(records, nil, hexfile.DefaultOptions())
	assert.Error(t, err)
}
