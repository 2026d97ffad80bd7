package hexfile_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TexZK/hexrec/format/ihex"
	"github.com/TexZK/hexrec/format/srec"
	"github.com/TexZK/hexrec/hexfile"
)

func TestStateTransitions(t *testing.T) {
	f := hexfile.NewFile(ihex.Codec{}, hexfile.DefaultOptions())
	assert.Equal(t, hexfile.StateNeither, f.State())

	require.NoError(t, f.Write(0, []byte("hi")))
	assert.Equal(t, hexfile.StateMemoryOnly, f.State())

	_, err := f.Records()
	require.NoError(t, err)
	assert.Equal(t, hexfile.StateBoth, f.State())

	f.DiscardMemory()
	assert.Equal(t, hexfile.StateRecordsOnly, f.State())

	_, err = f.Memory()
	require.NoError(t, err)
	assert.Equal(t, hexfile.StateBoth, f.State())

	f.DiscardRecords()
	assert.Equal(t, hexfile.StateMemoryOnly, f.State())
}

func TestEditInvalidatesRecords(t *testing.T) {
	f := hexfile.FromBytes(ihex.Codec{}, []byte("Hello"), 0, hexfile.DefaultOptions())
	_, err := f.Records()
	require.NoError(t, err)
	assert.Equal(t, hexfile.StateBoth, f.State())

	require.NoError(t, f.Write(5, []byte("!")))
	assert.Equal(t, hexfile.StateMemoryOnly, f.State(), "a memory mutation must drop the stale records side")
}

func TestConvertIsIdentityOnMemory(t *testing.T) {
	data := []byte("The quick brown fox")
	offset := uint64(0x100)
	src := hexfile.FromBytes(ihex.Codec{}, data, offset, hexfile.DefaultOptions())

	dst, err := hexfile.Convert(src, srec.Codec{})
	require.NoError(t, err)
	assert.Equal(t, "srec", dst.Codec().Name())

	srcMem, err := src.Memory()
	require.NoError(t, err)
	dstMem, err := dst.Memory()
	require.NoError(t, err)
	assert.Equal(t, srcMem.ToBlocks(), dstMem.ToBlocks())

	var buf bytes.Buffer
	require.NoError(t, dst.Serialize(&buf))
	assert.Contains(t, buf.String(), "S1")
}

func TestMergeFilesLaterOverwritesEarlier(t *testing.T) {
	a := hexfile.FromBytes(ihex.Codec{}, []byte("AAAA"), 0, hexfile.DefaultOptions())
	b := hexfile.FromBytes(ihex.Codec{}, []byte("BB"), 1, hexfile.DefaultOptions())

	merged, err := hexfile.MergeFiles(a, b)
	require.NoError(t, err)

	mem, err := merged.Memory()
	require.NoError(t, err)
	fill := byte(0)
	got, err := mem.Read(0, 4, &fill)
	require.NoError(t, err)
	assert.Equal(t, []byte("ABBA"), got)
}

func TestMergeWithClearOverwritesFullSpan(t *testing.T) {
	a := hexfile.FromBytes(ihex.Codec{}, []byte("AAAAAA"), 0, hexfile.DefaultOptions())
	b := hexfile.FromBytes(ihex.Codec{}, []byte("BB"), 1, hexfile.DefaultOptions())

	require.NoError(t, a.Merge(b, true))

	mem, err := a.Memory()
	require.NoError(t, err)
	blocks := mem.ToBlocks()
	require.Len(t, blocks, 1)
	assert.Equal(t, uint64(0), blocks[0].Start)
	assert.Equal(t, []byte("ABBAAA"), blocks[0].Data)
}

func TestSerializeParseRoundTrip(t *testing.T) {
	f := hexfile.FromBytes(ihex.Codec{}, []byte("Hello, World!"), 0x1234, hexfile.DefaultOptions())
	var buf bytes.Buffer
	require.NoError(t, f.Serialize(&buf))

	parsed, err := hexfile.Parse(ihex.Codec{}, bytes.NewReader(buf.Bytes()), hexfile.DefaultOptions())
	require.NoError(t, err)

	mem, err := parsed.Memory()
	require.NoError(t, err)
	fill := byte(0)
	got, err := mem.Read(0x1234, 0x1234+13, &fill)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello, World!"), got)
}

func TestViewReleaseBeforeMutation(t *testing.T) {
	f := hexfile.FromBytes(ihex.Codec{}, []byte("abc"), 0, hexfile.DefaultOptions())
	view, err := f.View(0, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), view.Bytes())
	view.Release()

	require.NoError(t, f.Write(0, []byte("xyz")))
	mem, err := f.Memory()
	require.NoError(t, err)
	fill := byte(0)
	got, err := mem.Read(0, 3, &fill)
	require.NoError(t, err)
	assert.Equal(t, []byte("xyz"), got)
}

func TestMergeFilesRequiresAtLeastOneFile(t *testing.T) {
	_, err := hexfile.MergeFiles()
	assert.Error(t, err)
}
