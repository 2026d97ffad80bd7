package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func blocksEqual(t *testing.T, want []Block, got []Block) {
	t.Helper()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].Start, got[i].Start, "block %d start", i)
		assert.Equal(t, string(want[i].Data), string(got[i].Data), "block %d data", i)
	}
}

func TestWriteCoalescesTouchingBlocks(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AB")))
	require.NoError(t, m.Write(2, []byte("CD")))
	blocksEqual(t, []Block{{0, []byte("ABCD")}}, m.ToBlocks())
}

func TestWriteSplitsOverlap(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AAAAAA")))
	require.NoError(t, m.Write(2, []byte("XX")))
	blocksEqual(t, []Block{{0, []byte("AAXXAA")}}, m.ToBlocks())
}

func TestClearLeavesHole(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("ABCDEF")))
	require.NoError(t, m.Clear(2, 4))
	blocksEqual(t, []Block{{0, []byte("AB")}, {4, []byte("EF")}}, m.ToBlocks())
}

// TestDeleteSequence exercises the literal scenario from spec §8:
// starting from blocks [(1,"ABCD"),(6,"!"),(8,"xyz")],
// delete(4,9) then delete(2,2) then delete(2,3) yields [(1,"A"),(2,"C"),(3,"yz")].
func TestDeleteSequence(t *testing.T) {
	m, err := FromBlocks([]Block{
		{1, []byte("ABCD")},
		{6, []byte("!")},
		{8, []byte("xyz")},
	})
	require.NoError(t, err)

	require.NoError(t, m.Delete(4, 9))
	require.NoError(t, m.Delete(2, 2))
	require.NoError(t, m.Delete(2, 3))

	blocksEqual(t, []Block{{1, []byte("A")}, {2, []byte("C")}, {3, []byte("yz")}}, m.ToBlocks())
}

func TestFillOverwrites(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AAAA")))
	require.NoError(t, m.Fill(1, 3, []byte{0xFF}))
	blocksEqual(t, []Block{{0, []byte{'A', 0xFF, 0xFF, 'A'}}}, m.ToBlocks())
}

func TestFloodOnlyFillsHoles(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AB")))
	require.NoError(t, m.Write(4, []byte("CD")))
	require.NoError(t, m.Flood(0, 6, []byte{0xFF}))
	blocksEqual(t, []Block{{0, []byte{'A', 'B', 0xFF, 0xFF, 'C', 'D'}}}, m.ToBlocks())
}

func TestCropRemovesOutsideRange(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("ABCDEF")))
	require.NoError(t, m.Crop(2, 4))
	blocksEqual(t, []Block{{2, []byte("CD")}}, m.ToBlocks())
}

func TestShiftRoundTrip(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(10, []byte("AB")))
	require.NoError(t, m.Shift(5))
	require.NoError(t, m.Shift(-5))
	blocksEqual(t, []Block{{10, []byte("AB")}}, m.ToBlocks())
}

func TestMergeEmptyIsIdentity(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("ABC")))
	require.NoError(t, m.Merge(New(), false))
	blocksEqual(t, []Block{{0, []byte("ABC")}}, m.ToBlocks())
}

func TestMergeOverwrites(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AAAA")))
	other := New()
	require.NoError(t, other.Write(1, []byte("XX")))
	require.NoError(t, m.Merge(other, false))
	blocksEqual(t, []Block{{0, []byte("AXXA")}}, m.ToBlocks())
}

func TestReadWithFill(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AB")))
	require.NoError(t, m.Write(4, []byte("CD")))
	fill := byte('.')
	out, err := m.Read(0, 6, &fill)
	require.NoError(t, err)
	assert.Equal(t, "AB..CD", string(out))
}

func TestReadHoleWithoutFillFails(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AB")))
	_, err := m.Read(0, 4, nil)
	require.Error(t, err)
	var holeErr *HoleError
	assert.ErrorAs(t, err, &holeErr)
}

func TestViewContiguous(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("ABCDEF")))
	v, err := m.View(1, 4)
	require.NoError(t, err)
	defer v.Release()
	assert.Equal(t, "BCD", string(v.Bytes()))
}

func TestViewNonContiguousFails(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("AB")))
	require.NoError(t, m.Write(4, []byte("CD")))
	_, err := m.View(0, 6)
	require.Error(t, err)
	var nc *NonContiguousError
	assert.ErrorAs(t, err, &nc)
}

func TestClearThenWriteRestoresRegionIffLongEnough(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("ABCDEF")))
	require.NoError(t, m.Clear(2, 4))
	require.NoError(t, m.Write(2, []byte("CD")))
	blocksEqual(t, []Block{{0, []byte("ABCDEF")}}, m.ToBlocks())
}

func TestDeleteShortensAndPreservesSuffix(t *testing.T) {
	m := New()
	require.NoError(t, m.Write(0, []byte("ABCDEFGH")))
	before, _, _ := m.Span()
	_ = before
	require.NoError(t, m.Delete(2, 4))
	blocksEqual(t, []Block{{0, []byte("ABEFGH")}}, m.ToBlocks())
}
