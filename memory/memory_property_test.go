package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// TestShiftRoundTripsProperty checks spec §8 property 4:
// shift(+k) ∘ shift(-k) == id, for arbitrary blocks and shift amounts.
func TestShiftRoundTripsProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Uint64Range(0, 1<<20).Draw(t, "start")
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")
		k := rapid.Int64Range(0, 1<<20).Draw(t, "k")

		m := FromBytes(data, start)
		before := m.ToBlocks()

		require.NoError(t, m.Shift(k))
		require.NoError(t, m.Shift(-k))

		assert.Equal(t, before, m.ToBlocks())
	})
}

// TestMergeWithEmptyIsIdentityProperty checks spec §8 property 4:
// merge with an empty memory is identity.
func TestMergeWithEmptyIsIdentityProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		start := rapid.Uint64Range(0, 1<<16).Draw(t, "start")
		data := rapid.SliceOfN(rapid.Byte(), 1, 64).Draw(t, "data")

		m := FromBytes(data, start)
		before := m.ToBlocks()

		require.NoError(t, m.Merge(New(), false))

		assert.Equal(t, before, m.ToBlocks())
	})
}

// TestDeleteShortensLengthProperty checks spec §8 property 4:
// delete(a,b) leaves len(memory) shortened by b-a and preserves suffix
// content.
func TestDeleteShortensLengthProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		data := rapid.SliceOfN(rapid.Byte(), 4, 128).Draw(t, "data")
		a := rapid.IntRange(0, len(data)-2).Draw(t, "a")
		b := rapid.IntRange(a+1, len(data)-1).Draw(t, "b")

		m := FromBytes(data, 0)
		suffixWant := data[b:]

		require.NoError(t, m.Delete(uint64(a), uint64(b)))

		fill := byte(0)
		endex := uint64(len(data) - (b - a))
		got, err := m.Read(0, endex, &fill)
		require.NoError(t, err)
		assert.Len(t, got, len(data)-(b-a))

		gotSuffix := got[uint64(a):]
		assert.Equal(t, suffixWant, gotSuffix)
	})
}

// TestToBlocksInvariantProperty checks spec §3's structural invariant:
// after any sequence of writes, ToBlocks is sorted, disjoint and
// non-touching.
func TestToBlocksInvariantProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		m := New()
		n := rapid.IntRange(0, 12).Draw(t, "n")
		for i := 0; i < n; i++ {
			addr := rapid.Uint64Range(0, 256).Draw(t, "addr")
			data := rapid.SliceOfN(rapid.Byte(), 1, 16).Draw(t, "data")
			require.NoError(t, m.Write(addr, data))
		}

		blocks := m.ToBlocks()
		for i, b := range blocks {
			require.NotEmpty(t, b.Data)
			if i > 0 {
				require.Greater(t, b.Start, blocks[i-1].Endex())
			}
		}
	})
}
