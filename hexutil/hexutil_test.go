package hexutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChopNoAlign(t *testing.T) {
	chunks := Chop([]byte("ABCDEFGHI"), 4, nil)
	require.Len(t, chunks, 3)
	assert.Equal(t, "ABCD", string(chunks[0]))
	assert.Equal(t, "EFGH", string(chunks[1]))
	assert.Equal(t, "I", string(chunks[2]))
}

func TestChopAligned(t *testing.T) {
	off := 2
	chunks := Chop([]byte("ABCDEFGH"), 4, &off)
	require.Len(t, chunks, 3)
	assert.Equal(t, "AB", string(chunks[0])) // shortened first chunk
	assert.Equal(t, "CDEF", string(chunks[1]))
	assert.Equal(t, "GH", string(chunks[2]))
}

func TestHexlifyUpperLower(t *testing.T) {
	assert.Equal(t, "48656C6C6F", string(Hexlify([]byte("Hello"), nil, true)))
	assert.Equal(t, "48656c6c6f", string(Hexlify([]byte("Hello"), nil, false)))
	assert.Equal(t, "48:65:6c:6c:6f", string(Hexlify([]byte("Hello"), []byte(":"), false)))
}

func TestUnhexlifyRoundTrip(t *testing.T) {
	data := []byte("Hello, World!")
	enc := Hexlify(data, nil, true)
	dec, err := Unhexlify(enc, false)
	require.NoError(t, err)
	assert.Equal(t, data, dec)
}

func TestUnhexlifyStripsWhitespace(t *testing.T) {
	dec, err := Unhexlify([]byte("48 65\r\n6C 6C 6F"), true)
	require.NoError(t, err)
	assert.Equal(t, []byte("Hello"), dec)
}

func TestUnhexlifyOddLength(t *testing.T) {
	_, err := Unhexlify([]byte("ABC"), false)
	assert.Error(t, err)
}

func TestParseIntNil(t *testing.T) {
	n, ok, err := ParseInt(nil)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Zero(t, n)
}

func TestParseIntVariants(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"123", 123},
		{"-123", -123},
		{"0x1A", 0x1A},
		{"1Ah", 0x1A},
		{"0b101", 5},
		{"0o17", 15},
		{"017", 15},
		{"2k", 2048},
		{"2Ki", 2048},
		{"2KB", 2000},
		{"1M", 1 << 20},
		{"1G", 1 << 30},
	}
	for _, c := range cases {
		s := c.in
		n, ok, err := ParseInt(&s)
		require.NoError(t, err, c.in)
		assert.True(t, ok)
		assert.Equal(t, c.want, n, c.in)
	}
}

func TestParseIntInvalid(t *testing.T) {
	s := "not-a-number"
	_, _, err := ParseInt(&s)
	assert.Error(t, err)
}

func TestParseIntRejectsMixedBinaryAndHexSuffix(t *testing.T) {
	s := "0b1h"
	_, _, err := ParseInt(&s)
	assert.Error(t, err)
}
