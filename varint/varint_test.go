package varint_test

import (
	"testing"

	"github.com/openfst/fstio/varint"
	"github.com/stretchr/testify/require"
)

func TestUintRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 127, 128, 300, 1 << 20, 1 << 40, ^uint64(0)}
	for _, v := range values {
		buf := varint.AppendUint(nil, v)
		require.Equal(t, varint.SizeUint(v), len(buf))

		got, n, err := varint.DecodeUint(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestIntRoundTripSignAndMagnitude(t *testing.T) {
	values := []int64{0, 1, -1, 63, -64, 1 << 30, -(1 << 30)}
	for _, v := range values {
		buf := varint.AppendInt(nil, v)
		got, n, err := varint.DecodeInt(buf)
		require.NoError(t, err)
		require.Equal(t, len(buf), n)
		require.Equal(t, v, got)
	}
}

func TestDecodeUintTruncated(t *testing.T) {
	_, _, err := varint.DecodeUint([]byte{0x80, 0x80})
	require.Error(t, err)
}

func TestDecodeUintTooLong(t *testing.T) {
	longest := make([]byte, 11)
	for i := range longest {
		longest[i] = 0x80
	}
	_, _, err := varint.DecodeUint(longest)
	require.Error(t, err)
}

func TestCursorReadsSequentially(t *testing.T) {
	var buf []byte
	buf = varint.AppendUint(buf, 42)
	buf = varint.AppendInt(buf, -7)
	buf = append(buf, []byte("payload")...)

	cur := varint.NewCursor(buf)
	u, err := cur.ReadUint()
	require.NoError(t, err)
	require.Equal(t, uint64(42), u)

	s, err := cur.ReadInt()
	require.NoError(t, err)
	require.Equal(t, int64(-7), s)

	rest, err := cur.ReadBytes(len("payload"))
	require.NoError(t, err)
	require.Equal(t, "payload", string(rest))
	require.Equal(t, 0, cur.Len())
}
