package frame_test

import (
	"math"
	"testing"

	"github.com/openfst/fstio/frame"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
	"github.com/stretchr/testify/require"
)

func testGeom() geom.Info {
	return geom.FromRuns([]geom.Run{
		{Count: 1, Entry: geom.Entry{Kind: geom.KindFixed1}},
		{Count: 1, Entry: geom.Entry{Kind: geom.KindFixedN, Width: 4}},
		{Count: 1, Entry: geom.Real()},
		{Count: 1, Entry: geom.Variable()},
	})
}

func TestNewStateDefaults(t *testing.T) {
	s := frame.NewState(testGeom())

	v, ok, err := s.Value(1)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, byte('x'), v.Bit)

	v, ok, err = s.Value(2)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "xxxx", v.Text)

	v, ok, err = s.Value(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.True(t, math.IsNaN(v.Real))

	_, ok, err = s.Value(4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUpdateAndCloneFrom(t *testing.T) {
	s := frame.NewState(testGeom())

	require.NoError(t, s.Update(1, signal.NewBit('1')))
	v, _, err := s.Value(1)
	require.NoError(t, err)
	require.Equal(t, byte('1'), v.Bit)

	require.NoError(t, s.Update(2, signal.NewVector("0101")))
	v, _, err = s.Value(2)
	require.NoError(t, err)
	require.Equal(t, "0101", v.Text)

	require.NoError(t, s.Update(3, signal.NewReal(3.5)))
	v, _, err = s.Value(3)
	require.NoError(t, err)
	require.Equal(t, 3.5, v.Real)
}

func TestUpdatePackedBitsUnpacksToAscii(t *testing.T) {
	s := frame.NewState(testGeom())

	// width 4, bits 1010 packed MSB-first into the high nibble of one byte.
	require.NoError(t, s.Update(2, signal.NewPackedBits(4, []byte{0b1010_0000})))
	v, _, err := s.Value(2)
	require.NoError(t, err)
	require.Equal(t, "1010", v.Text)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	s := frame.NewState(testGeom())
	require.NoError(t, s.Update(2, signal.NewVector("1111")))

	enc, err := frame.Encode(s, true)
	require.NoError(t, err)

	decoded, err := frame.Decode(enc.Data, enc.UncompressedLen, enc.Compressed)
	require.NoError(t, err)
	require.Equal(t, s.Bytes(), decoded)
}
