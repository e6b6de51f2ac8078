package geom_test

import (
	"testing"

	"github.com/openfst/fstio/geom"
	"github.com/stretchr/testify/require"
)

func TestNewFixedClassifiesWidth(t *testing.T) {
	bit, err := geom.NewFixed(1)
	require.NoError(t, err)
	require.Equal(t, geom.KindFixed1, bit.Kind)

	vec, err := geom.NewFixed(12)
	require.NoError(t, err)
	require.Equal(t, geom.KindFixedN, vec.Kind)
	require.Equal(t, uint32(12), vec.Width)

	_, err = geom.NewFixed(0)
	require.Error(t, err)
}

func TestInfoEntryBoundsAndSentinel(t *testing.T) {
	info := geom.FromRuns([]geom.Run{
		{Count: 2, Entry: geom.Entry{Kind: geom.KindFixed1}},
		{Count: 1, Entry: geom.Real()},
	})
	require.Equal(t, uint32(3), info.MaxHandle())

	_, ok := info.Entry(0)
	require.False(t, ok)

	e, ok := info.Entry(3)
	require.True(t, ok)
	require.Equal(t, geom.KindReal, e.Kind)

	_, ok = info.Entry(4)
	require.False(t, ok)
}
