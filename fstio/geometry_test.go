package fstio_test

import (
	"testing"

	"github.com/openfst/fstio/fstio"
	"github.com/openfst/fstio/geom"
	"github.com/stretchr/testify/require"
)

func testGeomInfo(t *testing.T) geom.Info {
	t.Helper()
	fixed1, err := geom.NewFixed(1)
	require.NoError(t, err)
	fixed8, err := geom.NewFixed(8)
	require.NoError(t, err)

	return geom.Info{Entries: []geom.Entry{fixed1, fixed8, geom.Real(), geom.Variable()}}
}

func TestGeometryRoundTripUncompressed(t *testing.T) {
	info := testGeomInfo(t)
	enc, err := fstio.EncodeGeometry(info, false)
	require.NoError(t, err)

	got, err := fstio.DecodeGeometry(enc.Bytes())
	require.NoError(t, err)
	require.Equal(t, info, got)
}

func TestGeometryRoundTripCompressed(t *testing.T) {
	// a long run of identical entries compresses well enough that zlib
	// should win over raw storage.
	entries := make([]geom.Entry, 256)
	fixed8, err := geom.NewFixed(8)
	require.NoError(t, err)
	for i := range entries {
		entries[i] = fixed8
	}
	info := geom.Info{Entries: entries}

	enc, err := fstio.EncodeGeometry(info, true)
	require.NoError(t, err)
	require.Less(t, len(enc.Data), len(entries))

	got, err := fstio.DecodeGeometry(enc.Bytes())
	require.NoError(t, err)
	require.Equal(t, info, got)
}

func TestDecodeGeometryRejectsTrailingData(t *testing.T) {
	info := testGeomInfo(t)
	enc, err := fstio.EncodeGeometry(info, false)
	require.NoError(t, err)

	// splice an extra varint entry into the raw data without declaring it
	// in max_handle, so the decoder stops one entry short of the body's end.
	enc.Data = append(enc.Data, 0x01)
	enc.UncompressedLen++
	enc.SectionLength++

	_, err = fstio.DecodeGeometry(enc.Bytes())
	require.Error(t, err)
}
