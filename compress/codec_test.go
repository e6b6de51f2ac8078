package compress_test

import (
	"testing"

	"github.com/openfst/fstio/compress"
	"github.com/stretchr/testify/require"
)

func allCodecs() []compress.Codec {
	return []compress.Codec{
		compress.NewRawCodec(),
		compress.NewZlibCodec(),
		compress.NewLZ4Codec(),
		compress.NewFastLZCodec(),
		compress.NewS2Codec(),
		compress.NewZstdCodec(),
	}
}

func TestCodecRoundTrip(t *testing.T) {
	payload := []byte("the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated. " +
		"the quick brown fox jumps over the lazy dog, repeated.")

	for _, codec := range allCodecs() {
		t.Run(string(rune(codec.Marker())), func(t *testing.T) {
			compressed, err := codec.Compress(payload)
			require.NoError(t, err)

			got, err := codec.Decompress(compressed, len(payload))
			require.NoError(t, err)
			require.Equal(t, payload, got)
		})
	}
}

func TestCodecEmptyInput(t *testing.T) {
	for _, codec := range allCodecs() {
		compressed, err := codec.Compress(nil)
		require.NoError(t, err)

		got, err := codec.Decompress(compressed, 0)
		require.NoError(t, err)
		require.Empty(t, got)
	}
}

func TestDecompressLengthMismatchDetected(t *testing.T) {
	codec := compress.NewZlibCodec()
	payload := []byte("mismatch check payload")

	compressed, err := codec.Compress(payload)
	require.NoError(t, err)

	_, err = codec.Decompress(compressed, len(payload)-1)
	require.Error(t, err)
}

func TestGetCodecResolvesMarkersAndSynonyms(t *testing.T) {
	for _, marker := range []compress.Marker{
		compress.MarkerRaw, compress.MarkerZlib, compress.MarkerZlibAlt1,
		compress.MarkerZlibAlt2, compress.MarkerFastLZ, compress.MarkerLZ4,
	} {
		codec, err := compress.GetCodec(marker)
		require.NoError(t, err)
		require.NotNil(t, codec)
	}
}

func TestGetCodecUnsupportedMarker(t *testing.T) {
	_, err := compress.GetCodec(compress.Marker('?'))
	require.Error(t, err)
}

func TestCreateCodecNamesTarget(t *testing.T) {
	_, err := compress.CreateCodec(compress.Marker('?'), "chain")
	require.ErrorContains(t, err, "chain")
}
