package fstio_test

import (
	"testing"

	"github.com/openfst/fstio/fstio"
	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := fstio.Header{
		StartTime:         0,
		EndTime:           1_000_000,
		MemoryUsed:        4096,
		ScopeCount:        2,
		VarCount:          5,
		MaxHandle:         5,
		VcSectionCount:    1,
		TimescaleExponent: -9,
		Version:           "fstio",
		Date:              "Thu Jul 30 00:00:00 2026",
		FileType:          0,
		TimeZero:          0,
	}

	data := h.Bytes()
	got, err := fstio.ParseHeader(data)
	require.NoError(t, err)
	require.Equal(t, h.StartTime, got.StartTime)
	require.Equal(t, h.EndTime, got.EndTime)
	require.Equal(t, h.MaxHandle, got.MaxHandle)
	require.Equal(t, h.Version, got.Version)
	require.Equal(t, h.Date, got.Date)
	require.InDelta(t, 1e-9, got.TimescaleFactor(), 1e-15)
}

func TestParseHeaderRejectsShortData(t *testing.T) {
	_, err := fstio.ParseHeader(make([]byte, 10))
	require.Error(t, err)
}

func TestParseHeaderRejectsBadEndianTest(t *testing.T) {
	h := fstio.Header{Version: "x", Date: "y"}
	data := h.Bytes()
	// corrupt the endian_test field (bytes 24:32, after section_length and
	// start/end time).
	for i := 24; i < 32; i++ {
		data[i] = 0xFF
	}
	_, err := fstio.ParseHeader(data)
	require.Error(t, err)
}
