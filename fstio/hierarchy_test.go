package fstio_test

import (
	"testing"

	"github.com/openfst/fstio/fstio"
	"github.com/stretchr/testify/require"
)

func buildTestHierarchy(t *testing.T) fstio.Hierarchy {
	t.Helper()
	var h fstio.Hierarchy
	h.BeginScope(0 /* VcdModule */, "top", "")
	h1 := h.AddVar(16 /* VcdWire */, 0 /* Implicit */, "clk", 1)
	h2 := h.AddVar(16, 0, "data", 8)
	h.AddVarAlias(16, 0, "data_alias", 8, h2)
	require.NoError(t, h.EndScope())
	_ = h1

	return h
}

func TestHierarchyPlainRoundTrip(t *testing.T) {
	h := buildTestHierarchy(t)
	payload, err := fstio.EncodeHierarchy(h, fstio.HierarchyPlain)
	require.NoError(t, err)

	got, err := fstio.DecodeHierarchy(fstio.HierarchyPlain, payload)
	require.NoError(t, err)
	require.Equal(t, h.Scopes, got.Scopes)
	require.Equal(t, h.Vars, got.Vars)
	require.Equal(t, uint32(2), got.Handles())
}

func TestHierarchyLZ4RoundTrip(t *testing.T) {
	h := buildTestHierarchy(t)
	payload, err := fstio.EncodeHierarchy(h, fstio.HierarchyLZ4)
	require.NoError(t, err)

	got, err := fstio.DecodeHierarchy(fstio.HierarchyLZ4, payload)
	require.NoError(t, err)
	require.Equal(t, h.Vars, got.Vars)
}

func TestHierarchyLZ4DuoRoundTrip(t *testing.T) {
	h := buildTestHierarchy(t)
	payload, err := fstio.EncodeHierarchy(h, fstio.HierarchyLZ4Duo)
	require.NoError(t, err)

	got, err := fstio.DecodeHierarchy(fstio.HierarchyLZ4Duo, payload)
	require.NoError(t, err)
	require.Equal(t, h.Vars, got.Vars)
	require.Equal(t, h.Scopes, got.Scopes)
}

func TestHierarchyRejectsUnmatchedUpscope(t *testing.T) {
	var h fstio.Hierarchy
	err := h.EndScope()
	require.Error(t, err)
}
