package fst_test

import (
	"bytes"
	"testing"

	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/fst"
	"github.com/openfst/fstio/fstio"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
	"github.com/stretchr/testify/require"
)

func buildFile(t *testing.T, opts ...fst.WriterOption) []byte {
	t.Helper()
	var out bytes.Buffer
	w, err := fst.NewWriter(&out, opts...)
	require.NoError(t, err)

	fixed1, err := geom.NewFixed(1)
	require.NoError(t, err)
	fixed8, err := geom.NewFixed(8)
	require.NoError(t, err)

	w.BeginScope(0, "top", "")
	clk := w.DeclareVar(fixed1, 16, 0, "clk")
	data := w.DeclareVar(fixed8, 16, 0, "data")
	require.NoError(t, w.DeclareAlias(16, 0, "data_alias", data))
	require.NoError(t, w.EndScope())

	w.AddBlackout(false, 0)
	w.AddBlackout(true, 50)

	require.NoError(t, w.AppendChange(clk, 0, signal.NewBit('0')))
	require.NoError(t, w.AppendChange(clk, 10, signal.NewBit('1')))
	require.NoError(t, w.AppendChange(clk, 20, signal.NewBit('0')))
	require.NoError(t, w.AppendChange(data, 0, signal.NewVector("00000000")))
	require.NoError(t, w.AppendChange(data, 20, signal.NewVector("11111111")))

	require.NoError(t, w.Close())

	return out.Bytes()
}

func TestWriterReaderRoundTrip(t *testing.T) {
	raw := buildFile(t)

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	require.Equal(t, uint64(3), r.File.Header.VarCount)
	require.Equal(t, uint64(2), r.File.Header.MaxHandle)
	require.Len(t, r.File.Blackout.Events, 2)
	require.Len(t, r.File.Blocks, 1)
	require.Equal(t, 2, len(r.File.Geometry.Entries))

	it, err := r.NewIterator(r.File.Blocks[0])
	require.NoError(t, err)

	var changes []struct {
		Handle uint32
		Kind   signal.Kind
	}
	for {
		c, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		changes = append(changes, struct {
			Handle uint32
			Kind   signal.Kind
		}{c.Handle, c.Value.Kind})
	}
	require.NotEmpty(t, changes)
}

func TestWriterReaderRoundTripUncompressed(t *testing.T) {
	raw := buildFile(t,
		fst.WithBlockCompression(false),
		fst.WithFrameCompression(false),
		fst.WithChainCompression(compress.MarkerRaw),
		fst.WithTimeCompression(compress.MarkerRaw),
	)

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Equal(t, uint64(2), r.File.Header.MaxHandle)
}

func TestWithChainIndexVersionRejectsV2(t *testing.T) {
	var out bytes.Buffer
	_, err := fst.NewWriter(&out, fst.WithChainIndexVersion(fst.ChainIndexV2))
	require.Error(t, err)
}

func TestWriterHeaderMetadataOptions(t *testing.T) {
	raw := buildFile(t,
		fst.WithVersionString("fstio-test 1.0"),
		fst.WithDateString("Thu Jan  1 00:00:00 1970"),
		fst.WithTimescaleExponent(-12),
		fst.WithFileType(1),
		fst.WithHierarchyEncoding(fstio.HierarchyLZ4Duo),
	)

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.Equal(t, "fstio-test 1.0", r.File.Header.Version)
	require.Equal(t, "Thu Jan  1 00:00:00 1970", r.File.Header.Date)
	require.Equal(t, int8(-12), r.File.Header.TimescaleExponent)
	require.Equal(t, uint8(1), r.File.Header.FileType)
}

func TestDecodeAllChains(t *testing.T) {
	raw := buildFile(t, fst.WithWorkerCount(4))

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	chains, err := r.DecodeAllChains(r.File.Blocks[0])
	require.NoError(t, err)
	require.Contains(t, chains, uint32(1))
	require.Contains(t, chains, uint32(2))
}

func TestHierarchyAliasSharesHandle(t *testing.T) {
	raw := buildFile(t)

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	var aliasVar, canonicalVar *uint32
	for i := range r.File.Hierarchy.Vars {
		v := r.File.Hierarchy.Vars[i]
		if v.Name == "data_alias" {
			h := v.Handle
			aliasVar = &h
		}
		if v.Name == "data" {
			h := v.Handle
			canonicalVar = &h
		}
	}
	require.NotNil(t, aliasVar)
	require.NotNil(t, canonicalVar)
	require.Equal(t, *canonicalVar, *aliasVar)
}

func TestAppendChangeRejectsHandleOutOfRange(t *testing.T) {
	var out bytes.Buffer
	w, err := fst.NewWriter(&out)
	require.NoError(t, err)

	err = w.AppendChange(1, 0, signal.NewBit('0'))
	require.ErrorIs(t, err, errs.ErrHandleOutOfRange)
}

func TestAppendChangeRejectsGeometryMismatch(t *testing.T) {
	var out bytes.Buffer
	w, err := fst.NewWriter(&out)
	require.NoError(t, err)

	fixed1, err := geom.NewFixed(1)
	require.NoError(t, err)
	clk := w.DeclareVar(fixed1, 16, 0, "clk")

	err = w.AppendChange(clk, 0, signal.NewVector("00000000"))
	require.ErrorIs(t, err, errs.ErrValueGeometryMismatch)
}

func TestAppendChangeRejectsNonMonotonicTime(t *testing.T) {
	var out bytes.Buffer
	w, err := fst.NewWriter(&out)
	require.NoError(t, err)

	fixed1, err := geom.NewFixed(1)
	require.NoError(t, err)
	clk := w.DeclareVar(fixed1, 16, 0, "clk")

	require.NoError(t, w.AppendChange(clk, 10, signal.NewBit('1')))
	err = w.AppendChange(clk, 5, signal.NewBit('0'))
	require.ErrorIs(t, err, errs.ErrNonMonotonicTime)
}

func TestFlushHandlesInterleavedAppendOrder(t *testing.T) {
	var out bytes.Buffer
	w, err := fst.NewWriter(&out)
	require.NoError(t, err)

	fixed1, err := geom.NewFixed(1)
	require.NoError(t, err)
	a := w.DeclareVar(fixed1, 16, 0, "a")
	b := w.DeclareVar(fixed1, 16, 0, "b")

	// a and b are each appended in increasing order, but interleaved with
	// each other out of global timestamp order; Flush must stable-sort
	// pending by (timestamp, handle) before building either chain.
	require.NoError(t, w.AppendChange(a, 10, signal.NewBit('1')))
	require.NoError(t, w.AppendChange(b, 5, signal.NewBit('1')))
	require.NoError(t, w.AppendChange(a, 20, signal.NewBit('0')))

	require.NoError(t, w.Close())
	raw := out.Bytes()

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)

	it, err := r.NewIterator(r.File.Blocks[0])
	require.NoError(t, err)

	got := make(map[uint32][]uint64)
	for {
		c, ok, err := it.Next()
		require.NoError(t, err)
		if !ok {
			break
		}
		got[c.Handle] = append(got[c.Handle], c.TimeIndex)
	}
	require.Equal(t, []uint64{1, 2}, got[a])
	require.Equal(t, []uint64{0}, got[b])
}

func TestFlushSetsRequiredMemory(t *testing.T) {
	raw := buildFile(t)

	r, err := fst.NewReader(bytes.NewReader(raw), int64(len(raw)))
	require.NoError(t, err)
	require.NotZero(t, r.File.Blocks[0].Header.RequiredMemory)
}
