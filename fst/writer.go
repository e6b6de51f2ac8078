package fst

import (
	"fmt"
	"io"
	"sort"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/fstio"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/internal/options"
	"github.com/openfst/fstio/internal/pool"
	"github.com/openfst/fstio/signal"
	"github.com/openfst/fstio/vc"
)

// pendingChange is one not-yet-flushed value change, queued until Flush
// resolves the block's local time axis.
type pendingChange struct {
	handle uint32
	time   uint64
	value  signal.Value
}

// Writer accumulates one file's declared signals, blackout events, and
// value changes, emitting them as a sequence of framed blocks on Close.
// Like the teacher's NumericEncoder, a Writer is single-use and not
// reusable after Close; unlike it, the underlying io.Writer need not be
// seekable, since every block is assembled in a pooled buffer before a
// single final write.
type Writer struct {
	out io.Writer
	cfg *config

	hier     fstio.Hierarchy
	geo      []geom.Entry
	blackout fstio.Blackout

	pending  []pendingChange
	vcBlocks [][]byte
	lastTime map[uint32]uint64

	haveTime bool
	minTime  uint64
	maxTime  uint64

	closed bool
}

// NewWriter returns a Writer that buffers framed blocks and writes them all
// to w in a single Write on Close, configured by opts (chain/time compression backends, frame
// and block compression toggles, chain-index version, header metadata).
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Writer{
		out:      w,
		cfg:      cfg,
		lastTime: make(map[uint32]uint64),
	}, nil
}

// BeginScope opens a hierarchy scope (module, task, etc.) and returns its
// index. Every Var declared until the matching EndScope nests under it.
func (w *Writer) BeginScope(scopeType byte, name, component string) int {
	return w.hier.BeginScope(scopeType, name, component)
}

// EndScope closes the most recently opened scope.
func (w *Writer) EndScope() error {
	return w.hier.EndScope()
}

// DeclareVar registers a new signal with the given geometry and hierarchy
// metadata, returning its handle (1-based, sequentially assigned).
func (w *Writer) DeclareVar(entry geom.Entry, varType, direction byte, name string) uint32 {
	handle := w.hier.AddVar(varType, direction, name, hierarchyLength(entry))
	w.geo = append(w.geo, entry)

	return handle
}

// DeclareAlias registers name as an additional identifier for target's
// handle. Unlike the chain-level aliasing vc.BlockBuilder.Alias performs
// between two distinct handles, a hierarchy alias declares no new handle
// at all: target must already have been declared via DeclareVar, and the
// new Var entry simply records target's handle under a second name.
func (w *Writer) DeclareAlias(varType, direction byte, name string, target uint32) error {
	if target == 0 || int(target) > len(w.geo) {
		return errs.ErrHandleOutOfRange
	}
	entry := w.geo[target-1]
	w.hier.AddVarAlias(varType, direction, name, hierarchyLength(entry), target)

	return nil
}

// AddBlackout records a dump on/off transition at an absolute time.
func (w *Writer) AddBlackout(isOn bool, time uint64) {
	w.blackout.Events = append(w.blackout.Events, fstio.BlackoutEvent{IsOn: isOn, Time: time})
}

// AppendChange queues a value change for handle at an absolute time,
// validating handle range, value/geometry agreement, and per-handle time
// monotonicity immediately (matching the writer reference's emit_change
// contract: invariant violations surface here, pinpointed to the offending
// change, never deferred to Flush). The change itself is not encoded until
// the next Flush, which resolves the block's shared local time axis across
// every handle queued since the last Flush.
func (w *Writer) AppendChange(handle uint32, time uint64, v signal.Value) error {
	if handle == 0 || int(handle) > len(w.geo) {
		return errs.ErrHandleOutOfRange
	}

	entry := w.geo[handle-1]
	if err := validateValueKind(entry, v); err != nil {
		return fmt.Errorf("fst: handle %d at time %d: %w", handle, time, err)
	}

	if last, ok := w.lastTime[handle]; ok && time < last {
		return fmt.Errorf("fst: handle %d: %w (time %d after %d)", handle, errs.ErrNonMonotonicTime, time, last)
	}
	w.lastTime[handle] = time

	w.pending = append(w.pending, pendingChange{handle: handle, time: time, value: v})
	if !w.haveTime || time < w.minTime {
		w.minTime = time
	}
	if !w.haveTime || time > w.maxTime {
		w.maxTime = time
	}
	w.haveTime = true

	return nil
}

// validateValueKind checks that v's Kind is the one entry's geometry
// expects, and that a Vector or PackedBits value's width matches entry's
// declared width. KindVariable geometry accepts any value kind, since it
// carries no fixed shape.
func validateValueKind(entry geom.Entry, v signal.Value) error {
	switch entry.Kind {
	case geom.KindFixed1:
		if v.Kind != signal.KindBit {
			return fmt.Errorf("%w: expected a bit value, got kind %d", errs.ErrValueGeometryMismatch, v.Kind)
		}
	case geom.KindFixedN:
		switch v.Kind {
		case signal.KindVector:
			if uint32(len(v.Text)) != entry.Width {
				return fmt.Errorf("%w: vector length %d does not match width %d", errs.ErrValueGeometryMismatch, len(v.Text), entry.Width)
			}
		case signal.KindPackedBits:
			if v.Width != entry.Width {
				return fmt.Errorf("%w: packed width %d does not match geometry width %d", errs.ErrValueGeometryMismatch, v.Width, entry.Width)
			}
		default:
			return fmt.Errorf("%w: expected a vector value, got kind %d", errs.ErrValueGeometryMismatch, v.Kind)
		}
	case geom.KindReal:
		if v.Kind != signal.KindReal {
			return fmt.Errorf("%w: expected a real value, got kind %d", errs.ErrValueGeometryMismatch, v.Kind)
		}
	}

	return nil
}

// hierarchyLength returns the Length field a hierarchy Var declaration
// records for entry: the bit width for Fixed geometries, 8 for Real (an
// IEEE-754 double), or 0 (unspecified) for Variable.
func hierarchyLength(entry geom.Entry) uint32 {
	switch entry.Kind {
	case geom.KindFixed1:
		return 1
	case geom.KindFixedN:
		return entry.Width
	case geom.KindReal:
		return 8
	default:
		return 0
	}
}

// Flush encodes every change queued since the last Flush (or since
// NewWriter) into one value-change block and buffers its framed bytes.
// It is a no-op if nothing is pending.
func (w *Writer) Flush() error {
	if len(w.pending) == 0 {
		return nil
	}

	sort.SliceStable(w.pending, func(i, j int) bool {
		if w.pending[i].time != w.pending[j].time {
			return w.pending[i].time < w.pending[j].time
		}

		return w.pending[i].handle < w.pending[j].handle
	})

	timeSet := make(map[uint64]struct{}, len(w.pending))
	for _, c := range w.pending {
		timeSet[c.time] = struct{}{}
	}
	timestamps := make([]uint64, 0, len(timeSet))
	for t := range timeSet {
		timestamps = append(timestamps, t)
	}
	sort.Slice(timestamps, func(i, j int) bool { return timestamps[i] < timestamps[j] })

	indexOf := make(map[uint64]uint64, len(timestamps))
	for i, t := range timestamps {
		indexOf[t] = uint64(i)
	}

	geo := geom.Info{Entries: w.geo}
	bb := vc.NewBlockBuilder(geo, timestamps[0], timestamps[len(timestamps)-1], timestamps, w.cfg.chainMarker, w.cfg.timeMarker, w.cfg.frameCompress)

	for _, c := range w.pending {
		if err := bb.Append(c.handle, indexOf[c.time], c.value); err != nil {
			return fmt.Errorf("fst: flushing handle %d: %w", c.handle, err)
		}
	}

	bb.SetRequiredMemory(bb.RequiredMemory())

	payload, _, err := bb.Encode()
	if err != nil {
		return err
	}

	w.vcBlocks = append(w.vcBlocks, frameBare(tagVcDataDynAlias, payload))
	w.pending = w.pending[:0]

	return nil
}

// Close flushes any pending changes, then writes the header, geometry,
// blackout (if non-empty), hierarchy, and every buffered value-change
// block to the underlying writer in a single pass. Close must be called
// exactly once; Writer is not reusable afterward.
func (w *Writer) Close() error {
	if w.closed {
		return fmt.Errorf("fst: writer already closed")
	}
	w.closed = true

	if err := w.Flush(); err != nil {
		return err
	}

	geo := geom.Info{Entries: w.geo}
	encGeo, err := fstio.EncodeGeometry(geo, w.cfg.useCompression)
	if err != nil {
		return err
	}

	hierBytes, err := fstio.EncodeHierarchy(w.hier, w.cfg.hierarchyTag)
	if err != nil {
		return err
	}

	header := fstio.Header{
		StartTime:         w.minTime,
		EndTime:           w.maxTime,
		ScopeCount:        uint64(len(w.hier.Scopes)),
		VarCount:          uint64(len(w.hier.Vars)),
		MaxHandle:         uint64(geo.MaxHandle()),
		VcSectionCount:    uint64(len(w.vcBlocks)),
		TimescaleExponent: w.cfg.timescaleExp,
		Version:           w.cfg.version,
		Date:              w.cfg.date,
		FileType:          w.cfg.fileType,
	}

	buf := pool.GetBlobBuffer()
	defer pool.PutBlobBuffer(buf)
	buf.MustWrite(frameSelf(tagHeader, header.Bytes()))
	buf.MustWrite(frameSelf(tagGeometry, encGeo.Bytes()))
	if len(w.blackout.Events) > 0 {
		buf.MustWrite(frameBare(tagBlackout, w.blackout.Bytes()))
	}
	buf.MustWrite(frameSelf(hierarchyBlockTag(w.cfg.hierarchyTag), hierBytes))
	for _, block := range w.vcBlocks {
		buf.MustWrite(block)
	}

	if _, err := w.out.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", errs.ErrShortWrite, err)
	}

	return nil
}

func hierarchyBlockTag(tag fstio.HierarchyBlockTag) byte {
	switch tag {
	case fstio.HierarchyLZ4:
		return tagHierarchyLZ4
	case fstio.HierarchyLZ4Duo:
		return tagHierarchyLZ4Duo
	default:
		return tagHierarchy
	}
}
