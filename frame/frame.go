// Package frame maintains and serializes the VC block's frame section: the
// per-handle "current value as of begin_time" snapshot that lets a reader
// seek into the middle of a trace without replaying every prior block
// (spec.md §4.3).
package frame

import (
	"fmt"
	"math"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
)

// State is the live, incrementally-maintained frame buffer for one VC
// block's handle range. Width and byte offset per handle are derived once
// from the geometry table; Update writes into the buffer in place.
type State struct {
	g       geom.Info
	offsets []int // per handle-1; -1 for Variable geometry
	lengths []int // per handle-1; 0 for Variable geometry
	buf     []byte
}

// NewState builds a State for g with every handle initialized to its
// documented default: 'x' for Fixed(1), "xx...x" for
// Fixed(w>1), NaN (host-endian bits) for Real, and nothing for Variable.
func NewState(g geom.Info) *State {
	s := &State{
		g:       g,
		offsets: make([]int, len(g.Entries)),
		lengths: make([]int, len(g.Entries)),
	}

	off := 0
	for i, e := range g.Entries {
		length := entryLength(e)
		if length == 0 {
			s.offsets[i] = -1
			s.lengths[i] = 0

			continue
		}
		s.offsets[i] = off
		s.lengths[i] = length
		off += length
	}
	s.buf = make([]byte, off)

	for i, e := range g.Entries {
		if s.offsets[i] < 0 {
			continue
		}
		region := s.buf[s.offsets[i] : s.offsets[i]+s.lengths[i]]
		switch e.Kind {
		case geom.KindFixed1:
			region[0] = 'x'
		case geom.KindFixedN:
			for j := range region {
				region[j] = 'x'
			}
		case geom.KindReal:
			putHostFloat(region, math.NaN())
		}
	}

	return s
}

func entryLength(e geom.Entry) int {
	switch e.Kind {
	case geom.KindFixed1:
		return 1
	case geom.KindFixedN:
		return int(e.Width)
	case geom.KindReal:
		return 8
	default: // Variable
		return 0
	}
}

func (s *State) region(handle uint32) ([]byte, geom.Entry, error) {
	if handle == 0 || int(handle) > len(s.g.Entries) {
		return nil, geom.Entry{}, fmt.Errorf("%w: handle %d", errs.ErrHandleOutOfRange, handle)
	}
	idx := handle - 1
	if s.offsets[idx] < 0 {
		return nil, s.g.Entries[idx], nil
	}

	return s.buf[s.offsets[idx] : s.offsets[idx]+s.lengths[idx]], s.g.Entries[idx], nil
}

// Update writes v into handle's frame region, unpacking PackedBits into
// ASCII where the geometry calls for a literal vector region. It is a
// no-op for Variable-geometry handles, which contribute nothing to the
// frame.
func (s *State) Update(handle uint32, v signal.Value) error {
	region, entry, err := s.region(handle)
	if err != nil {
		return err
	}
	if region == nil { // Variable
		return nil
	}

	switch entry.Kind {
	case geom.KindFixed1:
		if v.Kind != signal.KindBit {
			return fmt.Errorf("fstio: handle %d expects a bit value", handle)
		}
		region[0] = v.Bit
	case geom.KindFixedN:
		switch v.Kind {
		case signal.KindVector:
			if len(v.Text) != len(region) {
				return fmt.Errorf("fstio: handle %d vector length mismatch: got %d want %d", handle, len(v.Text), len(region))
			}
			copy(region, v.Text)
		case signal.KindPackedBits:
			unpackBits(v.Bits, v.Width, region)
		default:
			return fmt.Errorf("fstio: handle %d expects a vector value", handle)
		}
	case geom.KindReal:
		if v.Kind != signal.KindReal {
			return fmt.Errorf("fstio: handle %d expects a real value", handle)
		}
		putHostFloat(region, v.Real)
	}

	return nil
}

// CloneFrom copies src's current frame bytes into dst's region, used when
// an alias is declared so the new handle's frame slot starts in sync with
// its canonical value (spec.md's alias frame-initialization rule). Both
// handles must share identical frame-region length.
func (s *State) CloneFrom(dst, src uint32) error {
	dstRegion, _, err := s.region(dst)
	if err != nil {
		return err
	}
	srcRegion, _, err := s.region(src)
	if err != nil {
		return err
	}
	if len(dstRegion) != len(srcRegion) {
		return fmt.Errorf("fstio: alias %d and canonical %d have mismatched frame widths", dst, src)
	}
	copy(dstRegion, srcRegion)

	return nil
}

// Bytes returns the current full frame snapshot in handle order.
func (s *State) Bytes() []byte { return s.buf }

// Value returns the current decoded value for handle, or false for a
// Variable-geometry handle (which has no frame contribution).
func (s *State) Value(handle uint32) (signal.Value, bool, error) {
	region, entry, err := s.region(handle)
	if err != nil {
		return signal.Value{}, false, err
	}
	if region == nil {
		return signal.Value{}, false, nil
	}

	switch entry.Kind {
	case geom.KindFixed1:
		return signal.NewBit(region[0]), true, nil
	case geom.KindFixedN:
		return signal.NewVector(string(region)), true, nil
	case geom.KindReal:
		return signal.NewReal(getHostFloat(region)), true, nil
	default:
		return signal.Value{}, false, nil
	}
}

func unpackBits(packed []byte, width uint32, dst []byte) {
	for i := uint32(0); i < width && i < uint32(len(dst)); i++ {
		byteIdx := i / 8
		bitIdx := 7 - (i % 8)
		bit := byte('0')
		if int(byteIdx) < len(packed) && packed[byteIdx]&(1<<bitIdx) != 0 {
			bit = '1'
		}
		dst[i] = bit
	}
}
