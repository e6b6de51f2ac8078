package chain

import (
	"fmt"
	"unicode/utf8"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
	"github.com/openfst/fstio/varint"
)

// Cursor walks one handle's decoded chain payload, yielding ValueChanges in
// time order. It never looks at other handles' data or at the source
// reader's cursor, so many Cursors can be driven independently (and, for
// decompression, concurrently) once their chain bytes are in hand.
type Cursor struct {
	Handle         uint32
	Entry          geom.Entry
	data           []byte
	offset         int
	currentTimeIdx uint64
}

// NewCursor returns a Cursor over handle's decoded chain bytes.
func NewCursor(handle uint32, entry geom.Entry, data []byte) *Cursor {
	return &Cursor{Handle: handle, Entry: entry, data: data}
}

// Done reports whether the cursor has consumed its entire chain.
func (c *Cursor) Done() bool { return c.offset >= len(c.data) }

// CurrentTimeIndex returns the time index of the last entry ReadValue
// consumed (0 if none have been consumed yet).
func (c *Cursor) CurrentTimeIndex() uint64 { return c.currentTimeIdx }

// PeekDelta decodes the next entry's marker without consuming it, and
// returns the time-index delta it encodes. The second return is false once
// the chain is exhausted.
func (c *Cursor) PeekDelta() (uint64, bool, error) {
	if c.Done() {
		return 0, false, nil
	}
	marker, _, err := varint.DecodeUint(c.data[c.offset:])
	if err != nil {
		return 0, false, err
	}

	return ExtractDelta(c.Entry.Kind, marker), true, nil
}

// ReadValue consumes the next entry, verifying its time-index delta lands
// exactly on expectedTimeIndex (the scheduler's contract: a handle's chain
// entries must appear at the time indices the scheduler put them at). It
// returns the decoded value and advances currentTimeIndex.
func (c *Cursor) ReadValue(expectedTimeIndex uint64) (signal.Value, error) {
	if c.Done() {
		return signal.Value{}, fmt.Errorf("%w: handle %d chain exhausted", errs.ErrChainOverflow, c.Handle)
	}

	marker, n, err := varint.DecodeUint(c.data[c.offset:])
	if err != nil {
		return signal.Value{}, err
	}
	c.offset += n

	delta := ExtractDelta(c.Entry.Kind, marker)
	c.currentTimeIdx += delta
	if c.currentTimeIdx != expectedTimeIndex {
		return signal.Value{}, errs.ErrChainScheduleMismatch
	}

	switch c.Entry.Kind {
	case geom.KindFixed1:
		return c.readBit(marker)
	case geom.KindFixedN:
		return c.readVector(marker)
	case geom.KindReal:
		return c.readReal(marker)
	default: // Variable
		return c.readVariable()
	}
}

func (c *Cursor) readBit(marker uint64) (signal.Value, error) {
	if marker&1 == 0 {
		bit := byte('0' + (marker>>1)&1)

		return signal.NewBit(bit), nil
	}
	idx := (marker >> 1) & 7
	if int(idx) >= len(signal.RcvAlphabet) {
		return signal.Value{}, errs.ErrInvalidBitMarker
	}

	return signal.NewBit(signal.RcvAlphabet[idx]), nil
}

func (c *Cursor) readVector(marker uint64) (signal.Value, error) {
	width := c.Entry.Width
	if marker&1 == 0 {
		packedLen := int((width + 7) / 8)
		b, err := c.take(packedLen)
		if err != nil {
			return signal.Value{}, err
		}

		return signal.NewPackedBits(width, b), nil
	}

	b, err := c.take(int(width))
	if err != nil {
		return signal.Value{}, err
	}
	if utf8.Valid(b) {
		return signal.NewVector(string(b)), nil
	}

	return signal.NewBytes(b), nil
}

func (c *Cursor) readReal(marker uint64) (signal.Value, error) {
	if marker&1 == 0 {
		b, err := c.take(1)
		if err != nil {
			return signal.Value{}, err
		}

		return signal.NewPackedBits(8, b), nil
	}

	b, err := c.take(8)
	if err != nil {
		return signal.Value{}, err
	}

	return signal.NewReal(getHostFloat(b)), nil
}

func (c *Cursor) readVariable() (signal.Value, error) {
	length, n, err := varint.DecodeUint(c.data[c.offset:])
	if err != nil {
		return signal.Value{}, err
	}
	c.offset += n

	b, err := c.take(int(length))
	if err != nil {
		return signal.Value{}, err
	}

	return signal.NewBytes(b), nil
}

func (c *Cursor) take(n int) ([]byte, error) {
	if n < 0 || c.offset+n > len(c.data) {
		return nil, errs.ErrChainOverflow
	}
	b := c.data[c.offset : c.offset+n]
	c.offset += n

	return b, nil
}
