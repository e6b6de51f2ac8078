package chain

import (
	"fmt"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
)

// Builder accumulates one handle's chain entries in time order. Callers
// supply the absolute time index of each event; Builder computes the delta
// against the previously appended event (or against zero, for the first
// one) the same way the decode-side Cursor reconstructs it.
type Builder struct {
	entry       geom.Entry
	lastTimeIdx uint64
	hasEntry    bool
	buf         []byte
}

// NewBuilder returns a Builder for a handle with the given geometry entry.
func NewBuilder(entry geom.Entry) *Builder {
	return &Builder{entry: entry}
}

// Append adds one value change at absolute time index timeIdx. It returns
// errs.ErrNonMonotonicTime if timeIdx precedes the previously appended one.
func (b *Builder) Append(timeIdx uint64, v signal.Value) error {
	if b.hasEntry && timeIdx < b.lastTimeIdx {
		return fmt.Errorf("%w: time index %d after %d", errs.ErrNonMonotonicTime, timeIdx, b.lastTimeIdx)
	}
	delta := timeIdx
	if b.hasEntry {
		delta = timeIdx - b.lastTimeIdx
	}
	b.lastTimeIdx = timeIdx
	b.hasEntry = true

	var err error
	switch b.entry.Kind {
	case geom.KindFixed1:
		b.buf, err = EncodeBit(b.buf, delta, v)
	case geom.KindFixedN:
		b.buf, err = EncodeVector(b.buf, delta, b.entry.Width, v)
	case geom.KindReal:
		b.buf, err = EncodeReal(b.buf, delta, v)
	default:
		b.buf, err = EncodeVariable(b.buf, delta, v)
	}

	return err
}

// Bytes returns the accumulated chain payload bytes.
func (b *Builder) Bytes() []byte { return b.buf }

// Len reports the number of accumulated payload bytes.
func (b *Builder) Len() int { return len(b.buf) }
