package fstio

import (
	"fmt"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/varint"
)

// BlackoutEvent marks a dump-on or dump-off transition at an absolute time.
type BlackoutEvent struct {
	IsOn bool
	Time uint64
}

// Blackout is the ordered list of dump on/off events a file records (block
// tag 2).
type Blackout struct {
	Events []BlackoutEvent
}

// Bytes varint-encodes the event count followed by, per event, a 1-byte
// on/off flag and a varint delta from the previous event's time (clamped to
// 0 rather than underflowing, matching a writer that never observes time
// moving backward between events).
func (b Blackout) Bytes() []byte {
	buf := varint.AppendUint(nil, uint64(len(b.Events)))

	var prev uint64
	for _, ev := range b.Events {
		if ev.IsOn {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		delta := uint64(0)
		if ev.Time > prev {
			delta = ev.Time - prev
		}
		buf = varint.AppendUint(buf, delta)
		prev = ev.Time
	}

	return buf
}

// DecodeBlackout parses a Blackout from its block payload.
func DecodeBlackout(data []byte) (Blackout, error) {
	count, n, err := varint.DecodeUint(data)
	if err != nil {
		return Blackout{}, err
	}
	pos := n

	events := make([]BlackoutEvent, 0, count)
	var prev uint64
	for i := uint64(0); i < count; i++ {
		if pos >= len(data) {
			return Blackout{}, fmt.Errorf("%w: blackout event flag", errs.ErrVarintTruncated)
		}
		isOn := data[pos] != 0
		pos++

		delta, consumed, err := varint.DecodeUint(data[pos:])
		if err != nil {
			return Blackout{}, err
		}
		pos += consumed

		next := prev + delta
		if next < prev {
			return Blackout{}, errs.ErrTimestampOverflow
		}
		events = append(events, BlackoutEvent{IsOn: isOn, Time: next})
		prev = next
	}

	return Blackout{Events: events}, nil
}
