package vc

import (
	"fmt"

	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/varint"
)

// TimeTable is the expanded time section: one entry per distinct time index
// the block records a change at, reconstructed from the stored deltas.
type TimeTable struct {
	Deltas     []uint64
	Timestamps []uint64
}

// TimeSection carries the lengths needed to locate and decompress the time
// payload preceding the trailer.
type TimeSection struct {
	UncompressedLen uint64
	CompressedLen   uint64
	ItemCount       uint64
}

// encodeTimeRaw serializes ascending absolute timestamps as successive
// deltas, each stored as an unsigned varint.
func encodeTimeRaw(timestamps []uint64) ([]byte, error) {
	var buf []byte
	var prev uint64
	for i, ts := range timestamps {
		if i > 0 && ts < prev {
			return nil, fmt.Errorf("%w: timestamps must be non-decreasing", errs.ErrTimestampOverflow)
		}
		delta := ts
		if i > 0 {
			delta = ts - prev
		}
		buf = varint.AppendUint(buf, delta)
		prev = ts
	}

	return buf, nil
}

// EncodeTimeSection serializes timestamps and, when marker requests
// compression, compresses the result with a raw fallback if that does not
// shrink it. A marker naming an unregistered backend is reported as
// errs.ErrUnsupportedCompression rather than silently degrading to raw:
// compression that was requested but unavailable is a hard error, distinct
// from compression that was attempted and simply did not help.
func EncodeTimeSection(timestamps []uint64, marker compress.Marker) (TimeSection, []byte, error) {
	raw, err := encodeTimeRaw(timestamps)
	if err != nil {
		return TimeSection{}, nil, err
	}

	section := TimeSection{
		UncompressedLen: uint64(len(raw)),
		CompressedLen:   uint64(len(raw)),
		ItemCount:       uint64(len(timestamps)),
	}
	if len(raw) == 0 || marker == compress.MarkerRaw {
		return section, raw, nil
	}

	codec, err := compress.CreateCodec(marker, "time table")
	if err != nil {
		return TimeSection{}, nil, err
	}
	compressed, err := codec.Compress(raw)
	if err != nil {
		return TimeSection{}, nil, err
	}
	if len(compressed) < len(raw) {
		section.CompressedLen = uint64(len(compressed))

		return section, compressed, nil
	}

	return section, raw, nil
}

// DecodeTimeTable expands a time section payload into cumulative
// timestamps. marker is only consulted when section.CompressedLen differs
// from section.UncompressedLen, mirroring the forward path's "compressed
// only if it helped" rule.
func DecodeTimeTable(section TimeSection, marker compress.Marker, payload []byte) (*TimeTable, error) {
	raw := payload
	if section.CompressedLen != section.UncompressedLen {
		codec, err := compress.CreateCodec(marker, "time table")
		if err != nil {
			return nil, err
		}
		raw, err = codec.Decompress(payload, int(section.UncompressedLen))
		if err != nil {
			return nil, err
		}
	} else if uint64(len(payload)) != section.UncompressedLen {
		return nil, fmt.Errorf("%w: time section", errs.ErrDecompressLenMismatch)
	}

	deltas := make([]uint64, 0, section.ItemCount)
	pos := 0
	for uint64(len(deltas)) < section.ItemCount && pos < len(raw) {
		v, n, err := varint.DecodeUint(raw[pos:])
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, v)
		pos += n
	}
	if uint64(len(deltas)) != section.ItemCount {
		return nil, fmt.Errorf("%w: time section item count", errs.ErrTrailingData)
	}

	timestamps := make([]uint64, len(deltas))
	var acc uint64
	for i, d := range deltas {
		next := acc + d
		if next < acc {
			return nil, errs.ErrTimeIndexOverflow
		}
		acc = next
		timestamps[i] = acc
	}

	return &TimeTable{Deltas: deltas, Timestamps: timestamps}, nil
}
