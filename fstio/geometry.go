package fstio

import (
	"fmt"

	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/varint"
)

const (
	rawKindReal     = 0
	rawKindVariable = 0xFFFFFFFF
)

// EncodedGeometry is a geometry block's on-disk payload, ready to follow
// its section_length/uncompressed_len/max_handle header fields (all BE
// u64, written by Bytes).
type EncodedGeometry struct {
	SectionLength   uint64
	UncompressedLen uint64
	MaxHandle       uint64
	Data            []byte
}

// entryToRaw maps a geom.Entry onto the single-varint on-disk
// representation block/geom.rs defines: 0 for Real, 0xFFFFFFFF for
// Variable, otherwise the fixed width.
func entryToRaw(e geom.Entry) (uint64, error) {
	switch e.Kind {
	case geom.KindReal:
		return rawKindReal, nil
	case geom.KindVariable:
		return rawKindVariable, nil
	case geom.KindFixed1:
		return 1, nil
	case geom.KindFixedN:
		if e.Width == 0 {
			return 0, errs.ErrZeroWidthGeometry
		}

		return uint64(e.Width), nil
	default:
		return 0, fmt.Errorf("%w: unknown geometry kind", errs.ErrInvalidHeaderSize)
	}
}

func entryFromRaw(raw uint64) (geom.Entry, error) {
	switch raw {
	case rawKindReal:
		return geom.Real(), nil
	case rawKindVariable:
		return geom.Variable(), nil
	case 0:
		return geom.Entry{}, errs.ErrZeroWidthGeometry
	default:
		if raw > 0xFFFFFFFE {
			return geom.Entry{}, fmt.Errorf("%w: geometry width %d", errs.ErrGeometryLengthMismatch, raw)
		}

		return geom.NewFixed(uint32(raw))
	}
}

// EncodeGeometry varint-encodes info's per-handle geometry entries in
// handle order, optionally zlib-compressing the result and falling back to
// raw storage when compression does not shrink it (the same
// attempted-but-unhelpful rule used throughout the value-change blocks).
func EncodeGeometry(info geom.Info, useCompression bool) (EncodedGeometry, error) {
	raw := make([]byte, 0, len(info.Entries)*2)
	for _, e := range info.Entries {
		val, err := entryToRaw(e)
		if err != nil {
			return EncodedGeometry{}, err
		}
		raw = varint.AppendUint(raw, val)
	}
	uncompressedLen := uint64(len(raw))
	maxHandle := uint64(len(info.Entries))

	data := raw
	if useCompression {
		compressed, err := compress.NewZlibCodec().Compress(raw)
		if err == nil && len(compressed) < len(raw) {
			data = compressed
		}
	}

	return EncodedGeometry{
		SectionLength:   uint64(len(data)) + 24,
		UncompressedLen: uncompressedLen,
		MaxHandle:       maxHandle,
		Data:            data,
	}, nil
}

// Bytes serializes an EncodedGeometry block, including its
// section_length/uncompressed_len/max_handle header fields.
func (g EncodedGeometry) Bytes() []byte {
	buf := make([]byte, 0, 24+len(g.Data))
	buf = appendU64(buf, g.SectionLength)
	buf = appendU64(buf, g.UncompressedLen)
	buf = appendU64(buf, g.MaxHandle)
	buf = append(buf, g.Data...)

	return buf
}

// DecodeGeometry parses a geometry block's payload (everything after the
// block's tag byte) into a geom.Info. payload must begin with
// section_length.
func DecodeGeometry(payload []byte) (geom.Info, error) {
	if len(payload) < 24 {
		return geom.Info{}, fmt.Errorf("%w: geometry section shorter than required metadata", errs.ErrInvalidHeaderSize)
	}

	pos := 0
	sectionLength := readU64(payload, &pos)
	if sectionLength < 24 {
		return geom.Info{}, fmt.Errorf("%w: geometry section shorter than required metadata", errs.ErrInvalidHeaderSize)
	}
	uncompressedLen := readU64(payload, &pos)
	maxHandle := readU64(payload, &pos)

	// sectionLength includes its own 8-byte field; the remaining payload
	// (uncompressed_len, max_handle, data) is sectionLength-8 bytes, of
	// which 16 are the two length fields just read.
	compressedLen := sectionLength - 8 - 16
	if int(compressedLen) > len(payload)-pos {
		return geom.Info{}, fmt.Errorf("%w: geometry payload exceeds available bytes", errs.ErrTrailerOutOfBounds)
	}
	body := payload[pos : pos+int(compressedLen)]

	raw := body
	if uint64(len(body)) != uncompressedLen {
		decoded, err := compress.NewZlibCodec().Decompress(body, int(uncompressedLen))
		if err != nil {
			return geom.Info{}, err
		}
		raw = decoded
	}

	entries := make([]geom.Entry, 0, maxHandle)
	off := 0
	for i := uint64(0); i < maxHandle; i++ {
		val, n, err := varint.DecodeUint(raw[off:])
		if err != nil {
			return geom.Info{}, err
		}
		off += n
		entry, err := entryFromRaw(val)
		if err != nil {
			return geom.Info{}, err
		}
		entries = append(entries, entry)
	}
	if off != len(raw) {
		return geom.Info{}, errs.ErrTrailingData
	}

	return geom.Info{Entries: entries}, nil
}
