// Package fstio implements the side-table blocks a value-change-block
// reader or writer needs as external collaborators: the fixed file header,
// the geometry block (feeding a geom.Info), the blackout event list, the
// hierarchy token stream, and the optional outer gzip envelope. None of
// these expose their on-disk encodings to package vc; it consumes only the
// resolved geom.Info view DecodeGeometry produces.
package fstio

import (
	"bytes"
	"fmt"
	"math"

	"github.com/openfst/fstio/errs"
)

const (
	// HeaderSectionLength is the section_length value a conforming writer
	// records: the size of the whole header record, its own 8-byte
	// section_length field included.
	HeaderSectionLength = 329

	versionFieldLen = 128
	dateFieldLen    = 119

	// headerRecordLen is the total on-disk size of a Header, including the
	// leading section_length field (8 bytes) but not the block's 1-byte
	// tag, which lives in the outer block framing this package does not
	// own.
	headerRecordLen = 8 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 8 + 1 + versionFieldLen + dateFieldLen + 1 + 8
)

// endianTestBits is the IEEE-754 bit pattern of math.E, written big-endian
// in every conforming header so a reader can detect a byte-swapped file by
// comparing against the same bits read back reversed.
var endianTestBits = math.Float64bits(math.E)

// Header is the fixed-size record every FST file begins with (block tag 0).
type Header struct {
	StartTime         uint64
	EndTime           uint64
	MemoryUsed        uint64
	ScopeCount        uint64
	VarCount          uint64
	MaxHandle         uint64
	VcSectionCount    uint64
	TimescaleExponent int8
	Version           string
	Date              string
	FileType          uint8
	TimeZero          uint64
}

// TimescaleFactor returns 10^TimescaleExponent, the multiplier converting a
// recorded timestamp into seconds.
func (h Header) TimescaleFactor() float64 {
	return math.Pow(10, float64(h.TimescaleExponent))
}

// Bytes serializes h into the fixed headerRecordLen-byte on-disk record,
// starting with section_length and ending with time_zero.
func (h Header) Bytes() []byte {
	buf := make([]byte, 0, headerRecordLen)
	buf = appendU64(buf, HeaderSectionLength)
	buf = appendU64(buf, h.StartTime)
	buf = appendU64(buf, h.EndTime)
	buf = appendU64(buf, endianTestBits)
	buf = appendU64(buf, h.MemoryUsed)
	buf = appendU64(buf, h.ScopeCount)
	buf = appendU64(buf, h.VarCount)
	buf = appendU64(buf, h.MaxHandle)
	buf = appendU64(buf, h.VcSectionCount)
	buf = append(buf, byte(h.TimescaleExponent))
	buf = append(buf, packCString(h.Version, versionFieldLen)...)
	buf = append(buf, packCString(h.Date, dateFieldLen)...)
	buf = append(buf, h.FileType)
	buf = appendU64(buf, h.TimeZero)

	return buf
}

// ParseHeader decodes the fixed-size header record from data, which must be
// at least headerRecordLen bytes (the leading section_length field is
// consumed but not returned; callers that already stripped it should pass
// data starting at section_length, matching what Bytes emits).
func ParseHeader(data []byte) (Header, error) {
	if len(data) < headerRecordLen {
		return Header{}, fmt.Errorf("%w: header record is %d bytes, need %d", errs.ErrInvalidHeaderSize, len(data), headerRecordLen)
	}

	pos := 0
	sectionLength := readU64(data, &pos)
	if sectionLength != HeaderSectionLength {
		return Header{}, fmt.Errorf("%w: section_length %d", errs.ErrInvalidHeaderSize, sectionLength)
	}

	var h Header
	h.StartTime = readU64(data, &pos)
	h.EndTime = readU64(data, &pos)
	endianTest := readU64(data, &pos)
	if err := validateEndian(endianTest); err != nil {
		return Header{}, err
	}
	h.MemoryUsed = readU64(data, &pos)
	h.ScopeCount = readU64(data, &pos)
	h.VarCount = readU64(data, &pos)
	h.MaxHandle = readU64(data, &pos)
	h.VcSectionCount = readU64(data, &pos)
	h.TimescaleExponent = int8(data[pos])
	pos++
	h.Version = unpackCString(data[pos : pos+versionFieldLen])
	pos += versionFieldLen
	h.Date = unpackCString(data[pos : pos+dateFieldLen])
	pos += dateFieldLen
	h.FileType = data[pos]
	pos++
	h.TimeZero = readU64(data, &pos)

	return h, nil
}

// validateEndian checks got against the expected bit pattern of math.E,
// both as written and byte-swapped, so a file produced on a
// differently-endian host (impossible here since every field is written
// big-endian by contract, but checked the same way the original format
// does) is reported precisely rather than misread silently.
func validateEndian(got uint64) error {
	if got == endianTestBits {
		return nil
	}
	if got == swapU64(endianTestBits) {
		return fmt.Errorf("%w: file was written byte-swapped", errs.ErrInvalidEndianTest)
	}

	return fmt.Errorf("%w: got 0x%016x", errs.ErrInvalidEndianTest, got)
}

func swapU64(v uint64) uint64 {
	var b [8]byte
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	var out uint64
	for i := 0; i < 8; i++ {
		out |= uint64(b[i]) << (8 * (7 - i))
	}

	return out
}

// packCString writes s into a fixed-width, null-terminated field of length
// width, truncating s if it (plus its terminator) would not fit.
func packCString(s string, width int) []byte {
	b := make([]byte, width)
	n := copy(b, s)
	if n >= width {
		n = width - 1
	}
	b[n] = 0

	return b
}

// unpackCString reads a null-terminated string out of a fixed-width field,
// treating an absent terminator as the whole field (matching a lenient
// reader rather than failing on a field some writer filled to capacity).
func unpackCString(field []byte) string {
	if i := bytes.IndexByte(field, 0); i >= 0 {
		field = field[:i]
	}

	return string(field)
}
