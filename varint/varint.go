// Package varint implements the unsigned LEB128 and ZigZag-signed varint
// codecs shared by every section of an FST value-change block: frame
// lengths, chain markers, chain index offsets, and variable-length payload
// lengths all use this encoding.
package varint

import "github.com/openfst/fstio/errs"

// MaxLen is the maximum number of bytes a single u64 varint can occupy.
// A decoder that has not terminated within MaxLen bytes has seen corrupt
// or adversarial input.
const MaxLen = 10

// AppendUint appends value to dst as an unsigned LEB128 varint and returns
// the extended slice.
func AppendUint(dst []byte, value uint64) []byte {
	for value >= 0x80 {
		dst = append(dst, byte(value)|0x80)
		value >>= 7
	}

	return append(dst, byte(value))
}

// SizeUint returns the number of bytes AppendUint would emit for value,
// without allocating.
func SizeUint(value uint64) int {
	n := 1
	for value >= 0x80 {
		value >>= 7
		n++
	}

	return n
}

// DecodeUint decodes a u64 varint from the front of src, returning the
// decoded value and the number of bytes consumed. It returns
// errs.ErrVarintTruncated if src ends before a terminating byte, and
// errs.ErrVarintTooLong if no terminating byte appears within MaxLen bytes.
func DecodeUint(src []byte) (uint64, int, error) {
	var value uint64
	for i := 0; i < MaxLen; i++ {
		if i >= len(src) {
			return 0, 0, errs.ErrVarintTruncated
		}
		b := src[i]
		value |= uint64(b&0x7f) << (i * 7)
		if b&0x80 == 0 {
			return value, i + 1, nil
		}
	}

	return 0, 0, errs.ErrVarintTooLong
}

// ZigZagEncode maps a signed integer onto the unsigned range so that small
// magnitudes (positive or negative) produce small varints.
func ZigZagEncode(value int64) uint64 {
	return uint64((value << 1) ^ (value >> 63))
}

// ZigZagDecode reverses ZigZagEncode.
func ZigZagDecode(encoded uint64) int64 {
	return int64(encoded>>1) ^ -int64(encoded&1)
}

// AppendInt appends value to dst as a ZigZag-then-LEB128 signed varint.
func AppendInt(dst []byte, value int64) []byte {
	return AppendUint(dst, ZigZagEncode(value))
}

// DecodeInt decodes a ZigZag-signed varint from the front of src.
func DecodeInt(src []byte) (int64, int, error) {
	raw, n, err := DecodeUint(src)
	if err != nil {
		return 0, 0, err
	}

	return ZigZagDecode(raw), n, nil
}

// Cursor walks a varint stream left to right, tracking how many bytes have
// been consumed so callers can slice the remainder without re-deriving the
// offset by hand. It mirrors the streaming reader style used by the
// timestamp delta codec, generalized to any varint-framed section.
type Cursor struct {
	data []byte
	pos  int
}

// NewCursor returns a Cursor positioned at the start of data.
func NewCursor(data []byte) *Cursor {
	return &Cursor{data: data}
}

// Pos returns the current byte offset into the underlying data.
func (c *Cursor) Pos() int { return c.pos }

// Len returns the number of unread bytes remaining.
func (c *Cursor) Len() int { return len(c.data) - c.pos }

// Remaining returns the unread suffix of the underlying data.
func (c *Cursor) Remaining() []byte { return c.data[c.pos:] }

// ReadUint decodes the next unsigned varint and advances the cursor.
func (c *Cursor) ReadUint() (uint64, error) {
	v, n, err := DecodeUint(c.data[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n

	return v, nil
}

// ReadInt decodes the next ZigZag-signed varint and advances the cursor.
func (c *Cursor) ReadInt() (int64, error) {
	v, n, err := DecodeInt(c.data[c.pos:])
	if err != nil {
		return 0, err
	}
	c.pos += n

	return v, nil
}

// ReadBytes consumes and returns the next n raw bytes without interpreting
// them as a varint. It returns errs.ErrVarintTruncated if fewer than n bytes
// remain.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 || c.pos+n > len(c.data) {
		return nil, errs.ErrVarintTruncated
	}
	b := c.data[c.pos : c.pos+n]
	c.pos += n

	return b, nil
}

// Skip advances the cursor by n bytes without returning them.
func (c *Cursor) Skip(n int) error {
	_, err := c.ReadBytes(n)

	return err
}
