// Package signal holds the decoded-view representation of a signal value
// change: the shape every chain decode produces and every chain encode
// consumes, independent of how a particular geometry kind packs it on the
// wire.
package signal

// Kind discriminates which field of Value is populated.
type Kind uint8

const (
	KindBit Kind = iota
	KindVector
	KindPackedBits
	KindReal
	KindBytes
)

// Value is a decoded signal value. Exactly one field is meaningful,
// selected by Kind:
//
//   - KindBit: Bit holds one of '0'/'1' or an extended-alphabet character
//     ('x','z','h','u','w','l','-','?').
//   - KindVector: Text holds the ASCII literal form of a Fixed(w>1) vector.
//   - KindPackedBits: Width and Bits hold a packed, MSB-first bit vector
//     (Bits has ceil(Width/8) bytes); this is the pure-0/1 packed encoding
//     of a Fixed(w>1) vector, or the legacy packed-real decode fallback
//     (Width==8, one byte) documented in spec.md.
//   - KindReal: Real holds the IEEE-754 double value.
//   - KindBytes: Bytes holds a Variable-geometry payload, or a Vector
//     payload that was not valid UTF-8.
type Value struct {
	Kind  Kind
	Bit   byte
	Text  string
	Width uint32
	Bits  []byte
	Real  float64
	Bytes []byte
}

// NewBit returns a Value carrying a single extended-alphabet bit character.
func NewBit(ch byte) Value { return Value{Kind: KindBit, Bit: ch} }

// NewVector returns a Value carrying a literal ASCII vector.
func NewVector(text string) Value { return Value{Kind: KindVector, Text: text} }

// NewPackedBits returns a Value carrying an MSB-first packed bit vector.
func NewPackedBits(width uint32, bits []byte) Value {
	return Value{Kind: KindPackedBits, Width: width, Bits: bits}
}

// NewReal returns a Value carrying an IEEE-754 double.
func NewReal(v float64) Value { return Value{Kind: KindReal, Real: v} }

// NewBytes returns a Value carrying an opaque byte payload.
func NewBytes(b []byte) Value { return Value{Kind: KindBytes, Bytes: b} }

// RcvAlphabet is the 8-character extended bit alphabet used by the Bit
// marker's special-value index (spec.md §4.4). The encoder lowercases its
// input before the lookup, so uppercase is accepted on write; decoding
// always yields the lowercase character.
var RcvAlphabet = [8]byte{'x', 'z', 'h', 'u', 'w', 'l', '-', '?'}

// IsUnknown reports whether the value represents an unknown/undriven state:
// a Bit outside '0'/'1', or a Vector/PackedBits containing any such
// character.
func (v Value) IsUnknown() bool {
	switch v.Kind {
	case KindBit:
		return v.Bit != '0' && v.Bit != '1'
	case KindVector:
		for i := 0; i < len(v.Text); i++ {
			if v.Text[i] != '0' && v.Text[i] != '1' {
				return true
			}
		}

		return false
	default:
		return false
	}
}
