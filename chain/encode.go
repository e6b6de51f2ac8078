package chain

import (
	"fmt"

	"github.com/openfst/fstio/signal"
	"github.com/openfst/fstio/varint"
)

// EncodeBit appends one Fixed(1) chain entry for a time-index delta of
// delta and value v (KindBit). '0'/'1' pack into a 1-bit value field above
// a 2-bit shift; any other extended-alphabet character (lowercased) packs
// its index into the 8-character table above a 4-bit shift.
func EncodeBit(dst []byte, delta uint64, v signal.Value) ([]byte, error) {
	if v.Kind != signal.KindBit {
		return nil, fmt.Errorf("fstio: bit chain entry requires a bit value")
	}

	ch := v.Bit
	if ch == '0' || ch == '1' {
		bit := uint64(ch - '0')
		marker := (delta << 2) | (bit << 1)

		return varint.AppendUint(dst, marker), nil
	}

	lower := toLowerASCII(ch)
	idx := indexInAlphabet(lower)
	if idx < 0 {
		return nil, fmt.Errorf("fstio: %q is not a valid extended bit character", ch)
	}
	marker := (delta << 4) | (uint64(idx) << 1) | 1

	return varint.AppendUint(dst, marker), nil
}

// EncodeVector appends one Fixed(w>1) chain entry. It emits the packed
// MSB-first bit encoding when v is pure 0/1 vector text (or already
// packed), otherwise it falls back to the literal ASCII encoding.
func EncodeVector(dst []byte, delta uint64, width uint32, v signal.Value) ([]byte, error) {
	switch v.Kind {
	case signal.KindPackedBits:
		marker := delta << 1
		dst = varint.AppendUint(dst, marker)

		return append(dst, v.Bits...), nil
	case signal.KindVector:
		if uint32(len(v.Text)) != width {
			return nil, fmt.Errorf("fstio: vector length %d does not match geometry width %d", len(v.Text), width)
		}
		if isPureBinary(v.Text) {
			packed := packBits(v.Text)
			marker := delta << 1
			dst = varint.AppendUint(dst, marker)

			return append(dst, packed...), nil
		}
		marker := (delta << 1) | 1
		dst = varint.AppendUint(dst, marker)

		return append(dst, v.Text...), nil
	default:
		return nil, fmt.Errorf("fstio: vector chain entry requires a vector or packed-bits value")
	}
}

// EncodeReal appends one Real chain entry. Writers always emit the literal
// 8-byte host-endian form (literal_flag=1); the packed single-byte form is
// a decode-only legacy fallback this encoder never produces.
func EncodeReal(dst []byte, delta uint64, v signal.Value) ([]byte, error) {
	if v.Kind != signal.KindReal {
		return nil, fmt.Errorf("fstio: real chain entry requires a real value")
	}
	marker := (delta << 1) | 1
	dst = varint.AppendUint(dst, marker)

	var buf [8]byte
	putHostFloat(buf[:], v.Real)

	return append(dst, buf[:]...), nil
}

// EncodeVariable appends one Variable chain entry: marker, then a
// length-prefixed payload.
func EncodeVariable(dst []byte, delta uint64, v signal.Value) ([]byte, error) {
	var payload []byte
	switch v.Kind {
	case signal.KindBytes:
		payload = v.Bytes
	case signal.KindVector:
		payload = []byte(v.Text)
	default:
		return nil, fmt.Errorf("fstio: variable chain entry requires a bytes or vector value")
	}

	marker := delta << 1
	dst = varint.AppendUint(dst, marker)
	dst = varint.AppendUint(dst, uint64(len(payload)))

	return append(dst, payload...), nil
}

func toLowerASCII(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}

	return b
}

func indexInAlphabet(ch byte) int {
	for i, c := range signal.RcvAlphabet {
		if c == ch {
			return i
		}
	}

	return -1
}

func isPureBinary(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] != '0' && s[i] != '1' {
			return false
		}
	}

	return true
}

// packBits packs an ASCII '0'/'1' string into an MSB-first bit vector,
// ceil(len(s)/8) bytes long.
func packBits(s string) []byte {
	out := make([]byte, (len(s)+7)/8)
	for i := 0; i < len(s); i++ {
		if s[i] == '1' {
			byteIdx := i / 8
			bitIdx := 7 - (i % 8)
			out[byteIdx] |= 1 << bitIdx
		}
	}

	return out
}
