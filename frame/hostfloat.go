package frame

import (
	"encoding/binary"
	"math"

	"github.com/openfst/fstio/endian"
)

// putHostFloat and getHostFloat store/load an IEEE-754 double using the
// host's native byte order. This is a deliberate design choice (spec.md's
// design notes): real-value payloads are not portable across machines of
// differing endianness, unlike every other integer field in the format,
// which is fixed big-endian.
func putHostFloat(dst []byte, v float64) {
	bits := math.Float64bits(v)
	if endian.IsNativeLittleEndian() {
		binary.LittleEndian.PutUint64(dst, bits)
	} else {
		binary.BigEndian.PutUint64(dst, bits)
	}
}

func getHostFloat(src []byte) float64 {
	var bits uint64
	if endian.IsNativeLittleEndian() {
		bits = binary.LittleEndian.Uint64(src)
	} else {
		bits = binary.BigEndian.Uint64(src)
	}

	return math.Float64frombits(bits)
}
