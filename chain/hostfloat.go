package chain

import (
	"encoding/binary"
	"math"

	"github.com/openfst/fstio/endian"
)

// putHostFloat/getHostFloat mirror frame's host-endian float helpers: Real
// chain entries use the same host-endian storage as the frame section
// (spec.md design notes), so both packages need the conversion but neither
// depends on the other for it.
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
