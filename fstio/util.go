package fstio

import "encoding/binary"

func appendU64(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)

	return append(dst, b[:]...)
}

func readU64(data []byte, pos *int) uint64 {
	v := binary.BigEndian.Uint64(data[*pos : *pos+8])
	*pos += 8

	return v
}
