package hash

import "github.com/cespare/xxhash/v2"

// Bytes computes the xxHash64 of data, used to narrow chain-dedup candidates
// to same-hash handles before an exact byte comparison settles collisions.
func Bytes(data []byte) uint64 {
	return xxhash.Sum64(data)
}
