package vc

import "github.com/openfst/fstio/internal/hash"

// chainDedup spots handles whose encoded change chain is byte-identical to
// one already placed in the chain buffer, so the writer can alias them
// instead of storing the same bytes twice. xxhash narrows the comparison to
// same-hash candidates; an exact byte comparison still settles collisions.
type chainDedup struct {
	byHash map[uint64][]uint32 // content hash -> canonical handles sharing it
	bytes  map[uint32][]byte   // canonical handle -> its raw (pre-compression) chain bytes
}

func newChainDedup() *chainDedup {
	return &chainDedup{
		byHash: make(map[uint64][]uint32),
		bytes:  make(map[uint32][]byte),
	}
}

// findOrRegister returns the handle already holding identical bytes, if
// any; otherwise it registers handle as the canonical owner of data and
// returns (0, false).
func (d *chainDedup) findOrRegister(handle uint32, data []byte) (uint32, bool) {
	h := hash.Bytes(data)
	for _, candidate := range d.byHash[h] {
		if string(d.bytes[candidate]) == string(data) {
			return candidate, true
		}
	}
	d.byHash[h] = append(d.byHash[h], handle)
	d.bytes[handle] = data

	return 0, false
}
