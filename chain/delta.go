// Package chain implements the per-handle chain payload codec (spec.md
// §4.4) and the chain index that locates each handle's chain within a VC
// block's chain buffer (spec.md §4.5).
package chain

import "github.com/openfst/fstio/geom"

// ExtractDelta pulls the time-index delta out of a decoded marker value.
// Bit markers pack the delta above either a 1-bit or 3-bit value field
// depending on the flag bit, so the shift depends on which form the marker
// took; every other kind always shifts by 1.
func ExtractDelta(kind geom.Kind, marker uint64) uint64 {
	if kind == geom.KindFixed1 {
		flag := marker & 1
		shift := uint(2) << flag

		return marker >> shift
	}

	return marker >> 1
}
