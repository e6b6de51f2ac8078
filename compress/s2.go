package compress

import "github.com/klauspost/compress/s2"

// s2Marker is not part of the VC-block wire contract (spec §4.2 names only
// Raw/Zlib/LZ4/FastLZ); it exists so S2Codec still satisfies Codec for
// callers that pick a backend outside the chain/frame/time registry. No
// block encoder in this module uses S2Codec; the hierarchy block uses only
// zlib and LZ4.
const s2Marker Marker = 'S'

// S2Codec is an enrichment backend: faster than zlib, better ratio than
// LZ4, available to any component that does not need to round-trip through
// the fixed marker-byte registry (GetCodec/CreateCodec only resolve the
// markers spec.md actually puts on the wire).
type S2Codec struct{}

var _ Codec = S2Codec{}

// NewS2Codec returns the S2 enrichment backend.
func NewS2Codec() S2Codec { return S2Codec{} }

func (S2Codec) Marker() Marker { return s2Marker }

func (S2Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	return s2.Encode(nil, data), nil
}

func (S2Codec) Decompress(data []byte, expectedLen int) ([]byte, error) {
	if len(data) == 0 {
		return checkLen(nil, expectedLen)
	}

	out, err := s2.Decode(nil, data)
	if err != nil {
		return nil, err
	}

	return checkLen(out, expectedLen)
}
