package compress

// RawCodec is the identity backend (marker 0x00): it returns its input
// unchanged. Every compressed payload in an FST file can fall back to this
// backend when a real backend fails to shrink the data (spec §4.2's "store
// raw, stored_len=0" rule).
type RawCodec struct{}

var _ Codec = RawCodec{}

// NewRawCodec returns the raw/no-compression backend.
func NewRawCodec() RawCodec { return RawCodec{} }

func (RawCodec) Marker() Marker { return MarkerRaw }

// Compress returns data unchanged; the returned slice shares memory with
// the input and must not be mutated by the caller.
func (RawCodec) Compress(data []byte) ([]byte, error) {
	return data, nil
}

func (RawCodec) Decompress(data []byte, expectedLen int) ([]byte, error) {
	return checkLen(data, expectedLen)
}
