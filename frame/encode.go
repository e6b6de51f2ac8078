package frame

import (
	"github.com/openfst/fstio/compress"
)

// Encoded is a frame section ready to be written into a VC block: the
// uncompressed length (always recorded so the reader knows the target
// buffer size) plus the stored bytes, which are either the zlib-compressed
// form or, if compression did not shrink the data, the raw bytes
// (spec.md's universal "store raw when compression doesn't help" rule).
type Encoded struct {
	UncompressedLen int
	Data            []byte
	Compressed      bool
}

// Encode serializes s's current snapshot, attempting zlib compression when
// useCompression is true and falling back to raw storage if the compressed form
// is not strictly smaller.
func Encode(s *State, useCompression bool) (Encoded, error) {
	raw := s.Bytes()
	if !useCompression || len(raw) == 0 {
		return Encoded{UncompressedLen: len(raw), Data: raw, Compressed: false}, nil
	}

	codec := compress.NewZlibCodec()
	compressed, err := codec.Compress(raw)
	if err != nil {
		return Encoded{}, err
	}
	if len(compressed) < len(raw) {
		return Encoded{UncompressedLen: len(raw), Data: compressed, Compressed: true}, nil
	}

	return Encoded{UncompressedLen: len(raw), Data: raw, Compressed: false}, nil
}

// Decode expands a stored frame payload back to its raw uncompressedLen
// bytes, using the zlib backend when compressed is true.
func Decode(data []byte, uncompressedLen int, compressed bool) ([]byte, error) {
	if !compressed {
		return data, nil
	}

	codec := compress.NewZlibCodec()

	return codec.Decompress(data, uncompressedLen)
}
