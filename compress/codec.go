// Package compress implements the pluggable compression backends used by
// every length-prefixed payload in an FST file: chain buffers, frame
// sections, time tables, and (optionally) the hierarchy block's text
// stream. Each backend is identified on the wire by a single marker byte
// (spec §4.2), not by a registry index, so adding a backend never disturbs
// already-written files.
package compress

import (
	"fmt"

	"github.com/openfst/fstio/errs"
)

// Marker identifies a compression backend on the wire. A value-change block
// records one Marker as its pack marker byte, naming the backend for that
// block's chain payloads (a chain whose stored length is zero is raw
// regardless of it); vc.ParseBlock also decodes the block's time table
// with it. The frame section records no marker.
type Marker byte

const (
	// MarkerRaw tags an uncompressed payload. Writers fall back to this
	// marker whenever a backend fails to shrink the input.
	MarkerRaw Marker = 0x00
	// MarkerZlib tags a zlib/DEFLATE stream. '!' and '^' are accepted as
	// decode-only synonyms produced by older writers.
	MarkerZlib        Marker = 'Z'
	MarkerZlibAlt1    Marker = '!'
	MarkerZlibAlt2    Marker = '^'
	MarkerFastLZ Marker = 'F'
	MarkerLZ4    Marker = '4'
)

// Compressor shrinks a byte slice, or reports that it could not.
type Compressor interface {
	// Compress returns a compressed form of data. The caller compares the
	// result's length against len(data) and falls back to storing data raw
	// (stored_len=0) when compression did not help; Compress itself never
	// makes that decision.
	Compress(data []byte) ([]byte, error)
}

// Decompressor expands a previously compressed byte slice.
//
// expectedLen is the uncompressed length recorded alongside the payload
// (frame uncompressed_len, chain stored_len, or time uncompressed_len).
// Implementations must treat a result whose length does not match
// expectedLen as errs.ErrDecompressLenMismatch: the length field exists
// precisely so decoders can catch truncated or substituted payloads before
// handing them to the chain/frame parser.
type Decompressor interface {
	Decompress(data []byte, expectedLen int) ([]byte, error)
}

// Codec bundles a backend's compress and decompress sides, and reports the
// wire marker that identifies it.
type Codec interface {
	Compressor
	Decompressor
	Marker() Marker
}

func checkLen(got []byte, expectedLen int) ([]byte, error) {
	if expectedLen >= 0 && len(got) != expectedLen {
		return nil, fmt.Errorf("%w: got %d want %d", errs.ErrDecompressLenMismatch, len(got), expectedLen)
	}

	return got, nil
}

var builtinCodecs = map[Marker]Codec{
	MarkerRaw:      NewRawCodec(),
	MarkerZlib:     NewZlibCodec(),
	MarkerZlibAlt1: NewZlibCodec(),
	MarkerZlibAlt2: NewZlibCodec(),
	MarkerFastLZ:   NewFastLZCodec(),
	MarkerLZ4:      NewLZ4Codec(),
}

// GetCodec returns the registered Codec for marker, or
// errs.ErrUnsupportedCompression wrapped with the marker value if no
// backend is registered for it. This is the path an Unsupported(<name>
// required) failure (spec §4.9) takes: a recognized-but-unbuilt marker
// reaches here and is reported instead of silently degrading.
func GetCodec(marker Marker) (Codec, error) {
	if codec, ok := builtinCodecs[marker]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("%w: marker %q (0x%02x)", errs.ErrUnsupportedCompression, byte(marker), byte(marker))
}

// CreateCodec resolves a Codec by marker, naming target in the returned
// error for callers that need to say which section failed to resolve a
// backend (e.g. "chain", "frame", "time table").
func CreateCodec(marker Marker, target string) (Codec, error) {
	codec, err := GetCodec(marker)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", target, err)
	}

	return codec, nil
}
