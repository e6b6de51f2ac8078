// Package errs defines the sentinel error values used across the fstio
// module. Decode paths wrap one of these with fmt.Errorf("...: %w", ...) so
// callers can recover the category with errors.Is.
package errs

import "errors"

// I/O errors: the underlying reader/writer failed. Always fatal.
var (
	ErrShortRead  = errors.New("fstio: short read")
	ErrShortWrite = errors.New("fstio: short write")
)

// InvalidData errors: the input is out-of-contract but well-formed at the
// byte level (wrong size, out-of-range field, violated structural rule).
var (
	ErrInvalidHeaderSize      = errors.New("fstio: invalid header size")
	ErrInvalidIndexEntrySize  = errors.New("fstio: invalid index entry size")
	ErrInvalidBlockTag        = errors.New("fstio: invalid block tag")
	ErrInvalidEndianTest      = errors.New("fstio: invalid endian test value")
	ErrZeroWidthGeometry      = errors.New("fstio: zero-width fixed geometry")
	ErrSelfAlias              = errors.New("fstio: handle cannot alias itself")
	ErrHandleOutOfRange       = errors.New("fstio: handle out of range")
	ErrGeometryLengthMismatch = errors.New("fstio: geometry length exceeds u32 range")
	ErrTrailerOutOfBounds     = errors.New("fstio: vc block trailer out of bounds")
)

// Unsupported errors: the input is well-formed but names a feature,
// compression backend, or chain-index version this build does not implement.
var (
	ErrUnsupportedCompression = errors.New("fstio: unsupported compression backend")
	ErrUnsupportedChainIndex  = errors.New("fstio: unsupported chain index tag")
	ErrUnsupportedBlockTag    = errors.New("fstio: unsupported block tag")
)

// Write-time invariant errors: surfaced at emit_change (AppendChange), not
// deferred to flush or encode, so a caller gets a pinpointed error for the
// change that actually violated the invariant.
var (
	ErrNonMonotonicTime      = errors.New("fstio: change time must not precede the handle's previous change")
	ErrValueGeometryMismatch = errors.New("fstio: value kind does not match handle geometry")
)

// Decode errors: content-level failure discovered while interpreting an
// otherwise well-formed envelope (bad varint, marker out of range, scheduling
// mismatch, cycle that could not be resolved).
var (
	ErrVarintTooLong         = errors.New("fstio: varint exceeds maximum length")
	ErrVarintTruncated       = errors.New("fstio: truncated varint")
	ErrInvalidBitMarker      = errors.New("fstio: invalid packed bit marker")
	ErrChainOverflow         = errors.New("fstio: chain payload exceeds bounds")
	ErrChainScheduleMismatch = errors.New("fstio: chain scheduling mismatch")
	ErrTimeIndexOverflow     = errors.New("fstio: time index overflow")
	ErrTimestampOverflow     = errors.New("fstio: timestamp overflow")
	ErrDecompressLenMismatch = errors.New("fstio: decompressed length mismatch")
	ErrTrailingData          = errors.New("fstio: unexpected trailing data")
	ErrChainIndexOverflow    = errors.New("fstio: chain index offset overflow")
	ErrChainOffsetRegressed  = errors.New("fstio: chain offsets must be non-decreasing")
	ErrInvalidAliasTarget    = errors.New("fstio: invalid chain index alias target")
)
