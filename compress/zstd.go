package compress

// zstdMarker is not part of the VC-block wire contract; ZstdCodec is an
// archival-tier enrichment backend chosen for compression ratio over speed.
// GetCodec does not resolve its marker, and no block encoder in this module
// uses it (the hierarchy block uses only zlib and LZ4).
const zstdMarker Marker = 'D'

// ZstdCodec compresses with Zstandard. Its Compress/Decompress methods are
// provided by zstd_cgo.go (cgo builds, via gozstd) or zstd_pure.go (pure Go
// builds, via klauspost/compress/zstd) depending on build tags.
type ZstdCodec struct{}

var _ Codec = ZstdCodec{}

// NewZstdCodec returns the Zstd enrichment backend.
func NewZstdCodec() ZstdCodec { return ZstdCodec{} }

func (ZstdCodec) Marker() Marker { return zstdMarker }
