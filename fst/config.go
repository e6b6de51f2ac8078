// Package fst ties the header, geometry, blackout, hierarchy and
// value-change block packages together into a single file-level Writer and
// Reader. It owns the outer tag+section_length framing that package vc's
// blocks don't carry themselves, the Z-wrapper special case, and the
// per-block dispatch a conforming file walk requires.
package fst

import (
	"fmt"
	"runtime"

	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/fstio"
	"github.com/openfst/fstio/internal/options"
)

// ChainIndexVersion selects the on-disk chain index format a Writer emits
// and a Reader accepts.
type ChainIndexVersion uint8

const (
	// ChainIndexV1 is the VcDataDynAlias (tag 5) format: a varint run-length
	// stream of Empty/Data/Alias tokens. This is the only version this
	// build can write or read.
	ChainIndexV1 ChainIndexVersion = iota
	// ChainIndexV2 is the VcDataDynAlias2 (tag 8) format: a signed-zigzag
	// chain index. No encoder or decoder exists for it; selecting it is
	// rejected at option-apply time, and a Reader that encounters tag 8 on
	// disk fails with errs.ErrUnsupportedChainIndex before ever reaching
	// package chain.
	ChainIndexV2
)

// config holds the fields WriterOption and ReaderOption mutate. A single
// struct backs both option sets since most of the knobs (compression
// backends, chain-index version) apply identically on either side; Writer
// and Reader each read only the fields relevant to them.
type config struct {
	chainMarker    compress.Marker
	timeMarker     compress.Marker
	frameCompress  bool
	useCompression bool // geometry/hierarchy block compression
	chainVersion   ChainIndexVersion
	workerCount    int
	hierarchyTag   fstio.HierarchyBlockTag
	version        string
	date           string
	timescaleExp   int8
	fileType       uint8
}

func defaultConfig() *config {
	return &config{
		chainMarker:    compress.MarkerZlib,
		timeMarker:     compress.MarkerZlib,
		frameCompress:  true,
		useCompression: true,
		chainVersion:   ChainIndexV1,
		workerCount:    1,
		hierarchyTag:   fstio.HierarchyPlain,
		version:        "fstio",
		timescaleExp:   -9,
	}
}

// WriterOption configures a Writer constructed by NewWriter.
type WriterOption = options.Option[*config]

// ReaderOption configures a Reader constructed by NewReader.
type ReaderOption = options.Option[*config]

// WithChainCompression selects the compression backend used for each
// handle's chain payload.
func WithChainCompression(marker compress.Marker) WriterOption {
	return options.New(func(c *config) error {
		if _, err := compress.GetCodec(marker); err != nil {
			return err
		}
		c.chainMarker = marker

		return nil
	})
}

// WithTimeCompression selects the compression backend used for a block's
// time table.
func WithTimeCompression(marker compress.Marker) WriterOption {
	return options.New(func(c *config) error {
		if _, err := compress.GetCodec(marker); err != nil {
			return err
		}
		c.timeMarker = marker

		return nil
	})
}

// WithFrameCompression toggles whether the frame section is
// zlib-compressed when doing so shrinks it (frame.Encode already falls
// back to raw storage on its own when compression doesn't help; this
// option controls whether it is attempted at all).
func WithFrameCompression(enabled bool) WriterOption {
	return options.NoError(func(c *config) { c.frameCompress = enabled })
}

// WithBlockCompression toggles zlib compression of the geometry and
// hierarchy blocks (independent of the chain/frame/time-table backends,
// which those blocks don't use).
func WithBlockCompression(enabled bool) WriterOption {
	return options.NoError(func(c *config) { c.useCompression = enabled })
}

// WithChainIndexVersion selects the chain index format. Only ChainIndexV1
// is implemented; requesting ChainIndexV2 fails immediately rather than
// silently falling back, since a caller asking for v2 almost certainly
// needs interop with a v2 reader this build cannot provide.
func WithChainIndexVersion(v ChainIndexVersion) options.Option[*config] {
	return options.New(func(c *config) error {
		if v != ChainIndexV1 {
			return fmt.Errorf("%w: chain index version %d", errs.ErrUnsupportedChainIndex, v)
		}
		c.chainVersion = v

		return nil
	})
}

// WithHierarchyEncoding selects the compression wrapper the hierarchy
// block is written with (plain zlib-or-raw, single-stage LZ4, or two-stage
// LZ4). Decoding honors whichever tag the file's hierarchy block actually
// carries regardless of this setting; it only affects what NewWriter emits.
func WithHierarchyEncoding(tag fstio.HierarchyBlockTag) WriterOption {
	return options.NoError(func(c *config) { c.hierarchyTag = tag })
}

// WithVersionString sets the header's version field (truncated to 127
// bytes plus terminator if longer).
func WithVersionString(v string) WriterOption {
	return options.NoError(func(c *config) { c.version = v })
}

// WithDateString sets the header's date field (truncated to 118 bytes
// plus terminator if longer).
func WithDateString(d string) WriterOption {
	return options.NoError(func(c *config) { c.date = d })
}

// WithTimescaleExponent sets the power-of-ten multiplier (e.g. -9 for
// nanoseconds) recorded timestamps are scaled by.
func WithTimescaleExponent(exp int8) WriterOption {
	return options.NoError(func(c *config) { c.timescaleExp = exp })
}

// WithFileType sets the header's file_type byte.
func WithFileType(t uint8) WriterOption {
	return options.NoError(func(c *config) { c.fileType = t })
}

// WithWorkerCount sets how many goroutines Reader.DecodeAllChains uses to
// decompress independent chain payloads in parallel. A count <= 0 resets to
// runtime.GOMAXPROCS(0).
func WithWorkerCount(n int) ReaderOption {
	return options.NoError(func(c *config) {
		if n <= 0 {
			n = runtime.GOMAXPROCS(0)
		}
		c.workerCount = n
	})
}
