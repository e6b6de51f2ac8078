// Package vc implements the value-change block: the core record of signal
// activity inside an FST file. A block covers a contiguous time range and
// holds, per handle, an initial-value frame snapshot plus a delta-encoded
// chain of the changes that occurred after it.
package vc

import "github.com/openfst/fstio/compress"

// Header mirrors the fixed fields of a value-change block: the preamble
// words and varints, the pack marker, and the index length. Every field
// except IndexLength precedes the chain buffer; IndexLength follows the
// chain index. The time-section trailer words are carried by TimeSection,
// not by Header.
type Header struct {
	BeginTime            uint64
	EndTime              uint64
	RequiredMemory       uint64
	FrameUncompressedLen uint64
	FrameCompressedLen   uint64
	FrameMaxHandle       uint64
	VcMaxHandle          uint64
	PackMarker           compress.Marker
	IndexLength          uint64
}
