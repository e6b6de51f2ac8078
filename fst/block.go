package fst

import (
	"encoding/binary"
	"fmt"

	"github.com/openfst/fstio/errs"
)

// Block tags, matching the values block/header.rs et al. assign BlockType.
const (
	tagHeader          byte = 0
	tagVcDataLegacy    byte = 1
	tagBlackout        byte = 2
	tagGeometry        byte = 3
	tagHierarchy       byte = 4
	tagVcDataDynAlias  byte = 5
	tagHierarchyLZ4    byte = 6
	tagHierarchyLZ4Duo byte = 7
	tagVcDataDynAlias2 byte = 8
	tagZWrapper        byte = 254
	tagSkip            byte = 255
)

// frameBare wraps payload in the generic tag+section_length envelope,
// for blocks (blackout, value-change) whose own encoding carries no
// section_length field of its own.
func frameBare(tag byte, payload []byte) []byte {
	out := make([]byte, 0, 9+len(payload))
	out = append(out, tag)
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], uint64(8+len(payload)))
	out = append(out, tmp[:]...)
	out = append(out, payload...)

	return out
}

// frameSelf prefixes tag onto a block whose own bytes already begin with
// their own section_length field (header, geometry, hierarchy).
func frameSelf(tag byte, selfFramed []byte) []byte {
	out := make([]byte, 0, 1+len(selfFramed))
	out = append(out, tag)

	return append(out, selfFramed...)
}

// blockSpan describes one parsed block's tag and the two views of its
// bytes a decoder might want: withLength still has the leading
// section_length field (for self-framed decoders), payloadOnly has it
// stripped (for bare decoders).
type blockSpan struct {
	tag         byte
	withLength  []byte
	payloadOnly []byte
	next        int
}

// nextBlock reads one block's tag+section_length envelope starting at pos,
// returning its two payload views and the offset of the following block.
func nextBlock(data []byte, pos int) (blockSpan, error) {
	if pos >= len(data) {
		return blockSpan{}, fmt.Errorf("%w: no more blocks", errs.ErrShortRead)
	}
	tag := data[pos]
	pos++

	if pos+8 > len(data) {
		return blockSpan{}, fmt.Errorf("%w: block section_length", errs.ErrTrailerOutOfBounds)
	}
	sectionLength := binary.BigEndian.Uint64(data[pos : pos+8])
	if sectionLength < 8 {
		return blockSpan{}, fmt.Errorf("%w: block section_length %d", errs.ErrInvalidHeaderSize, sectionLength)
	}
	if pos+int(sectionLength) > len(data) {
		return blockSpan{}, fmt.Errorf("%w: block payload exceeds file", errs.ErrTrailerOutOfBounds)
	}

	withLength := data[pos : pos+int(sectionLength)]
	payloadOnly := data[pos+8 : pos+int(sectionLength)]
	next := pos + int(sectionLength)

	return blockSpan{tag: tag, withLength: withLength, payloadOnly: payloadOnly, next: next}, nil
}
