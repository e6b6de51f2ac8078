package vc

import (
	"encoding/binary"
	"fmt"

	"github.com/openfst/fstio/chain"
	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/frame"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/varint"
)

// Block is a fully parsed value-change block: the header, the decoded
// frame bytes, the raw chain buffer alongside its resolved index, and the
// expanded time table. Chain payloads are decompressed lazily per handle
// via DecodedChain, since a reader that only wants a handful of signals
// should not pay to decompress every handle's chain.
type Block struct {
	Header      Header
	Frame       []byte
	chainBuffer []byte
	index       *chain.Index
	TimeTable   *TimeTable
}

// ParseBlock parses payload, the complete byte range of a value-change
// block (everything after the block's tag+length framing, up to and
// including its trailer). It locates the chain index and time section by
// reading the trailer backward first, the same way a seekable file reader
// would, but operates on an in-memory slice since callers already hold the
// block's bytes once the outer section framing has been resolved.
func ParseBlock(payload []byte) (*Block, error) {
	if len(payload) < 24+8+1 {
		return nil, fmt.Errorf("%w: value-change payload too short", errs.ErrTrailerOutOfBounds)
	}

	pos := 0
	beginTime := readU64BE(payload, &pos)
	endTime := readU64BE(payload, &pos)
	requiredMemory := readU64BE(payload, &pos)

	frameUncompressedLen, err := readVarint(payload, &pos)
	if err != nil {
		return nil, err
	}
	frameCompressedLen, err := readVarint(payload, &pos)
	if err != nil {
		return nil, err
	}
	frameMaxHandle, err := readVarint(payload, &pos)
	if err != nil {
		return nil, err
	}

	if pos+int(frameCompressedLen) > len(payload) {
		return nil, fmt.Errorf("%w: frame payload", errs.ErrTrailerOutOfBounds)
	}
	frameBytes := payload[pos : pos+int(frameCompressedLen)]
	pos += int(frameCompressedLen)

	frameRaw, err := frame.Decode(frameBytes, int(frameUncompressedLen), frameCompressedLen != frameUncompressedLen)
	if err != nil {
		return nil, err
	}

	vcMaxHandle, err := readVarint(payload, &pos)
	if err != nil {
		return nil, err
	}
	if pos >= len(payload) {
		return nil, fmt.Errorf("%w: pack marker", errs.ErrTrailerOutOfBounds)
	}
	packMarker := compress.Marker(payload[pos])
	pos++

	chainStart := pos
	blockEnd := len(payload)

	if blockEnd < 24 {
		return nil, fmt.Errorf("%w: missing trailer", errs.ErrTrailerOutOfBounds)
	}
	trailerStart := blockEnd - 24
	timeUncompressedLen := binary.BigEndian.Uint64(payload[trailerStart : trailerStart+8])
	timeCompressedLen := binary.BigEndian.Uint64(payload[trailerStart+8 : trailerStart+16])
	timeItemCount := binary.BigEndian.Uint64(payload[trailerStart+16 : trailerStart+24])

	timeSection := TimeSection{
		UncompressedLen: timeUncompressedLen,
		CompressedLen:   timeCompressedLen,
		ItemCount:       timeItemCount,
	}

	timeStart := trailerStart - int(timeCompressedLen)
	if timeStart < 0 {
		return nil, fmt.Errorf("%w: time section", errs.ErrTrailerOutOfBounds)
	}

	if timeStart < 8 {
		return nil, fmt.Errorf("%w: index length", errs.ErrTrailerOutOfBounds)
	}
	indexLengthPos := timeStart - 8
	indexLength := binary.BigEndian.Uint64(payload[indexLengthPos : indexLengthPos+8])

	indexStart := indexLengthPos - int(indexLength)
	if indexStart < chainStart {
		return nil, fmt.Errorf("%w: chain index", errs.ErrTrailerOutOfBounds)
	}
	chainEnd := indexStart

	header := Header{
		BeginTime:            beginTime,
		EndTime:              endTime,
		RequiredMemory:       requiredMemory,
		FrameUncompressedLen: frameUncompressedLen,
		FrameCompressedLen:   frameCompressedLen,
		FrameMaxHandle:       frameMaxHandle,
		VcMaxHandle:          vcMaxHandle,
		PackMarker:           packMarker,
		IndexLength:          indexLength,
	}

	idx, err := chain.DecodeV1(payload[indexStart:indexLengthPos], int(vcMaxHandle), uint64(chainEnd-chainStart))
	if err != nil {
		return nil, err
	}

	timeTable, err := DecodeTimeTable(timeSection, packMarker, payload[timeStart:trailerStart])
	if err != nil {
		return nil, err
	}

	return &Block{
		Header:      header,
		Frame:       frameRaw,
		chainBuffer: payload[chainStart:chainEnd],
		index:       idx,
		TimeTable:   timeTable,
	}, nil
}

// DecodedChain returns handle's decompressed chain bytes (the raw marker
// stream chain.Cursor consumes), or (nil, false) if handle has no recorded
// changes at all. Aliased handles resolve transparently to their
// canonical's bytes.
func (b *Block) DecodedChain(handle uint32) ([]byte, bool, error) {
	if handle == 0 || int(handle) > len(b.index.Slots) {
		return nil, false, nil
	}
	slot := b.index.Slots[handle-1]
	if !slot.Present {
		return nil, false, nil
	}

	end := int(slot.Offset) + int(slot.Length)
	if end > len(b.chainBuffer) {
		return nil, false, fmt.Errorf("%w: chain slot for handle %d", errs.ErrChainOverflow, handle)
	}
	slice := b.chainBuffer[slot.Offset:end]

	storedLen, n, err := varint.DecodeUint(slice)
	if err != nil {
		return nil, false, err
	}
	payload := slice[n:]

	raw, err := decodeChainPayload(b.Header.PackMarker, payload, storedLen)
	if err != nil {
		return nil, false, err
	}

	return raw, true, nil
}

// Cursor returns a chain.Cursor positioned at the start of handle's decoded
// chain, using entry to interpret its markers. It returns false when handle
// has no recorded changes.
func (b *Block) Cursor(handle uint32, entry geom.Entry) (*chain.Cursor, bool, error) {
	raw, ok, err := b.DecodedChain(handle)
	if err != nil || !ok {
		return nil, ok, err
	}

	return chain.NewCursor(handle, entry, raw), true, nil
}

// AliasOf reports the canonical handle backing handle's chain payload, or
// 0 if handle owns its payload directly (or has no recorded changes).
func (b *Block) AliasOf(handle uint32) uint32 {
	if handle == 0 || int(handle) > len(b.index.Slots) {
		return 0
	}

	return b.index.Slots[handle-1].AliasOf
}

// Present reports whether handle has any recorded changes (directly or via
// alias) in this block.
func (b *Block) Present(handle uint32) bool {
	if handle == 0 || int(handle) > len(b.index.Slots) {
		return false
	}

	return b.index.Slots[handle-1].Present
}

// MaxHandle returns the highest handle this block's chain index covers.
func (b *Block) MaxHandle() uint32 { return uint32(len(b.index.Slots)) }

func readU64BE(data []byte, pos *int) uint64 {
	v := binary.BigEndian.Uint64(data[*pos : *pos+8])
	*pos += 8

	return v
}

func readVarint(data []byte, pos *int) (uint64, error) {
	v, n, err := varint.DecodeUint(data[*pos:])
	if err != nil {
		return 0, err
	}
	*pos += n

	return v, nil
}
