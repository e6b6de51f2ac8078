package vc

import (
	"encoding/binary"
	"fmt"

	"github.com/openfst/fstio/chain"
	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/frame"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
	"github.com/openfst/fstio/varint"
)

// BlockBuilder accumulates one value-change block's worth of signal
// activity and serializes it on Encode. Callers append changes in
// increasing time-index order per handle (the same contract chain.Builder
// enforces); the local time index a change is appended at is a position
// into timestamps, not an absolute simulation time.
type BlockBuilder struct {
	geo            geom.Info
	beginTime      uint64
	endTime        uint64
	requiredMemory uint64
	timestamps     []uint64
	chainMarker    compress.Marker
	timeMarker     compress.Marker
	frameCompress  bool

	frame   *frame.State
	chains  map[uint32]*chain.Builder
	aliasOf map[uint32]uint32
}

// NewBlockBuilder returns a builder for a block spanning [beginTime,
// endTime] over geo's handles, scheduled against the fixed local time axis
// timestamps (timestamps[i] is the absolute time that local index i refers
// to in Append calls).
func NewBlockBuilder(geo geom.Info, beginTime, endTime uint64, timestamps []uint64, chainMarker, timeMarker compress.Marker, frameCompress bool) *BlockBuilder {
	return &BlockBuilder{
		geo:           geo,
		beginTime:     beginTime,
		endTime:       endTime,
		timestamps:    timestamps,
		chainMarker:   chainMarker,
		timeMarker:    timeMarker,
		frameCompress: frameCompress,
		frame:         frame.NewState(geo),
		chains:        make(map[uint32]*chain.Builder),
		aliasOf:       make(map[uint32]uint32),
	}
}

// SetRequiredMemory records the reader memory-budget hint stored in the
// block header.
func (bb *BlockBuilder) SetRequiredMemory(n uint64) { bb.requiredMemory = n }

// RequiredMemory computes the default reader memory-budget hint: the
// frame's uncompressed byte length plus the sum of every registered
// handle's raw, pre-compression chain length (spec.md's required_memory
// formula). Call this after every Append and before Encode, and pass the
// result to SetRequiredMemory unless the caller wants to override it.
func (bb *BlockBuilder) RequiredMemory() uint64 {
	total := uint64(len(bb.frame.Bytes()))
	for _, b := range bb.chains {
		total += uint64(b.Len())
	}

	return total
}

// Append records a value change for handle at local time index timeIdx.
// Handle must not have been registered as an alias.
func (bb *BlockBuilder) Append(handle uint32, timeIdx uint64, v signal.Value) error {
	if _, isAlias := bb.aliasOf[handle]; isAlias {
		return fmt.Errorf("fstio: handle %d is an alias, cannot append directly", handle)
	}
	if int(timeIdx) >= len(bb.timestamps) {
		return fmt.Errorf("%w: time index %d", errs.ErrTimeIndexOverflow, timeIdx)
	}

	entry, ok := bb.geo.Entry(handle)
	if !ok {
		return errs.ErrHandleOutOfRange
	}

	if err := bb.frame.Update(handle, v); err != nil {
		return err
	}

	b := bb.chains[handle]
	if b == nil {
		b = chain.NewBuilder(entry)
		bb.chains[handle] = b
	}

	return b.Append(timeIdx, v)
}

// Alias marks handle as sharing canonical's chain and current frame value.
// canonical must already carry (or later receive) its own recorded chain;
// handle itself must never have been appended to directly.
func (bb *BlockBuilder) Alias(handle, canonical uint32) error {
	if handle == canonical {
		return errs.ErrSelfAlias
	}
	if _, ok := bb.chains[handle]; ok {
		return fmt.Errorf("fstio: handle %d already has its own chain, cannot alias", handle)
	}
	bb.aliasOf[handle] = canonical

	return bb.frame.CloneFrom(handle, canonical)
}

func appendU64BE(dst []byte, v uint64) []byte {
	var tmp [8]byte
	binary.BigEndian.PutUint64(tmp[:], v)

	return append(dst, tmp[:]...)
}

// Encode serializes the accumulated block. Handles whose chain bytes are
// byte-identical to an earlier handle's are automatically collapsed into
// aliases of that earlier handle, in addition to any aliases the caller
// registered explicitly.
func (bb *BlockBuilder) Encode() ([]byte, Header, error) {
	frameEnc, err := frame.Encode(bb.frame, bb.frameCompress)
	if err != nil {
		return nil, Header{}, err
	}

	maxHandle := bb.geo.MaxHandle()
	dedup := newChainDedup()
	entries := make([]chain.Entry, maxHandle)
	var chainBuf []byte

	for h := uint32(1); h <= maxHandle; h++ {
		if canon, isAlias := bb.aliasOf[h]; isAlias {
			entries[h-1] = chain.Entry{Kind: chain.EntryAlias, Alias: canon}

			continue
		}

		b := bb.chains[h]
		if b == nil || b.Len() == 0 {
			entries[h-1] = chain.Entry{Kind: chain.EntryEmpty}

			continue
		}

		raw := b.Bytes()
		if dupHandle, found := dedup.findOrRegister(h, raw); found {
			entries[h-1] = chain.Entry{Kind: chain.EntryAlias, Alias: dupHandle}

			continue
		}

		storedLen, payload, err := encodeChainPayload(bb.chainMarker, raw)
		if err != nil {
			return nil, Header{}, err
		}
		offset := uint64(len(chainBuf))
		chainBuf = varint.AppendUint(chainBuf, storedLen)
		chainBuf = append(chainBuf, payload...)
		entries[h-1] = chain.Entry{Kind: chain.EntryData, Offset: offset}
	}

	indexBytes, err := chain.EncodeV1(entries)
	if err != nil {
		return nil, Header{}, err
	}

	timeSection, timePayload, err := EncodeTimeSection(bb.timestamps, bb.timeMarker)
	if err != nil {
		return nil, Header{}, err
	}

	var buf []byte
	buf = appendU64BE(buf, bb.beginTime)
	buf = appendU64BE(buf, bb.endTime)
	buf = appendU64BE(buf, bb.requiredMemory)
	buf = varint.AppendUint(buf, uint64(frameEnc.UncompressedLen))
	buf = varint.AppendUint(buf, uint64(len(frameEnc.Data)))
	buf = varint.AppendUint(buf, uint64(maxHandle))
	buf = append(buf, frameEnc.Data...)
	buf = varint.AppendUint(buf, uint64(maxHandle))
	buf = append(buf, byte(bb.chainMarker))
	buf = append(buf, chainBuf...)
	buf = append(buf, indexBytes...)
	buf = appendU64BE(buf, uint64(len(indexBytes)))
	buf = append(buf, timePayload...)
	buf = appendU64BE(buf, timeSection.UncompressedLen)
	buf = appendU64BE(buf, timeSection.CompressedLen)
	buf = appendU64BE(buf, timeSection.ItemCount)

	header := Header{
		BeginTime:            bb.beginTime,
		EndTime:              bb.endTime,
		RequiredMemory:       bb.requiredMemory,
		FrameUncompressedLen: uint64(frameEnc.UncompressedLen),
		FrameCompressedLen:   uint64(len(frameEnc.Data)),
		FrameMaxHandle:       uint64(maxHandle),
		VcMaxHandle:          uint64(maxHandle),
		PackMarker:           bb.chainMarker,
		IndexLength:          uint64(len(indexBytes)),
	}

	return buf, header, nil
}
