package chain

import (
	"fmt"

	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/varint"
)

// EntryKind classifies one handle's slot in a chain index.
type EntryKind uint8

const (
	// EntryEmpty marks a handle with no recorded value changes.
	EntryEmpty EntryKind = iota
	// EntryData marks a handle whose chain payload starts at Offset.
	EntryData
	// EntryAlias marks a handle that shares another handle's chain payload.
	EntryAlias
)

// Entry is one handle's index contribution, in ascending handle order
// (handle 1 first). Offset is the byte offset, relative to the start of the
// chain buffer, where this handle's payload begins; it is required to be
// non-decreasing across successive EntryData entries, since the index only
// stores deltas between them.
type Entry struct {
	Kind   EntryKind
	Offset uint64
	Alias  uint32 // 1-based target handle, valid when Kind == EntryAlias
}

// indexOffsetBias biases every absolute chain offset by one before delta
// encoding it, so the very first EntryData token (with no predecessor to
// diff against) can never come out to the literal varint(0) reserved for
// the Alias sentinel.
const indexOffsetBias = 1

// EncodeV1 serializes entries into the VcDataDynAlias chain index format:
// a stream of varint tokens, one run of Empty handles flushed as
// varint(emptyRun<<1), one Data handle as varint((delta<<1)|1), and one
// Alias handle as the literal token varint(0) followed by varint(target).
func EncodeV1(entries []Entry) ([]byte, error) {
	var (
		buf      []byte
		emptyRun uint64
		lastAbs  uint64
		seenData bool
	)

	flushEmpty := func() {
		if emptyRun > 0 {
			buf = varint.AppendUint(buf, emptyRun<<1)
			emptyRun = 0
		}
	}

	for _, e := range entries {
		switch e.Kind {
		case EntryEmpty:
			emptyRun++

		case EntryData:
			flushEmpty()
			abs := e.Offset + indexOffsetBias

			var delta uint64
			if seenData {
				if abs < lastAbs {
					return nil, errs.ErrChainOffsetRegressed
				}
				delta = abs - lastAbs
			} else {
				delta = abs
			}
			buf = varint.AppendUint(buf, (delta<<1)|1)
			lastAbs = abs
			seenData = true

		case EntryAlias:
			if e.Alias == 0 {
				return nil, errs.ErrInvalidAliasTarget
			}
			flushEmpty()
			buf = varint.AppendUint(buf, 0)
			buf = varint.AppendUint(buf, uint64(e.Alias))

		default:
			return nil, fmt.Errorf("fstio: unknown chain index entry kind %d", e.Kind)
		}
	}
	flushEmpty()

	return buf, nil
}

// Slot is one handle's resolved index entry: where its chain payload lives
// in the chain buffer (relative offset, byte length), and whether it is an
// alias of another handle's payload. A Slot with Present == false has no
// recorded changes at all.
type Slot struct {
	Present bool
	Offset  uint32
	Length  uint32
	// AliasOf is the 1-based canonical handle this slot's payload belongs
	// to, once alias chains are resolved. It is 0 for a handle that owns
	// its payload directly.
	AliasOf uint32
}

// Index is the fully resolved chain index for one value-change block.
// Slots[i] describes handle i+1.
type Index struct {
	Slots []Slot
}

type entryTmp struct {
	kind   EntryKind
	offset uint64
	alias  int
}

// DecodeV1 parses a VcDataDynAlias chain index out of data and resolves
// every handle's payload offset/length and alias target. chainLen is the
// total size of the chain buffer (chain_end - chain_start), needed to size
// the final Data slot, which has no successor to diff against.
func DecodeV1(data []byte, maxHandle int, chainLen uint64) (*Index, error) {
	entries, err := decodeV1Tokens(data)
	if err != nil {
		return nil, err
	}

	return resolveChainIndex(entries, maxHandle, chainLen)
}

func decodeV1Tokens(data []byte) ([]entryTmp, error) {
	var (
		entries []entryTmp
		pos     int
		lastAbs uint64
	)

	for pos < len(data) {
		value, n, err := varint.DecodeUint(data[pos:])
		if err != nil {
			return nil, err
		}
		pos += n

		if value == 0 {
			alias, n2, err := varint.DecodeUint(data[pos:])
			if err != nil {
				return nil, err
			}
			pos += n2

			if alias == 0 {
				entries = append(entries, entryTmp{kind: EntryEmpty})
			} else {
				entries = append(entries, entryTmp{kind: EntryAlias, alias: int(alias - 1)})
			}

			continue
		}

		if value&1 == 0 {
			repeat := value >> 1
			for i := uint64(0); i < repeat; i++ {
				entries = append(entries, entryTmp{kind: EntryEmpty})
			}

			continue
		}

		delta := value >> 1
		lastAbs += delta
		entries = append(entries, entryTmp{kind: EntryData, offset: lastAbs})
	}

	return entries, nil
}

func resolveChainIndex(entries []entryTmp, maxHandle int, chainLen uint64) (*Index, error) {
	n := len(entries)
	offsets := make([]*uint64, n)
	lengths := make([]*uint32, n)
	aliasTargets := make([]int, n)
	hasPayload := make([]bool, n)
	for i := range aliasTargets {
		aliasTargets[i] = -1
	}

	for i, e := range entries {
		switch e.kind {
		case EntryData:
			off := e.offset
			offsets[i] = &off
			hasPayload[i] = true
		case EntryAlias:
			aliasTargets[i] = e.alias
		}
	}

	for i, off := range offsets {
		if off == nil {
			continue
		}
		if *off < indexOffsetBias {
			return nil, errs.ErrChainIndexOverflow
		}
		unbiased := *off - indexOffsetBias
		offsets[i] = &unbiased
	}

	prevDataIdx := -1
	for i := 0; i < n; i++ {
		if offsets[i] == nil {
			continue
		}
		if prevDataIdx >= 0 {
			length := uint32(*offsets[i] - *offsets[prevDataIdx])
			lengths[prevDataIdx] = &length
		}
		prevDataIdx = i
	}
	if prevDataIdx >= 0 {
		length := uint32(chainLen - *offsets[prevDataIdx])
		lengths[prevDataIdx] = &length
	}

	visiting := make([]bool, n)
	var resolve func(idx int) (uint64, uint32, bool)
	resolve = func(idx int) (uint64, uint32, bool) {
		if offsets[idx] != nil && lengths[idx] != nil {
			return *offsets[idx], *lengths[idx], true
		}
		if visiting[idx] {
			return 0, 0, false
		}
		visiting[idx] = true
		defer func() { visiting[idx] = false }()

		target := aliasTargets[idx]
		if target >= 0 && target < n {
			if off, length, ok := resolve(target); ok {
				offsets[idx] = &off
				lengths[idx] = &length

				return off, length, true
			}
		}

		return 0, 0, false
	}
	for i := 0; i < n; i++ {
		if offsets[i] == nil {
			resolve(i)
		}
	}

	canonMemo := make([]int, n)
	canonVisiting := make([]bool, n)
	for i := range canonMemo {
		canonMemo[i] = -2 // unmemoized sentinel; -1 means "unresolved"
	}
	var resolveCanonical func(idx int) int
	resolveCanonical = func(idx int) int {
		if canonMemo[idx] != -2 {
			return canonMemo[idx]
		}
		if canonVisiting[idx] {
			canonMemo[idx] = -1

			return -1
		}
		canonVisiting[idx] = true

		result := -1
		if hasPayload[idx] {
			result = idx
		} else if target := aliasTargets[idx]; target >= 0 && target < n {
			result = resolveCanonical(target)
		}

		canonVisiting[idx] = false
		canonMemo[idx] = result

		return result
	}
	canonical := make([]int, n)
	for i := 0; i < n; i++ {
		canonical[i] = resolveCanonical(i)
	}

	slots := make([]Slot, n)
	for i := 0; i < n; i++ {
		if offsets[i] == nil || lengths[i] == nil {
			continue
		}
		var aliasOf uint32
		if !hasPayload[i] && canonical[i] >= 0 {
			aliasOf = uint32(canonical[i] + 1)
		}
		slots[i] = Slot{
			Present: true,
			Offset:  uint32(*offsets[i]),
			Length:  *lengths[i],
			AliasOf: aliasOf,
		}
	}

	if len(slots) < maxHandle {
		slots = append(slots, make([]Slot, maxHandle-len(slots))...)
	}

	return &Index{Slots: slots}, nil
}
