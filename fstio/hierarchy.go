package fstio

import (
	"fmt"

	"github.com/openfst/fstio/compress"
	"github.com/openfst/fstio/errs"
	"github.com/openfst/fstio/varint"
)

// Scope/attribute token tags, shared with the variable-declaration tag
// space: a tag byte is first checked against these reserved values before
// falling back to a VarType.
const (
	tagGenAttrBegin byte = 252
	tagGenAttrEnd   byte = 253
	tagVcdScope     byte = 254
	tagVcdUpscope   byte = 255
)

// HierarchyBlockTag selects which compression wrapper a hierarchy block's
// payload uses.
type HierarchyBlockTag uint8

const (
	// HierarchyPlain is block tag 4: zlib-or-raw, chosen by whether the
	// stored length differs from the declared uncompressed length.
	HierarchyPlain HierarchyBlockTag = iota
	// HierarchyLZ4 is block tag 6: single-stage LZ4 block-mode payload.
	HierarchyLZ4
	// HierarchyLZ4Duo is block tag 7: LZ4 applied twice, with a varint
	// recording the first stage's compressed length ahead of the second.
	HierarchyLZ4Duo
)

// Scope describes one entered scope (module, architecture, etc.).
type Scope struct {
	ScopeType byte
	Name      string
	Component string
	Parent    int // index into Hierarchy.Scopes, or -1 for top level
}

// Attribute is a `$attrbegin`-style metadata item emitted inline in the
// hierarchy token stream.
type Attribute struct {
	AttrType byte
	Subtype  byte
	Name     string
	Argument uint64
	Scope    int // index into Hierarchy.Scopes, or -1
}

// Var describes one declared (or aliased) variable.
type Var struct {
	VarType   byte
	Direction byte
	Name      string
	Length    uint32 // 0 means unspecified
	Handle    uint32
	AliasOf   uint32 // 0 unless IsAlias
	Scope     int    // index into Hierarchy.Scopes, or -1
	IsAlias   bool
}

// itemKind tags one entry of the token stream's original ordering, letting
// Hierarchy re-emit scopes, attributes, and variables interleaved exactly
// as declared instead of grouped by kind.
type itemKind uint8

const (
	itemScopeBegin itemKind = iota
	itemScopeEnd
	itemAttrBegin
	itemAttrEnd
	itemVar
)

type item struct {
	kind  itemKind
	index int
}

// Hierarchy is a fully decoded hierarchy block (tags 4, 6, 7): the ordered
// token stream plus the structured scope/attribute/variable tables an FST
// reader needs to resolve a handle to its name and declared position.
type Hierarchy struct {
	items      []item
	openScopes []int
	nextHandle uint32

	Scopes     []Scope
	Attributes []Attribute
	Vars       []Var
}

// BeginScope appends a scope-entry token and returns the new scope's index.
func (h *Hierarchy) BeginScope(scopeType byte, name, component string) int {
	parent := -1
	if len(h.openScopes) > 0 {
		parent = h.openScopes[len(h.openScopes)-1]
	}
	h.Scopes = append(h.Scopes, Scope{ScopeType: scopeType, Name: name, Component: component, Parent: parent})
	idx := len(h.Scopes) - 1
	h.openScopes = append(h.openScopes, idx)
	h.items = append(h.items, item{kind: itemScopeBegin, index: idx})

	return idx
}

// EndScope appends the matching upscope token for the most recently opened,
// still-open scope.
func (h *Hierarchy) EndScope() error {
	if len(h.openScopes) == 0 {
		return fmt.Errorf("%w: no open scope to end", errs.ErrTrailingData)
	}
	h.openScopes = h.openScopes[:len(h.openScopes)-1]
	h.items = append(h.items, item{kind: itemScopeEnd})

	return nil
}

// AddVar appends a non-alias variable declaration, assigning it the next
// sequential handle, and returns that handle.
func (h *Hierarchy) AddVar(varType, direction byte, name string, length uint32) uint32 {
	h.nextHandle++
	scope := -1
	if len(h.openScopes) > 0 {
		scope = h.openScopes[len(h.openScopes)-1]
	}
	h.Vars = append(h.Vars, Var{
		VarType: varType, Direction: direction, Name: name,
		Length: length, Handle: h.nextHandle, Scope: scope,
	})
	h.items = append(h.items, item{kind: itemVar, index: len(h.Vars) - 1})

	return h.nextHandle
}

// AddVarAlias appends a variable declaration that reuses an already
// declared handle's chain, matching the on-disk convention that an alias
// entry carries its target handle instead of allocating a new one.
func (h *Hierarchy) AddVarAlias(varType, direction byte, name string, length uint32, target uint32) {
	scope := -1
	if len(h.openScopes) > 0 {
		scope = h.openScopes[len(h.openScopes)-1]
	}
	h.Vars = append(h.Vars, Var{
		VarType: varType, Direction: direction, Name: name,
		Length: length, Handle: target, AliasOf: target, Scope: scope, IsAlias: true,
	})
	h.items = append(h.items, item{kind: itemVar, index: len(h.Vars) - 1})
}

// Handles returns the geometry-relevant signal count: the highest handle
// any declared (non-alias) variable assigns. Combined with the geometry
// block, this lets a reader size a geom.Info before consulting the
// hierarchy at all.
func (h Hierarchy) Handles() uint32 {
	var max uint32
	for _, v := range h.Vars {
		if v.Handle > max {
			max = v.Handle
		}
	}

	return max
}

// DecodeHierarchy parses a hierarchy block's self-framed payload (the
// bytes EncodeHierarchy produces: section_length, uncompressed_len, any
// stage prefix, then the compressed or raw body) into a Hierarchy.
func DecodeHierarchy(tag HierarchyBlockTag, payload []byte) (Hierarchy, error) {
	raw, err := decompressHierarchy(tag, payload)
	if err != nil {
		return Hierarchy{}, err
	}

	return parseHierarchyStream(raw)
}

func decompressHierarchy(tag HierarchyBlockTag, payload []byte) ([]byte, error) {
	if len(payload) < 16 {
		return nil, fmt.Errorf("%w: hierarchy section shorter than required metadata", errs.ErrInvalidHeaderSize)
	}
	pos := 0
	sectionLength := readU64(payload, &pos)
	if int(sectionLength) > len(payload) {
		return nil, fmt.Errorf("%w: hierarchy section exceeds available bytes", errs.ErrTrailerOutOfBounds)
	}
	uncompressedLen := readU64(payload, &pos)
	// sectionLength counts itself (8 bytes); everything after it up to
	// sectionLength is uncompressed_len (already consumed) plus body.
	body := payload[pos:sectionLength]

	switch tag {
	case HierarchyPlain:
		if uint64(len(body)) == uncompressedLen {
			return body, nil
		}

		return compress.NewZlibCodec().Decompress(body, int(uncompressedLen))
	case HierarchyLZ4:
		return compress.NewLZ4Codec().Decompress(body, int(uncompressedLen))
	case HierarchyLZ4Duo:
		stageLen, n, err := varint.DecodeUint(body)
		if err != nil {
			return nil, err
		}
		stage2 := body[n:]
		lz4 := compress.NewLZ4Codec()
		stage1, err := lz4.Decompress(stage2, int(stageLen))
		if err != nil {
			return nil, err
		}

		return lz4.Decompress(stage1, int(uncompressedLen))
	default:
		return nil, fmt.Errorf("%w: hierarchy block tag %d", errs.ErrUnsupportedBlockTag, tag)
	}
}

func parseHierarchyStream(data []byte) (Hierarchy, error) {
	var h Hierarchy
	var scopeStack []int
	var currentHandle uint32

	pos := 0
	for pos < len(data) {
		tag := data[pos]
		pos++

		switch tag {
		case tagVcdScope:
			if pos >= len(data) {
				return Hierarchy{}, errs.ErrVarintTruncated
			}
			scopeType := data[pos]
			pos++
			name, n, err := readCString(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n
			component, n, err := readCString(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n

			parent := -1
			if len(scopeStack) > 0 {
				parent = scopeStack[len(scopeStack)-1]
			}
			h.Scopes = append(h.Scopes, Scope{ScopeType: scopeType, Name: name, Component: component, Parent: parent})
			idx := len(h.Scopes) - 1
			scopeStack = append(scopeStack, idx)
			h.items = append(h.items, item{kind: itemScopeBegin, index: idx})

		case tagVcdUpscope:
			if len(scopeStack) == 0 {
				return Hierarchy{}, fmt.Errorf("%w: upscope without matching scope", errs.ErrTrailingData)
			}
			scopeStack = scopeStack[:len(scopeStack)-1]
			h.items = append(h.items, item{kind: itemScopeEnd})

		case tagGenAttrBegin:
			if pos+2 > len(data) {
				return Hierarchy{}, errs.ErrVarintTruncated
			}
			attrType, subtype := data[pos], data[pos+1]
			pos += 2
			name, n, err := readCString(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n
			arg, n, err := varint.DecodeUint(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n

			scope := -1
			if len(scopeStack) > 0 {
				scope = scopeStack[len(scopeStack)-1]
			}
			h.Attributes = append(h.Attributes, Attribute{AttrType: attrType, Subtype: subtype, Name: name, Argument: arg, Scope: scope})
			idx := len(h.Attributes) - 1
			h.items = append(h.items, item{kind: itemAttrBegin, index: idx})

		case tagGenAttrEnd:
			h.items = append(h.items, item{kind: itemAttrEnd})

		default:
			if pos >= len(data) {
				return Hierarchy{}, errs.ErrVarintTruncated
			}
			direction := data[pos]
			pos++
			name, n, err := readCString(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n
			length, n, err := varint.DecodeUint(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n
			alias, n, err := varint.DecodeUint(data[pos:])
			if err != nil {
				return Hierarchy{}, err
			}
			pos += n

			var handle, aliasOf uint32
			isAlias := alias != 0
			if !isAlias {
				currentHandle++
				handle = currentHandle
			} else {
				handle = uint32(alias)
				aliasOf = handle
			}

			scope := -1
			if len(scopeStack) > 0 {
				scope = scopeStack[len(scopeStack)-1]
			}
			h.Vars = append(h.Vars, Var{
				VarType: tag, Direction: direction, Name: name,
				Length: uint32(length), Handle: handle, AliasOf: aliasOf,
				Scope: scope, IsAlias: isAlias,
			})
			idx := len(h.Vars) - 1
			h.items = append(h.items, item{kind: itemVar, index: idx})
		}
	}

	if len(scopeStack) != 0 {
		return Hierarchy{}, fmt.Errorf("%w: unterminated scopes", errs.ErrTrailingData)
	}

	return h, nil
}

// EncodeHierarchy re-emits h's token stream in its original order and
// wraps it per tag: raw-or-zlib for HierarchyPlain, single-stage LZ4 for
// HierarchyLZ4, or two-stage LZ4 (with a varint stage-1 length prefix) for
// HierarchyLZ4Duo. The returned bytes are the block's complete self-framed
// payload (section_length, uncompressed_len, any stage prefix, then the
// body), ready to follow the block's own tag byte with no further outer
// length wrapping.
func EncodeHierarchy(h Hierarchy, tag HierarchyBlockTag) ([]byte, error) {
	raw := emitHierarchyStream(h)
	uncompressedLen := uint64(len(raw))

	var stagePrefix, body []byte
	switch tag {
	case HierarchyPlain:
		compressed, err := compress.NewZlibCodec().Compress(raw)
		if err == nil && len(compressed) < len(raw) {
			body = compressed
		} else {
			body = raw
		}
	case HierarchyLZ4:
		compressed, err := compress.NewLZ4Codec().Compress(raw)
		if err != nil {
			return nil, err
		}
		body = compressed
	case HierarchyLZ4Duo:
		lz4 := compress.NewLZ4Codec()
		stage1, err := lz4.Compress(raw)
		if err != nil {
			return nil, err
		}
		stage2, err := lz4.Compress(stage1)
		if err != nil {
			return nil, err
		}
		stagePrefix = varint.AppendUint(nil, uint64(len(stage1)))
		body = stage2
	default:
		return nil, fmt.Errorf("%w: hierarchy block tag %d", errs.ErrUnsupportedBlockTag, tag)
	}

	sectionLength := uint64(8+8+len(stagePrefix)+len(body))
	out := appendU64(nil, sectionLength)
	out = appendU64(out, uncompressedLen)
	out = append(out, stagePrefix...)
	out = append(out, body...)

	return out, nil
}

func emitHierarchyStream(h Hierarchy) []byte {
	var out []byte
	for _, it := range h.items {
		switch it.kind {
		case itemScopeBegin:
			s := h.Scopes[it.index]
			out = append(out, tagVcdScope, s.ScopeType)
			out = appendCString(out, s.Name)
			out = appendCString(out, s.Component)
		case itemScopeEnd:
			out = append(out, tagVcdUpscope)
		case itemAttrBegin:
			a := h.Attributes[it.index]
			out = append(out, tagGenAttrBegin, a.AttrType, a.Subtype)
			out = appendCString(out, a.Name)
			out = varint.AppendUint(out, a.Argument)
		case itemAttrEnd:
			out = append(out, tagGenAttrEnd)
		case itemVar:
			v := h.Vars[it.index]
			out = append(out, v.VarType, v.Direction)
			out = appendCString(out, v.Name)
			out = varint.AppendUint(out, uint64(v.Length))
			out = varint.AppendUint(out, uint64(v.AliasOf))
		}
	}

	return out
}

func readCString(data []byte) (string, int, error) {
	for i, b := range data {
		if b == 0 {
			return string(data[:i]), i + 1, nil
		}
	}

	return "", 0, fmt.Errorf("%w: unterminated hierarchy string", errs.ErrTrailingData)
}

func appendCString(buf []byte, s string) []byte {
	buf = append(buf, s...)

	return append(buf, 0)
}
