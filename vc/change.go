package vc

import (
	"container/heap"
	"sort"

	"github.com/openfst/fstio/chain"
	"github.com/openfst/fstio/geom"
	"github.com/openfst/fstio/signal"
)

// Change is one scheduled value change: handle took on value at local time
// index TimeIndex (an index into the block's TimeTable, not an absolute
// timestamp).
type Change struct {
	TimeIndex uint64
	Handle    uint32
	Value     signal.Value
}

// groupCursor drives every handle that shares one canonical chain. All
// aliases of a handle change in lockstep with it, since they read the
// identical encoded byte stream.
type groupCursor struct {
	handles []uint32
	cur     *chain.Cursor
	nextIdx uint64
}

type cursorHeap []*groupCursor

func (h cursorHeap) Len() int { return len(h) }
func (h cursorHeap) Less(i, j int) bool {
	if h[i].nextIdx != h[j].nextIdx {
		return h[i].nextIdx < h[j].nextIdx
	}

	return h[i].handles[0] < h[j].handles[0]
}
func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *cursorHeap) Push(x any)   { *h = append(*h, x.(*groupCursor)) }
func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]

	return item
}

// Iterator walks a parsed block's value changes in increasing time-index
// order, exactly once per recorded event and handle. Changes at the same
// time index are grouped by shared chain: groups come in order of their
// smallest handle, and the handles of one group (canonical and aliases)
// follow each other in increasing handle order.
// It is grounded on the same per-time-index scheduling contract
// chain.Cursor.ReadValue enforces: a handle's next entry must land on the
// time index the scheduler predicted from its marker's delta.
type Iterator struct {
	h       cursorHeap
	pending []Change
}

// NewIterator builds an Iterator over every handle b's chain index
// declares present, using geo to interpret each canonical handle's
// markers.
func NewIterator(b *Block, geo geom.Info) (*Iterator, error) {
	groupsByCanon := make(map[uint32][]uint32)

	for h := uint32(1); h <= b.MaxHandle(); h++ {
		if !b.Present(h) {
			continue
		}
		canon := b.AliasOf(h)
		if canon == 0 {
			canon = h
		}
		groupsByCanon[canon] = append(groupsByCanon[canon], h)
	}

	it := &Iterator{}
	for canon, handles := range groupsByCanon {
		sort.Slice(handles, func(i, j int) bool { return handles[i] < handles[j] })

		entry, ok := geo.Entry(canon)
		if !ok {
			continue
		}
		cur, ok, err := b.Cursor(canon, entry)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}

		g := &groupCursor{handles: handles, cur: cur}
		if primeGroup(g) {
			it.h = append(it.h, g)
		}
	}
	heap.Init(&it.h)

	return it, nil
}

func primeGroup(g *groupCursor) bool {
	delta, ok, err := g.cur.PeekDelta()
	if err != nil || !ok {
		return false
	}
	g.nextIdx = g.cur.CurrentTimeIndex() + delta

	return true
}

// Next returns the next scheduled Change, or (Change{}, false, nil) once
// every handle's chain has been fully consumed.
func (it *Iterator) Next() (Change, bool, error) {
	if len(it.pending) > 0 {
		c := it.pending[0]
		it.pending = it.pending[1:]

		return c, true, nil
	}

	if it.h.Len() == 0 {
		return Change{}, false, nil
	}

	g := heap.Pop(&it.h).(*groupCursor)
	timeIdx := g.nextIdx

	val, err := g.cur.ReadValue(timeIdx)
	if err != nil {
		return Change{}, false, err
	}

	for _, handle := range g.handles {
		it.pending = append(it.pending, Change{TimeIndex: timeIdx, Handle: handle, Value: val})
	}

	if primeGroup(g) {
		heap.Push(&it.h, g)
	}

	c := it.pending[0]
	it.pending = it.pending[1:]

	return c, true, nil
}
