// Package memory implements the sparse byte-addressed memory model
// (spec §3, §4.2): an ordered sequence of non-overlapping, non-touching
// blocks, with editing (write, clear, delete, fill, flood, crop, shift,
// merge) and transfer (read, view, ToBlocks) operations.
//
// The block list is the dual of the record-file model: both represent a
// discontiguous byte image, one as framed text lines, the other as a
// sorted slice of (start, data) runs. Every mutator re-establishes the
// ordered/disjoint/non-touching invariant before returning, the way the
// teacher's vm.Memory.AddSegment/findSegment keep segments consistent.
package memory

import (
	"fmt"
)

// DefaultSizeGuard is the historic 64 MiB heuristic safety net on wide
// read/fill operations (spec §9). It is a configurable cap, not an
// invariant: set Memory.SizeGuard to 0 to disable it.
const DefaultSizeGuard = 64 * 1024 * 1024

// Block is one contiguous run of bytes starting at Start.
type Block struct {
	Start uint64
	Data  []byte
}

func (b Block) Endex() uint64 {
	return b.Start + uint64(len(b.Data))
}

// Memory is an ordered, disjoint, non-touching sequence of blocks,
// optionally constrained by [StartBound, EndexBound).
type Memory struct {
	blocks []Block

	hasBounds  bool
	startBound uint64
	endexBound uint64

	// SizeGuard caps the size of a single read/fill span; zero disables
	// the cap. Defaults to DefaultSizeGuard via New.
	SizeGuard uint64
}

// New returns an empty memory with the default size guard and no bounds.
func New() *Memory {
	return &Memory{SizeGuard: DefaultSizeGuard}
}

// FromBytes builds a memory containing a single block of data starting at
// offset.
func FromBytes(data []byte, offset uint64) *Memory {
	m := New()
	if len(data) > 0 {
		cp := make([]byte, len(data))
		copy(cp, data)
		m.blocks = []Block{{Start: offset, Data: cp}}
	}
	return m
}

// FromBlocks builds a memory from an arbitrary set of blocks, which need
// not be sorted, disjoint, or non-touching: FromBlocks normalizes them.
func FromBlocks(blocks []Block) (*Memory, error) {
	m := New()
	for _, b := range blocks {
		if len(b.Data) == 0 {
			continue
		}
		if err := m.Write(b.Start, b.Data); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// SetBounds constrains all operations to [start, endex). Pass
// ClearBounds to remove the constraint.
func (m *Memory) SetBounds(start, endex uint64) error {
	if endex < start {
		return memErr("bounds endex %d precedes start %d", endex, start)
	}
	m.hasBounds = true
	m.startBound = start
	m.endexBound = endex
	return m.Crop(start, endex)
}

// ClearBounds removes any bound constraint previously set.
func (m *Memory) ClearBounds() {
	m.hasBounds = false
	m.startBound = 0
	m.endexBound = 0
}

func memErr(format string, args ...interface{}) error {
	return fmt.Errorf("memory: "+format, args...)
}

// Len returns the number of blocks currently stored.
func (m *Memory) Len() int {
	return len(m.blocks)
}

// Span returns the overall [start, endex) covered by the blocks, or
// (0, 0, false) if memory is empty.
func (m *Memory) Span() (start, endex uint64, ok bool) {
	if len(m.blocks) == 0 {
		return 0, 0, false
	}
	return m.blocks[0].Start, m.blocks[len(m.blocks)-1].Endex(), true
}

// ToBlocks returns the canonical block list: sorted, disjoint,
// non-touching. The returned slice (and its Data) are copies, safe for
// the caller to retain or mutate.
func (m *Memory) ToBlocks() []Block {
	out := make([]Block, len(m.blocks))
	for i, b := range m.blocks {
		cp := make([]byte, len(b.Data))
		copy(cp, b.Data)
		out[i] = Block{Start: b.Start, Data: cp}
	}
	return out
}

// indexAtOrAfter returns the index of the first block whose Start is >=
// addr, i.e. the insertion point for a new block starting at addr.
func (m *Memory) indexAtOrAfter(addr uint64) int {
	lo, hi := 0, len(m.blocks)
	for lo < hi {
		mid := (lo + hi) / 2
		if m.blocks[mid].Start < addr {
			lo = mid + 1
		} else {
			hi = mid
		}
	}
	return lo
}

// indexContaining returns the index of the block containing addr, or -1.
func (m *Memory) indexContaining(addr uint64) int {
	idx := m.indexAtOrAfter(addr + 1)
	if idx == 0 {
		return -1
	}
	b := m.blocks[idx-1]
	if addr >= b.Start && addr < b.Endex() {
		return idx - 1
	}
	return -1
}

func (m *Memory) checkSpan(start, endex uint64) error {
	if endex < start {
		return memErr("endex %d precedes start %d", endex, start)
	}
	if m.hasBounds {
		if start < m.startBound || endex > m.endexBound {
			return memErr("span [%d, %d) outside bounds [%d, %d)", start, endex, m.startBound, m.endexBound)
		}
	}
	return nil
}

func (m *Memory) checkGuard(start, endex uint64) error {
	if m.SizeGuard == 0 {
		return nil
	}
	if endex-start > m.SizeGuard {
		return memErr("span of %d bytes exceeds size guard of %d bytes", endex-start, m.SizeGuard)
	}
	return nil
}

// Write replaces bytes at [address, address+len(data)), splitting any
// overlapping blocks and coalescing the result with touching neighbors.
func (m *Memory) Write(address uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	endex := address + uint64(len(data))
	if err := m.checkSpan(address, endex); err != nil {
		return err
	}

	if err := m.clearRange(address, endex); err != nil {
		return err
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	idx := m.indexAtOrAfter(address)
	m.blocks = append(m.blocks, Block{})
	copy(m.blocks[idx+1:], m.blocks[idx:])
	m.blocks[idx] = Block{Start: address, Data: cp}

	m.coalesceAround(idx)
	return nil
}

// clearRange removes content within [start, endex) without shifting
// anything, splitting straddling blocks as needed. Internal helper shared
// by Write and Clear.
func (m *Memory) clearRange(start, endex uint64) error {
	if start >= endex {
		return nil
	}
	var out []Block
	for _, b := range m.blocks {
		bEnd := b.Endex()
		if bEnd <= start || b.Start >= endex {
			out = append(out, b)
			continue
		}
		// Left remainder.
		if b.Start < start {
			out = append(out, Block{Start: b.Start, Data: dup(b.Data[:start-b.Start])})
		}
		// Right remainder.
		if bEnd > endex {
			out = append(out, Block{Start: endex, Data: dup(b.Data[endex-b.Start:])})
		}
	}
	m.blocks = out
	return nil
}

// coalesceAround merges the block at idx with touching neighbors.
func (m *Memory) coalesceAround(idx int) {
	if idx > 0 {
		prev := m.blocks[idx-1]
		cur := m.blocks[idx]
		if prev.Endex() == cur.Start {
			merged := Block{Start: prev.Start, Data: append(dup(prev.Data), cur.Data...)}
			m.blocks = append(m.blocks[:idx-1], append([]Block{merged}, m.blocks[idx+1:]...)...)
			idx--
		}
	}
	if idx+1 < len(m.blocks) {
		cur := m.blocks[idx]
		next := m.blocks[idx+1]
		if cur.Endex() == next.Start {
			merged := Block{Start: cur.Start, Data: append(dup(cur.Data), next.Data...)}
			m.blocks = append(m.blocks[:idx], append([]Block{merged}, m.blocks[idx+2:]...)...)
		}
	}
}

func dup(b []byte) []byte {
	cp := make([]byte, len(b))
	copy(cp, b)
	return cp
}

// Clear deletes bytes in [start, endex), leaving a hole; addresses beyond
// endex are not shifted.
func (m *Memory) Clear(start, endex uint64) error {
	if err := m.checkSpan(start, endex); err != nil {
		return err
	}
	return m.clearRange(start, endex)
}

// Delete deletes bytes in [start, endex) and shifts all content at
// address >= endex down by (endex - start).
func (m *Memory) Delete(start, endex uint64) error {
	if err := m.checkSpan(start, endex); err != nil {
		return err
	}
	if start >= endex {
		return nil
	}
	if err := m.clearRange(start, endex); err != nil {
		return err
	}
	amount := endex - start
	for i := range m.blocks {
		if m.blocks[i].Start >= endex {
			m.blocks[i].Start -= amount
		}
	}
	return nil
}

// Fill writes pattern repeated across [start, endex), overwriting any
// existing content.
func (m *Memory) Fill(start, endex uint64, pattern []byte) error {
	if len(pattern) == 0 {
		return memErr("fill pattern must not be empty")
	}
	if err := m.checkSpan(start, endex); err != nil {
		return err
	}
	if err := m.checkGuard(start, endex); err != nil {
		return err
	}
	if start >= endex {
		return nil
	}
	data := repeatPattern(pattern, endex-start)
	return m.Write(start, data)
}

// Flood writes pattern only into holes within [start, endex), leaving
// existing content untouched.
func (m *Memory) Flood(start, endex uint64, pattern []byte) error {
	if len(pattern) == 0 {
		return memErr("flood pattern must not be empty")
	}
	if err := m.checkSpan(start, endex); err != nil {
		return err
	}
	if err := m.checkGuard(start, endex); err != nil {
		return err
	}
	if start >= endex {
		return nil
	}

	holes := m.holesIn(start, endex)
	for _, h := range holes {
		data := repeatPattern(pattern, h.endex-h.start)
		if err := m.Write(h.start, data); err != nil {
			return err
		}
	}
	return nil
}

type span struct{ start, endex uint64 }

func (m *Memory) holesIn(start, endex uint64) []span {
	var holes []span
	cursor := start
	for _, b := range m.blocks {
		if b.Endex() <= cursor {
			continue
		}
		if b.Start >= endex {
			break
		}
		if b.Start > cursor {
			hEnd := b.Start
			if hEnd > endex {
				hEnd = endex
			}
			holes = append(holes, span{cursor, hEnd})
		}
		if b.Endex() > cursor {
			cursor = b.Endex()
		}
		if cursor >= endex {
			break
		}
	}
	if cursor < endex {
		holes = append(holes, span{cursor, endex})
	}
	return holes
}

func repeatPattern(pattern []byte, n uint64) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = pattern[uint64(i)%uint64(len(pattern))]
	}
	return out
}

// Crop removes all content outside [start, endex).
func (m *Memory) Crop(start, endex uint64) error {
	if endex < start {
		return memErr("endex %d precedes start %d", endex, start)
	}
	var out []Block
	for _, b := range m.blocks {
		bStart, bEnd := b.Start, b.Endex()
		if bEnd <= start || bStart >= endex {
			continue
		}
		ns, ne := bStart, bEnd
		if ns < start {
			ns = start
		}
		if ne > endex {
			ne = endex
		}
		out = append(out, Block{Start: ns, Data: dup(b.Data[ns-bStart : ne-bStart])})
	}
	m.blocks = out
	return nil
}

// Shift adds amount to every block's start address; content and order are
// preserved. amount may be negative; shifting below address 0 is an
// error.
func (m *Memory) Shift(amount int64) error {
	for _, b := range m.blocks {
		if amount < 0 && uint64(-amount) > b.Start {
			return memErr("shift by %d would underflow block at %d", amount, b.Start)
		}
	}
	for i := range m.blocks {
		if amount >= 0 {
			m.blocks[i].Start += uint64(amount)
		} else {
			m.blocks[i].Start -= uint64(-amount)
		}
	}
	return nil
}

// Merge incorporates other into m. Addresses present in other overwrite m.
// If clear is true, the span covered by other is cleared in m before the
// overlay, instead of only the exact overlapping bytes.
func (m *Memory) Merge(other *Memory, clear bool) error {
	if other == nil || len(other.blocks) == 0 {
		return nil
	}
	if clear {
		start, endex, _ := other.Span()
		if err := m.Clear(start, endex); err != nil {
			return err
		}
	}
	for _, b := range other.blocks {
		if err := m.Write(b.Start, b.Data); err != nil {
			return err
		}
	}
	return nil
}

// Read returns the endex-start bytes in [start, endex). Where no block
// covers an address, fill is used if non-nil; otherwise Read fails with a
// hole error.
func (m *Memory) Read(start, endex uint64, fill *byte) ([]byte, error) {
	if endex < start {
		return nil, memErr("endex %d precedes start %d", endex, start)
	}
	if err := m.checkGuard(start, endex); err != nil {
		return nil, err
	}
	out := make([]byte, endex-start)
	if fill != nil {
		for i := range out {
			out[i] = *fill
		}
	}
	for _, b := range m.blocks {
		bStart, bEnd := b.Start, b.Endex()
		if bEnd <= start || bStart >= endex {
			continue
		}
		ns, ne := bStart, bEnd
		if ns < start {
			ns = start
		}
		if ne > endex {
			ne = endex
		}
		copy(out[ns-start:ne-start], b.Data[ns-bStart:ne-bStart])
	}
	if fill == nil && findHole(m, start, endex) {
		return nil, &HoleError{Start: start, Endex: endex}
	}
	return out, nil
}

func findHole(m *Memory, start, endex uint64) bool {
	cursor := start
	for _, b := range m.blocks {
		if b.Endex() <= cursor {
			continue
		}
		if b.Start >= endex {
			break
		}
		if b.Start > cursor {
			return true
		}
		if b.Endex() > cursor {
			cursor = b.Endex()
		}
		if cursor >= endex {
			break
		}
	}
	return cursor < endex
}

// HoleError is returned by Read when fill is nil and [start, endex)
// contains an undefined address.
type HoleError struct {
	Start, Endex uint64
}

func (e *HoleError) Error() string {
	return fmt.Sprintf("memory: hole in [%d, %d) with no fill value", e.Start, e.Endex)
}

// View acquires a read-only borrow over the contiguous region
// [start, endex). The region must be covered by a single block (or be
// empty); otherwise View fails with a non-contiguous error. Release must
// be called, typically via defer, before any mutation on m.
func (m *Memory) View(start, endex uint64) (*View, error) {
	if endex < start {
		return nil, memErr("endex %d precedes start %d", endex, start)
	}
	if start == endex {
		return &View{mem: m, start: start, endex: endex, data: nil}, nil
	}
	idx := m.indexContaining(start)
	if idx < 0 {
		return nil, &NonContiguousError{Start: start, Endex: endex}
	}
	b := m.blocks[idx]
	if endex > b.Endex() {
		return nil, &NonContiguousError{Start: start, Endex: endex}
	}
	return &View{mem: m, start: start, endex: endex, data: b.Data[start-b.Start : endex-b.Start]}, nil
}

// NonContiguousError is returned by View when the requested span is not
// backed by a single contiguous block.
type NonContiguousError struct {
	Start, Endex uint64
}

func (e *NonContiguousError) Error() string {
	return fmt.Sprintf("memory: [%d, %d) is not contiguous", e.Start, e.Endex)
}

// View is a scoped, read-only projection over a contiguous memory region.
// It must be released (via Release, typically deferred) before the
// underlying Memory is mutated again — the Go analogue of the Python
// context-managed view (spec §5, Design Notes / Scoped views).
type View struct {
	mem          *Memory
	start, endex uint64
	data         []byte
	released     bool
}

// Bytes returns the viewed region. Calling Bytes after Release panics.
func (v *View) Bytes() []byte {
	if v.released {
		panic("memory: use of View after Release")
	}
	return v.data
}

// Release ends the borrow. It is idempotent.
func (v *View) Release() {
	v.released = true
	v.data = nil
}
