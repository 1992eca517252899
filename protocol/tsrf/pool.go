package tsrf

import (
	"fmt"
	"log"

	"github.com/sarchlab/protoengine/sim"
)

// RequestKind selects which entries an allocation may use.
type RequestKind int

// Request kinds. Writeback and local requests may fall back to an entry
// reserved for their kind when the general entries are exhausted.
const (
	Normal RequestKind = iota
	WritebackReserved
	LocalReserved
)

func (k RequestKind) String() string {
	switch k {
	case Normal:
		return "Normal"
	case WritebackReserved:
		return "WritebackReserved"
	case LocalReserved:
		return "LocalReserved"
	}

	return fmt.Sprintf("RequestKind(%d)", int(k))
}

// A Slot refers to one generation of one pool entry.
type Slot struct {
	index int
	gen   uint64
}

// Pool is a Transaction State Register File with N general entries, one
// entry reserved for writebacks and flushes, and one reserved for local
// requests.
type Pool struct {
	entries []entry

	free       []int
	wbIndex    int
	localIndex int
	wbAvail    bool
	localAvail bool
}

// NewPool creates a pool with size general entries plus the two reserved
// entries.
func NewPool(size int) *Pool {
	if size < 0 {
		log.Panicf("TSRF size %d cannot be negative", size)
	}

	p := &Pool{
		entries:    make([]entry, size+2),
		wbIndex:    size,
		localIndex: size + 1,
		wbAvail:    true,
		localAvail: true,
	}

	for i := range p.entries {
		p.entries[i].vacate()
	}

	for i := size - 1; i >= 0; i-- {
		p.free = append(p.free, i)
	}

	return p
}

// Capacity returns the number of entries, reserved ones included.
func (p *Pool) Capacity() int {
	return len(p.entries)
}

// NumInUse returns the number of entries currently allocated.
func (p *Pool) NumInUse() int {
	n := 0
	for i := range p.entries {
		if p.entries[i].inUse {
			n++
		}
	}

	return n
}

// IsEntryAvail tells if Allocate would succeed for the kind.
func (p *Pool) IsEntryAvail(kind RequestKind) bool {
	if len(p.free) > 0 {
		return true
	}

	switch kind {
	case WritebackReserved:
		return p.wbAvail
	case LocalReserved:
		return p.localAvail
	}

	return false
}

// Allocate takes an entry. Callers must check IsEntryAvail first.
func (p *Pool) Allocate(kind RequestKind) Slot {
	var index int

	switch {
	case len(p.free) > 0:
		index = p.free[len(p.free)-1]
		p.free = p.free[:len(p.free)-1]
	case kind == WritebackReserved && p.wbAvail:
		index = p.wbIndex
		p.wbAvail = false
	case kind == LocalReserved && p.localAvail:
		index = p.localIndex
		p.localAvail = false
	default:
		log.Panicf("no TSRF entry available for a %s request", kind)
	}

	e := &p.entries[index]
	e.inUse = true
	e.vacated = false

	return Slot{index: index, gen: e.gen}
}

// Spawn allocates an entry and binds a new thread to it.
func (p *Pool) Spawn(
	kind RequestKind,
	id ThreadID,
	now sim.VTimeInCycle,
	cpi int,
) Thread {
	slot := p.Allocate(kind)

	e := &p.entries[slot.index]
	e.id = id
	e.creationTime = now
	e.cpi = cpi
	e.stallCycles = cpi - 1

	return Thread{pool: p, slot: slot, id: id}
}

// Free returns a vacated entry to the pool. Every handle to the entry,
// including slot, becomes stale.
func (p *Pool) Free(slot Slot) {
	if slot.index < 0 || slot.index >= len(p.entries) {
		log.Panicf("slot %d does not belong to the pool", slot.index)
	}

	e := &p.entries[slot.index]
	if !e.inUse {
		log.Panicf("freeing TSRF entry %d twice", slot.index)
	}

	if e.gen != slot.gen {
		log.Panicf("freeing TSRF entry %d with a stale handle", slot.index)
	}

	if !e.vacated {
		log.Panicf("freeing TSRF entry %d before it is vacated", slot.index)
	}

	e.inUse = false
	e.gen++

	switch slot.index {
	case p.wbIndex:
		p.wbAvail = true
	case p.localIndex:
		p.localAvail = true
	default:
		p.free = append(p.free, slot.index)
	}
}

// IsQuiesced returns true if all entries are free.
func (p *Pool) IsQuiesced() bool {
	return p.NumInUse() == 0
}

func (p *Pool) lookup(slot Slot) (*entry, bool) {
	if p == nil || slot.index < 0 || slot.index >= len(p.entries) {
		return nil, false
	}

	e := &p.entries[slot.index]
	if !e.inUse || e.gen != slot.gen {
		return nil, false
	}

	return e, true
}
