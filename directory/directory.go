// Package directory provides the directory store of a node together with
// the lock manager that serializes the transactions on each address.
package directory

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// HookPosOp marks an operation reaching the directory. The detail is the
// operation name.
var HookPosOp = &sim.HookPos{Name: "Dir Op"}

// Metrics counts directory activity.
type Metrics struct {
	Reads     uint64
	Writes    uint64
	Locks     uint64
	LockWaits uint64
	Squashes  uint64
}

type response struct {
	rsp     protocol.DirectoryResponse
	readyAt sim.VTimeInCycle
}

type lockState struct {
	waiters int
}

// A Directory stores the entries of the lines homed at one node. Reads are
// answered after a fixed latency. Lock grants are answered at once.
type Directory struct {
	sim.HookableBase

	name       string
	timeTeller sim.TimeTeller
	latency    int

	entries  map[protocol.Address]*protocol.DirEntry
	locks    map[protocol.Address]*lockState
	inflight []response

	Metrics Metrics
}

// Name returns the name of the directory.
func (d *Directory) Name() string {
	return d.name
}

// Get reads an entry. The response carries a copy of the entry, or an
// Invalid entry if the line was never stored.
func (d *Directory) Get(addr protocol.Address) {
	d.invoke("Get", addr)
	d.Metrics.Reads++

	d.respond(protocol.DirectoryResponse{
		Address: addr,
		Entry:   d.Peek(addr),
	}, d.latency)
}

// Peek returns a copy of an entry without any latency.
func (d *Directory) Peek(addr protocol.Address) *protocol.DirEntry {
	e, ok := d.entries[addr]
	if !ok {
		return protocol.NewDirEntry()
	}

	return e.Clone()
}

// Set stores an entry.
func (d *Directory) Set(addr protocol.Address, entry *protocol.DirEntry) {
	if entry == nil {
		log.Panicf("%s: storing a nil entry at %s", d.name, addr)
	}

	d.invoke("Set", addr)
	d.Metrics.Writes++
	d.entries[addr] = entry.Clone()
}

// Lock requests the lock of an address. The lock is granted at once if it
// is free, or after all earlier requests otherwise.
func (d *Directory) Lock(addr protocol.Address) {
	d.invoke("Lock", addr)
	d.Metrics.Locks++

	l, held := d.locks[addr]
	if held {
		l.waiters++
		d.Metrics.LockWaits++

		return
	}

	d.locks[addr] = &lockState{}
	d.grant(addr)
}

// Unlock releases the lock of an address and grants it to the oldest
// waiting request, if any.
func (d *Directory) Unlock(addr protocol.Address) {
	d.invoke("Unlock", addr)

	l, held := d.locks[addr]
	if !held {
		log.Panicf("%s: unlocking %s which is not locked", d.name, addr)
	}

	if l.waiters == 0 {
		delete(d.locks, addr)
		return
	}

	l.waiters--
	d.grant(addr)
}

// Squash withdraws a lock request. A queued request is dropped. A request
// whose grant has not been picked up yet gives the lock back.
func (d *Directory) Squash(addr protocol.Address) {
	d.invoke("Squash", addr)
	d.Metrics.Squashes++

	l, held := d.locks[addr]
	if !held {
		log.Panicf("%s: squashing a lock request on %s that was never made",
			d.name, addr)
	}

	if l.waiters > 0 {
		l.waiters--
		return
	}

	for i, r := range d.inflight {
		if r.rsp.Address == addr && r.rsp.IsLockAcquired() {
			d.inflight = append(d.inflight[:i], d.inflight[i+1:]...)
			d.Unlock(addr)

			return
		}
	}

	log.Panicf("%s: no pending lock request on %s to squash", d.name, addr)
}

// IsLocked tells if the lock of an address is held.
func (d *Directory) IsLocked(addr protocol.Address) bool {
	_, held := d.locks[addr]
	return held
}

func (d *Directory) grant(addr protocol.Address) {
	d.respond(protocol.DirectoryResponse{Address: addr}, 0)
}

func (d *Directory) respond(rsp protocol.DirectoryResponse, latency int) {
	d.inflight = append(d.inflight, response{
		rsp:     rsp,
		readyAt: d.timeTeller.CurrentTime() + sim.VTimeInCycle(latency),
	})
}

// HasResponse tells if a response is ready.
func (d *Directory) HasResponse() bool {
	return d.readyIndex() >= 0
}

// PopResponse removes the oldest ready response.
func (d *Directory) PopResponse() protocol.DirectoryResponse {
	i := d.readyIndex()
	if i < 0 {
		log.Panicf("%s: no directory response is ready", d.name)
	}

	r := d.inflight[i]
	d.inflight = append(d.inflight[:i], d.inflight[i+1:]...)

	return r.rsp
}

func (d *Directory) readyIndex() int {
	now := d.timeTeller.CurrentTime()
	for i, r := range d.inflight {
		if r.readyAt <= now {
			return i
		}
	}

	return -1
}

// IsIdle tells if no response is in flight. Held locks do not count since
// they belong to live threads.
func (d *Directory) IsIdle() bool {
	return len(d.inflight) == 0
}

// Pending returns the number of responses in flight.
func (d *Directory) Pending() int {
	return len(d.inflight)
}

func (d *Directory) invoke(op string, addr protocol.Address) {
	if d.NumHooks() == 0 {
		return
	}

	d.InvokeHook(sim.HookCtx{
		Domain: d,
		Pos:    HookPosOp,
		Item:   addr,
		Detail: op,
	})
}
