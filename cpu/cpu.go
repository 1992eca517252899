// Package cpu provides a synthetic CPU with a small MSI cache. The CPU
// issues a pseudo-random stream of reads and writes to lines homed at other
// nodes and answers the cache operations its node requests.
package cpu

import (
	"log"
	"math/rand"

	"github.com/sarchlab/protoengine/node"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
	"github.com/sarchlab/protoengine/tracing"
)

// Hook positions of a CPU.
var (
	// HookPosAccessIssue marks an access. The item is the address and the
	// detail tells if the access hit in the cache.
	HookPosAccessIssue = &sim.HookPos{Name: "CPU Access Issue"}

	// HookPosAccessComplete marks the completion of a miss or an upgrade.
	// The item is the tracker of the transaction.
	HookPosAccessComplete = &sim.HookPos{Name: "CPU Access Complete"}
)

// LineState is the state of a line in the cache.
type LineState int

// Line states.
const (
	Invalid LineState = iota
	Shared
	Modified
)

func (s LineState) String() string {
	switch s {
	case Shared:
		return "S"
	case Modified:
		return "M"
	}

	return "I"
}

// A Sink accepts the messages the CPU sends to its node.
type Sink interface {
	HandleCPUMessage(pkt *protocol.Packet)
}

// A TransactionListener is told about every completed transaction.
type TransactionListener interface {
	TransactionCompleted(tr *protocol.Tracker)
}

// Metrics counts the accesses of a CPU.
type Metrics struct {
	Accesses      uint64
	Hits          uint64
	ReadMisses    uint64
	WriteMisses   uint64
	Upgrades      uint64
	Prefetches    uint64
	Flushes       uint64
	Evictions     uint64
	Invalidations uint64
	Downgrades    uint64
	ConflictStall uint64
	MissLatency   protocol.Histogram
}

// CPU is a synthetic processor with a private cache.
type CPU struct {
	*sim.TickingComponent

	id       protocol.NodeID
	node     Sink
	rng      *rand.Rand
	lines    []protocol.Address
	capacity int

	maxOutstanding int
	writeRatio     float64
	prefetchRatio  float64

	// AccessesLeft is the number of accesses still to issue.
	AccessesLeft int

	cache    map[protocol.Address]LineState
	resident []protocol.Address
	pending  map[protocol.Address]*protocol.Tracker
	acks     []*protocol.Packet

	listeners []TransactionListener

	Metrics Metrics
}

// SetNode sets where the CPU sends its requests and acknowledgments.
func (c *CPU) SetNode(n Sink) {
	c.node = n
}

// AddListener registers a listener for completed transactions.
func (c *CPU) AddListener(l TransactionListener) {
	c.listeners = append(c.listeners, l)
}

// State returns the state of a line in the cache.
func (c *CPU) State(addr protocol.Address) LineState {
	return c.cache[addr]
}

// Lines returns the lines the CPU accesses.
func (c *CPU) Lines() []protocol.Address {
	return c.lines
}

// Tick sends the pending acknowledgments and issues at most one access.
func (c *CPU) Tick() bool {
	madeProgress := false

	madeProgress = c.sendAcks() || madeProgress
	madeProgress = c.issue() || madeProgress

	return madeProgress
}

func (c *CPU) sendAcks() bool {
	if len(c.acks) == 0 {
		return false
	}

	for _, ack := range c.acks {
		c.node.HandleCPUMessage(ack)
	}

	c.acks = nil

	return true
}

func (c *CPU) issue() bool {
	if c.AccessesLeft == 0 || len(c.pending) >= c.maxOutstanding {
		return false
	}

	addr := c.lines[c.rng.Intn(len(c.lines))]
	if _, busy := c.pending[addr]; busy {
		c.Metrics.ConflictStall++
		return false
	}

	write := c.rng.Float64() < c.writeRatio
	state := c.cache[addr]

	c.AccessesLeft--
	c.Metrics.Accesses++

	hit := state == Modified || state == Shared && !write
	c.invoke(HookPosAccessIssue, addr, hit)

	switch {
	case hit:
		c.Metrics.Hits++
	case state == Shared:
		c.Metrics.Upgrades++
		c.request(protocol.LocalUpgradeAccess, addr)
	case write:
		c.Metrics.WriteMisses++
		c.makeRoom()
		c.request(protocol.LocalWriteAccess, addr)
	case c.rng.Float64() < c.prefetchRatio:
		c.Metrics.Prefetches++
		c.makeRoom()
		c.request(protocol.LocalPrefetchRead, addr)
	default:
		c.Metrics.ReadMisses++
		c.makeRoom()
		c.request(protocol.LocalRead, addr)
	}

	return true
}

func (c *CPU) request(mt protocol.MessageType, addr protocol.Address) {
	tr := protocol.NewTracker(addr, c.id, c.CurrentTime())
	tr.InPE = true
	c.pending[addr] = tr

	pkt := protocol.NewPacket(mt, addr)
	pkt.Tracker = tr
	pkt.Prefetch = mt == protocol.LocalPrefetchRead
	tracing.TraceTransactionStart(pkt, c)
	c.node.HandleCPUMessage(pkt)
}

// makeRoom evicts lines until a new line fits. Lines with an access in
// flight are never evicted.
func (c *CPU) makeRoom() {
	for len(c.resident)+len(c.pending) >= c.capacity {
		if !c.evictOne() {
			return
		}
	}
}

func (c *CPU) evictOne() bool {
	for _, addr := range c.resident {
		if _, busy := c.pending[addr]; busy {
			continue
		}

		mt := protocol.LocalEvict
		if c.cache[addr] == Modified {
			mt = protocol.LocalFlush
			c.Metrics.Flushes++
		}

		c.Metrics.Evictions++
		c.drop(addr)
		c.node.HandleCPUMessage(protocol.NewPacket(mt, addr))

		return true
	}

	return false
}

func (c *CPU) fill(addr protocol.Address, s LineState) {
	if c.cache[addr] == Invalid {
		c.resident = append(c.resident, addr)
	}

	c.cache[addr] = s
}

func (c *CPU) drop(addr protocol.Address) {
	if c.cache[addr] == Invalid {
		return
	}

	delete(c.cache, addr)

	for i, a := range c.resident {
		if a == addr {
			c.resident = append(c.resident[:i], c.resident[i+1:]...)
			break
		}
	}
}

// HandleCPUOp performs an operation requested by an engine of the node.
func (c *CPU) HandleCPUOp(op node.CPUOperation) {
	switch op.Op {
	case protocol.CPUInvalidate:
		c.invalidate(op.Address)
	case protocol.CPUDowngrade:
		c.downgrade(op.Address)
	case protocol.CPUMissReply, protocol.CPUPrefetchReadReply:
		c.complete(op.Address, Shared)
	case protocol.CPUMissWritableReply, protocol.CPUUpgradeReply:
		c.complete(op.Address, Modified)
	default:
		log.Panicf("%s: unknown CPU operation %s", c.Name(), op.Op)
	}

	c.TickLater()
}

func (c *CPU) invalidate(addr protocol.Address) {
	c.Metrics.Invalidations++

	mt := protocol.InvAck
	if c.cache[addr] == Modified {
		mt = protocol.InvUpdateAck
	}

	c.drop(addr)
	c.acks = append(c.acks, protocol.NewPacket(mt, addr))
}

func (c *CPU) downgrade(addr protocol.Address) {
	c.Metrics.Downgrades++

	mt := protocol.DowngradeAck
	if c.cache[addr] == Modified {
		mt = protocol.DowngradeUpdateAck
		c.cache[addr] = Shared
	}

	c.acks = append(c.acks, protocol.NewPacket(mt, addr))
}

func (c *CPU) complete(addr protocol.Address, s LineState) {
	tr, ok := c.pending[addr]
	if !ok {
		log.Panicf("%s: reply for %s which has no access in flight",
			c.Name(), addr)
	}

	delete(c.pending, addr)
	c.fill(addr, s)

	tr.InPE = false
	tr.EndTime = c.CurrentTime()
	c.Metrics.MissLatency.Add(uint64(tr.EndTime - tr.StartTime))

	c.invoke(HookPosAccessComplete, tr, nil)
	tracing.TraceTransactionEnd(tr, c)

	for _, l := range c.listeners {
		l.TransactionCompleted(tr)
	}
}

// Outstanding returns the number of accesses in flight.
func (c *CPU) Outstanding() int {
	return len(c.pending)
}

// IsIdle tells if the CPU has issued all its accesses and all of them have
// completed.
func (c *CPU) IsIdle() bool {
	return c.AccessesLeft == 0 && len(c.pending) == 0 && len(c.acks) == 0
}

func (c *CPU) invoke(pos *sim.HookPos, item, detail interface{}) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   item,
		Detail: detail,
	})
}
