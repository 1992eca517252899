// Package inputq provides the per-virtual-channel input queues of a protocol
// engine.
package inputq

import (
	"fmt"
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// Hook positions of the input queue controller.
var (
	HookPosEnqueue = &sim.HookPos{Name: "InputQ Enqueue"}
	HookPosDequeue = &sim.HookPos{Name: "InputQ Dequeue"}
	HookPosRefuse  = &sim.HookPos{Name: "InputQ Refuse"}
	HookPosRotate  = &sim.HookPos{Name: "InputQ Rotate"}
	HookPosSteal   = &sim.HookPos{Name: "InputQ Steal"}
)

// RaceHandler resolves races between an incoming CPU acknowledgment and the
// threads that are not yet running at the same address. It returns true if
// a flush or an evict was cancelled.
type RaceHandler interface {
	HandleInvalidate(addr protocol.Address) bool
	HandleDowngrade(addr protocol.Address) bool
}

// Metrics records how long packets wait in the queues.
type Metrics struct {
	WaitTime protocol.Histogram
	Steals   uint64
}

// Controller owns one FIFO queue per virtual channel.
type Controller struct {
	sim.HookableBase

	name        string
	timeTeller  sim.TimeTeller
	raceHandler RaceHandler
	queues      [protocol.NumVCs][]*protocol.Packet
	peaks       [protocol.NumVCs]int

	Metrics Metrics
}

// NewController creates a Controller. The race handler may be set later.
func NewController(
	name string,
	timeTeller sim.TimeTeller,
	raceHandler RaceHandler,
) *Controller {
	return &Controller{
		name:        name,
		timeTeller:  timeTeller,
		raceHandler: raceHandler,
	}
}

// Name returns the name of the engine that owns the queues.
func (c *Controller) Name() string {
	return c.name
}

// SetRaceHandler sets the component consulted when an Invalidate or a
// Downgrade acknowledgment arrives.
func (c *Controller) SetRaceHandler(h RaceHandler) {
	c.raceHandler = h
}

// Enqueue appends a packet to the queue of its channel.
func (c *Controller) Enqueue(pkt *protocol.Packet) {
	mustBeValidVC(pkt.VC)

	switch pkt.Type {
	case protocol.InvAck, protocol.InvUpdateAck:
		c.handleInvalidate(pkt)
	case protocol.DowngradeAck, protocol.DowngradeUpdateAck:
		c.handleDowngrade(pkt)
	}

	c.stamp(pkt)
	c.queues[pkt.VC] = append(c.queues[pkt.VC], pkt)
	c.trackPeak(pkt.VC)
	c.invoke(HookPosEnqueue, pkt)
}

// Dequeue removes the head of the queue.
func (c *Controller) Dequeue(vc protocol.VC) *protocol.Packet {
	pkt := c.Head(vc)
	if pkt == nil {
		log.Panicf("%s: dequeue from empty queue %s", c.name, vc)
	}

	c.Metrics.WaitTime.Add(uint64(c.timeTeller.CurrentTime() - pkt.EnqueuedAt))
	c.queues[vc] = c.queues[vc][1:]
	c.invoke(HookPosDequeue, pkt)

	return pkt
}

// Refuse puts the packet back to the head of its queue so that it is
// retried first.
func (c *Controller) Refuse(vc protocol.VC, pkt *protocol.Packet) {
	mustMatchVC(vc, pkt)

	c.stamp(pkt)
	q := c.queues[vc]
	q = append(q, nil)
	copy(q[1:], q)
	q[0] = pkt
	c.queues[vc] = q
	c.trackPeak(vc)
	c.invoke(HookPosRefuse, pkt)
}

// RefuseAndRotate puts the packet at the tail of its queue.
func (c *Controller) RefuseAndRotate(vc protocol.VC, pkt *protocol.Packet) {
	mustMatchVC(vc, pkt)

	c.stamp(pkt)
	c.queues[vc] = append(c.queues[vc], pkt)
	c.trackPeak(vc)
	c.invoke(HookPosRotate, pkt)
}

// Available tells if the queue has a packet.
func (c *Controller) Available(vc protocol.VC) bool {
	mustBeValidVC(vc)
	return len(c.queues[vc]) > 0
}

// Head returns the head packet of the queue, or nil.
func (c *Controller) Head(vc protocol.VC) *protocol.Packet {
	mustBeValidVC(vc)

	if len(c.queues[vc]) == 0 {
		return nil
	}

	return c.queues[vc][0]
}

// Size returns the queue length plus one, leaving room for one rotation in
// flight.
func (c *Controller) Size(vc protocol.VC) int {
	mustBeValidVC(vc)
	return len(c.queues[vc]) + 1
}

// IsEmpty returns true if every queue is empty.
func (c *Controller) IsEmpty() bool {
	for _, q := range c.queues {
		if len(q) > 0 {
			return false
		}
	}

	return true
}

// Levels returns a view of every queue, lowest channel first.
func (c *Controller) Levels() []QueueLevel {
	levels := make([]QueueLevel, 0, protocol.NumVCs)
	for vc := protocol.MinVC; vc <= protocol.MaxVC; vc++ {
		levels = append(levels, QueueLevel{c: c, vc: vc})
	}

	return levels
}

// QueueLevel reports the occupancy of one input queue. The queues are
// unbounded, so the capacity is always 0.
type QueueLevel struct {
	c  *Controller
	vc protocol.VC
}

// Name returns the engine name followed by the channel.
func (q QueueLevel) Name() string {
	return fmt.Sprintf("%s.InputQ.%s", q.c.name, q.vc)
}

// Size returns the number of queued packets.
func (q QueueLevel) Size() int { return len(q.c.queues[q.vc]) }

// PeakSize returns the largest number of packets ever queued.
func (q QueueLevel) PeakSize() int { return q.c.peaks[q.vc] }

// Capacity returns 0.
func (q QueueLevel) Capacity() int { return 0 }

func (c *Controller) trackPeak(vc protocol.VC) {
	if n := len(c.queues[vc]); n > c.peaks[vc] {
		c.peaks[vc] = n
	}
}

func (c *Controller) stamp(pkt *protocol.Packet) {
	pkt.EnqueuedAt = c.timeTeller.CurrentTime()

	if pkt.Tracker != nil && pkt.Tracker.InPE {
		pkt.Tracker.SetDelayCause(c.name, protocol.DelayInputQueue)
	}
}

func (c *Controller) handleInvalidate(ack *protocol.Packet) {
	stolen := c.scanLocalQueue(ack.Address, true)

	if c.raceHandler != nil && c.raceHandler.HandleInvalidate(ack.Address) {
		stolen = true
	}

	if stolen {
		c.escalate(ack, protocol.InvUpdateAck)
	}
}

func (c *Controller) handleDowngrade(ack *protocol.Packet) {
	stolen := c.scanLocalQueue(ack.Address, false)

	if c.raceHandler != nil && c.raceHandler.HandleDowngrade(ack.Address) {
		stolen = true
	}

	if stolen {
		c.escalate(ack, protocol.DowngradeUpdateAck)
	}
}

// scanLocalQueue removes the flushes and evicts at the address from the CPU
// request queue and returns true if any was removed. With rewriteUpgrades,
// upgrades at the address become writes.
func (c *Controller) scanLocalQueue(
	addr protocol.Address,
	rewriteUpgrades bool,
) bool {
	removed := false
	kept := c.queues[protocol.LocalVC0][:0]

	for _, pkt := range c.queues[protocol.LocalVC0] {
		if pkt.Address != addr {
			kept = append(kept, pkt)
			continue
		}

		switch pkt.Type {
		case protocol.LocalUpgradeAccess:
			if rewriteUpgrades {
				pkt.Type = protocol.LocalWriteAccess
			}

			kept = append(kept, pkt)
		case protocol.LocalFlush, protocol.LocalEvict:
			removed = true
			c.Metrics.Steals++
			c.invoke(HookPosSteal, pkt)
		default:
			kept = append(kept, pkt)
		}
	}

	for i := len(kept); i < len(c.queues[protocol.LocalVC0]); i++ {
		c.queues[protocol.LocalVC0][i] = nil
	}

	c.queues[protocol.LocalVC0] = kept

	return removed
}

func (c *Controller) escalate(ack *protocol.Packet, t protocol.MessageType) {
	ack.Type = t

	if ack.Tracker != nil {
		ack.Tracker.SetPreviousState(protocol.DirModified)
	}
}

func (c *Controller) invoke(pos *sim.HookPos, pkt *protocol.Packet) {
	if c.NumHooks() == 0 {
		return
	}

	c.InvokeHook(sim.HookCtx{
		Domain: c,
		Pos:    pos,
		Item:   pkt,
	})
}

func mustBeValidVC(vc protocol.VC) {
	if !vc.Valid() {
		log.Panicf("invalid virtual channel %d", vc)
	}
}

func mustMatchVC(vc protocol.VC, pkt *protocol.Packet) {
	mustBeValidVC(vc)

	if pkt == nil {
		log.Panic("refusing a nil packet")
	}

	if pkt.VC != vc {
		log.Panicf("packet on %s refused to %s", pkt.VC, vc)
	}
}
