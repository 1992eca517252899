// Package scheduler decides which thread of a protocol engine runs. It
// matches incoming packets with the threads at the same address, starts new
// threads, suspends them on directory locks and directory reads, and
// resolves the races between new requests and in-flight transactions.
package scheduler

import (
	"fmt"
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
	"github.com/sarchlab/protoengine/sim"
)

// Hook positions of the scheduler. The hook item is the tsrf.Thread.
var (
	HookPosThreadCreate   = &sim.HookPos{Name: "Thread Create"}
	HookPosThreadStart    = &sim.HookPos{Name: "Thread Start"}
	HookPosThreadBlock    = &sim.HookPos{Name: "Thread Block"}
	HookPosThreadCancel   = &sim.HookPos{Name: "Thread Cancel"}
	HookPosThreadComplete = &sim.HookPos{Name: "Thread Complete"}
)

// Engine is the part of an execution engine the scheduler drives.
type Engine interface {
	EntryPoint(
		mt protocol.MessageType,
		t tsrf.Thread,
		state protocol.DirState,
	) int
	DeliverReply(t tsrf.Thread, mt protocol.MessageType)
}

// Queues are the input queues the scheduler reads.
type Queues interface {
	Available(vc protocol.VC) bool
	Head(vc protocol.VC) *protocol.Packet
	Dequeue(vc protocol.VC) *protocol.Packet
	Refuse(vc protocol.VC, pkt *protocol.Packet)
	RefuseAndRotate(vc protocol.VC, pkt *protocol.Packet)
}

// Metrics are the statistics of a scheduler.
type Metrics struct {
	ThreadLifetime protocol.Histogram
	ThreadRuntime  protocol.Histogram
	ThreadUops     protocol.Histogram
	ThreadsCreated uint64

	LocalConflictStallCycles   uint64
	LocalNoTSRFStallCycles     uint64
	NetworkConflictStallCycles uint64
	NetworkNoTSRFStallCycles   uint64

	// Cancellations counts the threads pre-empted by a race.
	Cancellations uint64

	// StarvationPromotions counts the scans started at a starving channel.
	StarvationPromotions uint64
}

// DefaultStarvationThreshold is the number of cycles a channel may be
// passed over before it is scanned first.
const DefaultStarvationThreshold = 32

// Scheduler owns the threads of one engine.
type Scheduler struct {
	sim.HookableBase

	name    string
	pool    *tsrf.Pool
	queues  Queues
	service protocol.ServiceProvider
	engine  Engine

	// StarvationThreshold is the number of consecutive cycles a channel
	// with a serviceable head may be skipped. Zero disables promotion.
	StarvationThreshold int

	nextID    tsrf.ThreadID
	live      map[protocol.Address][]tsrf.Thread
	blocked   map[protocol.Address][]tsrf.Thread
	runnable  []tsrf.Thread
	active    tsrf.Thread
	hasActive bool
	stalledOn [protocol.NumVCs]tsrf.ThreadID
	starved   [protocol.NumVCs]int
	progress  bool

	Metrics Metrics
}

// New creates a Scheduler. The engine may be set later with SetEngine.
func New(
	name string,
	pool *tsrf.Pool,
	queues Queues,
	service protocol.ServiceProvider,
	engine Engine,
) *Scheduler {
	return &Scheduler{
		name:                name,
		pool:                pool,
		queues:              queues,
		service:             service,
		engine:              engine,
		StarvationThreshold: DefaultStarvationThreshold,
		nextID:              1,
		live:                make(map[protocol.Address][]tsrf.Thread),
		blocked:             make(map[protocol.Address][]tsrf.Thread),
	}
}

// Name returns the name of the engine the scheduler belongs to.
func (s *Scheduler) Name() string {
	return s.name
}

// SetEngine sets the execution engine.
func (s *Scheduler) SetEngine(e Engine) {
	s.engine = e
}

// ProcessQueues runs one scheduling pass. It returns true if any packet or
// thread changed state.
func (s *Scheduler) ProcessQueues() bool {
	s.progress = false

	s.scanQueues()
	s.countStallCycles()
	s.drainDirectoryResponses()

	return s.progress
}

func (s *Scheduler) scanQueues() {
	if s.Ready() {
		return
	}

	var visited [protocol.NumVCs]bool

	order, n := s.scanOrder()
	for _, vc := range order[:n] {
		if s.Ready() {
			break
		}

		visited[vc] = true
		s.processQueue(vc)
	}

	for vc := protocol.MinVC; vc <= protocol.MaxVC; vc++ {
		if visited[vc] || !s.serviceable(vc) {
			s.starved[vc] = 0
			continue
		}

		s.starved[vc]++
	}
}

// scanOrder returns the channels from the highest to the lowest priority,
// with the lowest starving channel moved to the front.
func (s *Scheduler) scanOrder() ([protocol.NumVCs]protocol.VC, int) {
	var order [protocol.NumVCs]protocol.VC

	n := 0
	first := s.starvingVC()

	if first.Valid() {
		order[n] = first
		n++
		s.Metrics.StarvationPromotions++
	}

	for vc := protocol.MaxVC; vc >= protocol.MinVC; vc-- {
		if vc != first {
			order[n] = vc
			n++
		}
	}

	return order, n
}

func (s *Scheduler) starvingVC() protocol.VC {
	if s.StarvationThreshold <= 0 {
		return -1
	}

	for vc := protocol.MinVC; vc <= protocol.MaxVC; vc++ {
		if s.starved[vc] >= s.StarvationThreshold {
			return vc
		}
	}

	return -1
}

func (s *Scheduler) serviceable(vc protocol.VC) bool {
	return s.queues.Available(vc) && !s.isStalled(vc)
}

func (s *Scheduler) processQueue(vc protocol.VC) {
	if !s.serviceable(vc) {
		return
	}

	pkt := s.queues.Head(vc)
	if len(s.live[pkt.Address]) > 0 {
		s.processMatchedPacket(vc, pkt)
	} else {
		s.processUnmatchedPacket(vc, pkt)
	}
}

func (s *Scheduler) countStallCycles() {
	if s.queues.Available(protocol.LocalVC0) {
		switch {
		case s.isStalled(protocol.LocalVC0):
			s.Metrics.LocalConflictStallCycles++
		case !s.pool.IsEntryAvail(tsrf.Normal):
			s.Metrics.LocalNoTSRFStallCycles++
		}
	}

	if s.queues.Available(protocol.VC0) {
		switch {
		case s.isStalled(protocol.VC0):
			s.Metrics.NetworkConflictStallCycles++
		case !s.pool.IsEntryAvail(tsrf.Normal):
			s.Metrics.NetworkNoTSRFStallCycles++
		}
	}
}

func (s *Scheduler) drainDirectoryResponses() {
	for s.service.HasDirectoryResponse() {
		rsp := s.service.DequeueDirectoryResponse()
		if rsp.IsLockAcquired() {
			s.processLockAcquired(rsp.Address)
		} else {
			s.processDirectoryReply(rsp.Address, rsp.Entry)
		}

		s.progress = true
	}
}

// Ready returns true if a thread is active or waiting to run.
func (s *Scheduler) Ready() bool {
	return s.hasActive || len(s.runnable) > 0
}

// Activate returns the thread to run, picking the oldest runnable thread if
// none is active. Callers must check Ready first.
func (s *Scheduler) Activate() tsrf.Thread {
	if s.hasActive {
		return s.active
	}

	if len(s.runnable) == 0 {
		log.Panicf("%s: no thread to activate", s.name)
	}

	s.active = s.runnable[0]
	s.runnable = s.runnable[1:]
	s.hasActive = true
	s.active.SetDelayCause(s.name, protocol.DelayRun)

	return s.active
}

func (s *Scheduler) isActive(t tsrf.Thread) bool {
	return s.hasActive && s.active == t
}

// Reschedule files a thread according to its state. Complete threads are
// reclaimed.
func (s *Scheduler) Reschedule(t tsrf.Thread) {
	switch t.State() {
	case tsrf.Waiting, tsrf.SuspendedForLock, tsrf.SuspendedForDir,
		tsrf.Blocked:
		if s.isActive(t) {
			s.hasActive = false
		}
	case tsrf.Runnable:
		if s.isActive(t) {
			return
		}

		for _, r := range s.runnable {
			if r == t {
				log.Panicf("%s: %s is already runnable", s.name, t)
			}
		}

		s.runnable = append(s.runnable, t)
		t.SetDelayCause(s.name, protocol.DelayWaitToRun)
	case tsrf.Complete:
		if s.isActive(t) {
			s.hasActive = false
		}

		s.Metrics.ThreadUops.Add(uint64(t.UopCount()))
		s.reclaimThread(t)
	default:
		log.Panicf("%s: cannot reschedule %s", s.name, t)
	}
}

// IsQuiesced returns true if no thread is alive.
func (s *Scheduler) IsQuiesced() bool {
	return len(s.live) == 0 && !s.Ready() && s.pool.IsQuiesced()
}

// NumLiveThreads returns the number of threads that have not been
// reclaimed.
func (s *Scheduler) NumLiveThreads() int {
	n := 0
	for _, threads := range s.live {
		n += len(threads)
	}

	return n
}

// LiveThreads returns the threads at an address, oldest first.
func (s *Scheduler) LiveThreads(addr protocol.Address) []tsrf.Thread {
	return append([]tsrf.Thread(nil), s.live[addr]...)
}

// IsStalled tells if a channel is held by a thread that refused its head.
func (s *Scheduler) IsStalled(vc protocol.VC) bool {
	return s.isStalled(vc)
}

// CheckInvariants verifies that no address has more than one runnable or
// more than one waiting thread.
func (s *Scheduler) CheckInvariants() error {
	for addr, threads := range s.live {
		runnable, waiting := 0, 0

		for _, t := range threads {
			switch t.State() {
			case tsrf.Runnable:
				runnable++
			case tsrf.Waiting:
				waiting++
			}
		}

		if runnable > 1 || waiting > 1 {
			return fmt.Errorf("%s: %s has %d runnable and %d waiting threads",
				s.name, addr, runnable, waiting)
		}
	}

	return nil
}

func (s *Scheduler) invoke(pos *sim.HookPos, t tsrf.Thread, detail interface{}) {
	if s.NumHooks() == 0 {
		return
	}

	s.InvokeHook(sim.HookCtx{
		Domain: s,
		Pos:    pos,
		Item:   t,
		Detail: detail,
	})
}
