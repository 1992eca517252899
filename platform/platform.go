// Package platform wires nodes, CPUs, and the network into a complete
// system that runs the coherence protocol end to end.
package platform

import (
	"errors"
	"fmt"

	"github.com/sarchlab/protoengine/cpu"
	"github.com/sarchlab/protoengine/interconnect"
	"github.com/sarchlab/protoengine/memmap"
	"github.com/sarchlab/protoengine/monitoring"
	"github.com/sarchlab/protoengine/node"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
	"github.com/sarchlab/protoengine/sim"
	"github.com/sarchlab/protoengine/tracing"
)

// ErrNotQuiesced is returned by Run if the simulation stops while work is
// still in flight.
var ErrNotQuiesced = errors.New("simulation stopped before quiescence")

// Platform is a complete system.
type Platform struct {
	name string

	Engine  *sim.SerialEngine
	Mapper  memmap.Mapper
	Network *interconnect.Network
	Nodes   []*node.Node
	CPUs    []*cpu.CPU

	transactionTracer *tracing.AverageTimeTracer
	messageTracer     *tracing.AverageTimeTracer
	threadSteps       *tracing.StepCountTracer
	busyTime          map[string]*tracing.BusyTimeTracer
	threadTime        map[string]*tracing.TotalTimeTracer
	backTrace         *tracing.BackTraceTracer
	taskTracer        *tracing.DBTracer

	recorder *ProtocolRecorder
	monitor  *monitoring.Monitor
	progress *monitoring.ProgressBar
}

// Name returns the name of the platform.
func (p *Platform) Name() string {
	return p.name
}

// Engines returns every protocol engine, Home before Remote, in node order.
func (p *Platform) Engines() []*protocolengine.Engine {
	engines := make([]*protocolengine.Engine, 0, 2*len(p.Nodes))
	for _, n := range p.Nodes {
		engines = append(engines, p.engines(n)...)
	}

	return engines
}

func (p *Platform) engines(n *node.Node) []*protocolengine.Engine {
	return []*protocolengine.Engine{n.HE, n.RE}
}

func (p *Platform) traceEverything(t tracing.Tracer) {
	for _, c := range p.CPUs {
		tracing.CollectTrace(c, t)
	}

	for _, n := range p.Nodes {
		tracing.CollectTrace(n, t)

		for _, e := range p.engines(n) {
			tracing.CollectTrace(e.Scheduler, t)
		}
	}
}

// Run lets the CPUs issue all their accesses and runs the simulation until
// no event is left.
func (p *Platform) Run() error {
	for _, c := range p.CPUs {
		c.TickLater()
	}

	err := p.Engine.Run()
	if err != nil {
		return err
	}

	p.recordStats()

	if !p.IsQuiesced() {
		if p.backTrace != nil {
			p.backTrace.DumpAll(tracing.KindTransaction)
		}

		return fmt.Errorf("%w: cycle %d, %d transactions outstanding",
			ErrNotQuiesced, p.Engine.CurrentTime(), p.outstanding())
	}

	if p.progress != nil {
		p.monitor.CompleteProgressBar(p.progress)
	}

	return nil
}

func (p *Platform) recordStats() {
	if p.recorder == nil {
		return
	}

	for _, e := range p.Engines() {
		p.recorder.RecordEngineStats(e.Stats())
	}

	p.recorder.Flush()
}

func (p *Platform) outstanding() int {
	count := 0
	for _, c := range p.CPUs {
		count += c.Outstanding()
	}

	return count
}

// IsQuiesced tells if every node, CPU, and the network have nothing left to
// do.
func (p *Platform) IsQuiesced() bool {
	if !p.Network.IsIdle() {
		return false
	}

	for _, n := range p.Nodes {
		if !n.IsQuiesced() {
			return false
		}
	}

	for _, c := range p.CPUs {
		if !c.IsIdle() {
			return false
		}
	}

	return true
}

// ProtocolErrors returns the number of protocol errors of all the engines.
func (p *Platform) ProtocolErrors() uint64 {
	total := uint64(0)
	for _, e := range p.Engines() {
		total += e.ProtocolErrors()
	}

	return total
}

// VerifyCoherence checks the caches against the directories of a quiesced
// platform. A modified line must be owned by its cache and a shared line
// must be listed as shared. Directories may list sharers that have dropped
// the line silently.
func (p *Platform) VerifyCoherence() error {
	owners := make(map[protocol.Address]protocol.NodeID)

	for i, c := range p.CPUs {
		id := protocol.NodeID(i)

		for _, addr := range c.Lines() {
			state := c.State(addr)
			if state == cpu.Invalid {
				continue
			}

			home := p.Nodes[p.Mapper.NodeForAddress(addr)]
			entry := home.Directory.Peek(addr)

			switch state {
			case cpu.Modified:
				if prev, ok := owners[addr]; ok {
					return fmt.Errorf("%s is modified in %s and %s",
						addr, prev, id)
				}

				owners[addr] = id

				if entry.State != protocol.DirModified || entry.Owner != id {
					return fmt.Errorf("%s is modified in %s but the directory has %s",
						addr, id, entry)
				}
			case cpu.Shared:
				if entry.State != protocol.DirShared || !entry.Sharers.Has(id) {
					return fmt.Errorf("%s is shared in %s but the directory has %s",
						addr, id, entry)
				}
			}
		}
	}

	return nil
}

// progressHook counts a hit as finished at once and a miss as in progress
// until its transaction completes.
type progressHook struct {
	bar *monitoring.ProgressBar
}

func (h progressHook) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case cpu.HookPosAccessIssue:
		if ctx.Detail.(bool) {
			h.bar.IncrementFinished(1)
		} else {
			h.bar.IncrementInProgress(1)
		}
	case cpu.HookPosAccessComplete:
		h.bar.MoveInProgressToFinished(1)
	}
}
