package platform

import (
	"fmt"
	"io"
	"log"

	"github.com/sarchlab/protoengine/cpu"
	"github.com/sarchlab/protoengine/datarecording"
	"github.com/sarchlab/protoengine/interconnect"
	"github.com/sarchlab/protoengine/memmap"
	"github.com/sarchlab/protoengine/monitoring"
	"github.com/sarchlab/protoengine/node"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/msi"
	"github.com/sarchlab/protoengine/sim"
	"github.com/sarchlab/protoengine/tracing"
)

// Builder can build platforms.
type Builder struct {
	numNodes            int
	interleaving        uint64
	tsrfSize            int
	cpi                 int
	fastMode            bool
	directoryLatency    int
	networkLatency      int
	starvationThreshold int
	checkInvariants     bool
	homeProgram         *microcode.Program
	remoteProgram       *microcode.Program

	accesses       int
	numLines       int
	cacheCapacity  int
	maxOutstanding int
	writeRatio     float64
	prefetchRatio  float64
	seed           int64

	recorder   datarecording.DataRecorder
	traceTasks bool
	backTrace  io.Writer
	logHook    sim.Hook
	monitor    *monitoring.Monitor
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		numNodes:            4,
		interleaving:        protocol.LineSize,
		tsrfSize:            16,
		cpi:                 4,
		directoryLatency:    10,
		networkLatency:      20,
		starvationThreshold: 32,
		accesses:            1000,
		numLines:            64,
		cacheCapacity:       16,
		maxOutstanding:      4,
		writeRatio:          0.3,
		prefetchRatio:       0.1,
		seed:                1,
	}
}

// WithNumNodes sets the number of nodes.
func (b Builder) WithNumNodes(n int) Builder {
	b.numNodes = n
	return b
}

// WithInterleaving sets the number of bytes mapped to a home node before
// the next node takes over.
func (b Builder) WithInterleaving(bytes uint64) Builder {
	b.interleaving = bytes
	return b
}

// WithTSRFSize sets the number of general TSRF entries of every engine.
func (b Builder) WithTSRFSize(n int) Builder {
	b.tsrfSize = n
	return b
}

// WithCPI sets the number of cycles each micro-op takes.
func (b Builder) WithCPI(cpi int) Builder {
	b.cpi = cpi
	return b
}

// WithFastMode makes micro-ops and directory accesses take one cycle.
func (b Builder) WithFastMode(fast bool) Builder {
	b.fastMode = fast
	return b
}

// WithDirectoryLatency sets the number of cycles a directory read takes.
func (b Builder) WithDirectoryLatency(cycles int) Builder {
	b.directoryLatency = cycles
	return b
}

// WithNetworkLatency sets the number of cycles a packet spends in the
// network.
func (b Builder) WithNetworkLatency(cycles int) Builder {
	b.networkLatency = cycles
	return b
}

// WithStarvationThreshold sets the virtual channel starvation threshold of
// the engines.
func (b Builder) WithStarvationThreshold(n int) Builder {
	b.starvationThreshold = n
	return b
}

// WithInvariantChecks makes every engine check its threads after every scan
// of its queues and panic on a violation.
func (b Builder) WithInvariantChecks(check bool) Builder {
	b.checkInvariants = check
	return b
}

// WithHomeProgram replaces the MSI microcode of the Home Engines.
func (b Builder) WithHomeProgram(p *microcode.Program) Builder {
	b.homeProgram = p
	return b
}

// WithRemoteProgram replaces the MSI microcode of the Remote Engines.
func (b Builder) WithRemoteProgram(p *microcode.Program) Builder {
	b.remoteProgram = p
	return b
}

// WithAccesses sets the number of accesses each CPU issues.
func (b Builder) WithAccesses(n int) Builder {
	b.accesses = n
	return b
}

// WithNumLines sets the number of lines each CPU accesses.
func (b Builder) WithNumLines(n int) Builder {
	b.numLines = n
	return b
}

// WithCacheCapacity sets the number of lines each CPU cache holds.
func (b Builder) WithCacheCapacity(n int) Builder {
	b.cacheCapacity = n
	return b
}

// WithMaxOutstanding sets the number of misses a CPU may have in flight.
func (b Builder) WithMaxOutstanding(n int) Builder {
	b.maxOutstanding = n
	return b
}

// WithWriteRatio sets the share of accesses that are writes.
func (b Builder) WithWriteRatio(r float64) Builder {
	b.writeRatio = r
	return b
}

// WithPrefetchRatio sets the share of read misses issued as prefetches.
func (b Builder) WithPrefetchRatio(r float64) Builder {
	b.prefetchRatio = r
	return b
}

// WithSeed sets the seed of the CPU address streams.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithDataRecorder records the completed transactions and the final
// statistics of every engine.
func (b Builder) WithDataRecorder(r datarecording.DataRecorder) Builder {
	b.recorder = r
	return b
}

// WithTaskTracing also stores every transaction, thread, and message task
// in the data recorder.
func (b Builder) WithTaskTracing(on bool) Builder {
	b.traceTasks = on
	return b
}

// WithBackTrace prints the unfinished tasks into w if a run does not
// complete.
func (b Builder) WithBackTrace(w io.Writer) Builder {
	b.backTrace = w
	return b
}

// WithLogHook attaches a hook to every node, engine, and directory.
func (b Builder) WithLogHook(h sim.Hook) Builder {
	b.logHook = h
	return b
}

// WithMonitor registers the platform with a monitor.
func (b Builder) WithMonitor(m *monitoring.Monitor) Builder {
	b.monitor = m
	return b
}

// Build creates a platform.
func (b Builder) Build(name string) *Platform {
	b.mustBeValid(name)

	p := &Platform{
		name:   name,
		Engine: sim.NewSerialEngine(),
		Mapper: memmap.NewInterleaved(b.numNodes, b.interleaving),
	}

	p.Network = interconnect.MakeBuilder().
		WithEngine(p.Engine).
		WithLatency(b.networkLatency).
		Build(fmt.Sprintf("%s.Network", name))

	b.buildNodes(p)
	b.buildCPUs(p)
	b.buildTracers(p)
	b.attachRecorder(p)
	b.attachMonitor(p)

	return p
}

func (b Builder) programs() (home, remote *microcode.Program) {
	home, remote = b.homeProgram, b.remoteProgram

	if home == nil {
		home = msi.HomeProgram()
	}

	if remote == nil {
		remote = msi.RemoteProgram()
	}

	return home, remote
}

func (b Builder) buildNodes(p *Platform) {
	homeProgram, remoteProgram := b.programs()

	nodeBuilder := node.MakeBuilder().
		WithEngine(p.Engine).
		WithMapper(p.Mapper).
		WithTSRFSize(b.tsrfSize).
		WithCPI(b.cpi).
		WithFastMode(b.fastMode).
		WithDirectoryLatency(b.directoryLatency).
		WithStarvationThreshold(b.starvationThreshold).
		WithInvariantChecks(b.checkInvariants).
		WithHomeProgram(homeProgram).
		WithRemoteProgram(remoteProgram)

	for i := 0; i < b.numNodes; i++ {
		id := protocol.NodeID(i)
		n := nodeBuilder.WithID(id).Build(fmt.Sprintf("%s.Node[%d]", p.name, i))

		n.SetNetwork(p.Network)
		p.Network.PlugIn(id, n)

		if b.logHook != nil {
			n.AcceptHookAll(b.logHook)
		}

		p.Nodes = append(p.Nodes, n)
	}
}

func (b Builder) buildCPUs(p *Platform) {
	cpuBuilder := cpu.MakeBuilder().
		WithEngine(p.Engine).
		WithMapper(p.Mapper).
		WithSeed(b.seed).
		WithNumLines(b.numLines).
		WithCapacity(b.cacheCapacity).
		WithAccesses(b.accesses).
		WithMaxOutstanding(b.maxOutstanding).
		WithWriteRatio(b.writeRatio).
		WithPrefetchRatio(b.prefetchRatio)

	for i, n := range p.Nodes {
		c := cpuBuilder.
			WithID(protocol.NodeID(i)).
			Build(fmt.Sprintf("%s.CPU[%d]", p.name, i))

		c.SetNode(n)
		n.SetCPU(c)

		p.CPUs = append(p.CPUs, c)
	}
}

func (b Builder) buildTracers(p *Platform) {
	p.transactionTracer = tracing.NewAverageTimeTracer(
		p.Engine, tracing.KindFilter(tracing.KindTransaction))
	p.messageTracer = tracing.NewAverageTimeTracer(
		p.Engine, tracing.KindFilter(tracing.KindMessage))
	p.threadSteps = tracing.NewStepCountTracer(
		tracing.KindFilter(tracing.KindThread))
	p.busyTime = make(map[string]*tracing.BusyTimeTracer)
	p.threadTime = make(map[string]*tracing.TotalTimeTracer)

	for _, c := range p.CPUs {
		tracing.CollectTrace(c, p.transactionTracer)
	}

	for _, n := range p.Nodes {
		tracing.CollectTrace(n, p.messageTracer)

		for _, e := range p.engines(n) {
			busy := tracing.NewBusyTimeTracer(
				p.Engine, tracing.KindFilter(tracing.KindThread))
			p.busyTime[e.Name()] = busy

			threads := tracing.NewTotalTimeTracer(
				p.Engine, tracing.KindFilter(tracing.KindThread))
			p.threadTime[e.Name()] = threads

			tracing.CollectTrace(e.Scheduler, p.threadSteps)
			tracing.CollectTrace(e.Scheduler, busy)
			tracing.CollectTrace(e.Scheduler, threads)
		}
	}

	if b.backTrace != nil {
		p.backTrace = tracing.NewBackTraceTracer(
			tracing.NewWriterTaskPrinter(b.backTrace))
		p.backTrace.SetTimeTeller(p.Engine)
		p.traceEverything(p.backTrace)
	}
}

func (b Builder) attachRecorder(p *Platform) {
	if b.recorder == nil {
		return
	}

	p.recorder = NewProtocolRecorder(b.recorder)
	for _, c := range p.CPUs {
		c.AddListener(p.recorder)
	}

	if !b.traceTasks {
		return
	}

	p.taskTracer = tracing.NewDBTracer(p.Engine, b.recorder)
	p.traceEverything(p.taskTracer)
}

func (b Builder) attachMonitor(p *Platform) {
	if b.monitor == nil {
		return
	}

	m := b.monitor
	p.monitor = m

	m.RegisterEngine(p.Engine)
	m.RegisterComponent(p.Network)

	for _, n := range p.Nodes {
		m.RegisterComponent(n)

		for _, e := range p.engines(n) {
			m.RegisterStatsProvider(e)

			for _, q := range e.Queues.Levels() {
				m.RegisterBuffer(q)
			}
		}
	}

	for _, c := range p.CPUs {
		m.RegisterComponent(c)
	}

	total := uint64(b.accesses) * uint64(len(p.CPUs))
	p.progress = m.CreateProgressBar(p.name, total)

	for _, c := range p.CPUs {
		c.AcceptHook(progressHook{bar: p.progress})
	}
}

func (b Builder) mustBeValid(name string) {
	sim.NameMustBeValid(name)

	if b.numNodes < 2 || b.numNodes > protocol.MaxNodes {
		log.Panicf("%s: need 2 to %d nodes, got %d",
			name, protocol.MaxNodes, b.numNodes)
	}

	if b.tsrfSize < 1 {
		log.Panicf("%s: TSRF size must be positive, got %d", name, b.tsrfSize)
	}

	if b.maxOutstanding >= b.tsrfSize {
		log.Panicf("%s: %d outstanding misses do not fit in %d TSRF entries",
			name, b.maxOutstanding, b.tsrfSize)
	}

	if b.traceTasks && b.recorder == nil {
		log.Panicf("%s: task tracing needs a data recorder", name)
	}
}
