package node

import (
	"fmt"
	"log"

	"github.com/sarchlab/protoengine/directory"
	"github.com/sarchlab/protoengine/memmap"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
	"github.com/sarchlab/protoengine/sim"
)

// Builder can build nodes.
type Builder struct {
	engine              sim.Engine
	id                  protocol.NodeID
	mapper              memmap.Mapper
	tsrfSize            int
	cpi                 int
	fastMode            bool
	directoryLatency    int
	starvationThreshold int
	checkInvariants     bool
	homeProgram         *microcode.Program
	remoteProgram       *microcode.Program
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		tsrfSize:            16,
		cpi:                 4,
		directoryLatency:    10,
		starvationThreshold: 32,
	}
}

// WithEngine sets the event engine the node ticks on.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithID sets the id of the node.
func (b Builder) WithID(id protocol.NodeID) Builder {
	b.id = id
	return b
}

// WithMapper sets how addresses map to their home nodes.
func (b Builder) WithMapper(m memmap.Mapper) Builder {
	b.mapper = m
	return b
}

// WithTSRFSize sets the number of general TSRF entries of each engine.
func (b Builder) WithTSRFSize(n int) Builder {
	b.tsrfSize = n
	return b
}

// WithCPI sets the number of cycles each micro-op takes.
func (b Builder) WithCPI(cpi int) Builder {
	b.cpi = cpi
	return b
}

// WithFastMode makes every micro-op and every directory access take a
// single cycle.
func (b Builder) WithFastMode(fast bool) Builder {
	b.fastMode = fast
	return b
}

// WithDirectoryLatency sets the number of cycles a directory read takes.
func (b Builder) WithDirectoryLatency(cycles int) Builder {
	b.directoryLatency = cycles
	return b
}

// WithStarvationThreshold sets the virtual channel starvation threshold of
// both engines.
func (b Builder) WithStarvationThreshold(n int) Builder {
	b.starvationThreshold = n
	return b
}

// WithInvariantChecks makes both engines check their threads after every
// scan of their queues.
func (b Builder) WithInvariantChecks(check bool) Builder {
	b.checkInvariants = check
	return b
}

// WithHomeProgram sets the microcode of the Home Engine.
func (b Builder) WithHomeProgram(p *microcode.Program) Builder {
	b.homeProgram = p
	return b
}

// WithRemoteProgram sets the microcode of the Remote Engine.
func (b Builder) WithRemoteProgram(p *microcode.Program) Builder {
	b.remoteProgram = p
	return b
}

// Build creates a node. The network and the CPU are set after the build.
func (b Builder) Build(name string) *Node {
	b.mustBeValid(name)

	n := &Node{
		id:     b.id,
		mapper: b.mapper,
		cpi:    b.cpi,
	}
	n.TickingComponent = sim.NewTickingComponent(name, b.engine, n)
	n.cpuIn = sim.NewBuffer(name+".CPUIn", 0)
	n.outNet = sim.NewBuffer(name+".NetOut", 0)
	n.outCPU = sim.NewBuffer(name+".CPUOut", 0)
	n.outPredictor = sim.NewBuffer(name+".PredictorOut", 0)

	dirLatency := b.directoryLatency
	if b.fastMode {
		n.cpi = 1
		dirLatency = 1
	}

	n.Directory = directory.MakeBuilder().
		WithTimeTeller(b.engine).
		WithLatency(dirLatency).
		Build(fmt.Sprintf("%s.Directory", name))

	n.HE = protocolengine.MakeBuilder().
		WithRole(protocolengine.RoleHome).
		WithTSRFSize(b.tsrfSize).
		WithStarvationThreshold(b.starvationThreshold).
		WithInvariantChecks(b.checkInvariants).
		WithServiceProvider(&services{Node: n, home: true}).
		WithProgram(b.homeProgram).
		Build(fmt.Sprintf("%s.HE", name))

	n.RE = protocolengine.MakeBuilder().
		WithRole(protocolengine.RoleRemote).
		WithTSRFSize(b.tsrfSize).
		WithStarvationThreshold(b.starvationThreshold).
		WithInvariantChecks(b.checkInvariants).
		WithServiceProvider(&services{Node: n}).
		WithProgram(b.remoteProgram).
		Build(fmt.Sprintf("%s.RE", name))

	return n
}

func (b Builder) mustBeValid(name string) {
	if b.engine == nil {
		log.Panicf("%s: no engine", name)
	}

	if b.mapper == nil {
		log.Panicf("%s: no address mapper", name)
	}

	if !b.id.Valid() || int(b.id) >= b.mapper.NumNodes() {
		log.Panicf("%s: node id %s is out of range", name, b.id)
	}

	if b.cpi < 1 {
		log.Panicf("%s: CPI must be positive, got %d", name, b.cpi)
	}

	if b.homeProgram == nil || b.remoteProgram == nil {
		log.Panicf("%s: both engines need a program", name)
	}
}
