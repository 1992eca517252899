package cpu

import (
	"log"
	"math/rand"

	"github.com/sarchlab/protoengine/memmap"
	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// Builder can build CPUs.
type Builder struct {
	engine         sim.Engine
	id             protocol.NodeID
	mapper         memmap.Mapper
	seed           int64
	numLines       int
	capacity       int
	accesses       int
	maxOutstanding int
	writeRatio     float64
	prefetchRatio  float64
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		seed:           1,
		numLines:       64,
		capacity:       16,
		accesses:       1000,
		maxOutstanding: 4,
		writeRatio:     0.3,
		prefetchRatio:  0.1,
	}
}

// WithEngine sets the event engine the CPU ticks on.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithID sets the node the CPU belongs to.
func (b Builder) WithID(id protocol.NodeID) Builder {
	b.id = id
	return b
}

// WithMapper sets how addresses map to their home nodes.
func (b Builder) WithMapper(m memmap.Mapper) Builder {
	b.mapper = m
	return b
}

// WithSeed sets the seed of the address stream. CPUs of different nodes
// derive different streams from the same seed.
func (b Builder) WithSeed(seed int64) Builder {
	b.seed = seed
	return b
}

// WithNumLines sets how many distinct lines the CPU accesses.
func (b Builder) WithNumLines(n int) Builder {
	b.numLines = n
	return b
}

// WithCapacity sets the number of lines the cache holds.
func (b Builder) WithCapacity(n int) Builder {
	b.capacity = n
	return b
}

// WithAccesses sets the number of accesses to issue.
func (b Builder) WithAccesses(n int) Builder {
	b.accesses = n
	return b
}

// WithMaxOutstanding sets how many misses may be in flight at once.
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

// Build creates a CPU. The node is set after the build.
func (b Builder) Build(name string) *CPU {
	b.mustBeValid(name)

	c := &CPU{
		id:             b.id,
		rng:            rand.New(rand.NewSource(b.seed + int64(b.id))),
		lines:          b.remoteLines(),
		capacity:       b.capacity,
		maxOutstanding: b.maxOutstanding,
		writeRatio:     b.writeRatio,
		prefetchRatio:  b.prefetchRatio,
		AccessesLeft:   b.accesses,
		cache:          make(map[protocol.Address]LineState),
		pending:        make(map[protocol.Address]*protocol.Tracker),
	}
	c.TickingComponent = sim.NewTickingComponent(name, b.engine, c)

	return c
}

// remoteLines picks the lowest lines that are homed at other nodes, so that
// the CPUs of the system share them.
func (b Builder) remoteLines() []protocol.Address {
	lines := make([]protocol.Address, 0, b.numLines)

	for addr := protocol.Address(0); len(lines) < b.numLines; addr += protocol.LineSize {
		if b.mapper.NodeForAddress(addr) != b.id {
			lines = append(lines, addr)
		}
	}

	return lines
}

func (b Builder) mustBeValid(name string) {
	if b.engine == nil {
		log.Panicf("%s: no engine", name)
	}

	if b.mapper == nil || b.mapper.NumNodes() < 2 {
		log.Panicf("%s: needs a mapper with at least two nodes", name)
	}

	if b.numLines < 1 || b.capacity < 1 || b.accesses < 0 {
		log.Panicf("%s: invalid workload", name)
	}

	if b.maxOutstanding < 1 {
		log.Panicf("%s: at least one access must be allowed in flight", name)
	}

	if b.writeRatio < 0 || b.writeRatio > 1 ||
		b.prefetchRatio < 0 || b.prefetchRatio > 1 {
		log.Panicf("%s: ratios must be between 0 and 1", name)
	}
}
