package interconnect

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// Builder can build networks.
type Builder struct {
	engine  sim.Engine
	latency int
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		latency: 20,
	}
}

// WithEngine sets the event engine the network ticks on.
func (b Builder) WithEngine(e sim.Engine) Builder {
	b.engine = e
	return b
}

// WithLatency sets the number of cycles a packet spends in the network.
func (b Builder) WithLatency(cycles int) Builder {
	b.latency = cycles
	return b
}

// Build creates a network.
func (b Builder) Build(name string) *Network {
	if b.engine == nil {
		log.Panicf("%s: no engine", name)
	}

	if b.latency < 1 {
		log.Panicf("%s: latency must be at least one cycle, got %d",
			name, b.latency)
	}

	n := &Network{
		latency: b.latency,
		dests:   make(map[protocol.NodeID]*destination),
	}
	n.TickingComponent = sim.NewTickingComponent(name, b.engine, n)

	return n
}
