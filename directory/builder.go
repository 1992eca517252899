package directory

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/sim"
)

// Builder can build directories.
type Builder struct {
	timeTeller sim.TimeTeller
	latency    int
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		latency: 10,
	}
}

// WithTimeTeller sets the clock the latency is counted on.
func (b Builder) WithTimeTeller(t sim.TimeTeller) Builder {
	b.timeTeller = t
	return b
}

// WithLatency sets the number of cycles a read takes.
func (b Builder) WithLatency(cycles int) Builder {
	b.latency = cycles
	return b
}

// Build creates a directory.
func (b Builder) Build(name string) *Directory {
	sim.NameMustBeValid(name)

	if b.timeTeller == nil {
		log.Panicf("%s: no time teller", name)
	}

	if b.latency < 0 {
		log.Panicf("%s: negative latency %d", name, b.latency)
	}

	return &Directory{
		name:       name,
		timeTeller: b.timeTeller,
		latency:    b.latency,
		entries:    make(map[protocol.Address]*protocol.DirEntry),
		locks:      make(map[protocol.Address]*lockState),
	}
}
