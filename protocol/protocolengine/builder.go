package protocolengine

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/home"
	"github.com/sarchlab/protoengine/protocol/inputq"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/remote"
	"github.com/sarchlab/protoengine/protocol/scheduler"
	"github.com/sarchlab/protoengine/protocol/tsrf"
)

// Builder can build protocol engines.
type Builder struct {
	role                Role
	tsrfSize            int
	starvationThreshold int
	checkInvariants     bool
	service             protocol.ServiceProvider
	program             *microcode.Program
}

// MakeBuilder creates a Builder with default parameters.
func MakeBuilder() Builder {
	return Builder{
		tsrfSize:            16,
		starvationThreshold: scheduler.DefaultStarvationThreshold,
	}
}

// WithRole sets whether the engine is a Home or a Remote engine.
func (b Builder) WithRole(r Role) Builder {
	b.role = r
	return b
}

// WithTSRFSize sets the number of general TSRF entries.
func (b Builder) WithTSRFSize(n int) Builder {
	b.tsrfSize = n
	return b
}

// WithStarvationThreshold sets how many cycles a virtual channel may be
// skipped before it is scanned first. Zero keeps strict priority.
func (b Builder) WithStarvationThreshold(n int) Builder {
	b.starvationThreshold = n
	return b
}

// WithInvariantChecks makes the engine check, after every scan of its
// queues, that no address has more than one runnable or waiting thread.
func (b Builder) WithInvariantChecks(check bool) Builder {
	b.checkInvariants = check
	return b
}

// WithServiceProvider sets the node services the engine uses.
func (b Builder) WithServiceProvider(s protocol.ServiceProvider) Builder {
	b.service = s
	return b
}

// WithProgram sets the microcode the engine runs.
func (b Builder) WithProgram(p *microcode.Program) Builder {
	b.program = p
	return b
}

// Build creates an engine.
func (b Builder) Build(name string) *Engine {
	b.mustBeValid(name)

	e := &Engine{
		name:     name,
		role:     b.role,
		tsrfSize: b.tsrfSize,
		Pool:     tsrf.NewPool(b.tsrfSize),
		Queues:   inputq.NewController(name, b.service, nil),

		checkInvariants: b.checkInvariants,
	}

	var executor interface {
		microcode.Executor
		SetScheduler(s microcode.Scheduler)
	}

	switch b.role {
	case RoleHome:
		e.Home = home.NewEngine(name, b.service)
		executor = e.Home
	case RoleRemote:
		e.Remote = remote.NewEngine(name, b.service)
		executor = e.Remote
	}

	e.Emulator = microcode.NewEmulator(name, b.program, executor)
	e.Scheduler = scheduler.New(name, e.Pool, e.Queues, b.service, e.Emulator)
	e.Scheduler.StarvationThreshold = b.starvationThreshold
	e.Queues.SetRaceHandler(e.Scheduler)
	executor.SetScheduler(e.Scheduler)

	return e
}

func (b Builder) mustBeValid(name string) {
	if b.service == nil {
		log.Panicf("%s: no service provider", name)
	}

	if b.program == nil {
		log.Panicf("%s: no microcode program", name)
	}

	if b.tsrfSize < 1 {
		log.Panicf("%s: TSRF size must be positive, got %d", name, b.tsrfSize)
	}

	if b.starvationThreshold < 0 {
		log.Panicf("%s: negative starvation threshold", name)
	}

	switch b.role {
	case RoleHome:
		if b.program.Magic != home.Magic {
			log.Panicf("%s: not a Home Engine program", name)
		}
	case RoleRemote:
		if b.program.Magic != remote.Magic {
			log.Panicf("%s: not a Remote Engine program", name)
		}
	default:
		log.Panicf("%s: unknown role %d", name, b.role)
	}
}
