package sim

import (
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/xid"
)

// IDGenerator can generate IDs.
type IDGenerator interface {
	// Generate an ID.
	Generate() string
}

var (
	idGeneratorMutex sync.Mutex
	idGenerator      IDGenerator = sequentialIDGenerator{}

	// Shared by every sequential generator so that switching back and forth
	// never repeats an ID within a process.
	nextSequentialID uint64
)

// UseSequentialIDGenerator makes the simulations that are built afterwards
// number their messages, events, and tasks in sequence. Sequential IDs keep
// runs reproducible. This is the default.
func UseSequentialIDGenerator() {
	setIDGenerator(sequentialIDGenerator{})
}

// UseParallelIDGenerator makes the simulations that are built afterwards use
// globally unique IDs, which stay unique across processes but are not
// reproducible.
func UseParallelIDGenerator() {
	setIDGenerator(parallelIDGenerator{})
}

func setIDGenerator(g IDGenerator) {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	idGenerator = g
}

// GetIDGenerator returns the ID generator in use.
func GetIDGenerator() IDGenerator {
	idGeneratorMutex.Lock()
	defer idGeneratorMutex.Unlock()

	return idGenerator
}

type sequentialIDGenerator struct{}

func (sequentialIDGenerator) Generate() string {
	return strconv.FormatUint(atomic.AddUint64(&nextSequentialID, 1), 10)
}

type parallelIDGenerator struct{}

func (parallelIDGenerator) Generate() string {
	return xid.New().String()
}
