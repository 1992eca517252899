package sim

// VTimeInCycle is the simulated time, counted in clock cycles since the
// simulation started.
type VTimeInCycle uint64

// TimeTeller can tell the current simulated cycle.
type TimeTeller interface {
	CurrentTime() VTimeInCycle
}
