package protocolengine

// Stats is a snapshot of the statistics of an engine.
type Stats struct {
	Engine string
	Role   string

	ThreadsCreated    uint64
	AvgThreadLifetime float64
	MaxThreadLifetime uint64
	AvgThreadRuntime  float64
	AvgThreadUops     float64

	LocalConflictStallCycles   uint64
	LocalNoTSRFStallCycles     uint64
	NetworkConflictStallCycles uint64
	NetworkNoTSRFStallCycles   uint64
	Cancellations              uint64
	StarvationPromotions       uint64

	AvgQueueWait float64
	Steals       uint64

	ProtocolErrors uint64
	Instructions   uint64
}

// Stats returns the current statistics.
func (e *Engine) Stats() Stats {
	m := &e.Scheduler.Metrics
	q := &e.Queues.Metrics

	s := Stats{
		Engine:                     e.name,
		Role:                       e.role.String(),
		ThreadsCreated:             m.ThreadsCreated,
		AvgThreadLifetime:          m.ThreadLifetime.Mean(),
		MaxThreadLifetime:          m.ThreadLifetime.Max,
		AvgThreadRuntime:           m.ThreadRuntime.Mean(),
		AvgThreadUops:              m.ThreadUops.Mean(),
		LocalConflictStallCycles:   m.LocalConflictStallCycles,
		LocalNoTSRFStallCycles:     m.LocalNoTSRFStallCycles,
		NetworkConflictStallCycles: m.NetworkConflictStallCycles,
		NetworkNoTSRFStallCycles:   m.NetworkNoTSRFStallCycles,
		Cancellations:              m.Cancellations,
		StarvationPromotions:       m.StarvationPromotions,
		AvgQueueWait:               q.WaitTime.Mean(),
		Steals:                     q.Steals,
		ProtocolErrors:             e.ProtocolErrors(),
	}

	for _, c := range e.Emulator.Program().Counts {
		s.Instructions += c
	}

	return s
}
