package platform

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"github.com/sarchlab/protoengine/cpu"
	"github.com/sarchlab/protoengine/protocol/protocolengine"
	"github.com/sarchlab/protoengine/sim"
)

// EngineReport is the summary of one protocol engine.
type EngineReport struct {
	protocolengine.Stats

	// BusyCycles counts the cycles with at least one live thread.
	BusyCycles sim.VTimeInCycle

	// AvgLiveThreads is the number of live threads averaged over the run.
	AvgLiveThreads float64
}

// Report summarizes a run.
type Report struct {
	Cycles sim.VTimeInCycle

	Transactions          uint64
	AvgTransactionLatency float64
	MaxTransactionLatency sim.VTimeInCycle

	Messages          uint64
	AvgMessageLatency float64
	NetworkBytes      uint64

	// ThreadSteps counts how often engine threads reached each step, such
	// as blocking on a conflict or waiting for the directory.
	ThreadSteps map[string]uint64

	CPUs    []cpu.Metrics
	Engines []EngineReport
}

// Report collects the statistics of the platform.
func (p *Platform) Report() Report {
	r := Report{
		Cycles:                p.Engine.CurrentTime(),
		Transactions:          p.transactionTracer.TotalCount(),
		AvgTransactionLatency: p.transactionTracer.AverageTime(),
		MaxTransactionLatency: p.transactionTracer.MaxTime(),
		Messages:              p.messageTracer.TotalCount(),
		AvgMessageLatency:     p.messageTracer.AverageTime(),
		NetworkBytes:          p.Network.Metrics.PayloadBytes,
		ThreadSteps:           make(map[string]uint64),
	}

	for _, step := range p.threadSteps.GetStepNames() {
		r.ThreadSteps[step] = p.threadSteps.GetStepCount(step)
	}

	for _, c := range p.CPUs {
		r.CPUs = append(r.CPUs, c.Metrics)
	}

	for _, e := range p.Engines() {
		er := EngineReport{
			Stats:      e.Stats(),
			BusyCycles: p.busyTime[e.Name()].BusyTime(),
		}

		if r.Cycles > 0 {
			er.AvgLiveThreads = float64(p.threadTime[e.Name()].TotalTime()) /
				float64(r.Cycles)
		}

		r.Engines = append(r.Engines, er)
	}

	return r
}

// WriteTo prints the report as tables.
func (r Report) WriteTo(w io.Writer) (int64, error) {
	cw := &countingWriter{w: w}
	tw := tabwriter.NewWriter(cw, 0, 4, 2, ' ', tabwriter.AlignRight)

	fmt.Fprintf(tw, "cycles\t%d\t\n", r.Cycles)
	fmt.Fprintf(tw, "transactions\t%d\t\n", r.Transactions)
	fmt.Fprintf(tw, "avg transaction latency\t%.1f\t\n", r.AvgTransactionLatency)
	fmt.Fprintf(tw, "max transaction latency\t%d\t\n", r.MaxTransactionLatency)
	fmt.Fprintf(tw, "messages\t%d\t\n", r.Messages)
	fmt.Fprintf(tw, "avg message latency\t%.1f\t\n", r.AvgMessageLatency)
	fmt.Fprintf(tw, "network bytes\t%d\t\n", r.NetworkBytes)
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "cpu\taccesses\thits\treads\twrites\tupgrades\tprefetches\t"+
		"evictions\tinvalidations\tdowngrades\tavg miss\t")
	for i, m := range r.CPUs {
		fmt.Fprintf(tw, "%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f\t\n",
			i, m.Accesses, m.Hits, m.ReadMisses, m.WriteMisses, m.Upgrades,
			m.Prefetches, m.Evictions, m.Invalidations, m.Downgrades,
			m.MissLatency.Mean())
	}
	fmt.Fprintln(tw)

	fmt.Fprintln(tw, "engine\tthreads\tavg life\tmax life\tavg uops\t"+
		"busy\tavg live\tcancels\tstarved\terrors\t")
	for _, e := range r.Engines {
		fmt.Fprintf(tw, "%s\t%d\t%.1f\t%d\t%.1f\t%d\t%.2f\t%d\t%d\t%d\t\n",
			e.Engine, e.ThreadsCreated, e.AvgThreadLifetime,
			e.MaxThreadLifetime, e.AvgThreadUops, e.BusyCycles,
			e.AvgLiveThreads, e.Cancellations, e.StarvationPromotions,
			e.ProtocolErrors)
	}

	if len(r.ThreadSteps) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "thread step\tcount\t")

		steps := make([]string, 0, len(r.ThreadSteps))
		for step := range r.ThreadSteps {
			steps = append(steps, step)
		}
		sort.Strings(steps)

		for _, step := range steps {
			fmt.Fprintf(tw, "%s\t%d\t\n", step, r.ThreadSteps[step])
		}
	}

	err := tw.Flush()

	return cw.n, err
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(b []byte) (int, error) {
	n, err := c.w.Write(b)
	c.n += int64(n)

	return n, err
}
