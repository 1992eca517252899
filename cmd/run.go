package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/sarchlab/protoengine/datarecording"
	"github.com/sarchlab/protoengine/monitoring"
	"github.com/sarchlab/protoengine/platform"
	"github.com/sarchlab/protoengine/protocol/home"
	"github.com/sarchlab/protoengine/protocol/microcode"
	"github.com/sarchlab/protoengine/protocol/msi"
	"github.com/sarchlab/protoengine/protocol/remote"
	"github.com/sarchlab/protoengine/sim"
	"github.com/sarchlab/protoengine/tracing"
)

type runOptions struct {
	nodes          int
	interleaving   uint64
	tsrfSize       int
	cpi            int
	fast           bool
	dirLatency     int
	netLatency     int
	starvation     int
	accesses       int
	lines          int
	cacheLines     int
	maxOutstanding int
	writeRatio     float64
	prefetchRatio  float64
	seed           int64
	parallelIDs    bool
	checks         bool

	homeMCD    string
	remoteMCD  string
	countersIn string

	db          string
	traceTasks  bool
	traceLog    bool
	traceEvents bool
	backTrace   bool
	monitor     bool
	monitorPort int
	openMonitor bool
	verify      bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a synthetic workload on a system of nodes.",
	Long: `Run builds a system of nodes connected by a fixed-latency ` +
		`network. Every node has a Home Engine, a Remote Engine, a directory, ` +
		`and a CPU that issues random accesses to lines homed elsewhere. ` +
		`The run ends when all the accesses complete.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runSimulation(cmd, runOpts)
	},
}

func init() {
	f := runCmd.Flags()

	f.IntVar(&runOpts.nodes, "nodes", 4, "Number of nodes.")
	f.Uint64Var(&runOpts.interleaving, "interleaving", 64,
		"Bytes homed at a node before the next node takes over.")
	f.IntVar(&runOpts.tsrfSize, "tsrf", 16,
		"General TSRF entries of each engine.")
	f.IntVar(&runOpts.cpi, "cpi", 4, "Cycles per micro-op.")
	f.BoolVar(&runOpts.fast, "fast", false,
		"Run micro-ops and directory accesses in one cycle.")
	f.IntVar(&runOpts.dirLatency, "dir-latency", 10,
		"Cycles of a directory read.")
	f.IntVar(&runOpts.netLatency, "net-latency", 20,
		"Cycles a packet spends in the network.")
	f.IntVar(&runOpts.starvation, "starvation", 32,
		"Cycles a virtual channel may be skipped before it is promoted. "+
			"0 disables promotion.")
	f.IntVar(&runOpts.accesses, "accesses", 1000, "Accesses issued by each CPU.")
	f.IntVar(&runOpts.lines, "lines", 64, "Lines each CPU accesses.")
	f.IntVar(&runOpts.cacheLines, "cache-lines", 16,
		"Lines each CPU cache holds.")
	f.IntVar(&runOpts.maxOutstanding, "outstanding", 4,
		"Misses each CPU may have in flight.")
	f.Float64Var(&runOpts.writeRatio, "write-ratio", 0.3,
		"Share of accesses that are writes.")
	f.Float64Var(&runOpts.prefetchRatio, "prefetch-ratio", 0.1,
		"Share of read misses that are prefetches.")
	f.Int64Var(&runOpts.seed, "seed", 1, "Seed of the address streams.")
	f.BoolVar(&runOpts.parallelIDs, "parallel-ids", false,
		"Give messages, events, and tasks globally unique IDs instead of "+
			"sequential ones. Runs are then no longer reproducible.")
	f.BoolVar(&runOpts.checks, "check-invariants", false,
		"Panic as soon as an address has two runnable or two waiting threads.")

	f.StringVar(&runOpts.homeMCD, "home-mcd", "",
		"Home Engine microcode file. The built-in MSI protocol is used if empty.")
	f.StringVar(&runOpts.remoteMCD, "remote-mcd", "",
		"Remote Engine microcode file. The built-in MSI protocol is used if empty.")
	f.StringVar(&runOpts.countersIn, "counters", "",
		"Directory of the microcode execution counters. Counters found there "+
			"are accumulated and written back after the run.")

	f.StringVar(&runOpts.db, "db", "",
		"SQLite file that receives transactions and engine statistics.")
	f.BoolVar(&runOpts.traceTasks, "trace-tasks", false,
		"Also store every transaction, thread, and message in the database.")
	f.BoolVar(&runOpts.traceLog, "trace-log", false,
		"Log every node, engine, and directory event to stderr.")
	f.BoolVar(&runOpts.traceEvents, "trace-events", false,
		"Log every event the simulation engine handles to stderr.")
	f.BoolVar(&runOpts.backTrace, "back-trace", true,
		"Print the unfinished transactions if the run gets stuck.")
	f.BoolVar(&runOpts.monitor, "monitor", false,
		"Serve the monitoring page while the simulation runs.")
	f.IntVar(&runOpts.monitorPort, "monitor-port", 0,
		"Port of the monitoring server. A random port is used if 0.")
	f.BoolVar(&runOpts.openMonitor, "open-monitor", false,
		"Open the monitoring page in a browser. Implies --monitor.")
	f.BoolVar(&runOpts.verify, "verify", true,
		"Check the caches against the directories after the run.")

	rootCmd.AddCommand(runCmd)
}

func runSimulation(cmd *cobra.Command, o runOptions) error {
	homeProgram, remoteProgram, err := loadPrograms(o)
	if err != nil {
		return err
	}

	if o.parallelIDs {
		sim.UseParallelIDGenerator()
	}

	b := platform.MakeBuilder().
		WithNumNodes(o.nodes).
		WithInterleaving(o.interleaving).
		WithTSRFSize(o.tsrfSize).
		WithCPI(o.cpi).
		WithFastMode(o.fast).
		WithDirectoryLatency(o.dirLatency).
		WithNetworkLatency(o.netLatency).
		WithStarvationThreshold(o.starvation).
		WithInvariantChecks(o.checks).
		WithHomeProgram(homeProgram).
		WithRemoteProgram(remoteProgram).
		WithAccesses(o.accesses).
		WithNumLines(o.lines).
		WithCacheCapacity(o.cacheLines).
		WithMaxOutstanding(o.maxOutstanding).
		WithWriteRatio(o.writeRatio).
		WithPrefetchRatio(o.prefetchRatio).
		WithSeed(o.seed)

	var logger *nodeLogger
	if o.traceLog {
		logger = newNodeLogger(log.New(cmd.ErrOrStderr(), "", 0))
		b = b.WithLogHook(logger)
	}

	if o.backTrace {
		b = b.WithBackTrace(cmd.ErrOrStderr())
	}

	if o.db != "" {
		writer, err := datarecording.New(o.db)
		if err != nil {
			return err
		}

		b = b.WithDataRecorder(writer).WithTaskTracing(o.traceTasks)
	}

	var m *monitoring.Monitor
	if o.monitor || o.openMonitor {
		m = monitoring.NewMonitor().WithPortNumber(o.monitorPort)
		b = b.WithMonitor(m)
	}

	p := b.Build("System")

	if logger != nil {
		logger.timeTeller = p.Engine
	}

	if o.traceEvents {
		p.Engine.AcceptHook(sim.NewEventLogger(log.New(cmd.ErrOrStderr(), "", 0)))
	}

	if m != nil {
		if err := startMonitor(m, o.openMonitor); err != nil {
			return err
		}
	}

	runErr := p.Run()

	_, err = p.Report().WriteTo(cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if runErr != nil {
		return runErr
	}

	if err := saveCounters(o, homeProgram, remoteProgram); err != nil {
		return err
	}

	if errs := p.ProtocolErrors(); errs > 0 {
		return fmt.Errorf("%d protocol errors", errs)
	}

	if o.verify {
		if err := p.VerifyCoherence(); err != nil {
			return fmt.Errorf("coherence check failed: %w", err)
		}
	}

	return nil
}

func loadPrograms(o runOptions) (homeProgram, remoteProgram *microcode.Program, err error) {
	homeProgram, remoteProgram = msi.HomeProgram(), msi.RemoteProgram()

	if o.homeMCD != "" {
		homeProgram, err = microcode.LoadFile(o.homeMCD, home.Magic)
		if err != nil {
			return nil, nil, err
		}
	}

	if o.remoteMCD != "" {
		remoteProgram, err = microcode.LoadFile(o.remoteMCD, remote.Magic)
		if err != nil {
			return nil, nil, err
		}
	}

	if o.countersIn == "" {
		return homeProgram, remoteProgram, nil
	}

	for _, c := range counterFiles(o, homeProgram, remoteProgram) {
		ok, err := c.program.RestoreCounters(c.path)
		if err != nil {
			return nil, nil, err
		}

		if !ok {
			fmt.Fprintf(os.Stderr, "no counters of %s in %s, starting from zero\n",
				c.program.ID, c.path)
		}
	}

	return homeProgram, remoteProgram, nil
}

type counterFile struct {
	program *microcode.Program
	path    string
}

func counterFiles(o runOptions, homeProgram, remoteProgram *microcode.Program) []counterFile {
	return []counterFile{
		{homeProgram, filepath.Join(o.countersIn, "home.cnt")},
		{remoteProgram, filepath.Join(o.countersIn, "remote.cnt")},
	}
}

func saveCounters(o runOptions, homeProgram, remoteProgram *microcode.Program) error {
	if o.countersIn == "" {
		return nil
	}

	if err := os.MkdirAll(o.countersIn, 0o755); err != nil {
		return err
	}

	for _, c := range counterFiles(o, homeProgram, remoteProgram) {
		if err := c.program.SaveCounters(c.path); err != nil {
			return err
		}
	}

	return nil
}

func startMonitor(m *monitoring.Monitor, open bool) error {
	port, err := m.StartServer()
	if err != nil {
		return err
	}

	if open {
		url := fmt.Sprintf("http://localhost:%d", port)
		if err := browser.OpenURL(url); err != nil {
			fmt.Fprintf(os.Stderr, "cannot open %s: %v\n", url, err)
		}
	}

	return nil
}

// nodeLogger prints the hook events of nodes, engines, and directories.
// Task tracing events are left to the tracers.
type nodeLogger struct {
	sim.LogHookBase
	timeTeller sim.TimeTeller
}

func newNodeLogger(l *log.Logger) *nodeLogger {
	h := &nodeLogger{}
	h.Logger = l

	return h
}

func (h *nodeLogger) Func(ctx sim.HookCtx) {
	switch ctx.Pos {
	case tracing.HookPosTaskStart, tracing.HookPosTaskStep, tracing.HookPosTaskEnd:
		return
	}

	domain, ok := ctx.Domain.(sim.Named)
	if !ok {
		return
	}

	now := sim.VTimeInCycle(0)
	if h.timeTeller != nil {
		now = h.timeTeller.CurrentTime()
	}

	if ctx.Detail != nil {
		h.Printf("%d %s %s: %v (%v)",
			now, domain.Name(), ctx.Pos.Name, ctx.Item, ctx.Detail)
		return
	}

	h.Printf("%d %s %s: %v", now, domain.Name(), ctx.Pos.Name, ctx.Item)
}
