package microcode

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
	"github.com/sarchlab/protoengine/protocol/tsrf"
	"github.com/sarchlab/protoengine/sim"
)

// HookPosExecute marks the execution of one instruction. The hook item is
// the thread and the detail is an Execution.
var HookPosExecute = &sim.HookPos{Name: "Microcode Execute"}

// Execution describes one executed instruction.
type Execution struct {
	PC          int
	Instruction Instruction
}

// An Executor gives meaning to the opcodes of one engine.
type Executor interface {
	// Execute runs one instruction. The thread PC already points to the
	// next instruction.
	Execute(t tsrf.Thread, op int, args uint32, pc int)

	// EntryPoint returns where a thread handling a new message starts.
	EntryPoint(
		mt protocol.MessageType,
		t tsrf.Thread,
		state protocol.DirState,
	) int

	// DeliverReply resumes a waiting thread with a reply.
	DeliverReply(t tsrf.Thread, mt protocol.MessageType)
}

// Scheduler is what the executors need from the thread scheduler.
type Scheduler interface {
	WaitForPacket(t tsrf.Thread)
	RefusePacket(t tsrf.Thread)
}

// Emulator runs threads on a program with an engine-specific executor.
type Emulator struct {
	sim.HookableBase

	name     string
	program  *Program
	executor Executor
}

// NewEmulator creates an Emulator.
func NewEmulator(name string, program *Program, executor Executor) *Emulator {
	if program == nil {
		log.Panicf("%s: no microcode program", name)
	}

	return &Emulator{
		name:     name,
		program:  program,
		executor: executor,
	}
}

// Name returns the name of the engine.
func (e *Emulator) Name() string {
	return e.name
}

// Program returns the loaded program.
func (e *Emulator) Program() *Program {
	return e.program
}

// RunThread issues at most one instruction of a runnable thread, unless the
// thread has no stall cycles at all, in which case it keeps running until
// it stops being runnable. It returns the number of instructions executed.
func (e *Emulator) RunThread(t tsrf.Thread) int {
	if !t.Is(tsrf.Runnable) {
		log.Panicf("%s: running %s which is not runnable", e.name, t)
	}

	executed := 0
	done := false

	for !done && t.Is(tsrf.Runnable) {
		if t.StallCycles() <= 0 {
			pc := t.PC()
			inst := e.program.At(pc)
			t.SetPC(inst.Next)
			e.program.Counts[pc]++

			e.invokeExecute(t, pc, inst)
			e.executor.Execute(t, inst.Op, inst.Args, pc)

			t.IncrUopCount()
			t.ResetStallCycles()
			executed++
		} else {
			t.DecStallCycles()
		}

		done = t.StallCycles() != -1
	}

	return executed
}

// EntryPoint forwards to the executor.
func (e *Emulator) EntryPoint(
	mt protocol.MessageType,
	t tsrf.Thread,
	state protocol.DirState,
) int {
	return e.executor.EntryPoint(mt, t, state)
}

// DeliverReply forwards to the executor.
func (e *Emulator) DeliverReply(t tsrf.Thread, mt protocol.MessageType) {
	e.executor.DeliverReply(t, mt)
}

func (e *Emulator) invokeExecute(t tsrf.Thread, pc int, inst Instruction) {
	if e.NumHooks() == 0 {
		return
	}

	e.InvokeHook(sim.HookCtx{
		Domain: e,
		Pos:    HookPosExecute,
		Item:   t,
		Detail: Execution{PC: pc, Instruction: inst},
	})
}
