// Package microcode provides microcode programs and the emulator that runs
// protocol threads on them.
package microcode

import (
	"errors"
	"fmt"
	"log"
)

// Size is the number of addresses of a microcode store.
const Size = 2048

// HaltAddress is the address that halts a thread when jumped to.
const HaltAddress = 0

// Errors reported when reading microcode files.
var (
	ErrBadMagic            = errors.New("microcode: wrong magic number")
	ErrIllegalInstruction  = errors.New("microcode: illegal instruction")
	ErrTruncatedCounters   = errors.New("microcode: truncated counter file")
	ErrUnresolvedReference = errors.New("microcode: unresolved reference")
)

// An Instruction is one microcode word. Args holds the argument fields
// already shifted into place; its lowest four bits are always zero.
type Instruction struct {
	Op     int
	Args   uint32
	Next   int
	Memo   string
	Loaded bool
}

// Fields splits the arguments into the three fields of the file format.
func (i Instruction) Fields() (a1, a2, a3 uint32) {
	return (i.Args >> 4) & 0xf, (i.Args >> 8) & 0xf, i.Args >> 12
}

// EncodeArgs packs the three fields of the file format.
func EncodeArgs(a1, a2, a3 uint32) uint32 {
	return (a3 << 12) | (a2 << 8) | (a1 << 4)
}

// A Program is a loaded microcode store with its execution counters.
type Program struct {
	Magic uint32

	// ID is the first line of the microcode file. Counter files are only
	// restored if they were saved for the same ID.
	ID string

	Code   [Size]Instruction
	Counts [Size]uint64

	// Len is the number of instructions loaded.
	Len int
}

// NewProgram creates an empty program.
func NewProgram(magic uint32, name string) *Program {
	return &Program{
		Magic: magic,
		ID:    fmt.Sprintf("%d %s", magic, name),
	}
}

// Set stores an instruction.
func (p *Program) Set(addr int, inst Instruction) error {
	if addr < 0 || addr >= Size {
		return fmt.Errorf("%w: address %d out of range", ErrIllegalInstruction, addr)
	}

	if inst.Next < 0 || inst.Next >= Size {
		return fmt.Errorf("%w: next address %d at %d out of range",
			ErrIllegalInstruction, inst.Next, addr)
	}

	if !p.Code[addr].Loaded {
		p.Len++
	}

	inst.Loaded = true
	p.Code[addr] = inst

	return nil
}

// At returns the instruction at an address. It panics if nothing was loaded
// there.
func (p *Program) At(addr int) Instruction {
	if addr < 0 || addr >= Size {
		log.Panicf("microcode address %d out of range", addr)
	}

	inst := p.Code[addr]
	if !inst.Loaded {
		log.Panicf("no microcode at address %d", addr)
	}

	return inst
}

// ResetCounts zeroes the execution counters.
func (p *Program) ResetCounts() {
	p.Counts = [Size]uint64{}
}
