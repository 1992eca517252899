package microcode

import (
	"fmt"
	"sort"
)

// A Word is an opcode with its encoded arguments.
type Word struct {
	Op   int
	Args uint32
}

// Fallthrough makes an instruction continue at the following address.
const Fallthrough = ""

// Halt is a predefined label for address 0.
const Halt = "halt"

type pendingInstruction struct {
	addr int
	word Word
	next string
	memo string
}

type table struct {
	base int
	size int
}

// An Assembler builds a Program from labelled instructions. Dispatch
// tables are blocks of consecutive addresses that a reply or a test jumps
// into by a relative offset.
type Assembler struct {
	magic uint32
	name  string

	pc      int
	labels  map[string]int
	tables  map[string]table
	pending []pendingInstruction
	used    map[int]string
	err     error
}

// NewAssembler creates an Assembler for a program of the given magic number
// and name.
func NewAssembler(magic uint32, name string) *Assembler {
	return &Assembler{
		magic:  magic,
		name:   name,
		labels: map[string]int{Halt: HaltAddress},
		tables: make(map[string]table),
		used:   make(map[int]string),
	}
}

// PC returns the address of the next instruction.
func (a *Assembler) PC() int {
	return a.pc
}

// Org moves the assembly position.
func (a *Assembler) Org(addr int) *Assembler {
	if addr < 0 || addr >= Size {
		a.fail(fmt.Errorf("%w: org %d out of range", ErrIllegalInstruction, addr))
		return a
	}

	a.pc = addr

	return a
}

// Label names the current position.
func (a *Assembler) Label(name string) *Assembler {
	a.define(name, a.pc)
	return a
}

// Emit places an instruction at the current position and advances it. The
// instruction continues at next, or at the following address if next is
// Fallthrough.
func (a *Assembler) Emit(w Word, next, memo string) *Assembler {
	a.place(a.pc, w, next, memo)
	a.pc++

	return a
}

// EmitAt places an instruction at a fixed address without moving the
// assembly position.
func (a *Assembler) EmitAt(addr int, w Word, next, memo string) *Assembler {
	a.place(addr, w, next, memo)
	return a
}

// Table reserves size consecutive addresses at the current position for a
// dispatch table, labels its base, and moves past it.
func (a *Assembler) Table(name string, size int) *Assembler {
	if _, dup := a.tables[name]; dup {
		a.fail(fmt.Errorf("%w: table %q defined twice", ErrIllegalInstruction, name))
		return a
	}

	a.define(name, a.pc)
	a.tables[name] = table{base: a.pc, size: size}
	a.pc += size

	return a
}

// Entry places an instruction in a dispatch table.
func (a *Assembler) Entry(
	tableName string,
	offset int,
	w Word,
	next, memo string,
) *Assembler {
	t, ok := a.tables[tableName]
	if !ok {
		a.fail(fmt.Errorf("%w: table %q", ErrUnresolvedReference, tableName))
		return a
	}

	if offset < 0 || offset >= t.size {
		a.fail(fmt.Errorf("%w: offset %d outside table %q",
			ErrIllegalInstruction, offset, tableName))
		return a
	}

	a.place(t.base+offset, w, next, memo)

	return a
}

// Assemble resolves the labels and returns the program.
func (a *Assembler) Assemble() (*Program, error) {
	if a.err != nil {
		return nil, a.err
	}

	p := NewProgram(a.magic, a.name)

	sort.SliceStable(a.pending, func(i, j int) bool {
		return a.pending[i].addr < a.pending[j].addr
	})

	for _, pi := range a.pending {
		next := pi.addr + 1

		if pi.next != Fallthrough {
			addr, ok := a.labels[pi.next]
			if !ok {
				return nil, fmt.Errorf("%w: label %q at %d",
					ErrUnresolvedReference, pi.next, pi.addr)
			}

			next = addr
		}

		err := p.Set(pi.addr, Instruction{
			Op:   pi.word.Op,
			Args: pi.word.Args,
			Next: next,
			Memo: pi.memo,
		})
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// MustAssemble is like Assemble but panics on error.
func (a *Assembler) MustAssemble() *Program {
	p, err := a.Assemble()
	if err != nil {
		panic(err)
	}

	return p
}

func (a *Assembler) define(name string, addr int) {
	if _, dup := a.labels[name]; dup {
		a.fail(fmt.Errorf("%w: label %q defined twice", ErrIllegalInstruction, name))
		return
	}

	a.labels[name] = addr
}

func (a *Assembler) place(addr int, w Word, next, memo string) {
	if addr < 0 || addr >= Size {
		a.fail(fmt.Errorf("%w: address %d out of range", ErrIllegalInstruction, addr))
		return
	}

	if prev, taken := a.used[addr]; taken {
		a.fail(fmt.Errorf("%w: address %d used by %q and %q",
			ErrIllegalInstruction, addr, prev, memo))
		return
	}

	a.used[addr] = memo
	a.pending = append(a.pending, pendingInstruction{
		addr: addr,
		word: w,
		next: next,
		memo: memo,
	})
}

func (a *Assembler) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}
