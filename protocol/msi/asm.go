// Package msi provides reference microcode for a home-based MSI protocol.
// The home collects the invalidation acknowledgments and recalls modified
// lines from their owner instead of forwarding requests to it.
package msi

import (
	"github.com/sarchlab/protoengine/protocol/microcode"
)

// codeBase is the first address after the entry point slots.
const codeBase = 64

// errorLabel is where unexpected replies go. Every program defines it.
const errorLabel = "error"

// dispatcher emits the dispatch tables of one program. Table slots hold a
// no-op that jumps to the handler.
type dispatcher struct {
	a   *microcode.Assembler
	nop microcode.Word
}

// replies emits a reply table. Offsets without a handler go to the error
// handler.
func (d dispatcher) replies(name string, size int, handlers map[int]string) {
	d.a.Table(name, size)

	for off := 0; off < size; off++ {
		target, ok := handlers[off]
		if !ok {
			target = errorLabel
		}

		d.a.Entry(name, off, d.nop, target, name)
	}
}

// branch emits the two-slot table of a test.
func (d dispatcher) branch(name, ifFalse, ifTrue string) {
	d.a.Table(name, 2)
	d.a.Entry(name, 0, d.nop, ifFalse, name+" false")
	d.a.Entry(name, 1, d.nop, ifTrue, name+" true")
}

// entry points an entry point slot at a handler.
func (d dispatcher) entry(ep int, label, memo string) {
	d.a.EmitAt(ep, d.nop, label, memo)
}
