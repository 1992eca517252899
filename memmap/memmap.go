// Package memmap maps addresses to their home nodes.
package memmap

import (
	"log"

	"github.com/sarchlab/protoengine/protocol"
)

// A Mapper finds the home node of an address.
type Mapper interface {
	NumNodes() int
	NodeForAddress(addr protocol.Address) protocol.NodeID
}

// Interleaved spreads the address space over the nodes in blocks of
// InterleavingSize bytes.
type Interleaved struct {
	Nodes            int
	InterleavingSize uint64
}

// NewInterleaved creates an interleaved mapper.
func NewInterleaved(nodes int, interleavingSize uint64) *Interleaved {
	if nodes < 1 || nodes > protocol.MaxNodes {
		log.Panicf("cannot interleave over %d nodes", nodes)
	}

	if interleavingSize == 0 || interleavingSize%protocol.LineSize != 0 {
		log.Panicf("interleaving size %d is not a multiple of the line size",
			interleavingSize)
	}

	return &Interleaved{
		Nodes:            nodes,
		InterleavingSize: interleavingSize,
	}
}

// NumNodes returns the number of nodes.
func (m *Interleaved) NumNodes() int {
	return m.Nodes
}

// NodeForAddress returns the home node of the address.
func (m *Interleaved) NodeForAddress(addr protocol.Address) protocol.NodeID {
	return protocol.NodeID(uint64(addr) / m.InterleavingSize % uint64(m.Nodes))
}

// LineAddress aligns an address to the start of its cache line.
func LineAddress(addr protocol.Address) protocol.Address {
	return addr &^ (protocol.LineSize - 1)
}

// Banked gives each node one contiguous bank of BankSize bytes.
type Banked struct {
	Nodes    int
	BankSize uint64
}

// NumNodes returns the number of nodes.
func (m *Banked) NumNodes() int {
	return m.Nodes
}

// NodeForAddress returns the home node of the address. Addresses above the
// last bank panic.
func (m *Banked) NodeForAddress(addr protocol.Address) protocol.NodeID {
	n := uint64(addr) / m.BankSize
	if n >= uint64(m.Nodes) {
		log.Panicf("address %s is beyond the last bank", addr)
	}

	return protocol.NodeID(n)
}
