// Package protocol defines the vocabulary shared by the protocol engines:
// message types, virtual channels, directory entries, packets, transaction
// trackers, and the service-provider boundary through which an engine talks
// to the rest of its node.
package protocol

import (
	"fmt"
	"math/bits"
)

// NodeID identifies a node in the system.
type NodeID int

// NoNode marks an optional node field that has not been set.
const NoNode NodeID = -1

// MaxNodes is the largest number of nodes a SharerSet can describe.
const MaxNodes = 64

// Valid returns true if the id refers to a node.
func (n NodeID) Valid() bool {
	return n >= 0 && n < MaxNodes
}

func (n NodeID) String() string {
	if n == NoNode {
		return "none"
	}

	return fmt.Sprintf("%d", int(n))
}

// A SharerSet is a bitmap of nodes.
type SharerSet uint64

// SharerSetOf returns the set that contains the given nodes.
func SharerSetOf(nodes ...NodeID) SharerSet {
	var s SharerSet
	for _, n := range nodes {
		s = s.With(n)
	}

	return s
}

func mustBeValidNode(n NodeID) {
	if !n.Valid() {
		panic(fmt.Sprintf("node %d is out of the sharer set range", n))
	}
}

// Has returns true if the node is in the set.
func (s SharerSet) Has(n NodeID) bool {
	if !n.Valid() {
		return false
	}

	return s&(1<<uint(n)) != 0
}

// With returns a copy of the set with the node added.
func (s SharerSet) With(n NodeID) SharerSet {
	mustBeValidNode(n)
	return s | 1<<uint(n)
}

// Without returns a copy of the set with the node removed.
func (s SharerSet) Without(n NodeID) SharerSet {
	mustBeValidNode(n)
	return s &^ (1 << uint(n))
}

// IsOnly returns true if the node is the single member of the set.
func (s SharerSet) IsOnly(n NodeID) bool {
	return n.Valid() && s == 1<<uint(n)
}

// Count returns the number of nodes in the set.
func (s SharerSet) Count() int {
	return bits.OnesCount64(uint64(s))
}

// IsEmpty returns true if no node is in the set.
func (s SharerSet) IsEmpty() bool {
	return s == 0
}

// Nodes lists the members in ascending order.
func (s SharerSet) Nodes() []NodeID {
	nodes := make([]NodeID, 0, s.Count())
	for rest := uint64(s); rest != 0; rest &= rest - 1 {
		nodes = append(nodes, NodeID(bits.TrailingZeros64(rest)))
	}

	return nodes
}

// Address is a physical cache-line address.
type Address uint64

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}
