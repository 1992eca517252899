package protocol

import "fmt"

// DirState is the global sharing state of a cache line.
type DirState int

// Directory states.
const (
	DirInvalid DirState = iota
	DirShared
	DirModified
)

func (s DirState) String() string {
	switch s {
	case DirInvalid:
		return "Invalid"
	case DirShared:
		return "Shared"
	case DirModified:
		return "Modified"
	}

	return fmt.Sprintf("DirState(%d)", int(s))
}

// A DirEntry is the directory record of one cache line. Owner is meaningful
// only in the Modified state and Sharers only outside of it. PastSharers
// accumulates every node that ever held the line and WasModified records
// that the line has been written at least once; both are used to classify
// misses.
type DirEntry struct {
	State       DirState
	Owner       NodeID
	Sharers     SharerSet
	PastSharers SharerSet
	WasModified bool
}

// NewDirEntry creates an Invalid entry.
func NewDirEntry() *DirEntry {
	return &DirEntry{Owner: NoNode}
}

// Clone returns a copy of the entry.
func (e *DirEntry) Clone() *DirEntry {
	c := *e
	return &c
}

// SetSharers replaces the sharer bitmap.
func (e *DirEntry) SetSharers(s SharerSet) {
	e.Sharers = s
	e.PastSharers |= s
}

// SetOwner records the exclusive owner.
func (e *DirEntry) SetOwner(n NodeID) {
	e.Owner = n
	if n.Valid() {
		e.PastSharers = e.PastSharers.With(n)
	}
}

// MarkModified records that the line has been written.
func (e *DirEntry) MarkModified() {
	e.WasModified = true
}

func (e *DirEntry) String() string {
	if e.State == DirModified {
		return fmt.Sprintf("%s owner=%s", e.State, e.Owner)
	}

	return fmt.Sprintf("%s sharers=%v", e.State, e.Sharers.Nodes())
}
