package sim

import "log"

// Hook positions of buffers. The item is the element pushed or popped.
var (
	HookPosBufPush = &HookPos{Name: "Buf Push"}
	HookPosBufPop  = &HookPos{Name: "Buf Pop"}
)

// A Buffer is a fifo queue between the stages of a component, such as the
// packets a node waits to send. A capacity of zero or less makes the buffer
// unbounded.
type Buffer interface {
	Named
	Hookable

	CanPush() bool
	Push(e interface{})

	// Pop removes and returns the oldest element, or nil if the buffer is
	// empty.
	Pop() interface{}
	Peek() interface{}

	Capacity() int
	Size() int

	// PeakSize returns the largest size the buffer ever had.
	PeakSize() int

	Clear()
}

// NewBuffer creates a buffer.
func NewBuffer(name string, capacity int) Buffer {
	NameMustBeValid(name)

	return &fifo{
		name:     name,
		capacity: capacity,
	}
}

type fifo struct {
	HookableBase

	name     string
	capacity int
	peak     int
	elements []interface{}
}

func (b *fifo) Name() string {
	return b.name
}

func (b *fifo) CanPush() bool {
	return b.capacity <= 0 || len(b.elements) < b.capacity
}

func (b *fifo) Push(e interface{}) {
	if !b.CanPush() {
		log.Panicf("%s: push to a full buffer of %d", b.name, b.capacity)
	}

	b.elements = append(b.elements, e)
	if len(b.elements) > b.peak {
		b.peak = len(b.elements)
	}

	b.invoke(HookPosBufPush, e)
}

func (b *fifo) Pop() interface{} {
	if len(b.elements) == 0 {
		return nil
	}

	e := b.elements[0]
	b.elements[0] = nil
	b.elements = b.elements[1:]

	b.invoke(HookPosBufPop, e)

	return e
}

func (b *fifo) invoke(pos *HookPos, e interface{}) {
	if b.NumHooks() == 0 {
		return
	}

	b.InvokeHook(HookCtx{Domain: b, Pos: pos, Item: e})
}

func (b *fifo) Peek() interface{} {
	if len(b.elements) == 0 {
		return nil
	}

	return b.elements[0]
}

func (b *fifo) Capacity() int {
	return b.capacity
}

func (b *fifo) Size() int {
	return len(b.elements)
}

func (b *fifo) PeakSize() int {
	return b.peak
}

// Clear drops the elements. The peak size is kept.
func (b *fifo) Clear() {
	b.elements = nil
}
