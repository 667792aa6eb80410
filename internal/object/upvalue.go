package object

import "github.com/chazu/loxvm/internal/value"

// Upvalue is a heap cell shared between an enclosing frame's stack
// slot and the closures that captured it. While open, Location points
// at the live stack slot; Close copies that value into the upvalue's
// own storage and repoints Location at it, the same trick the
// original implementation uses to let GET_UPVALUE/SET_UPVALUE be
// oblivious to whether the upvalue is open or closed.
type Upvalue struct {
	Object
	Location  *value.Value
	closed    value.Value
	StackSlot int // only meaningful while open; used to keep the VM's open list sorted

	// NextOpen links this upvalue into the VM's intrusive open-upvalue
	// list, kept sorted by descending StackSlot. It is unrelated to the
	// heap's own allocation list (Object.next).
	NextOpen *Upvalue
}

// NewUpvalue allocates an open upvalue referencing slot.
func (h *Heap) NewUpvalue(slot *value.Value, stackSlot int) *Upvalue {
	up := &Upvalue{Location: slot, StackSlot: stackSlot}
	h.link(up)
	return up
}

func (u *Upvalue) Type() string   { return "upvalue" }
func (u *Upvalue) String() string { return "<upvalue>" }

// IsOpen reports whether this upvalue still references a live stack
// slot rather than its own closed storage.
func (u *Upvalue) IsOpen() bool {
	return u.Location != &u.closed
}

// Close copies the current value out of the stack and repoints
// Location at the upvalue's own storage, detaching it from the stack
// slot it used to track.
func (u *Upvalue) Close() {
	u.closed = *u.Location
	u.Location = &u.closed
}

// Get reads through Location, whether open or closed.
func (u *Upvalue) Get() value.Value { return *u.Location }

// Set writes through Location, whether open or closed.
func (u *Upvalue) Set(v value.Value) { *u.Location = v }
