// Package object implements the heap-allocated reference types of the
// runtime: interned strings, functions, closures, upvalues and native
// functions. There is no garbage collector; every object is linked
// into the owning heap's intrusive allocation list and freed in bulk
// when the heap is discarded.
package object

// Object is the common header every heap type embeds. It carries the
// intrusive singly-linked list pointer used to free all objects at
// once when a VM shuts down, mirroring the allocate-and-link pattern
// of a non-GC'd bytecode interpreter.
type Object struct {
	next Object_
}

// Object_ is the interface implemented by every heap value. The
// trailing underscore avoids colliding with the Object struct above;
// callers outside this package use the Heap to allocate and never
// construct these directly.
type Object_ interface {
	Type() string
	String() string
	setNext(Object_)
	getNext() Object_
}

func (o *Object) setNext(n Object_) { o.next = n }
func (o *Object) getNext() Object_  { return o.next }

// Heap owns every object allocated for a single VM instance and frees
// them together on Reset, rather than tracing reachability.
type Heap struct {
	objects Object_
	strings map[string]*String
}

// NewHeap creates an empty heap with its own string-interning table.
func NewHeap() *Heap {
	return &Heap{strings: make(map[string]*String)}
}

// link appends obj to the intrusive allocation list. Every
// constructor in this package must call it exactly once.
func (h *Heap) link(obj Object_) {
	obj.setNext(h.objects)
	h.objects = obj
}

// Reset drops every object the heap has allocated, including interned
// strings. It is the only form of reclamation this runtime performs.
func (h *Heap) Reset() {
	h.objects = nil
	h.strings = make(map[string]*String)
}

// Count walks the allocation list and reports how many live objects
// the heap holds. Intended for tests and diagnostics, not hot paths.
func (h *Heap) Count() int {
	n := 0
	for o := h.objects; o != nil; o = o.getNext() {
		n++
	}
	return n
}
