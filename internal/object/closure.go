package object

// Closure pairs a compiled Function with the upvalues it captured at
// creation time, one per slot the compiler recorded on the function.
type Closure struct {
	Object
	Function *Function
	Upvalues []*Upvalue
}

// NewClosure allocates a closure over fn with upvalueCount empty
// upvalue slots, to be filled in by the CLOSURE instruction as it
// reads each upvalue record.
func (h *Heap) NewClosure(fn *Function) *Closure {
	cl := &Closure{
		Function: fn,
		Upvalues: make([]*Upvalue, fn.UpvalueCount),
	}
	h.link(cl)
	return cl
}

func (c *Closure) Type() string   { return "closure" }
func (c *Closure) String() string { return c.Function.String() }
