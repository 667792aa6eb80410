package object

import "github.com/chazu/loxvm/internal/bytecode"

// Function is a compile-time artifact: a fixed arity, an owned
// bytecode chunk, and the number of upvalues its closures must carry.
// The top-level script is a Function with an empty Name.
type Function struct {
	Object
	Arity        int
	UpvalueCount int
	Chunk        *bytecode.Chunk
	Name         string
}

// NewFunction allocates an empty function with a fresh chunk, ready
// for the compiler to emit into.
func (h *Heap) NewFunction() *Function {
	fn := &Function{Chunk: bytecode.NewChunk()}
	h.link(fn)
	return fn
}

func (f *Function) Type() string { return "function" }

// NumUpvalues satisfies the minimal interface package bytecode's
// disassembler uses to print CLOSURE upvalue records without
// importing package object.
func (f *Function) NumUpvalues() int { return f.UpvalueCount }

func (f *Function) String() string {
	if f.Name == "" {
		return "<script>"
	}
	return "<fn " + f.Name + ">"
}
