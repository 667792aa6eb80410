package object

import "github.com/chazu/loxvm/internal/value"

// NativeFn is a host function exposed to scripts. It receives its
// arguments as a slice and returns either a value or an error that
// the VM turns into a runtime error.
type NativeFn func(args []value.Value) (value.Value, error)

// Native wraps a host function pointer plus its declared arity.
type Native struct {
	Object
	Name  string
	Arity int
	Fn    NativeFn
}

// NewNative allocates a native function object.
func (h *Heap) NewNative(name string, arity int, fn NativeFn) *Native {
	n := &Native{Name: name, Arity: arity, Fn: fn}
	h.link(n)
	return n
}

func (n *Native) Type() string   { return "native" }
func (n *Native) String() string { return "<native fn>" }
