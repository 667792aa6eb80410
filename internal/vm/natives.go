package vm

import (
	"time"

	"github.com/chazu/loxvm/internal/value"
)

// registerNatives installs the single supported native, clock, which
// reports the seconds elapsed since the VM was created, as a float.
func (vm *VM) registerNatives() {
	start := time.Now()
	vm.defineNative("clock", 0, func(args []value.Value) (value.Value, error) {
		return value.Number(time.Since(start).Seconds()), nil
	})
}

func (vm *VM) defineNative(name string, arity int, fn func([]value.Value) (value.Value, error)) {
	native := vm.heap.NewNative(name, arity, fn)
	vm.globals.Set(vm.heap.InternString(name), value.Object(native))
}
