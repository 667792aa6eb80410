// Package loxvm is the public entry point wrapping the internal
// compiler and VM packages behind a small host-facing API: compile
// and run a script, and map its result to a process exit code.
package loxvm

import (
	"io"

	"github.com/chazu/loxvm/internal/vm"
)

// Result mirrors the internal vm.InterpretResult without leaking the
// internal package from this API.
type Result int

const (
	OK           Result = Result(vm.InterpretOK)
	CompileError Result = Result(vm.InterpretCompileError)
	RuntimeError Result = Result(vm.InterpretRuntimeError)
)

// ExitCode maps a Result to the exit code a CLI driver should use.
func (r Result) ExitCode() int {
	switch r {
	case CompileError:
		return 65
	case RuntimeError:
		return 70
	default:
		return 0
	}
}

// VM is a single independent script execution environment: its own
// object heap, globals table and value stack. A process may create
// any number of VMs; none of their state is shared.
type VM struct {
	core *vm.VM
}

// New creates a VM that writes `print` output to out.
func New(out io.Writer) *VM {
	return &VM{core: vm.New(out)}
}

// SetTrace enables or disables per-instruction trace output.
func (v *VM) SetTrace(enabled bool) {
	v.core.Trace = enabled
}

// Interpret compiles and runs source as a top-level script.
func (v *VM) Interpret(source string) (Result, error) {
	res, err := v.core.Interpret(source)
	return Result(res), err
}
