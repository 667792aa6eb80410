// Package vm implements the stack-based virtual machine that
// executes chunks produced by package compiler: a call-frame stack
// over a single value stack, and the instruction dispatch loop.
package vm

import (
	"fmt"
	"io"

	"github.com/chazu/loxvm/internal/compiler"
	"github.com/chazu/loxvm/internal/object"
	"github.com/chazu/loxvm/internal/table"
	"github.com/chazu/loxvm/internal/value"
)

const (
	framesMax = 64
	stackMax  = framesMax * 256
)

// InterpretResult is the outcome of a top-level Interpret call.
type InterpretResult int

const (
	InterpretOK InterpretResult = iota
	InterpretCompileError
	InterpretRuntimeError
)

// callFrame is one live invocation: the executing closure, an
// instruction pointer into its chunk, and the base stack slot holding
// the callee itself (slot 0 of the frame).
type callFrame struct {
	closure   *object.Closure
	ip        int
	slotsBase int
}

// VM holds everything one script execution needs: the object heap,
// the value and frame stacks, the globals table, and the open-upvalue
// list. Nothing here is package-level state, so a process may run any
// number of independent VMs.
type VM struct {
	heap *object.Heap

	frames     [framesMax]callFrame
	frameCount int

	stack    [stackMax]value.Value
	stackTop int

	globals *table.Table[*object.String, value.Value]

	openUpvalues *object.Upvalue // sorted by descending StackSlot

	out io.Writer

	running bool // guards against Interpret being re-entered from a native

	pendingErr *RuntimeError // set by runtimeError, consumed by run's dispatch loop

	// Trace, when set, prints each dispatched opcode and the current
	// stack depth to out before executing it.
	Trace bool
}

// New creates a VM that writes PRINT output to out and registers the
// clock native.
func New(out io.Writer) *VM {
	vm := &VM{
		heap:    object.NewHeap(),
		globals: table.New[*object.String, value.Value](),
		out:     out,
	}
	vm.registerNatives()
	return vm
}

// Interpret compiles and runs source as a fresh top-level script. It
// must not be called re-entrantly from within a native function.
func (vm *VM) Interpret(source string) (InterpretResult, error) {
	if vm.running {
		return InterpretRuntimeError, fmt.Errorf("vm: Interpret called re-entrantly")
	}

	fn, errs := compiler.Compile(source, vm.heap)
	if len(errs) > 0 {
		return InterpretCompileError, joinErrors(errs)
	}

	closure := vm.heap.NewClosure(fn)
	vm.push(value.Object(closure))
	if !vm.callValue(value.Object(closure), 0) {
		return InterpretRuntimeError, fmt.Errorf("vm: failed to start script")
	}

	vm.running = true
	defer func() { vm.running = false }()

	if err := vm.run(); err != nil {
		vm.resetStacks()
		return InterpretRuntimeError, err
	}
	return InterpretOK, nil
}

func joinErrors(errs []error) error {
	if len(errs) == 1 {
		return errs[0]
	}
	msg := ""
	for i, e := range errs {
		if i > 0 {
			msg += "\n"
		}
		msg += e.Error()
	}
	return fmt.Errorf("%s", msg)
}

func (vm *VM) resetStacks() {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
}

// --- stack primitives ---------------------------------------------------

func (vm *VM) push(v value.Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) pop() value.Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) value.Value {
	return vm.stack[vm.stackTop-1-distance]
}

// --- calling --------------------------------------------------------------

func (vm *VM) callValue(callee value.Value, argCount int) bool {
	if !callee.IsObject() {
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
	switch obj := callee.AsObject().(type) {
	case *object.Closure:
		return vm.callClosure(obj, argCount)
	case *object.Native:
		return vm.callNative(obj, argCount)
	default:
		vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

func (vm *VM) callClosure(closure *object.Closure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == framesMax {
		vm.runtimeError("Stack overflow.")
		return false
	}
	vm.frames[vm.frameCount] = callFrame{
		closure:   closure,
		ip:        0,
		slotsBase: vm.stackTop - argCount - 1,
	}
	vm.frameCount++
	return true
}

func (vm *VM) callNative(native *object.Native, argCount int) bool {
	if argCount != native.Arity {
		vm.runtimeError("Expected %d arguments but got %d.", native.Arity, argCount)
		return false
	}
	args := make([]value.Value, argCount)
	copy(args, vm.stack[vm.stackTop-argCount:vm.stackTop])
	result, err := native.Fn(args)
	if err != nil {
		vm.runtimeError("%s", err.Error())
		return false
	}
	vm.stackTop -= argCount + 1
	vm.push(result)
	return true
}

// --- upvalues ---------------------------------------------------------

// captureUpvalue returns the open upvalue already tracking slot, or
// creates and links one, keeping the open list sorted by descending
// StackSlot so closeUpvaluesFrom can stop at the first slot below its
// target.
func (vm *VM) captureUpvalue(slot int) *object.Upvalue {
	var prev *object.Upvalue
	cur := vm.openUpvalues
	for cur != nil && cur.StackSlot > slot {
		prev = cur
		cur = cur.NextOpen
	}
	if cur != nil && cur.StackSlot == slot {
		return cur
	}

	created := vm.heap.NewUpvalue(&vm.stack[slot], slot)
	created.NextOpen = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.NextOpen = created
	}
	return created
}

// closeUpvaluesFrom closes every open upvalue at or above slot,
// unlinking it from the open list.
func (vm *VM) closeUpvaluesFrom(slot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.StackSlot >= slot {
		up := vm.openUpvalues
		up.Close()
		vm.openUpvalues = up.NextOpen
	}
}

// --- errors -------------------------------------------------------------

func (vm *VM) runtimeError(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	stack := make([]FrameTrace, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		frame := &vm.frames[i]
		line := frame.closure.Function.Chunk.GetLine(frame.ip - 1)
		stack = append(stack, FrameTrace{Line: line, Function: frame.closure.Function.Name})
	}
	vm.pendingErr = &RuntimeError{Message: msg, Stack: stack}
}

func readUint16(code []byte, offset int) int {
	return int(code[offset])<<8 | int(code[offset+1])
}
