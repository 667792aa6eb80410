package vm

import (
	"fmt"

	"github.com/chazu/loxvm/internal/bytecode"
	"github.com/chazu/loxvm/internal/object"
	"github.com/chazu/loxvm/internal/value"
)

// run executes instructions from the top call frame until a RETURN
// unwinds the last frame, or a runtime error is raised.
func (vm *VM) run() error {
	frame := &vm.frames[vm.frameCount-1]

	for {
		code := frame.closure.Function.Chunk.Code
		op := bytecode.Opcode(code[frame.ip])
		frame.ip++

		if vm.Trace {
			fmt.Fprintf(vm.out, "[%04d] %-18s sp=%d\n", frame.ip-1, op, vm.stackTop)
		}

		switch op {
		case bytecode.OpConstant:
			idx := code[frame.ip]
			frame.ip++
			vm.push(frame.closure.Function.Chunk.Constants[idx])

		case bytecode.OpConstantLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			vm.push(frame.closure.Function.Chunk.Constants[idx])

		case bytecode.OpNil:
			vm.push(value.Nil)
		case bytecode.OpTrue:
			vm.push(value.True)
		case bytecode.OpFalse:
			vm.push(value.False)

		case bytecode.OpPop:
			vm.pop()

		case bytecode.OpPopN:
			n := int(code[frame.ip])
			frame.ip++
			vm.stackTop -= n

		case bytecode.OpGetLocal:
			idx := int(code[frame.ip])
			frame.ip++
			vm.push(vm.stack[frame.slotsBase+idx])

		case bytecode.OpGetLocalLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			vm.push(vm.stack[frame.slotsBase+idx])

		case bytecode.OpSetLocal:
			idx := int(code[frame.ip])
			frame.ip++
			vm.stack[frame.slotsBase+idx] = vm.peek(0)

		case bytecode.OpSetLocalLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			vm.stack[frame.slotsBase+idx] = vm.peek(0)

		case bytecode.OpGetGlobal:
			idx := code[frame.ip]
			frame.ip++
			if !vm.getGlobal(frame, idx) {
				return vm.pendingErr
			}

		case bytecode.OpGetGlobalLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			if !vm.getGlobalWide(frame, idx) {
				return vm.pendingErr
			}

		case bytecode.OpDefineGlobal:
			idx := code[frame.ip]
			frame.ip++
			name := frame.closure.Function.Chunk.Constants[idx].AsObject().(*object.String)
			vm.globals.Set(name, vm.pop())

		case bytecode.OpDefineGlobalLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			name := frame.closure.Function.Chunk.Constants[idx].AsObject().(*object.String)
			vm.globals.Set(name, vm.pop())

		case bytecode.OpSetGlobal:
			idx := code[frame.ip]
			frame.ip++
			if !vm.setGlobal(frame, idx) {
				return vm.pendingErr
			}

		case bytecode.OpSetGlobalLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			if !vm.setGlobalWide(frame, idx) {
				return vm.pendingErr
			}

		case bytecode.OpGetUpvalue:
			idx := int(code[frame.ip])
			frame.ip++
			vm.push(frame.closure.Upvalues[idx].Get())

		case bytecode.OpGetUpvalueLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			vm.push(frame.closure.Upvalues[idx].Get())

		case bytecode.OpSetUpvalue:
			idx := int(code[frame.ip])
			frame.ip++
			frame.closure.Upvalues[idx].Set(vm.peek(0))

		case bytecode.OpSetUpvalueLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			frame.closure.Upvalues[idx].Set(vm.peek(0))

		case bytecode.OpCloseUpvalue:
			vm.closeUpvaluesFrom(vm.stackTop - 1)
			vm.pop()

		case bytecode.OpEqualEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(value.Equal(a, b)))

		case bytecode.OpNotEqual:
			b, a := vm.pop(), vm.pop()
			vm.push(value.Bool(!value.Equal(a, b)))

		case bytecode.OpGreater, bytecode.OpGreaterEqual, bytecode.OpLess, bytecode.OpLessEqual:
			if !vm.numericCompare(op) {
				return vm.pendingErr
			}

		case bytecode.OpAdd:
			if !vm.add() {
				return vm.pendingErr
			}

		case bytecode.OpSubtract, bytecode.OpMultiply, bytecode.OpDivide:
			if !vm.arithmetic(op) {
				return vm.pendingErr
			}

		case bytecode.OpNot:
			vm.push(value.Bool(vm.pop().IsFalsey()))

		case bytecode.OpNegate:
			if !vm.peek(0).IsNumber() {
				vm.runtimeError("Operand must be a number.")
				return vm.pendingErr
			}
			vm.push(value.Number(-vm.pop().AsNumber()))

		case bytecode.OpPrint:
			fmt.Fprintln(vm.out, vm.pop().String())

		case bytecode.OpJump:
			offset := readUint16(code, frame.ip)
			frame.ip += 2 + offset

		case bytecode.OpJumpIfTrue:
			offset := readUint16(code, frame.ip)
			frame.ip += 2
			if !vm.peek(0).IsFalsey() {
				frame.ip += offset
			}

		case bytecode.OpJumpIfFalse:
			offset := readUint16(code, frame.ip)
			frame.ip += 2
			if vm.peek(0).IsFalsey() {
				frame.ip += offset
			}

		case bytecode.OpLoop:
			offset := readUint16(code, frame.ip)
			frame.ip += 2 - offset

		case bytecode.OpCall:
			argCount := int(code[frame.ip])
			frame.ip++
			if !vm.callValue(vm.peek(argCount), argCount) {
				return vm.pendingErr
			}
			frame = &vm.frames[vm.frameCount-1]

		case bytecode.OpClosure:
			idx := code[frame.ip]
			frame.ip++
			frame = vm.makeClosure(frame, idx)

		case bytecode.OpClosureLong:
			idx := readUint16(code, frame.ip)
			frame.ip += 2
			frame = vm.makeClosureWide(frame, idx)

		case bytecode.OpReturn:
			result := vm.pop()
			vm.closeUpvaluesFrom(frame.slotsBase)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.pop()
				return nil
			}
			vm.stackTop = frame.slotsBase
			vm.push(result)
			frame = &vm.frames[vm.frameCount-1]

		default:
			vm.runtimeError("Unknown opcode %d.", op)
			return vm.pendingErr
		}
	}
}

func (vm *VM) getGlobal(frame *callFrame, idx byte) bool {
	name := frame.closure.Function.Chunk.Constants[idx].AsObject().(*object.String)
	v, ok := vm.globals.Get(name)
	if !ok {
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	vm.push(v)
	return true
}

func (vm *VM) getGlobalWide(frame *callFrame, idx int) bool {
	name := frame.closure.Function.Chunk.Constants[idx].AsObject().(*object.String)
	v, ok := vm.globals.Get(name)
	if !ok {
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	vm.push(v)
	return true
}

func (vm *VM) setGlobal(frame *callFrame, idx byte) bool {
	name := frame.closure.Function.Chunk.Constants[idx].AsObject().(*object.String)
	if vm.globals.Set(name, vm.peek(0)) {
		vm.globals.Delete(name)
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	return true
}

func (vm *VM) setGlobalWide(frame *callFrame, idx int) bool {
	name := frame.closure.Function.Chunk.Constants[idx].AsObject().(*object.String)
	if vm.globals.Set(name, vm.peek(0)) {
		vm.globals.Delete(name)
		vm.runtimeError("Undefined variable '%s'.", name.Chars)
		return false
	}
	return true
}

func (vm *VM) makeClosure(frame *callFrame, idx byte) *callFrame {
	return vm.finishClosure(frame, frame.closure.Function.Chunk.Constants[idx])
}

func (vm *VM) makeClosureWide(frame *callFrame, idx int) *callFrame {
	return vm.finishClosure(frame, frame.closure.Function.Chunk.Constants[idx])
}

func (vm *VM) finishClosure(frame *callFrame, fnValue value.Value) *callFrame {
	fn := fnValue.AsObject().(*object.Function)
	closure := vm.heap.NewClosure(fn)

	code := frame.closure.Function.Chunk.Code
	for i := 0; i < fn.UpvalueCount; i++ {
		isLocal := code[frame.ip]
		idx := readUint16(code, frame.ip+1)
		frame.ip += 3
		if isLocal == 1 {
			closure.Upvalues[i] = vm.captureUpvalue(frame.slotsBase + idx)
		} else {
			closure.Upvalues[i] = frame.closure.Upvalues[idx]
		}
	}
	vm.push(value.Object(closure))
	return frame
}

func (vm *VM) numericCompare(op bytecode.Opcode) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	var result bool
	switch op {
	case bytecode.OpGreater:
		result = a > b
	case bytecode.OpGreaterEqual:
		result = a >= b
	case bytecode.OpLess:
		result = a < b
	case bytecode.OpLessEqual:
		result = a <= b
	}
	vm.push(value.Bool(result))
	return true
}

func (vm *VM) add() bool {
	if vm.peek(0).IsNumber() && vm.peek(1).IsNumber() {
		b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
		vm.push(value.Number(a + b))
		return true
	}
	if vm.peek(0).IsObjType("string") && vm.peek(1).IsObjType("string") {
		b := vm.pop().AsObject().(*object.String)
		a := vm.pop().AsObject().(*object.String)
		vm.push(value.Object(vm.heap.Concatenate(a, b)))
		return true
	}
	vm.runtimeError("Operands must be two numbers or two strings.")
	return false
}

func (vm *VM) arithmetic(op bytecode.Opcode) bool {
	if !vm.peek(0).IsNumber() || !vm.peek(1).IsNumber() {
		vm.runtimeError("Operands must be numbers.")
		return false
	}
	b, a := vm.pop().AsNumber(), vm.pop().AsNumber()
	var result float64
	switch op {
	case bytecode.OpSubtract:
		result = a - b
	case bytecode.OpMultiply:
		result = a * b
	case bytecode.OpDivide:
		result = a / b
	}
	vm.push(value.Number(result))
	return true
}
