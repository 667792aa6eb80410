package bytecode

// Opcode identifies a single VM instruction. Each instruction is one
// opcode byte followed by zero or more operand bytes; multi-byte
// operands are big-endian.
type Opcode byte

const (
	OpConstant     Opcode = iota // CONSTANT idx(1B)
	OpConstantLong                // CONSTANT_LONG idx(2B)
	OpNil
	OpTrue
	OpFalse
	OpPop
	OpPopN // POPN n(1B)

	// Locals.
	OpGetLocal
	OpGetLocalLong
	OpSetLocal
	OpSetLocalLong

	// Globals, keyed by an interned-string constant.
	OpGetGlobal
	OpGetGlobalLong
	OpDefineGlobal
	OpDefineGlobalLong
	OpSetGlobal
	OpSetGlobalLong

	// Upvalues.
	OpGetUpvalue
	OpGetUpvalueLong
	OpSetUpvalue
	OpSetUpvalueLong
	OpCloseUpvalue

	// Comparisons.
	OpEqualEqual
	OpNotEqual
	OpGreater
	OpGreaterEqual
	OpLess
	OpLessEqual

	// Arithmetic and unary.
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint

	// Control flow.
	OpJump
	OpJumpIfTrue
	OpJumpIfFalse
	OpLoop

	OpCall
	OpReturn

	// Closures. Followed by upvalueCount 3-byte records (isLocal,
	// indexHi, indexLo).
	OpClosure
	OpClosureLong
)

// OpcodeInfo describes one opcode's static shape: its display name and
// the length of its fixed operand, in bytes. Opcodes with a variable
// tail (the two CLOSURE forms) report only the fixed portion here;
// callers must read the upvalue count separately.
type OpcodeInfo struct {
	Name       string
	OperandLen int
}

var opcodeInfo = [...]OpcodeInfo{
	OpConstant:         {"CONSTANT", 1},
	OpConstantLong:     {"CONSTANT_LONG", 2},
	OpNil:              {"NIL", 0},
	OpTrue:             {"TRUE", 0},
	OpFalse:            {"FALSE", 0},
	OpPop:              {"POP", 0},
	OpPopN:             {"POPN", 1},
	OpGetLocal:         {"GET_LOCAL", 1},
	OpGetLocalLong:     {"GET_LOCAL_LONG", 2},
	OpSetLocal:         {"SET_LOCAL", 1},
	OpSetLocalLong:     {"SET_LOCAL_LONG", 2},
	OpGetGlobal:        {"GET_GLOBAL", 1},
	OpGetGlobalLong:    {"GET_GLOBAL_LONG", 2},
	OpDefineGlobal:     {"DEFINE_GLOBAL", 1},
	OpDefineGlobalLong: {"DEFINE_GLOBAL_LONG", 2},
	OpSetGlobal:        {"SET_GLOBAL", 1},
	OpSetGlobalLong:    {"SET_GLOBAL_LONG", 2},
	OpGetUpvalue:       {"GET_UPVALUE", 1},
	OpGetUpvalueLong:   {"GET_UPVALUE_LONG", 2},
	OpSetUpvalue:       {"SET_UPVALUE", 1},
	OpSetUpvalueLong:   {"SET_UPVALUE_LONG", 2},
	OpCloseUpvalue:     {"CLOSE_UPVALUE", 0},
	OpEqualEqual:       {"EQUAL_EQUAL", 0},
	OpNotEqual:         {"NOT_EQUAL", 0},
	OpGreater:          {"GREATER", 0},
	OpGreaterEqual:     {"GREATER_EQUAL", 0},
	OpLess:             {"LESS", 0},
	OpLessEqual:        {"LESS_EQUAL", 0},
	OpAdd:              {"ADD", 0},
	OpSubtract:         {"SUBTRACT", 0},
	OpMultiply:         {"MULTIPLY", 0},
	OpDivide:           {"DIVIDE", 0},
	OpNot:              {"NOT", 0},
	OpNegate:           {"NEGATE", 0},
	OpPrint:            {"PRINT", 0},
	OpJump:             {"JUMP", 2},
	OpJumpIfTrue:       {"JUMP_IF_TRUE", 2},
	OpJumpIfFalse:      {"JUMP_IF_FALSE", 2},
	OpLoop:             {"LOOP", 2},
	OpCall:             {"CALL", 1},
	OpReturn:           {"RETURN", 0},
	OpClosure:          {"CLOSURE", 1},
	OpClosureLong:      {"CLOSURE_LONG", 2},
}

// GetOpcodeInfo looks up the static shape of op. ok is false for a
// byte that doesn't name a known opcode.
func GetOpcodeInfo(op Opcode) (OpcodeInfo, bool) {
	if int(op) >= len(opcodeInfo) {
		return OpcodeInfo{}, false
	}
	info := opcodeInfo[op]
	if info.Name == "" {
		return OpcodeInfo{}, false
	}
	return info, true
}

func (op Opcode) String() string {
	if info, ok := GetOpcodeInfo(op); ok {
		return info.Name
	}
	return "UNKNOWN"
}

// OperandLen returns the number of fixed operand bytes following op,
// not counting a CLOSURE instruction's variable upvalue records.
func (op Opcode) OperandLen() int {
	info, ok := GetOpcodeInfo(op)
	if !ok {
		return 0
	}
	return info.OperandLen
}

// IsJump reports whether op carries a 2-byte jump/loop offset.
func (op Opcode) IsJump() bool {
	switch op {
	case OpJump, OpJumpIfTrue, OpJumpIfFalse, OpLoop:
		return true
	default:
		return false
	}
}

// IsClosure reports whether op is one of the two CLOSURE forms, which
// carry a variable-length tail beyond OperandLen.
func (op Opcode) IsClosure() bool {
	return op == OpClosure || op == OpClosureLong
}

// IsReturn reports whether op unconditionally transfers control back
// to the caller.
func (op Opcode) IsReturn() bool {
	return op == OpReturn
}

// AllOpcodes returns every defined opcode in declaration order, for
// tests that want to exercise the full set.
func AllOpcodes() []Opcode {
	ops := make([]Opcode, 0, len(opcodeInfo))
	for i, info := range opcodeInfo {
		if info.Name != "" {
			ops = append(ops, Opcode(i))
		}
	}
	return ops
}
