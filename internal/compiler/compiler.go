// Package compiler implements a single-pass Pratt parser that emits
// bytecode directly into a chunk as it parses, with no intermediate
// AST. It tracks lexical scope, local slots and upvalues across
// nested function compilations via an enclosing-pointer chain of
// compilerState values.
package compiler

import (
	"strconv"
	"strings"

	"github.com/chazu/loxvm/internal/bytecode"
	"github.com/chazu/loxvm/internal/object"
	"github.com/chazu/loxvm/internal/scanner"
	"github.com/chazu/loxvm/internal/token"
	"github.com/chazu/loxvm/internal/value"
)

const (
	maxLocals   = 65536
	maxUpvalues = 65536
	maxArity    = 255
)

// funcType distinguishes the synthetic top-level script function from
// an ordinary fun declaration; only the script may not contain a
// return statement. Both kinds reserve slot 0 for the callee.
type funcType int

const (
	typeScript funcType = iota
	typeFunction
)

type local struct {
	name       string
	depth      int // -1 means declared but not yet initialized
	isCaptured bool
}

type upvalueRef struct {
	index   int
	isLocal bool
}

// compilerState is one function's worth of compile-time bookkeeping.
// States are linked by enclosing so name resolution can walk outward
// through nested function bodies.
type compilerState struct {
	enclosing *compilerState

	function *object.Function
	funcType funcType

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int

	loopStart int // code offset continue/LOOP should target; -1 outside a loop
	loopDepth int // scopeDepth at the point the enclosing loop body begins
}

func newCompilerState(enclosing *compilerState, fn *object.Function, ft funcType) *compilerState {
	cs := &compilerState{
		enclosing: enclosing,
		function:  fn,
		funcType:  ft,
		loopStart: -1,
	}
	// Slot 0 is reserved for the implicit receiver/callee.
	name := ""
	cs.locals = append(cs.locals, local{name: name, depth: 0})
	return cs
}

// Compiler drives scanning and parsing for one source buffer. It owns
// no object heap; callers supply one so functions/strings the
// compiler allocates share the VM's lifetime.
type Compiler struct {
	scanner *scanner.Scanner
	heap    *object.Heap

	current  *compilerState
	prevTok  token.Token
	curTok   token.Token

	hadError  bool
	panicMode bool
	errors    []error
}

// Compile compiles source into a top-level script function. If any
// compile error was reported it returns a nil function and every
// accumulated error; otherwise the error slice is nil.
func Compile(source string, heap *object.Heap) (*object.Function, []error) {
	c := &Compiler{
		scanner: scanner.New(source),
		heap:    heap,
	}
	scriptFn := heap.NewFunction()
	c.current = newCompilerState(nil, scriptFn, typeScript)

	c.advance()
	for !c.match(token.EOF) {
		c.declaration()
	}
	fn := c.endCompiler()

	if c.hadError {
		return nil, c.errors
	}
	return fn, nil
}

// --- token stream -----------------------------------------------------

func (c *Compiler) advance() {
	c.prevTok = c.curTok
	for {
		c.curTok = c.scanner.Next()
		if c.curTok.Type != token.Error {
			break
		}
		c.errorAtCurrent(c.curTok.Lexeme)
	}
}

func (c *Compiler) check(t token.Type) bool { return c.curTok.Type == t }

func (c *Compiler) match(t token.Type) bool {
	if !c.check(t) {
		return false
	}
	c.advance()
	return true
}

func (c *Compiler) consume(t token.Type, msg string) {
	if c.curTok.Type == t {
		c.advance()
		return
	}
	c.errorAtCurrent(msg)
}

func (c *Compiler) errorAtCurrent(msg string) { c.errorAt(c.curTok, msg) }
func (c *Compiler) error(msg string)          { c.errorAt(c.prevTok, msg) }

func (c *Compiler) errorAt(tok token.Token, msg string) {
	if c.panicMode {
		return
	}
	c.panicMode = true
	c.hadError = true
	where := tok.Lexeme
	if tok.Type == token.EOF {
		where = ""
	}
	c.errors = append(c.errors, &CompileError{Line: tok.Line, Where: where, Message: msg})
}

func (c *Compiler) synchronize() {
	c.panicMode = false
	for c.curTok.Type != token.EOF {
		if c.prevTok.Type == token.Semicolon {
			return
		}
		switch c.curTok.Type {
		case token.Class, token.Fun, token.Var, token.For, token.If,
			token.While, token.Print, token.Return:
			return
		}
		c.advance()
	}
}

// --- chunk helpers ------------------------------------------------------

func (c *Compiler) chunk() *bytecode.Chunk { return c.current.function.Chunk }
func (c *Compiler) line() int              { return c.prevTok.Line }

func (c *Compiler) emitOp(op bytecode.Opcode) {
	c.chunk().Emit(op, c.line())
}

func (c *Compiler) emitOpByte(op bytecode.Opcode, b byte) {
	c.chunk().EmitOpByte(op, b, c.line())
}

// emitIndexed picks the short or long form of a family of opcodes
// based on idx, mirroring every named-variable/constant access the
// bytecode format defines in both widths.
func (c *Compiler) emitIndexed(short, long bytecode.Opcode, idx int) {
	if idx <= 255 {
		c.emitOpByte(short, byte(idx))
	} else {
		c.chunk().EmitOpUint16(long, uint16(idx), c.line())
	}
}

func (c *Compiler) emitReturn() {
	c.emitOp(bytecode.OpNil)
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) makeConstant(v value.Value) int {
	idx, ok := c.chunk().AddConstant(v)
	if !ok {
		c.error("Too many constants in one chunk.")
		return 0
	}
	return idx
}

func (c *Compiler) identifierConstant(tok token.Token) int {
	s := c.heap.InternString(tok.Lexeme)
	return c.makeConstant(value.Object(s))
}

func (c *Compiler) endCompiler() *object.Function {
	c.emitReturn()
	fn := c.current.function
	fn.UpvalueCount = len(c.current.upvalues)
	c.current = c.current.enclosing
	return fn
}

// --- scope & locals -------------------------------------------------------

func (c *Compiler) beginScope() { c.current.scopeDepth++ }

// emitPopRun collapses n plain-value pops into as few POPN
// instructions as possible (repeated POPN 255 for n > 255), or a
// single POP for n == 1.
func (c *Compiler) emitPopRun(n int) {
	for n > 255 {
		c.emitOpByte(bytecode.OpPopN, 255)
		n -= 255
	}
	switch n {
	case 0:
	case 1:
		c.emitOp(bytecode.OpPop)
	default:
		c.emitOpByte(bytecode.OpPopN, byte(n))
	}
}

// emitScopeCleanup walks locals from the top down while pred holds,
// flushing consecutive non-captured slots into POPN runs and emitting
// one CLOSE_UPVALUE per captured slot once any pending run is flushed.
// It returns the number of locals visited.
func (c *Compiler) emitScopeCleanup(locals []local, pred func(local) bool) int {
	run := 0
	visited := 0
	for i := len(locals) - 1; i >= 0; i-- {
		if !pred(locals[i]) {
			break
		}
		if locals[i].isCaptured {
			c.emitPopRun(run)
			run = 0
			c.emitOp(bytecode.OpCloseUpvalue)
		} else {
			run++
		}
		visited++
	}
	c.emitPopRun(run)
	return visited
}

// endScope pops every local declared at or below the scope being
// exited, matching emitScopeCleanup's run-collapsing, and drops them
// from compile-time tracking since this code path is the only way
// control leaves the scope normally.
func (c *Compiler) endScope() {
	cs := c.current
	cs.scopeDepth--

	n := c.emitScopeCleanup(cs.locals, func(l local) bool { return l.depth > cs.scopeDepth })
	cs.locals = cs.locals[:len(cs.locals)-n]
}

func (c *Compiler) addLocal(name string) {
	if len(c.current.locals) >= maxLocals {
		c.error("Too many local variables in function.")
		return
	}
	c.current.locals = append(c.current.locals, local{name: name, depth: -1})
}

func (c *Compiler) declareVariable(tok token.Token) {
	if c.current.scopeDepth == 0 {
		return
	}
	for i := len(c.current.locals) - 1; i >= 0; i-- {
		l := c.current.locals[i]
		if l.depth != -1 && l.depth < c.current.scopeDepth {
			break
		}
		if l.name == tok.Lexeme {
			c.error("Already a variable with this name in this scope.")
		}
	}
	c.addLocal(tok.Lexeme)
}

func (c *Compiler) markInitialized() {
	if c.current.scopeDepth == 0 {
		return
	}
	c.current.locals[len(c.current.locals)-1].depth = c.current.scopeDepth
}

// resolveLocal looks up name among cs's own locals, innermost first.
// It reports a compile error (via errFn) if the match is still
// uninitialized, which is what makes `var x = x;` fail.
func resolveLocal(cs *compilerState, name string, errFn func(string)) int {
	for i := len(cs.locals) - 1; i >= 0; i-- {
		if cs.locals[i].name == name {
			if cs.locals[i].depth == -1 {
				errFn("Can't read local variable in its own initializer.")
				return -1
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recurses through enclosing compiler states to find
// name as a captured local, adding an upvalue entry at every level on
// the way back out.
func (c *Compiler) resolveUpvalue(cs *compilerState, name string) int {
	if cs.enclosing == nil {
		return -1
	}
	if local := resolveLocal(cs.enclosing, name, c.error); local != -1 {
		cs.enclosing.locals[local].isCaptured = true
		return c.addUpvalue(cs, local, true)
	}
	if up := c.resolveUpvalue(cs.enclosing, name); up != -1 {
		return c.addUpvalue(cs, up, false)
	}
	return -1
}

func (c *Compiler) addUpvalue(cs *compilerState, index int, isLocal bool) int {
	for i, u := range cs.upvalues {
		if u.index == index && u.isLocal == isLocal {
			return i
		}
	}
	if len(cs.upvalues) >= maxUpvalues {
		c.error("Too many closure variables in function.")
		return 0
	}
	cs.upvalues = append(cs.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(cs.upvalues) - 1
}

// --- declarations & statements --------------------------------------------

func (c *Compiler) declaration() {
	switch {
	case c.match(token.Fun):
		c.funDeclaration()
	case c.match(token.Var):
		c.varDeclaration()
	case c.match(token.Class):
		c.classDeclaration()
	default:
		c.statement()
	}
	if c.panicMode {
		c.synchronize()
	}
}

func (c *Compiler) varDeclaration() {
	c.consume(token.Identifier, "Expect variable name.")
	nameTok := c.prevTok
	c.declareVariable(nameTok)
	global := c.identifierConstant(nameTok)

	if c.match(token.Equal) {
		c.expression()
	} else {
		c.emitOp(bytecode.OpNil)
	}
	c.consume(token.Semicolon, "Expect ';' after variable declaration.")
	c.defineVariable(global)
}

func (c *Compiler) defineVariable(global int) {
	if c.current.scopeDepth > 0 {
		c.markInitialized()
		return
	}
	c.emitIndexed(bytecode.OpDefineGlobal, bytecode.OpDefineGlobalLong, global)
}

func (c *Compiler) funDeclaration() {
	c.consume(token.Identifier, "Expect function name.")
	nameTok := c.prevTok
	c.declareVariable(nameTok)
	global := c.identifierConstant(nameTok)
	c.markInitialized() // a function may call itself by name
	c.function(nameTok.Lexeme, typeFunction)
	c.defineVariable(global)
}

// classDeclaration reports a clean compile error for `class` rather
// than letting it fall through to the expression parser and desync.
// It still consumes the name and a balanced brace body so the
// compiler lands back on solid ground for whatever follows.
func (c *Compiler) classDeclaration() {
	c.error("Classes are not supported.")
	if c.check(token.Identifier) {
		c.advance()
	}
	if c.match(token.LeftBrace) {
		depth := 1
		for depth > 0 && !c.check(token.EOF) {
			switch {
			case c.match(token.LeftBrace):
				depth++
			case c.match(token.RightBrace):
				depth--
			default:
				c.advance()
			}
		}
	}
}

func (c *Compiler) function(name string, ft funcType) {
	fn := c.heap.NewFunction()
	fn.Name = name
	c.current = newCompilerState(c.current, fn, ft)
	c.beginScope()

	c.consume(token.LeftParen, "Expect '(' after function name.")
	if !c.check(token.RightParen) {
		for {
			fn.Arity++
			if fn.Arity > maxArity {
				c.errorAtCurrent("Can't have more than 255 parameters.")
			}
			c.consume(token.Identifier, "Expect parameter name.")
			paramTok := c.prevTok
			c.declareVariable(paramTok)
			c.markInitialized()
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after parameters.")
	c.consume(token.LeftBrace, "Expect '{' before function body.")
	c.block()

	capturedUpvalues := c.current.upvalues
	compiled := c.endCompiler()

	idx := c.makeConstant(value.Object(compiled))
	c.emitIndexed(bytecode.OpClosure, bytecode.OpClosureLong, idx)
	for _, u := range capturedUpvalues {
		if u.isLocal {
			c.chunk().EmitByte(1, c.line())
		} else {
			c.chunk().EmitByte(0, c.line())
		}
		c.chunk().EmitUint16(uint16(u.index), c.line())
	}
}

func (c *Compiler) block() {
	for !c.check(token.RightBrace) && !c.check(token.EOF) {
		c.declaration()
	}
	c.consume(token.RightBrace, "Expect '}' after block.")
}

func (c *Compiler) statement() {
	switch {
	case c.match(token.Print):
		c.printStatement()
	case c.match(token.If):
		c.ifStatement()
	case c.match(token.While):
		c.whileStatement()
	case c.match(token.For):
		c.forStatement()
	case c.match(token.Continue):
		c.continueStatement()
	case c.match(token.Return):
		c.returnStatement()
	case c.match(token.LeftBrace):
		c.beginScope()
		c.block()
		c.endScope()
	default:
		c.expressionStatement()
	}
}

func (c *Compiler) printStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after value.")
	c.emitOp(bytecode.OpPrint)
}

func (c *Compiler) expressionStatement() {
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after expression.")
	c.emitOp(bytecode.OpPop)
}

func (c *Compiler) returnStatement() {
	if c.current.funcType == typeScript {
		c.error("Can't return from top-level code.")
	}
	if c.match(token.Semicolon) {
		c.emitReturn()
		return
	}
	c.expression()
	c.consume(token.Semicolon, "Expect ';' after return value.")
	c.emitOp(bytecode.OpReturn)
}

func (c *Compiler) ifStatement() {
	c.consume(token.LeftParen, "Expect '(' after 'if'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	thenJump := c.chunk().EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)
	c.statement()

	elseJump := c.chunk().EmitJump(bytecode.OpJump, c.line())
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	if c.match(token.Else) {
		c.statement()
	}
	c.patchJump(elseJump)
}

func (c *Compiler) whileStatement() {
	savedStart, savedDepth := c.current.loopStart, c.current.loopDepth

	loopStart := c.chunk().CurrentOffset()
	c.consume(token.LeftParen, "Expect '(' after 'while'.")
	c.expression()
	c.consume(token.RightParen, "Expect ')' after condition.")

	exitJump := c.chunk().EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)

	c.current.loopStart = loopStart
	c.current.loopDepth = c.current.scopeDepth
	c.statement()

	c.emitLoop(loopStart)
	c.patchJump(exitJump)
	c.emitOp(bytecode.OpPop)

	c.current.loopStart, c.current.loopDepth = savedStart, savedDepth
}

func (c *Compiler) forStatement() {
	c.beginScope()
	savedStart, savedDepth := c.current.loopStart, c.current.loopDepth

	c.consume(token.LeftParen, "Expect '(' after 'for'.")
	switch {
	case c.match(token.Semicolon):
		// no initializer
	case c.match(token.Var):
		c.varDeclaration()
	default:
		c.expressionStatement()
	}

	loopStart := c.chunk().CurrentOffset()
	exitJump := -1
	if !c.check(token.Semicolon) {
		c.expression()
		exitJump = c.chunk().EmitJump(bytecode.OpJumpIfFalse, c.line())
		c.emitOp(bytecode.OpPop)
	}
	c.consume(token.Semicolon, "Expect ';' after loop condition.")

	if !c.check(token.RightParen) {
		bodyJump := c.chunk().EmitJump(bytecode.OpJump, c.line())
		incrStart := c.chunk().CurrentOffset()
		c.expression()
		c.emitOp(bytecode.OpPop)
		c.consume(token.RightParen, "Expect ')' after for clauses.")

		c.emitLoop(loopStart)
		loopStart = incrStart
		c.patchJump(bodyJump)
	} else {
		c.consume(token.RightParen, "Expect ')' after for clauses.")
	}

	c.current.loopStart = loopStart
	c.current.loopDepth = c.current.scopeDepth
	c.statement()
	c.emitLoop(loopStart)

	if exitJump != -1 {
		c.patchJump(exitJump)
		c.emitOp(bytecode.OpPop)
	}

	c.current.loopStart, c.current.loopDepth = savedStart, savedDepth
	c.endScope()
}

// continueStatement jumps back to the enclosing loop's loopStart. The
// locals declared since the loop body began are still live in
// compile-time tracking (code after the continue, reached on a path
// that doesn't continue, still needs their slots) but must be
// cleaned off the runtime stack here exactly as endScope would: the
// invariant at any loop back-edge is that the runtime stack depth
// equals the stack depth at loopStart. Skipping this for non-captured
// locals would leave stale slots on the stack that shift every later
// local's runtime position out of sync with its compile-time index;
// skipping it for captured ones would leave their upvalues pointing
// at a slot the next iteration silently overwrites.
func (c *Compiler) continueStatement() {
	if c.current.loopStart == -1 {
		c.error("Can't use 'continue' outside of a loop.")
		return
	}
	c.consume(token.Semicolon, "Expect ';' after 'continue'.")

	loopDepth := c.current.loopDepth
	c.emitScopeCleanup(c.current.locals, func(l local) bool { return l.depth > loopDepth })
	c.emitLoop(c.current.loopStart)
}

func (c *Compiler) patchJump(site int) {
	if err := c.chunk().PatchJump(site); err != nil {
		c.error(err.Error())
	}
}

func (c *Compiler) emitLoop(target int) {
	if err := c.chunk().EmitLoop(target, c.line()); err != nil {
		c.error(err.Error())
	}
}

// parseNumber strips the visual `_` separators the scanner leaves in
// place and parses the remaining float literal.
func parseNumber(lexeme string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(lexeme, "_", ""), 64)
}
