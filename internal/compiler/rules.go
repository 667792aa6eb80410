package compiler

import (
	"github.com/chazu/loxvm/internal/bytecode"
	"github.com/chazu/loxvm/internal/token"
	"github.com/chazu/loxvm/internal/value"
)

// precedence orders binding strength low to high; parsePrecedence
// consumes infix operators whose precedence is >= the level passed in.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precTernary               // ?:
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(c *Compiler, canAssign bool)

type parseRule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

var rules map[token.Type]parseRule

func init() {
	rules = map[token.Type]parseRule{
		token.LeftParen:  {grouping, call, precCall},
		token.RightParen: {nil, nil, precNone},
		token.LeftBrace:  {nil, nil, precNone},
		token.RightBrace: {nil, nil, precNone},
		token.Comma:      {nil, nil, precNone},
		token.Dot:        {nil, nil, precNone},
		token.Minus:      {unary, binary, precTerm},
		token.Plus:       {nil, binary, precTerm},
		token.Semicolon:  {nil, nil, precNone},
		token.Slash:      {nil, binary, precFactor},
		token.Star:       {nil, binary, precFactor},
		token.Question:   {nil, ternary, precTernary},
		token.Colon:      {nil, nil, precNone},

		token.Bang:         {unary, nil, precNone},
		token.BangEqual:    {nil, binary, precEquality},
		token.Equal:        {nil, nil, precNone},
		token.EqualEqual:   {nil, binary, precEquality},
		token.Greater:      {nil, binary, precComparison},
		token.GreaterEqual: {nil, binary, precComparison},
		token.Less:         {nil, binary, precComparison},
		token.LessEqual:    {nil, binary, precComparison},

		token.Identifier: {variable, nil, precNone},
		token.String:     {str, nil, precNone},
		token.Number:     {number, nil, precNone},

		token.And:   {nil, and_, precAnd},
		token.False: {literal, nil, precNone},
		token.Nil:   {literal, nil, precNone},
		token.Or:    {nil, or_, precOr},
		token.True:  {literal, nil, precNone},
	}
}

func getRule(t token.Type) parseRule {
	if r, ok := rules[t]; ok {
		return r
	}
	return parseRule{}
}

func (c *Compiler) expression() {
	c.parsePrecedence(precAssignment)
}

func (c *Compiler) parsePrecedence(p precedence) {
	c.advance()
	rule := getRule(c.prevTok.Type)
	if rule.prefix == nil {
		c.error("Expect expression.")
		return
	}
	canAssign := p <= precAssignment
	rule.prefix(c, canAssign)

	for getRule(c.curTok.Type).precedence >= p {
		c.advance()
		infix := getRule(c.prevTok.Type).infix
		infix(c, canAssign)
	}
}

func number(c *Compiler, _ bool) {
	n, err := parseNumber(c.prevTok.Lexeme)
	if err != nil {
		c.error("Invalid number literal.")
		return
	}
	c.emitConstantValue(value.Number(n))
}

func str(c *Compiler, _ bool) {
	lexeme := c.prevTok.Lexeme
	s := c.heap.InternString(lexeme[1 : len(lexeme)-1])
	c.emitConstantValue(value.Object(s))
}

func literal(c *Compiler, _ bool) {
	switch c.prevTok.Type {
	case token.False:
		c.emitOp(bytecode.OpFalse)
	case token.True:
		c.emitOp(bytecode.OpTrue)
	case token.Nil:
		c.emitOp(bytecode.OpNil)
	}
}

func grouping(c *Compiler, _ bool) {
	c.expression()
	c.consume(token.RightParen, "Expect ')' after expression.")
}

func unary(c *Compiler, _ bool) {
	opType := c.prevTok.Type
	c.parsePrecedence(precUnary)
	switch opType {
	case token.Minus:
		c.emitOp(bytecode.OpNegate)
	case token.Bang:
		c.emitOp(bytecode.OpNot)
	}
}

func binary(c *Compiler, _ bool) {
	opType := c.prevTok.Type
	rule := getRule(opType)
	c.parsePrecedence(rule.precedence + 1)
	switch opType {
	case token.BangEqual:
		c.emitOp(bytecode.OpNotEqual)
	case token.EqualEqual:
		c.emitOp(bytecode.OpEqualEqual)
	case token.Greater:
		c.emitOp(bytecode.OpGreater)
	case token.GreaterEqual:
		c.emitOp(bytecode.OpGreaterEqual)
	case token.Less:
		c.emitOp(bytecode.OpLess)
	case token.LessEqual:
		c.emitOp(bytecode.OpLessEqual)
	case token.Plus:
		c.emitOp(bytecode.OpAdd)
	case token.Minus:
		c.emitOp(bytecode.OpSubtract)
	case token.Star:
		c.emitOp(bytecode.OpMultiply)
	case token.Slash:
		c.emitOp(bytecode.OpDivide)
	}
}

func and_(c *Compiler, _ bool) {
	endJump := c.chunk().EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precAnd)
	c.patchJump(endJump)
}

func or_(c *Compiler, _ bool) {
	endJump := c.chunk().EmitJump(bytecode.OpJumpIfTrue, c.line())
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precOr)
	c.patchJump(endJump)
}

func ternary(c *Compiler, _ bool) {
	thenJump := c.chunk().EmitJump(bytecode.OpJumpIfFalse, c.line())
	c.emitOp(bytecode.OpPop)
	c.parsePrecedence(precTernary)

	elseJump := c.chunk().EmitJump(bytecode.OpJump, c.line())
	c.patchJump(thenJump)
	c.emitOp(bytecode.OpPop)

	c.consume(token.Colon, "Expect ':' after then branch of ternary.")
	c.parsePrecedence(precTernary)
	c.patchJump(elseJump)
}

func call(c *Compiler, _ bool) {
	argCount := c.argumentList()
	c.emitOpByte(bytecode.OpCall, byte(argCount))
}

func (c *Compiler) argumentList() int {
	count := 0
	if !c.check(token.RightParen) {
		for {
			c.expression()
			if count == 255 {
				c.error("Can't have more than 255 arguments.")
			}
			count++
			if !c.match(token.Comma) {
				break
			}
		}
	}
	c.consume(token.RightParen, "Expect ')' after arguments.")
	return count
}

func variable(c *Compiler, canAssign bool) {
	c.namedVariable(c.prevTok, canAssign)
}

func (c *Compiler) namedVariable(tok token.Token, canAssign bool) {
	var getShort, getLong, setShort, setLong bytecode.Opcode
	var idx int

	if local := resolveLocal(c.current, tok.Lexeme, c.error); local != -1 {
		idx = local
		getShort, getLong = bytecode.OpGetLocal, bytecode.OpGetLocalLong
		setShort, setLong = bytecode.OpSetLocal, bytecode.OpSetLocalLong
	} else if up := c.resolveUpvalue(c.current, tok.Lexeme); up != -1 {
		idx = up
		getShort, getLong = bytecode.OpGetUpvalue, bytecode.OpGetUpvalueLong
		setShort, setLong = bytecode.OpSetUpvalue, bytecode.OpSetUpvalueLong
	} else {
		idx = c.identifierConstant(tok)
		getShort, getLong = bytecode.OpGetGlobal, bytecode.OpGetGlobalLong
		setShort, setLong = bytecode.OpSetGlobal, bytecode.OpSetGlobalLong
	}

	if canAssign && c.match(token.Equal) {
		c.expression()
		c.emitIndexed(setShort, setLong, idx)
		return
	}
	c.emitIndexed(getShort, getLong, idx)
}

func (c *Compiler) emitConstantValue(v value.Value) {
	idx := c.makeConstant(v)
	c.chunk().EmitConstant(idx, c.line())
}
