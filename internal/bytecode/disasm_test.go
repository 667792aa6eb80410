package bytecode

import (
	"strings"
	"testing"

	"github.com/chazu/loxvm/internal/value"
)

func TestDisassembleSimpleInstructions(t *testing.T) {
	c := NewChunk()
	c.Emit(OpNil, 1)
	c.Emit(OpPop, 1)
	c.Emit(OpReturn, 2)

	lines := c.DisassembleToLines("test")
	if lines[0] != "== test ==" {
		t.Fatalf("header = %q", lines[0])
	}
	if !strings.Contains(lines[1], "NIL") {
		t.Errorf("expected NIL in %q", lines[1])
	}
	if !strings.Contains(lines[2], "POP") {
		t.Errorf("expected POP in %q", lines[2])
	}
	if !strings.Contains(lines[3], "RETURN") {
		t.Errorf("expected RETURN in %q", lines[3])
	}
}

func TestDisassembleConstant(t *testing.T) {
	c := NewChunk()
	idx, _ := c.AddConstant(value.Number(42))
	c.EmitConstant(idx, 1)

	lines := c.DisassembleToLines("test")
	if !strings.Contains(lines[1], "CONSTANT") || !strings.Contains(lines[1], "42") {
		t.Errorf("expected a CONSTANT line mentioning 42, got %q", lines[1])
	}
}

func TestDisassembleJumpShowsTarget(t *testing.T) {
	c := NewChunk()
	site := c.EmitJump(OpJump, 1)
	c.Emit(OpPop, 1)
	if err := c.PatchJump(site); err != nil {
		t.Fatalf("PatchJump failed: %v", err)
	}

	lines := c.DisassembleToLines("test")
	if !strings.Contains(lines[0+1], "JUMP") || !strings.Contains(lines[0+1], "->") {
		t.Errorf("expected a JUMP line with a target arrow, got %q", lines[1])
	}
}

func TestDisassembleUnknownOpcode(t *testing.T) {
	c := NewChunk()
	c.Write(0xfe, 1) // no opcode is assigned this high a value
	out := c.Disassemble("test")
	if !strings.Contains(out, "Unknown opcode") {
		t.Errorf("expected an Unknown opcode line, got %q", out)
	}
}
