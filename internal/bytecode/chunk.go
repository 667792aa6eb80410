package bytecode

import (
	"bytes"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/loxvm/internal/value"
)

// Magic and version tag a serialized chunk so Deserialize can reject
// foreign or incompatible blobs outright before handing the remainder
// to the cbor decoder.
var (
	chunkMagic   = []byte{'L', 'O', 'X', 'B'}
	chunkVersion = uint16(1)
)

const maxConstants = 65535

// lineRun is one run-length-encoded entry in a Chunk's source-line map:
// `run` consecutive bytes of code all originate from `line`.
type lineRun struct {
	line int
	run  int
}

// Chunk is a function's compiled form: raw bytecode, its constant
// pool, and a run-length-encoded mapping from code offset back to
// source line.
type Chunk struct {
	Code      []byte
	Constants []value.Value
	lines     []lineRun
}

// NewChunk returns an empty chunk ready to receive bytecode.
func NewChunk() *Chunk {
	return &Chunk{
		Code:      make([]byte, 0, 8),
		Constants: make([]value.Value, 0, 8),
	}
}

// Write appends a single byte, recording it against line in the
// run-length line map.
func (c *Chunk) Write(b byte, line int) {
	c.Code = append(c.Code, b)
	c.addLine(line)
}

func (c *Chunk) addLine(line int) {
	if n := len(c.lines); n > 0 && c.lines[n-1].line == line {
		c.lines[n-1].run++
		return
	}
	c.lines = append(c.lines, lineRun{line: line, run: 1})
}

// GetLine returns the source line that produced the byte at offset.
// It scans runs cumulatively; this is a diagnostics-only path, never
// on the instruction dispatch hot loop.
func (c *Chunk) GetLine(offset int) int {
	remaining := offset
	for _, r := range c.lines {
		if remaining < r.run {
			return r.line
		}
		remaining -= r.run
	}
	if len(c.lines) > 0 {
		return c.lines[len(c.lines)-1].line
	}
	return 0
}

// Emit writes a bare opcode with no operand.
func (c *Chunk) Emit(op Opcode, line int) int {
	c.Write(byte(op), line)
	return len(c.Code) - 1
}

// EmitByte writes a single raw operand byte, e.g. for POPN or CALL's
// argument count.
func (c *Chunk) EmitByte(b byte, line int) {
	c.Write(b, line)
}

// EmitOpByte writes op followed by one operand byte.
func (c *Chunk) EmitOpByte(op Opcode, operand byte, line int) int {
	offset := c.Emit(op, line)
	c.EmitByte(operand, line)
	return offset
}

// EmitUint16 writes a big-endian 2-byte operand.
func (c *Chunk) EmitUint16(v uint16, line int) {
	c.Write(byte(v>>8), line)
	c.Write(byte(v), line)
}

// EmitOpUint16 writes op followed by a big-endian 2-byte operand.
func (c *Chunk) EmitOpUint16(op Opcode, operand uint16, line int) int {
	offset := c.Emit(op, line)
	c.EmitUint16(operand, line)
	return offset
}

// AddConstant appends value to the constant pool, deduplicating by
// value equality so repeated literals share one slot, and returns its
// index. ok is false if the pool is already at capacity.
func (c *Chunk) AddConstant(v value.Value) (int, bool) {
	for i, existing := range c.Constants {
		if value.Equal(existing, v) {
			return i, true
		}
	}
	if len(c.Constants) >= maxConstants {
		return 0, false
	}
	c.Constants = append(c.Constants, v)
	return len(c.Constants) - 1, true
}

// EmitConstant writes the short or long CONSTANT form depending on
// idx's size.
func (c *Chunk) EmitConstant(idx int, line int) {
	if idx <= 255 {
		c.EmitOpByte(OpConstant, byte(idx), line)
	} else {
		c.EmitOpUint16(OpConstantLong, uint16(idx), line)
	}
}

// EmitJump writes op followed by a two-byte placeholder offset and
// returns the offset of the first placeholder byte, to be patched
// later by PatchJump.
func (c *Chunk) EmitJump(op Opcode, line int) int {
	c.Emit(op, line)
	site := len(c.Code)
	c.Write(0xff, line)
	c.Write(0xff, line)
	return site
}

// PatchJump backpatches the placeholder written at site so the jump
// lands at the current end of the chunk. err is non-nil if the
// resulting offset doesn't fit in 16 bits.
func (c *Chunk) PatchJump(site int) error {
	return c.PatchJumpTo(site, len(c.Code))
}

// PatchJumpTo backpatches the placeholder at site so the jump lands at
// target, an absolute code offset.
func (c *Chunk) PatchJumpTo(site, target int) error {
	jump := target - site - 2
	if jump < 0 || jump > 0xffff {
		return fmt.Errorf("jump offset %d out of range", jump)
	}
	c.Code[site] = byte(jump >> 8)
	c.Code[site+1] = byte(jump)
	return nil
}

// EmitLoop writes a LOOP instruction whose offset, subtracted from the
// instruction pointer just past the operand, reaches target (a code
// offset at or before the current position).
func (c *Chunk) EmitLoop(target int, line int) error {
	c.Emit(OpLoop, line)
	offset := len(c.Code) + 2 - target
	if offset < 0 || offset > 0xffff {
		return fmt.Errorf("loop body too large to jump over (%d)", offset)
	}
	c.EmitUint16(uint16(offset), line)
	return nil
}

// CurrentOffset returns the offset just past the last byte written.
func (c *Chunk) CurrentOffset() int { return len(c.Code) }

// serializedLine is the cbor-visible mirror of lineRun; lineRun's own
// fields stay unexported since nothing outside this file needs them.
type serializedLine struct {
	Line int `cbor:"line"`
	Run  int `cbor:"run"`
}

// serializedConstant mirrors one constant-pool entry. Kind is "N" for
// a number (carried in Num) or "S" for a string (carried in Str);
// function constants aren't representable here — see Deserialize.
type serializedConstant struct {
	Kind byte    `cbor:"kind"`
	Num  float64 `cbor:"num,omitempty"`
	Str  string  `cbor:"str,omitempty"`
}

// serializedChunk is the cbor body written after the magic/version
// prefix.
type serializedChunk struct {
	Code      []byte               `cbor:"code"`
	Lines     []serializedLine     `cbor:"lines"`
	Constants []serializedConstant `cbor:"constants"`
}

// Serialize encodes the chunk as a self-describing blob: a magic and
// version prefix for cheap format validation, followed by a cbor
// encoding of the code, line-run table, and constant pool. Only
// number and string constants round-trip — see Deserialize for why
// functions aren't carried here.
func (c *Chunk) Serialize() ([]byte, error) {
	body := serializedChunk{
		Code:      c.Code,
		Lines:     make([]serializedLine, len(c.lines)),
		Constants: make([]serializedConstant, len(c.Constants)),
	}
	for i, r := range c.lines {
		body.Lines[i] = serializedLine{Line: r.line, Run: r.run}
	}
	for i, v := range c.Constants {
		sc, err := marshalConstant(v)
		if err != nil {
			return nil, err
		}
		body.Constants[i] = sc
	}

	encoded, err := cbor.Marshal(body)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	buf.Write(chunkMagic)
	buf.WriteByte(byte(chunkVersion >> 8))
	buf.WriteByte(byte(chunkVersion))
	buf.Write(encoded)
	return buf.Bytes(), nil
}

func marshalConstant(v value.Value) (serializedConstant, error) {
	switch {
	case v.IsNumber():
		return serializedConstant{Kind: 'N', Num: v.AsNumber()}, nil
	case v.IsObjType("string"):
		return serializedConstant{Kind: 'S', Str: v.AsObject().String()}, nil
	default:
		return serializedConstant{}, fmt.Errorf("chunk: constant of kind %v is not serializable", v.Kind)
	}
}

// Deserialize decodes a chunk previously written by Serialize. Only
// number and string constants round-trip; function constants (used by
// CLOSURE instructions) require the compiler's object heap and are
// rebuilt by the caller, not by this format.
func Deserialize(data []byte, intern func(string) value.Value) (*Chunk, error) {
	if len(data) < len(chunkMagic)+2 {
		return nil, fmt.Errorf("chunk: data too short")
	}
	magic, rest := data[:len(chunkMagic)], data[len(chunkMagic):]
	if !bytes.Equal(magic, chunkMagic) {
		return nil, fmt.Errorf("chunk: bad magic")
	}
	version := uint16(rest[0])<<8 | uint16(rest[1])
	if version != chunkVersion {
		return nil, fmt.Errorf("chunk: unsupported version %d", version)
	}

	var body serializedChunk
	if err := cbor.Unmarshal(rest[2:], &body); err != nil {
		return nil, err
	}

	c := NewChunk()
	c.Code = body.Code

	c.lines = make([]lineRun, len(body.Lines))
	for i, r := range body.Lines {
		c.lines[i] = lineRun{line: r.Line, run: r.Run}
	}

	c.Constants = make([]value.Value, len(body.Constants))
	for i, sc := range body.Constants {
		switch sc.Kind {
		case 'N':
			c.Constants[i] = value.Number(sc.Num)
		case 'S':
			if intern == nil {
				return nil, fmt.Errorf("chunk: string constant requires an intern function")
			}
			c.Constants[i] = intern(sc.Str)
		default:
			return nil, fmt.Errorf("chunk: unknown constant tag %q", sc.Kind)
		}
	}
	return c, nil
}
