package compiler

import "fmt"

// CompileError is one diagnostic produced while compiling a source
// buffer. Compilation accumulates every CompileError it encounters
// rather than stopping at the first one.
type CompileError struct {
	Line    int
	Where   string // offending lexeme, or "" at EOF
	Message string
}

func (e *CompileError) Error() string {
	if e.Where == "" {
		return fmt.Sprintf("[line %d] Error at end: %s", e.Line, e.Message)
	}
	return fmt.Sprintf("[line %d] Error at '%s': %s", e.Line, e.Where, e.Message)
}
