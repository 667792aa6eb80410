package loxvm

import (
	"bytes"
	"strings"
	"testing"
)

func TestInterpretOKExitCode(t *testing.T) {
	var out bytes.Buffer
	v := New(&out)
	result, err := v.Interpret(`print "hi";`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != OK {
		t.Fatalf("result = %v, want OK", result)
	}
	if result.ExitCode() != 0 {
		t.Errorf("ExitCode() = %d, want 0", result.ExitCode())
	}
	if strings.TrimSpace(out.String()) != "hi" {
		t.Errorf("output = %q, want \"hi\"", out.String())
	}
}

func TestInterpretCompileErrorExitCode(t *testing.T) {
	v := New(&bytes.Buffer{})
	result, err := v.Interpret(`var;`)
	if result != CompileError {
		t.Fatalf("result = %v, want CompileError", result)
	}
	if err == nil {
		t.Error("expected a non-nil error")
	}
	if result.ExitCode() != 65 {
		t.Errorf("ExitCode() = %d, want 65", result.ExitCode())
	}
}

func TestInterpretRuntimeErrorExitCode(t *testing.T) {
	v := New(&bytes.Buffer{})
	result, err := v.Interpret(`print 1 + nil;`)
	if result != RuntimeError {
		t.Fatalf("result = %v, want RuntimeError", result)
	}
	if err == nil {
		t.Error("expected a non-nil error")
	}
	if result.ExitCode() != 70 {
		t.Errorf("ExitCode() = %d, want 70", result.ExitCode())
	}
}

func TestIndependentVMsDoNotShareGlobals(t *testing.T) {
	a := New(&bytes.Buffer{})
	if _, err := a.Interpret(`var shared = 1;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var out bytes.Buffer
	b := New(&out)
	_, err := b.Interpret(`print shared;`)
	if err == nil {
		t.Error("a fresh VM should not see globals defined in a different VM")
	}
}

func TestSetTraceIsSafeBeforeAnyInterpret(t *testing.T) {
	v := New(&bytes.Buffer{})
	v.SetTrace(true)
	if _, err := v.Interpret(`print 1;`); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
