package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()
	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if c.Debug.Trace {
		t.Error("a missing lox.toml should leave tracing disabled")
	}
}

func TestLoadParsesTraceFlag(t *testing.T) {
	dir := t.TempDir()
	tomlContent := `
[debug]
trace = true
`
	if err := os.WriteFile(filepath.Join(dir, "lox.toml"), []byte(tomlContent), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := Load(dir)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !c.Debug.Trace {
		t.Error("expected Debug.Trace to be true")
	}
}

func TestLoadRejectsMalformedToml(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "lox.toml"), []byte("not = [valid"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil {
		t.Error("expected Load to report a parse error for malformed toml")
	}
}
