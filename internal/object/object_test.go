package object

import (
	"testing"

	"github.com/chazu/loxvm/internal/value"
)

func TestInternStringDeduplicates(t *testing.T) {
	h := NewHeap()
	a := h.InternString("hello")
	b := h.InternString("hello")
	if a != b {
		t.Error("two InternString calls with the same content should return the same pointer")
	}
	c := h.InternString("world")
	if a == c {
		t.Error("different content should not intern to the same string")
	}
	if h.Count() != 2 {
		t.Errorf("heap should hold 2 objects after interning 2 distinct strings, got %d", h.Count())
	}
}

func TestConcatenateInternsResult(t *testing.T) {
	h := NewHeap()
	a := h.InternString("foo")
	b := h.InternString("bar")
	c := h.Concatenate(a, b)
	if c.Chars != "foobar" {
		t.Errorf("Concatenate(foo, bar).Chars = %q, want %q", c.Chars, "foobar")
	}
	if d := h.InternString("foobar"); c != d {
		t.Error("Concatenate's result should intern into the heap's string table")
	}
}

func TestHashStringIsStable(t *testing.T) {
	h := NewHeap()
	s := h.InternString("abc")
	if s.Hash() != hashString("abc") {
		t.Error("String.Hash should match hashString for its own content")
	}
	if hashString("abc") != hashString("abc") {
		t.Error("hashString must be deterministic")
	}
}

func TestHeapReset(t *testing.T) {
	h := NewHeap()
	h.InternString("x")
	h.NewFunction()
	if h.Count() != 2 {
		t.Fatalf("expected 2 objects before Reset, got %d", h.Count())
	}
	h.Reset()
	if h.Count() != 0 {
		t.Errorf("expected 0 objects after Reset, got %d", h.Count())
	}
	// Reset must not leave stale interning entries around.
	again := h.InternString("x")
	if again == nil {
		t.Fatal("InternString should work normally after Reset")
	}
}

func TestFunctionStringFormatting(t *testing.T) {
	h := NewHeap()
	script := h.NewFunction()
	if got := script.String(); got != "<script>" {
		t.Errorf("unnamed function String() = %q, want %q", got, "<script>")
	}
	named := h.NewFunction()
	named.Name = "add"
	if got := named.String(); got != "<fn add>" {
		t.Errorf("named function String() = %q, want %q", got, "<fn add>")
	}
}

func TestNativeFunction(t *testing.T) {
	h := NewHeap()
	n := h.NewNative("clock", 0, func(args []value.Value) (value.Value, error) {
		return value.Number(42), nil
	})
	result, err := n.Fn(nil)
	if err != nil {
		t.Fatalf("native call returned error: %v", err)
	}
	if !result.IsNumber() || result.AsNumber() != 42 {
		t.Errorf("native call result = %v, want 42", result)
	}
}

func TestUpvalueOpenCloseLifecycle(t *testing.T) {
	h := NewHeap()
	slot := value.Number(7)
	up := h.NewUpvalue(&slot, 3)
	if !up.IsOpen() {
		t.Fatal("freshly created upvalue should be open")
	}
	if got := up.Get(); got.AsNumber() != 7 {
		t.Errorf("Get() = %v, want 7", got)
	}

	slot = value.Number(8)
	if got := up.Get(); got.AsNumber() != 8 {
		t.Error("an open upvalue should observe writes to the stack slot it points at")
	}

	up.Close()
	if up.IsOpen() {
		t.Error("upvalue should report closed after Close")
	}
	if got := up.Get(); got.AsNumber() != 8 {
		t.Errorf("closed upvalue should retain the value at close time, got %v", got)
	}

	slot = value.Number(99)
	if got := up.Get(); got.AsNumber() != 8 {
		t.Error("a closed upvalue must not observe further writes to the old stack slot")
	}

	up.Set(value.Number(100))
	if got := up.Get(); got.AsNumber() != 100 {
		t.Errorf("Set after Close should update the upvalue's own storage, got %v", got)
	}
}

func TestClosureWrapsFunction(t *testing.T) {
	h := NewHeap()
	fn := h.NewFunction()
	fn.UpvalueCount = 2
	cl := h.NewClosure(fn)
	if cl.Function != fn {
		t.Error("closure should reference the function it wraps")
	}
	if len(cl.Upvalues) != 2 {
		t.Errorf("closure should allocate one upvalue slot per UpvalueCount, got %d", len(cl.Upvalues))
	}
}
