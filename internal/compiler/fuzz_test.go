package compiler

import (
	"testing"

	"github.com/chazu/loxvm/internal/object"
)

// FuzzCompile ensures Compile never panics on arbitrary input. Compile
// errors are expected and fine; only a panic or an infinite loop is a
// bug.
func FuzzCompile(f *testing.F) {
	seeds := []string{
		`1 + 2;`,
		`var x = 10; print x;`,
		`{ var x = 1; x = 2; print x; }`,
		`fun outer() { var x = 1; fun inner() { return x; } return inner; }`,
		`if (true) { print 1; } else { print 2; }`,
		`while (true) { print 1; }`,
		`for (var i = 0; i < 5; i = i + 1) { if (i == 2) continue; print i; }`,
		`var a = "hi"; var b = "hi"; print a == b;`,
		`class Foo {}`,
		`class Foo { bar() { return 1; } }`,
		`this;`, `super.foo();`,
		`continue;`,
		`return 1;`,
		`{ var x = x; }`,
		`{ var x = 1; var x = 2; }`,
		`var x = 1`,
		`var x = "unterminated;`,
		`1 +`, `(`, `)`, `{`, `}`, `;;;;`,
		``,
		`var`, `var;`, `fun`, `fun f(`,
		`1_000_000`,
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("Compile panicked on input %q: %v", data, r)
			}
		}()

		heap := object.NewHeap()
		_, _ = Compile(data, heap)
	})
}
