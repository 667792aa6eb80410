package scanner

import (
	"testing"

	"github.com/chazu/loxvm/internal/token"
)

// FuzzScan ensures the scanner never panics on arbitrary input and
// always reaches EOF in a bounded number of tokens.
func FuzzScan(f *testing.F) {
	seeds := []string{
		"(){},.-+;/*?:!",
		"!= = == < <= > >=",
		`"hello"`, `"hello world"`, `""`, `"unterminated`,
		"42", "0", "3.14", "1_000_000", ".5", "5.",
		"foo", "FooBar", "_private", "foo123",
		"and class else false for fun if nil or print return super this true var while continue",
		"// a comment\nvar x = 1;",
		"var a = \"hi\"; var b = \"hi\"; print a == b;",
		"fun f(a, b) { return a + b; }",
		"こんにちは", "café",
		"",
		"   \t\n\r",
		`'`, "`",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, data string) {
		defer func() {
			if r := recover(); r != nil {
				t.Fatalf("scanner panicked on input %q: %v", data, r)
			}
		}()

		s := New(data)
		for i := 0; i < len(data)+100; i++ {
			tok := s.Next()
			if tok.Type == token.EOF {
				return
			}
		}
		t.Fatalf("scanner never reached EOF on input %q", data)
	})
}
