package scanner

import (
	"testing"

	"github.com/chazu/loxvm/internal/token"
)

func scanAll(src string) []token.Token {
	s := New(src)
	var toks []token.Token
	for {
		tok := s.Next()
		toks = append(toks, tok)
		if tok.Type == token.EOF {
			return toks
		}
	}
}

func TestPunctuationAndOperators(t *testing.T) {
	toks := scanAll("(){},.-+;/*?:! != = == < <= > >=")
	want := []token.Type{
		token.LeftParen, token.RightParen, token.LeftBrace, token.RightBrace,
		token.Comma, token.Dot, token.Minus, token.Plus, token.Semicolon,
		token.Slash, token.Star, token.Question, token.Colon,
		token.Bang, token.BangEqual, token.Equal, token.EqualEqual,
		token.Less, token.LessEqual, token.Greater, token.GreaterEqual,
		token.EOF,
	}
	if len(toks) != len(want) {
		t.Fatalf("got %d tokens, want %d", len(toks), len(want))
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestKeywordsVsIdentifiers(t *testing.T) {
	toks := scanAll("var class continuee continue andy and")
	want := []token.Type{
		token.Var, token.Class, token.Identifier, token.Continue,
		token.Identifier, token.And, token.EOF,
	}
	for i, w := range want {
		if toks[i].Type != w {
			t.Errorf("token %d: got %v, want %v", i, toks[i].Type, w)
		}
	}
}

func TestNumbers(t *testing.T) {
	toks := scanAll("123 1_000 3.14 1_234.5_6")
	for i := 0; i < 4; i++ {
		if toks[i].Type != token.Number {
			t.Errorf("token %d: got %v, want Number", i, toks[i].Type)
		}
	}
	if toks[1].Lexeme != "1_000" {
		t.Errorf("expected underscore to survive lexing, got %q", toks[1].Lexeme)
	}
}

func TestStringLiteral(t *testing.T) {
	toks := scanAll(`"hello world"`)
	if toks[0].Type != token.String {
		t.Fatalf("got %v, want String", toks[0].Type)
	}
	if toks[0].Lexeme != `"hello world"` {
		t.Errorf("Lexeme = %q, want quotes preserved", toks[0].Lexeme)
	}
}

func TestUnterminatedStringProducesErrorToken(t *testing.T) {
	toks := scanAll(`"never closes`)
	if toks[0].Type != token.Error {
		t.Fatalf("got %v, want Error", toks[0].Type)
	}
}

func TestMultilineStringTracksLines(t *testing.T) {
	s := New("\"a\nb\"\nidentifier")
	str := s.Next()
	if str.Type != token.String {
		t.Fatalf("got %v, want String", str.Type)
	}
	ident := s.Next()
	if ident.Line != 3 {
		t.Errorf("identifier after a two-line string literal should be on line 3, got %d", ident.Line)
	}
}

func TestCommentsAreSkipped(t *testing.T) {
	toks := scanAll("1 // this is a comment\n2")
	if toks[0].Type != token.Number || toks[0].Lexeme != "1" {
		t.Fatalf("first token = %+v", toks[0])
	}
	if toks[1].Type != token.Number || toks[1].Lexeme != "2" {
		t.Fatalf("second token = %+v", toks[1])
	}
}

func TestUnexpectedCharacterProducesErrorToken(t *testing.T) {
	toks := scanAll("@")
	if toks[0].Type != token.Error {
		t.Fatalf("got %v, want Error", toks[0].Type)
	}
}

func TestEmptySourceIsImmediatelyEOF(t *testing.T) {
	toks := scanAll("")
	if len(toks) != 1 || toks[0].Type != token.EOF {
		t.Fatalf("scanning an empty source should produce exactly one EOF token, got %+v", toks)
	}
}
