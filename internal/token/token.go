// Package token defines the lexical token kinds produced by the
// scanner and consumed by the compiler's parse rule table.
package token

// Type identifies a token's lexical category.
type Type int

const (
	// Single-character punctuation.
	LeftParen Type = iota
	RightParen
	LeftBrace
	RightBrace
	Comma
	Dot
	Minus
	Plus
	Semicolon
	Slash
	Star
	Question
	Colon

	// One- or two-char operators.
	Bang
	BangEqual
	Equal
	EqualEqual
	Greater
	GreaterEqual
	Less
	LessEqual

	// Literals.
	Identifier
	String
	Number

	// Keywords.
	And
	Class
	Continue
	Else
	False
	For
	Fun
	If
	Nil
	Or
	Print
	Return
	Super
	This
	True
	Var
	While

	Error
	EOF
)

var names = map[Type]string{
	LeftParen: "LEFT_PAREN", RightParen: "RIGHT_PAREN",
	LeftBrace: "LEFT_BRACE", RightBrace: "RIGHT_BRACE",
	Comma: "COMMA", Dot: "DOT", Minus: "MINUS", Plus: "PLUS",
	Semicolon: "SEMICOLON", Slash: "SLASH", Star: "STAR",
	Question: "QUESTION", Colon: "COLON",
	Bang: "BANG", BangEqual: "BANG_EQUAL",
	Equal: "EQUAL", EqualEqual: "EQUAL_EQUAL",
	Greater: "GREATER", GreaterEqual: "GREATER_EQUAL",
	Less: "LESS", LessEqual: "LESS_EQUAL",
	Identifier: "IDENTIFIER", String: "STRING", Number: "NUMBER",
	And: "AND", Class: "CLASS", Continue: "CONTINUE", Else: "ELSE",
	False: "FALSE", For: "FOR", Fun: "FUN", If: "IF", Nil: "NIL",
	Or: "OR", Print: "PRINT", Return: "RETURN", Super: "SUPER",
	This: "THIS", True: "TRUE", Var: "VAR", While: "WHILE",
	Error: "ERROR", EOF: "EOF",
}

func (t Type) String() string {
	if n, ok := names[t]; ok {
		return n
	}
	return "UNKNOWN"
}

// Keywords maps reserved-word lexemes to their token type.
var Keywords = map[string]Type{
	"and": And, "class": Class, "continue": Continue, "else": Else,
	"false": False, "for": For, "fun": Fun, "if": If, "nil": Nil,
	"or": Or, "print": Print, "return": Return, "super": Super,
	"this": This, "true": True, "var": Var, "while": While,
}

// Token is one lexeme with its position and, for Error tokens, a
// static diagnostic message carried in Lexeme instead of source text.
type Token struct {
	Type   Type
	Lexeme string
	Line   int
}
