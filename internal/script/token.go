package script

import "fmt"

type TokenKind int

const (
	EOF TokenKind = iota
	Newline
	Ident
	Int
	Float
	String
	Op
)

func (k TokenKind) String() string {
	switch k {
	case EOF:
		return "end of input"
	case Newline:
		return "newline"
	case Ident:
		return "identifier"
	case Int:
		return "integer"
	case Float:
		return "float"
	case String:
		return "string"
	case Op:
		return "operator"
	default:
		return fmt.Sprintf("token(%d)", int(k))
	}
}

// Pos is a 1-based source position.
type Pos struct {
	Line int
	Col  int
}

func (p Pos) String() string { return fmt.Sprintf("line %d, column %d", p.Line, p.Col) }

type Token struct {
	Kind TokenKind
	Text string // raw text; unescaped value for String
	Pos  Pos
}

// SyntaxError is returned by Parse for malformed programs.
type SyntaxError struct {
	Pos Pos
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %s: %s", e.Pos, e.Msg)
}
