package script

import (
	"strings"
	"unicode"
)

var twoCharOps = []string{"==", "!=", "<=", ">="}

const singleCharOps = "=<>+-*/%()[]{},:."

type lexer struct {
	src   []rune
	off   int
	line  int
	col   int
	depth int
	toks  []Token
}

// Tokenize splits src into tokens. Line breaks inside brackets are
// insignificant; elsewhere they, and ';', end a statement.
func Tokenize(src string) ([]Token, error) {
	l := &lexer{src: []rune(src), line: 1, col: 1}
	for {
		tok, err := l.next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == Newline && (len(l.toks) == 0 || l.toks[len(l.toks)-1].Kind == Newline) {
			continue
		}
		l.toks = append(l.toks, tok)
		if tok.Kind == EOF {
			return l.toks, nil
		}
	}
}

func (l *lexer) peek(n int) rune {
	if l.off+n >= len(l.src) {
		return 0
	}
	return l.src[l.off+n]
}

func (l *lexer) advance() rune {
	r := l.src[l.off]
	l.off++
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r
}

func (l *lexer) next() (Token, error) {
	for l.off < len(l.src) {
		r := l.peek(0)
		switch {
		case r == '\n' || r == ';':
			pos := Pos{l.line, l.col}
			l.advance()
			if l.depth > 0 {
				if r == ';' {
					return Token{}, &SyntaxError{Pos: pos, Msg: "';' inside brackets"}
				}
				continue
			}
			return Token{Kind: Newline, Text: "\n", Pos: pos}, nil
		case r == '#':
			for l.off < len(l.src) && l.peek(0) != '\n' {
				l.advance()
			}
		case r == '\\' && l.peek(1) == '\n':
			l.advance()
			l.advance()
		case unicode.IsSpace(r):
			l.advance()
		default:
			return l.token()
		}
	}
	return Token{Kind: EOF, Pos: Pos{l.line, l.col}}, nil
}

func (l *lexer) token() (Token, error) {
	pos := Pos{l.line, l.col}
	r := l.peek(0)

	switch {
	case r == '_' || unicode.IsLetter(r):
		var sb strings.Builder
		for l.off < len(l.src) && (l.peek(0) == '_' || unicode.IsLetter(l.peek(0)) || unicode.IsDigit(l.peek(0))) {
			sb.WriteRune(l.advance())
		}
		return Token{Kind: Ident, Text: sb.String(), Pos: pos}, nil

	case unicode.IsDigit(r) || (r == '.' && unicode.IsDigit(l.peek(1))):
		return l.number(pos)

	case r == '"' || r == '\'':
		return l.str(pos)
	}

	for _, op := range twoCharOps {
		if r == rune(op[0]) && l.peek(1) == rune(op[1]) {
			l.advance()
			l.advance()
			return Token{Kind: Op, Text: op, Pos: pos}, nil
		}
	}
	if strings.ContainsRune(singleCharOps, r) {
		l.advance()
		switch r {
		case '(', '[', '{':
			l.depth++
		case ')', ']', '}':
			if l.depth == 0 {
				return Token{}, &SyntaxError{Pos: pos, Msg: "unmatched '" + string(r) + "'"}
			}
			l.depth--
		}
		return Token{Kind: Op, Text: string(r), Pos: pos}, nil
	}
	return Token{}, &SyntaxError{Pos: pos, Msg: "unexpected character '" + string(r) + "'"}
}

func (l *lexer) number(pos Pos) (Token, error) {
	var sb strings.Builder
	kind := Int
	for l.off < len(l.src) {
		r := l.peek(0)
		switch {
		case unicode.IsDigit(r) || r == '_':
			if r != '_' {
				sb.WriteRune(r)
			}
			l.advance()
		case r == '.' && kind == Int && unicode.IsDigit(l.peek(1)):
			kind = Float
			sb.WriteRune(l.advance())
		case (r == 'e' || r == 'E') && (unicode.IsDigit(l.peek(1)) || ((l.peek(1) == '-' || l.peek(1) == '+') && unicode.IsDigit(l.peek(2)))):
			kind = Float
			sb.WriteRune(l.advance())
			if l.peek(0) == '-' || l.peek(0) == '+' {
				sb.WriteRune(l.advance())
			}
		default:
			return Token{Kind: kind, Text: sb.String(), Pos: pos}, nil
		}
	}
	return Token{Kind: kind, Text: sb.String(), Pos: pos}, nil
}

func (l *lexer) str(pos Pos) (Token, error) {
	quote := l.advance()
	var sb strings.Builder
	for {
		if l.off >= len(l.src) || l.peek(0) == '\n' {
			return Token{}, &SyntaxError{Pos: pos, Msg: "unterminated string"}
		}
		r := l.advance()
		if r == quote {
			return Token{Kind: String, Text: sb.String(), Pos: pos}, nil
		}
		if r != '\\' {
			sb.WriteRune(r)
			continue
		}
		if l.off >= len(l.src) {
			return Token{}, &SyntaxError{Pos: pos, Msg: "unterminated string"}
		}
		esc := l.advance()
		switch esc {
		case 'n':
			sb.WriteRune('\n')
		case 't':
			sb.WriteRune('\t')
		case '\\', '\'', '"':
			sb.WriteRune(esc)
		default:
			sb.WriteRune('\\')
			sb.WriteRune(esc)
		}
	}
}
