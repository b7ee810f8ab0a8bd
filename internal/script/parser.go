// Package script parses the query script language the model is asked to
// write. The language is a small expression language with Python-flavoured
// syntax: assignments, calls, literals, indexing and arithmetic. It has no
// loops, imports or definitions, so every program terminates and can only
// reach what the interpreter puts in its namespace.
package script

import (
	"fmt"
	"strconv"
)

type parser struct {
	toks []Token
	pos  int
}

// Parse parses the whole program; nothing is executed.
func Parse(src string) (*Program, error) {
	toks, err := Tokenize(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	return p.program()
}

func (p *parser) cur() Token { return p.toks[p.pos] }

func (p *parser) peekTok(n int) Token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() Token {
	t := p.toks[p.pos]
	if t.Kind != EOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(text string) bool {
	t := p.cur()
	return t.Kind == Op && t.Text == text
}

func (p *parser) isKeyword(word string) bool {
	t := p.cur()
	return t.Kind == Ident && t.Text == word
}

func (p *parser) expectOp(text string) (Token, error) {
	t := p.cur()
	if t.Kind != Op || t.Text != text {
		return t, p.errorf(t, "expected '%s', found %s", text, describe(t))
	}
	return p.next(), nil
}

func (p *parser) errorf(t Token, format string, args ...any) error {
	return &SyntaxError{Pos: t.Pos, Msg: fmt.Sprintf(format, args...)}
}

func describe(t Token) string {
	switch t.Kind {
	case EOF, Newline:
		return t.Kind.String()
	default:
		return fmt.Sprintf("%s %q", t.Kind, t.Text)
	}
}

func (p *parser) program() (*Program, error) {
	prog := &Program{}
	for {
		for p.cur().Kind == Newline {
			p.next()
		}
		if p.cur().Kind == EOF {
			return prog, nil
		}
		stmt, err := p.statement()
		if err != nil {
			return nil, err
		}
		prog.Stmts = append(prog.Stmts, stmt)

		switch t := p.cur(); t.Kind {
		case Newline, EOF:
		default:
			return nil, p.errorf(t, "unexpected %s after statement", describe(t))
		}
	}
}

func (p *parser) statement() (Stmt, error) {
	t := p.cur()
	if t.Kind == Ident && !isReserved(t.Text) {
		if nt := p.peekTok(1); nt.Kind == Op && nt.Text == "=" {
			p.next()
			p.next()
			value, err := p.expression()
			if err != nil {
				return nil, err
			}
			return &AssignStmt{Pos: t.Pos, Name: t.Text, Value: value}, nil
		}
	}
	x, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.isOp("=") {
		return nil, p.errorf(p.cur(), "can only assign to a plain name")
	}
	return &ExprStmt{Pos: t.Pos, X: x}, nil
}

func isReserved(word string) bool {
	switch word {
	case "True", "False", "None", "and", "or", "not", "in":
		return true
	}
	return false
}

func (p *parser) expression() (Expr, error) { return p.or() }

func (p *parser) or() (Expr, error) {
	x, err := p.and()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("or") {
		t := p.next()
		y, err := p.and()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: t.Pos, Op: "or", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) and() (Expr, error) {
	x, err := p.not()
	if err != nil {
		return nil, err
	}
	for p.isKeyword("and") {
		t := p.next()
		y, err := p.not()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: t.Pos, Op: "and", X: x, Y: y}
	}
	return x, nil
}

func (p *parser) not() (Expr, error) {
	if p.isKeyword("not") {
		t := p.next()
		x, err := p.not()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: t.Pos, Op: "not", X: x}, nil
	}
	return p.comparison()
}

var comparisonOps = map[string]bool{"==": true, "!=": true, "<": true, "<=": true, ">": true, ">=": true}

func (p *parser) comparison() (Expr, error) {
	x, err := p.additive()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		var op string
		switch {
		case t.Kind == Op && comparisonOps[t.Text]:
			op = t.Text
			p.next()
		case p.isKeyword("in"):
			op = "in"
			p.next()
		case p.isKeyword("not") && p.peekTok(1).Kind == Ident && p.peekTok(1).Text == "in":
			op = "not in"
			p.next()
			p.next()
		default:
			return x, nil
		}
		y, err := p.additive()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: t.Pos, Op: op, X: x, Y: y}
	}
}

func (p *parser) additive() (Expr, error) {
	x, err := p.multiplicative()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") || p.isOp("-") {
		t := p.next()
		y, err := p.multiplicative()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: t.Pos, Op: t.Text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) multiplicative() (Expr, error) {
	x, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") || p.isOp("/") || p.isOp("%") {
		t := p.next()
		y, err := p.unary()
		if err != nil {
			return nil, err
		}
		x = &BinaryExpr{Pos: t.Pos, Op: t.Text, X: x, Y: y}
	}
	return x, nil
}

func (p *parser) unary() (Expr, error) {
	if p.isOp("-") || p.isOp("+") {
		t := p.next()
		x, err := p.unary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpr{Pos: t.Pos, Op: t.Text, X: x}, nil
	}
	return p.postfix()
}

func (p *parser) postfix() (Expr, error) {
	x, err := p.primary()
	if err != nil {
		return nil, err
	}
	for {
		t := p.cur()
		switch {
		case p.isOp("("):
			call, err := p.callArgs(x)
			if err != nil {
				return nil, err
			}
			x = call
		case p.isOp("["):
			p.next()
			idx, err := p.expression()
			if err != nil {
				return nil, err
			}
			if _, err := p.expectOp("]"); err != nil {
				return nil, err
			}
			x = &IndexExpr{Pos: t.Pos, X: x, Index: idx}
		case p.isOp("."):
			p.next()
			name := p.cur()
			if name.Kind != Ident {
				return nil, p.errorf(name, "expected attribute name, found %s", describe(name))
			}
			p.next()
			x = &AttrExpr{Pos: name.Pos, X: x, Name: name.Text}
		default:
			return x, nil
		}
	}
}

func (p *parser) callArgs(fn Expr) (Expr, error) {
	open, _ := p.expectOp("(")
	call := &CallExpr{Pos: open.Pos, Func: fn}
	for !p.isOp(")") {
		t := p.cur()
		if t.Kind == Ident && !isReserved(t.Text) && p.peekTok(1).Kind == Op && p.peekTok(1).Text == "=" {
			p.next()
			p.next()
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			for _, kw := range call.Kwargs {
				if kw.Name == t.Text {
					return nil, p.errorf(t, "keyword argument %q repeated", t.Text)
				}
			}
			call.Kwargs = append(call.Kwargs, Keyword{Name: t.Text, Value: v})
		} else {
			if len(call.Kwargs) > 0 {
				return nil, p.errorf(t, "positional argument follows keyword argument")
			}
			v, err := p.expression()
			if err != nil {
				return nil, err
			}
			call.Args = append(call.Args, v)
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if _, err := p.expectOp(")"); err != nil {
		return nil, err
	}
	return call, nil
}

func (p *parser) primary() (Expr, error) {
	t := p.cur()
	switch t.Kind {
	case Int:
		p.next()
		n, err := strconv.ParseInt(t.Text, 10, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid integer %q", t.Text)
		}
		return &Literal{Pos: t.Pos, Value: n}, nil
	case Float:
		p.next()
		f, err := strconv.ParseFloat(t.Text, 64)
		if err != nil {
			return nil, p.errorf(t, "invalid number %q", t.Text)
		}
		return &Literal{Pos: t.Pos, Value: f}, nil
	case String:
		p.next()
		s := t.Text
		// adjacent literals concatenate
		for p.cur().Kind == String {
			s += p.next().Text
		}
		return &Literal{Pos: t.Pos, Value: s}, nil
	case Ident:
		switch t.Text {
		case "True":
			p.next()
			return &Literal{Pos: t.Pos, Value: true}, nil
		case "False":
			p.next()
			return &Literal{Pos: t.Pos, Value: false}, nil
		case "None":
			p.next()
			return &Literal{Pos: t.Pos, Value: nil}, nil
		}
		if isReserved(t.Text) {
			return nil, p.errorf(t, "unexpected %q", t.Text)
		}
		p.next()
		return &Name{Pos: t.Pos, Ident: t.Text}, nil
	case Op:
		switch t.Text {
		case "(":
			return p.parenthesized()
		case "[":
			p.next()
			elems, err := p.exprList("]")
			if err != nil {
				return nil, err
			}
			return &ListExpr{Pos: t.Pos, Elems: elems}, nil
		case "{":
			return p.dict()
		}
	}
	return nil, p.errorf(t, "unexpected %s", describe(t))
}

// parenthesized handles grouping, the empty tuple and tuples.
func (p *parser) parenthesized() (Expr, error) {
	open := p.next()
	if p.isOp(")") {
		p.next()
		return &TupleExpr{Pos: open.Pos}, nil
	}
	first, err := p.expression()
	if err != nil {
		return nil, err
	}
	if p.isOp(")") {
		p.next()
		return first, nil
	}
	if _, err := p.expectOp(","); err != nil {
		return nil, err
	}
	rest, err := p.exprList(")")
	if err != nil {
		return nil, err
	}
	return &TupleExpr{Pos: open.Pos, Elems: append([]Expr{first}, rest...)}, nil
}

// exprList parses comma-separated expressions up to and including close;
// a trailing comma is allowed.
func (p *parser) exprList(close string) ([]Expr, error) {
	var elems []Expr
	for !p.isOp(close) {
		e, err := p.expression()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if _, err := p.expectOp(close); err != nil {
		return nil, err
	}
	return elems, nil
}

func (p *parser) dict() (Expr, error) {
	open := p.next()
	d := &DictExpr{Pos: open.Pos}
	for !p.isOp("}") {
		k, err := p.expression()
		if err != nil {
			return nil, err
		}
		if _, err := p.expectOp(":"); err != nil {
			return nil, err
		}
		v, err := p.expression()
		if err != nil {
			return nil, err
		}
		d.Keys = append(d.Keys, k)
		d.Values = append(d.Values, v)
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	if _, err := p.expectOp("}"); err != nil {
		return nil, err
	}
	return d, nil
}
