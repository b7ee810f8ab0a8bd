// Package engine runs query scripts against the Odoo gateway.
//
// A script sees a fixed namespace: the gateway as "odoo", a handful of
// date and tabular helpers, and print. print writes to a buffer owned by
// the execution, so concurrent executions never share an output stream.
// Every fault a script can cause, from a syntax error to a remote read
// failure, is returned inside the Outcome; Execute does not return errors.
package engine

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Vovarama1992/odoo-query-bridge/internal/odoo"
	"github.com/Vovarama1992/odoo-query-bridge/internal/script"
)

// ResultVar is the binding read back as structured output.
const ResultVar = "result_data"

// GatewayName is the binding under which the gateway is exposed.
const GatewayName = "odoo"

// Gateway is the read surface a script can reach.
type Gateway interface {
	SearchRead(ctx context.Context, model string, domain odoo.Domain, fields []string, limit int) ([]odoo.Record, error)
}

// Outcome is the result envelope of one execution. Error is empty on
// normal completion; Text holds everything printed before any fault.
type Outcome struct {
	Text  string `json:"text_output"`
	Data  any    `json:"data"`
	Error string `json:"error,omitempty"`
}

type Engine struct {
	now func() time.Time
}

type Option func(*Engine)

// WithClock fixes the time seen by the date helpers.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func New(opts ...Option) *Engine {
	e := &Engine{now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute parses program in full, then runs it statement by statement.
// A program that does not parse runs nothing.
func (e *Engine) Execute(ctx context.Context, program string, gw Gateway) (out Outcome) {
	in := &interp{
		ctx:  ctx,
		now:  e.now(),
		vars: map[string]any{},
	}
	in.globals = newNamespace(gw)

	defer func() {
		if r := recover(); r != nil {
			log.Printf("[engine] recovered panic: %v", r)
			out = Outcome{Text: in.out.String(), Error: fmt.Sprintf("internal error: %v", r)}
		}
	}()

	prog, err := script.Parse(program)
	if err != nil {
		return Outcome{Error: err.Error()}
	}

	start := time.Now()
	if err := in.run(prog); err != nil {
		log.Printf("[engine] script failed after %s: %v", time.Since(start), err)
		return Outcome{Text: in.out.String(), Error: err.Error()}
	}

	out = Outcome{Text: in.out.String()}
	if v, ok := in.vars[ResultVar]; ok {
		out.Data = normalize(v)
	}
	return out
}

type interp struct {
	ctx     context.Context
	now     time.Time
	globals map[string]any
	vars    map[string]any
	out     strings.Builder
}

// runtimeError is a script fault tied to a source line.
type runtimeError struct {
	pos script.Pos
	msg string
}

func (e *runtimeError) Error() string {
	return fmt.Sprintf("line %d: %s", e.pos.Line, e.msg)
}

func errAt(n script.Node, format string, args ...any) error {
	return &runtimeError{pos: n.Position(), msg: fmt.Sprintf(format, args...)}
}

// at attaches a position to errors raised by helpers.
func at(n script.Node, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*runtimeError); ok {
		return err
	}
	return &runtimeError{pos: n.Position(), msg: err.Error()}
}

func (in *interp) run(prog *script.Program) error {
	for _, stmt := range prog.Stmts {
		if err := in.ctx.Err(); err != nil {
			return at(stmt, fmt.Errorf("execution cancelled: %w", err))
		}
		switch s := stmt.(type) {
		case *script.AssignStmt:
			if _, ok := in.globals[s.Name]; ok {
				return errAt(s, "cannot assign to built-in name '%s'", s.Name)
			}
			v, err := in.eval(s.Value)
			if err != nil {
				return err
			}
			in.vars[s.Name] = v
		case *script.ExprStmt:
			if _, err := in.eval(s.X); err != nil {
				return err
			}
		default:
			return errAt(stmt, "unsupported statement")
		}
	}
	return nil
}

func (in *interp) lookup(n *script.Name) (any, error) {
	if v, ok := in.vars[n.Ident]; ok {
		return v, nil
	}
	if v, ok := in.globals[n.Ident]; ok {
		return v, nil
	}
	return nil, errAt(n, "name '%s' is not defined", n.Ident)
}

func (in *interp) eval(x script.Expr) (any, error) {
	switch e := x.(type) {
	case *script.Literal:
		return e.Value, nil
	case *script.Name:
		return in.lookup(e)
	case *script.ListExpr:
		return in.evalList(e.Elems)
	case *script.TupleExpr:
		return in.evalList(e.Elems)
	case *script.DictExpr:
		m := make(map[string]any, len(e.Keys))
		for i := range e.Keys {
			k, err := in.eval(e.Keys[i])
			if err != nil {
				return nil, err
			}
			v, err := in.eval(e.Values[i])
			if err != nil {
				return nil, err
			}
			m[keyString(k)] = v
		}
		return m, nil
	case *script.AttrExpr:
		recv, err := in.eval(e.X)
		if err != nil {
			return nil, err
		}
		v, err := attribute(recv, e.Name)
		return v, at(e, err)
	case *script.IndexExpr:
		recv, err := in.eval(e.X)
		if err != nil {
			return nil, err
		}
		idx, err := in.eval(e.Index)
		if err != nil {
			return nil, err
		}
		v, err := index(recv, idx)
		return v, at(e, err)
	case *script.CallExpr:
		return in.call(e)
	case *script.UnaryExpr:
		v, err := in.eval(e.X)
		if err != nil {
			return nil, err
		}
		r, err := unary(e.Op, v)
		return r, at(e, err)
	case *script.BinaryExpr:
		return in.binary(e)
	default:
		return nil, errAt(x, "unsupported expression")
	}
}

func (in *interp) evalList(elems []script.Expr) ([]any, error) {
	out := make([]any, 0, len(elems))
	for _, el := range elems {
		v, err := in.eval(el)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (in *interp) binary(e *script.BinaryExpr) (any, error) {
	x, err := in.eval(e.X)
	if err != nil {
		return nil, err
	}
	switch e.Op {
	case "and":
		if !truthy(x) {
			return x, nil
		}
		return in.eval(e.Y)
	case "or":
		if truthy(x) {
			return x, nil
		}
		return in.eval(e.Y)
	}
	y, err := in.eval(e.Y)
	if err != nil {
		return nil, err
	}
	r, err := binaryOp(e.Op, x, y)
	return r, at(e, err)
}

func (in *interp) call(e *script.CallExpr) (any, error) {
	fn, err := in.eval(e.Func)
	if err != nil {
		return nil, err
	}
	args, err := in.evalList(e.Args)
	if err != nil {
		return nil, err
	}
	kwargs := make(map[string]any, len(e.Kwargs))
	for _, kw := range e.Kwargs {
		v, err := in.eval(kw.Value)
		if err != nil {
			return nil, err
		}
		kwargs[kw.Name] = v
	}

	c, ok := fn.(callable)
	if !ok {
		return nil, errAt(e, "'%s' object is not callable", typeName(fn))
	}
	v, err := c.call(in, args, kwargs)
	return v, at(e, err)
}
