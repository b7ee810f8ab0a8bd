package script

// Program is a parsed query script.
type Program struct {
	Stmts []Stmt
}

type Node interface {
	Position() Pos
}

type Stmt interface {
	Node
	stmt()
}

type Expr interface {
	Node
	expr()
}

// AssignStmt binds Name to the value of Value.
type AssignStmt struct {
	Pos   Pos
	Name  string
	Value Expr
}

// ExprStmt evaluates X for its effect, e.g. print(...).
type ExprStmt struct {
	Pos Pos
	X   Expr
}

// Literal holds int64, float64, string, bool or nil.
type Literal struct {
	Pos   Pos
	Value any
}

type Name struct {
	Pos   Pos
	Ident string
}

type ListExpr struct {
	Pos   Pos
	Elems []Expr
}

type TupleExpr struct {
	Pos   Pos
	Elems []Expr
}

type DictExpr struct {
	Pos    Pos
	Keys   []Expr
	Values []Expr
}

type Keyword struct {
	Name  string
	Value Expr
}

type CallExpr struct {
	Pos    Pos
	Func   Expr
	Args   []Expr
	Kwargs []Keyword
}

type AttrExpr struct {
	Pos  Pos
	X    Expr
	Name string
}

type IndexExpr struct {
	Pos   Pos
	X     Expr
	Index Expr
}

type UnaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
}

type BinaryExpr struct {
	Pos Pos
	Op  string
	X   Expr
	Y   Expr
}

func (s *AssignStmt) Position() Pos { return s.Pos }
func (s *ExprStmt) Position() Pos   { return s.Pos }
func (e *Literal) Position() Pos    { return e.Pos }
func (e *Name) Position() Pos       { return e.Pos }
func (e *ListExpr) Position() Pos   { return e.Pos }
func (e *TupleExpr) Position() Pos  { return e.Pos }
func (e *DictExpr) Position() Pos   { return e.Pos }
func (e *CallExpr) Position() Pos   { return e.Pos }
func (e *AttrExpr) Position() Pos   { return e.Pos }
func (e *IndexExpr) Position() Pos  { return e.Pos }
func (e *UnaryExpr) Position() Pos  { return e.Pos }
func (e *BinaryExpr) Position() Pos { return e.Pos }

func (*AssignStmt) stmt() {}
func (*ExprStmt) stmt()   {}

func (*Literal) expr()    {}
func (*Name) expr()       {}
func (*ListExpr) expr()   {}
func (*TupleExpr) expr()  {}
func (*DictExpr) expr()   {}
func (*CallExpr) expr()   {}
func (*AttrExpr) expr()   {}
func (*IndexExpr) expr()  {}
func (*UnaryExpr) expr()  {}
func (*BinaryExpr) expr() {}
