// Package ast defines the transient abstract syntax tree produced by the
// parser and consumed by the compiler. Nothing in this package is ever
// persisted; a Program is the durable artifact (see lang/compiler).
package ast

import "github.com/mna/glint/lang/token"

// Node is implemented by every AST node.
type Node interface {
	// Pos returns the source position most representative of this node, used
	// to populate compile error locations and the compiler's source map.
	Pos() token.Pos
}

// Chunk is the root of a parsed source file: a sequence of top-level function
// declarations. Other top-level forms are recognized by the parser but
// produce no AST node (see parser.StrictMode for the alternative).
type Chunk struct {
	Funcs []*FuncDecl
}

// FuncDecl is a top-level `func NAME(PARAMS) { BODY }` declaration.
type FuncDecl struct {
	NamePos token.Pos
	Name    string
	Params  []string
	Body    []Stmt
}

func (f *FuncDecl) Pos() token.Pos { return f.NamePos }

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// LetStmt is a `let IDENT = EXPR` declaration.
type LetStmt struct {
	StmtPos token.Pos
	Name    string
	Expr    Expr
}

func (s *LetStmt) Pos() token.Pos { return s.StmtPos }
func (*LetStmt) stmtNode()        {}

// ExprStmt is an expression used as a statement; its value is discarded.
type ExprStmt struct {
	StmtPos token.Pos
	Expr    Expr
}

func (s *ExprStmt) Pos() token.Pos { return s.StmtPos }
func (*ExprStmt) stmtNode()        {}

// ReturnStmt is a `return [EXPR]` statement. Expr is nil when no expression
// was provided.
type ReturnStmt struct {
	StmtPos token.Pos
	Expr    Expr
}

func (s *ReturnStmt) Pos() token.Pos { return s.StmtPos }
func (*ReturnStmt) stmtNode()        {}

// IfStmt is a two-armed `if EXPR { THEN } [else { ELSE }]` branch. `else if`
// is represented by a single IfStmt in Else.
type IfStmt struct {
	StmtPos token.Pos
	Cond    Expr
	Then    []Stmt
	Else    []Stmt // may contain a single *IfStmt for `else if`
}

func (s *IfStmt) Pos() token.Pos { return s.StmtPos }
func (*IfStmt) stmtNode()        {}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	exprNode()
}

// StrLit is a string literal.
type StrLit struct {
	LitPos token.Pos
	Value  string
}

func (e *StrLit) Pos() token.Pos { return e.LitPos }
func (*StrLit) exprNode()        {}

// IntLit is an integer literal.
type IntLit struct {
	LitPos token.Pos
	Value  int64
}

func (e *IntLit) Pos() token.Pos { return e.LitPos }
func (*IntLit) exprNode()        {}

// BoolLit is a boolean literal.
type BoolLit struct {
	LitPos token.Pos
	Value  bool
}

func (e *BoolLit) Pos() token.Pos { return e.LitPos }
func (*BoolLit) exprNode()        {}

// Ident is a reference to a local binding or parameter.
type Ident struct {
	NamePos token.Pos
	Name    string
}

func (e *Ident) Pos() token.Pos { return e.NamePos }
func (*Ident) exprNode()        {}

// Call is a call by name: `NAME(arg, arg, ...)`. Argument labels, if any
// (`name: expr`), are parsed but discarded.
type Call struct {
	CallPos token.Pos
	Name    string
	Args    []Expr
}

func (e *Call) Pos() token.Pos { return e.CallPos }
func (*Call) exprNode()        {}

// BinOp identifies a supported binary operator.
type BinOp int

const (
	Add BinOp = iota
	Eq
)

func (op BinOp) String() string {
	switch op {
	case Add:
		return "+"
	case Eq:
		return "=="
	}
	return "?"
}

// Binary is a binary infix expression.
type Binary struct {
	OpPos token.Pos
	LHS   Expr
	Op    BinOp
	RHS   Expr
}

func (e *Binary) Pos() token.Pos { return e.OpPos }
func (*Binary) exprNode()        {}
