// Package parser implements a recursive-descent parser that turns script
// source text into a lang/ast.Chunk.
package parser

import (
	"fmt"

	"github.com/mna/glint/lang/ast"
	"github.com/mna/glint/lang/langerr"
	"github.com/mna/glint/lang/scanner"
	"github.com/mna/glint/lang/token"
)

// Mode controls optional parsing behavior.
type Mode uint8

// StrictMode turns silently-dropped top-level commentary (any top-level
// token outside a function declaration) into a compile error. It does not
// check identifiers: an unresolved identifier still compiles to a fresh
// local slot whose runtime value is Null.
const StrictMode Mode = 1 << 0

// Parse parses src and returns the resulting Chunk, or the first
// *langerr.CompileError encountered.
func Parse(src []byte, mode Mode) (*ast.Chunk, error) {
	p := &parser{mode: mode}
	p.scanner.Init(src, p.scanErr.Add)
	p.next()
	ch, err := p.parseChunk()
	if err != nil {
		return nil, err
	}
	if len(p.scanErr) > 0 {
		first := p.scanErr[0]
		line, _ := first.Pos.LineCol()
		return nil, &langerr.CompileError{Kind: langerr.UnsupportedConstruct, Message: first.Msg, Line: line}
	}
	return ch, nil
}

type parser struct {
	scanner scanner.Scanner
	scanErr scanner.ErrorList
	mode    Mode

	tok token.Token
	val scanner.Value
}

func (p *parser) next() {
	p.tok = p.scanner.Scan(&p.val)
}

func (p *parser) line() int {
	line, _ := p.val.Pos.LineCol()
	return line
}

func (p *parser) errorf(format string, args ...any) error {
	return &langerr.CompileError{
		Kind:    langerr.UnsupportedConstruct,
		Message: fmt.Sprintf(format, args...),
		Line:    p.line(),
	}
}

func (p *parser) expect(tok token.Token) (scanner.Value, error) {
	if p.tok != tok {
		return scanner.Value{}, p.errorf("expected %s, got %s", tok, p.tok)
	}
	v := p.val
	p.next()
	return v, nil
}

func (p *parser) parseChunk() (*ast.Chunk, error) {
	ch := &ast.Chunk{}
	for p.tok != token.EOF {
		if p.tok == token.FUNC {
			fn, err := p.parseFuncDecl()
			if err != nil {
				return nil, err
			}
			ch.Funcs = append(ch.Funcs, fn)
			continue
		}

		// Top-level forms other than a function declaration. The spec leaves
		// this ambiguous; StrictMode rejects it, the default mode drops it.
		if p.mode&StrictMode != 0 {
			return nil, p.errorf("unsupported top-level construct: %s", p.tok)
		}
		p.next()
	}
	return ch, nil
}

func (p *parser) parseFuncDecl() (*ast.FuncDecl, error) {
	funcPos := p.val.Pos
	p.next() // consume "func"

	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var params []string
	for p.tok != token.RPAREN {
		first, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		pname := first.Raw
		if p.tok == token.IDENT {
			// first was an external label (e.g. "_"), ignored; the real
			// parameter name follows.
			second, err := p.expect(token.IDENT)
			if err != nil {
				return nil, err
			}
			pname = second.Raw
		}
		params = append(params, pname)
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}

	body, err := p.parseBlock()
	if err != nil {
		return nil, err
	}

	return &ast.FuncDecl{NamePos: funcPos, Name: name.Raw, Params: params, Body: body}, nil
}

func (p *parser) parseBlock() ([]Stmt, error) {
	if _, err := p.expect(token.LBRACE); err != nil {
		return nil, err
	}
	var stmts []Stmt
	for p.tok != token.RBRACE {
		if p.tok == token.EOF {
			return nil, p.errorf("unterminated block, expected %s", token.RBRACE)
		}
		s, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		stmts = append(stmts, s)
		for p.tok == token.SEMI {
			p.next()
		}
	}
	p.next() // consume "}"
	return stmts, nil
}

// Stmt is an alias kept local to avoid repeating the ast package name in
// every signature below.
type Stmt = ast.Stmt

func (p *parser) parseStmt() (Stmt, error) {
	switch p.tok {
	case token.LET:
		return p.parseLetStmt()
	case token.RETURN:
		return p.parseReturnStmt()
	case token.IF:
		return p.parseIfStmt()
	default:
		return p.parseExprStmt()
	}
}

func (p *parser) parseLetStmt() (Stmt, error) {
	pos := p.val.Pos
	p.next() // consume "let"

	name, err := p.expect(token.IDENT)
	if err != nil {
		return nil, &langerr.CompileError{Kind: langerr.InvalidLet, Message: err.Error(), Line: p.line()}
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, &langerr.CompileError{Kind: langerr.InvalidLet, Message: "let requires '=' initializer", Line: p.line()}
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.LetStmt{StmtPos: pos, Name: name.Raw, Expr: expr}, nil
}

func (p *parser) parseReturnStmt() (Stmt, error) {
	pos := p.val.Pos
	p.next() // consume "return"

	if p.atStmtEnd() {
		return &ast.ReturnStmt{StmtPos: pos}, nil
	}
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ReturnStmt{StmtPos: pos, Expr: expr}, nil
}

// atStmtEnd reports whether the current token cannot start an expression,
// meaning the enclosing statement (e.g. a bare `return`) has no expression.
func (p *parser) atStmtEnd() bool {
	switch p.tok {
	case token.RBRACE, token.EOF, token.LET, token.RETURN, token.IF, token.SEMI:
		return true
	}
	return false
}

func (p *parser) parseIfStmt() (Stmt, error) {
	pos := p.val.Pos
	p.next() // consume "if"

	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	then, err := p.parseBlock()
	if err != nil {
		return nil, &langerr.CompileError{Kind: langerr.MalformedIf, Message: err.Error(), Line: p.line()}
	}

	ifStmt := &ast.IfStmt{StmtPos: pos, Cond: cond, Then: then}
	if p.tok == token.ELSE {
		p.next()
		if p.tok == token.IF {
			elseIf, err := p.parseIfStmt()
			if err != nil {
				return nil, err
			}
			ifStmt.Else = []Stmt{elseIf}
		} else {
			elseBlock, err := p.parseBlock()
			if err != nil {
				return nil, &langerr.CompileError{Kind: langerr.MalformedIf, Message: err.Error(), Line: p.line()}
			}
			ifStmt.Else = elseBlock
		}
	}
	return ifStmt, nil
}

func (p *parser) parseExprStmt() (Stmt, error) {
	pos := p.val.Pos
	expr, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return &ast.ExprStmt{StmtPos: pos, Expr: expr}, nil
}

func (p *parser) parseExpr() (ast.Expr, error) {
	lhs, err := p.parseOperand()
	if err != nil {
		return nil, err
	}
	for p.tok == token.PLUS || p.tok == token.EQL {
		opPos := p.val.Pos
		op := ast.Add
		if p.tok == token.EQL {
			op = ast.Eq
		}
		p.next()
		rhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{OpPos: opPos, LHS: lhs, Op: op, RHS: rhs}
	}
	return lhs, nil
}

func (p *parser) parseOperand() (ast.Expr, error) {
	switch p.tok {
	case token.STRING:
		v := p.val
		p.next()
		return &ast.StrLit{LitPos: v.Pos, Value: v.String}, nil

	case token.INT:
		v := p.val
		p.next()
		return &ast.IntLit{LitPos: v.Pos, Value: v.Int}, nil

	case token.TRUE, token.FALSE:
		v := p.val
		isTrue := p.tok == token.TRUE
		p.next()
		return &ast.BoolLit{LitPos: v.Pos, Value: isTrue}, nil

	case token.LPAREN:
		p.next()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return expr, nil

	case token.IDENT:
		v := p.val
		p.next()
		if p.tok != token.LPAREN {
			return &ast.Ident{NamePos: v.Pos, Name: v.Raw}, nil
		}
		args, err := p.parseArgs()
		if err != nil {
			return nil, err
		}
		return &ast.Call{CallPos: v.Pos, Name: v.Raw, Args: args}, nil

	default:
		return nil, p.errorf("unsupported expression starting with %s", p.tok)
	}
}

func (p *parser) parseArgs() ([]ast.Expr, error) {
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expr
	for p.tok != token.RPAREN {
		// An optional "label:" prefix is parsed and discarded.
		if p.tok == token.IDENT {
			save := p.val
			p.next()
			if p.tok == token.COLON {
				p.next()
			} else {
				// Not a label after all: this identifier is the start of the
				// argument expression itself. Re-synthesize it as an Ident operand
				// by parsing the rest of the expression from here.
				expr, err := p.finishIdentOperand(save)
				if err != nil {
					return nil, err
				}
				expr, err = p.finishExpr(expr)
				if err != nil {
					return nil, err
				}
				args = append(args, expr)
				if p.tok == token.COMMA {
					p.next()
					continue
				}
				break
			}
		}
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		if p.tok == token.COMMA {
			p.next()
			continue
		}
		break
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return args, nil
}

// finishIdentOperand builds the Ident or Call operand that starts with an
// identifier already consumed (v), used when argument-label lookahead turns
// out not to be a label.
func (p *parser) finishIdentOperand(v scanner.Value) (ast.Expr, error) {
	if p.tok != token.LPAREN {
		return &ast.Ident{NamePos: v.Pos, Name: v.Raw}, nil
	}
	args, err := p.parseArgs()
	if err != nil {
		return nil, err
	}
	return &ast.Call{CallPos: v.Pos, Name: v.Raw, Args: args}, nil
}

// finishExpr continues parsing a binary expression chain given its
// already-parsed left operand.
func (p *parser) finishExpr(lhs ast.Expr) (ast.Expr, error) {
	for p.tok == token.PLUS || p.tok == token.EQL {
		opPos := p.val.Pos
		op := ast.Add
		if p.tok == token.EQL {
			op = ast.Eq
		}
		p.next()
		rhs, err := p.parseOperand()
		if err != nil {
			return nil, err
		}
		lhs = &ast.Binary{OpPos: opPos, LHS: lhs, Op: op, RHS: rhs}
	}
	return lhs, nil
}
