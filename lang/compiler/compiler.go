// Package compiler turns a parsed lang/ast.Chunk into a bytecode Program: one
// chunk per function, forward-jump back-patching, and per-function
// monotonic local-slot allocation. Compilation is single-pass; the first
// error aborts it.
package compiler

import (
	"fmt"

	"github.com/mna/glint/lang/ast"
	"github.com/mna/glint/lang/langerr"
	"github.com/mna/glint/lang/parser"
	"github.com/mna/glint/lang/token"
	"github.com/mna/glint/lang/value"
)

// Compile parses src and compiles it to a Program in one step.
func Compile(src []byte, mode parser.Mode) (*Program, error) {
	ch, err := parser.Parse(src, mode)
	if err != nil {
		return nil, err
	}
	return CompileChunk(ch)
}

// pcomp holds program-level compiler state: the function name-to-index
// table, built in a pre-pass so calls may forward-reference functions
// defined later in the source.
type pcomp struct {
	funcIndex map[string]int32
}

// CompileChunk compiles an already-parsed Chunk to a Program.
func CompileChunk(ch *ast.Chunk) (*Program, error) {
	pc := &pcomp{funcIndex: make(map[string]int32, len(ch.Funcs))}
	for i, fn := range ch.Funcs {
		if _, dup := pc.funcIndex[fn.Name]; dup {
			line, _ := fn.NamePos.LineCol()
			return nil, &langerr.CompileError{
				Kind:    langerr.UnsupportedConstruct,
				Message: fmt.Sprintf("duplicate function %q", fn.Name),
				Line:    line,
			}
		}
		pc.funcIndex[fn.Name] = int32(i)
	}

	prog := &Program{
		Chunks:    make([]*Chunk, len(ch.Funcs)),
		Functions: make([]*value.FunctionRef, len(ch.Funcs)),
	}
	for i, fn := range ch.Funcs {
		fc := &fcomp{
			pc:     pc,
			chunk:  &Chunk{},
			locals: make(map[string]int32, len(fn.Params)),
		}
		for _, param := range fn.Params {
			fc.slotFor(param)
		}
		for _, stmt := range fn.Body {
			if err := fc.emitStmt(stmt); err != nil {
				return nil, err
			}
		}
		// Every chunk ends with a well-defined fall-through, regardless of
		// whether the body already returned on every path.
		fc.emitPushNull()
		fc.emit(RETURN, 0, 0)

		prog.Chunks[i] = fc.chunk
		prog.Functions[i] = &value.FunctionRef{
			Name:       fn.Name,
			Arity:      len(fn.Params),
			ChunkIndex: i,
			Locals:     int(fc.nextSlot),
		}
	}
	return prog, nil
}

// fcomp holds function-level compiler state: the chunk under construction
// and the per-function monotonic local-slot table.
type fcomp struct {
	pc    *pcomp
	chunk *Chunk

	locals   map[string]int32
	nextSlot int32

	line int // 1-based line of the statement/expression currently being emitted
}

func (fc *fcomp) setLine(pos token.Pos) {
	line, _ := pos.LineCol()
	fc.line = line
}

// slotFor returns the local slot for name, allocating the next free slot on
// first reference. The allocation is monotonic and shared across the whole
// function body, not scoped to a block.
func (fc *fcomp) slotFor(name string) int32 {
	if slot, ok := fc.locals[name]; ok {
		return slot
	}
	slot := fc.nextSlot
	fc.locals[name] = slot
	fc.nextSlot++
	return slot
}

// addConstant appends c to the chunk's constant pool, deduplicating against
// an existing equal constant.
func (fc *fcomp) addConstant(c value.Constant) int32 {
	for i, existing := range fc.chunk.Constants {
		if existing.Equal(c) {
			return int32(i)
		}
	}
	fc.chunk.Constants = append(fc.chunk.Constants, c)
	return int32(len(fc.chunk.Constants) - 1)
}

// emit appends an instruction and its debug line, returning the index the
// instruction was written at (used by jump back-patching).
func (fc *fcomp) emit(op Opcode, a, b int32) int {
	fc.chunk.Code = append(fc.chunk.Code, Instruction{Op: op, A: a, B: b})
	fc.chunk.DebugLines = append(fc.chunk.DebugLines, uint32(fc.line))
	return len(fc.chunk.Code) - 1
}

func (fc *fcomp) patch(ix int, offset int32) {
	fc.chunk.Code[ix].A = offset
}

func (fc *fcomp) emitPushNull() {
	ix := fc.addConstant(value.ConstNull())
	fc.emit(PUSHCONST, ix, 0)
}

func (fc *fcomp) emitStmt(s ast.Stmt) error {
	fc.setLine(s.Pos())
	switch st := s.(type) {
	case *ast.LetStmt:
		if err := fc.emitExpr(st.Expr); err != nil {
			return err
		}
		slot := fc.slotFor(st.Name)
		fc.setLine(s.Pos())
		fc.emit(STORELOCAL, slot, 0)
		return nil

	case *ast.ExprStmt:
		if err := fc.emitExpr(st.Expr); err != nil {
			return err
		}
		fc.setLine(s.Pos())
		fc.emit(POP, 0, 0)
		return nil

	case *ast.ReturnStmt:
		if st.Expr != nil {
			if err := fc.emitExpr(st.Expr); err != nil {
				return err
			}
		} else {
			fc.emitPushNull()
		}
		fc.setLine(s.Pos())
		fc.emit(RETURN, 0, 0)
		return nil

	case *ast.IfStmt:
		return fc.emitIf(st)

	default:
		return &langerr.CompileError{
			Kind:    langerr.UnsupportedConstruct,
			Message: fmt.Sprintf("unsupported statement %T", st),
			Line:    fc.line,
		}
	}
}

// emitIf implements the back-patch arithmetic in the exact shape the
// offsets are defined: relative to the instruction after the jump.
func (fc *fcomp) emitIf(st *ast.IfStmt) error {
	if err := fc.emitExpr(st.Cond); err != nil {
		return err
	}
	fc.setLine(st.Pos())
	jf := fc.emit(JUMPIFFALSE, 0, 0)

	for _, stmt := range st.Then {
		if err := fc.emitStmt(stmt); err != nil {
			return err
		}
	}
	j := fc.emit(JUMP, 0, 0)

	elseStart := int32(len(fc.chunk.Code))
	fc.patch(jf, elseStart-int32(jf)-1)

	for _, stmt := range st.Else {
		if err := fc.emitStmt(stmt); err != nil {
			return err
		}
	}
	end := int32(len(fc.chunk.Code))
	fc.patch(j, end-int32(j)-1)
	return nil
}

func (fc *fcomp) emitExpr(e ast.Expr) error {
	fc.setLine(e.Pos())
	switch ex := e.(type) {
	case *ast.StrLit:
		ix := fc.addConstant(value.ConstString(ex.Value))
		fc.emit(PUSHCONST, ix, 0)

	case *ast.IntLit:
		ix := fc.addConstant(value.ConstInt(ex.Value))
		fc.emit(PUSHCONST, ix, 0)

	case *ast.BoolLit:
		ix := fc.addConstant(value.ConstBool(ex.Value))
		fc.emit(PUSHCONST, ix, 0)

	case *ast.Ident:
		slot := fc.slotFor(ex.Name)
		fc.emit(LOADLOCAL, slot, 0)

	case *ast.Call:
		for _, arg := range ex.Args {
			if err := fc.emitExpr(arg); err != nil {
				return err
			}
		}
		fc.setLine(ex.Pos())
		if fi, ok := fc.pc.funcIndex[ex.Name]; ok {
			fc.emit(CALLFUNC, fi, int32(len(ex.Args)))
		} else {
			nameIx := fc.addConstant(value.ConstName(ex.Name))
			fc.emit(CALLNATIVE, nameIx, int32(len(ex.Args)))
		}

	case *ast.Binary:
		if err := fc.emitExpr(ex.LHS); err != nil {
			return err
		}
		if err := fc.emitExpr(ex.RHS); err != nil {
			return err
		}
		fc.setLine(ex.Pos())
		switch ex.Op {
		case ast.Add:
			fc.emit(ADD, 0, 0)
		case ast.Eq:
			fc.emit(EQ, 0, 0)
		default:
			return &langerr.CompileError{
				Kind:    langerr.UnsupportedOperator,
				Message: fmt.Sprintf("unsupported operator %s", ex.Op),
				Line:    fc.line,
			}
		}

	default:
		return &langerr.CompileError{
			Kind:    langerr.UnsupportedConstruct,
			Message: fmt.Sprintf("unsupported expression %T", ex),
			Line:    fc.line,
		}
	}
	return nil
}
