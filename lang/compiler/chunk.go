package compiler

import (
	"fmt"

	"github.com/mna/glint/lang/value"
)

// Chunk is the bytecode, constant pool, and source map for one function.
type Chunk struct {
	Code       []Instruction
	Constants  []value.Constant
	DebugLines []uint32
}

// Program is the durable output of the compiler: one chunk per function plus
// the function table referenced by CallFunc.
type Program struct {
	Chunks    []*Chunk
	Functions []*value.FunctionRef
}

// FindFunction returns the index and FunctionRef for name, or (-1, nil) if
// the program has no function by that name.
func (p *Program) FindFunction(name string) (int, *value.FunctionRef) {
	for i, f := range p.Functions {
		if f.Name == name {
			return i, f
		}
	}
	return -1, nil
}

// Validate checks the structural invariants a well-formed Program must
// satisfy, independent of how it was produced (compiler, built by hand, or
// decoded from a bundle).
func (p *Program) Validate() error {
	for fi, f := range p.Functions {
		if f.ChunkIndex < 0 || f.ChunkIndex >= len(p.Chunks) {
			return fmt.Errorf("function %q: chunk index %d out of range", f.Name, f.ChunkIndex)
		}
		for fj, g := range p.Functions {
			if fi != fj && f.Name == g.Name {
				return fmt.Errorf("duplicate function name %q", f.Name)
			}
		}
		ch := p.Chunks[f.ChunkIndex]
		if len(ch.Code) == 0 || ch.Code[len(ch.Code)-1].Op != RETURN {
			return fmt.Errorf("function %q: chunk does not end with RETURN", f.Name)
		}
	}
	for ci, ch := range p.Chunks {
		if len(ch.Code) != len(ch.DebugLines) {
			return fmt.Errorf("chunk %d: code length %d != debug_lines length %d", ci, len(ch.Code), len(ch.DebugLines))
		}
		for ip, instr := range ch.Code {
			switch instr.Op {
			case PUSHCONST:
				if int(instr.A) < 0 || int(instr.A) >= len(ch.Constants) {
					return fmt.Errorf("chunk %d, ip %d: PUSHCONST index %d out of range", ci, ip, instr.A)
				}
			case CALLNATIVE:
				if int(instr.A) < 0 || int(instr.A) >= len(ch.Constants) {
					return fmt.Errorf("chunk %d, ip %d: CALLNATIVE name index %d out of range", ci, ip, instr.A)
				}
				if !ch.Constants[instr.A].IsName() {
					return fmt.Errorf("chunk %d, ip %d: CALLNATIVE index %d is not a Name constant", ci, ip, instr.A)
				}
			case CALLFUNC:
				if int(instr.A) < 0 || int(instr.A) >= len(p.Functions) {
					return fmt.Errorf("chunk %d, ip %d: CALLFUNC index %d out of range", ci, ip, instr.A)
				}
			case JUMP, JUMPIFFALSE:
				target := ip + 1 + int(instr.A)
				if target < 0 || target > len(ch.Code) {
					return fmt.Errorf("chunk %d, ip %d: jump target %d out of range", ci, ip, target)
				}
			}
		}
	}
	return nil
}
