package compiler

import "gopkg.in/yaml.v3"

// debugInstr is one line of a human-readable disassembly.
type debugInstr struct {
	Line int    `yaml:"line"`
	Op   string `yaml:"op"`
	A    int32  `yaml:"a,omitempty"`
	B    int32  `yaml:"b,omitempty"`
}

type debugChunk struct {
	Constants []string     `yaml:"constants,omitempty"`
	Code      []debugInstr `yaml:"code"`
}

type debugFunc struct {
	Name   string     `yaml:"name"`
	Arity  int        `yaml:"arity"`
	Locals int        `yaml:"locals"`
	Chunk  debugChunk `yaml:"chunk"`
}

type debugProgram struct {
	Functions []debugFunc `yaml:"functions"`
}

// DumpDebug renders p as a non-authenticated, human-readable YAML
// disassembly, for the disasm CLI command and developer-facing error
// reports. It is never decoded back into a Program; the authenticated,
// canonical encoding lives in package bundle.
func DumpDebug(p *Program) ([]byte, error) {
	out := debugProgram{Functions: make([]debugFunc, len(p.Functions))}
	for i, fn := range p.Functions {
		ch := p.Chunks[fn.ChunkIndex]
		dc := debugChunk{Code: make([]debugInstr, len(ch.Code))}
		for _, c := range ch.Constants {
			dc.Constants = append(dc.Constants, c.String())
		}
		for j, instr := range ch.Code {
			dc.Code[j] = debugInstr{
				Line: int(ch.DebugLines[j]),
				Op:   instr.Op.String(),
				A:    instr.A,
				B:    instr.B,
			}
		}
		out.Functions[i] = debugFunc{Name: fn.Name, Arity: fn.Arity, Locals: fn.Locals, Chunk: dc}
	}
	return yaml.Marshal(out)
}
