// Package machine implements the gas-bounded, stack-based virtual machine
// that executes a compiled *compiler.Program: an operand stack, a call-frame
// stack, local-slot windowing into the operand stack, and host callouts
// through a native.Registry.
package machine

import (
	"fmt"
	"log/slog"

	"github.com/mna/glint/lang/compiler"
	"github.com/mna/glint/lang/langerr"
	"github.com/mna/glint/lang/value"
	"github.com/mna/glint/native"
)

// DefaultGasLimit is the step ceiling used when a Thread is created with a
// non-positive GasLimit.
const DefaultGasLimit = 100_000

// frame is a per-call record on the VM's call stack. The only mutable state
// is ip; locals live inside the operand stack starting at base.
type frame struct {
	fn   *value.FunctionRef
	ip   int
	base int
}

// Thread runs a single call of a Program. A Thread is single-use: once Call
// returns, Running or Errored, it must not be called again.
type Thread struct {
	Program  *compiler.Program
	Natives  *native.Registry
	GasLimit int // <= 0 means DefaultGasLimit, applied when Call starts

	// Logger, when set, receives Debug-level records per CallNative dispatch
	// and a Warn-level record when gas exceeds 80% of the limit. Diagnostic
	// only; never affects control flow.
	Logger *slog.Logger

	stack  []value.Value
	frames []frame
	steps  int
	warned bool
}

// NewThread creates a Thread ready to run program, calling out to natives.
func NewThread(program *compiler.Program, natives *native.Registry, gasLimit int) *Thread {
	if gasLimit <= 0 {
		gasLimit = DefaultGasLimit
	}
	return &Thread{Program: program, Natives: natives, GasLimit: gasLimit}
}

// Call resolves name in the program's function table and runs it with args,
// returning the function's result or a *langerr.RuntimeError.
func (th *Thread) Call(name string, args []value.Value) (value.Value, error) {
	_, fn := th.Program.FindFunction(name)
	if fn == nil {
		return nil, &langerr.RuntimeError{Kind: langerr.UnknownFunction, Message: fmt.Sprintf("unknown function %q", name)}
	}
	if fn.Arity != len(args) {
		return nil, &langerr.RuntimeError{
			Kind:    langerr.ArityMismatch,
			Message: fmt.Sprintf("function %q accepts %d argument(s), got %d", name, fn.Arity, len(args)),
		}
	}

	if th.GasLimit <= 0 {
		th.GasLimit = DefaultGasLimit
	}
	th.stack = append(th.stack, args...)
	th.frames = append(th.frames, frame{fn: fn, ip: 0, base: len(th.stack) - len(args)})
	return th.run()
}

func (th *Thread) run() (value.Value, error) {
	for len(th.frames) > 0 {
		th.steps++
		if th.steps > th.GasLimit {
			return nil, th.errorf(langerr.GasExceeded, "exceeded gas limit of %d steps", th.GasLimit)
		}
		if th.Logger != nil && !th.warned && th.steps > th.GasLimit*8/10 {
			th.warned = true
			th.Logger.Warn("approaching gas limit", "steps", th.steps, "limit", th.GasLimit)
		}

		top := &th.frames[len(th.frames)-1]
		chunk := th.Program.Chunks[top.fn.ChunkIndex]
		if top.ip < 0 || top.ip >= len(chunk.Code) {
			return nil, th.errorf(langerr.IpOutOfBounds, "instruction pointer %d out of bounds", top.ip)
		}
		instr := chunk.Code[top.ip]
		top.ip++

		switch instr.Op {
		case compiler.NOP:
			// no effect

		case compiler.PUSHCONST:
			th.push(chunk.Constants[instr.A].ToValue())

		case compiler.LOADLOCAL:
			th.push(th.localAt(top, int(instr.A)))

		case compiler.STORELOCAL:
			th.storeLocal(top, int(instr.A), th.pop())

		case compiler.ADD:
			b, a := th.pop(), th.pop()
			result, err := addValues(a, b)
			if err != nil {
				return nil, th.wrapErrorf(langerr.InvalidAdd, err)
			}
			th.push(result)

		case compiler.EQ:
			b, a := th.pop(), th.pop()
			th.push(value.Bool(value.Equal(a, b)))

		case compiler.POP:
			th.pop()

		case compiler.JUMP:
			top.ip += int(instr.A)

		case compiler.JUMPIFFALSE:
			if value.Falsy(th.pop()) {
				top.ip += int(instr.A)
			}

		case compiler.CALLNATIVE:
			if err := th.dispatchNative(chunk, instr); err != nil {
				return nil, err
			}

		case compiler.CALLFUNC:
			if err := th.dispatchFunc(instr); err != nil {
				return nil, err
			}

		case compiler.RETURN:
			if done, result := th.dispatchReturn(); done {
				return result, nil
			}

		default:
			return nil, th.errorf(langerr.IpOutOfBounds, "illegal opcode %s", instr.Op)
		}
	}
	return value.Null, nil
}

func (th *Thread) push(v value.Value) { th.stack = append(th.stack, v) }

func (th *Thread) pop() value.Value {
	v := th.stack[len(th.stack)-1]
	th.stack = th.stack[:len(th.stack)-1]
	return v
}

func (th *Thread) localAt(fr *frame, slot int) value.Value {
	idx := fr.base + slot
	if idx >= len(th.stack) {
		return value.Null
	}
	return th.stack[idx]
}

func (th *Thread) storeLocal(fr *frame, slot int, v value.Value) {
	idx := fr.base + slot
	for idx >= len(th.stack) {
		th.stack = append(th.stack, value.Null)
	}
	th.stack[idx] = v
}

func (th *Thread) dispatchNative(chunk *compiler.Chunk, instr compiler.Instruction) error {
	if int(instr.A) < 0 || int(instr.A) >= len(chunk.Constants) {
		return th.errorf(langerr.ConstantNotAName, "constant index %d out of range", instr.A)
	}
	c := chunk.Constants[instr.A]
	if !c.IsName() {
		return th.errorf(langerr.ConstantNotAName, "constant %d is not a Name", instr.A)
	}
	name := c.NameValue()

	argc := int(instr.B)
	args := make([]value.Value, argc)
	copy(args, th.stack[len(th.stack)-argc:])
	th.stack = th.stack[:len(th.stack)-argc]

	callable, ok := th.Natives.Lookup(name)
	if !ok {
		return th.errorf(langerr.UnknownNative, "unknown native %q", name)
	}
	if err := native.CheckArity(callable, argc); err != nil {
		return th.wrapErrorf(langerr.ArityMismatch, err)
	}

	if th.Logger != nil {
		th.Logger.Debug("callnative", "name", name, "argc", argc)
	}

	result, err := callable.Invoke(args)
	if err != nil {
		return th.wrapErrorf(langerr.NativeFailure, err)
	}
	th.push(result)
	return nil
}

func (th *Thread) dispatchFunc(instr compiler.Instruction) error {
	fi := int(instr.A)
	if fi < 0 || fi >= len(th.Program.Functions) {
		return th.errorf(langerr.UnknownFunction, "function index %d out of range", fi)
	}
	fn := th.Program.Functions[fi]
	argc := int(instr.B)
	if fn.Arity != argc {
		return th.errorf(langerr.ArityMismatch, "function %q accepts %d argument(s), got %d", fn.Name, fn.Arity, argc)
	}
	th.frames = append(th.frames, frame{fn: fn, ip: 0, base: len(th.stack) - argc})
	return nil
}

// dispatchReturn implements the Return stack discipline: pop the return
// value, pop the frame, truncate the operand stack to frame.base to
// prevent operand leakage between frames, then push the return value back.
func (th *Thread) dispatchReturn() (done bool, result value.Value) {
	r := value.Value(value.Null)
	if len(th.stack) > 0 {
		r = th.pop()
	}
	top := th.frames[len(th.frames)-1]
	th.frames = th.frames[:len(th.frames)-1]
	th.stack = th.stack[:top.base]
	th.push(r)

	if len(th.frames) == 0 {
		return true, r
	}
	return false, nil
}

// addValues implements the Add opcode's coercion table: a String on either
// side stringifies the other operand and concatenates; otherwise both sides
// must be Int/Double and are added numerically (promoting to Double if
// either is a Double). Any other combination is InvalidAdd.
func addValues(a, b value.Value) (value.Value, error) {
	if as, ok := a.(value.String); ok {
		return value.String(string(as) + b.String()), nil
	}
	if bs, ok := b.(value.String); ok {
		return value.String(a.String() + string(bs)), nil
	}

	ai, aIsInt := a.(value.Int)
	ad, aIsDouble := a.(value.Double)
	bi, bIsInt := b.(value.Int)
	bd, bIsDouble := b.(value.Double)

	switch {
	case aIsInt && bIsInt:
		return value.Int(ai + bi), nil
	case aIsInt && bIsDouble:
		return value.Double(float64(ai) + float64(bd)), nil
	case aIsDouble && bIsInt:
		return value.Double(float64(ad) + float64(bi)), nil
	case aIsDouble && bIsDouble:
		return value.Double(ad + bd), nil
	}
	return nil, fmt.Errorf("cannot add %s and %s", a.Type(), b.Type())
}

// currentLine returns the 1-based source line of the instruction currently
// executing in the topmost frame, clamped into the chunk's debug_lines
// range, or 0 if no frame is active.
func (th *Thread) currentLine() int {
	if len(th.frames) == 0 {
		return 0
	}
	top := th.frames[len(th.frames)-1]
	chunk := th.Program.Chunks[top.fn.ChunkIndex]
	if len(chunk.DebugLines) == 0 {
		return 0
	}
	ip := top.ip - 1
	if ip < 0 {
		ip = 0
	}
	if ip >= len(chunk.DebugLines) {
		ip = len(chunk.DebugLines) - 1
	}
	return int(chunk.DebugLines[ip])
}

func (th *Thread) errorf(kind langerr.RuntimeErrorKind, format string, args ...any) *langerr.RuntimeError {
	return &langerr.RuntimeError{Kind: kind, Message: fmt.Sprintf(format, args...), Line: th.currentLine()}
}

func (th *Thread) wrapErrorf(kind langerr.RuntimeErrorKind, err error) *langerr.RuntimeError {
	return &langerr.RuntimeError{Kind: kind, Message: err.Error(), Line: th.currentLine(), Inner: err}
}
