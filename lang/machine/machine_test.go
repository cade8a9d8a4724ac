package machine

import (
	"testing"

	"github.com/mna/glint/lang/compiler"
	"github.com/mna/glint/lang/langerr"
	"github.com/mna/glint/lang/value"
	"github.com/mna/glint/native"
	"github.com/stretchr/testify/require"
)

func compile(t *testing.T, src string) *compiler.Program {
	t.Helper()
	p, err := compiler.Compile([]byte(src), 0)
	require.NoError(t, err)
	return p
}

func TestCallReturnsArithmeticResult(t *testing.T) {
	p := compile(t, `func main() { return 1 + 2 }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Int(3), result)
}

func TestCallUnknownFunctionFails(t *testing.T) {
	p := compile(t, `func main() { return 1 }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	_, err := th.Call("nope", nil)
	var rerr *langerr.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, langerr.UnknownFunction, rerr.Kind)
}

func TestCallArityMismatchFails(t *testing.T) {
	p := compile(t, `func main(a) { return a }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	_, err := th.Call("main", nil)
	var rerr *langerr.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, langerr.ArityMismatch, rerr.Kind)
}

func TestAddStringCoercesOtherOperand(t *testing.T) {
	p := compile(t, `func main() { return "a" + 1 }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.String("a1"), result)
}

func TestAddBoolOperandFails(t *testing.T) {
	p := compile(t, `func main() { return 1 + true }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	_, err := th.Call("main", nil)
	var rerr *langerr.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, langerr.InvalidAdd, rerr.Kind)
}

func TestEmptyBodyReturnsNull(t *testing.T) {
	p := compile(t, `func main() {}`)
	th := NewThread(p, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Null, result)
}

func TestIfWithFalseConditionAndNoElseFallsThrough(t *testing.T) {
	p := compile(t, `func main() { if false { return 1 } return 2 }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Int(2), result)
}

func TestEqCrossTypeIsFalse(t *testing.T) {
	// 1 == 1.0: different tags, must be false even though numerically equal.
	// The grammar has no double literal, so this is built directly.
	chunk := &compiler.Chunk{
		Constants:  []value.Constant{value.ConstInt(1), value.ConstDouble(1.0)},
		Code:       []compiler.Instruction{{Op: compiler.PUSHCONST, A: 0}, {Op: compiler.PUSHCONST, A: 1}, {Op: compiler.EQ}, {Op: compiler.RETURN}},
		DebugLines: []uint32{1, 1, 1, 1},
	}
	prog := &compiler.Program{
		Chunks:    []*compiler.Chunk{chunk},
		Functions: []*value.FunctionRef{{Name: "main", ChunkIndex: 0}},
	}
	th := NewThread(prog, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Bool(false), result)
}

func TestGasCeilingAllowsExactlyNDispatches(t *testing.T) {
	// A single self-jumping instruction loops forever; the gas ceiling is
	// the only way execution stops.
	chunk := &compiler.Chunk{
		Code:       []compiler.Instruction{{Op: compiler.JUMP, A: -1}},
		DebugLines: []uint32{1},
	}
	prog := &compiler.Program{
		Chunks:    []*compiler.Chunk{chunk},
		Functions: []*value.FunctionRef{{Name: "main", ChunkIndex: 0}},
	}
	th := NewThread(prog, native.NewRegistry(1), 5)
	_, err := th.Call("main", nil)
	var rerr *langerr.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, langerr.GasExceeded, rerr.Kind)
	require.Equal(t, 6, th.steps) // fails dispatching the 6th step, the (N+1)-th
}

func TestScenarioSumWithStringConcat(t *testing.T) {
	p := compile(t, `func main() { let a = 1; let b = 2; log("sum=" + a + b) }`)
	reg := native.NewRegistry(1)
	var captured value.Value
	reg.RegisterFunc("log", 1, func(args []value.Value) (value.Value, error) {
		captured = args[0]
		return value.Null, nil
	})
	th := NewThread(p, reg, 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Null, result)
	require.Equal(t, value.String("sum=12"), captured)
}

func TestScenarioGreetWithLabeledParam(t *testing.T) {
	p := compile(t, `
		func greet(_ name) { log("Hola " + name) }
		func main() { greet("Rafa") }`)
	reg := native.NewRegistry(1)
	var captured value.Value
	reg.RegisterFunc("log", 1, func(args []value.Value) (value.Value, error) {
		captured = args[0]
		return value.Null, nil
	})
	th := NewThread(p, reg, 0)
	_, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.String("Hola Rafa"), captured)
}

func TestScenarioIfElseSetTextWithLabeledArgs(t *testing.T) {
	p := compile(t, `
		func main() {
			let x = "Rafa"
			if x == "Rafa" {
				setText(id: "t", text: "ok")
			} else {
				setText(id: "t", text: "no")
			}
		}`)
	reg := native.NewRegistry(1)
	var calls [][]value.Value
	reg.RegisterFunc("setText", 2, func(args []value.Value) (value.Value, error) {
		calls = append(calls, args)
		return value.Null, nil
	})
	th := NewThread(p, reg, 0)
	_, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Len(t, calls, 1)
	require.Equal(t, value.String("t"), calls[0][0])
	require.Equal(t, value.String("ok"), calls[0][1])
}

func TestScenarioUnknownNativeFailsWithLine(t *testing.T) {
	p := compile(t, "func main() {\n\tunknown()\n}")
	th := NewThread(p, native.NewRegistry(1), 0)
	_, err := th.Call("main", nil)
	var rerr *langerr.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Equal(t, langerr.UnknownNative, rerr.Kind)
	require.Equal(t, 2, rerr.Line)
}

func TestForwardFunctionCallReachesLaterDeclaration(t *testing.T) {
	p := compile(t, `
		func main() { return helper() }
		func helper() { return 42 }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Int(42), result)
}

func TestUnresolvedIdentifierReadsAsNull(t *testing.T) {
	p := compile(t, `func main() { return x }`)
	th := NewThread(p, native.NewRegistry(1), 0)
	result, err := th.Call("main", nil)
	require.NoError(t, err)
	require.Equal(t, value.Null, result)
}
