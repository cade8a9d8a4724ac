package parser

import (
	"testing"

	"github.com/mna/glint/lang/ast"
	"github.com/mna/glint/lang/langerr"
	"github.com/stretchr/testify/require"
)

func TestParseSimpleFunc(t *testing.T) {
	ch, err := Parse([]byte(`func main() { return 1 + 2 }`), 0)
	require.NoError(t, err)
	require.Len(t, ch.Funcs, 1)

	fn := ch.Funcs[0]
	require.Equal(t, "main", fn.Name)
	require.Empty(t, fn.Params)
	require.Len(t, fn.Body, 1)

	ret, ok := fn.Body[0].(*ast.ReturnStmt)
	require.True(t, ok)
	bin, ok := ret.Expr.(*ast.Binary)
	require.True(t, ok)
	require.Equal(t, ast.Add, bin.Op)
}

func TestParseLabeledParam(t *testing.T) {
	ch, err := Parse([]byte(`func greet(_ name) { log("Hola " + name) }`), 0)
	require.NoError(t, err)
	require.Equal(t, []string{"name"}, ch.Funcs[0].Params)
}

func TestParseCallWithLabeledArgs(t *testing.T) {
	ch, err := Parse([]byte(`func main() { setText(id: "t", text: "ok") }`), 0)
	require.NoError(t, err)
	stmt := ch.Funcs[0].Body[0].(*ast.ExprStmt)
	call := stmt.Expr.(*ast.Call)
	require.Equal(t, "setText", call.Name)
	require.Len(t, call.Args, 2)
	require.Equal(t, "t", call.Args[0].(*ast.StrLit).Value)
	require.Equal(t, "ok", call.Args[1].(*ast.StrLit).Value)
}

func TestParseSemicolonSeparatedStatements(t *testing.T) {
	ch, err := Parse([]byte(`func main() { let a = 1; let b = 2; return a + b }`), 0)
	require.NoError(t, err)
	require.Len(t, ch.Funcs[0].Body, 3)
}

func TestParseIfElseIf(t *testing.T) {
	ch, err := Parse([]byte(`
		func main() {
			if 1 == 1 {
				return 1
			} else if 2 == 2 {
				return 2
			} else {
				return 3
			}
		}`), 0)
	require.NoError(t, err)
	ifStmt := ch.Funcs[0].Body[0].(*ast.IfStmt)
	require.Len(t, ifStmt.Else, 1)
	_, ok := ifStmt.Else[0].(*ast.IfStmt)
	require.True(t, ok)
}

func TestParseForwardFuncReference(t *testing.T) {
	ch, err := Parse([]byte(`
		func main() { return helper() }
		func helper() { return 1 }`), 0)
	require.NoError(t, err)
	require.Len(t, ch.Funcs, 2)
}

func TestParseDropsTopLevelCommentaryByDefault(t *testing.T) {
	ch, err := Parse([]byte(`
		this is not a function
		func main() { return 1 }`), 0)
	require.NoError(t, err)
	require.Len(t, ch.Funcs, 1)
}

func TestParseStrictModeRejectsTopLevelCommentary(t *testing.T) {
	_, err := Parse([]byte(`
		this is not a function
		func main() { return 1 }`), StrictMode)
	require.Error(t, err)
	var cerr *langerr.CompileError
	require.ErrorAs(t, err, &cerr)
	require.Equal(t, langerr.UnsupportedConstruct, cerr.Kind)
}

func TestParseUnsupportedConstruct(t *testing.T) {
	_, err := Parse([]byte(`func main() { return 1 - 2 }`), 0)
	require.Error(t, err)
	var cerr *langerr.CompileError
	require.ErrorAs(t, err, &cerr)
}

func TestParseUnterminatedBlock(t *testing.T) {
	_, err := Parse([]byte(`func main() { return 1`), 0)
	require.Error(t, err)
}
