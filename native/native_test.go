package native

import (
	"testing"

	"github.com/mna/glint/lang/value"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLookup(t *testing.T) {
	r := NewRegistry(4)
	r.RegisterFunc("double", 1, func(args []value.Value) (value.Value, error) {
		return value.Int(args[0].(value.Int) * 2), nil
	})

	c, ok := r.Lookup("double")
	require.True(t, ok)
	require.Equal(t, "double", c.Name())
	require.Equal(t, 1, c.Arity())

	result, err := c.Invoke([]value.Value{value.Int(21)})
	require.NoError(t, err)
	require.Equal(t, value.Int(42), result)
}

func TestLookupMissingFails(t *testing.T) {
	r := NewRegistry(1)
	_, ok := r.Lookup("nope")
	require.False(t, ok)
}

func TestRegisterReplacesExistingAndDoesNotDoubleCount(t *testing.T) {
	r := NewRegistry(1)
	r.RegisterFunc("f", 0, func(args []value.Value) (value.Value, error) { return value.Null, nil })
	r.RegisterFunc("f", 1, func(args []value.Value) (value.Value, error) { return value.Null, nil })
	require.Equal(t, 1, r.Len())

	c, _ := r.Lookup("f")
	require.Equal(t, 1, c.Arity())
}

func TestCheckArityMismatch(t *testing.T) {
	c := &Func{FuncName: "f", FuncArity: 2}
	require.Error(t, CheckArity(c, 1))
	require.NoError(t, CheckArity(c, 2))
}

func TestRegisterPanicsOnEmptyName(t *testing.T) {
	r := NewRegistry(1)
	require.Panics(t, func() {
		r.Register(&Func{FuncName: ""})
	})
}
