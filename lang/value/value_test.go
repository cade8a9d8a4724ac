package value

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAsString(t *testing.T) {
	require.Equal(t, "a", String("a").String())
	require.Equal(t, "1", Int(1).String())
	require.Equal(t, "true", Bool(true).String())
	require.Equal(t, "null", Null.String())
	require.Equal(t, "<fn f>", (&FunctionRef{Name: "f"}).String())
}

func TestEqualCrossTypeIsFalse(t *testing.T) {
	require.False(t, Equal(Int(1), Double(1.0)))
	require.True(t, Equal(Int(1), Int(1)))
	require.True(t, Equal(Null, Null))
}

func TestEqualDoubleUsesIEEEComparison(t *testing.T) {
	require.False(t, Equal(Double(math.NaN()), Double(math.NaN())))
	require.True(t, Equal(Double(0.0), Double(-0.0)))
}

func TestFalsy(t *testing.T) {
	require.True(t, Falsy(Null))
	require.True(t, Falsy(Bool(false)))
	require.True(t, Falsy(Int(0)))
	require.True(t, Falsy(Double(0)))
	require.True(t, Falsy(String("")))
	require.False(t, Falsy(Bool(true)))
	require.False(t, Falsy(&FunctionRef{Name: "f"}))
}

func TestConstantToValue(t *testing.T) {
	require.Equal(t, String("abc"), ConstName("abc").ToValue())
	require.True(t, ConstName("abc").IsName())
	require.Equal(t, Int(5), ConstInt(5).ToValue())
}
