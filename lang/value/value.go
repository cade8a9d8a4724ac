// Package value defines the tagged value universe shared by the compiler's
// constant pool and the virtual machine's runtime values.
package value

import (
	"fmt"
	"strconv"
)

// Value is implemented by every runtime value the machine manipulates.
type Value interface {
	// String returns the canonical as_string representation of the value.
	String() string

	// Type returns a short string describing the value's type, used in error
	// messages.
	Type() string
}

// Int is a signed 64-bit integer value.
type Int int64

var _ Value = Int(0)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "int" }

// Double is an IEEE-754 binary64 value.
type Double float64

var _ Value = Double(0)

func (d Double) String() string { return strconv.FormatFloat(float64(d), 'g', -1, 64) }
func (d Double) Type() string   { return "double" }

// Bool is a boolean value.
type Bool bool

const (
	False Bool = false
	True  Bool = true
)

var _ Value = True

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string { return "bool" }

// String is a UTF-8 text value. Strings have value semantics: assigning or
// storing a String copies it, never aliases a mutable buffer.
type String string

var _ Value = String("")

func (s String) String() string { return string(s) }
func (s String) Type() string   { return "string" }

// NullType is the type of Null, the unit/default value.
type NullType struct{}

// Null is the sole NullType value.
var Null = NullType{}

var _ Value = Null

func (NullType) String() string { return "null" }
func (NullType) Type() string   { return "null" }

// FunctionRef is a handle to a compiled script function, held in the
// program's function table that CallFunc indexes into.
type FunctionRef struct {
	Name       string
	Arity      int
	ChunkIndex int
	Locals     int
}

var _ Value = (*FunctionRef)(nil)

func (f *FunctionRef) String() string { return fmt.Sprintf("<fn %s>", f.Name) }
func (f *FunctionRef) Type() string   { return "function" }

// Equal implements the VM's Eq opcode semantics: equal-tag pairs compare by
// payload; cross-type pairs are always unequal (never an error). Double
// equality is IEEE-754 equality via Go's native == on float64 (not a
// bit-pattern compare), so NaN != NaN and -0.0 == 0.0.
func Equal(a, b Value) bool {
	switch av := a.(type) {
	case Int:
		bv, ok := b.(Int)
		return ok && av == bv
	case Double:
		bv, ok := b.(Double)
		return ok && av == bv
	case Bool:
		bv, ok := b.(Bool)
		return ok && av == bv
	case String:
		bv, ok := b.(String)
		return ok && av == bv
	case NullType:
		_, ok := b.(NullType)
		return ok
	case *FunctionRef:
		bv, ok := b.(*FunctionRef)
		return ok && av == bv
	}
	return false
}

// Falsy reports whether v is falsy: Null, Bool(false), Int(0), Double(0.0),
// or String(""). A FunctionRef is always truthy.
func Falsy(v Value) bool {
	switch vv := v.(type) {
	case NullType:
		return true
	case Bool:
		return !bool(vv)
	case Int:
		return vv == 0
	case Double:
		return vv == 0
	case String:
		return vv == ""
	}
	return false
}
