package value

import "fmt"

// Constant is a compile-time literal stored in a chunk's constant pool.
// Name is kept distinct from String so the VM can assert the constant kind
// at native-call dispatch (CallNative requires a Name, never a String).
type Constant struct {
	kind constKind
	i    int64
	d    float64
	s    string
	b    bool
}

type constKind uint8

const (
	kindInt constKind = iota
	kindDouble
	kindBool
	kindString
	kindNull
	kindName
)

func ConstInt(i int64) Constant      { return Constant{kind: kindInt, i: i} }
func ConstDouble(d float64) Constant { return Constant{kind: kindDouble, d: d} }
func ConstBool(b bool) Constant      { return Constant{kind: kindBool, b: b} }
func ConstString(s string) Constant  { return Constant{kind: kindString, s: s} }
func ConstNull() Constant            { return Constant{kind: kindNull} }
func ConstName(name string) Constant { return Constant{kind: kindName, s: name} }

// IsName reports whether the constant is a Name, as required to validate
// CallNative's name_ix operand.
func (c Constant) IsName() bool { return c.kind == kindName }

// NameValue returns the symbol of a Name constant. It panics if the
// constant is not a Name; callers must check IsName first.
func (c Constant) NameValue() string {
	if c.kind != kindName {
		panic("value: NameValue called on non-Name constant")
	}
	return c.s
}

// ToValue converts the constant to its runtime Value. A Name constant
// coerces to String, per the PushConst semantics.
func (c Constant) ToValue() Value {
	switch c.kind {
	case kindInt:
		return Int(c.i)
	case kindDouble:
		return Double(c.d)
	case kindBool:
		return Bool(c.b)
	case kindString:
		return String(c.s)
	case kindName:
		return String(c.s)
	case kindNull:
		return Null
	}
	panic("value: unreachable constant kind")
}

// Equal reports whether two constants denote the same compile-time literal,
// used to deduplicate a chunk's constant pool.
func (c Constant) Equal(other Constant) bool {
	if c.kind != other.kind {
		return false
	}
	switch c.kind {
	case kindInt:
		return c.i == other.i
	case kindDouble:
		return c.d == other.d
	case kindBool:
		return c.b == other.b
	case kindString, kindName:
		return c.s == other.s
	case kindNull:
		return true
	}
	return false
}

func (c Constant) String() string {
	switch c.kind {
	case kindInt:
		return fmt.Sprintf("int %d", c.i)
	case kindDouble:
		return fmt.Sprintf("double %g", c.d)
	case kindBool:
		return fmt.Sprintf("bool %t", c.b)
	case kindString:
		return fmt.Sprintf("string %q", c.s)
	case kindName:
		return fmt.Sprintf("name %s", c.s)
	case kindNull:
		return "null"
	}
	return "?"
}
