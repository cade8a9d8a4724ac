// Package native implements the host-function bridge: a name-keyed
// registry of host-provided callables the script invokes by name via
// CallNative. It is the only way script code interacts with the outside
// world.
package native

import (
	"fmt"

	"github.com/dolthub/swiss"
	"github.com/mna/glint/lang/value"
)

// Callable is a host-provided function invocable from script by name.
type Callable interface {
	Name() string
	Arity() int
	Invoke(args []value.Value) (value.Value, error)
}

// Func adapts a plain Go function to the Callable interface, the usual way
// an embedder registers a native.
type Func struct {
	FuncName  string
	FuncArity int
	Fn        func(args []value.Value) (value.Value, error)
}

var _ Callable = (*Func)(nil)

func (f *Func) Name() string  { return f.FuncName }
func (f *Func) Arity() int    { return f.FuncArity }
func (f *Func) Invoke(args []value.Value) (value.Value, error) {
	return f.Fn(args)
}

// Registry is a name -> Callable mapping, backed by a swiss-table map for
// O(1) amortized lookup on the VM's hot call path. Registration is expected
// to happen before any call; the registry is read-only for the duration of
// a call, and mutating it concurrently with execution is unspecified.
type Registry struct {
	m     *swiss.Map[string, Callable]
	count int
}

// NewRegistry returns an empty Registry with room for at least size
// entries before it must grow.
func NewRegistry(size int) *Registry {
	if size < 1 {
		size = 1
	}
	return &Registry{m: swiss.NewMap[string, Callable](uint32(size))}
}

// Register adds c under its own Name, replacing any existing entry with
// that name. It panics if c.Name() is empty, since an unnamed native can
// never be resolved by CallNative.
func (r *Registry) Register(c Callable) {
	if c.Name() == "" {
		panic("native: cannot register a callable with an empty name")
	}
	if _, exists := r.m.Get(c.Name()); !exists {
		r.count++
	}
	r.m.Put(c.Name(), c)
}

// RegisterFunc is a convenience wrapper around Register for the common case
// of registering a plain Go function.
func (r *Registry) RegisterFunc(name string, arity int, fn func(args []value.Value) (value.Value, error)) {
	r.Register(&Func{FuncName: name, FuncArity: arity, Fn: fn})
}

// Lookup returns the callable registered under name, if any.
func (r *Registry) Lookup(name string) (Callable, bool) {
	return r.m.Get(name)
}

// Len reports the number of registered natives.
func (r *Registry) Len() int { return r.count }

// CheckArity validates argc against c's declared arity, returning a
// descriptive error on mismatch.
func CheckArity(c Callable, argc int) error {
	if c.Arity() != argc {
		return fmt.Errorf("native %q accepts %d argument(s), got %d", c.Name(), c.Arity(), argc)
	}
	return nil
}
