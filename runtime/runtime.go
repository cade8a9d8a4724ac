// Package runtime is the embedding facade: a thin orchestrator that wires
// together the compiler, the virtual machine, the native bridge, and the
// bundle codec behind the small surface an embedder calls directly.
package runtime

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v6"

	"github.com/mna/glint/bundle"
	"github.com/mna/glint/lang/compiler"
	"github.com/mna/glint/lang/machine"
	"github.com/mna/glint/lang/parser"
	"github.com/mna/glint/lang/value"
	"github.com/mna/glint/native"
)

// Options configures a Runtime's defaults. Zero-value Options is valid and
// falls back to DefaultGasLimit and entry point "main".
type Options struct {
	GasLimit   int    `env:"GLINT_GAS_LIMIT" envDefault:"100000"`
	Entrypoint string `env:"GLINT_ENTRYPOINT" envDefault:"main"`
	SignKeyHex string `env:"GLINT_SIGN_KEY_HEX"`
	StrictMode bool   `env:"GLINT_STRICT_MODE"`

	// Logger, when set, is forwarded to every Thread this Runtime creates.
	Logger *slog.Logger
}

// OptionsFromEnv populates Options from GLINT_GAS_LIMIT, GLINT_ENTRYPOINT,
// GLINT_SIGN_KEY_HEX, and GLINT_STRICT_MODE. A gas limit or entry point
// that is unset or set to the empty string falls back to its default.
func OptionsFromEnv() (Options, error) {
	var o Options
	if err := env.Parse(&o); err != nil {
		return Options{}, fmt.Errorf("runtime: parsing environment: %w", err)
	}
	if o.GasLimit <= 0 {
		o.GasLimit = machine.DefaultGasLimit
	}
	if o.Entrypoint == "" {
		o.Entrypoint = "main"
	}
	return o, nil
}

// SignKey decodes SignKeyHex, returning nil if it is unset.
func (o Options) SignKey() ([]byte, error) {
	if o.SignKeyHex == "" {
		return nil, nil
	}
	return hex.DecodeString(o.SignKeyHex)
}

// Runtime holds a NativeRegistry and constructs a fresh machine.Thread for
// every call; it never holds VM state between calls.
type Runtime struct {
	Natives *native.Registry
	Options Options
}

// New creates a Runtime backed by natives, using opts for defaults.
func New(natives *native.Registry, opts Options) *Runtime {
	if opts.GasLimit <= 0 {
		opts.GasLimit = machine.DefaultGasLimit
	}
	if opts.Entrypoint == "" {
		opts.Entrypoint = "main"
	}
	return &Runtime{Natives: natives, Options: opts}
}

func (rt *Runtime) mode() parser.Mode {
	if rt.Options.StrictMode {
		return parser.StrictMode
	}
	return 0
}

// RunSource compiles source and calls its entry function with no arguments.
// entry defaults to rt.Options.Entrypoint ("main" unless overridden) when
// not supplied.
func (rt *Runtime) RunSource(source string, entry ...string) (value.Value, error) {
	prog, err := compiler.Compile([]byte(source), rt.mode())
	if err != nil {
		return nil, err
	}
	return rt.run(prog, entry...)
}

// RunBundle decodes data, optionally verifying it with key (verification is
// skipped when key is empty), then calls its entry function.
func (rt *Runtime) RunBundle(data []byte, key []byte, entry ...string) (value.Value, error) {
	prog, err := bundle.Read(data, key)
	if err != nil {
		return nil, err
	}
	return rt.run(prog, entry...)
}

// RunLines wraps lines as the body of a synthetic `func main() { ... }` and
// compiles and runs it — a convenience for embedders building up a script
// incrementally (e.g. a REPL or live-editing surface) without having to
// assemble a full function declaration themselves.
func (rt *Runtime) RunLines(lines []string) (value.Value, error) {
	var src strings.Builder
	src.WriteString("func main() {\n")
	for _, line := range lines {
		src.WriteString("\t")
		src.WriteString(line)
		src.WriteString("\n")
	}
	src.WriteString("}\n")
	return rt.RunSource(src.String())
}

func (rt *Runtime) run(prog *compiler.Program, entry ...string) (value.Value, error) {
	name := rt.Options.Entrypoint
	if len(entry) > 0 && entry[0] != "" {
		name = entry[0]
	}
	th := machine.NewThread(prog, rt.Natives, rt.Options.GasLimit)
	th.Logger = rt.Options.Logger
	return th.Call(name, nil)
}
