package maincmd

import (
	"context"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glint/lang/compiler"
)

// Disasm compiles the source file at args[0] and prints the non-authenticated
// YAML disassembly of the resulting program to stdout.
func (c *Cmd) Disasm(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return DisasmFile(stdio, args[0])
}

func DisasmFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	prog, err := compiler.Compile(src, 0)
	if err != nil {
		return printError(stdio, err)
	}

	out, err := compiler.DumpDebug(prog)
	if err != nil {
		return printError(stdio, err)
	}
	_, err = stdio.Stdout.Write(out)
	return err
}
