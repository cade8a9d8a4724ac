package maincmd

import (
	"context"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glint/native"
	"github.com/mna/glint/runtime"
)

// Run compiles and executes the source file at args[0], printing the
// entry function's return value to stdout.
func (c *Cmd) Run(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunFile(stdio, args[0])
}

func RunFile(stdio mainer.Stdio, path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	rt := runtime.New(native.NewRegistry(1), runtime.Options{})
	result, err := rt.RunSource(string(src))
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintln(stdio.Stdout, result.String())
	return nil
}
