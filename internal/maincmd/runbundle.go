package maincmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"

	"github.com/mna/mainer"

	"github.com/mna/glint/native"
	"github.com/mna/glint/runtime"
)

// RunBundle executes the bundle at args[0], verifying its signature with
// c.Key (hex-encoded) if set. Dispatched as the "run-bundle" command.
func (c *Cmd) RunBundle(ctx context.Context, stdio mainer.Stdio, args []string) error {
	return RunBundleFile(stdio, args[0], c.Key)
}

func RunBundleFile(stdio mainer.Stdio, path, keyHex string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	var key []byte
	if keyHex != "" {
		key, err = hex.DecodeString(keyHex)
		if err != nil {
			return printError(stdio, fmt.Errorf("invalid --key: %w", err))
		}
	}

	rt := runtime.New(native.NewRegistry(1), runtime.Options{})
	result, err := rt.RunBundle(data, key)
	if err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintln(stdio.Stdout, result.String())
	return nil
}
