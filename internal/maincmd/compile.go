package maincmd

import (
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"strings"

	"github.com/mna/mainer"

	"github.com/mna/glint/bundle"
	"github.com/mna/glint/lang/compiler"
)

// Compile compiles the source file at args[0] to a signed bundle, writing
// it to c.Out (or <path>.glb if unset). c.SignKey, if set, is the
// hex-encoded HMAC key used to sign the bundle.
func (c *Cmd) Compile(ctx context.Context, stdio mainer.Stdio, args []string) error {
	out := c.Out
	if out == "" {
		out = strings.TrimSuffix(args[0], ".glint") + ".glb"
	}
	return CompileFile(stdio, args[0], out, c.SignKey)
}

func CompileFile(stdio mainer.Stdio, path, out, signKeyHex string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return printError(stdio, err)
	}

	prog, err := compiler.Compile(src, 0)
	if err != nil {
		return printError(stdio, err)
	}

	var key []byte
	if signKeyHex != "" {
		key, err = hex.DecodeString(signKeyHex)
		if err != nil {
			return printError(stdio, fmt.Errorf("invalid --sign-key: %w", err))
		}
	}

	data := bundle.Write(prog, key)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return printError(stdio, err)
	}
	fmt.Fprintf(stdio.Stdout, "wrote %s (%d bytes)\n", out, len(data))
	return nil
}
