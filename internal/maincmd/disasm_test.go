package maincmd_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mna/glint/internal/maincmd"
)

func TestDisasmFilePrintsFunctionName(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.glint")
	require.NoError(t, os.WriteFile(src, []byte(`func main() { return 1 + 2 }`), 0o644))

	var buf, ebuf bytes.Buffer
	err := maincmd.DisasmFile(mainer.Stdio{Stdout: &buf, Stderr: &ebuf}, src)
	require.NoError(t, err)
	require.Contains(t, buf.String(), "name: main")
	require.Contains(t, buf.String(), "op: add")
}
