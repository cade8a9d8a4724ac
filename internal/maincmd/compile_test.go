package maincmd_test

import (
	"bytes"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mna/glint/internal/maincmd"
)

func TestCompileThenRunBundleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.glint")
	require.NoError(t, os.WriteFile(src, []byte(`func main() { return 9 }`), 0o644))

	out := filepath.Join(dir, "prog.glb")
	key := hex.EncodeToString([]byte("secret"))

	var cbuf, cebuf bytes.Buffer
	err := maincmd.CompileFile(mainer.Stdio{Stdout: &cbuf, Stderr: &cebuf}, src, out, key)
	require.NoError(t, err)
	require.FileExists(t, out)

	var rbuf, rebuf bytes.Buffer
	err = maincmd.RunBundleFile(mainer.Stdio{Stdout: &rbuf, Stderr: &rebuf}, out, key)
	require.NoError(t, err)
	require.Equal(t, "9\n", rbuf.String())
}

func TestRunBundleWrongKeyFailsViaCLI(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "prog.glint")
	require.NoError(t, os.WriteFile(src, []byte(`func main() { return 1 }`), 0o644))

	out := filepath.Join(dir, "prog.glb")
	var buf, ebuf bytes.Buffer
	require.NoError(t, maincmd.CompileFile(mainer.Stdio{Stdout: &buf, Stderr: &ebuf}, src, out, hex.EncodeToString([]byte("k1"))))

	var rbuf, rebuf bytes.Buffer
	err := maincmd.RunBundleFile(mainer.Stdio{Stdout: &rbuf, Stderr: &rebuf}, out, hex.EncodeToString([]byte("k2")))
	require.Error(t, err)
	require.NotEmpty(t, rebuf.String())
}
