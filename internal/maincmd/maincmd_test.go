package maincmd_test

import (
	"bytes"
	"flag"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"
	"github.com/stretchr/testify/require"

	"github.com/mna/glint/internal/filetest"
	"github.com/mna/glint/internal/maincmd"
)

var testUpdateRunTests = flag.Bool("test.update-run-tests", false, "If set, replace expected run test results with actual results.")

func TestRunFile(t *testing.T) {
	srcDir, resultDir := filepath.Join("testdata", "in"), filepath.Join("testdata", "out")

	for _, fi := range filetest.SourceFiles(t, srcDir, ".glint") {
		t.Run(fi.Name(), func(t *testing.T) {
			var buf, ebuf bytes.Buffer
			stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

			_ = maincmd.RunFile(stdio, filepath.Join(srcDir, fi.Name()))
			filetest.DiffOutput(t, fi, buf.String(), resultDir, testUpdateRunTests)
			filetest.DiffErrors(t, fi, ebuf.String(), resultDir, testUpdateRunTests)
		})
	}
}

func TestCmdMainDispatchesRunCommand(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	c := maincmd.Cmd{}
	code := c.Main([]string{"glint", "run", filepath.Join("testdata", "in", "arithmetic.glint")}, stdio)
	require.EqualValues(t, mainer.Success, code)
	require.Equal(t, "3\n", buf.String())
}

func TestCmdUnknownCommandFails(t *testing.T) {
	var buf, ebuf bytes.Buffer
	stdio := mainer.Stdio{Stdout: &buf, Stderr: &ebuf}

	c := maincmd.Cmd{}
	code := c.Main([]string{"glint", "frobnicate", "x"}, stdio)
	require.EqualValues(t, mainer.InvalidArgs, code)
}
