package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

var (
	testSpecsDir     = filepath.Join("..", "..", "testdata", "specs")
	testScenariosDir = filepath.Join("..", "..", "testdata", "scenarios")
)

// execute runs cmd with args and returns stdout and the error.
func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

// writeSpecDir writes a single CUE file into a fresh directory.
func writeSpecDir(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "spec.cue"), []byte(src), 0o644))
	return dir
}
