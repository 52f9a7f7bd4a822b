package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const compileTestSource = `int main() { return 1 + 2; }`

func newCompileTestCmd(t *testing.T, configPath string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().String("config", configPath, "")
	cmd.Flags().StringP("output", "o", "", "")
	cmd.Flags().Bool("emit-ast", false, "")
	cmd.Flags().Bool("emit-ir", false, "")
	cmd.Flags().Bool("emit-asm", true, "")
	return cmd
}

func TestRunCompileWritesAssemblyToOutputFile(t *testing.T) {
	tmpDir := t.TempDir()
	srcFile := filepath.Join(tmpDir, "main.tc")
	require.NoError(t, os.WriteFile(srcFile, []byte(compileTestSource), 0644))
	outFile := filepath.Join(tmpDir, "main.s")

	cmd := newCompileTestCmd(t, filepath.Join(tmpDir, "missing.yaml"))
	require.NoError(t, cmd.Flags().Set("output", outFile))

	require.NoError(t, runCompile(cmd, []string{srcFile}))

	asm, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.NotEmpty(t, asm)
}

func TestRunCompileEmitAST(t *testing.T) {
	tmpDir := t.TempDir()
	srcFile := filepath.Join(tmpDir, "main.tc")
	require.NoError(t, os.WriteFile(srcFile, []byte(compileTestSource), 0644))
	outFile := filepath.Join(tmpDir, "main.ast")

	cmd := newCompileTestCmd(t, filepath.Join(tmpDir, "missing.yaml"))
	require.NoError(t, cmd.Flags().Set("output", outFile))
	require.NoError(t, cmd.Flags().Set("emit-ast", "true"))

	require.NoError(t, runCompile(cmd, []string{srcFile}))

	out, err := os.ReadFile(outFile)
	require.NoError(t, err)
	assert.Contains(t, string(out), "int main()")
}

func TestRunCompileReportsSyntaxError(t *testing.T) {
	tmpDir := t.TempDir()
	srcFile := filepath.Join(tmpDir, "broken.tc")
	require.NoError(t, os.WriteFile(srcFile, []byte("int main( { }"), 0644))

	cmd := newCompileTestCmd(t, filepath.Join(tmpDir, "missing.yaml"))
	err := runCompile(cmd, []string{srcFile})
	assert.Error(t, err)
}

func TestRunCompileMissingFile(t *testing.T) {
	tmpDir := t.TempDir()
	cmd := newCompileTestCmd(t, filepath.Join(tmpDir, "missing.yaml"))
	err := runCompile(cmd, []string{filepath.Join(tmpDir, "nope.tc")})
	assert.Error(t, err)
}
