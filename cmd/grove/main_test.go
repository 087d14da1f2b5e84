package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModel = `tree
version=v3
max_feature_idx=1
objective=regression
feature_infos=[0:10] [0:1]

Tree=0
num_leaves=2
num_cat=0
split_feature=0
threshold=0.5
decision_type=2
left_child=-1
right_child=-2
leaf_value=0.1 0.2

end of trees

pandas_categorical:null
`

func writeTestModel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "model.txt")
	require.NoError(t, os.WriteFile(path, []byte(testModel), 0o600))
	return path
}

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestInfoCommand(t *testing.T) {
	out, err := runCommand(t, "info", writeTestModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "features:  2")
	assert.Contains(t, out, "version:   v3")
	assert.Contains(t, out, "objective: [regression]")
}

func TestInfoCommandFull(t *testing.T) {
	out, err := runCommand(t, "info", "--full", writeTestModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "trees:     1")
}

func TestCompileCommandToStdout(t *testing.T) {
	out, err := runCommand(t, "compile", writeTestModel(t), "-o", "-", "--pkg", "pred")
	require.NoError(t, err)
	assert.Contains(t, out, "package pred")
	assert.Contains(t, out, "func Predict(row []float64) float64")
}

func TestCompileCommandToFile(t *testing.T) {
	outPath := filepath.Join(t.TempDir(), "pred.go")
	out, err := runCommand(t, "compile", writeTestModel(t), "-o", outPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+outPath)

	src, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(src), "package prediction")
}

func TestInspectCommand(t *testing.T) {
	out, err := runCommand(t, "inspect", writeTestModel(t))
	require.NoError(t, err)
	assert.Contains(t, out, "trees: 1, features: 2")
	assert.Contains(t, out, "tree 0: 1 nodes, 2 leaves, 0 categorical")
}

func TestInspectCommandWithPlot(t *testing.T) {
	plotPath := filepath.Join(t.TempDir(), "leaves.png")
	out, err := runCommand(t, "inspect", writeTestModel(t), "--plot", plotPath)
	require.NoError(t, err)
	assert.Contains(t, out, "wrote "+plotPath)

	stat, err := os.Stat(plotPath)
	require.NoError(t, err)
	assert.Greater(t, stat.Size(), int64(0))
}

func TestCompileCommandBadModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.txt")
	require.NoError(t, os.WriteFile(path, []byte("garbage\n"), 0o600))

	_, err := runCommand(t, "compile", path, "-o", "-")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ill-formatted model file")
}
