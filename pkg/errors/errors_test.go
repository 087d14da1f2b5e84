package errors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatError(t *testing.T) {
	t.Run("with path and line", func(t *testing.T) {
		err := NewFormatError("model.txt", "not-a-marker", "expected leading \"tree\" marker")
		require.Error(t, err)

		var fe *FormatError
		require.True(t, As(err, &fe))
		assert.Equal(t, "model.txt", fe.Path)
		assert.Contains(t, err.Error(), "model.txt")
		assert.Contains(t, err.Error(), "ill-formatted model file")
		assert.Contains(t, err.Error(), "not-a-marker")
	})

	t.Run("without path", func(t *testing.T) {
		err := NewFormatError("", "", "missing end of trees marker")
		assert.Equal(t, "grove: ill-formatted model file: missing end of trees marker", err.Error())
	})

	t.Run("long lines are truncated", func(t *testing.T) {
		line := make([]byte, 200)
		for i := range line {
			line[i] = 'x'
		}
		err := NewFormatError("m.txt", string(line), "bad block")

		var fe *FormatError
		require.True(t, As(err, &fe))
		assert.Contains(t, err.Error(), "...")
		assert.Less(t, len(err.Error()), 200)
	})
}

func TestSchemaViolationError(t *testing.T) {
	t.Run("missing key", func(t *testing.T) {
		err := NewSchemaViolationError("max_feature_idx", 0, "", "non-nullable key not found")
		assert.Equal(t, `grove: block 0: key "max_feature_idx": non-nullable key not found`, err.Error())
	})

	t.Run("coercion failure", func(t *testing.T) {
		err := NewSchemaViolationError("threshold", 3, "abc", "cannot parse float")

		var se *SchemaViolationError
		require.True(t, As(err, &se))
		assert.Equal(t, 3, se.BlockIndex)
		assert.Equal(t, "abc", se.Value)
		assert.Contains(t, err.Error(), `(got "abc")`)
	})
}

func TestConsistencyError(t *testing.T) {
	tests := []struct {
		name      string
		treeIndex int
		nodeIndex int
		want      string
	}{
		{"tree and node scoped", 4, 7, "grove: tree 4: node 7: categorical node has empty threshold set"},
		{"tree scoped", 4, -1, "grove: tree 4: categorical node has empty threshold set"},
		{"unscoped", -1, -1, "grove: categorical node has empty threshold set"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConsistencyError(tt.treeIndex, tt.nodeIndex, "categorical node has empty threshold set")
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestDimensionError(t *testing.T) {
	err := NewDimensionError("Predict", 10, 8, 1)

	var de *DimensionError
	require.True(t, As(err, &de))
	assert.Equal(t, 10, de.Expected)
	assert.Contains(t, err.Error(), "Expected 10, got 8")
	assert.Contains(t, err.Error(), "features")
}

func TestWrappersPreserveTaxonomy(t *testing.T) {
	base := NewConsistencyError(1, 2, "left child index 9 out of range")
	wrapped := Wrap(base, "building forest")

	var ce *ConsistencyError
	require.True(t, As(wrapped, &ce))
	assert.Equal(t, 1, ce.TreeIndex)
	assert.Contains(t, wrapped.Error(), "building forest")
}

func TestRecover(t *testing.T) {
	boom := func() (err error) {
		defer Recover(&err, "boom")
		panic("unexpected index")
	}
	err := boom()
	require.Error(t, err)

	var pe *PanicError
	require.True(t, As(err, &pe))
	assert.Equal(t, "boom", pe.Operation)
	assert.NotEmpty(t, pe.StackTrace)
}
