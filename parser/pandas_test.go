package parser

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	groverrors "github.com/groveml/grove/pkg/errors"
)

func TestParsePandasCategorical(t *testing.T) {
	t.Run("marker on last line", func(t *testing.T) {
		path := writeModelFile(t, "params=1\npandas_categorical:[[1, 2], [\"a\"]]\n")

		cats, err := ParsePandasCategorical(path)
		require.NoError(t, err)
		require.Len(t, cats, 2)
		assert.Equal(t, []interface{}{float64(1), float64(2)}, cats[0])
		assert.Equal(t, []interface{}{"a"}, cats[1])
	})

	t.Run("marker on second-to-last line", func(t *testing.T) {
		path := writeModelFile(t, "params=1\npandas_categorical:[[\"x\", \"y\"]]\ntrailing junk\n")

		cats, err := ParsePandasCategorical(path)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, []interface{}{"x", "y"}, cats[0])
	})

	t.Run("null table decodes to nil", func(t *testing.T) {
		path := writeModelFile(t, "end of parameters\npandas_categorical:null\n")

		cats, err := ParsePandasCategorical(path)
		require.NoError(t, err)
		assert.Nil(t, cats)
	})

	t.Run("no marker", func(t *testing.T) {
		path := writeModelFile(t, "just\nsome lines\nwithout the trailer\n")

		_, err := ParsePandasCategorical(path)
		require.Error(t, err)

		var fe *groverrors.FormatError
		require.True(t, groverrors.As(err, &fe))
		assert.Contains(t, err.Error(), "ill-formatted model file")
	})

	t.Run("invalid JSON payload", func(t *testing.T) {
		path := writeModelFile(t, "params=1\npandas_categorical:[[1, 2\n")

		_, err := ParsePandasCategorical(path)
		require.Error(t, err)

		var fe *groverrors.FormatError
		require.True(t, groverrors.As(err, &fe))
	})

	t.Run("empty file", func(t *testing.T) {
		path := writeModelFile(t, "")

		_, err := ParsePandasCategorical(path)
		require.Error(t, err)
	})

	t.Run("single line file", func(t *testing.T) {
		path := writeModelFile(t, "pandas_categorical:[[7]]")

		cats, err := ParsePandasCategorical(path)
		require.NoError(t, err)
		require.Len(t, cats, 1)
		assert.Equal(t, []interface{}{float64(7)}, cats[0])
	})
}

// The backward scan must find the trailer regardless of file size. A large
// body of tree text in front of the trailer forces several window doublings.
func TestParsePandasCategoricalLargeFile(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 50000; i++ {
		fmt.Fprintf(&sb, "leaf_value=%d 0.25 0.5 0.75\n", i)
	}
	// a large category table makes the trailer line itself span many
	// doubling iterations of the initial window
	nCats := 2000
	labels := make([]string, nCats)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d", i)
	}
	fmt.Fprintf(&sb, "pandas_categorical:[[%s]]\n", strings.Join(labels, ", "))

	path := filepath.Join(t.TempDir(), "big_model.txt")
	require.NoError(t, os.WriteFile(path, []byte(sb.String()), 0o600))

	cats, err := ParsePandasCategorical(path)
	require.NoError(t, err)
	require.Len(t, cats, 1)
	require.Len(t, cats[0], nCats)
	assert.Equal(t, float64(0), cats[0][0])
	assert.Equal(t, float64(nCats-1), cats[0][nCats-1])
}
