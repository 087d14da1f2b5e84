package parser

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"

	"github.com/groveml/grove/pkg/errors"
)

const pandasMarker = "pandas_categorical:"

// ParsePandasCategorical extracts the category-label table LightGBM appends
// to the model file when the training data came from pandas. The table is a
// JSON array with one category list per categorical feature, on the file's
// last or second-to-last line; files trained without pandas categoricals
// carry "pandas_categorical:null", which decodes to nil.
//
// The file is scanned backward from the end in geometrically growing chunks,
// so a multi-megabyte model costs O(log(size)) reads instead of a full pass.
func ParsePandasCategorical(path string) ([][]interface{}, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "grove: opening model file %s", path)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, errors.Wrapf(err, "grove: stat model file %s", path)
	}

	lines, err := tailLines(f, stat.Size())
	if err != nil {
		return nil, err
	}

	// the (pen)ultimate line should be pandas_categorical:XXX
	for i := len(lines) - 1; i >= 0 && i >= len(lines)-2; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, pandasMarker) {
			continue
		}
		payload := line[len(pandasMarker):]
		var categories [][]interface{}
		if err := json.Unmarshal([]byte(payload), &categories); err != nil {
			return nil, errors.NewFormatError(path, line, "invalid pandas_categorical JSON")
		}
		return categories, nil
	}
	return nil, errors.NewFormatError(path, "", "ill-formatted model file")
}

// tailLines reads the tail of the file, doubling the read window until it
// spans at least two lines or the whole file.
func tailLines(f *os.File, size int64) ([]string, error) {
	if size == 0 {
		return nil, nil
	}

	offset := int64(len(pandasMarker))
	for {
		wholeFile := offset >= size
		if wholeFile {
			offset = size
		}
		if _, err := f.Seek(-offset, io.SeekEnd); err != nil {
			return nil, errors.Wrap(err, "grove: seeking model file tail")
		}
		chunk, err := io.ReadAll(f)
		if err != nil {
			return nil, errors.Wrap(err, "grove: reading model file tail")
		}

		lines := splitTail(chunk)
		if len(lines) >= 2 || wholeFile {
			return lines, nil
		}
		offset *= 2
	}
}

// splitTail splits a chunk into its non-empty lines. The chunk may begin
// mid-line; that is fine since only the last two lines are ever inspected.
func splitTail(chunk []byte) []string {
	var lines []string
	for _, raw := range bytes.Split(chunk, []byte("\n")) {
		if len(bytes.TrimSpace(raw)) == 0 {
			continue
		}
		lines = append(lines, string(raw))
	}
	return lines
}
