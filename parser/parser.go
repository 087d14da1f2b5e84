// Package parser reads the LightGBM text model format. The file is a
// sequence of blank-line-delimited blocks: one general-information header,
// one block per tree, an "end of trees" marker, then ignored
// feature-importance and parameter sections and a trailing
// pandas_categorical JSON line. Blocks are decoded against declared schemas
// into typed records; the forest package assembles those records into a
// validated tree graph.
package parser

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/groveml/grove/pkg/errors"
)

// GeneralInfo is the decoded header block, shared by every tree in the file.
type GeneralInfo struct {
	MaxFeatureIdx int
	Version       string
	FeatureInfos  []string
	Objective     []string
}

// NumFeature returns the input feature arity implied by the header.
func (g *GeneralInfo) NumFeature() int {
	return g.MaxFeatureIdx + 1
}

// CategoricalBitmap reports, per feature, whether the feature is categorical.
// Feature infos for floats look like [x.xxxx:y.yyyy], for categoricals like
// X:Y:Z:.
func (g *GeneralInfo) CategoricalBitmap() []bool {
	bitmap := make([]bool, len(g.FeatureInfos))
	for i, info := range g.FeatureInfos {
		bitmap[i] = !strings.HasPrefix(info, "[")
	}
	return bitmap
}

// TreeRecord holds the raw per-tree fields of one tree block. The five
// parallel arrays (SplitFeature..RightChild) describe the internal nodes;
// their shared length is the tree's internal-node count. CatThreshold and
// CatBoundaries are nil when the block omits them.
type TreeRecord struct {
	TreeIndex     int
	NumLeaves     int
	NumCat        int
	SplitFeature  []int
	Threshold     []float64
	DecisionType  []int
	LeftChild     []int
	RightChild    []int
	LeafValue     []float64
	CatThreshold  []int
	CatBoundaries []int
}

// ModelFile is the parser's output: the decoded header plus one record per
// tree, in file order.
type ModelFile struct {
	GeneralInfo GeneralInfo
	Trees       []TreeRecord
}

// ParseModelFile reads and decodes an entire model file. The whole file must
// parse successfully; there is no partial result.
func ParseModelFile(path string) (*ModelFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "grove: opening model file %s", path)
	}
	defer f.Close()

	return parseModel(bufio.NewReader(f), path, false)
}

// ParseGeneralInfo decodes only the header block. It is the cheap path for
// metadata queries (feature count, objective) that do not need the trees.
func ParseGeneralInfo(path string) (*GeneralInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "grove: opening model file %s", path)
	}
	defer f.Close()

	model, err := parseModel(bufio.NewReader(f), path, true)
	if err != nil {
		return nil, err
	}
	return &model.GeneralInfo, nil
}

func parseModel(r *bufio.Reader, path string, generalInfoOnly bool) (*ModelFile, error) {
	blocks := newBlockReader(r)

	// Blocks we expect:
	// 1* general information
	// N* tree, one block per tree
	// 1* "end of trees"
	// trailing feature importances / parameters, ignored
	lines, err := blocks.next()
	if err != nil {
		return nil, err
	}
	if len(lines) < 2 || lines[0] != "tree" || !strings.HasPrefix(lines[1], "version=") {
		first := ""
		if len(lines) > 0 {
			first = lines[0]
		}
		return nil, errors.NewFormatError(path, first, "not a LightGBM model file")
	}

	decoded, err := decodeBlock(lines, headerSchema, 0)
	if err != nil {
		return nil, err
	}
	model := &ModelFile{
		GeneralInfo: GeneralInfo{
			MaxFeatureIdx: decodedInt(decoded, "max_feature_idx"),
			Version:       decodedString(decoded, "version"),
			FeatureInfos:  decodedStrings(decoded, "feature_infos"),
			Objective:     decodedStrings(decoded, "objective"),
		},
	}
	if generalInfoOnly {
		return model, nil
	}

	for blockIndex := 1; ; blockIndex++ {
		lines, err := blocks.next()
		if err != nil {
			return nil, err
		}
		if len(lines) == 0 {
			return nil, errors.NewFormatError(path, "", `missing "end of trees" marker`)
		}
		if lines[0] == "end of trees" {
			break
		}
		if !strings.HasPrefix(lines[0], "Tree=") {
			return nil, errors.NewFormatError(path, lines[0], `expected a "Tree=" block`)
		}

		record, err := parseTreeBlock(lines, blockIndex)
		if err != nil {
			return nil, err
		}
		model.Trees = append(model.Trees, record)
	}
	return model, nil
}

func parseTreeBlock(lines []string, blockIndex int) (TreeRecord, error) {
	decoded, err := decodeBlock(lines, treeSchema, blockIndex)
	if err != nil {
		return TreeRecord{}, err
	}
	return TreeRecord{
		TreeIndex:     decodedInt(decoded, "Tree"),
		NumLeaves:     decodedInt(decoded, "num_leaves"),
		NumCat:        decodedInt(decoded, "num_cat"),
		SplitFeature:  decodedInts(decoded, "split_feature"),
		Threshold:     decodedFloats(decoded, "threshold"),
		DecisionType:  decodedInts(decoded, "decision_type"),
		LeftChild:     decodedInts(decoded, "left_child"),
		RightChild:    decodedInts(decoded, "right_child"),
		LeafValue:     decodedFloats(decoded, "leaf_value"),
		CatThreshold:  decodedInts(decoded, "cat_threshold"),
		CatBoundaries: decodedInts(decoded, "cat_boundaries"),
	}, nil
}

// blockReader yields blank-line-delimited blocks. next skips leading blank
// lines, then collects consecutive non-blank lines until a blank line or EOF.
// At EOF it returns an empty block.
type blockReader struct {
	r    *bufio.Reader
	done bool
}

func newBlockReader(r *bufio.Reader) *blockReader {
	return &blockReader{r: r}
}

func (b *blockReader) next() ([]string, error) {
	var lines []string
	for !b.done {
		raw, err := b.r.ReadString('\n')
		if err != nil {
			if err != io.EOF {
				return nil, errors.Wrap(err, "grove: reading model file")
			}
			b.done = true
		}
		line := strings.TrimSpace(raw)
		if line == "" {
			if len(lines) > 0 {
				return lines, nil
			}
			continue
		}
		lines = append(lines, line)
	}
	return lines, nil
}
