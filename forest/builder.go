package forest

import (
	"fmt"
	"math"

	"github.com/groveml/grove/parser"
	"github.com/groveml/grove/pkg/errors"
)

// Build assembles a validated Forest from the parser's output. Construction
// is two-pass per tree: first all leaves and nodes are materialized by index,
// then the raw signed child references are resolved into direct ownership
// edges and every node is validated. Any failure aborts the whole build;
// there is no partial forest.
func Build(model *parser.ModelFile) (*Forest, error) {
	nArgs := model.GeneralInfo.NumFeature()

	forest := &Forest{
		Trees:   make([]*Tree, 0, len(model.Trees)),
		NumArgs: nArgs,
	}
	for i := range model.Trees {
		tree, err := buildTree(&model.Trees[i], nArgs)
		if err != nil {
			return nil, err
		}
		forest.Trees = append(forest.Trees, tree)
	}
	return forest, nil
}

func buildTree(rec *parser.TreeRecord, nArgs int) (*Tree, error) {
	nNodes := len(rec.DecisionType)
	if len(rec.SplitFeature) != nNodes ||
		len(rec.Threshold) != nNodes ||
		len(rec.LeftChild) != nNodes ||
		len(rec.RightChild) != nNodes {
		return nil, errors.NewConsistencyError(rec.TreeIndex, -1, fmt.Sprintf(
			"parallel array length mismatch: split_feature=%d threshold=%d decision_type=%d left_child=%d right_child=%d",
			len(rec.SplitFeature), len(rec.Threshold), nNodes, len(rec.LeftChild), len(rec.RightChild)))
	}
	if len(rec.LeafValue) == 0 {
		return nil, errors.NewConsistencyError(rec.TreeIndex, -1, "tree has no leaves")
	}

	// pass 1: materialize leaves and nodes by index
	leaves := make([]*Leaf, len(rec.LeafValue))
	for i, value := range rec.LeafValue {
		leaves[i] = &Leaf{Index: i, Value: value}
	}

	nodes := make([]*Node, nNodes)
	var categoricalNodes []*Node
	for i := 0; i < nNodes; i++ {
		dt := rec.DecisionType[i]
		node := &Node{
			Index:        i,
			SplitFeature: rec.SplitFeature[i],
			Threshold:    rec.Threshold[i],
			DecisionType: dt,
			Categorical:  dt&categoricalMask != 0,
			DefaultLeft:  dt&defaultLeftMask != 0,
			Missing:      missingType(dt),
		}
		nodes[i] = node
		if node.Categorical {
			categoricalNodes = append(categoricalNodes, node)
		}
	}

	if len(categoricalNodes) != rec.NumCat {
		return nil, errors.NewConsistencyError(rec.TreeIndex, -1, fmt.Sprintf(
			"num_cat=%d but %d nodes carry the categorical flag", rec.NumCat, len(categoricalNodes)))
	}
	if err := finalizeCategorical(rec, categoricalNodes); err != nil {
		return nil, err
	}

	// pass 2: resolve signed child references into ownership edges
	for i, node := range nodes {
		left, err := resolveChild(rec, i, rec.LeftChild[i], nodes, leaves)
		if err != nil {
			return nil, err
		}
		right, err := resolveChild(rec, i, rec.RightChild[i], nodes, leaves)
		if err != nil {
			return nil, err
		}
		node.Left, node.Right = left, right
	}

	for i, node := range nodes {
		if err := validateNode(rec.TreeIndex, i, node, nArgs); err != nil {
			return nil, err
		}
	}

	var root NodeRef
	if nNodes > 0 {
		root = nodes[0]
	} else {
		// degenerate single-leaf tree
		root = leaves[0]
	}
	return &Tree{
		TreeIndex: rec.TreeIndex,
		Root:      root,
		NumArgs:   nArgs,
		NumLeaves: len(leaves),
		NumNodes:  nNodes,
		NumCat:    rec.NumCat,
	}, nil
}

func missingType(decisionType int) MissingType {
	switch (decisionType & missingTypeMask) >> 2 {
	case 1:
		return MissingZero
	case 2:
		return MissingNaN
	default:
		return MissingNone
	}
}

// finalizeCategorical attaches each categorical node's bitset payload: the
// i-th categorical node in encounter order owns the slice
// cat_threshold[cat_boundaries[i]:cat_boundaries[i+1]].
func finalizeCategorical(rec *parser.TreeRecord, categoricalNodes []*Node) error {
	if len(categoricalNodes) == 0 {
		return nil
	}
	if rec.CatThreshold == nil || rec.CatBoundaries == nil {
		return errors.NewConsistencyError(rec.TreeIndex, categoricalNodes[0].Index,
			"categorical nodes present but cat_threshold/cat_boundaries missing")
	}
	if len(rec.CatBoundaries) < len(categoricalNodes)+1 {
		return errors.NewConsistencyError(rec.TreeIndex, -1, fmt.Sprintf(
			"cat_boundaries has %d entries, need %d for %d categorical nodes",
			len(rec.CatBoundaries), len(categoricalNodes)+1, len(categoricalNodes)))
	}
	for i, node := range categoricalNodes {
		lo, hi := rec.CatBoundaries[i], rec.CatBoundaries[i+1]
		if lo < 0 || hi <= lo || hi > len(rec.CatThreshold) {
			return errors.NewConsistencyError(rec.TreeIndex, node.Index, fmt.Sprintf(
				"cat_boundaries slice [%d:%d) invalid for cat_threshold of length %d",
				lo, hi, len(rec.CatThreshold)))
		}
		node.CatThreshold = rec.CatThreshold[lo:hi]
	}
	return nil
}

// resolveChild translates a signed raw index into a direct reference:
// negative means the leaf at abs(raw)-1, non-negative means another node.
func resolveChild(rec *parser.TreeRecord, nodeIndex, raw int, nodes []*Node, leaves []*Leaf) (NodeRef, error) {
	if raw < 0 {
		leafIdx := -raw - 1
		if leafIdx >= len(leaves) {
			return nil, errors.NewConsistencyError(rec.TreeIndex, nodeIndex, fmt.Sprintf(
				"child reference %d resolves to leaf %d, tree has %d leaves", raw, leafIdx, len(leaves)))
		}
		return leaves[leafIdx], nil
	}
	if raw >= len(nodes) {
		return nil, errors.NewConsistencyError(rec.TreeIndex, nodeIndex, fmt.Sprintf(
			"child reference %d out of range, tree has %d nodes", raw, len(nodes)))
	}
	return nodes[raw], nil
}

func validateNode(treeIndex, nodeIndex int, node *Node, nArgs int) error {
	if node.Left == nil || node.Right == nil {
		return errors.NewConsistencyError(treeIndex, nodeIndex, "node is missing a child")
	}
	if node.SplitFeature < 0 || node.SplitFeature >= nArgs {
		return errors.NewConsistencyError(treeIndex, nodeIndex, fmt.Sprintf(
			"split_feature %d outside [0, %d)", node.SplitFeature, nArgs))
	}
	if node.Categorical {
		if len(node.CatThreshold) == 0 {
			return errors.NewConsistencyError(treeIndex, nodeIndex, "categorical node has empty threshold set")
		}
	} else if math.IsNaN(node.Threshold) || math.IsInf(node.Threshold, 0) {
		return errors.NewConsistencyError(treeIndex, nodeIndex, fmt.Sprintf(
			"numerical node threshold %v is not finite", node.Threshold))
	}
	return nil
}
