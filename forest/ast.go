// Package forest defines the in-memory tree representation built from a
// parsed LightGBM model file, and the builder that assembles and validates
// it. The graph is immutable once built: Forest owns Trees, Trees own Nodes,
// Nodes own their two children exclusively. That read-only discipline is what
// makes concurrent prediction and code generation over the graph safe
// without locks.
package forest

import "math"

// NodeRef is a reference to a tree vertex: either an internal *Node or a
// terminal *Leaf. It is a closed interface with exactly those two variants;
// consumers must handle both.
type NodeRef interface {
	isNodeRef()
}

// Leaf is a terminal node holding one prediction contribution.
type Leaf struct {
	Index int // position in the tree's leaf array
	Value float64
}

func (*Leaf) isNodeRef() {}

// MissingType says which feature values a node routes to its default side.
type MissingType uint8

const (
	MissingNone MissingType = iota
	MissingZero
	MissingNaN
)

// decision_type bit layout used by LightGBM.
const (
	categoricalMask = 1 << 0
	defaultLeftMask = 1 << 1
	missingTypeMask = 3 << 2
)

// Node is an internal decision node. For numerical nodes the split is
// "feature <= Threshold"; for categorical nodes it is membership of the
// feature's integer category in the CatThreshold bitset. Left and Right are
// wired by the builder and never nil on a validated tree.
type Node struct {
	Index        int // position in the tree's node array
	SplitFeature int
	Threshold    float64
	DecisionType int // raw decision_type flag word from the model file
	Categorical  bool
	DefaultLeft  bool
	Missing      MissingType
	CatThreshold []int // bitset words over category values, categorical nodes only
	Left         NodeRef
	Right        NodeRef
}

func (*Node) isNodeRef() {}

// Tree is one boosting round's decision tree. A tree with zero internal
// nodes has a *Leaf as its root.
type Tree struct {
	TreeIndex int
	Root      NodeRef
	NumArgs   int // input feature arity, shared with the forest
	NumLeaves int
	NumNodes  int
	NumCat    int
}

// Forest is the full ensemble: trees in file order, sharing one feature
// arity. Tree order is preserved because prediction accumulates tree outputs
// in order, which pins down floating-point rounding.
type Forest struct {
	Trees   []*Tree
	NumArgs int
}

// Values below ±zeroThreshold are treated as zero for missing-value routing,
// matching LightGBM's kZeroThreshold.
const zeroThreshold = 1e-35

// Decide reports whether a sample routes to the node's left child.
func (n *Node) Decide(fval float64) bool {
	if n.Categorical {
		return n.decideCategorical(fval)
	}
	return n.decideNumerical(fval)
}

func (n *Node) decideNumerical(fval float64) bool {
	if math.IsNaN(fval) && n.Missing != MissingNaN {
		fval = 0.0
	}
	isZero := fval > -zeroThreshold && fval <= zeroThreshold
	if (n.Missing == MissingZero && isZero) || (n.Missing == MissingNaN && math.IsNaN(fval)) {
		return n.DefaultLeft
	}
	return fval <= n.Threshold
}

func (n *Node) decideCategorical(fval float64) bool {
	if math.IsNaN(fval) {
		if n.Missing == MissingNaN {
			return false
		}
		fval = 0.0
	}
	category := int(fval)
	if category < 0 {
		return false
	}
	return n.containsCategory(category)
}

// containsCategory probes the node's category bitset.
func (n *Node) containsCategory(category int) bool {
	word := category / 32
	if word >= len(n.CatThreshold) {
		return false
	}
	return n.CatThreshold[word]>>(uint(category%32))&1 == 1
}

// Evaluate walks the tree for one sample. features must have length NumArgs.
func (t *Tree) Evaluate(features []float64) float64 {
	ref := t.Root
	for {
		switch v := ref.(type) {
		case *Leaf:
			return v.Value
		case *Node:
			if v.Decide(features[v.SplitFeature]) {
				ref = v.Left
			} else {
				ref = v.Right
			}
		}
	}
}

// Evaluate sums every tree's contribution for one sample, in tree order.
func (f *Forest) Evaluate(features []float64) float64 {
	var sum float64
	for _, tree := range f.Trees {
		sum += tree.Evaluate(features)
	}
	return sum
}

// NumTrees returns the ensemble size.
func (f *Forest) NumTrees() int {
	return len(f.Trees)
}

// LeafValues collects every leaf's prediction contribution across the whole
// forest, in tree order and leaf-index order within each tree.
func (f *Forest) LeafValues() []float64 {
	var values []float64
	for _, tree := range f.Trees {
		leaves := make([]*Leaf, tree.NumLeaves)
		collectLeaves(tree.Root, leaves)
		for _, leaf := range leaves {
			if leaf != nil {
				values = append(values, leaf.Value)
			}
		}
	}
	return values
}

func collectLeaves(ref NodeRef, leaves []*Leaf) {
	switch v := ref.(type) {
	case *Leaf:
		leaves[v.Index] = v
	case *Node:
		collectLeaves(v.Left, leaves)
		collectLeaves(v.Right, leaves)
	}
}
