// Package codegen emits a standalone Go source file from a validated forest.
// The generated file has one function per tree with the splits unrolled into
// nested if/else branches, a root function summing the trees in file order,
// and no dependency on grove itself. It consumes only the immutable forest
// graph; a forest that passed validation always generates compilable code.
package codegen

import (
	"fmt"
	"go/format"
	"io"
	"log/slog"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/groveml/grove/forest"
	"github.com/groveml/grove/pkg/errors"
	"github.com/groveml/grove/pkg/log"
)

// Options controls the shape of the generated file.
type Options struct {
	// Package is the generated package name. Defaults to "prediction".
	Package string
	// FuncName is the exported entry point name. Defaults to "Predict".
	FuncName string
}

func (o Options) withDefaults() Options {
	if o.Package == "" {
		o.Package = "prediction"
	}
	if o.FuncName == "" {
		o.FuncName = "Predict"
	}
	return o
}

// Generate writes gofmt-formatted Go source for the forest to w.
func Generate(w io.Writer, f *forest.Forest, opts Options) error {
	opts = opts.withDefaults()

	g := &generator{forest: f, opts: opts}
	src, err := g.generate()
	if err != nil {
		return err
	}
	if _, err := w.Write(src); err != nil {
		return errors.Wrap(err, "grove: writing generated code")
	}
	return nil
}

// GenerateFile is Generate writing to a new file at path.
func GenerateFile(path string, f *forest.Forest, opts Options) error {
	opts = opts.withDefaults()

	out, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "grove: creating %s", path)
	}
	defer out.Close()

	if err := Generate(out, f, opts); err != nil {
		return err
	}
	slog.Debug("code generated",
		slog.String(log.OutputPathKey, path),
		slog.String(log.PackageKey, opts.Package),
		slog.Int(log.TreesKey, f.NumTrees()),
	)
	return nil
}

type generator struct {
	forest *forest.Forest
	opts   Options
	buf    strings.Builder

	// package-level bitset vars for categorical nodes, in emission order
	catVars []catVar
}

type catVar struct {
	name  string
	words []int
}

func (g *generator) generate() ([]byte, error) {
	g.emitHeader()
	g.emitEntryPoint()
	for i, tree := range g.forest.Trees {
		g.emitTree(i, tree)
	}
	g.emitCatVars()
	g.emitHelpers()

	src, err := format.Source([]byte(g.buf.String()))
	if err != nil {
		// a validated forest should never produce unparseable code
		return nil, errors.Wrap(err, "grove: formatting generated code")
	}
	return src, nil
}

func (g *generator) emitHeader() {
	fmt.Fprintf(&g.buf, "// Code generated by grove. DO NOT EDIT.\n\n")
	fmt.Fprintf(&g.buf, "package %s\n\n", g.opts.Package)
	fmt.Fprintf(&g.buf, "import \"math\"\n\n")
	fmt.Fprintf(&g.buf, "// NumFeature is the input feature arity the model was trained with.\n")
	fmt.Fprintf(&g.buf, "const NumFeature = %d\n\n", g.forest.NumArgs)
}

func (g *generator) emitEntryPoint() {
	fmt.Fprintf(&g.buf, "// %s returns the raw ensemble prediction for one row of NumFeature values.\n", g.opts.FuncName)
	fmt.Fprintf(&g.buf, "func %s(row []float64) float64 {\n", g.opts.FuncName)
	if len(g.forest.Trees) == 0 {
		// empty model predicts the constant zero
		fmt.Fprintf(&g.buf, "\t_ = row\n\treturn 0\n}\n\n")
		return
	}
	fmt.Fprintf(&g.buf, "\tvar sum float64\n")
	// trees are summed in file order to pin down floating-point rounding
	for i := range g.forest.Trees {
		fmt.Fprintf(&g.buf, "\tsum += predictTree%d(row)\n", i)
	}
	fmt.Fprintf(&g.buf, "\treturn sum\n}\n\n")
}

func (g *generator) emitTree(index int, tree *forest.Tree) {
	fmt.Fprintf(&g.buf, "func predictTree%d(row []float64) float64 {\n", index)
	g.emitNode(index, tree.Root, 1)
	fmt.Fprintf(&g.buf, "}\n\n")
}

func (g *generator) emitNode(treeIndex int, ref forest.NodeRef, depth int) {
	indent := strings.Repeat("\t", depth)
	switch v := ref.(type) {
	case *forest.Leaf:
		fmt.Fprintf(&g.buf, "%sreturn %s\n", indent, floatLit(v.Value))
	case *forest.Node:
		fmt.Fprintf(&g.buf, "%sif %s {\n", indent, g.condition(treeIndex, v))
		g.emitNode(treeIndex, v.Left, depth+1)
		fmt.Fprintf(&g.buf, "%s}\n", indent)
		g.emitNode(treeIndex, v.Right, depth)
	}
}

func (g *generator) condition(treeIndex int, n *forest.Node) string {
	if n.Categorical {
		name := fmt.Sprintf("tree%dCat%d", treeIndex, n.Index)
		g.catVars = append(g.catVars, catVar{name: name, words: n.CatThreshold})
		return fmt.Sprintf("decideCategorical(row[%d], %v, %s[:])", n.SplitFeature, n.Missing == forest.MissingNaN, name)
	}
	return fmt.Sprintf("decideNumerical(row[%d], %s, %s, %v)",
		n.SplitFeature, floatLit(n.Threshold), missingName(n.Missing), n.DefaultLeft)
}

func (g *generator) emitCatVars() {
	if len(g.catVars) == 0 {
		return
	}
	fmt.Fprintf(&g.buf, "// category bitsets, one per categorical node\n")
	fmt.Fprintf(&g.buf, "var (\n")
	for _, cv := range g.catVars {
		words := make([]string, len(cv.words))
		for i, w := range cv.words {
			words[i] = strconv.Itoa(w)
		}
		fmt.Fprintf(&g.buf, "\t%s = [...]int{%s}\n", cv.name, strings.Join(words, ", "))
	}
	fmt.Fprintf(&g.buf, ")\n\n")
}

// emitHelpers writes the shared split predicates. They mirror LightGBM's
// numerical and categorical decision semantics, including missing-value
// routing.
func (g *generator) emitHelpers() {
	g.buf.WriteString(`const (
	missingNone = iota
	missingZero
	missingNaN
)

const zeroThreshold = 1e-35

func decideNumerical(fval, threshold float64, missing int, defaultLeft bool) bool {
	if math.IsNaN(fval) && missing != missingNaN {
		fval = 0.0
	}
	isZero := fval > -zeroThreshold && fval <= zeroThreshold
	if (missing == missingZero && isZero) || (missing == missingNaN && math.IsNaN(fval)) {
		return defaultLeft
	}
	return fval <= threshold
}

func decideCategorical(fval float64, missingNaNFlag bool, bitset []int) bool {
	if math.IsNaN(fval) {
		if missingNaNFlag {
			return false
		}
		fval = 0.0
	}
	category := int(fval)
	if category < 0 {
		return false
	}
	word := category / 32
	if word >= len(bitset) {
		return false
	}
	return bitset[word]>>(uint(category%32))&1 == 1
}
`)
}

func missingName(m forest.MissingType) string {
	switch m {
	case forest.MissingZero:
		return "missingZero"
	case forest.MissingNaN:
		return "missingNaN"
	default:
		return "missingNone"
	}
}

// floatLit renders a float64 as a Go expression that round-trips exactly.
func floatLit(v float64) string {
	switch {
	case math.IsNaN(v):
		return "math.NaN()"
	case math.IsInf(v, 1):
		return "math.Inf(1)"
	case math.IsInf(v, -1):
		return "math.Inf(-1)"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
