// Standard attribute keys for grove log records.
//
// Keys follow a hierarchical naming convention (e.g. "model.path",
// "forest.trees") so that records from the parser, builder, and code
// generator can be filtered uniformly.
package log

// Model and operation context.
const (
	// ModelPathKey is the path of the model file being processed.
	ModelPathKey = "model.path"

	// OperationKey names the pipeline stage being performed.
	// Standard values: "parse", "build", "codegen", "predict".
	OperationKey = "grove.operation"

	// ComponentKey identifies the package performing the operation.
	// Examples: "parser", "forest", "codegen".
	ComponentKey = "grove.component"
)

// Forest shape.
const (
	// TreesKey is the number of trees in the parsed forest.
	TreesKey = "forest.trees"

	// FeaturesKey is the input feature arity shared by every tree.
	FeaturesKey = "forest.features"

	// TreeIndexKey identifies a single tree when an operation is tree-scoped.
	TreeIndexKey = "tree.index"

	// NodesKey is the internal node count of a tree.
	NodesKey = "tree.nodes"

	// LeavesKey is the leaf count of a tree.
	LeavesKey = "tree.leaves"

	// CategoricalNodesKey is the categorical node count of a tree.
	CategoricalNodesKey = "tree.categorical_nodes"
)

// Prediction and performance.
const (
	// SamplesKey is the number of rows in a prediction batch.
	SamplesKey = "data.samples"

	// WorkersKey is the number of goroutines used for a prediction batch.
	WorkersKey = "perf.workers"

	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"
)

// Code generation.
const (
	// OutputPathKey is the path of the generated source file.
	OutputPathKey = "codegen.output"

	// PackageKey is the package name of the generated source file.
	PackageKey = "codegen.package"
)
