package grove

import (
	"log/slog"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/groveml/grove/core/parallel"
	"github.com/groveml/grove/forest"
	"github.com/groveml/grove/parser"
	"github.com/groveml/grove/pkg/errors"
	"github.com/groveml/grove/pkg/log"
)

// Model is a LightGBM ensemble loaded from a model.txt file: the validated
// forest plus the pandas category table the file carries for categorical
// features. A Model is immutable after Load and safe for concurrent use.
type Model struct {
	path              string
	forest            *forest.Forest
	objective         []string
	pandasCategorical [][]interface{}
}

// Load reads, parses, and validates a model file. The whole file must parse;
// there is no partially loaded model.
func Load(path string) (model *Model, err error) {
	defer errors.Recover(&err, "grove.Load")
	start := time.Now()

	modelFile, err := parser.ParseModelFile(path)
	if err != nil {
		return nil, err
	}
	f, err := forest.Build(modelFile)
	if err != nil {
		return nil, err
	}
	pandasCategorical, err := parser.ParsePandasCategorical(path)
	if err != nil {
		return nil, err
	}

	slog.Debug("model loaded",
		slog.String(log.ModelPathKey, path),
		slog.Int(log.TreesKey, f.NumTrees()),
		slog.Int(log.FeaturesKey, f.NumArgs),
		slog.Int64(log.DurationMsKey, time.Since(start).Milliseconds()),
	)
	return &Model{
		path:              path,
		forest:            f,
		objective:         modelFile.GeneralInfo.Objective,
		pandasCategorical: pandasCategorical,
	}, nil
}

// Info holds the header metadata of a model file, available without parsing
// the trees.
type Info struct {
	NumFeature int
	Version    string
	Objective  []string
}

// ReadInfo decodes only the model file's header block. It is the cheap path
// when tree structure is not needed.
func ReadInfo(path string) (*Info, error) {
	gi, err := parser.ParseGeneralInfo(path)
	if err != nil {
		return nil, err
	}
	return &Info{
		NumFeature: gi.NumFeature(),
		Version:    gi.Version,
		Objective:  gi.Objective,
	}, nil
}

// NumFeature returns the number of features (columns) the model expects.
func (m *Model) NumFeature() int {
	return m.forest.NumArgs
}

// NumTrees returns the number of trees in the ensemble.
func (m *Model) NumTrees() int {
	return m.forest.NumTrees()
}

// Objective returns the objective tokens from the model header,
// e.g. ["binary", "sigmoid:1"].
func (m *Model) Objective() []string {
	return m.objective
}

// Forest exposes the validated tree graph for code generation and
// inspection. The graph is read-only.
func (m *Model) Forest() *forest.Forest {
	return m.forest
}

// PandasCategorical returns the per-categorical-feature category-label lists
// from the file's trailer, in file order, or nil when the model was trained
// without pandas categoricals.
func (m *Model) PandasCategorical() [][]interface{} {
	return m.pandasCategorical
}

// PredictSingle returns the raw prediction for one row.
func (m *Model) PredictSingle(features []float64) (float64, error) {
	if len(features) != m.NumFeature() {
		return 0, errors.NewDimensionError("PredictSingle", m.NumFeature(), len(features), 1)
	}
	return m.forest.Evaluate(features), nil
}

// Predict returns raw predictions for every row of X. Rows are split across
// nJobs goroutines; zero or negative means one goroutine per CPU, one keeps
// evaluation sequential. Row results are independent, so the split does not
// change any row's floating-point accumulation order.
func (m *Model) Predict(X mat.Matrix, nJobs int) (*mat.VecDense, error) {
	rows, cols := X.Dims()
	if cols != m.NumFeature() {
		return nil, errors.NewDimensionError("Predict", m.NumFeature(), cols, 1)
	}

	if rows == 0 {
		return &mat.VecDense{}, nil
	}
	predictions := mat.NewVecDense(rows, nil)

	parallel.ParallelizeWithWorkers(rows, nJobs, func(start, end int) {
		features := make([]float64, cols)
		for i := start; i < end; i++ {
			for j := 0; j < cols; j++ {
				features[j] = X.At(i, j)
			}
			predictions.SetVec(i, m.forest.Evaluate(features))
		}
	})

	slog.Debug("batch prediction done",
		slog.String(log.ModelPathKey, m.path),
		slog.Int(log.SamplesKey, rows),
		slog.Int(log.WorkersKey, nJobs),
	)
	return predictions, nil
}
