// Package grove compiles trained LightGBM decision-tree ensembles into
// directly callable Go prediction code, bypassing tree-interpretation
// overhead at inference time.
//
// The pipeline has two stages. The parser reads the LightGBM text model
// format (model.txt) into typed per-tree records, and the forest builder
// assembles those records into a validated, immutable tree graph. That graph
// drives both the built-in interpreted predictor and the code generator,
// which emits a standalone Go source file with one function per tree.
//
// # Loading and predicting
//
//	model, err := grove.Load("model.txt")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	preds, err := model.Predict(X, 0) // 0 = one worker per CPU
//
// # Generating code
//
//	var buf bytes.Buffer
//	err := codegen.Generate(&buf, model.Forest(), codegen.Options{Package: "pred"})
//
// or from the command line:
//
//	grove compile model.txt -o pred.go --pkg pred
//
// The loaded model is immutable and safe for unrestricted concurrent reads;
// batch prediction splits rows across goroutines without locking.
package grove
