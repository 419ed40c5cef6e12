// Package seedtune classifies wheat seed varieties (Kama, Rosa, Canadian)
// from seven kernel measurements and tunes the classifiers doing it.
//
// A run loads the seeds table, splits it 70/30 with stratification, builds
// stratified folds on the training part and tunes each model specification
// by grid or Bayesian search. The best configuration per model is refitted
// on the whole training set and evaluated once on the test set.
//
// # Quick Start
//
//	cfg := config.Default()
//	ds, err := dataset.LoadFile("seeds_dataset.txt", cfg.LoadOptions())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	res, err := workflow.Run(ctx, cfg, ds)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, m := range res.Models {
//	    fmt.Println(m.Name, m.Best.Params.Key(), m.Report.ROCAUC)
//	}
//
// # Packages
//
//   - dataset: loading, summary statistics and class balance
//   - preprocessing: min-max scaling, correlation pruning, label coercion
//   - neighbors: weighted k-nearest-neighbours classifier
//   - neural_network: single hidden layer perceptron
//   - metrics: confusion matrix, macro metrics, ROC AUC, log loss
//   - model_selection: splits, folds, grid and Bayesian search, selection
//   - workflow: the end-to-end run and its artifacts
//   - config: YAML configuration
//   - report, viz: text tables and PNG plots
//   - core/model: estimator interfaces and hyperparameters
//   - core/parallel: worker pool and row-chunked parallelism
//   - pkg/errors, pkg/log: error types and structured logging
//
// The seedtune command in cmd/seedtune wires these together.
package seedtune
