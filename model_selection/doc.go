// Package model_selection splits data, resamples it into stratified folds and
// tunes classifier hyperparameters by cross-validation.
//
// Two search strategies share one scoring primitive: GridSearch scores every
// configuration of a ParamGrid, and BayesSearch proposes configurations from
// a Space using a Gaussian-process surrogate with expected improvement. Fold
// fits are dispatched to an explicit parallel.Pool; a failed fold is recorded
// in the results and excluded from aggregation, never retried.
package model_selection
