// Standard attribute keys for seedtune log records.
//
// Keys follow a hierarchical naming convention ("model.name", "data.samples")
// so that JSON logs from a tuning run can be filtered per model, fold or
// configuration.

package log

// Model and operation context.
const (
	// ModelNameKey identifies the model specification, e.g. "knn" or "mlp".
	ModelNameKey = "model.name"

	// OperationKey specifies the operation being performed.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey indicates the lifecycle phase (training, validation, testing).
	PhaseKey = "ml.phase"

	// RunIDKey carries the identifier assigned to one end-to-end run.
	RunIDKey = "run.id"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"

	// SourceKey names the file or reader a dataset was loaded from.
	SourceKey = "data.source"

	// RetainedKey lists the feature columns kept after correlation pruning.
	RetainedKey = "data.retained_features"
)

// Tuning context.
const (
	// StrategyKey is the search strategy ("grid" or "bayes").
	StrategyKey = "tune.strategy"

	// ConfigKey is the index of a configuration in evaluation order.
	ConfigKey = "tune.config"

	// ConfigsKey is the number of configurations evaluated.
	ConfigsKey = "tune.configs"

	// FoldKey is the index of a cross-validation fold.
	FoldKey = "tune.fold"

	// FoldsKey is the number of cross-validation folds.
	FoldsKey = "tune.folds"

	// WorkersKey is the size of the worker pool.
	WorkersKey = "tune.workers"

	// HyperParamsKey holds the hyperparameter values of a configuration.
	HyperParamsKey = "model.hyperparams"

	// RandomSeedKey records the seed used for splitting, folding or search.
	RandomSeedKey = "config.random_seed"
)

// Performance and metrics.
const (
	DurationMsKey = "perf.duration_ms"
	MetricKey     = "metrics.name"
	ScoreKey      = "metrics.value"
	AccuracyKey   = "metrics.accuracy"
	LossKey       = "metrics.loss"
	IterationKey  = "training.iteration"
)

// Error context.
const (
	ErrorTypeKey = "error.type"
	ErrorCodeKey = "error.code"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationTune         = "tune"
	OperationSelect       = "select"
	OperationLoad         = "load"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhaseTesting       = "testing"
	PhasePreprocessing = "preprocessing"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorFoldFailed        = "FOLD_FAILED"
)
