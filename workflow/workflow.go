// Package workflow runs the complete tuning procedure: stratified split,
// fold construction, per-model search, selection, refit and test evaluation.
package workflow

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/seedtune/config"
	"github.com/YuminosukeSato/seedtune/core/parallel"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/model_selection"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

// Result is the outcome of one run.
type Result struct {
	RunID        string
	Started      time.Time
	Duration     time.Duration
	Seed         uint64
	SelectMetric string
	Train, Test  *dataset.Dataset
	Folds        []model_selection.Fold
	Models       []*ModelResult
}

// ModelResult is the outcome for one model specification.
type ModelResult struct {
	Name    string
	Tuning  *model_selection.Results
	Best    model_selection.ConfigSummary
	Final   *model_selection.FittedModel
	Report  *metrics.Report
	Curves  []metrics.ROCCurve
	Elapsed time.Duration
}

// Run executes the configured workflow on ds. Cancelling ctx stops the
// search in progress; Run then returns the error without a result.
func Run(ctx context.Context, cfg *config.Config, ds *dataset.Dataset) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	res := &Result{
		RunID:        uuid.NewString(),
		Started:      time.Now(),
		Seed:         cfg.Seed,
		SelectMetric: cfg.SelectMetric,
	}
	logger := log.GetLoggerWithName("workflow").With(log.RunIDKey, res.RunID)
	logger.Info("run started",
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.NumFeatures(),
		log.RandomSeedKey, cfg.Seed,
		log.StrategyKey, cfg.Search.Strategy,
	)

	var err error
	res.Train, res.Test, err = model_selection.TrainTestSplit(ds, cfg.TrainFraction, cfg.Seed)
	if err != nil {
		return nil, err
	}
	res.Folds, err = model_selection.NewStratifiedKFold(cfg.Folds, true, cfg.Seed).Split(res.Train.Labels())
	if err != nil {
		return nil, err
	}

	for _, mc := range cfg.EnabledModels() {
		mr, err := runModel(ctx, cfg, mc, res)
		if err != nil {
			logger.Error("model failed", err, log.ModelNameKey, mc.Name)
			return nil, errors.Wrapf(err, "model %s", mc.Name)
		}
		res.Models = append(res.Models, mr)
	}

	res.Duration = time.Since(res.Started)
	logger.Info("run finished", log.DurationMsKey, res.Duration.Milliseconds())
	return res, nil
}

func runModel(ctx context.Context, cfg *config.Config, mc config.ModelConfig, res *Result) (*ModelResult, error) {
	start := time.Now()
	spec, err := cfg.Spec(mc.Name)
	if err != nil {
		return nil, err
	}
	strategy, err := cfg.Strategy(mc)
	if err != nil {
		return nil, err
	}

	ev := &model_selection.Evaluator{
		Spec:    spec,
		Recipe:  cfg.Recipe(),
		Data:    res.Train,
		Folds:   res.Folds,
		Metrics: cfg.Metrics,
		Pool:    parallel.NewPool(cfg.Workers),
	}
	tuning, err := strategy.Run(ctx, ev)
	if err != nil {
		return nil, err
	}
	best, err := model_selection.SelectBest(tuning, cfg.SelectMetric)
	if err != nil {
		return nil, err
	}

	final, err := model_selection.FitFinal(ctx, spec, cfg.Recipe(), best.Params, res.Train)
	if err != nil {
		return nil, err
	}
	report, curves, err := final.Evaluate(res.Test)
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("workflow").Info("model selected",
		log.RunIDKey, res.RunID,
		log.ModelNameKey, mc.Name,
		log.HyperParamsKey, best.Params.Key(),
		log.MetricKey, cfg.SelectMetric,
		log.ScoreKey, best.Mean,
		log.AccuracyKey, report.Accuracy,
	)
	return &ModelResult{
		Name:    mc.Name,
		Tuning:  tuning,
		Best:    best,
		Final:   final,
		Report:  report,
		Curves:  curves,
		Elapsed: time.Since(start),
	}, nil
}

// Best returns the model with the best test value of the selection metric.
// Ties go to the model tuned first.
func (r *Result) Best() *ModelResult {
	m, ok := metrics.Lookup(r.SelectMetric)
	if !ok {
		return nil
	}
	var best *ModelResult
	var bestVal float64
	for _, mr := range r.Models {
		v, ok := mr.Report.Get(r.SelectMetric)
		if !ok {
			continue
		}
		if best == nil || m.Better(v, bestVal) {
			best, bestVal = mr, v
		}
	}
	return best
}
