package model_selection

import (
	"context"
	"time"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

// Strategy is a hyperparameter search over an Evaluator. Implementations
// return the records gathered so far together with ctx.Err() when cancelled.
type Strategy interface {
	Name() string
	Run(ctx context.Context, ev *Evaluator) (*Results, error)
}

// GridSearch scores every combination of Grid on every fold.
type GridSearch struct {
	Grid ParamGrid
}

// NewGridSearch creates a grid search.
func NewGridSearch(grid ParamGrid) *GridSearch {
	return &GridSearch{Grid: grid}
}

// Name implements Strategy.
func (g *GridSearch) Name() string { return "grid" }

// Run dispatches all configuration × fold units to the evaluator's pool.
// Records are stored by unit index, so the output order is the same for any
// worker count: configuration-major, then fold, then metric.
func (g *GridSearch) Run(ctx context.Context, ev *Evaluator) (*Results, error) {
	if err := g.Grid.Validate(); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	configs := g.Grid.Combinations()
	k := len(ev.Folds)
	units := make([][]ScoreRecord, len(configs)*k)

	logger := log.GetLoggerWithName("model_selection")
	logger.Info("grid search started",
		log.OperationKey, log.OperationTune,
		log.StrategyKey, g.Name(),
		log.ModelNameKey, ev.Spec.Name(),
		log.ConfigsKey, len(configs),
		log.FoldsKey, k,
		log.WorkersKey, ev.Pool.Size(),
	)
	start := time.Now()

	runErr := ev.Pool.Run(ctx, len(units), func(ctx context.Context, i int) {
		c, f := i/k, i%k
		units[i] = ev.ScoreFold(ctx, c, configs[c], ev.Folds[f])
	})

	res := &Results{
		Model:    ev.Spec.Name(),
		Strategy: g.Name(),
		Metrics:  append([]string(nil), ev.metricNames()...),
		Folds:    k,
		Configs:  configs,
	}
	for _, recs := range units {
		res.Records = append(res.Records, recs...)
	}

	if runErr != nil {
		logger.Warn("grid search cancelled", runErr,
			log.ModelNameKey, ev.Spec.Name(),
			log.DurationMsKey, time.Since(start).Milliseconds(),
		)
		return res, errors.Wrap(runErr, "grid search")
	}
	logger.Info("grid search finished",
		log.ModelNameKey, ev.Spec.Name(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}
