package model_selection

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

// Bayesian search defaults.
const (
	DefaultInitial    = 5
	DefaultIterations = 50
	DefaultNoImprove  = 10
	DefaultCandidates = 500
)

// BayesSearch proposes configurations sequentially. After Initial random
// configurations it fits a Gaussian process to the mean fold score of every
// evaluated configuration and picks the random candidate with the highest
// expected improvement. A configuration is never scored twice.
type BayesSearch struct {
	Space Space
	// Metric is the objective; loss metrics are minimised.
	Metric     string
	Initial    int
	Iterations int
	// NoImprove stops the search after that many proposals without a new
	// best. Zero disables the early stop.
	NoImprove  int
	Candidates int
	// XI is the expected-improvement margin on the standardised scale.
	XI   float64
	Seed uint64
}

// BayesOption configures a BayesSearch.
type BayesOption func(*BayesSearch)

// WithInitial sets the number of random starting configurations.
func WithInitial(n int) BayesOption {
	return func(b *BayesSearch) { b.Initial = n }
}

// WithIterations sets the maximum number of guided proposals.
func WithIterations(n int) BayesOption {
	return func(b *BayesSearch) { b.Iterations = n }
}

// WithNoImprove sets the early-stop patience.
func WithNoImprove(n int) BayesOption {
	return func(b *BayesSearch) { b.NoImprove = n }
}

// WithCandidates sets how many random candidates each proposal considers.
func WithCandidates(n int) BayesOption {
	return func(b *BayesSearch) { b.Candidates = n }
}

// WithBayesSeed sets the random seed.
func WithBayesSeed(seed uint64) BayesOption {
	return func(b *BayesSearch) { b.Seed = seed }
}

// NewBayesSearch creates a Bayesian search over space optimising metric.
func NewBayesSearch(space Space, metric string, opts ...BayesOption) *BayesSearch {
	b := &BayesSearch{
		Space:      space,
		Metric:     metric,
		Initial:    DefaultInitial,
		Iterations: DefaultIterations,
		NoImprove:  DefaultNoImprove,
		Candidates: DefaultCandidates,
		XI:         0.01,
		Seed:       1,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Name implements Strategy.
func (b *BayesSearch) Name() string { return "bayes" }

func (b *BayesSearch) validate(ev *Evaluator) (metrics.Metric, error) {
	if err := b.Space.Validate(); err != nil {
		return metrics.Metric{}, err
	}
	if b.Initial < 1 {
		return metrics.Metric{}, errors.NewValidationError("initial", "must be at least 1", b.Initial)
	}
	if b.Iterations < 0 {
		return metrics.Metric{}, errors.NewValidationError("iterations", "must not be negative", b.Iterations)
	}
	m, ok := metrics.Lookup(b.Metric)
	if !ok {
		return metrics.Metric{}, errors.NewValidationError("metric", "unknown metric", b.Metric)
	}
	if err := ev.Validate(); err != nil {
		return metrics.Metric{}, err
	}
	for _, name := range ev.metricNames() {
		if name == b.Metric {
			return m, nil
		}
	}
	return metrics.Metric{}, errors.NewValidationError("metric", "objective is not among the evaluated metrics", b.Metric)
}

// bayesState is the history the surrogate is fitted to.
type bayesState struct {
	seen    map[string]bool
	points  [][]float64
	targets []float64
	best    float64
}

// Run evaluates the initial configurations, then proposes up to Iterations
// more. Folds inside one configuration run on the evaluator's pool.
func (b *BayesSearch) Run(ctx context.Context, ev *Evaluator) (*Results, error) {
	objective, err := b.validate(ev)
	if err != nil {
		return nil, err
	}

	logger := log.GetLoggerWithName("model_selection")
	logger.Info("bayesian search started",
		log.OperationKey, log.OperationTune,
		log.StrategyKey, b.Name(),
		log.ModelNameKey, ev.Spec.Name(),
		log.FoldsKey, len(ev.Folds),
		log.WorkersKey, ev.Pool.Size(),
		log.RandomSeedKey, b.Seed,
	)
	start := time.Now()

	res := &Results{
		Model:    ev.Spec.Name(),
		Strategy: b.Name(),
		Metrics:  append([]string(nil), ev.metricNames()...),
		Folds:    len(ev.Folds),
	}
	st := &bayesState{seen: make(map[string]bool), best: math.Inf(-1)}
	r := rand.New(rand.NewPCG(b.Seed, b.Seed))

	evaluate := func(p model.Params) (improved bool, err error) {
		u, err := b.Space.Encode(p)
		if err != nil {
			return false, err
		}
		st.seen[p.Key()] = true
		idx := len(res.Configs)
		res.Configs = append(res.Configs, p)

		recs, err := ev.Score(ctx, idx, p)
		res.Records = append(res.Records, recs...)
		if err != nil {
			return false, err
		}

		y, ok := meanObjective(recs, b.Metric, objective.Minimize)
		if !ok {
			return false, nil
		}
		st.points = append(st.points, u)
		st.targets = append(st.targets, y)
		if y > st.best {
			st.best = y
			return true, nil
		}
		return false, nil
	}

	// Random starting configurations. Small spaces may hold fewer distinct
	// configurations than requested, so sampling gives up after a bounded
	// number of repeats.
	for tries := 0; len(res.Configs) < b.Initial && tries < b.Initial*100; tries++ {
		p := b.Space.Sample(r)
		if st.seen[p.Key()] {
			continue
		}
		if _, err := evaluate(p); err != nil {
			return res, b.stopped(logger, ev, start, err)
		}
	}

	stale := 0
	for it := 0; it < b.Iterations; it++ {
		if err := ctx.Err(); err != nil {
			return res, b.stopped(logger, ev, start, err)
		}
		p, ok := b.propose(r, st)
		if !ok {
			logger.Debug("search space exhausted", log.IterationKey, it)
			break
		}
		improved, err := evaluate(p)
		if err != nil {
			return res, b.stopped(logger, ev, start, err)
		}
		if improved {
			stale = 0
			continue
		}
		stale++
		if b.NoImprove > 0 && stale >= b.NoImprove {
			logger.Debug("no improvement, stopping early",
				log.IterationKey, it,
				log.ScoreKey, st.best,
			)
			break
		}
	}

	logger.Info("bayesian search finished",
		log.ModelNameKey, ev.Spec.Name(),
		log.ConfigsKey, len(res.Configs),
		log.MetricKey, b.Metric,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return res, nil
}

func (b *BayesSearch) stopped(logger log.Logger, ev *Evaluator, start time.Time, err error) error {
	logger.Warn("bayesian search stopped", err,
		log.ModelNameKey, ev.Spec.Name(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return errors.Wrap(err, "bayesian search")
}

// propose returns the unseen candidate with the highest expected
// improvement. Without at least two scored configurations, or when the
// surrogate cannot be fitted, the first unseen candidate is returned.
func (b *BayesSearch) propose(r *rand.Rand, st *bayesState) (model.Params, bool) {
	n := b.Candidates
	if n <= 0 {
		n = DefaultCandidates
	}

	var gp *gaussianProcess
	if len(st.points) >= 2 {
		var err error
		if gp, err = fitGP(st.points, st.targets, defaultLengthScale, defaultNoise); err != nil {
			log.GetLoggerWithName("model_selection").Debug("surrogate fit failed", err)
			gp = nil
		}
	}

	var best model.Params
	bestEI := math.Inf(-1)
	for i := 0; i < n; i++ {
		p := b.Space.Sample(r)
		if st.seen[p.Key()] {
			continue
		}
		if gp == nil {
			return p, true
		}
		u, err := b.Space.Encode(p)
		if err != nil {
			continue
		}
		mu, sigma := gp.predict(u)
		if ei := expectedImprovement(mu, sigma, st.best, b.XI*gp.scale); ei > bestEI {
			best, bestEI = p, ei
		}
	}
	return best, best != nil
}

// meanObjective averages the successful fold scores of metric, negated for
// loss metrics so the search always maximises.
func meanObjective(recs []ScoreRecord, metric string, minimize bool) (float64, bool) {
	var vals []float64
	for _, rec := range recs {
		if rec.Metric == metric && rec.OK() {
			vals = append(vals, rec.Value)
		}
	}
	if len(vals) == 0 {
		return 0, false
	}
	m := stat.Mean(vals, nil)
	if minimize {
		m = -m
	}
	return m, true
}
