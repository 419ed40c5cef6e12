package model_selection

import (
	"context"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/core/parallel"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
	"github.com/YuminosukeSato/seedtune/preprocessing"
)

// DefaultMetrics are scored on every fold when no metric set is configured.
var DefaultMetrics = []string{"accuracy", "roc_auc", "kap"}

// ScoreRecord is the outcome of one (configuration, fold, metric) attempt.
// Err is set, and Value meaningless, when the fold fit or the metric failed.
type ScoreRecord struct {
	Config int          `json:"config"`
	Params model.Params `json:"params"`
	Fold   int          `json:"fold"`
	Metric string       `json:"metric"`
	Value  float64      `json:"value"`
	Err    error        `json:"-"`
}

// OK reports whether the record holds a usable score.
func (r ScoreRecord) OK() bool { return r.Err == nil }

// Evaluator is the scoring primitive shared by every search strategy. For
// each fold it fits a fresh pipeline and classifier on the fold's training
// rows and scores the validation rows. Data and Folds are read-only.
type Evaluator struct {
	Spec    model.Spec
	Recipe  preprocessing.Recipe
	Data    *dataset.Dataset
	Folds   []Fold
	Metrics []string
	Pool    parallel.Pool
}

// Validate checks the evaluator before a search starts.
func (e *Evaluator) Validate() error {
	if e.Spec == nil {
		return errors.NewValidationError("model", "no model specification", nil)
	}
	if e.Data == nil || e.Data.Len() == 0 {
		return errors.NewValueError("Evaluator", "no training data")
	}
	if len(e.Folds) == 0 {
		return errors.NewValidationError("folds", "no folds", 0)
	}
	if err := e.Recipe.Validate(); err != nil {
		return err
	}
	for _, name := range e.metricNames() {
		if _, ok := metrics.Lookup(name); !ok {
			return errors.NewValidationError("metrics", "unknown metric", name)
		}
	}
	return nil
}

func (e *Evaluator) metricNames() []string {
	if len(e.Metrics) == 0 {
		return DefaultMetrics
	}
	return e.Metrics
}

// Score evaluates one configuration on every fold, running the folds on the
// pool. Records come back in fold order. On cancellation the records of the
// folds that finished are returned together with ctx.Err().
func (e *Evaluator) Score(ctx context.Context, config int, params model.Params) ([]ScoreRecord, error) {
	perFold := make([][]ScoreRecord, len(e.Folds))
	err := e.Pool.Run(ctx, len(e.Folds), func(ctx context.Context, i int) {
		perFold[i] = e.ScoreFold(ctx, config, params, e.Folds[i])
	})
	var out []ScoreRecord
	for _, recs := range perFold {
		out = append(out, recs...)
	}
	return out, err
}

// ScoreFold fits and scores one configuration on one fold. It never fails:
// errors, panics and cancellation of ctx become records with Err set.
func (e *Evaluator) ScoreFold(ctx context.Context, config int, params model.Params, fold Fold) []ScoreRecord {
	logger := log.GetLoggerWithName("model_selection")
	start := time.Now()
	names := e.metricNames()

	records := make([]ScoreRecord, len(names))
	for i, name := range names {
		records[i] = ScoreRecord{Config: config, Params: params, Fold: fold.Index, Metric: name}
	}

	pred, err := errors.SafeValue("fold fit", func() (*foldPrediction, error) {
		return e.fitPredict(ctx, params, fold)
	})
	if err != nil {
		fitErr := errors.NewFitError(e.Spec.Name(), config, fold.Index, err)
		msg := "fold failed"
		if ctx.Err() != nil {
			msg = "fold cancelled"
		}
		logger.Warn(msg, fitErr,
			log.ModelNameKey, e.Spec.Name(),
			log.ConfigKey, config,
			log.FoldKey, fold.Index,
			log.ErrorCodeKey, log.ErrorFoldFailed,
		)
		for i := range records {
			records[i].Err = fitErr
		}
		return records
	}

	for i, name := range names {
		m, _ := metrics.Lookup(name)
		v, err := m.Fn(pred.truth, pred.class, pred.proba, pred.nClasses)
		if err != nil {
			records[i].Err = errors.NewFitError(e.Spec.Name(), config, fold.Index, err)
			continue
		}
		records[i].Value = v
	}

	logger.Debug("fold scored",
		log.ModelNameKey, e.Spec.Name(),
		log.ConfigKey, config,
		log.FoldKey, fold.Index,
		log.HyperParamsKey, params.Key(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return records
}

// foldPrediction holds validation truth and predictions as class indices.
type foldPrediction struct {
	truth    []int
	class    []int
	proba    *mat.Dense
	nClasses int
}

func (e *Evaluator) fitPredict(ctx context.Context, params model.Params, fold Fold) (*foldPrediction, error) {
	train, err := e.Data.Subset(fold.Train)
	if err != nil {
		return nil, err
	}
	validate, err := e.Data.Subset(fold.Validate)
	if err != nil {
		return nil, err
	}

	pipeline := e.Recipe.New()
	clf, err := fitClassifier(ctx, e.Spec, pipeline, params, train)
	if err != nil {
		return nil, err
	}
	return predict(ctx, pipeline, clf, validate)
}

// fitClassifier fits the pipeline and a freshly built classifier on train.
func fitClassifier(ctx context.Context, spec model.Spec, pipeline *preprocessing.Pipeline, params model.Params, train *dataset.Dataset) (model.Classifier, error) {
	X, err := pipeline.FitTransform(train.X())
	if err != nil {
		return nil, err
	}
	y, err := pipeline.Labels(train.Labels())
	if err != nil {
		return nil, err
	}
	clf, err := spec.Build(params)
	if err != nil {
		return nil, err
	}
	if err := model.FitContext(ctx, clf, X, y); err != nil {
		return nil, err
	}
	return clf, nil
}

// predict applies a fitted pipeline and classifier to ds. Probability columns
// are expanded to every category, so a class missing from the training rows
// gets probability 0.
func predict(ctx context.Context, pipeline *preprocessing.Pipeline, clf model.Classifier, ds *dataset.Dataset) (*foldPrediction, error) {
	coercer := pipeline.LabelCoercer()
	truth, err := coercer.Coerce(ds.Labels())
	if err != nil {
		return nil, err
	}
	X, err := pipeline.Transform(ds.X())
	if err != nil {
		return nil, err
	}
	raw, err := model.PredictProbaContext(ctx, clf, X)
	if err != nil {
		return nil, err
	}

	k := coercer.Len()
	n, _ := raw.Dims()
	proba := mat.NewDense(n, k, nil)
	for j, c := range clf.Classes() {
		if c < 0 || c >= k {
			return nil, errors.NewValueError("predict", "classifier returned an unknown class")
		}
		proba.SetCol(c, mat.Col(nil, j, raw))
	}
	class := make([]int, n)
	for i := range class {
		class[i] = floats.MaxIdx(proba.RawRowView(i))
	}
	return &foldPrediction{truth: truth, class: class, proba: proba, nClasses: k}, nil
}
