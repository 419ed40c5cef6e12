package model_selection

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
	"github.com/YuminosukeSato/seedtune/preprocessing"
)

// FittedModel is a pipeline and classifier refitted on the whole training set.
type FittedModel struct {
	Model    string
	Params   model.Params
	Features []string

	pipeline   *preprocessing.Pipeline
	classifier model.Classifier
}

// Prediction holds class indices and probabilities for a labelled dataset.
type Prediction struct {
	Truth []int
	Class []int
	Proba *mat.Dense
}

// FitFinal refits the recipe and the chosen configuration on train. The fit
// stops with ctx.Err() when ctx is cancelled.
func FitFinal(ctx context.Context, spec model.Spec, recipe preprocessing.Recipe, params model.Params, train *dataset.Dataset) (*FittedModel, error) {
	if spec == nil {
		return nil, errors.NewValidationError("model", "no model specification", nil)
	}
	if train == nil || train.Len() == 0 {
		return nil, errors.NewValueError("FitFinal", "no training data")
	}
	if err := recipe.Validate(); err != nil {
		return nil, err
	}

	pipeline := recipe.New()
	clf, err := errors.SafeValue("final fit", func() (model.Classifier, error) {
		return fitClassifier(ctx, spec, pipeline, params, train)
	})
	if err != nil {
		return nil, errors.NewModelError("FitFinal", spec.Name(), err)
	}
	features, err := pipeline.RetainedFeatures(train.Features())
	if err != nil {
		return nil, err
	}

	log.GetLoggerWithName("model_selection").Info("final model fitted",
		log.OperationKey, log.OperationFit,
		log.ModelNameKey, spec.Name(),
		log.HyperParamsKey, params.Key(),
		log.SamplesKey, train.Len(),
		log.RetainedKey, features,
	)
	return &FittedModel{
		Model:      spec.Name(),
		Params:     params.Clone(),
		Features:   features,
		pipeline:   pipeline,
		classifier: clf,
	}, nil
}

// Predict applies the frozen pipeline and the classifier to ds.
func (m *FittedModel) Predict(ds *dataset.Dataset) (*Prediction, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.NewValueError("FittedModel.Predict", "no data")
	}
	p, err := predict(context.Background(), m.pipeline, m.classifier, ds)
	if err != nil {
		return nil, err
	}
	return &Prediction{Truth: p.truth, Class: p.class, Proba: p.proba}, nil
}

// Categories returns the class names in index order.
func (m *FittedModel) Categories() []string {
	return append([]string(nil), m.pipeline.LabelCoercer().Categories...)
}

// Evaluate predicts ds and computes the metric suite and per-class ROC curves.
func (m *FittedModel) Evaluate(ds *dataset.Dataset) (*metrics.Report, []metrics.ROCCurve, error) {
	pred, err := m.Predict(ds)
	if err != nil {
		return nil, nil, err
	}
	labels := m.Categories()
	report, err := metrics.Evaluate(pred.Truth, pred.Class, pred.Proba, labels)
	if err != nil {
		return nil, nil, err
	}
	curves, err := metrics.ROCCurves(pred.Truth, pred.Proba, labels)
	if err != nil {
		return nil, nil, err
	}

	log.GetLoggerWithName("model_selection").Info("test set evaluated",
		log.PhaseKey, log.PhaseTesting,
		log.ModelNameKey, m.Model,
		log.SamplesKey, ds.Len(),
		log.AccuracyKey, report.Accuracy,
	)
	return report, curves, nil
}
