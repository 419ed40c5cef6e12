package neighbors

import (
	"github.com/YuminosukeSato/seedtune/core/model"
)

// Hyperparameter names understood by Spec.
const (
	ParamNeighbors  = "neighbors"
	ParamWeightFunc = "weight_func"
	ParamDistPower  = "dist_power"
)

// Spec builds KNeighborsClassifier instances from tuning parameters.
type Spec struct{}

// Name implements model.Spec.
func (Spec) Name() string { return "knn" }

// Build implements model.Spec.
func (Spec) Build(params model.Params) (model.Classifier, error) {
	k, err := params.Int(ParamNeighbors, 5)
	if err != nil {
		return nil, err
	}
	kernel, err := params.String(ParamWeightFunc, KernelRectangular)
	if err != nil {
		return nil, err
	}
	p, err := params.Float(ParamDistPower, 2)
	if err != nil {
		return nil, err
	}
	clf, err := NewKNeighborsClassifier(WithNeighbors(k), WithWeightFunc(kernel), WithDistPower(p))
	if err != nil {
		return nil, err
	}
	return clf, nil
}
