package neural_network

import (
	"github.com/YuminosukeSato/seedtune/core/model"
)

// Hyperparameter names understood by Spec.
const (
	ParamHiddenUnits = "hidden_units"
	ParamEpochs      = "epochs"
	ParamPenalty     = "penalty"
)

// Spec builds MLPClassifier instances from tuning parameters. Seed fixes the
// weight initialisation so repeated fits of one configuration agree.
type Spec struct {
	Seed uint64
}

// Name implements model.Spec.
func (Spec) Name() string { return "mlp" }

// Build implements model.Spec.
func (s Spec) Build(params model.Params) (model.Classifier, error) {
	hidden, err := params.Int(ParamHiddenUnits, 5)
	if err != nil {
		return nil, err
	}
	epochs, err := params.Int(ParamEpochs, 100)
	if err != nil {
		return nil, err
	}
	penalty, err := params.Float(ParamPenalty, 0)
	if err != nil {
		return nil, err
	}
	clf, err := NewMLPClassifier(WithHiddenUnits(hidden), WithEpochs(epochs), WithPenalty(penalty), WithMLPSeed(s.Seed))
	if err != nil {
		return nil, err
	}
	return clf, nil
}
