// Package neural_network implements a single-hidden-layer feed-forward
// classifier trained by quasi-Newton optimisation.
package neural_network

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

// initRange bounds the uniform initial weights.
const initRange = 0.7

// MLPClassifier has one logistic hidden layer and a softmax output. The loss
// is the summed cross-entropy plus penalty times the squared non-bias weights.
type MLPClassifier struct {
	state *model.StateManager

	// Hyperparameters
	hiddenUnits int
	epochs      int
	penalty     float64
	seed        uint64

	// Model parameters
	classes []int
	nIn     int
	nOut    int
	weights []float64 // hidden block then output block, bias in column 0

	iterations int
	loss       float64
}

// MLPOption is a functional option for MLPClassifier.
type MLPOption func(*MLPClassifier)

// WithHiddenUnits sets the size of the hidden layer.
func WithHiddenUnits(n int) MLPOption {
	return func(m *MLPClassifier) { m.hiddenUnits = n }
}

// WithEpochs sets the maximum number of optimiser iterations.
func WithEpochs(n int) MLPOption {
	return func(m *MLPClassifier) { m.epochs = n }
}

// WithPenalty sets the L2 weight decay.
func WithPenalty(p float64) MLPOption {
	return func(m *MLPClassifier) { m.penalty = p }
}

// WithMLPSeed sets the seed of the weight initialisation.
func WithMLPSeed(seed uint64) MLPOption {
	return func(m *MLPClassifier) { m.seed = seed }
}

// NewMLPClassifier creates a classifier with 5 hidden units, 100 epochs and no
// weight decay unless overridden.
func NewMLPClassifier(opts ...MLPOption) (*MLPClassifier, error) {
	m := &MLPClassifier{
		state:       model.NewStateManager(),
		hiddenUnits: 5,
		epochs:      100,
		seed:        1,
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.hiddenUnits < 1 {
		return nil, errors.NewValidationError("hidden_units", "must be at least 1", m.hiddenUnits)
	}
	if m.epochs < 1 {
		return nil, errors.NewValidationError("epochs", "must be at least 1", m.epochs)
	}
	if m.penalty < 0 || math.IsNaN(m.penalty) {
		return nil, errors.NewValidationError("penalty", "must be non-negative", m.penalty)
	}
	return m, nil
}

// Fit trains the network with BFGS from seeded uniform initial weights.
func (m *MLPClassifier) Fit(X, y mat.Matrix) error {
	return m.FitContext(context.Background(), X, y)
}

// FitContext is Fit that aborts the optimiser once ctx is cancelled. The
// model is left unfitted in that case.
func (m *MLPClassifier) FitContext(ctx context.Context, X, y mat.Matrix) (err error) {
	defer errors.Recover(&err, "MLPClassifier.Fit")

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("MLPClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("MLPClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("MLPClassifier.Fit", "y must be a column vector")
	}

	m.state.Reset()
	m.classes = uniqueClasses(y)
	if len(m.classes) < 2 {
		return errors.NewValueError("MLPClassifier.Fit", "at least two classes are required")
	}
	m.nIn = nFeatures
	m.nOut = len(m.classes)

	index := make(map[int]int, len(m.classes))
	for i, c := range m.classes {
		index[c] = i
	}
	targets := make([]int, nSamples)
	for i := range targets {
		targets[i] = index[int(y.At(i, 0))]
	}

	net := m.newNet(withBias(X), targets)
	x0 := m.initialWeights()

	problem := optimize.Problem{
		Func: net.loss,
		Grad: net.grad,
	}
	settings := &optimize.Settings{
		MajorIterations:   m.epochs,
		GradientThreshold: 1e-8,
		Recorder:          cancelRecorder{ctx: ctx},
	}
	result, optErr := optimize.Minimize(problem, x0, settings, &optimize.BFGS{})
	if ctxErr := ctx.Err(); ctxErr != nil {
		return errors.Wrap(ctxErr, "MLPClassifier.Fit")
	}
	if result == nil {
		return errors.NewModelError("MLPClassifier.Fit", "optimisation failed", optErr)
	}
	if err := errors.CheckScalar("loss", result.F, result.MajorIterations); err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("weights", result.X, result.MajorIterations); err != nil {
		return err
	}

	m.weights = append([]float64(nil), result.X...)
	m.iterations = result.MajorIterations
	m.loss = result.F

	logger := log.GetLoggerWithName("neural_network")
	switch {
	case optErr != nil:
		// line search failures still leave the best point found
		logger.Debug("optimiser stopped early", optErr, log.IterationKey, m.iterations)
	case result.Status == optimize.IterationLimit:
		errors.Warn(errors.NewConvergenceWarning("MLPClassifier", m.epochs, ""))
	}
	logger.Debug("mlp fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.IterationKey, m.iterations,
		log.LossKey, m.loss,
		log.HyperParamsKey, m.String(),
	)

	m.state.SetDimensions(nFeatures, nSamples)
	m.state.SetFitted()
	return nil
}

// cancelRecorder stops optimize.Minimize at the next evaluation after ctx is
// cancelled.
type cancelRecorder struct {
	ctx context.Context
}

func (r cancelRecorder) Init() error { return r.ctx.Err() }

func (r cancelRecorder) Record(*optimize.Location, optimize.Operation, *optimize.Stats) error {
	return r.ctx.Err()
}

// PredictProba returns softmax class probabilities; columns follow Classes().
func (m *MLPClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MLPClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	_, nFeatures := X.Dims()
	if err := m.state.RequireFeatures("MLPClassifier.PredictProba", nFeatures); err != nil {
		return nil, err
	}
	net := m.newNet(withBias(X), nil)
	return net.forward(m.weights), nil
}

// Predict returns the most probable class per row.
func (m *MLPClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := m.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred.Set(i, 0, float64(m.classes[floats.MaxIdx(mat.Row(nil, i, proba))]))
	}
	return pred, nil
}

// Classes returns the class labels seen during Fit in ascending order.
func (m *MLPClassifier) Classes() []int {
	return append([]int(nil), m.classes...)
}

// Iterations returns the optimiser iterations used by the last Fit.
func (m *MLPClassifier) Iterations() int { return m.iterations }

// Loss returns the final penalised training loss.
func (m *MLPClassifier) Loss() float64 { return m.loss }

// String describes the hyperparameters.
func (m *MLPClassifier) String() string {
	return fmt.Sprintf("MLPClassifier(hidden_units=%d, epochs=%d, penalty=%g)", m.hiddenUnits, m.epochs, m.penalty)
}

func (m *MLPClassifier) initialWeights() []float64 {
	rng := rand.New(rand.NewPCG(m.seed, m.seed))
	n := m.hiddenUnits*(m.nIn+1) + m.nOut*(m.hiddenUnits+1)
	w := make([]float64, n)
	for i := range w {
		w[i] = (2*rng.Float64() - 1) * initRange
	}
	return w
}

func (m *MLPClassifier) newNet(xb *mat.Dense, targets []int) *net {
	return &net{
		xb:      xb,
		targets: targets,
		nIn:     m.nIn,
		nHidden: m.hiddenUnits,
		nOut:    m.nOut,
		penalty: m.penalty,
	}
}

// withBias prepends a column of ones.
func withBias(X mat.Matrix) *mat.Dense {
	r, c := X.Dims()
	xb := mat.NewDense(r, c+1, nil)
	for i := 0; i < r; i++ {
		xb.Set(i, 0, 1)
		for j := 0; j < c; j++ {
			xb.Set(i, j+1, X.At(i, j))
		}
	}
	return xb
}

func uniqueClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes
}
