// Package neighbors implements a weighted k-nearest-neighbour classifier.
//
// Votes follow the kernel weighting of the R kknn package: the distances of the
// k nearest training rows are divided by the distance of the (k+1)-th row,
// clamped to [1e-6, 1-1e-6] and passed through a kernel. Class probabilities
// are the normalised kernel weights per class.
package neighbors

import (
	"context"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/core/parallel"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

const (
	minNormDist = 1e-6
	maxNormDist = 1 - 1e-6

	// rows below this are predicted sequentially
	parallelThreshold = 64
)

// KNeighborsClassifier is a kernel-weighted nearest-neighbour classifier.
type KNeighborsClassifier struct {
	state *model.StateManager

	// Hyperparameters
	nNeighbors int
	weightFunc string
	distPower  float64

	kernel  KernelFunc
	X       *mat.Dense
	y       []int // index into classes
	classes []int
}

// KNeighborsOption is a functional option for KNeighborsClassifier.
type KNeighborsOption func(*KNeighborsClassifier)

// WithNeighbors sets the number of neighbours that vote.
func WithNeighbors(k int) KNeighborsOption {
	return func(c *KNeighborsClassifier) { c.nNeighbors = k }
}

// WithWeightFunc sets the kernel used to weight votes.
func WithWeightFunc(name string) KNeighborsOption {
	return func(c *KNeighborsClassifier) { c.weightFunc = name }
}

// WithDistPower sets the Minkowski exponent of the distance.
func WithDistPower(p float64) KNeighborsOption {
	return func(c *KNeighborsClassifier) { c.distPower = p }
}

// NewKNeighborsClassifier creates a classifier with 5 neighbours, rectangular
// weights and Euclidean distance unless overridden.
func NewKNeighborsClassifier(opts ...KNeighborsOption) (*KNeighborsClassifier, error) {
	c := &KNeighborsClassifier{
		state:      model.NewStateManager(),
		nNeighbors: 5,
		weightFunc: KernelRectangular,
		distPower:  2,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.nNeighbors < 1 {
		return nil, errors.NewValidationError("neighbors", "must be at least 1", c.nNeighbors)
	}
	if c.distPower < 1 {
		return nil, errors.NewValidationError("dist_power", "must be at least 1", c.distPower)
	}
	kernel, ok := Kernel(c.weightFunc)
	if !ok {
		return nil, errors.NewValidationError("weight_func", fmt.Sprintf("must be one of %v", KernelNames()), c.weightFunc)
	}
	c.kernel = kernel
	return c, nil
}

// Fit stores the training rows. It needs at least neighbors+1 rows because
// the (k+1)-th neighbour normalises the distances.
func (c *KNeighborsClassifier) Fit(X, y mat.Matrix) error {
	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("KNeighborsClassifier.Fit", "empty data", errors.ErrEmptyData)
	}
	if yRows != nSamples {
		return errors.NewDimensionError("KNeighborsClassifier.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("KNeighborsClassifier.Fit", "y must be a column vector")
	}
	if nSamples < c.nNeighbors+1 {
		return errors.NewValidationError("neighbors",
			fmt.Sprintf("needs at least %d training rows, got %d", c.nNeighbors+1, nSamples), c.nNeighbors)
	}

	c.state.Reset()
	c.X = mat.DenseCopyOf(X)
	c.classes = uniqueClasses(y)
	index := make(map[int]int, len(c.classes))
	for i, class := range c.classes {
		index[class] = i
	}
	c.y = make([]int, nSamples)
	for i := range c.y {
		c.y[i] = index[int(y.At(i, 0))]
	}

	c.state.SetDimensions(nFeatures, nSamples)
	c.state.SetFitted()

	log.GetLoggerWithName("neighbors").Debug("knn fitted",
		log.OperationKey, log.OperationFit,
		log.SamplesKey, nSamples,
		log.FeaturesKey, nFeatures,
		log.HyperParamsKey, c.String(),
	)
	return nil
}

// PredictProba returns one row of class probabilities per input row; columns
// follow Classes().
func (c *KNeighborsClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	return c.PredictProbaContext(context.Background(), X)
}

// PredictProbaContext is PredictProba that stops between rows once ctx is
// cancelled.
func (c *KNeighborsClassifier) PredictProbaContext(ctx context.Context, X mat.Matrix) (mat.Matrix, error) {
	if err := c.state.RequireFitted("KNeighborsClassifier", "PredictProba"); err != nil {
		return nil, err
	}
	r, nFeatures := X.Dims()
	if err := c.state.RequireFeatures("KNeighborsClassifier.PredictProba", nFeatures); err != nil {
		return nil, err
	}

	proba := mat.NewDense(r, len(c.classes), nil)
	err := parallel.Chunks(ctx, r, parallelThreshold, func(ctx context.Context, start, end int) error {
		row := make([]float64, nFeatures)
		votes := make([]float64, len(c.classes))
		for i := start; i < end; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			mat.Row(row, i, X)
			c.vote(row, votes)
			proba.SetRow(i, votes)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "KNeighborsClassifier.PredictProba")
	}
	return proba, nil
}

// Predict returns the class with the largest vote weight for each row. Ties go
// to the class listed first in Classes().
func (c *KNeighborsClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	proba, err := c.PredictProba(X)
	if err != nil {
		return nil, err
	}
	r, _ := proba.Dims()
	pred := mat.NewDense(r, 1, nil)
	for i := 0; i < r; i++ {
		pred.Set(i, 0, float64(c.classes[floats.MaxIdx(mat.Row(nil, i, proba))]))
	}
	return pred, nil
}

// Classes returns the class labels seen during Fit in ascending order.
func (c *KNeighborsClassifier) Classes() []int {
	return append([]int(nil), c.classes...)
}

// String describes the hyperparameters.
func (c *KNeighborsClassifier) String() string {
	return fmt.Sprintf("KNeighborsClassifier(neighbors=%d, weight_func=%s, dist_power=%g)",
		c.nNeighbors, c.weightFunc, c.distPower)
}

type neighbor struct {
	index int
	dist  float64
}

// vote fills votes with normalised kernel weights for one query row.
func (c *KNeighborsClassifier) vote(row []float64, votes []float64) {
	n, _ := c.X.Dims()
	nb := make([]neighbor, n)
	for i := 0; i < n; i++ {
		nb[i] = neighbor{index: i, dist: floats.Distance(row, c.X.RawRowView(i), c.distPower)}
	}
	// equal distances keep training order
	sort.SliceStable(nb, func(a, b int) bool { return nb[a].dist < nb[b].dist })

	k := c.nNeighbors
	maxDist := nb[k].dist
	if maxDist < minNormDist {
		maxDist = minNormDist
	}

	for j := range votes {
		votes[j] = 0
	}
	for _, m := range nb[:k] {
		d := errors.ClipValue(m.dist/maxDist, minNormDist, maxNormDist)
		votes[c.y[m.index]] += c.kernel(d)
	}
	if total := floats.Sum(votes); total > 0 {
		floats.Scale(1/total, votes)
	}
}

func uniqueClasses(y mat.Matrix) []int {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		seen[int(y.At(i, 0))] = struct{}{}
	}
	classes := make([]int, 0, len(seen))
	for class := range seen {
		classes = append(classes, class)
	}
	sort.Ints(classes)
	return classes
}
