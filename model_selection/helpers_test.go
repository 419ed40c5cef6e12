package model_selection

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/preprocessing"
)

var testCategories = []string{"Kama", "Rosa", "Canadian"}

// syntheticSeeds builds perClass records for each of three classes (codes
// 1..3) with four features around well separated class centres.
func syntheticSeeds(t *testing.T, perClass int) *dataset.Dataset {
	t.Helper()
	r := rand.New(rand.NewPCG(7, 7))
	centres := [][]float64{
		{12, 13.5, 0.86, 5.3},
		{18, 16.0, 0.88, 6.2},
		{11, 13.0, 0.84, 5.2},
	}
	spread := []float64{0.4, 0.3, 0.01, 0.1}

	var records []dataset.Record
	for c, centre := range centres {
		for j := 0; j < perClass; j++ {
			values := make([]float64, len(centre))
			for f := range values {
				values[f] = centre[f] + spread[f]*r.NormFloat64()
			}
			records = append(records, dataset.Record{Values: values, Label: c + 1})
		}
	}
	ds, err := dataset.New([]string{"area", "perimeter", "compactness", "kernel_length"}, records)
	require.NoError(t, err)
	return ds
}

func testRecipe() preprocessing.Recipe {
	return preprocessing.DefaultRecipe(testCategories)
}

func repeatLabels(counts ...int) []int {
	var labels []int
	for c, n := range counts {
		for i := 0; i < n; i++ {
			labels = append(labels, c+1)
		}
	}
	return labels
}

// stubSpec builds classifiers whose behaviour is chosen by the "mode"
// parameter: "ok" predicts uniform probabilities, "error" fails to fit,
// "panic" panics while fitting and "block" signals started and then waits
// for its context to be cancelled.
type stubSpec struct {
	started chan<- struct{}
}

func (stubSpec) Name() string { return "stub" }

func (s stubSpec) Build(p model.Params) (model.Classifier, error) {
	mode, err := p.String("mode", "ok")
	if err != nil {
		return nil, err
	}
	return &stubClassifier{mode: mode, started: s.started}, nil
}

type stubClassifier struct {
	mode    string
	started chan<- struct{}
}

func (s *stubClassifier) FitContext(ctx context.Context, X, y mat.Matrix) error {
	if s.mode != "block" {
		return s.Fit(X, y)
	}
	if s.started != nil {
		s.started <- struct{}{}
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(10 * time.Second):
		return nil
	}
}

func (s *stubClassifier) Fit(X, y mat.Matrix) error {
	switch s.mode {
	case "error":
		return errors.New("degenerate configuration")
	case "panic":
		panic("boom")
	}
	return nil
}

func (s *stubClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	p := mat.NewDense(n, 3, nil)
	for i := 0; i < n; i++ {
		p.SetRow(i, []float64{1.0 / 3, 1.0 / 3, 1.0 / 3})
	}
	return p, nil
}

func (s *stubClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	n, _ := X.Dims()
	return mat.NewDense(n, 1, nil), nil
}

func (s *stubClassifier) Classes() []int { return []int{0, 1, 2} }

func (s *stubClassifier) String() string { return fmt.Sprintf("stub(%s)", s.mode) }
