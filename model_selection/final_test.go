package model_selection

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/core/parallel"
	"github.com/YuminosukeSato/seedtune/neighbors"
	"github.com/YuminosukeSato/seedtune/neural_network"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// TestEndToEnd runs the whole tuning workflow on 30 synthetic records:
// 70/30 split, 5-fold grid search over 2×2 configurations, selection, refit
// on the 21 training records and evaluation on the 9 test records.
func TestEndToEnd(t *testing.T) {
	ds := syntheticSeeds(t, 10)
	require.Equal(t, 30, ds.Len())

	train, test, err := TrainTestSplit(ds, 0.7, 2024)
	require.NoError(t, err)
	require.Equal(t, 21, train.Len())
	require.Equal(t, 9, test.Len())

	folds, err := NewStratifiedKFold(5, true, 2024).Split(train.Labels())
	require.NoError(t, err)

	ev := &Evaluator{
		Spec:    neighbors.Spec{},
		Recipe:  testRecipe(),
		Data:    train,
		Folds:   folds,
		Metrics: []string{"accuracy", "roc_auc", "kap"},
		Pool:    parallel.NewPool(4),
	}
	res, err := NewGridSearch(knnGrid()).Run(context.Background(), ev)
	require.NoError(t, err)
	assert.Equal(t, 20, res.Attempts())

	summaries, err := res.Summarize("accuracy")
	require.NoError(t, err)
	scored := 0
	for _, s := range summaries {
		scored += s.N + s.Failed
	}
	assert.Equal(t, 20, scored)

	best, err := SelectBest(res, "accuracy")
	require.NoError(t, err)

	fitted, err := FitFinal(context.Background(), ev.Spec, ev.Recipe, best.Params, train)
	require.NoError(t, err)
	assert.Equal(t, "knn", fitted.Model)
	assert.NotEmpty(t, fitted.Features)

	report, curves, err := fitted.Evaluate(test)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, report.Accuracy, 0.0)
	assert.LessOrEqual(t, report.Accuracy, 1.0)
	assert.Len(t, curves, 3)

	counts := test.ClassCounts()
	rows, cols := report.Confusion.RowTotals(), report.Confusion.ColTotals()
	total := 0
	for k, n := range rows {
		assert.Equal(t, counts[k+1], n, "row %d", k)
		total += cols[k]
	}
	assert.Equal(t, test.Len(), total)
}

func TestFitFinal_MLP(t *testing.T) {
	train := syntheticSeeds(t, 8)
	params := model.Params{
		neural_network.ParamHiddenUnits: 3,
		neural_network.ParamEpochs:      50,
		neural_network.ParamPenalty:     0.01,
	}
	fitted, err := FitFinal(context.Background(), neural_network.Spec{Seed: 1}, testRecipe(), params, train)
	require.NoError(t, err)

	pred, err := fitted.Predict(train)
	require.NoError(t, err)
	require.Len(t, pred.Class, train.Len())
	r, c := pred.Proba.Dims()
	assert.Equal(t, train.Len(), r)
	assert.Equal(t, 3, c)
	for i := 0; i < r; i++ {
		sum := 0.0
		for j := 0; j < c; j++ {
			sum += pred.Proba.At(i, j)
		}
		assert.InDelta(t, 1.0, sum, 1e-9)
	}
	assert.Equal(t, testCategories, fitted.Categories())
}

func TestFitFinal_Errors(t *testing.T) {
	train := syntheticSeeds(t, 3)

	_, err := FitFinal(context.Background(), nil, testRecipe(), nil, train)
	assert.Error(t, err)

	_, err = FitFinal(context.Background(), neighbors.Spec{}, testRecipe(), nil, nil)
	assert.Error(t, err)

	_, err = FitFinal(context.Background(), stubSpec{}, testRecipe(), model.Params{"mode": "panic"}, train)
	var me *errors.ModelError
	require.Error(t, err)
	assert.True(t, errors.As(err, &me))

	fitted, err := FitFinal(context.Background(), stubSpec{}, testRecipe(), model.Params{"mode": "ok"}, train)
	require.NoError(t, err)
	_, err = fitted.Predict(nil)
	assert.Error(t, err)
}
