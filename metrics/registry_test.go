package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestLookup(t *testing.T) {
	assert.Equal(t,
		[]string{"accuracy", "kap", "mn_log_loss", "precision", "recall", "roc_auc", "sensitivity", "specificity"},
		Names())

	m, ok := Lookup("roc_auc")
	require.True(t, ok)
	assert.True(t, m.NeedsProba)
	assert.False(t, m.Minimize)
	assert.True(t, m.Better(0.9, 0.8))

	m, ok = Lookup("mn_log_loss")
	require.True(t, ok)
	assert.True(t, m.Minimize)
	assert.True(t, m.Better(0.1, 0.2))

	_, ok = Lookup("f1")
	assert.False(t, ok)
}

func TestMetricFn(t *testing.T) {
	silenceWarnings(t)
	yTrue := []int{0, 1, 2}
	yPred := []int{0, 1, 1}
	proba := mat.NewDense(3, 3, []float64{
		0.9, 0.05, 0.05,
		0.1, 0.8, 0.1,
		0.1, 0.6, 0.3,
	})
	for _, name := range Names() {
		m, _ := Lookup(name)
		v, err := m.Fn(yTrue, yPred, proba, 3)
		require.NoError(t, err, name)
		assert.False(t, math.IsNaN(v), name)
	}

	acc, _ := Lookup("accuracy")
	v, err := acc.Fn(yTrue, yPred, nil, 3)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, v, 1e-12)
}

func TestEvaluate(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2, 2}
	yPred := []int{0, 1, 1, 1, 2, 0}
	proba := mat.NewDense(6, 3, []float64{
		0.6, 0.3, 0.1,
		0.3, 0.6, 0.1,
		0.1, 0.8, 0.1,
		0.2, 0.7, 0.1,
		0.1, 0.1, 0.8,
		0.5, 0.1, 0.4,
	})
	r, err := Evaluate(yTrue, yPred, proba, []string{"Kama", "Rosa", "Canadian"})
	require.NoError(t, err)

	assert.InDelta(t, 4.0/6.0, r.Accuracy, 1e-12)
	assert.InDelta(t, 0.5, r.Kappa, 1e-12)
	assert.InDelta(t, (0.75+0.75+1.0)/3, r.Specificity, 1e-12)
	assert.Greater(t, r.ROCAUC, 0.5)
	assert.Equal(t, 6, r.Confusion.Total())

	for _, name := range Names() {
		want, _ := Lookup(name)
		got, ok := r.Get(name)
		require.True(t, ok, name)
		direct, err := want.Fn(yTrue, yPred, proba, 3)
		require.NoError(t, err)
		assert.InDelta(t, direct, got, 1e-12, name)
	}
	_, ok := r.Get("f1")
	assert.False(t, ok)
}
