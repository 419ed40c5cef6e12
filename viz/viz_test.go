package viz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/model_selection"
)

func assertWritten(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestROC(t *testing.T) {
	proba := mat.NewDense(6, 3, []float64{
		0.8, 0.1, 0.1,
		0.5, 0.3, 0.2,
		0.1, 0.8, 0.1,
		0.3, 0.6, 0.1,
		0.1, 0.2, 0.7,
		0.4, 0.2, 0.4,
	})
	curves, err := metrics.ROCCurves([]int{0, 0, 1, 1, 2, 2}, proba, []string{"Kama", "Rosa", "Canadian"})
	require.NoError(t, err)

	p, err := ROC(curves, "knn")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "roc.png")
	require.NoError(t, Save(p, path))
	assertWritten(t, path)

	_, err = ROC(nil, "empty")
	assert.Error(t, err)
}

func TestConfusion(t *testing.T) {
	cm, err := metrics.NewConfusionMatrix([]int{0, 0, 1, 2}, []int{0, 1, 1, 2}, []string{"Kama", "Rosa", "Canadian"})
	require.NoError(t, err)

	grid := confusionGrid{cm: cm}
	c, r := grid.Dims()
	assert.Equal(t, 3, c)
	assert.Equal(t, 3, r)
	// top row is the first class
	assert.Equal(t, 1.0, grid.Z(0, 2))
	assert.Equal(t, 1.0, grid.Z(1, 2))
	assert.Equal(t, 1.0, grid.Z(2, 0))

	p, err := Confusion(cm, "confusion")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "nested", "confusion.svg")
	require.NoError(t, Save(p, path))
	assertWritten(t, path)

	_, err = Confusion(nil, "nil")
	assert.Error(t, err)
}

func TestTuning(t *testing.T) {
	summaries := []model_selection.ConfigSummary{
		{Metric: "accuracy", Mean: 0.8, N: 5},
		{Metric: "accuracy", N: 0},
		{Metric: "accuracy", Mean: 0.9, N: 5},
		{Metric: "accuracy", Mean: 0.85, N: 5},
	}
	p, err := Tuning(summaries, false, "knn tuning")
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "tuning.png")
	require.NoError(t, Save(p, path))
	assertWritten(t, path)

	_, err = Tuning([]model_selection.ConfigSummary{{Metric: "accuracy"}}, false, "none")
	assert.Error(t, err)
}
