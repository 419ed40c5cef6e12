package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// silenceWarnings はテスト中の警告を捕捉する
func silenceWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(nil) })
	return &got
}

func TestConfusionMatrix(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2, 2}
	yPred := []int{0, 1, 1, 1, 2, 0}
	cm, err := NewConfusionMatrix(yTrue, yPred, []string{"Kama", "Rosa", "Canadian"})
	require.NoError(t, err)

	assert.Equal(t, [][]int{{1, 1, 0}, {0, 2, 0}, {1, 0, 1}}, cm.Counts)
	assert.Equal(t, 6, cm.Total())
	assert.Equal(t, 1, cm.TruePositives(0))
	assert.Equal(t, 1, cm.FalsePositives(0))
	assert.Equal(t, 1, cm.FalseNegatives(0))
	assert.Equal(t, 3, cm.TrueNegatives(0))
	assert.Equal(t, []int{2, 2, 2}, cm.RowTotals())
	assert.Equal(t, []int{2, 3, 1}, cm.ColTotals())

	t.Run("errors", func(t *testing.T) {
		_, err := NewConfusionMatrix(nil, nil, []string{"a", "b"})
		assert.Error(t, err)
		_, err = NewConfusionMatrix([]int{0}, []int{0, 1}, []string{"a", "b"})
		assert.Error(t, err)
		_, err = NewConfusionMatrix([]int{0, 3}, []int{0, 1}, []string{"a", "b"})
		assert.Error(t, err)
		_, err = NewConfusionMatrix([]int{0}, []int{0}, []string{"a"})
		assert.Error(t, err)
	})
}

func TestMacroMetrics(t *testing.T) {
	yTrue := []int{0, 0, 1, 1, 2, 2}
	yPred := []int{0, 1, 1, 1, 2, 0}

	tests := []struct {
		name string
		fn   func([]int, []int, int) (float64, error)
		want float64
	}{
		{"accuracy", AccuracyScore, 4.0 / 6.0},
		// クラス別: 1/2, 2/3, 1/1
		{"precision", MacroPrecision, (0.5 + 2.0/3.0 + 1.0) / 3},
		// クラス別: 1/2, 2/2, 1/2
		{"sensitivity", MacroSensitivity, (0.5 + 1.0 + 0.5) / 3},
		// クラス別: 3/4, 3/4, 4/4
		{"specificity", MacroSpecificity, (0.75 + 0.75 + 1.0) / 3},
		// po = 2/3, pe = (2*2 + 2*3 + 2*1) / 36 = 1/3
		{"kappa", Kappa, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.fn(yTrue, yPred, 3)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestMacroMetrics_Perfect(t *testing.T) {
	y := []int{0, 1, 2, 0, 1, 2}
	for _, fn := range []func([]int, []int, int) (float64, error){
		AccuracyScore, MacroPrecision, MacroSensitivity, MacroSpecificity, Kappa,
	} {
		got, err := fn(y, y, 3)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-12)
	}
}

func TestUndefinedMetricsWarn(t *testing.T) {
	warnings := silenceWarnings(t)

	// クラス2は一度も予測されず、真値にも存在しない
	yTrue := []int{0, 0, 1, 1}
	yPred := []int{0, 1, 1, 1}

	p, err := MacroPrecision(yTrue, yPred, 3)
	require.NoError(t, err)
	assert.InDelta(t, (1.0+2.0/3.0)/3, p, 1e-12)

	s, err := MacroSensitivity(yTrue, yPred, 3)
	require.NoError(t, err)
	assert.InDelta(t, (0.5+1.0)/3, s, 1e-12)

	assert.Len(t, *warnings, 2)
	var w *errors.UndefinedMetricWarning
	assert.True(t, errors.As((*warnings)[0], &w))
}

func TestKappa_ConstantAgreement(t *testing.T) {
	warnings := silenceWarnings(t)

	k, err := Kappa([]int{1, 1, 1}, []int{1, 1, 1}, 3)
	require.NoError(t, err)
	assert.Equal(t, 0.0, k)
	assert.NotEmpty(t, *warnings)
}

func TestLogLoss(t *testing.T) {
	proba := mat.NewDense(2, 3, []float64{
		0.8, 0.1, 0.1,
		0.2, 0.2, 0.6,
	})
	got, err := LogLoss([]int{0, 2}, proba, 3)
	require.NoError(t, err)
	assert.InDelta(t, -(math.Log(0.8)+math.Log(0.6))/2, got, 1e-12)

	t.Run("zero probability is clipped", func(t *testing.T) {
		p := mat.NewDense(1, 2, []float64{0, 1})
		got, err := LogLoss([]int{0}, p, 2)
		require.NoError(t, err)
		assert.False(t, math.IsInf(got, 0))
		assert.InDelta(t, -math.Log(1e-15), got, 1e-6)
	})

	t.Run("shape errors", func(t *testing.T) {
		_, err := LogLoss([]int{0}, proba, 3)
		assert.Error(t, err)
		_, err = LogLoss([]int{0, 1}, proba, 2)
		assert.Error(t, err)
		_, err = LogLoss([]int{0, 1}, nil, 3)
		assert.Error(t, err)
		_, err = LogLoss([]int{0, 5}, proba, 3)
		assert.Error(t, err)
	})
}

func TestRocAUC(t *testing.T) {
	t.Run("binary", func(t *testing.T) {
		proba := mat.NewDense(4, 2, []float64{
			0.9, 0.1,
			0.6, 0.4,
			0.65, 0.35,
			0.2, 0.8,
		})
		got, err := RocAUC([]int{0, 0, 1, 1}, proba, 2)
		require.NoError(t, err)
		assert.InDelta(t, 0.75, got, 1e-12)
	})

	t.Run("multiclass perfect", func(t *testing.T) {
		proba := mat.NewDense(6, 3, []float64{
			0.8, 0.1, 0.1,
			0.7, 0.2, 0.1,
			0.1, 0.8, 0.1,
			0.2, 0.7, 0.1,
			0.1, 0.1, 0.8,
			0.1, 0.2, 0.7,
		})
		got, err := RocAUC([]int{0, 0, 1, 1, 2, 2}, proba, 3)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, got, 1e-12)
	})

	t.Run("uniform scores", func(t *testing.T) {
		proba := mat.NewDense(6, 3, nil)
		for i := 0; i < 6; i++ {
			for j := 0; j < 3; j++ {
				proba.Set(i, j, 1.0/3)
			}
		}
		got, err := RocAUC([]int{0, 0, 1, 1, 2, 2}, proba, 3)
		require.NoError(t, err)
		assert.InDelta(t, 0.5, got, 1e-12)
	})

	t.Run("single class present", func(t *testing.T) {
		warnings := silenceWarnings(t)
		proba := mat.NewDense(2, 3, []float64{0.5, 0.3, 0.2, 0.6, 0.2, 0.2})
		got, err := RocAUC([]int{0, 0}, proba, 3)
		require.NoError(t, err)
		assert.Equal(t, 0.5, got)
		assert.NotEmpty(t, *warnings)
	})
}

func TestRankAUC_Ties(t *testing.T) {
	assert.InDelta(t, 0.5, rankAUC([]float64{0.5, 0.5, 0.5, 0.5}, []bool{false, true, false, true}), 1e-12)
	assert.InDelta(t, 0.0, rankAUC([]float64{0.9, 0.8, 0.3, 0.2}, []bool{false, false, true, true}), 1e-12)
	assert.Equal(t, 0.5, rankAUC([]float64{0.1, 0.2}, []bool{true, true}))
}
