package preprocessing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

func TestMinMaxScaler(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 10,
		3, 10,
		5, 10,
	})

	tests := []struct {
		name  string
		opts  []MinMaxOption
		input []float64
		want  []float64
	}{
		{"inside range", nil, []float64{3, 10}, []float64{0.5, 0}},
		{"extrapolates by default", nil, []float64{7, 11}, []float64{1.5, 1}},
		{"clips when enabled", []MinMaxOption{WithClip(true)}, []float64{7, 9}, []float64{1, 0}},
		{"custom range", []MinMaxOption{WithFeatureRange(-1, 1)}, []float64{5, 10}, []float64{1, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scaler := NewMinMaxScaler(tt.opts...)
			require.NoError(t, scaler.Fit(X))

			out, err := scaler.Transform(mat.NewDense(1, 2, tt.input))
			require.NoError(t, err)
			assert.InDeltaSlice(t, tt.want, mat.Row(nil, 0, out), 1e-12)
		})
	}
}

func TestMinMaxScaler_FitDataMapsToUnitRange(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		2, -3,
		4, 0,
		6, 3,
		8, 9,
	})
	out, err := NewMinMaxScaler().FitTransform(X)
	require.NoError(t, err)

	for j := 0; j < 2; j++ {
		col := mat.Col(nil, j, out)
		assert.InDelta(t, 0.0, col[0], 1e-12)
		assert.InDelta(t, 1.0, col[3], 1e-12)
	}
}

func TestMinMaxScaler_InverseTransform(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, -2,
		2, 0,
		4, 6,
	})
	scaler := NewMinMaxScaler(WithFeatureRange(-1, 1))
	scaled, err := scaler.FitTransform(X)
	require.NoError(t, err)

	back, err := scaler.InverseTransform(scaled)
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(X, back, 1e-12))
}

func TestMinMaxScaler_Errors(t *testing.T) {
	scaler := NewMinMaxScaler()
	_, err := scaler.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	assert.ErrorAs(t, err, &nf)

	require.NoError(t, scaler.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})))
	_, err = scaler.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var de *errors.DimensionError
	assert.ErrorAs(t, err, &de)

	bad := NewMinMaxScaler(WithFeatureRange(1, 1))
	var ve *errors.ValidationError
	assert.ErrorAs(t, bad.Fit(mat.NewDense(1, 1, []float64{1})), &ve)
}

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 5,
		2, 5,
		3, 5,
		4, 5,
	})
	out, err := NewStandardScaler().FitTransform(X)
	require.NoError(t, err)

	col := mat.Col(nil, 0, out)
	sum := 0.0
	for _, v := range col {
		sum += v
	}
	assert.InDelta(t, 0.0, sum, 1e-12)
	assert.InDelta(t, -1.3416407865, col[0], 1e-9)
	assert.Equal(t, []float64{0, 0, 0, 0}, mat.Col(nil, 1, out))
}
