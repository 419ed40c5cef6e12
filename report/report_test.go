package report

import (
	"bytes"
	"math"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/model_selection"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

func plainPrinter(t *testing.T) (*Printer, *bytes.Buffer) {
	t.Helper()
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })
	var buf bytes.Buffer
	return NewPrinter(&buf), &buf
}

func TestRound(t *testing.T) {
	tests := []struct {
		v      float64
		places int32
		want   string
	}{
		{0.91666666, 4, "0.9167"},
		{0.5, 0, "1"},
		{1, 4, "1.0000"},
		{-0.00004, 4, "0.0000"},
		{math.NaN(), 4, "NaN"},
		{math.Inf(1), 4, "+Inf"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.v, tt.places))
	}
}

func TestMetricsAndConfusion(t *testing.T) {
	p, buf := plainPrinter(t)
	cm, err := metrics.NewConfusionMatrix([]int{0, 1, 2, 2}, []int{0, 1, 2, 1}, []string{"Kama", "Rosa", "Canadian"})
	require.NoError(t, err)

	p.Metrics("knn", &metrics.Report{Accuracy: 0.75, ROCAUC: 0.9, Confusion: cm})
	p.Confusion(cm)

	out := buf.String()
	assert.Contains(t, out, "Test metrics: knn")
	assert.Contains(t, out, "accuracy         0.7500")
	assert.Contains(t, out, "roc_auc          0.9000")
	assert.Contains(t, out, "Canadian")
	assert.NotContains(t, out, "\x1b[")
}

func TestTuning(t *testing.T) {
	p, buf := plainPrinter(t)
	p.Tuning("knn", []model_selection.ConfigSummary{
		{Params: model.Params{"neighbors": 5}, Metric: "roc_auc", Mean: 0.95, StdErr: 0.01, N: 5},
		{Params: model.Params{"neighbors": 3}, Metric: "roc_auc", Mean: 0.9, N: 4, Failed: 1},
	})
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "knn by roc_auc")
	assert.True(t, strings.HasPrefix(lines[3], "1     0.9500"))
	assert.Contains(t, lines[4], "neighbors=3")
}

func TestRecords(t *testing.T) {
	var buf bytes.Buffer
	p := model.Params{"neighbors": 5}
	err := Records(&buf, []model_selection.ScoreRecord{
		{Config: 0, Params: p, Fold: 0, Metric: "accuracy", Value: 0.875},
		{Config: 0, Params: p, Fold: 1, Metric: "accuracy", Err: errors.New("degenerate")},
	})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "0\tneighbors=5\t0\taccuracy\t0.875000\t", lines[1])
	assert.Contains(t, lines[2], "degenerate")
}

func TestDescribeAndBalance(t *testing.T) {
	p, buf := plainPrinter(t)
	p.Describe([]dataset.FeatureSummary{{Name: "area", Min: 10.59, Max: 21.18, Mean: 14.8475}})
	p.Balance([]dataset.ClassShare{{Label: 1, Count: 70, Fraction: 1.0 / 3}}, dataset.SeedCategories, 1)

	out := buf.String()
	assert.Contains(t, out, "area")
	assert.Contains(t, out, "14.848")
	assert.Contains(t, out, "Kama")
	assert.Contains(t, out, "0.333")
}
