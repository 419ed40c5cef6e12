package dataset

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// FeatureSummary holds descriptive statistics of one feature column.
type FeatureSummary struct {
	Name   string
	Min    float64
	Q1     float64
	Median float64
	Q3     float64
	Max    float64
	Mean   float64
	StdDev float64
}

// ClassShare is the count and fraction of one label code.
type ClassShare struct {
	Label    int
	Count    int
	Fraction float64
}

// Describe computes a FeatureSummary per column.
func Describe(d *Dataset) ([]FeatureSummary, error) {
	if d.Len() == 0 {
		return nil, errors.ErrEmptyData
	}
	out := make([]FeatureSummary, d.NumFeatures())
	col := make([]float64, d.Len())
	for j, name := range d.features {
		for i, r := range d.records {
			col[i] = r.Values[j]
		}
		sorted := append([]float64(nil), col...)
		sort.Float64s(sorted)
		mean, std := stat.MeanStdDev(col, nil)
		out[j] = FeatureSummary{
			Name:   name,
			Min:    floats.Min(col),
			Q1:     stat.Quantile(0.25, stat.Empirical, sorted, nil),
			Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
			Q3:     stat.Quantile(0.75, stat.Empirical, sorted, nil),
			Max:    floats.Max(col),
			Mean:   mean,
			StdDev: std,
		}
	}
	return out, nil
}

// ClassBalance returns the share of each label code in ascending code order.
func ClassBalance(d *Dataset) []ClassShare {
	counts := d.ClassCounts()
	out := make([]ClassShare, 0, len(counts))
	for _, c := range d.Classes() {
		out = append(out, ClassShare{
			Label:    c,
			Count:    counts[c],
			Fraction: float64(counts[c]) / float64(d.Len()),
		})
	}
	return out
}

// Correlation returns the Pearson correlation matrix of the features.
// Columns without variance yield NaN entries.
func Correlation(d *Dataset) (*mat.SymDense, error) {
	if d.Len() < 2 {
		return nil, errors.NewValueError("Correlation", "at least two records are required")
	}
	corr := mat.NewSymDense(d.NumFeatures(), nil)
	stat.CorrelationMatrix(corr, d.X(), nil)
	return corr, nil
}
