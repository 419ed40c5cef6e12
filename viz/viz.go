// Package viz renders ROC curves, confusion matrices and tuning traces with
// gonum/plot.
package viz

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/model_selection"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// Default image size.
const (
	Width  = 6 * vg.Inch
	Height = 5 * vg.Inch
)

// ROC draws one curve per class and the chance diagonal.
func ROC(curves []metrics.ROCCurve, title string) (*plot.Plot, error) {
	if len(curves) == 0 {
		return nil, errors.NewValueError("viz.ROC", "no curves")
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "False positive rate"
	p.Y.Label.Text = "True positive rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	p.Legend.Top = false
	p.Legend.Left = false

	var lines []interface{}
	for _, c := range curves {
		pts := make(plotter.XYs, len(c.Points))
		for i, pt := range c.Points {
			pts[i] = plotter.XY{X: pt.FPR, Y: pt.TPR}
		}
		lines = append(lines, fmt.Sprintf("%s (AUC %.3f)", c.Label, c.Area()), pts)
	}
	if err := plotutil.AddLines(p, lines...); err != nil {
		return nil, errors.Wrap(err, "add ROC lines")
	}

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, errors.Wrap(err, "add diagonal")
	}
	diag.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(diag)
	return p, nil
}

// confusionGrid adapts a confusion matrix to plotter.GridXYZ. Column c is
// the predicted class, row r the true class with the first class on top.
type confusionGrid struct {
	cm *metrics.ConfusionMatrix
}

func (g confusionGrid) Dims() (c, r int) { return len(g.cm.Counts), len(g.cm.Counts) }

func (g confusionGrid) Z(c, r int) float64 {
	n := len(g.cm.Counts)
	return float64(g.cm.Counts[n-1-r][c])
}

func (g confusionGrid) X(c int) float64 { return float64(c) }

func (g confusionGrid) Y(r int) float64 { return float64(r) }

// Confusion draws the confusion matrix as a heat map annotated with counts.
func Confusion(cm *metrics.ConfusionMatrix, title string) (*plot.Plot, error) {
	if cm == nil || len(cm.Counts) == 0 {
		return nil, errors.NewValueError("viz.Confusion", "empty confusion matrix")
	}
	grid := confusionGrid{cm: cm}
	n := len(cm.Counts)

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Predicted"
	p.Y.Label.Text = "Truth"

	heat := plotter.NewHeatMap(grid, palette.Heat(12, 1))
	// a uniform matrix would give a zero colour range
	heat.Min, heat.Max = 0, math.Max(1, heat.Max)
	p.Add(heat)

	var labels plotter.XYLabels
	for r := 0; r < n; r++ {
		for c := 0; c < n; c++ {
			labels.XYs = append(labels.XYs, plotter.XY{X: grid.X(c), Y: grid.Y(r)})
			labels.Labels = append(labels.Labels, fmt.Sprintf("%d", int(grid.Z(c, r))))
		}
	}
	l, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, errors.Wrap(err, "add counts")
	}
	p.Add(l)

	reversed := make([]string, n)
	for i, name := range cm.Labels {
		reversed[n-1-i] = name
	}
	p.NominalX(cm.Labels...)
	p.NominalY(reversed...)
	return p, nil
}

// Tuning draws the mean validation score of each configuration in
// evaluation order and the best score found so far.
func Tuning(summaries []model_selection.ConfigSummary, minimize bool, title string) (*plot.Plot, error) {
	var scores, best plotter.XYs
	incumbent := 0.0
	for i, s := range summaries {
		if s.N == 0 {
			continue
		}
		scores = append(scores, plotter.XY{X: float64(i + 1), Y: s.Mean})
		if len(best) == 0 || (minimize && s.Mean < incumbent) || (!minimize && s.Mean > incumbent) {
			incumbent = s.Mean
		}
		best = append(best, plotter.XY{X: float64(i + 1), Y: incumbent})
	}
	if len(scores) == 0 {
		return nil, errors.NewValueError("viz.Tuning", "no successful configurations")
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "Configuration"
	p.Y.Label.Text = summaries[0].Metric
	if err := plotutil.AddLinePoints(p, "mean", scores, "best so far", best); err != nil {
		return nil, errors.Wrap(err, "add tuning trace")
	}
	return p, nil
}

// Save writes p to path; the extension selects the format (png, svg, pdf).
func Save(p *plot.Plot, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	if err := p.Save(Width, Height, path); err != nil {
		return errors.Wrapf(err, "save plot %s", path)
	}
	return nil
}
