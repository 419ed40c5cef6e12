// Package report prints tuning results and evaluation metrics as aligned
// text tables. Values are rounded with shopspring/decimal so the printed
// digits do not depend on binary float formatting.
package report

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/fatih/color"
	"github.com/shopspring/decimal"

	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/model_selection"
)

// Places is the number of decimals printed for metric values.
const Places = 4

// Printer writes tables to W. Headers are coloured unless color.NoColor is set.
type Printer struct {
	W io.Writer

	header func(a ...interface{}) string
	good   func(a ...interface{}) string
	bad    func(a ...interface{}) string
}

// NewPrinter creates a Printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		W:      w,
		header: color.New(color.FgCyan, color.Bold).SprintFunc(),
		good:   color.New(color.FgGreen).SprintFunc(),
		bad:    color.New(color.FgRed).SprintFunc(),
	}
}

// Round formats v with the given number of decimals, half away from zero.
func Round(v float64, places int32) string {
	switch {
	case math.IsNaN(v):
		return "NaN"
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return decimal.NewFromFloat(v).StringFixed(places)
}

func (p *Printer) rule(width int) {
	fmt.Fprintln(p.W, strings.Repeat("─", width))
}

func (p *Printer) title(s string) {
	fmt.Fprintln(p.W, p.header(s))
}

// Metrics prints the evaluation report of one model.
func (p *Printer) Metrics(name string, r *metrics.Report) {
	p.title(fmt.Sprintf("Test metrics: %s", name))
	p.rule(32)
	rows := []struct {
		name  string
		value float64
	}{
		{"accuracy", r.Accuracy},
		{"precision", r.Precision},
		{"sensitivity", r.Sensitivity},
		{"specificity", r.Specificity},
		{"roc_auc", r.ROCAUC},
		{"kap", r.Kappa},
		{"mn_log_loss", r.LogLoss},
	}
	for _, row := range rows {
		fmt.Fprintf(p.W, "%-16s %s\n", row.name, Round(row.value, Places))
	}
	p.rule(32)
}

// Confusion prints the confusion matrix; rows are the truth. Diagonal
// counts are green and non-zero off-diagonal counts red.
func (p *Printer) Confusion(cm *metrics.ConfusionMatrix) {
	p.title("Confusion matrix (rows: truth, columns: prediction)")
	fmt.Fprintf(p.W, "%-12s", "")
	for _, l := range cm.Labels {
		fmt.Fprintf(p.W, "%-10s", l)
	}
	fmt.Fprintln(p.W)
	for i, row := range cm.Counts {
		fmt.Fprintf(p.W, "%-12s", cm.Labels[i])
		for j, n := range row {
			cell := fmt.Sprintf("%-10d", n)
			switch {
			case i == j:
				cell = p.good(cell)
			case n > 0:
				cell = p.bad(cell)
			}
			fmt.Fprint(p.W, cell)
		}
		fmt.Fprintln(p.W)
	}
}

// Tuning prints configuration summaries, typically from Results.ShowBest.
func (p *Printer) Tuning(model string, summaries []model_selection.ConfigSummary) {
	metric := ""
	if len(summaries) > 0 {
		metric = summaries[0].Metric
	}
	p.title(fmt.Sprintf("Tuning: %s by %s", model, metric))
	fmt.Fprintf(p.W, "%-5s %-10s %-10s %-4s %-6s %s\n", "rank", "mean", "std_err", "n", "failed", "configuration")
	p.rule(72)
	for i, s := range summaries {
		fmt.Fprintf(p.W, "%-5d %-10s %-10s %-4d %-6d %s\n",
			i+1, Round(s.Mean, Places), Round(s.StdErr, Places), s.N, s.Failed, s.Params.Key())
	}
}

// Records writes the raw score records as tab-separated rows with a header:
// config, params, fold, metric, value, error.
func Records(w io.Writer, recs []model_selection.ScoreRecord) error {
	if _, err := fmt.Fprintln(w, "config\tparams\tfold\tmetric\tvalue\terror"); err != nil {
		return err
	}
	for _, r := range recs {
		value, errText := Round(r.Value, 6), ""
		if !r.OK() {
			value, errText = "", r.Err.Error()
		}
		if _, err := fmt.Fprintf(w, "%d\t%s\t%d\t%s\t%s\t%s\n",
			r.Config, r.Params.Key(), r.Fold, r.Metric, value, errText); err != nil {
			return err
		}
	}
	return nil
}

// Describe prints per-feature summary statistics.
func (p *Printer) Describe(summaries []dataset.FeatureSummary) {
	p.title("Feature summary")
	fmt.Fprintf(p.W, "%-16s %9s %9s %9s %9s %9s %9s %9s\n",
		"feature", "min", "q1", "median", "q3", "max", "mean", "sd")
	p.rule(88)
	for _, s := range summaries {
		fmt.Fprintf(p.W, "%-16s %9s %9s %9s %9s %9s %9s %9s\n", s.Name,
			Round(s.Min, 3), Round(s.Q1, 3), Round(s.Median, 3), Round(s.Q3, 3),
			Round(s.Max, 3), Round(s.Mean, 3), Round(s.StdDev, 3))
	}
}

// Balance prints the class distribution with category names.
func (p *Printer) Balance(shares []dataset.ClassShare, categories []string, base int) {
	p.title("Class balance")
	for _, s := range shares {
		name := fmt.Sprint(s.Label)
		if i := s.Label - base; i >= 0 && i < len(categories) {
			name = categories[i]
		}
		fmt.Fprintf(p.W, "%-12s %5d  %s\n", name, s.Count, Round(s.Fraction, 3))
	}
}
