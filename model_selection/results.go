package model_selection

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// Results collects every score record of one search, in evaluation order.
type Results struct {
	Model    string         `json:"model"`
	Strategy string         `json:"strategy"`
	Metrics  []string       `json:"metrics"`
	Folds    int            `json:"folds"`
	Configs  []model.Params `json:"configs"`
	Records  []ScoreRecord  `json:"records"`
}

// ConfigSummary aggregates one configuration's fold scores for one metric.
// Failed folds are excluded from Mean and counted in Failed.
type ConfigSummary struct {
	Config int          `json:"config"`
	Params model.Params `json:"params"`
	Metric string       `json:"metric"`
	Mean   float64      `json:"mean"`
	StdErr float64      `json:"std_err"`
	N      int          `json:"n"`
	Failed int          `json:"failed"`
}

// Attempts returns the number of (configuration, fold) units that were run.
func (r *Results) Attempts() int {
	type unit struct{ config, fold int }
	seen := make(map[unit]bool)
	for _, rec := range r.Records {
		seen[unit{rec.Config, rec.Fold}] = true
	}
	return len(seen)
}

// Failures returns the number of (configuration, fold) units whose fit failed
// for at least one metric.
func (r *Results) Failures() int {
	type unit struct{ config, fold int }
	seen := make(map[unit]bool)
	for _, rec := range r.Records {
		if !rec.OK() {
			seen[unit{rec.Config, rec.Fold}] = true
		}
	}
	return len(seen)
}

func (r *Results) hasMetric(metric string) bool {
	for _, m := range r.Metrics {
		if m == metric {
			return true
		}
	}
	return false
}

// Summarize returns one summary per configuration, in evaluation order.
// Asking for a metric that was not evaluated is a configuration error.
func (r *Results) Summarize(metric string) ([]ConfigSummary, error) {
	if _, ok := metrics.Lookup(metric); !ok {
		return nil, errors.NewValidationError("metric", "unknown metric", metric)
	}
	if !r.hasMetric(metric) {
		return nil, errors.NewValidationError("metric", "not evaluated in this search", metric)
	}

	values := make([][]float64, len(r.Configs))
	failed := make([]int, len(r.Configs))
	for _, rec := range r.Records {
		if rec.Metric != metric || rec.Config < 0 || rec.Config >= len(r.Configs) {
			continue
		}
		if !rec.OK() {
			failed[rec.Config]++
			continue
		}
		values[rec.Config] = append(values[rec.Config], rec.Value)
	}

	out := make([]ConfigSummary, len(r.Configs))
	for i, p := range r.Configs {
		s := ConfigSummary{Config: i, Params: p, Metric: metric, N: len(values[i]), Failed: failed[i], Mean: math.NaN()}
		if s.N > 0 {
			s.Mean = stat.Mean(values[i], nil)
		}
		if s.N > 1 {
			s.StdErr = stat.StdDev(values[i], nil) / math.Sqrt(float64(s.N))
		}
		out[i] = s
	}
	return out, nil
}

// SelectBest returns the configuration with the best mean for metric: the
// highest, or the lowest for loss metrics. Ties go to the configuration
// evaluated first. Configurations without a successful fold are skipped.
func SelectBest(r *Results, metric string) (ConfigSummary, error) {
	if r == nil {
		return ConfigSummary{}, errors.NewValueError("SelectBest", "nil results")
	}
	summaries, err := r.Summarize(metric)
	if err != nil {
		return ConfigSummary{}, err
	}
	m, _ := metrics.Lookup(metric)

	best := -1
	for i, s := range summaries {
		if s.N == 0 {
			continue
		}
		if best < 0 || m.Better(s.Mean, summaries[best].Mean) {
			best = i
		}
	}
	if best < 0 {
		return ConfigSummary{}, errors.Wrapf(errors.ErrNoSuccessfulScores, "metric %s", metric)
	}
	return summaries[best], nil
}

// ShowBest returns the n best summaries for metric, best first. Equal means
// keep evaluation order. n <= 0 returns every successful configuration.
func (r *Results) ShowBest(metric string, n int) ([]ConfigSummary, error) {
	summaries, err := r.Summarize(metric)
	if err != nil {
		return nil, err
	}
	m, _ := metrics.Lookup(metric)

	ok := summaries[:0:0]
	for _, s := range summaries {
		if s.N > 0 {
			ok = append(ok, s)
		}
	}
	sort.SliceStable(ok, func(i, j int) bool { return m.Better(ok[i].Mean, ok[j].Mean) })
	if n > 0 && n < len(ok) {
		ok = ok[:n]
	}
	return ok, nil
}

// String renders the summary as "mean ± stderr (n=…)".
func (s ConfigSummary) String() string {
	return fmt.Sprintf("%s %.4f ± %.4f (n=%d)", s.Params.Key(), s.Mean, s.StdErr, s.N)
}
