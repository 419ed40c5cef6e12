// Package config loads the YAML description of a tuning run.
package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/metrics"
	"github.com/YuminosukeSato/seedtune/model_selection"
	"github.com/YuminosukeSato/seedtune/neighbors"
	"github.com/YuminosukeSato/seedtune/neural_network"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
	"github.com/YuminosukeSato/seedtune/preprocessing"
)

// Search strategies.
const (
	StrategyGrid  = "grid"
	StrategyBayes = "bayes"
)

// Config is a complete run description.
type Config struct {
	Data          DataConfig          `yaml:"data"`
	Seed          uint64              `yaml:"seed"`
	TrainFraction float64             `yaml:"train_fraction"`
	Folds         int                 `yaml:"folds"`
	Workers       int                 `yaml:"workers"`
	Preprocessing PreprocessingConfig `yaml:"preprocessing"`
	Metrics       []string            `yaml:"metrics"`
	SelectMetric  string              `yaml:"select_metric"`
	Search        SearchConfig        `yaml:"search"`
	Models        []ModelConfig       `yaml:"models"`
	Output        string              `yaml:"output"`
	Log           LogConfig           `yaml:"log"`
}

// DataConfig locates and describes the input table.
type DataConfig struct {
	Path        string `yaml:"path"`
	Delimiter   string `yaml:"delimiter"`
	Whitespace  bool   `yaml:"whitespace"`
	NoHeader    bool   `yaml:"no_header"`
	LabelColumn string `yaml:"label_column"`
}

// PreprocessingConfig mirrors preprocessing.Recipe.
type PreprocessingConfig struct {
	Scaler               string     `yaml:"scaler"`
	FeatureRange         [2]float64 `yaml:"feature_range"`
	Clip                 bool       `yaml:"clip"`
	CorrelationThreshold float64    `yaml:"correlation_threshold"`
	Categories           []string   `yaml:"categories"`
	LabelBase            int        `yaml:"label_base"`
}

// SearchConfig selects the strategy and its budget.
type SearchConfig struct {
	Strategy   string `yaml:"strategy"`
	Initial    int    `yaml:"initial"`
	Iterations int    `yaml:"iterations"`
	NoImprove  int    `yaml:"no_improve"`
	Candidates int    `yaml:"candidates"`
}

// GridEntry lists the values of one hyperparameter for grid search.
type GridEntry struct {
	Name   string `yaml:"name"`
	Values []any  `yaml:"values"`
}

// DimensionConfig declares one dimension of a Bayesian search space.
// Type is int, float or categorical.
type DimensionConfig struct {
	Name   string   `yaml:"name"`
	Type   string   `yaml:"type"`
	Min    float64  `yaml:"min"`
	Max    float64  `yaml:"max"`
	Log    bool     `yaml:"log"`
	Values []string `yaml:"values"`
}

// ModelConfig configures one model to tune. When Grid is empty the grid
// is derived from Space with Levels values per dimension.
type ModelConfig struct {
	Name     string            `yaml:"name"`
	Disabled bool              `yaml:"disabled"`
	Grid     []GridEntry       `yaml:"grid"`
	Space    []DimensionConfig `yaml:"space"`
	Levels   int               `yaml:"levels"`
}

// LogConfig mirrors log.Options.
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
}

// Default returns the configuration of the reference run: a 70/30 split,
// 5-fold cross-validation on 4 workers, KNN and MLP grids, ROC AUC selection.
func Default() *Config {
	return &Config{
		Data: DataConfig{
			Path:        "seeds_dataset.txt",
			Whitespace:  true,
			NoHeader:    true,
			LabelColumn: dataset.DefaultLabelColumn,
		},
		Seed:          2021,
		TrainFraction: 0.7,
		Folds:         model_selection.DefaultNSplits,
		Workers:       4,
		Preprocessing: PreprocessingConfig{
			Scaler:               preprocessing.ScalerRange,
			FeatureRange:         [2]float64{0, 1},
			CorrelationThreshold: preprocessing.DefaultCorrelationThreshold,
			Categories:           append([]string(nil), dataset.SeedCategories...),
			LabelBase:            1,
		},
		Metrics:      []string{"accuracy", "precision", "sensitivity", "specificity", "roc_auc", "kap"},
		SelectMetric: "roc_auc",
		Search: SearchConfig{
			Strategy:   StrategyGrid,
			Initial:    model_selection.DefaultInitial,
			Iterations: model_selection.DefaultIterations,
			NoImprove:  model_selection.DefaultNoImprove,
			Candidates: model_selection.DefaultCandidates,
		},
		Models: []ModelConfig{
			{
				Name: "knn",
				Grid: []GridEntry{
					{Name: neighbors.ParamNeighbors, Values: []any{3, 5, 7, 9, 11}},
					{Name: neighbors.ParamWeightFunc, Values: []any{"rectangular", "triangular", "gaussian"}},
					{Name: neighbors.ParamDistPower, Values: []any{1, 2}},
				},
				Space: []DimensionConfig{
					{Name: neighbors.ParamNeighbors, Type: "int", Min: 1, Max: 10},
					{Name: neighbors.ParamWeightFunc, Type: "categorical", Values: neighbors.KernelNames()},
					{Name: neighbors.ParamDistPower, Type: "int", Min: 1, Max: 2},
				},
			},
			{
				Name: "mlp",
				Grid: []GridEntry{
					{Name: neural_network.ParamHiddenUnits, Values: []any{3, 5, 10}},
					{Name: neural_network.ParamEpochs, Values: []any{100, 200}},
					{Name: neural_network.ParamPenalty, Values: []any{0.0, 0.001, 0.01}},
				},
				Space: []DimensionConfig{
					{Name: neural_network.ParamHiddenUnits, Type: "int", Min: 1, Max: 10},
					{Name: neural_network.ParamEpochs, Type: "int", Min: 10, Max: 1000},
					{Name: neural_network.ParamPenalty, Type: "float", Min: 1e-10, Max: 1, Log: true},
				},
			},
		},
		Output: "out",
		Log:    LogConfig{Level: "info"},
	}
}

// Load reads a YAML file over Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %s", path)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result. Keys absent
// from data keep their default values; a models list replaces the default
// one.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every field that would otherwise fail late in a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.Path) == "" {
		return errors.NewValidationError("data.path", "is required", c.Data.Path)
	}
	if c.Data.Delimiter != "" && utf8.RuneCountInString(c.Data.Delimiter) != 1 {
		return errors.NewValidationError("data.delimiter", "must be a single character", c.Data.Delimiter)
	}
	if !(c.TrainFraction > 0 && c.TrainFraction < 1) {
		return errors.NewValidationError("train_fraction", "must be in (0, 1)", c.TrainFraction)
	}
	if c.Folds < 2 {
		return errors.NewValidationError("folds", "must be at least 2", c.Folds)
	}
	if c.Workers < 0 {
		return errors.NewValidationError("workers", "must not be negative", c.Workers)
	}
	if err := c.Recipe().Validate(); err != nil {
		return err
	}
	if len(c.Metrics) == 0 {
		return errors.NewValidationError("metrics", "at least one metric is required", c.Metrics)
	}
	for _, m := range c.Metrics {
		if _, ok := metrics.Lookup(m); !ok {
			return errors.NewValidationError("metrics", "unknown metric", m)
		}
	}
	if !contains(c.Metrics, c.SelectMetric) {
		return errors.NewValidationError("select_metric", "must be one of the evaluated metrics", c.SelectMetric)
	}
	switch c.Search.Strategy {
	case StrategyGrid, StrategyBayes:
	default:
		return errors.NewValidationError("search.strategy", "must be grid or bayes", c.Search.Strategy)
	}
	if c.Search.Initial < 1 {
		return errors.NewValidationError("search.initial", "must be at least 1", c.Search.Initial)
	}
	if c.Search.Iterations < 0 || c.Search.NoImprove < 0 {
		return errors.NewValidationError("search.iterations", "must not be negative", c.Search.Iterations)
	}

	enabled := 0
	seen := make(map[string]bool)
	for _, m := range c.Models {
		if seen[m.Name] {
			return errors.NewValidationError("models", "duplicate model", m.Name)
		}
		seen[m.Name] = true
		if _, err := c.Spec(m.Name); err != nil {
			return err
		}
		if m.Disabled {
			continue
		}
		enabled++
		if _, err := m.ParamGrid(); err != nil {
			return err
		}
		if c.Search.Strategy == StrategyBayes {
			if _, err := m.SearchSpace(); err != nil {
				return err
			}
		}
	}
	if enabled == 0 {
		return errors.NewValidationError("models", "no enabled model", nil)
	}
	_, err := log.ParseLevel(c.Log.Level)
	return err
}

// Recipe returns the preprocessing recipe.
func (c *Config) Recipe() preprocessing.Recipe {
	p := c.Preprocessing
	return preprocessing.Recipe{
		Scaler:               p.Scaler,
		FeatureRange:         p.FeatureRange,
		Clip:                 p.Clip,
		CorrelationThreshold: p.CorrelationThreshold,
		Categories:           append([]string(nil), p.Categories...),
		LabelBase:            p.LabelBase,
	}
}

// LoadOptions returns the dataset loader options. Labels are bounded by the
// configured categories.
func (c *Config) LoadOptions() dataset.LoadOptions {
	opts := dataset.LoadOptions{
		LabelColumn: c.Data.LabelColumn,
		NoHeader:    c.Data.NoHeader,
		Whitespace:  c.Data.Whitespace,
		CheckLabels: true,
		MinLabel:    c.Preprocessing.LabelBase,
		MaxLabel:    c.Preprocessing.LabelBase + len(c.Preprocessing.Categories) - 1,
		Source:      c.Data.Path,
	}
	if c.Data.Delimiter != "" {
		r, _ := utf8.DecodeRuneInString(c.Data.Delimiter)
		opts.Delimiter = r
	}
	return opts
}

// LogOptions returns the logging options.
func (c *Config) LogOptions() log.Options {
	return log.Options{
		Level:      c.Log.Level,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
	}
}

// Spec returns the model specification registered under name.
func (c *Config) Spec(name string) (model.Spec, error) {
	switch name {
	case "knn":
		return neighbors.Spec{}, nil
	case "mlp":
		return neural_network.Spec{Seed: c.Seed}, nil
	default:
		return nil, errors.NewValidationError("models.name", "must be knn or mlp", name)
	}
}

// Strategy builds the configured search strategy for one model.
func (c *Config) Strategy(m ModelConfig) (model_selection.Strategy, error) {
	if c.Search.Strategy == StrategyBayes {
		space, err := m.SearchSpace()
		if err != nil {
			return nil, err
		}
		return model_selection.NewBayesSearch(space, c.SelectMetric,
			model_selection.WithInitial(c.Search.Initial),
			model_selection.WithIterations(c.Search.Iterations),
			model_selection.WithNoImprove(c.Search.NoImprove),
			model_selection.WithCandidates(c.Search.Candidates),
			model_selection.WithBayesSeed(c.Seed),
		), nil
	}
	grid, err := m.ParamGrid()
	if err != nil {
		return nil, err
	}
	return model_selection.NewGridSearch(grid), nil
}

// ParamGrid returns the explicit grid, or a regular grid over the space.
func (m ModelConfig) ParamGrid() (model_selection.ParamGrid, error) {
	if len(m.Grid) == 0 {
		space, err := m.SearchSpace()
		if err != nil {
			return nil, err
		}
		levels := m.Levels
		if levels <= 0 {
			levels = 3
		}
		return space.RegularGrid(levels), nil
	}
	grid := make(model_selection.ParamGrid, len(m.Grid))
	for i, g := range m.Grid {
		grid[i] = model_selection.GridParam{Name: g.Name, Values: append([]any(nil), g.Values...)}
	}
	if err := grid.Validate(); err != nil {
		return nil, errors.Wrapf(err, "model %s", m.Name)
	}
	return grid, nil
}

// SearchSpace converts the declared dimensions.
func (m ModelConfig) SearchSpace() (model_selection.Space, error) {
	space := make(model_selection.Space, 0, len(m.Space))
	for _, d := range m.Space {
		switch d.Type {
		case "int":
			space = append(space, model_selection.IntRange{Param: d.Name, Min: int(d.Min), Max: int(d.Max)})
		case "float":
			space = append(space, model_selection.FloatRange{Param: d.Name, Min: d.Min, Max: d.Max, Log: d.Log})
		case "categorical":
			space = append(space, model_selection.Categorical{Param: d.Name, Values: append([]string(nil), d.Values...)})
		default:
			return nil, errors.NewValidationError(fmt.Sprintf("models.%s.space.%s.type", m.Name, d.Name),
				"must be int, float or categorical", d.Type)
		}
	}
	if err := space.Validate(); err != nil {
		return nil, errors.Wrapf(err, "model %s", m.Name)
	}
	return space, nil
}

// EnabledModels returns the models to tune, in configuration order.
func (c *Config) EnabledModels() []ModelConfig {
	var out []ModelConfig
	for _, m := range c.Models {
		if !m.Disabled {
			out = append(out, m)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
