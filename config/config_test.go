package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/model_selection"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

func TestLoadOptions_NegativeLabelBase(t *testing.T) {
	cfg := Default()
	cfg.Preprocessing.LabelBase = -1
	cfg.Preprocessing.Categories = []string{"Kama", "Rosa"}

	opts := cfg.LoadOptions()
	assert.True(t, opts.CheckLabels)
	assert.Equal(t, -1, opts.MinLabel)
	assert.Equal(t, 0, opts.MaxLabel)

	opts.NoHeader, opts.Whitespace = false, false
	_, err := dataset.Load(strings.NewReader("area,target\n1.0,1\n"), opts)
	var de *errors.DataError
	assert.ErrorAs(t, err, &de)
}

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.7, cfg.TrainFraction)
	assert.Equal(t, 5, cfg.Folds)
	assert.Equal(t, 4, cfg.Workers)
	assert.Len(t, cfg.EnabledModels(), 2)

	opts := cfg.LoadOptions()
	assert.True(t, opts.NoHeader)
	assert.True(t, opts.CheckLabels)
	assert.Equal(t, 1, opts.MinLabel)
	assert.Equal(t, 3, opts.MaxLabel)

	for _, m := range cfg.Models {
		grid, err := m.ParamGrid()
		require.NoError(t, err)
		assert.Greater(t, grid.Size(), 1)
		_, err = m.SearchSpace()
		require.NoError(t, err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
data:
  path: data/seeds.csv
  delimiter: ";"
  whitespace: false
  no_header: false
seed: 7
folds: 3
metrics: [accuracy, mn_log_loss]
select_metric: mn_log_loss
search:
  strategy: bayes
  iterations: 10
models:
  - name: knn
    space:
      - {name: neighbors, type: int, min: 1, max: 8}
      - {name: weight_func, type: categorical, values: [rectangular, gaussian]}
  - name: mlp
    disabled: true
log:
  level: debug
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, uint64(7), cfg.Seed)
	assert.Equal(t, 3, cfg.Folds)
	assert.Equal(t, 0.7, cfg.TrainFraction, "unset keys keep defaults")
	assert.Equal(t, ';', cfg.LoadOptions().Delimiter)
	require.Len(t, cfg.EnabledModels(), 1)

	knn := cfg.EnabledModels()[0]
	strategy, err := cfg.Strategy(knn)
	require.NoError(t, err)
	bayes, ok := strategy.(*model_selection.BayesSearch)
	require.True(t, ok)
	assert.Equal(t, "mn_log_loss", bayes.Metric)
	assert.Equal(t, 10, bayes.Iterations)
	assert.Equal(t, uint64(7), bayes.Seed)

	grid, err := knn.ParamGrid()
	require.NoError(t, err)
	assert.Equal(t, 3*2, grid.Size(), "regular grid from the space")
}

func TestParse_Grid(t *testing.T) {
	data := []byte(`
models:
  - name: mlp
    grid:
      - {name: hidden_units, values: [2, 4]}
      - {name: penalty, values: [0, 0.1]}
`)
	cfg, err := Parse(data)
	require.NoError(t, err)
	strategy, err := cfg.Strategy(cfg.Models[0])
	require.NoError(t, err)
	gs, ok := strategy.(*model_selection.GridSearch)
	require.True(t, ok)

	combos := gs.Grid.Combinations()
	require.Len(t, combos, 4)
	h, err := combos[3].Int("hidden_units", 0)
	require.NoError(t, err)
	assert.Equal(t, 4, h)
	p, err := combos[3].Float("penalty", 0)
	require.NoError(t, err)
	assert.Equal(t, 0.1, p)

	spec, err := cfg.Spec("mlp")
	require.NoError(t, err)
	assert.Equal(t, "mlp", spec.Name())
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing path", func(c *Config) { c.Data.Path = "" }},
		{"long delimiter", func(c *Config) { c.Data.Delimiter = "::" }},
		{"fraction", func(c *Config) { c.TrainFraction = 1 }},
		{"folds", func(c *Config) { c.Folds = 1 }},
		{"workers", func(c *Config) { c.Workers = -1 }},
		{"unknown metric", func(c *Config) { c.Metrics = append(c.Metrics, "f1") }},
		{"select metric not evaluated", func(c *Config) { c.SelectMetric = "mn_log_loss" }},
		{"strategy", func(c *Config) { c.Search.Strategy = "random" }},
		{"initial", func(c *Config) { c.Search.Initial = 0 }},
		{"unknown model", func(c *Config) { c.Models[0].Name = "svm" }},
		{"duplicate model", func(c *Config) { c.Models[1].Name = "knn" }},
		{"all disabled", func(c *Config) { c.Models[0].Disabled, c.Models[1].Disabled = true, true }},
		{"bad dimension", func(c *Config) {
			c.Search.Strategy = StrategyBayes
			c.Models[0].Space[0].Type = "complex"
		}},
		{"empty grid values", func(c *Config) { c.Models[0].Grid[0].Values = nil }},
		{"categories", func(c *Config) { c.Preprocessing.Categories = []string{"only"} }},
		{"log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var ve *errors.ValidationError
			assert.True(t, errors.As(err, &ve), "%v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	require.NoError(t, os.WriteFile(path, []byte("folds: 4\nworkers: 2\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Folds)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, "info", cfg.LogOptions().Level)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Parse([]byte("folds: [1"))
	assert.Error(t, err)
}
