package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// Dimension is one tunable hyperparameter with a bounded domain. Values map
// to and from the unit interval so the Bayesian surrogate works in [0,1]^d.
type Dimension interface {
	// Name is the hyperparameter name passed to model.Spec.Build.
	Name() string
	// Sample draws a value uniformly from the domain.
	Sample(r *rand.Rand) any
	// Encode maps a value into [0, 1].
	Encode(v any) (float64, error)
	// Decode maps u in [0, 1] back to a value of the domain.
	Decode(u float64) any
	// Grid returns up to levels evenly spaced values, without duplicates.
	Grid(levels int) []any
	// Validate checks the bounds.
	Validate() error
}

// IntRange is an inclusive integer interval.
type IntRange struct {
	Param    string
	Min, Max int
}

func (d IntRange) Name() string { return d.Param }

func (d IntRange) Validate() error {
	if d.Max < d.Min {
		return errors.NewValidationError(d.Param, fmt.Sprintf("max %d is below min %d", d.Max, d.Min), d.Max)
	}
	return nil
}

func (d IntRange) Sample(r *rand.Rand) any {
	return d.Min + r.IntN(d.Max-d.Min+1)
}

func (d IntRange) Encode(v any) (float64, error) {
	x, err := model.Params{d.Param: v}.Int(d.Param, 0)
	if err != nil {
		return 0, err
	}
	if d.Max == d.Min {
		return 0, nil
	}
	return clamp01(float64(x-d.Min) / float64(d.Max-d.Min)), nil
}

func (d IntRange) Decode(u float64) any {
	return d.Min + int(math.Round(clamp01(u)*float64(d.Max-d.Min)))
}

func (d IntRange) Grid(levels int) []any {
	return uniqueLevels(d, levels)
}

// FloatRange is a closed real interval. With Log set, values are spread
// evenly in log10 space and Min must be positive.
type FloatRange struct {
	Param    string
	Min, Max float64
	Log      bool
}

func (d FloatRange) Name() string { return d.Param }

func (d FloatRange) Validate() error {
	if !(d.Max >= d.Min) {
		return errors.NewValidationError(d.Param, fmt.Sprintf("max %g is below min %g", d.Max, d.Min), d.Max)
	}
	if d.Log && d.Min <= 0 {
		return errors.NewValidationError(d.Param, "log scale needs a positive min", d.Min)
	}
	return nil
}

func (d FloatRange) Sample(r *rand.Rand) any {
	return d.Decode(r.Float64())
}

func (d FloatRange) Encode(v any) (float64, error) {
	x, err := model.Params{d.Param: v}.Float(d.Param, 0)
	if err != nil {
		return 0, err
	}
	lo, hi := d.Min, d.Max
	if d.Log {
		if x <= 0 {
			return 0, errors.NewValidationError(d.Param, "must be positive on a log scale", x)
		}
		lo, hi, x = math.Log10(lo), math.Log10(hi), math.Log10(x)
	}
	if hi == lo {
		return 0, nil
	}
	return clamp01((x - lo) / (hi - lo)), nil
}

func (d FloatRange) Decode(u float64) any {
	u = clamp01(u)
	if d.Log {
		lo, hi := math.Log10(d.Min), math.Log10(d.Max)
		return math.Pow(10, lo+u*(hi-lo))
	}
	return d.Min + u*(d.Max-d.Min)
}

func (d FloatRange) Grid(levels int) []any {
	return uniqueLevels(d, levels)
}

// Categorical is an unordered set of string choices. The unit encoding
// spaces the choices evenly in declaration order.
type Categorical struct {
	Param  string
	Values []string
}

func (d Categorical) Name() string { return d.Param }

func (d Categorical) Validate() error {
	if len(d.Values) == 0 {
		return errors.NewValidationError(d.Param, "at least one value is required", d.Values)
	}
	return nil
}

func (d Categorical) Sample(r *rand.Rand) any {
	return d.Values[r.IntN(len(d.Values))]
}

func (d Categorical) Encode(v any) (float64, error) {
	s, err := model.Params{d.Param: v}.String(d.Param, "")
	if err != nil {
		return 0, err
	}
	for i, c := range d.Values {
		if c == s {
			if len(d.Values) == 1 {
				return 0, nil
			}
			return float64(i) / float64(len(d.Values)-1), nil
		}
	}
	return 0, errors.NewValidationError(d.Param, "not one of the declared values", s)
}

func (d Categorical) Decode(u float64) any {
	i := int(math.Round(clamp01(u) * float64(len(d.Values)-1)))
	return d.Values[i]
}

func (d Categorical) Grid(levels int) []any {
	out := make([]any, 0, len(d.Values))
	for i, v := range d.Values {
		if levels > 0 && i >= levels {
			break
		}
		out = append(out, v)
	}
	return out
}

func clamp01(u float64) float64 {
	return math.Max(0, math.Min(1, u))
}

// uniqueLevels decodes evenly spaced points of the unit interval and drops
// repeats, which occur for narrow integer ranges.
func uniqueLevels(d Dimension, levels int) []any {
	if levels < 1 {
		levels = 1
	}
	seen := make(map[string]bool, levels)
	out := make([]any, 0, levels)
	for i := 0; i < levels; i++ {
		u := 0.0
		if levels > 1 {
			u = float64(i) / float64(levels-1)
		}
		v := d.Decode(u)
		key := fmt.Sprint(v)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, v)
	}
	return out
}

// Space is an ordered list of dimensions.
type Space []Dimension

// Validate checks every dimension and rejects duplicate names.
func (s Space) Validate() error {
	if len(s) == 0 {
		return errors.NewValidationError("space", "at least one dimension is required", nil)
	}
	seen := make(map[string]bool, len(s))
	for _, d := range s {
		if seen[d.Name()] {
			return errors.NewValidationError(d.Name(), "duplicate dimension", d.Name())
		}
		seen[d.Name()] = true
		if err := d.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Sample draws one configuration.
func (s Space) Sample(r *rand.Rand) model.Params {
	p := make(model.Params, len(s))
	for _, d := range s {
		p[d.Name()] = d.Sample(r)
	}
	return p
}

// Encode maps a configuration to a point of the unit cube, in dimension order.
func (s Space) Encode(p model.Params) ([]float64, error) {
	u := make([]float64, len(s))
	for i, d := range s {
		v, ok := p[d.Name()]
		if !ok {
			return nil, errors.NewValidationError(d.Name(), "missing from configuration", nil)
		}
		x, err := d.Encode(v)
		if err != nil {
			return nil, err
		}
		u[i] = x
	}
	return u, nil
}

// Decode maps a point of the unit cube to a configuration.
func (s Space) Decode(u []float64) model.Params {
	p := make(model.Params, len(s))
	for i, d := range s {
		p[d.Name()] = d.Decode(u[i])
	}
	return p
}

// RegularGrid builds a grid with up to levels values per dimension.
func (s Space) RegularGrid(levels int) ParamGrid {
	grid := make(ParamGrid, len(s))
	for i, d := range s {
		grid[i] = GridParam{Name: d.Name(), Values: d.Grid(levels)}
	}
	return grid
}
