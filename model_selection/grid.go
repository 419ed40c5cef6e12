package model_selection

import (
	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// GridParam is one hyperparameter and the discrete values to try.
type GridParam struct {
	Name   string
	Values []any
}

// ParamGrid is an ordered list of hyperparameters whose Cartesian product is
// searched exhaustively.
type ParamGrid []GridParam

// Validate rejects empty grids, empty value lists and duplicate names.
func (g ParamGrid) Validate() error {
	if len(g) == 0 {
		return errors.NewValidationError("grid", "at least one parameter is required", nil)
	}
	seen := make(map[string]bool, len(g))
	for _, p := range g {
		if seen[p.Name] {
			return errors.NewValidationError(p.Name, "duplicate grid parameter", p.Name)
		}
		seen[p.Name] = true
		if len(p.Values) == 0 {
			return errors.NewValidationError(p.Name, "at least one value is required", p.Values)
		}
	}
	return nil
}

// Size returns the number of combinations.
func (g ParamGrid) Size() int {
	if len(g) == 0 {
		return 0
	}
	n := 1
	for _, p := range g {
		n *= len(p.Values)
	}
	return n
}

// Combinations returns the Cartesian product. The last parameter varies
// fastest, so the order depends only on the grid.
func (g ParamGrid) Combinations() []model.Params {
	n := g.Size()
	out := make([]model.Params, 0, n)
	idx := make([]int, len(g))
	for c := 0; c < n; c++ {
		p := make(model.Params, len(g))
		for i, gp := range g {
			p[gp.Name] = gp.Values[idx[i]]
		}
		out = append(out, p)

		for i := len(g) - 1; i >= 0; i-- {
			idx[i]++
			if idx[i] < len(g[i].Values) {
				break
			}
			idx[i] = 0
		}
	}
	return out
}
