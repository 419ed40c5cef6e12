package model_selection

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// DefaultNSplits is the fold count used when none is configured.
const DefaultNSplits = 5

// Fold is one resampling of the training rows. Validate is disjoint from
// Train and both are in ascending order.
type Fold struct {
	Index    int
	Train    []int
	Validate []int
}

// StratifiedKFold deals every class across NSplits folds so each validation
// portion preserves the class proportions.
type StratifiedKFold struct {
	NSplits int
	Shuffle bool
	Seed    uint64
}

// NewStratifiedKFold creates a stratified k-fold resampler.
func NewStratifiedKFold(nSplits int, shuffle bool, seed uint64) *StratifiedKFold {
	return &StratifiedKFold{NSplits: nSplits, Shuffle: shuffle, Seed: seed}
}

// GetNSplits returns the number of folds.
func (skf *StratifiedKFold) GetNSplits() int {
	return skf.NSplits
}

// Split generates the folds. Members of each class are dealt round-robin,
// continuing from where the previous class stopped so fold sizes differ by at
// most one. NSplits must be at least 2 and no larger than the smallest class.
func (skf *StratifiedKFold) Split(labels []int) ([]Fold, error) {
	k := skf.NSplits
	if k < 2 {
		return nil, errors.NewValidationError("folds", "must be at least 2", k)
	}
	if len(labels) == 0 {
		return nil, errors.NewValueError("StratifiedKFold.Split", "no labels")
	}

	classes, groups := groupByClass(labels)
	for _, c := range classes {
		if n := len(groups[c]); n < k {
			return nil, errors.NewValidationError("folds",
				fmt.Sprintf("exceeds the %d member(s) of class %d", n, c), k)
		}
	}

	var r *rand.Rand
	if skf.Shuffle {
		r = rand.New(rand.NewPCG(skf.Seed, skf.Seed))
	}

	assign := make([]int, len(labels))
	offset := 0
	for _, c := range classes {
		members := append([]int(nil), groups[c]...)
		if r != nil {
			r.Shuffle(len(members), func(i, j int) { members[i], members[j] = members[j], members[i] })
		}
		for j, idx := range members {
			assign[idx] = (offset + j) % k
		}
		offset = (offset + len(members)) % k
	}

	folds := make([]Fold, k)
	for f := range folds {
		folds[f].Index = f
	}
	for i, f := range assign {
		folds[f].Validate = append(folds[f].Validate, i)
		for g := range folds {
			if g != f {
				folds[g].Train = append(folds[g].Train, i)
			}
		}
	}
	for f := range folds {
		sort.Ints(folds[f].Validate)
		sort.Ints(folds[f].Train)
	}
	return folds, nil
}
