package model_selection

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sort"

	"github.com/YuminosukeSato/seedtune/dataset"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// Split holds disjoint row indices of a stratified train/test partition.
// Both slices are in ascending order.
type Split struct {
	Train []int
	Test  []int
}

// groupByClass returns the row indices of every label, classes in ascending order.
func groupByClass(labels []int) ([]int, map[int][]int) {
	groups := make(map[int][]int)
	for i, y := range labels {
		groups[y] = append(groups[y], i)
	}
	classes := make([]int, 0, len(groups))
	for c := range groups {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes, groups
}

// StratifiedSplit partitions rows so every class keeps roughly trainFraction of
// its members in Train. Each class contributes round(n*trainFraction) rows to
// Train, clamped so both subsets get at least one member. The same seed always
// yields the same partition.
func StratifiedSplit(labels []int, trainFraction float64, seed uint64) (Split, error) {
	if len(labels) == 0 {
		return Split{}, errors.NewDataError("stratified split", 0, "", "no records")
	}
	if !(trainFraction > 0 && trainFraction < 1) {
		return Split{}, errors.NewValidationError("train_fraction", "must be in (0, 1)", trainFraction)
	}

	classes, groups := groupByClass(labels)
	r := rand.New(rand.NewPCG(seed, seed))

	var split Split
	for _, c := range classes {
		members := append([]int(nil), groups[c]...)
		n := len(members)
		if n < 2 {
			return Split{}, errors.NewDataError("stratified split", 0, dataset.DefaultLabelColumn,
				fmt.Sprintf("class %d has %d member(s), at least 2 are required", c, n))
		}
		r.Shuffle(n, func(i, j int) { members[i], members[j] = members[j], members[i] })

		nTrain := int(math.Round(float64(n) * trainFraction))
		nTrain = max(1, min(nTrain, n-1))
		split.Train = append(split.Train, members[:nTrain]...)
		split.Test = append(split.Test, members[nTrain:]...)
	}
	sort.Ints(split.Train)
	sort.Ints(split.Test)
	return split, nil
}

// TrainTestSplit applies StratifiedSplit to a dataset's labels and returns the
// two subsets.
func TrainTestSplit(ds *dataset.Dataset, trainFraction float64, seed uint64) (train, test *dataset.Dataset, err error) {
	if ds == nil {
		return nil, nil, errors.NewValueError("TrainTestSplit", "nil dataset")
	}
	split, err := StratifiedSplit(ds.Labels(), trainFraction, seed)
	if err != nil {
		return nil, nil, err
	}
	if train, err = ds.Subset(split.Train); err != nil {
		return nil, nil, err
	}
	if test, err = ds.Subset(split.Test); err != nil {
		return nil, nil, err
	}
	return train, test, nil
}
