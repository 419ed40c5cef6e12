package model_selection

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

func classShares(labels []int, idx []int) map[int]float64 {
	out := make(map[int]float64)
	for _, i := range idx {
		out[labels[i]]++
	}
	for c := range out {
		out[c] /= float64(len(idx))
	}
	return out
}

func TestStratifiedSplit(t *testing.T) {
	labels := repeatLabels(10, 10, 10)
	split, err := StratifiedSplit(labels, 0.7, 42)
	require.NoError(t, err)

	assert.Len(t, split.Train, 21)
	assert.Len(t, split.Test, 9)
	assert.True(t, sort.IntsAreSorted(split.Train))
	assert.True(t, sort.IntsAreSorted(split.Test))

	all := append(append([]int(nil), split.Train...), split.Test...)
	sort.Ints(all)
	for i, v := range all {
		require.Equal(t, i, v, "every record appears exactly once")
	}

	counts := map[int]int{}
	for _, i := range split.Train {
		counts[labels[i]]++
	}
	assert.Equal(t, map[int]int{1: 7, 2: 7, 3: 7}, counts)
}

func TestStratifiedSplit_PreservesProportions(t *testing.T) {
	labels := repeatLabels(71, 49, 30)
	split, err := StratifiedSplit(labels, 0.7, 1)
	require.NoError(t, err)

	all := make([]int, len(labels))
	for i := range all {
		all[i] = i
	}
	want := classShares(labels, all)
	for _, part := range [][]int{split.Train, split.Test} {
		got := classShares(labels, part)
		for c, share := range want {
			assert.InDelta(t, share, got[c], 0.02, "class %d", c)
		}
	}
}

func TestStratifiedSplit_Deterministic(t *testing.T) {
	labels := repeatLabels(10, 10, 10)
	a, err := StratifiedSplit(labels, 0.7, 5)
	require.NoError(t, err)
	b, err := StratifiedSplit(labels, 0.7, 5)
	require.NoError(t, err)
	c, err := StratifiedSplit(labels, 0.7, 6)
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.NotEqual(t, a.Train, c.Train)
}

func TestStratifiedSplit_Clamp(t *testing.T) {
	split, err := StratifiedSplit(repeatLabels(2, 2), 0.9, 1)
	require.NoError(t, err)
	assert.Len(t, split.Train, 2)
	assert.Len(t, split.Test, 2)
}

func TestStratifiedSplit_Errors(t *testing.T) {
	tests := []struct {
		name     string
		labels   []int
		fraction float64
		dataErr  bool
	}{
		{"singleton class", repeatLabels(5, 1, 5), 0.7, true},
		{"no records", nil, 0.7, true},
		{"zero fraction", repeatLabels(5, 5), 0, false},
		{"full fraction", repeatLabels(5, 5), 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := StratifiedSplit(tt.labels, tt.fraction, 1)
			require.Error(t, err)
			var de *errors.DataError
			assert.Equal(t, tt.dataErr, errors.As(err, &de))
		})
	}
}

func TestTrainTestSplit(t *testing.T) {
	ds := syntheticSeeds(t, 10)
	train, test, err := TrainTestSplit(ds, 0.7, 42)
	require.NoError(t, err)
	assert.Equal(t, 21, train.Len())
	assert.Equal(t, 9, test.Len())
	assert.Equal(t, map[int]int{1: 3, 2: 3, 3: 3}, test.ClassCounts())

	_, _, err = TrainTestSplit(nil, 0.7, 42)
	assert.Error(t, err)
}

func TestStratifiedKFold(t *testing.T) {
	labels := repeatLabels(7, 7, 7)
	folds, err := NewStratifiedKFold(5, true, 42).Split(labels)
	require.NoError(t, err)
	require.Len(t, folds, 5)

	seen := make(map[int]int)
	minSize, maxSize := len(labels), 0
	for f, fold := range folds {
		assert.Equal(t, f, fold.Index)
		assert.Len(t, fold.Train, len(labels)-len(fold.Validate))
		assert.True(t, sort.IntsAreSorted(fold.Validate))

		inValidate := make(map[int]bool)
		for _, i := range fold.Validate {
			seen[i]++
			inValidate[i] = true
		}
		for _, i := range fold.Train {
			assert.False(t, inValidate[i], "fold %d: row %d in both portions", f, i)
		}

		perClass := map[int]int{}
		for _, i := range fold.Validate {
			perClass[labels[i]]++
		}
		for c, n := range perClass {
			assert.True(t, n == 1 || n == 2, "fold %d class %d has %d rows", f, c, n)
		}
		minSize = min(minSize, len(fold.Validate))
		maxSize = max(maxSize, len(fold.Validate))
	}

	assert.Len(t, seen, len(labels))
	for i, n := range seen {
		assert.Equal(t, 1, n, "row %d validated %d times", i, n)
	}
	assert.LessOrEqual(t, maxSize-minSize, 1)
}

func TestStratifiedKFold_Deterministic(t *testing.T) {
	labels := repeatLabels(6, 6)
	a, err := NewStratifiedKFold(3, true, 9).Split(labels)
	require.NoError(t, err)
	b, err := NewStratifiedKFold(3, true, 9).Split(labels)
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Equal(t, 3, NewStratifiedKFold(3, true, 9).GetNSplits())
}

func TestStratifiedKFold_Errors(t *testing.T) {
	_, err := NewStratifiedKFold(5, false, 0).Split(repeatLabels(7, 4))
	var ve *errors.ValidationError
	require.Error(t, err)
	assert.True(t, errors.As(err, &ve))

	_, err = NewStratifiedKFold(1, false, 0).Split(repeatLabels(7, 7))
	assert.Error(t, err)

	_, err = NewStratifiedKFold(2, false, 0).Split(nil)
	assert.Error(t, err)
}
