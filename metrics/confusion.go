package metrics

import (
	"fmt"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// ConfusionMatrix は行が真のクラス、列が予測クラスの件数表
type ConfusionMatrix struct {
	Labels []string
	Counts [][]int
}

// NewConfusionMatrix はクラスインデックスの真値と予測から混同行列を作る。
// labels の長さがクラス数になる
func NewConfusionMatrix(yTrue, yPred []int, labels []string) (*ConfusionMatrix, error) {
	if err := checkLabels("ConfusionMatrix", yTrue, yPred, len(labels)); err != nil {
		return nil, err
	}
	k := len(labels)
	counts := make([][]int, k)
	for i := range counts {
		counts[i] = make([]int, k)
	}
	for i := range yTrue {
		counts[yTrue[i]][yPred[i]]++
	}
	return &ConfusionMatrix{Labels: append([]string(nil), labels...), Counts: counts}, nil
}

// Total は全件数を返す
func (c *ConfusionMatrix) Total() int {
	total := 0
	for _, row := range c.Counts {
		for _, v := range row {
			total += v
		}
	}
	return total
}

// TruePositives はクラス k の真陽性数
func (c *ConfusionMatrix) TruePositives(k int) int { return c.Counts[k][k] }

// FalsePositives はクラス k と予測されたが真値が異なる件数
func (c *ConfusionMatrix) FalsePositives(k int) int {
	fp := 0
	for i := range c.Counts {
		if i != k {
			fp += c.Counts[i][k]
		}
	}
	return fp
}

// FalseNegatives は真値がクラス k だが別クラスと予測された件数
func (c *ConfusionMatrix) FalseNegatives(k int) int {
	fn := 0
	for j, v := range c.Counts[k] {
		if j != k {
			fn += v
		}
	}
	return fn
}

// TrueNegatives は真値も予測もクラス k でない件数
func (c *ConfusionMatrix) TrueNegatives(k int) int {
	return c.Total() - c.TruePositives(k) - c.FalsePositives(k) - c.FalseNegatives(k)
}

// RowTotals は真のクラスごとの件数を返す
func (c *ConfusionMatrix) RowTotals() []int {
	out := make([]int, len(c.Counts))
	for i, row := range c.Counts {
		for _, v := range row {
			out[i] += v
		}
	}
	return out
}

// ColTotals は予測クラスごとの件数を返す
func (c *ConfusionMatrix) ColTotals() []int {
	out := make([]int, len(c.Counts))
	for _, row := range c.Counts {
		for j, v := range row {
			out[j] += v
		}
	}
	return out
}

// checkLabels は真値と予測の長さと範囲を確認する
func checkLabels(op string, yTrue, yPred []int, nClasses int) error {
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty labels")
	}
	if len(yPred) != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), len(yPred), 0)
	}
	if nClasses < 2 {
		return errors.NewValueError(op, "at least two classes are required")
	}
	for i := range yTrue {
		if yTrue[i] < 0 || yTrue[i] >= nClasses || yPred[i] < 0 || yPred[i] >= nClasses {
			return errors.NewValueError(op, fmt.Sprintf("label outside [0, %d) at row %d", nClasses, i))
		}
	}
	return nil
}
