package metrics

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// ROCPoint は閾値ごとの偽陽性率と真陽性率
type ROCPoint struct {
	Threshold float64
	FPR       float64
	TPR       float64
}

// ROCCurve は一つのクラスを正例とした one-vs-rest のROC曲線
type ROCCurve struct {
	Class  int
	Label  string
	Points []ROCPoint
}

// Area は台形則による曲線下面積
func (c ROCCurve) Area() float64 {
	area := 0.0
	for i := 1; i < len(c.Points); i++ {
		a, b := c.Points[i-1], c.Points[i]
		area += (b.FPR - a.FPR) * (a.TPR + b.TPR) / 2
	}
	return area
}

// BinaryROC はスコアの異なる値ごとに点を一つ持つROC曲線を返す。
// 先頭は閾値+Infの(0,0)、末尾は(1,1)
func BinaryROC(scores []float64, positive []bool) ([]ROCPoint, error) {
	if len(scores) == 0 {
		return nil, errors.NewValueError("BinaryROC", "empty scores")
	}
	if len(scores) != len(positive) {
		return nil, errors.NewDimensionError("BinaryROC", len(scores), len(positive), 0)
	}

	var nPos, nNeg int
	for _, p := range positive {
		if p {
			nPos++
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		return nil, errors.NewValueError("BinaryROC", "both positive and negative samples are required")
	}

	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool { return scores[order[a]] > scores[order[b]] })

	points := []ROCPoint{{Threshold: math.Inf(1)}}
	var tp, fp int
	for i := 0; i < len(order); {
		threshold := scores[order[i]]
		for i < len(order) && scores[order[i]] == threshold {
			if positive[order[i]] {
				tp++
			} else {
				fp++
			}
			i++
		}
		points = append(points, ROCPoint{
			Threshold: threshold,
			FPR:       float64(fp) / float64(nNeg),
			TPR:       float64(tp) / float64(nPos),
		})
	}
	return points, nil
}

// ROCCurves はクラスごとに one-vs-rest のROC曲線を計算する。
// proba の列は labels の順に対応する。正例か負例が存在しないクラスは
// UndefinedMetricWarning を出して省く
func ROCCurves(yTrue []int, proba mat.Matrix, labels []string) ([]ROCCurve, error) {
	if err := checkProba("ROCCurves", yTrue, proba, len(labels)); err != nil {
		return nil, err
	}
	curves := make([]ROCCurve, 0, len(labels))
	positive := make([]bool, len(yTrue))
	for k, label := range labels {
		nPos := 0
		for i, y := range yTrue {
			positive[i] = y == k
			if positive[i] {
				nPos++
			}
		}
		if nPos == 0 || nPos == len(yTrue) {
			errors.Warn(errors.NewUndefinedMetricWarning("roc_curve", fmt.Sprintf("class %s has no positive or no negative samples", label), 0))
			continue
		}
		points, err := BinaryROC(mat.Col(nil, k, proba), positive)
		if err != nil {
			return nil, errors.Wrapf(err, "class %s", label)
		}
		curves = append(curves, ROCCurve{Class: k, Label: label, Points: points})
	}
	return curves, nil
}
