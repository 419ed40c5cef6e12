package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

func unnamed(nClasses int) []string {
	labels := make([]string, nClasses)
	for i := range labels {
		labels[i] = fmt.Sprintf("class_%d", i)
	}
	return labels
}

// AccuracyScore は多クラスの正解率
func AccuracyScore(yTrue, yPred []int, nClasses int) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, unnamed(nClasses))
	if err != nil {
		return 0, err
	}
	return accuracy(cm), nil
}

// MacroPrecision はクラスごとの適合率の単純平均。
// 予測が1件もないクラスの適合率は0とし、UndefinedMetricWarningを出す
func MacroPrecision(yTrue, yPred []int, nClasses int) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, unnamed(nClasses))
	if err != nil {
		return 0, err
	}
	return precision(cm), nil
}

// MacroSensitivity はクラスごとの再現率（感度）の単純平均。
// 真値に1件もないクラスの感度は0とし、UndefinedMetricWarningを出す
func MacroSensitivity(yTrue, yPred []int, nClasses int) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, unnamed(nClasses))
	if err != nil {
		return 0, err
	}
	return sensitivity(cm), nil
}

// MacroSpecificity はクラスごとの特異度 TN/(TN+FP) の単純平均
func MacroSpecificity(yTrue, yPred []int, nClasses int) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, unnamed(nClasses))
	if err != nil {
		return 0, err
	}
	return specificity(cm), nil
}

// Kappa はCohenのカッパ係数。偶然一致率が1の場合は0を返し警告を出す
func Kappa(yTrue, yPred []int, nClasses int) (float64, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, unnamed(nClasses))
	if err != nil {
		return 0, err
	}
	return kappa(cm), nil
}

func accuracy(cm *ConfusionMatrix) float64 {
	correct := 0
	for k := range cm.Counts {
		correct += cm.Counts[k][k]
	}
	return float64(correct) / float64(cm.Total())
}

func precision(cm *ConfusionMatrix) float64 {
	sum := 0.0
	for k := range cm.Counts {
		tp, fp := cm.TruePositives(k), cm.FalsePositives(k)
		if tp+fp == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("precision", fmt.Sprintf("no predicted samples for class %s", cm.Labels[k]), 0))
			continue
		}
		sum += float64(tp) / float64(tp+fp)
	}
	return sum / float64(len(cm.Counts))
}

func sensitivity(cm *ConfusionMatrix) float64 {
	sum := 0.0
	for k := range cm.Counts {
		tp, fn := cm.TruePositives(k), cm.FalseNegatives(k)
		if tp+fn == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("sensitivity", fmt.Sprintf("no true samples for class %s", cm.Labels[k]), 0))
			continue
		}
		sum += float64(tp) / float64(tp+fn)
	}
	return sum / float64(len(cm.Counts))
}

func specificity(cm *ConfusionMatrix) float64 {
	sum := 0.0
	for k := range cm.Counts {
		tn, fp := cm.TrueNegatives(k), cm.FalsePositives(k)
		if tn+fp == 0 {
			errors.Warn(errors.NewUndefinedMetricWarning("specificity", fmt.Sprintf("no negative samples for class %s", cm.Labels[k]), 0))
			continue
		}
		sum += float64(tn) / float64(tn+fp)
	}
	return sum / float64(len(cm.Counts))
}

func kappa(cm *ConfusionMatrix) float64 {
	n := float64(cm.Total())
	rows, cols := cm.RowTotals(), cm.ColTotals()
	pe := 0.0
	for k := range rows {
		pe += float64(rows[k]) * float64(cols[k]) / (n * n)
	}
	if pe >= 1 {
		errors.Warn(errors.NewUndefinedMetricWarning("kap", "expected agreement is 1", 0))
		return 0
	}
	return (accuracy(cm) - pe) / (1 - pe)
}

// checkProba は確率行列の形を確認する
func checkProba(op string, yTrue []int, proba mat.Matrix, nClasses int) error {
	if proba == nil {
		return errors.NewValueError(op, "nil probability matrix")
	}
	r, c := proba.Dims()
	if r != len(yTrue) {
		return errors.NewDimensionError(op, len(yTrue), r, 0)
	}
	if c != nClasses {
		return errors.NewDimensionError(op, nClasses, c, 1)
	}
	if len(yTrue) == 0 {
		return errors.NewValueError(op, "empty labels")
	}
	for i, y := range yTrue {
		if y < 0 || y >= nClasses {
			return errors.NewValueError(op, fmt.Sprintf("label outside [0, %d) at row %d", nClasses, i))
		}
	}
	return nil
}

// LogLoss は多クラスの平均交差エントロピー。確率は 1e-15 で下から抑える
func LogLoss(yTrue []int, proba mat.Matrix, nClasses int) (float64, error) {
	if err := checkProba("LogLoss", yTrue, proba, nClasses); err != nil {
		return 0, err
	}
	sum := 0.0
	for i, y := range yTrue {
		sum -= errors.StabilizeLog(proba.At(i, y))
	}
	return sum / float64(len(yTrue)), nil
}

// RocAUC は多クラスのROC AUC。2クラスでは通常のAUC、3クラス以上では
// Hand & Till (2001) のペアごとのAUCの平均を返す
func RocAUC(yTrue []int, proba mat.Matrix, nClasses int) (float64, error) {
	if err := checkProba("RocAUC", yTrue, proba, nClasses); err != nil {
		return 0, err
	}
	if nClasses == 2 {
		scores := mat.Col(nil, 1, proba)
		positive := make([]bool, len(yTrue))
		for i, y := range yTrue {
			positive[i] = y == 1
		}
		return rankAUC(scores, positive), nil
	}

	sum, pairs := 0.0, 0
	for i := 0; i < nClasses; i++ {
		for j := i + 1; j < nClasses; j++ {
			aij, okI := pairAUC(yTrue, proba, i, j)
			aji, okJ := pairAUC(yTrue, proba, j, i)
			if !okI || !okJ {
				continue
			}
			sum += (aij + aji) / 2
			pairs++
		}
	}
	if pairs == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "fewer than two classes present", 0.5))
		return 0.5, nil
	}
	return sum / float64(pairs), nil
}

// pairAUC は クラス pos と neg の標本だけを使い、列 pos の確率で pos を識別するAUC
func pairAUC(yTrue []int, proba mat.Matrix, pos, neg int) (float64, bool) {
	var scores []float64
	var positive []bool
	var nPos, nNeg int
	for i, y := range yTrue {
		switch y {
		case pos:
			nPos++
		case neg:
			nNeg++
		default:
			continue
		}
		scores = append(scores, proba.At(i, pos))
		positive = append(positive, y == pos)
	}
	if nPos == 0 || nNeg == 0 {
		return 0, false
	}
	return rankAUC(scores, positive), true
}
