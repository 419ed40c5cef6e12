package metrics

import (
	"gonum.org/v1/gonum/mat"
)

// Report はテストデータでの評価結果
type Report struct {
	Accuracy    float64 `json:"accuracy"`
	Precision   float64 `json:"precision"`
	Sensitivity float64 `json:"sensitivity"`
	Specificity float64 `json:"specificity"`
	ROCAUC      float64 `json:"roc_auc"`
	Kappa       float64 `json:"kap"`
	LogLoss     float64 `json:"mn_log_loss"`

	Confusion *ConfusionMatrix `json:"confusion"`
}

// Evaluate は予測クラスと確率から全ての指標を計算する。
// labels はクラス名で、proba の列とクラスインデックスに対応する
func Evaluate(yTrue, yPred []int, proba mat.Matrix, labels []string) (*Report, error) {
	cm, err := NewConfusionMatrix(yTrue, yPred, labels)
	if err != nil {
		return nil, err
	}
	k := len(labels)
	auc, err := RocAUC(yTrue, proba, k)
	if err != nil {
		return nil, err
	}
	ll, err := LogLoss(yTrue, proba, k)
	if err != nil {
		return nil, err
	}
	return &Report{
		Accuracy:    accuracy(cm),
		Precision:   precision(cm),
		Sensitivity: sensitivity(cm),
		Specificity: specificity(cm),
		ROCAUC:      auc,
		Kappa:       kappa(cm),
		LogLoss:     ll,
		Confusion:   cm,
	}, nil
}

// Get は登録名で指標の値を返す
func (r *Report) Get(name string) (float64, bool) {
	switch name {
	case "accuracy":
		return r.Accuracy, true
	case "precision":
		return r.Precision, true
	case "sensitivity", "recall":
		return r.Sensitivity, true
	case "specificity":
		return r.Specificity, true
	case "roc_auc":
		return r.ROCAUC, true
	case "kap":
		return r.Kappa, true
	case "mn_log_loss":
		return r.LogLoss, true
	default:
		return 0, false
	}
}
