package metrics

import (
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Metric は名前で参照できる評価指標。Minimize が true の場合は小さいほど良い
type Metric struct {
	Name       string
	Minimize   bool
	NeedsProba bool
	Fn         func(yTrue, yPred []int, proba mat.Matrix, nClasses int) (float64, error)
}

// Better は a が b より良い値かどうかを返す
func (m Metric) Better(a, b float64) bool {
	if m.Minimize {
		return a < b
	}
	return a > b
}

var registry = map[string]Metric{}

func register(m Metric) { registry[m.Name] = m }

func init() {
	register(Metric{Name: "accuracy", Fn: func(yTrue, yPred []int, _ mat.Matrix, k int) (float64, error) {
		return AccuracyScore(yTrue, yPred, k)
	}})
	register(Metric{Name: "precision", Fn: func(yTrue, yPred []int, _ mat.Matrix, k int) (float64, error) {
		return MacroPrecision(yTrue, yPred, k)
	}})
	sens := func(yTrue, yPred []int, _ mat.Matrix, k int) (float64, error) {
		return MacroSensitivity(yTrue, yPred, k)
	}
	register(Metric{Name: "sensitivity", Fn: sens})
	register(Metric{Name: "recall", Fn: sens})
	register(Metric{Name: "specificity", Fn: func(yTrue, yPred []int, _ mat.Matrix, k int) (float64, error) {
		return MacroSpecificity(yTrue, yPred, k)
	}})
	register(Metric{Name: "kap", Fn: func(yTrue, yPred []int, _ mat.Matrix, k int) (float64, error) {
		return Kappa(yTrue, yPred, k)
	}})
	register(Metric{Name: "roc_auc", NeedsProba: true, Fn: func(yTrue, _ []int, proba mat.Matrix, k int) (float64, error) {
		return RocAUC(yTrue, proba, k)
	}})
	register(Metric{Name: "mn_log_loss", Minimize: true, NeedsProba: true, Fn: func(yTrue, _ []int, proba mat.Matrix, k int) (float64, error) {
		return LogLoss(yTrue, proba, k)
	}})
}

// Lookup は名前から評価指標を返す
func Lookup(name string) (Metric, bool) {
	m, ok := registry[name]
	return m, ok
}

// Names は登録済みの指標名を辞書順で返す
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
