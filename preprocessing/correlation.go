package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// DefaultCorrelationThreshold は相関による削減のデフォルト閾値
const DefaultCorrelationThreshold = 0.90

// CorrelationFilter は絶対相関が閾値を超える特徴量の組から一方を落とす変換器。
//
// 学習時、残っている組のうち |r| が最大のもの（同値なら列順で最初の組）を選び、
// 残りの特徴量との平均絶対相関が大きい方を落とす。平均が等しい場合は後ろの列を落とす。
// これを閾値を超える組がなくなるまで繰り返す。分散0の列の相関は0とみなす。
// 保持する列は学習時に確定し、Transform では変わらない。
type CorrelationFilter struct {
	state *model.StateManager

	// Threshold はこの値を超える |r| を冗長とみなす
	Threshold float64

	retained []int
	dropped  []int
}

// NewCorrelationFilter は新しいCorrelationFilterを作成する
func NewCorrelationFilter(threshold float64) *CorrelationFilter {
	return &CorrelationFilter{
		state:     model.NewStateManager(),
		Threshold: threshold,
	}
}

// Fit は学習データの相関行列から保持する列を決める
func (f *CorrelationFilter) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("CorrelationFilter.Fit", "empty data", errors.ErrEmptyData)
	}
	if f.Threshold <= 0 || f.Threshold > 1 {
		return errors.NewValidationError("threshold", "must be in (0, 1]", f.Threshold)
	}

	abs := absCorrelation(X)
	keep := make([]bool, c)
	for j := range keep {
		keep[j] = true
	}

	f.dropped = f.dropped[:0]
	for {
		bi, bj, best := -1, -1, f.Threshold
		for i := 0; i < c; i++ {
			if !keep[i] {
				continue
			}
			for j := i + 1; j < c; j++ {
				if keep[j] && abs.At(i, j) > best {
					bi, bj, best = i, j, abs.At(i, j)
				}
			}
		}
		if bi < 0 {
			break
		}
		drop := bj
		if meanAbs(abs, keep, bi) > meanAbs(abs, keep, bj) {
			drop = bi
		}
		keep[drop] = false
		f.dropped = append(f.dropped, drop)
	}

	f.retained = f.retained[:0]
	for j, k := range keep {
		if k {
			f.retained = append(f.retained, j)
		}
	}

	f.state.SetDimensions(c, r)
	f.state.SetFitted()
	return nil
}

// Transform は保持する列だけを取り出す
func (f *CorrelationFilter) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := f.state.RequireFitted("CorrelationFilter", "Transform"); err != nil {
		return nil, err
	}
	r, c := X.Dims()
	if err := f.state.RequireFeatures("CorrelationFilter.Transform", c); err != nil {
		return nil, err
	}

	result := mat.NewDense(r, len(f.retained), nil)
	for k, j := range f.retained {
		for i := 0; i < r; i++ {
			result.Set(i, k, X.At(i, j))
		}
	}
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (f *CorrelationFilter) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := f.Fit(X); err != nil {
		return nil, err
	}
	return f.Transform(X)
}

// Retained は保持する入力列のインデックスを昇順で返す
func (f *CorrelationFilter) Retained() []int {
	return append([]int(nil), f.retained...)
}

// Dropped は落とした入力列のインデックスを落とした順に返す
func (f *CorrelationFilter) Dropped() []int {
	return append([]int(nil), f.dropped...)
}

// absCorrelation は絶対値のピアソン相関行列を返す。NaN（分散0）は0に置き換える
func absCorrelation(X mat.Matrix) *mat.SymDense {
	_, c := X.Dims()
	corr := mat.NewSymDense(c, nil)
	if r, _ := X.Dims(); r > 1 {
		stat.CorrelationMatrix(corr, X, nil)
	}
	for i := 0; i < c; i++ {
		for j := i; j < c; j++ {
			v := math.Abs(corr.At(i, j))
			if math.IsNaN(v) {
				v = 0
			}
			corr.SetSym(i, j, v)
		}
	}
	return corr
}

// meanAbs は列 j と、保持中の他の列との平均絶対相関
func meanAbs(abs *mat.SymDense, keep []bool, j int) float64 {
	sum, n := 0.0, 0
	for k, ok := range keep {
		if ok && k != j {
			sum += abs.At(j, k)
			n++
		}
	}
	return errors.SafeDivide(sum, float64(n))
}
