package preprocessing

import (
	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// スケーラーの種類
const (
	ScalerRange    = "range"
	ScalerStandard = "standard"
	ScalerNone     = "none"
)

// Recipe は前処理の宣言的な記述。New を呼ぶたびに状態を持たない新しい Pipeline を返すため、
// フォールドごとに独立して学習できる
type Recipe struct {
	// Scaler は "range"（デフォルト）、"standard"、"none" のいずれか
	Scaler string
	// FeatureRange は range スケーラーの出力範囲
	FeatureRange [2]float64
	// Clip は range スケーラーで学習範囲外の値をクリップするか
	Clip bool
	// CorrelationThreshold は相関による削減の閾値。0 の場合は削減しない
	CorrelationThreshold float64
	// Categories はラベルコード LabelBase, LabelBase+1, ... のカテゴリ名
	Categories []string
	// LabelBase は最初のカテゴリのコード
	LabelBase int
}

// DefaultRecipe は範囲スケーリング、閾値0.90の相関削減、ラベル変換を行うレシピを返す
func DefaultRecipe(categories []string) Recipe {
	return Recipe{
		Scaler:               ScalerRange,
		FeatureRange:         [2]float64{0, 1},
		CorrelationThreshold: DefaultCorrelationThreshold,
		Categories:           append([]string(nil), categories...),
		LabelBase:            1,
	}
}

// Validate はレシピの設定を検証する
func (r Recipe) Validate() error {
	switch r.Scaler {
	case "", ScalerRange, ScalerStandard, ScalerNone:
	default:
		return errors.NewValidationError("scaler", "must be range, standard or none", r.Scaler)
	}
	if r.CorrelationThreshold < 0 || r.CorrelationThreshold > 1 {
		return errors.NewValidationError("correlation_threshold", "must be in [0, 1]", r.CorrelationThreshold)
	}
	if len(r.Categories) < 2 {
		return errors.NewValidationError("categories", "at least two categories are required", r.Categories)
	}
	return nil
}

// New は未学習の Pipeline を作成する
func (r Recipe) New() *Pipeline {
	var steps []model.Transformer
	switch r.Scaler {
	case "", ScalerRange:
		lo, hi := r.FeatureRange[0], r.FeatureRange[1]
		if lo == 0 && hi == 0 {
			hi = 1
		}
		steps = append(steps, NewMinMaxScaler(WithFeatureRange(lo, hi), WithClip(r.Clip)))
	case ScalerStandard:
		steps = append(steps, NewStandardScaler())
	}
	if r.CorrelationThreshold > 0 {
		steps = append(steps, NewCorrelationFilter(r.CorrelationThreshold))
	}
	return NewPipeline(NewLabelCoercer(r.Categories, r.LabelBase), steps...)
}
