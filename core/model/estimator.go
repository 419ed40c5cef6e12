package model

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる。y は n×1 のクラスインデックス
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測クラスを n×1 の行列で返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier は確率出力を持つ分類器のインターフェース。
// 探索ドライバはこのインターフェースだけを通してモデルを扱う。
type Classifier interface {
	Fitter
	Predictor

	// PredictProba は n×len(Classes()) のクラス確率を返す。各行の和は1
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に観測したクラスインデックスを昇順で返す
	Classes() []int
}

// Spec はハイパーパラメータから未学習の Classifier を組み立てるモデル仕様です。
// 仕様は不変で、フォールドごとに Build を呼んで新しいインスタンスを得ます。
type Spec interface {
	// Name はログや結果表で使う短い名前（例: "knn"）
	Name() string

	// Build はパラメータを検証し、新しい Classifier を返す
	Build(params Params) (Classifier, error)
}

// ContextFitter は学習中にキャンセルを観測できる分類器が実装する
type ContextFitter interface {
	// FitContext は ctx がキャンセルされると学習を打ち切り ctx.Err() を含むエラーを返す
	FitContext(ctx context.Context, X, y mat.Matrix) error
}

// ContextProbaPredictor は予測中にキャンセルを観測できる分類器が実装する
type ContextProbaPredictor interface {
	PredictProbaContext(ctx context.Context, X mat.Matrix) (mat.Matrix, error)
}

// FitContext は clf を ctx の下で学習させる。
// ContextFitter を実装しない分類器は開始前と終了後にだけ ctx を確認する
func FitContext(ctx context.Context, clf Fitter, X, y mat.Matrix) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if cf, ok := clf.(ContextFitter); ok {
		return cf.FitContext(ctx, X, y)
	}
	if err := clf.Fit(X, y); err != nil {
		return err
	}
	return ctx.Err()
}

// PredictProbaContext は clf のクラス確率を ctx の下で計算する
func PredictProbaContext(ctx context.Context, clf Classifier, X mat.Matrix) (mat.Matrix, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if cp, ok := clf.(ContextProbaPredictor); ok {
		return cp.PredictProbaContext(ctx, X)
	}
	proba, err := clf.PredictProba(X)
	if err != nil {
		return nil, err
	}
	return proba, ctx.Err()
}
