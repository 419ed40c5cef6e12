package preprocessing

import (
	"context"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/seedtune/core/model"
	"github.com/YuminosukeSato/seedtune/pkg/errors"
	"github.com/YuminosukeSato/seedtune/pkg/log"
)

// Pipeline は特徴量の変換を宣言順に適用し、ラベルをカテゴリに変換する。
// 学習データだけで Fit し、同じ変換を検証・テストデータに適用する
type Pipeline struct {
	state  *model.StateManager
	steps  []model.Transformer
	labels LabelCoercer
}

// NewPipeline は変換ステップとラベル変換からPipelineを作成する
func NewPipeline(labels LabelCoercer, steps ...model.Transformer) *Pipeline {
	return &Pipeline{
		state:  model.NewStateManager(),
		steps:  steps,
		labels: labels,
	}
}

// Steps は変換ステップを適用順に返す
func (p *Pipeline) Steps() []model.Transformer {
	return append([]model.Transformer(nil), p.steps...)
}

// Fit は各ステップを順に学習する。各ステップは前のステップの出力で学習する
func (p *Pipeline) Fit(X mat.Matrix) error {
	_, err := p.FitTransform(X)
	return err
}

// FitTransform は学習と変換を同時に行う
func (p *Pipeline) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return nil, errors.NewModelError("Pipeline.Fit", "empty data", errors.ErrEmptyData)
	}
	p.state.Reset()

	out := X
	for _, step := range p.steps {
		var err error
		if out, err = step.FitTransform(out); err != nil {
			return nil, err
		}
	}

	p.state.SetDimensions(c, r)
	p.state.SetFitted()

	if logger := log.GetLoggerWithName("preprocessing"); logger.Enabled(context.Background(), log.LevelDebug) {
		_, kept := out.Dims()
		logger.Debug("pipeline fitted",
			log.PhaseKey, log.PhasePreprocessing,
			log.SamplesKey, r,
			log.FeaturesKey, kept,
		)
	}
	return out, nil
}

// Transform は学習済みの変換を適用する
func (p *Pipeline) Transform(X mat.Matrix) (mat.Matrix, error) {
	if err := p.state.RequireFitted("Pipeline", "Transform"); err != nil {
		return nil, err
	}
	_, c := X.Dims()
	if err := p.state.RequireFeatures("Pipeline.Transform", c); err != nil {
		return nil, err
	}

	out := X
	for _, step := range p.steps {
		var err error
		if out, err = step.Transform(out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Labels はラベルコードを n×1 のクラスインデックス行列に変換する
func (p *Pipeline) Labels(codes []int) (*mat.Dense, error) {
	idx, err := p.labels.Coerce(codes)
	if err != nil {
		return nil, err
	}
	y := mat.NewDense(len(idx), 1, nil)
	for i, v := range idx {
		y.Set(i, 0, float64(v))
	}
	return y, nil
}

// LabelCoercer はラベル変換を返す
func (p *Pipeline) LabelCoercer() LabelCoercer { return p.labels }

// RetainedFeatures は入力列名のうち、全ステップを通過した列名を返す
func (p *Pipeline) RetainedFeatures(names []string) ([]string, error) {
	if err := p.state.RequireFitted("Pipeline", "RetainedFeatures"); err != nil {
		return nil, err
	}
	out := append([]string(nil), names...)
	for _, step := range p.steps {
		sel, ok := step.(model.ColumnSelector)
		if !ok {
			continue
		}
		kept := make([]string, 0, len(out))
		for _, j := range sel.Retained() {
			if j < len(out) {
				kept = append(kept, out[j])
			}
		}
		out = kept
	}
	return out, nil
}
