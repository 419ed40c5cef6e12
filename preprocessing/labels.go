package preprocessing

import (
	"fmt"

	"github.com/YuminosukeSato/seedtune/pkg/errors"
)

// LabelCoercer は整数のラベルコードをカテゴリのインデックス（0始まり）に変換する。
// コード Base が Categories[0] に対応する
type LabelCoercer struct {
	Categories []string
	Base       int
}

// NewLabelCoercer は新しいLabelCoercerを作成する
func NewLabelCoercer(categories []string, base int) LabelCoercer {
	return LabelCoercer{Categories: append([]string(nil), categories...), Base: base}
}

// Len はカテゴリ数を返す
func (l LabelCoercer) Len() int { return len(l.Categories) }

// Index はラベルコードをインデックスに変換する
func (l LabelCoercer) Index(code int) (int, error) {
	idx := code - l.Base
	if idx < 0 || idx >= len(l.Categories) {
		return 0, errors.NewValueError("LabelCoercer.Index",
			fmt.Sprintf("label %d outside [%d, %d]", code, l.Base, l.Base+len(l.Categories)-1))
	}
	return idx, nil
}

// Coerce は全てのラベルコードを変換する
func (l LabelCoercer) Coerce(codes []int) ([]int, error) {
	out := make([]int, len(codes))
	for i, code := range codes {
		idx, err := l.Index(code)
		if err != nil {
			return nil, err
		}
		out[i] = idx
	}
	return out, nil
}

// Name はインデックスのカテゴリ名を返す
func (l LabelCoercer) Name(idx int) string {
	if idx < 0 || idx >= len(l.Categories) {
		return fmt.Sprintf("class_%d", idx)
	}
	return l.Categories[idx]
}

// Code はインデックスを元のラベルコードに戻す
func (l LabelCoercer) Code(idx int) int { return idx + l.Base }

// Classes は全カテゴリのインデックスを返す
func (l LabelCoercer) Classes() []int {
	out := make([]int, len(l.Categories))
	for i := range out {
		out[i] = i
	}
	return out
}
