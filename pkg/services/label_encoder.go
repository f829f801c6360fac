package services

import (
	"sort"

	"warehouse-sim-api/pkg/models"
)

// LabelEncoder カテゴリ文字列を安定した整数コードに対応付けるエンコーダー。
// Fitで語彙を確定した後は不変で、未知の値はUnknownCategoryErrorになる。
type LabelEncoder struct {
	field   string
	codes   map[string]int
	classes []string
}

// NewLabelEncoder 新しいエンコーダーを作成。fieldはエラー表示に使うフィールド名。
func NewLabelEncoder(field string) *LabelEncoder {
	return &LabelEncoder{
		field: field,
		codes: make(map[string]int),
	}
}

// Fit 学習データの全語彙からコード空間を構築する。
// コードはソート済み語彙の順で割り当てるため、実行ごとに安定する。
func (e *LabelEncoder) Fit(categories []string) {
	seen := make(map[string]struct{}, len(categories))
	classes := make([]string, 0, len(categories))
	for _, c := range categories {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		classes = append(classes, c)
	}
	sort.Strings(classes)

	e.classes = classes
	e.codes = make(map[string]int, len(classes))
	for i, c := range classes {
		e.codes[c] = i
	}
}

// Encode 値の列を整数コードの列に変換する。語彙に無い値はエラー。
func (e *LabelEncoder) Encode(values []string) ([]int, error) {
	out := make([]int, len(values))
	for i, v := range values {
		code, ok := e.codes[v]
		if !ok {
			return nil, &models.UnknownCategoryError{Field: e.field, Value: v}
		}
		out[i] = code
	}
	return out, nil
}

// Decode コードの列を元の文字列に戻す。範囲外のコードはエラー。
func (e *LabelEncoder) Decode(codes []int) ([]string, error) {
	out := make([]string, len(codes))
	for i, c := range codes {
		if c < 0 || c >= len(e.classes) {
			return nil, &models.UnknownCategoryError{Field: e.field, Value: "<out of range>"}
		}
		out[i] = e.classes[c]
	}
	return out, nil
}

// Classes 学習済みの語彙をコード順で返す。
func (e *LabelEncoder) Classes() []string {
	out := make([]string, len(e.classes))
	copy(out, e.classes)
	return out
}
