package models

import "fmt"

// UnknownCategoryError 学習時の語彙に存在しないカテゴリ値が渡された
// （未知のアイテム名・トレンド名はリクエスト不正として扱い、既定コードに黙って落とさない）
type UnknownCategoryError struct {
	Field string // "item" or "market_trend" など
	Value string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unknown %s category: %q", e.Field, e.Value)
}

// UnknownEventError カタログに存在しないイベントIDが指定された
type UnknownEventError struct {
	EventID string
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown market event: %q", e.EventID)
}

// ShapeMismatchError 入力シーケンスの長さが揃っていない
type ShapeMismatchError struct {
	Detail string
}

func (e *ShapeMismatchError) Error() string {
	return fmt.Sprintf("input length mismatch: %s", e.Detail)
}

// ModelTrainingError 起動時のモデル学習に失敗した（致命的）
type ModelTrainingError struct {
	Reason string
}

func (e *ModelTrainingError) Error() string {
	return fmt.Sprintf("model training failed: %s", e.Reason)
}
