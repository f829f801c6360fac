package services

import (
	"fmt"
	"log"
	"math/rand"
	"sync"

	"warehouse-sim-api/pkg/models"
)

// アンサンブルの固定重み。呼び出しごとに変更できない設計定数。
const (
	ensembleModelWeight    = 0.7
	ensembleBaselineWeight = 0.3
)

// 信頼度はイベントとは独立な行ごとのノイズ項で、[0.70, 0.90]の一様分布から引く。
const (
	confidenceFloor = 0.70
	confidenceRange = 0.20
)

// WarehousePredictorService 在庫予測エンジン本体。
// 起動時に一度学習し、以後モデル・エンコーダー・移動平均は読み取り専用。
// 信頼度用の乱数生成器だけはセッション間で共有するためミューテックスで守る。
type WarehousePredictorService struct {
	forest       *RandomForest
	itemEncoder  *LabelEncoder
	trendEncoder *LabelEncoder
	tracker      *MovingAverageTracker
	adjuster     *EventAdjusterService
	eventCatalog *EventCatalogService

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWarehousePredictorService 新しい予測サービスを作成。seedはフォレストと
// 信頼度ノイズの両方に使い、固定すれば実行全体が決定的になる。
func NewWarehousePredictorService(eventCatalog *EventCatalogService, seed int64) *WarehousePredictorService {
	forest := NewRandomForest()
	forest.Seed = seed
	return &WarehousePredictorService{
		forest:       forest,
		itemEncoder:  NewLabelEncoder("item"),
		trendEncoder: NewLabelEncoder("market_trend"),
		tracker:      NewMovingAverageTracker(),
		adjuster:     NewEventAdjusterService(),
		eventCatalog: eventCatalog,
		rng:          rand.New(rand.NewSource(seed)),
	}
}

// Train 履歴レコードでエンコーダー・フォレスト・移動平均を学習する。
// 失敗は起動時致命的エラーとして扱う（モデルなしでは予測を提供できない）。
func (s *WarehousePredictorService) Train(records []models.ItemRecord) error {
	if len(records) == 0 {
		return &models.ModelTrainingError{Reason: "no historical records"}
	}

	items := make([]string, len(records))
	trends := make([]string, len(records))
	for i, r := range records {
		items[i] = r.ItemName
		trends[i] = r.MarketTrend
	}
	s.itemEncoder.Fit(items)
	s.trendEncoder.Fit(trends)

	itemCodes, err := s.itemEncoder.Encode(items)
	if err != nil {
		return &models.ModelTrainingError{Reason: err.Error()}
	}
	trendCodes, err := s.trendEncoder.Encode(trends)
	if err != nil {
		return &models.ModelTrainingError{Reason: err.Error()}
	}

	features := make([][]float64, len(records))
	targets := make([]float64, len(records))
	for i, r := range records {
		features[i] = []float64{float64(itemCodes[i]), r.BuyPrice, float64(r.Month), float64(trendCodes[i])}
		targets[i] = r.StockInInventory
	}
	if err := s.forest.Train(features, targets); err != nil {
		return err
	}

	// アイテムごとの在庫系列（レコード順）から移動平均ベースラインを構築
	series := make(map[string][]float64)
	for _, r := range records {
		series[r.ItemName] = append(series[r.ItemName], r.StockInInventory)
	}
	for item, values := range series {
		s.tracker.Update(item, values)
	}

	log.Printf("warehouse predictor trained: %d records, %d items, %d trend classes",
		len(records), len(s.itemEncoder.Classes()), len(s.trendEncoder.Classes()))
	return nil
}

// Predict ベースの在庫予測（0.7*モデル + 0.3*移動平均）を返す。
// 移動平均が無いアイテムはモデル出力にフォールバックする。
func (s *WarehousePredictorService) Predict(items []string, buyPrices []float64, months []int, marketTrends []string) ([]float64, error) {
	if err := validateShape(items, buyPrices, months, marketTrends); err != nil {
		return nil, err
	}

	itemCodes, err := s.itemEncoder.Encode(items)
	if err != nil {
		return nil, err
	}
	trendCodes, err := s.trendEncoder.Encode(marketTrends)
	if err != nil {
		return nil, err
	}

	features := make([][]float64, len(items))
	for i := range items {
		features[i] = []float64{float64(itemCodes[i]), buyPrices[i], float64(months[i]), float64(trendCodes[i])}
	}
	raw, err := s.forest.Predict(features)
	if err != nil {
		return nil, err
	}

	final := make([]float64, len(raw))
	for i, r := range raw {
		baseline := r // 未追跡アイテムはモデル出力へフォールバック（ゼロにはしない）
		if ma, ok := s.tracker.Latest(items[i]); ok {
			baseline = ma
		}
		final[i] = ensembleModelWeight*r + ensembleBaselineWeight*baseline
	}
	return final, nil
}

// PredictRows ベース予測をForecastRowに仕上げる。eventがnilでなければ
// ショックベクトルを適用する。在庫は0でフロアして整数化、信頼度は行ごとに引く。
func (s *WarehousePredictorService) PredictRows(items []string, buyPrices []float64, months []int, marketTrends []string, event *models.MarketEvent) ([]models.ForecastRow, error) {
	base, err := s.Predict(items, buyPrices, months, marketTrends)
	if err != nil {
		return nil, err
	}

	rows := make([]models.ForecastRow, len(base))
	for i, b := range base {
		adjusted, adjustedPrice := s.adjuster.Apply(b, buyPrices[i], event)
		rows[i] = models.ForecastRow{
			Item:             items[i],
			PredictedStock:   s.adjuster.FinalizeStock(adjusted),
			Confidence:       s.drawConfidence(),
			MarketTrend:      marketTrends[i],
			AdjustedBuyPrice: adjustedPrice,
		}
	}
	return rows, nil
}

// PredictRealTime イベントID付きのリアルタイム予測。event_idが空なら素の予測。
// カタログに無いIDはUnknownEventErrorとして呼び出し側へ返す。
func (s *WarehousePredictorService) PredictRealTime(items []string, buyPrices []float64, months []int, marketTrends []string, eventID string) ([]models.ForecastRow, error) {
	var event *models.MarketEvent
	if eventID != "" {
		e, err := s.eventCatalog.Lookup(eventID)
		if err != nil {
			return nil, err
		}
		event = &e
	}
	rows, err := s.PredictRows(items, buyPrices, months, marketTrends, event)
	if err != nil {
		return nil, err
	}
	log.Printf("real-time predictions: %d rows (event=%q)", len(rows), eventID)
	return rows, nil
}

// GetItemCategories 学習済みのアイテム語彙を返す。
func (s *WarehousePredictorService) GetItemCategories() []string {
	return s.itemEncoder.Classes()
}

// FeatureImportances 診断用の特徴量重要度を特徴量名付きで返す。
func (s *WarehousePredictorService) FeatureImportances() map[string]float64 {
	importances := s.forest.FeatureImportances()
	names := []string{"item", "buy_price", "month", "market_trend"}
	out := make(map[string]float64, len(names))
	for i, name := range names {
		if i < len(importances) {
			out[name] = importances[i]
		}
	}
	return out
}

// Adjuster 予測と同じ調整ポリシーを共有するためのアクセサ。
func (s *WarehousePredictorService) Adjuster() *EventAdjusterService {
	return s.adjuster
}

// drawConfidence [0.70, 0.90]の一様乱数を2桁丸めで返す。
func (s *WarehousePredictorService) drawConfidence() float64 {
	s.mu.Lock()
	v := confidenceFloor + s.rng.Float64()*confidenceRange
	s.mu.Unlock()
	return round2(v)
}

// validateShape 入力シーケンスの長さが全て一致することを確認する。
func validateShape(items []string, buyPrices []float64, months []int, marketTrends []string) error {
	n := len(items)
	if len(buyPrices) != n || len(months) != n || len(marketTrends) != n {
		return &models.ShapeMismatchError{
			Detail: fmt.Sprintf("items=%d buy_prices=%d months=%d market_trends=%d",
				n, len(buyPrices), len(months), len(marketTrends)),
		}
	}
	if n == 0 {
		return &models.ShapeMismatchError{Detail: "empty input sequences"}
	}
	return nil
}
