package services

import (
	"math"

	"warehouse-sim-api/pkg/models"
)

// EventAdjusterService 市場イベントのショックベクトルを予測値と倉庫指標に適用する。
// 符号の扱いはタイプごとに異なる：
//   - negative: supply/priceとも絶対値を使う（在庫は必ず減り、価格は必ず上がる）
//   - positive: カタログの符号付きの値をそのまま使う
// negativeでの絶対値補正とturnover/efficiencyの生の符号付き乗数が混在するのは
// 元システム由来の仕様で、挙動互換のため意図的に保存している（DESIGN.md参照）。
type EventAdjusterService struct{}

// NewEventAdjusterService 新しいEventAdjusterServiceを作成。
func NewEventAdjusterService() *EventAdjusterService {
	return &EventAdjusterService{}
}

// Apply ベース予測と買値にイベントを適用して返す。eventがnilなら素通し。
func (s *EventAdjusterService) Apply(basePrediction, buyPrice float64, event *models.MarketEvent) (float64, float64) {
	if event == nil {
		return basePrediction, buyPrice
	}
	switch event.Type {
	case models.MarketEventNegative:
		adjustedPrediction := basePrediction * (1 - math.Abs(event.SupplyImpact))
		adjustedBuyPrice := buyPrice * (1 + math.Abs(event.PriceImpact))
		return adjustedPrediction, adjustedBuyPrice
	case models.MarketEventPositive:
		adjustedPrediction := basePrediction * (1 + event.SupplyImpact)
		adjustedBuyPrice := buyPrice * (1 - event.PriceImpact)
		return adjustedPrediction, adjustedBuyPrice
	default:
		return basePrediction, buyPrice
	}
}

// FinalizeStock 最終の予測在庫を0でフロアして整数へ切り捨てる。
func (s *EventAdjusterService) FinalizeStock(prediction float64) int {
	if prediction < 0 {
		return 0
	}
	return int(prediction)
}

// AdjustUtilization 在庫合計とキャパシティから稼働率を計算する。
// ベースは (stockSum/capacity)*100。イベントがあればタイプ別の乗数を掛け、
// [0,100]にクランプして小数2桁に丸める。
func (s *EventAdjusterService) AdjustUtilization(currentStockSum, capacity float64, event *models.MarketEvent) float64 {
	if capacity <= 0 {
		return 0
	}
	utilization := (currentStockSum / capacity) * 100
	if event != nil {
		switch event.Type {
		case models.MarketEventNegative:
			utilization *= (1 - math.Abs(event.SupplyImpact))
		case models.MarketEventPositive:
			utilization *= (1 + event.SupplyImpact)
		}
	}
	return round2(clamp(utilization, 0, 100))
}

// AdjustTurnover 回転率に生の符号付きsupply_impact乗数を掛ける。
// 稼働率と違い絶対値補正もクランプも行わない。
func (s *EventAdjusterService) AdjustTurnover(turnoverRate float64, event *models.MarketEvent) float64 {
	if event == nil {
		return turnoverRate
	}
	return turnoverRate * (1 + event.SupplyImpact)
}

// AdjustEfficiency 効率にセンチメント由来の乗数を掛ける。
// 元実装はクランプしないが、安全のため[0,100]に収めた上で2桁に丸める。
func (s *EventAdjusterService) AdjustEfficiency(efficiency float64, event *models.MarketEvent) float64 {
	if event == nil {
		return efficiency
	}
	adjusted := efficiency * (1 + event.SentimentScore*0.1)
	return round2(clamp(adjusted, 0, 100))
}

// AdjustMetrics 倉庫指標一式をイベント下で再計算する。eventがnilなら
// 稼働率だけ現在在庫から計算し直し、他は据え置く。
func (s *EventAdjusterService) AdjustMetrics(current models.WarehouseMetrics, stockSum, capacity float64, event *models.MarketEvent) models.WarehouseMetrics {
	return models.WarehouseMetrics{
		Utilization:  s.AdjustUtilization(stockSum, capacity, event),
		TurnoverRate: s.AdjustTurnover(current.TurnoverRate, event),
		Efficiency:   s.AdjustEfficiency(current.Efficiency, event),
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
