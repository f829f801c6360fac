package services

import (
	"testing"

	"warehouse-sim-api/pkg/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApplyNegativeEvent(t *testing.T) {
	adjuster := NewEventAdjusterService()
	catalog := NewEventCatalogService()
	event, err := catalog.Lookup("supply_shortage")
	require.NoError(t, err)

	// supply_shortage: supply_impact -0.2, price_impact 0.15
	// 絶対値を使うので在庫は base*0.8、買値は *1.15 になる
	prediction, buyPrice := adjuster.Apply(500, 41.75, &event)
	assert.InDelta(t, 400, prediction, 1e-9)
	assert.InDelta(t, 48.0125, buyPrice, 1e-9)
}

func TestApplyPositiveEvent(t *testing.T) {
	adjuster := NewEventAdjusterService()
	catalog := NewEventCatalogService()
	event, err := catalog.Lookup("demand_surge")
	require.NoError(t, err)

	// demand_surge: supply_impact 0.15, price_impact 0.1（符号のまま適用）
	prediction, buyPrice := adjuster.Apply(500, 100, &event)
	assert.InDelta(t, 575, prediction, 1e-9)
	assert.InDelta(t, 90, buyPrice, 1e-9)
}

func TestApplyNilEvent(t *testing.T) {
	adjuster := NewEventAdjusterService()
	prediction, buyPrice := adjuster.Apply(500, 41.75, nil)
	assert.Equal(t, 500.0, prediction)
	assert.Equal(t, 41.75, buyPrice)
}

func TestFinalizeStock(t *testing.T) {
	adjuster := NewEventAdjusterService()

	assert.Equal(t, 399, adjuster.FinalizeStock(399.9)) // 切り捨て、四捨五入ではない
	assert.Equal(t, 0, adjuster.FinalizeStock(-12.5))   // 0でフロア
	assert.Equal(t, 0, adjuster.FinalizeStock(0))
}

func TestAdjustUtilization(t *testing.T) {
	adjuster := NewEventAdjusterService()
	catalog := NewEventCatalogService()

	// イベントなし: (5000/10000)*100 = 50
	assert.Equal(t, 50.0, adjuster.AdjustUtilization(5000, 10000, nil))

	// negative: |supply_impact|=0.2 → 50*0.8 = 40
	shortage, _ := catalog.Lookup("supply_shortage")
	assert.Equal(t, 40.0, adjuster.AdjustUtilization(5000, 10000, &shortage))

	// positive: 0.15 → 50*1.15 = 57.5
	surge, _ := catalog.Lookup("demand_surge")
	assert.Equal(t, 57.5, adjuster.AdjustUtilization(5000, 10000, &surge))

	// 100を超える場合はクランプ
	assert.Equal(t, 100.0, adjuster.AdjustUtilization(9500, 10000, &surge))

	// キャパシティ0はゼロ除算せず0を返す
	assert.Equal(t, 0.0, adjuster.AdjustUtilization(5000, 0, nil))
}

func TestAdjustTurnover(t *testing.T) {
	adjuster := NewEventAdjusterService()
	catalog := NewEventCatalogService()

	// negativeでも符号付きのsupply_impactをそのまま使う（絶対値補正なし）
	shortage, _ := catalog.Lookup("supply_shortage")
	assert.InDelta(t, 12.0, adjuster.AdjustTurnover(15, &shortage), 1e-9)

	surge, _ := catalog.Lookup("demand_surge")
	assert.InDelta(t, 17.25, adjuster.AdjustTurnover(15, &surge), 1e-9)

	assert.Equal(t, 15.0, adjuster.AdjustTurnover(15, nil))
}

func TestAdjustEfficiency(t *testing.T) {
	adjuster := NewEventAdjusterService()
	catalog := NewEventCatalogService()

	// sentiment_score -0.6 → 85*(1-0.06) = 79.9
	shortage, _ := catalog.Lookup("supply_shortage")
	assert.InDelta(t, 79.9, adjuster.AdjustEfficiency(85, &shortage), 1e-9)

	// sentiment_score 0.7 → 85*1.07 = 90.95
	surge, _ := catalog.Lookup("demand_surge")
	assert.InDelta(t, 90.95, adjuster.AdjustEfficiency(85, &surge), 1e-9)

	assert.Equal(t, 85.0, adjuster.AdjustEfficiency(85, nil))
}

func TestAdjustMetrics(t *testing.T) {
	adjuster := NewEventAdjusterService()
	catalog := NewEventCatalogService()
	shortage, _ := catalog.Lookup("supply_shortage")

	current := models.WarehouseMetrics{Utilization: 0, TurnoverRate: 15, Efficiency: 85}
	adjusted := adjuster.AdjustMetrics(current, 5000, 10000, &shortage)

	assert.Equal(t, 40.0, adjusted.Utilization)
	assert.InDelta(t, 12.0, adjusted.TurnoverRate, 1e-9)
	assert.InDelta(t, 79.9, adjusted.Efficiency, 1e-9)
}
