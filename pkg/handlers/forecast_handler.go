package handlers

import (
	"net/http"

	"warehouse-sim-api/pkg/models"
	"warehouse-sim-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// ForecastHandler は在庫・センチメント予測エンドポイントのハンドラです。
type ForecastHandler struct {
	warehousePredictor *services.WarehousePredictorService
	sentimentPredictor *services.SentimentPredictorService
}

// NewForecastHandler は新しいForecastHandlerを生成します。
func NewForecastHandler(warehousePredictor *services.WarehousePredictorService, sentimentPredictor *services.SentimentPredictorService) *ForecastHandler {
	return &ForecastHandler{
		warehousePredictor: warehousePredictor,
		sentimentPredictor: sentimentPredictor,
	}
}

// PredictWarehouse は在庫予測を実行します。
// アンサンブル（ランダムフォレスト + 移動平均）の結果を整形して返す。
func (h *ForecastHandler) PredictWarehouse(c *gin.Context) {
	var req models.WarehousePredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items, buy_prices, months and market_trends are required"})
		return
	}

	rows, err := h.warehousePredictor.PredictRows(req.Items, req.BuyPrices, req.Months, req.MarketTrends, nil)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": rows})
}

// PredictSentiment は市場センチメント予測を実行します。
func (h *ForecastHandler) PredictSentiment(c *gin.Context) {
	var req models.SentimentPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "items, trends, sources, volumes, price_changes and categories are required"})
		return
	}

	predictions, err := h.sentimentPredictor.Predict(req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"predictions": predictions})
}

// GetItems は学習済みのアイテム語彙を返します。
func (h *ForecastHandler) GetItems(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"items": h.warehousePredictor.GetItemCategories()})
}

// GetFeatureImportances は学習済みモデルの特徴量重要度を返します。
func (h *ForecastHandler) GetFeatureImportances(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"feature_importances": h.warehousePredictor.FeatureImportances()})
}
