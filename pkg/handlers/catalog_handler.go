package handlers

import (
	"net/http"

	config "warehouse-sim-api/configs"
	"warehouse-sim-api/pkg/models"
	"warehouse-sim-api/pkg/services"

	"github.com/gin-gonic/gin"
)

// CatalogHandler は静的カタログ（倉庫・部品・センチメント）と
// 市場イベントカタログのハンドラです。
type CatalogHandler struct {
	catalog      *config.CatalogConfig
	eventCatalog *services.EventCatalogService
}

// NewCatalogHandler は新しいCatalogHandlerを生成します。
func NewCatalogHandler(catalog *config.CatalogConfig, eventCatalog *services.EventCatalogService) *CatalogHandler {
	return &CatalogHandler{
		catalog:      catalog,
		eventCatalog: eventCatalog,
	}
}

// GetWarehouses は倉庫カタログを返します。
func (h *CatalogHandler) GetWarehouses(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"warehouses": h.catalog.Warehouses})
}

// GetParts は部品カタログを返します。
func (h *CatalogHandler) GetParts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"parts": h.catalog.Parts})
}

// GetSentiment は静的なセンチメントスナップショットを返します。
func (h *CatalogHandler) GetSentiment(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Sentiment)
}

// ListEvents は市場イベントの一覧を返します。?type=positive|negative で絞り込み可能。
func (h *CatalogHandler) ListEvents(c *gin.Context) {
	filter := c.Query("type")
	switch filter {
	case "", string(models.MarketEventPositive), string(models.MarketEventNegative):
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be 'positive' or 'negative'"})
		return
	}

	events := h.eventCatalog.List(models.MarketEventType(filter))
	c.JSON(http.StatusOK, gin.H{"events": events, "count": len(events)})
}

// GetEvent はイベントIDで市場イベントを1件返します。
func (h *CatalogHandler) GetEvent(c *gin.Context) {
	event, err := h.eventCatalog.Lookup(c.Param("eventId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, event)
}
