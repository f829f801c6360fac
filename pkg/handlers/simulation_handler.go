package handlers

import (
	"log"
	"net/http"
	"time"

	"warehouse-sim-api/pkg/models"
	"warehouse-sim-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// ダッシュボードはCORS同様に任意オリジンを許可する
	CheckOrigin: func(r *http.Request) bool { return true },
}

// SimulationHandler はシミュレーション関連の操作のハンドラです。
type SimulationHandler struct {
	predictor    *services.WarehousePredictorService
	eventCatalog *services.EventCatalogService
	store        services.SimulationStore
	capacities   map[string]float64
	sentiment    []models.SentimentSnapshot
}

// NewSimulationHandler は新しいSimulationHandlerを生成します。
func NewSimulationHandler(
	predictor *services.WarehousePredictorService,
	eventCatalog *services.EventCatalogService,
	store services.SimulationStore,
	capacities map[string]float64,
	sentiment []models.SentimentSnapshot,
) *SimulationHandler {
	return &SimulationHandler{
		predictor:    predictor,
		eventCatalog: eventCatalog,
		store:        store,
		capacities:   capacities,
		sentiment:    sentiment,
	}
}

// wsChannel はgorilla/websocketの接続をSessionChannelに適合させる
type wsChannel struct {
	conn *websocket.Conn
}

func (ch *wsChannel) ReadRequest() (*models.SimulationRequest, error) {
	var req models.SimulationRequest
	if err := ch.conn.ReadJSON(&req); err != nil {
		return nil, err
	}
	return &req, nil
}

func (ch *wsChannel) WriteJSON(v interface{}) error {
	return ch.conn.WriteJSON(v)
}

// Simulate はWebSocket接続を受け付け、1接続1セッションのループを開始します。
// セッション内のエラーは当該接続のみを閉じ、他のセッションには影響しない。
func (h *SimulationHandler) Simulate(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocketへのアップグレードに失敗: %v", err)
		return
	}
	defer conn.Close()

	session := services.NewSimulationSession(h.predictor, h.eventCatalog, h.store, h.capacities, h.sentiment)
	session.Run(c.Request.Context(), &wsChannel{conn: conn})
}

// SaveState はシミュレーション状態を手動で追記します。
func (h *SimulationHandler) SaveState(c *gin.Context) {
	var state models.SimulationState
	if err := c.ShouldBindJSON(&state); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid simulation state"})
		return
	}
	if state.WarehouseID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "warehouse_id is required"})
		return
	}
	if state.Timestamp.IsZero() {
		state.Timestamp = time.Now().UTC()
	}

	if err := h.store.SaveSimulationState(c.Request.Context(), state); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}

// GetLatestState は指定倉庫の最新のシミュレーション状態を返します。
func (h *SimulationHandler) GetLatestState(c *gin.Context) {
	warehouseID := c.Param("warehouseId")

	state, err := h.store.LatestSimulationState(c.Request.Context(), warehouseID)
	if err != nil {
		respondError(c, err)
		return
	}
	if state == nil {
		c.JSON(http.StatusOK, gin.H{"status": "not_found"})
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetStats は保存済みシミュレーション状態の統計を返します。
func (h *SimulationHandler) GetStats(c *gin.Context) {
	count, err := h.store.CountStates(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state_count": count})
}
