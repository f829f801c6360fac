package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	config "warehouse-sim-api/configs"
	"warehouse-sim-api/pkg/models"
	"warehouse-sim-api/pkg/services"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// fakeStore テスト用のインメモリSimulationStore
type fakeStore struct {
	states  []models.SimulationState
	metrics map[string]models.WarehouseMetrics
}

func newFakeStore() *fakeStore {
	return &fakeStore{metrics: make(map[string]models.WarehouseMetrics)}
}

func (f *fakeStore) SaveSimulationState(_ context.Context, state models.SimulationState) error {
	f.states = append(f.states, state)
	return nil
}

func (f *fakeStore) LatestSimulationState(_ context.Context, warehouseID string) (*models.SimulationState, error) {
	var latest *models.SimulationState
	for i := range f.states {
		s := f.states[i]
		if s.WarehouseID != warehouseID {
			continue
		}
		if latest == nil || s.Timestamp.After(latest.Timestamp) {
			latest = &s
		}
	}
	return latest, nil
}

func (f *fakeStore) GetWarehouseMetrics(_ context.Context, warehouseID string) (*models.WarehouseMetrics, error) {
	if m, ok := f.metrics[warehouseID]; ok {
		return &m, nil
	}
	return nil, nil
}

func (f *fakeStore) UpdateWarehouseMetrics(_ context.Context, warehouseID string, metrics models.WarehouseMetrics) error {
	f.metrics[warehouseID] = metrics
	return nil
}

func (f *fakeStore) CountStates(_ context.Context) (int, error) {
	return len(f.states), nil
}

func (f *fakeStore) ListStates(_ context.Context, warehouseID string, limit int) ([]models.SimulationState, error) {
	out := make([]models.SimulationState, 0)
	for _, s := range f.states {
		if s.WarehouseID == warehouseID {
			out = append(out, s)
		}
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func testItemRecords() []models.ItemRecord {
	records := make([]models.ItemRecord, 0, 60)
	items := []string{"Wheat", "Rice", "Battery"}
	trends := []string{"bullish", "bearish", "neutral"}
	prices := map[string]float64{"Wheat": 53, "Rice": 34, "Battery": 41.75}
	for i := 0; i < 60; i++ {
		item := items[i%3]
		records = append(records, models.ItemRecord{
			ItemName:         item,
			BuyPrice:         prices[item],
			Month:            i%12 + 1,
			MarketTrend:      trends[i%3],
			StockInInventory: 200 + float64(i%12)*25,
		})
	}
	return records
}

func testSentimentRecords() []models.SentimentRecord {
	records := make([]models.SentimentRecord, 0, 45)
	items := []string{"Rice", "Wheat", "Electronics"}
	trends := []string{"bullish", "bearish", "neutral"}
	for i := 0; i < 45; i++ {
		sentiment := 0.5
		if trends[i%3] == "bullish" {
			sentiment = 0.75 + float64(i%4)*0.01
		} else if trends[i%3] == "bearish" {
			sentiment = 0.25 - float64(i%4)*0.01
		}
		records = append(records, models.SentimentRecord{
			Item:        items[i%3],
			Trend:       trends[i%3],
			Source:      "News Website",
			Volume:      float64(500 + i*10),
			PriceChange: float64(i%5-2) / 100,
			Category:    "Commodity",
			Sentiment:   sentiment,
		})
	}
	return records
}

// newTestRouter 実サービス（インメモリストア）でルーターを組み立てる
func newTestRouter(t *testing.T) (*gin.Engine, *fakeStore) {
	t.Helper()

	catalog := config.DefaultCatalog()
	eventCatalog := services.NewEventCatalogService()

	warehousePredictor := services.NewWarehousePredictorService(eventCatalog, 42)
	require.NoError(t, warehousePredictor.Train(testItemRecords()))

	sentimentPredictor := services.NewSentimentPredictorService(42)
	require.NoError(t, sentimentPredictor.Train(testSentimentRecords()))

	store := newFakeStore()

	forecastHandler := NewForecastHandler(warehousePredictor, sentimentPredictor)
	catalogHandler := NewCatalogHandler(catalog, eventCatalog)
	simulationHandler := NewSimulationHandler(warehousePredictor, eventCatalog, store, catalog.Capacities(), catalog.Sentiment)

	r := gin.New()
	r.GET("/health", HealthCheck)
	v1 := r.Group("/api/v1")
	{
		v1.POST("/predict_warehouse", forecastHandler.PredictWarehouse)
		v1.POST("/predict_sentiment", forecastHandler.PredictSentiment)
		v1.GET("/items", forecastHandler.GetItems)
		v1.GET("/feature-importances", forecastHandler.GetFeatureImportances)
		v1.GET("/warehouses", catalogHandler.GetWarehouses)
		v1.GET("/parts", catalogHandler.GetParts)
		v1.GET("/sentiment", catalogHandler.GetSentiment)
		v1.GET("/events", catalogHandler.ListEvents)
		v1.GET("/events/:eventId", catalogHandler.GetEvent)
		v1.POST("/simulation/state", simulationHandler.SaveState)
		v1.GET("/simulation/latest/:warehouseId", simulationHandler.GetLatestState)
		v1.GET("/simulation/stats", simulationHandler.GetStats)
	}
	return r, store
}

func doJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealthCheckEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPredictWarehouseEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/v1/predict_warehouse", models.WarehousePredictionRequest{
		Items:        []string{"Wheat", "Battery"},
		BuyPrices:    []float64{53, 41.75},
		Months:       []int{3, 3},
		MarketTrends: []string{"neutral", "bullish"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Predictions []models.ForecastRow `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 2)
	assert.Equal(t, "Wheat", resp.Predictions[0].Item)
	assert.GreaterOrEqual(t, resp.Predictions[0].PredictedStock, 0)
	assert.GreaterOrEqual(t, resp.Predictions[0].Confidence, 0.70)
	assert.LessOrEqual(t, resp.Predictions[0].Confidence, 0.90)
}

func TestPredictWarehouseUnknownItemReturns400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/v1/predict_warehouse", models.WarehousePredictionRequest{
		Items:        []string{"Uranium"},
		BuyPrices:    []float64{10},
		Months:       []int{3},
		MarketTrends: []string{"neutral"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Uranium")
}

func TestPredictWarehouseShapeMismatchReturns400(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/v1/predict_warehouse", models.WarehousePredictionRequest{
		Items:        []string{"Wheat", "Rice"},
		BuyPrices:    []float64{53},
		Months:       []int{3, 4},
		MarketTrends: []string{"neutral", "bullish"},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPredictSentimentEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "POST", "/api/v1/predict_sentiment", models.SentimentPredictionRequest{
		Items:        []string{"Rice"},
		Trends:       []string{"bullish"},
		Sources:      []string{"News Website"},
		Volumes:      []float64{1000},
		PriceChanges: []float64{0.05},
		Categories:   []string{"Commodity"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Predictions []float64 `json:"predictions"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Predictions, 1)
}

func TestGetItemsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/items", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Items []string `json:"items"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"Battery", "Rice", "Wheat"}, resp.Items)
}

func TestWarehousesEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/warehouses", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Warehouses []models.Warehouse `json:"warehouses"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Warehouses, 5)
	assert.Equal(t, "Mumbai Hub", resp.Warehouses[0].Name)
}

func TestPartsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/parts", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Parts []models.PartInfo `json:"parts"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Parts)
	assert.Equal(t, "Battery", resp.Parts[0].Name)
	assert.Equal(t, 41.75, resp.Parts[0].BuyPrice)
}

func TestSentimentSnapshotEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/sentiment", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp []models.SentimentSnapshot
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp, 6)
	assert.Equal(t, "Rice", resp[0].Item)
}

func TestEventsEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/events", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Events []models.MarketEvent `json:"events"`
		Count  int                  `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 6, resp.Count)

	// typeフィルタ
	w = doJSON(r, "GET", "/api/v1/events?type=negative", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Count)

	// 不正なtypeは400
	w = doJSON(r, "GET", "/api/v1/events?type=sideways", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetEventEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/events/supply_shortage", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var event models.MarketEvent
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &event))
	assert.Equal(t, -0.2, event.SupplyImpact)

	// 未知のイベントは400
	w = doJSON(r, "GET", "/api/v1/events/alien_invasion", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSaveAndGetSimulationState(t *testing.T) {
	r, store := newTestRouter(t)

	state := models.SimulationState{
		WarehouseID: "1",
		Inventory:   map[string]int{"Wheat": 420},
		Metrics:     models.WarehouseMetrics{Utilization: 4.2, TurnoverRate: 15, Efficiency: 85},
		Status:      models.SimulationRunning,
		Timestamp:   time.Now().UTC(),
	}
	w := doJSON(r, "POST", "/api/v1/simulation/state", state)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, store.states, 1)

	w = doJSON(r, "GET", "/api/v1/simulation/latest/1", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var got models.SimulationState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "1", got.WarehouseID)
	assert.Equal(t, 420, got.Inventory["Wheat"])
}

func TestGetLatestStateNotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, "GET", "/api/v1/simulation/latest/999", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "not_found")
}

func TestSaveStateValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	// warehouse_idなしは400
	w := doJSON(r, "POST", "/api/v1/simulation/state", models.SimulationState{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSimulationStatsEndpoint(t *testing.T) {
	r, store := newTestRouter(t)
	store.states = append(store.states, models.SimulationState{WarehouseID: "1"})

	w := doJSON(r, "GET", "/api/v1/simulation/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"state_count\":1")
}
