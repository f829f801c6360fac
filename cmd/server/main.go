package main

import (
	"log"
	"net/http"

	config "warehouse-sim-api/configs"
	"warehouse-sim-api/pkg/handlers"
	"warehouse-sim-api/pkg/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or could not be loaded: %v", err)
	}

	// 設定の読み込み
	cfg := config.LoadConfig()

	catalog, err := config.LoadCatalog(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("FATAL: カタログの読み込みに失敗: %v", err)
	}

	// Ginルーターの初期化
	r := gin.Default()

	// サービスの初期化
	monitoringService := services.NewMonitoringService()
	datasetService := services.NewDatasetService()
	eventCatalog := services.NewEventCatalogService()

	warehousePredictor := services.NewWarehousePredictorService(eventCatalog, cfg.ModelSeed)
	itemRecords, err := datasetService.LoadItemRecords(cfg.ItemDatasetPath)
	if err != nil {
		log.Fatalf("FATAL: 在庫データセットの読み込みに失敗: %v", err)
	}
	if err := warehousePredictor.Train(itemRecords); err != nil {
		log.Fatalf("FATAL: 在庫予測モデルの学習に失敗: %v", err)
	}

	sentimentPredictor := services.NewSentimentPredictorService(cfg.ModelSeed)
	sentimentRecords, err := datasetService.LoadSentimentRecords(cfg.SentimentDatasetPath)
	if err != nil {
		log.Fatalf("FATAL: センチメントデータセットの読み込みに失敗: %v", err)
	}
	if err := sentimentPredictor.Train(sentimentRecords); err != nil {
		log.Fatalf("FATAL: センチメント予測モデルの学習に失敗: %v", err)
	}

	store, err := services.NewQdrantSimulationStore(cfg.QdrantURL, cfg.QdrantAPIKey)
	if err != nil {
		log.Fatalf("FATAL: シミュレーションストアの初期化に失敗: %v", err)
	}

	// ハンドラーの初期化
	forecastHandler := handlers.NewForecastHandler(warehousePredictor, sentimentPredictor)
	catalogHandler := handlers.NewCatalogHandler(catalog, eventCatalog)
	simulationHandler := handlers.NewSimulationHandler(
		warehousePredictor,
		eventCatalog,
		store,
		catalog.Capacities(),
		catalog.Sentiment,
	)
	monitoringHandler := handlers.NewMonitoringHandler(monitoringService)

	// ミドルウェアの登録
	r.Use(monitoringService.LoggingMiddleware()) // ロギングミドルウェアをグローバルに適用
	r.Use(cors.Default())

	// 認証ミドルウェア
	authMiddleware := func(apiKey string) gin.HandlerFunc {
		return func(c *gin.Context) {
			if apiKey == "" || apiKey == "default_secret_key" {
				c.Next()
				return
			}
			providedKey := c.GetHeader("X-API-KEY")
			if providedKey != apiKey {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
				return
			}
			c.Next()
		}
	}

	// ヘルスチェックエンドポイント
	r.GET("/health", handlers.HealthCheck)

	// シミュレーション用WebSocketエンドポイント
	r.GET("/ws/simulation", simulationHandler.Simulate)

	// APIバージョン1のルートグループ
	v1 := r.Group("/api/v1")
	v1.Use(authMiddleware(cfg.APIKey))
	{
		// 予測API
		v1.POST("/predict_warehouse", forecastHandler.PredictWarehouse)
		v1.POST("/predict_sentiment", forecastHandler.PredictSentiment)
		v1.GET("/items", forecastHandler.GetItems)
		v1.GET("/feature-importances", forecastHandler.GetFeatureImportances)

		// 静的カタログAPI
		v1.GET("/warehouses", catalogHandler.GetWarehouses)
		v1.GET("/parts", catalogHandler.GetParts)
		v1.GET("/sentiment", catalogHandler.GetSentiment)
		v1.GET("/events", catalogHandler.ListEvents)
		v1.GET("/events/:eventId", catalogHandler.GetEvent)

		// シミュレーションAPI
		simulation := v1.Group("/simulation")
		{
			simulation.POST("/state", simulationHandler.SaveState)
			simulation.GET("/latest/:warehouseId", simulationHandler.GetLatestState)
			simulation.GET("/stats", simulationHandler.GetStats)
		}

		// モニタリングAPI
		monitoring := v1.Group("/monitoring")
		{
			monitoring.GET("/logs", monitoringHandler.GetLogs)
		}
	}

	log.Printf("Starting Warehouse Simulation API server on :%s (items=%d, sentiment=%d, warehouses=%d)",
		cfg.Port, len(itemRecords), len(sentimentRecords), len(catalog.Warehouses))
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
