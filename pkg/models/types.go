package models

import "time"

// ItemRecord 学習に使う過去の在庫レコード1行
// （CSV/XLSXの列: Item, Buy Price, Month, Market Trend, Stock in Inventory）
type ItemRecord struct {
	ItemName         string  `json:"item_name"`
	BuyPrice         float64 `json:"buy_price"`
	Month            int     `json:"month"` // 1-12
	MarketTrend      string  `json:"market_trend"`
	StockInInventory float64 `json:"stock_in_inventory"`
}

// SentimentRecord 市場トレンドデータセットの1行（センチメント予測の学習用）
type SentimentRecord struct {
	Item        string  `json:"item"`
	Trend       string  `json:"trend"`
	Source      string  `json:"source"`
	Volume      float64 `json:"volume"`
	PriceChange float64 `json:"price_change"` // "5%" -> 0.05 に正規化済み
	Category    string  `json:"category"`
	Sentiment   float64 `json:"sentiment"`
}

// MarketEventType 市場イベントの方向
type MarketEventType string

const (
	MarketEventPositive MarketEventType = "positive"
	MarketEventNegative MarketEventType = "negative"
)

// MarketEvent 名前付きの市場イベント（ショックベクトル）
// カタログは起動時に読み込まれ、以後は不変。
type MarketEvent struct {
	EventID        string          `json:"event_id"`
	Type           MarketEventType `json:"type"`
	SentimentScore float64         `json:"sentiment_score"` // [-1, 1]
	PriceImpact    float64         `json:"price_impact"`
	SupplyImpact   float64         `json:"supply_impact"`
	Description    string          `json:"description"`
}

// ForecastRow 1アイテム分の予測結果
type ForecastRow struct {
	Item             string  `json:"item"`
	PredictedStock   int     `json:"predicted_stock"`    // 0以上の整数
	Confidence       float64 `json:"confidence"`         // [0.70, 0.90]
	MarketTrend      string  `json:"market_trend"`
	AdjustedBuyPrice float64 `json:"adjusted_buy_price"` // 0以上
}

// WarehouseMetrics 倉庫単位の運用指標
type WarehouseMetrics struct {
	Utilization  float64 `json:"utilization"`   // [0, 100]
	TurnoverRate float64 `json:"turnover_rate"` // 0以上
	Efficiency   float64 `json:"efficiency"`    // [0, 100]
}

// SimulationStatus シミュレーション状態のステータス
type SimulationStatus string

const (
	SimulationInitialized SimulationStatus = "initialized"
	SimulationRunning     SimulationStatus = "running"
)

// MarketImpact アクティブなイベントがもたらした影響のサマリー
type MarketImpact struct {
	EventID        string  `json:"event_id"`
	EventType      string  `json:"event_type"`
	SentimentScore float64 `json:"sentiment_score"`
	SupplyImpact   float64 `json:"supply_impact"`
	PriceImpact    float64 `json:"price_impact"`
	Description    string  `json:"description"`
}

// SimulationState シミュレーション1ティック分のスナップショット。
// 追記専用：過去の状態は書き換えず、新しいタイムスタンプのエントリで上書きする。
type SimulationState struct {
	WarehouseID       string           `json:"warehouse_id"`
	Inventory         map[string]int   `json:"inventory"` // item -> predicted stock
	ActiveMarketEvent string           `json:"active_market_event,omitempty"`
	MarketImpact      *MarketImpact    `json:"market_impact,omitempty"`
	Metrics           WarehouseMetrics `json:"metrics"`
	Status            SimulationStatus `json:"status"`
	Timestamp         time.Time        `json:"timestamp"`
}

// Warehouse 静的カタログの倉庫エントリ
type Warehouse struct {
	ID        string          `json:"id" yaml:"id"`
	Name      string          `json:"name" yaml:"name"`
	Location  string          `json:"location" yaml:"location"`
	Latitude  float64         `json:"latitude" yaml:"latitude"`
	Longitude float64         `json:"longitude" yaml:"longitude"`
	Capacity  float64         `json:"capacity" yaml:"capacity"`
	Inventory []InventoryItem `json:"inventory" yaml:"inventory"`
}

// InventoryItem 倉庫在庫の1アイテム
type InventoryItem struct {
	Item            string  `json:"item" yaml:"item"`
	Stock           int     `json:"stock" yaml:"stock"`
	BuyPrice        float64 `json:"buy_price" yaml:"buy_price"`
	SellPrice       float64 `json:"sell_price" yaml:"sell_price"`
	Month           int     `json:"month" yaml:"month"`
	MarketCondition string  `json:"market_condition" yaml:"market_condition"`
}

// PartInfo 自動車部品カタログの1エントリ（name -> 価格情報とトレンド）
type PartInfo struct {
	Name      string  `json:"name" yaml:"name"`
	Price     float64 `json:"price" yaml:"price"`
	BuyPrice  float64 `json:"buy_price" yaml:"buy_price"`
	SellPrice float64 `json:"sell_price" yaml:"sell_price"`
	Trend     string  `json:"trend" yaml:"trend"`
}

// SentimentSnapshot 静的なセンチメントスナップショットの1エントリ
type SentimentSnapshot struct {
	Item        string  `json:"item" yaml:"item"`
	Sentiment   float64 `json:"sentiment" yaml:"sentiment"`
	Trend       string  `json:"trend" yaml:"trend"`
	Source      string  `json:"source" yaml:"source"`
	Volume      int     `json:"volume" yaml:"volume"`
	PriceChange string  `json:"price_change" yaml:"price_change"`
	Category    string  `json:"category" yaml:"category"`
}

// WarehousePredictionRequest 在庫予測リクエスト
type WarehousePredictionRequest struct {
	Items        []string  `json:"items" binding:"required"`
	BuyPrices    []float64 `json:"buy_prices" binding:"required"`
	Months       []int     `json:"months" binding:"required"`
	MarketTrends []string  `json:"market_trends" binding:"required"`
}

// SentimentPredictionRequest センチメント予測リクエスト
type SentimentPredictionRequest struct {
	Items        []string  `json:"items" binding:"required"`
	Trends       []string  `json:"trends" binding:"required"`
	Sources      []string  `json:"sources" binding:"required"`
	Volumes      []float64 `json:"volumes" binding:"required"`
	PriceChanges []float64 `json:"price_changes" binding:"required"`
	Categories   []string  `json:"categories" binding:"required"`
}

// SimulationRequest WebSocketセッションの1リクエストメッセージ
type SimulationRequest struct {
	Items        []string  `json:"items"`
	BuyPrices    []float64 `json:"buy_prices"`
	Months       []int     `json:"months"`
	MarketTrends []string  `json:"market_trends"`
	WarehouseID  string    `json:"warehouse_id"`
	EventID      string    `json:"event_id,omitempty"`
}

// SimulationResponse セッションが1ティックごとに送り返すメッセージ
type SimulationResponse struct {
	Predictions       []ForecastRow       `json:"predictions"`
	MarketImpact      *MarketImpact       `json:"market_impact,omitempty"`
	SentimentSnapshot []SentimentSnapshot `json:"sentiment_snapshot"`
}

// SimulationErrorMessage 切断前にベストエフォートで送るエラー通知
type SimulationErrorMessage struct {
	Error string `json:"error"`
}
