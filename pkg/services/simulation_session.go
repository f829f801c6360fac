package services

import (
	"context"
	"log"
	"time"

	"warehouse-sim-api/pkg/models"
)

// defaultWarehouseCapacity カタログに無い倉庫のフォールバックキャパシティ。
const defaultWarehouseCapacity = 10000

// 新規倉庫の初期指標。最初のティックで稼働率が計算で埋まる。
var initialMetrics = models.WarehouseMetrics{
	Utilization:  0,
	TurnoverRate: 15,
	Efficiency:   85,
}

// SessionChannel セッションが読み書きする双方向チャネルの抽象。
// WebSocket接続が本番実装で、テストではインメモリ実装を差し込む。
type SessionChannel interface {
	// ReadRequest 次のリクエストメッセージを待つ。切断でエラーを返す。
	ReadRequest() (*models.SimulationRequest, error)
	// WriteJSON メッセージを1件送信する。
	WriteJSON(v interface{}) error
}

// SimulationSession 1接続分のシミュレーションループ。
// 状態遷移は AWAITING_REQUEST → COMPUTING → PERSISTING → EMITTING の繰り返しで、
// 切断または回復不能なエラーで CLOSED になる。1セッション内のティックは
// 固定ディレイによって直列化され、パイプライン化しない。
type SimulationSession struct {
	predictor         *WarehousePredictorService
	eventCatalog      *EventCatalogService
	store             SimulationStore
	capacities        map[string]float64
	sentimentSnapshot []models.SentimentSnapshot

	// TickInterval EMITTING後の固定ディレイ。クライアントの送信レートに
	// かかわらずサーバー側のプッシュレートを抑える。
	TickInterval time.Duration

	started bool
}

// NewSimulationSession 新しいセッションを作成。capacitiesは倉庫ID→キャパシティ。
func NewSimulationSession(
	predictor *WarehousePredictorService,
	eventCatalog *EventCatalogService,
	store SimulationStore,
	capacities map[string]float64,
	sentimentSnapshot []models.SentimentSnapshot,
) *SimulationSession {
	return &SimulationSession{
		predictor:         predictor,
		eventCatalog:      eventCatalog,
		store:             store,
		capacities:        capacities,
		sentimentSnapshot: sentimentSnapshot,
		TickInterval:      time.Second,
	}
}

// Run チャネルが閉じるか回復不能なエラーが起きるまでループする。
// リクエスト単位のエラーではベストエフォートでエラー通知を送ってから閉じる。
// プロセスや他セッションには影響しない。
func (s *SimulationSession) Run(ctx context.Context, ch SessionChannel) {
	for {
		// AWAITING_REQUEST
		req, err := ch.ReadRequest()
		if err != nil {
			log.Printf("simulation session closed: %v", err)
			return
		}

		// COMPUTING + PERSISTING
		resp, err := s.Tick(ctx, req)
		if err != nil {
			log.Printf("simulation session error: %v", err)
			_ = ch.WriteJSON(models.SimulationErrorMessage{Error: err.Error()})
			return
		}

		// EMITTING
		if err := ch.WriteJSON(resp); err != nil {
			log.Printf("simulation session write failed: %v", err)
			return
		}

		// 固定ディレイを挟んでから次のリクエスト待ちへ戻る
		select {
		case <-ctx.Done():
			return
		case <-time.After(s.TickInterval):
		}
	}
}

// Tick リクエスト1件を計算・永続化して応答を作る（1ティック分）。
// エラー時はSimulationStateを一切書き込まない。
func (s *SimulationSession) Tick(ctx context.Context, req *models.SimulationRequest) (*models.SimulationResponse, error) {
	var event *models.MarketEvent
	if req.EventID != "" {
		e, err := s.eventCatalog.Lookup(req.EventID)
		if err != nil {
			return nil, err
		}
		event = &e
	}

	rows, err := s.predictor.PredictRows(req.Items, req.BuyPrices, req.Months, req.MarketTrends, event)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetWarehouseMetrics(ctx, req.WarehouseID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		m := initialMetrics
		current = &m
	}

	inventory := make(map[string]int, len(rows))
	var stockSum float64
	for _, row := range rows {
		inventory[row.Item] = row.PredictedStock
		stockSum += float64(row.PredictedStock)
	}

	adjusted := s.predictor.Adjuster().AdjustMetrics(*current, stockSum, s.capacityFor(req.WarehouseID), event)

	var impact *models.MarketImpact
	if event != nil {
		impact = &models.MarketImpact{
			EventID:        event.EventID,
			EventType:      string(event.Type),
			SentimentScore: event.SentimentScore,
			SupplyImpact:   event.SupplyImpact,
			PriceImpact:    event.PriceImpact,
			Description:    event.Description,
		}
	}

	status := models.SimulationRunning
	if !s.started {
		status = models.SimulationInitialized
	}

	state := models.SimulationState{
		WarehouseID:  req.WarehouseID,
		Inventory:    inventory,
		Metrics:      adjusted,
		Status:       status,
		Timestamp:    time.Now().UTC(),
		MarketImpact: impact,
	}
	if event != nil {
		state.ActiveMarketEvent = event.EventID
	}

	if err := s.store.SaveSimulationState(ctx, state); err != nil {
		return nil, err
	}
	if err := s.store.UpdateWarehouseMetrics(ctx, req.WarehouseID, adjusted); err != nil {
		return nil, err
	}
	s.started = true

	return &models.SimulationResponse{
		Predictions:       rows,
		MarketImpact:      impact,
		SentimentSnapshot: s.sentimentSnapshot,
	}, nil
}

func (s *SimulationSession) capacityFor(warehouseID string) float64 {
	if c, ok := s.capacities[warehouseID]; ok && c > 0 {
		return c
	}
	return defaultWarehouseCapacity
}
