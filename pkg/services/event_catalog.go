package services

import (
	"warehouse-sim-api/pkg/models"
)

// EventCatalogService 名前付き市場イベントの固定カタログ。
// 起動時に一度構築され、以後は不変。全セッションからロックなしで共有できる。
type EventCatalogService struct {
	events  map[string]models.MarketEvent
	ordered []string // 表示順を安定させるための登録順ID
}

// NewEventCatalogService 組み込みのイベント表でカタログを作成。
func NewEventCatalogService() *EventCatalogService {
	entries := []models.MarketEvent{
		{
			EventID:        "demand_surge",
			Type:           models.MarketEventPositive,
			SentimentScore: 0.7,
			PriceImpact:    0.1,
			SupplyImpact:   0.15,
			Description:    "Sudden spike in consumer demand across key categories",
		},
		{
			EventID:        "trade_agreement",
			Type:           models.MarketEventPositive,
			SentimentScore: 0.55,
			PriceImpact:    0.08,
			SupplyImpact:   0.12,
			Description:    "New trade agreement lowers import barriers",
		},
		{
			EventID:        "logistics_upgrade",
			Type:           models.MarketEventPositive,
			SentimentScore: 0.4,
			PriceImpact:    0.05,
			SupplyImpact:   0.1,
			Description:    "Regional logistics network expansion improves throughput",
		},
		{
			EventID:        "supply_shortage",
			Type:           models.MarketEventNegative,
			SentimentScore: -0.6,
			PriceImpact:    0.15,
			SupplyImpact:   -0.2,
			Description:    "Raw material shortage constrains replenishment",
		},
		{
			EventID:        "port_congestion",
			Type:           models.MarketEventNegative,
			SentimentScore: -0.45,
			PriceImpact:    0.12,
			SupplyImpact:   -0.15,
			Description:    "Major port congestion delays inbound shipments",
		},
		{
			EventID:        "fuel_price_spike",
			Type:           models.MarketEventNegative,
			SentimentScore: -0.5,
			PriceImpact:    0.18,
			SupplyImpact:   -0.1,
			Description:    "Fuel price spike raises transport costs across lanes",
		},
	}

	events := make(map[string]models.MarketEvent, len(entries))
	ordered := make([]string, 0, len(entries))
	for _, e := range entries {
		events[e.EventID] = e
		ordered = append(ordered, e.EventID)
	}
	return &EventCatalogService{events: events, ordered: ordered}
}

// Lookup イベントIDからエントリを取得。カタログに無いIDはUnknownEventError。
func (s *EventCatalogService) Lookup(eventID string) (models.MarketEvent, error) {
	e, ok := s.events[eventID]
	if !ok {
		return models.MarketEvent{}, &models.UnknownEventError{EventID: eventID}
	}
	return e, nil
}

// List イベント一覧を登録順で返す。filterTypeが空でなければ該当typeのみ。
func (s *EventCatalogService) List(filterType models.MarketEventType) []models.MarketEvent {
	out := make([]models.MarketEvent, 0, len(s.ordered))
	for _, id := range s.ordered {
		e := s.events[id]
		if filterType != "" && e.Type != filterType {
			continue
		}
		out = append(out, e)
	}
	return out
}
