package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"warehouse-sim-api/pkg/models"
)

// CatalogConfig はcatalog.yamlの構造を定義
type CatalogConfig struct {
	Warehouses []models.Warehouse         `yaml:"warehouses"`
	Parts      []models.PartInfo          `yaml:"parts"`
	Sentiment  []models.SentimentSnapshot `yaml:"sentiment"`
}

// LoadCatalog はYAMLファイルから静的カタログを読み込む。
// ファイルが存在しない場合は組み込みのデフォルトカタログを返す。
func LoadCatalog(path string) (*CatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultCatalog(), nil
		}
		return nil, fmt.Errorf("カタログ設定ファイルの読み込みに失敗: %w", err)
	}

	var catalog CatalogConfig
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("YAMLのパースに失敗: %w", err)
	}

	return &catalog, nil
}

// DefaultCatalog は組み込みの静的カタログを返す
func DefaultCatalog() *CatalogConfig {
	return &CatalogConfig{
		Warehouses: []models.Warehouse{
			{
				ID:        "1",
				Name:      "Mumbai Hub",
				Location:  "Maharashtra",
				Latitude:  19.0760,
				Longitude: 72.8777,
				Capacity:  10000,
				Inventory: []models.InventoryItem{
					{Item: "Wheat", Stock: 75, BuyPrice: 53, SellPrice: 54.3, Month: 3, MarketCondition: "Neutral"},
					{Item: "Rice", Stock: 80, BuyPrice: 32, SellPrice: 36.69, Month: 10, MarketCondition: "Bullish"},
				},
			},
			{
				ID:        "2",
				Name:      "Delhi Center",
				Location:  "Delhi",
				Latitude:  28.6139,
				Longitude: 77.2090,
				Capacity:  10000,
				Inventory: []models.InventoryItem{
					{Item: "Wheat", Stock: 742, BuyPrice: 53, SellPrice: 43.32, Month: 7, MarketCondition: "Bearish"},
					{Item: "Sugar", Stock: 764, BuyPrice: 43, SellPrice: 44.19, Month: 4, MarketCondition: "Neutral"},
				},
			},
			{
				ID:        "3",
				Name:      "Bangalore Depot",
				Location:  "Karnataka",
				Latitude:  12.9716,
				Longitude: 77.5946,
				Capacity:  10000,
				Inventory: []models.InventoryItem{
					{Item: "Rice", Stock: 624, BuyPrice: 36, SellPrice: 33.48, Month: 9, MarketCondition: "Bearish"},
					{Item: "Electronics", Stock: 275, BuyPrice: 8679, SellPrice: 7426.08, Month: 1, MarketCondition: "Bearish"},
				},
			},
			{
				ID:        "4",
				Name:      "Kolkata Hub",
				Location:  "West Bengal",
				Latitude:  22.5726,
				Longitude: 88.3639,
				Capacity:  10000,
				Inventory: []models.InventoryItem{
					{Item: "Rice", Stock: 520, BuyPrice: 34, SellPrice: 35.8, Month: 5, MarketCondition: "Neutral"},
					{Item: "Sugar", Stock: 430, BuyPrice: 41, SellPrice: 43.5, Month: 8, MarketCondition: "Bullish"},
				},
			},
			{
				ID:        "5",
				Name:      "Chennai Center",
				Location:  "Tamil Nadu",
				Latitude:  13.0827,
				Longitude: 80.2707,
				Capacity:  10000,
				Inventory: []models.InventoryItem{
					{Item: "Electronics", Stock: 180, BuyPrice: 8450, SellPrice: 8890, Month: 2, MarketCondition: "Bullish"},
					{Item: "Wheat", Stock: 320, BuyPrice: 51, SellPrice: 53.8, Month: 6, MarketCondition: "Neutral"},
				},
			},
		},
		Parts: []models.PartInfo{
			{Name: "Battery", Price: 45.99, BuyPrice: 41.75, SellPrice: 45.99, Trend: "bullish"},
			{Name: "Brake Pads", Price: 28.50, BuyPrice: 24.10, SellPrice: 28.50, Trend: "neutral"},
			{Name: "Oil Filter", Price: 9.99, BuyPrice: 7.25, SellPrice: 9.99, Trend: "neutral"},
			{Name: "Spark Plug", Price: 6.49, BuyPrice: 4.80, SellPrice: 6.49, Trend: "bullish"},
			{Name: "Alternator", Price: 189.00, BuyPrice: 162.40, SellPrice: 189.00, Trend: "bearish"},
			{Name: "Radiator", Price: 142.75, BuyPrice: 118.90, SellPrice: 142.75, Trend: "neutral"},
			{Name: "Clutch Kit", Price: 210.00, BuyPrice: 176.50, SellPrice: 210.00, Trend: "bearish"},
		},
		Sentiment: []models.SentimentSnapshot{
			{Item: "Rice", Sentiment: 0.8, Trend: "up", Source: "News Website", Volume: 1000, PriceChange: "5%", Category: "Commodity"},
			{Item: "Wheat", Sentiment: 0.5, Trend: "neutral", Source: "News Website", Volume: 800, PriceChange: "0%", Category: "Commodity"},
			{Item: "Electronics", Sentiment: 0.3, Trend: "down", Source: "Social Media", Volume: 500, PriceChange: "-10%", Category: "Technology"},
			{Item: "Sugar", Sentiment: 0.6, Trend: "up", Source: "News Website", Volume: 1200, PriceChange: "3%", Category: "Commodity"},
			{Item: "Fruit", Sentiment: 0.4, Trend: "neutral", Source: "News Website", Volume: 600, PriceChange: "-2%", Category: "Commodity"},
			{Item: "Oil", Sentiment: 0.2, Trend: "down", Source: "News Website", Volume: 1500, PriceChange: "-8%", Category: "Commodity"},
		},
	}
}

// WarehouseByID はIDで倉庫を検索する
func (c *CatalogConfig) WarehouseByID(id string) (*models.Warehouse, bool) {
	for i := range c.Warehouses {
		if c.Warehouses[i].ID == id {
			return &c.Warehouses[i], true
		}
	}
	return nil, false
}

// Capacities は倉庫ID -> 最大容量のマップを返す
func (c *CatalogConfig) Capacities() map[string]float64 {
	capacities := make(map[string]float64, len(c.Warehouses))
	for _, w := range c.Warehouses {
		capacities[w.ID] = w.Capacity
	}
	return capacities
}
