//go:build ignore

package main

import (
	"encoding/csv"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
)

// 合成データセット生成スクリプト。
// data/warehouse_history.csv と data/market_sentiment.csv を生成する。
//
// 使い方: go run scripts/gen_history.go [行数]
func main() {
	rows := 2000
	if len(os.Args) > 1 {
		n, err := strconv.Atoi(os.Args[1])
		if err != nil || n <= 0 {
			log.Fatalf("行数が不正です: %s", os.Args[1])
		}
		rows = n
	}

	rng := rand.New(rand.NewSource(42))

	if err := os.MkdirAll("data", 0o755); err != nil {
		log.Fatalf("dataディレクトリの作成に失敗: %v", err)
	}

	if err := writeWarehouseHistory("data/warehouse_history.csv", rows, rng); err != nil {
		log.Fatalf("在庫履歴の生成に失敗: %v", err)
	}
	if err := writeMarketSentiment("data/market_sentiment.csv", rows, rng); err != nil {
		log.Fatalf("センチメントデータの生成に失敗: %v", err)
	}

	log.Printf("✅ %d行の合成データを生成しました", rows)
}

var (
	items  = []string{"Wheat", "Rice", "Sugar", "Electronics", "Fruit", "Oil", "Battery"}
	trends = []string{"bullish", "bearish", "neutral"}
)

// basePrices アイテムごとのおおよその基準価格
var basePrices = map[string]float64{
	"Wheat":       52,
	"Rice":        34,
	"Sugar":       42,
	"Electronics": 8500,
	"Fruit":       25,
	"Oil":         78,
	"Battery":     41.75,
}

func writeWarehouseHistory(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Item", "Buy Price", "Month", "Market Trend", "Stock in Inventory"}); err != nil {
		return err
	}

	for i := 0; i < rows; i++ {
		item := items[rng.Intn(len(items))]
		trend := trends[rng.Intn(len(trends))]
		month := rng.Intn(12) + 1
		price := basePrices[item] * (0.85 + rng.Float64()*0.3)

		// 在庫はトレンドと月の季節性に緩く連動させる
		stock := 200 + rng.Float64()*600
		switch trend {
		case "bullish":
			stock *= 1.2
		case "bearish":
			stock *= 0.8
		}
		if month >= 10 || month <= 2 {
			stock *= 1.1
		}

		record := []string{
			item,
			fmt.Sprintf("%.2f", price),
			strconv.Itoa(month),
			trend,
			fmt.Sprintf("%.0f", stock),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}

func writeMarketSentiment(path string, rows int, rng *rand.Rand) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"Item", "Trend", "Source", "Volume", "Price Change", "Category", "Sentiment"}); err != nil {
		return err
	}

	sources := []string{"News Website", "Social Media", "Market Report"}
	categories := map[string]string{
		"Wheat": "Commodity", "Rice": "Commodity", "Sugar": "Commodity",
		"Fruit": "Commodity", "Oil": "Commodity",
		"Electronics": "Technology", "Battery": "Automotive",
	}

	for i := 0; i < rows; i++ {
		item := items[rng.Intn(len(items))]
		trend := trends[rng.Intn(len(trends))]
		priceChange := rng.Float64()*0.2 - 0.1

		// センチメントはトレンドと価格変化に連動
		sentiment := 0.5 + priceChange*2 + (rng.Float64()*0.2 - 0.1)
		switch trend {
		case "bullish":
			sentiment += 0.15
		case "bearish":
			sentiment -= 0.15
		}
		if sentiment < 0 {
			sentiment = 0
		}
		if sentiment > 1 {
			sentiment = 1
		}

		record := []string{
			item,
			trend,
			sources[rng.Intn(len(sources))],
			strconv.Itoa(100 + rng.Intn(2000)),
			fmt.Sprintf("%.0f%%", priceChange*100),
			categories[item],
			fmt.Sprintf("%.2f", sentiment),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
