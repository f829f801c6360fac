package services

import (
	"log"

	"warehouse-sim-api/pkg/models"
)

// SentimentPredictorService 市場トレンドデータからアイテム別センチメントを
// 予測する第二のフォレスト。構造はWarehousePredictorServiceと同じだが、
// 移動平均ベースラインやイベント調整は持たない（生のモデル出力を返す）。
type SentimentPredictorService struct {
	forest          *RandomForest
	itemEncoder     *LabelEncoder
	trendEncoder    *LabelEncoder
	sourceEncoder   *LabelEncoder
	categoryEncoder *LabelEncoder
}

// NewSentimentPredictorService 新しいセンチメント予測サービスを作成。
func NewSentimentPredictorService(seed int64) *SentimentPredictorService {
	forest := NewRandomForest()
	forest.Seed = seed
	return &SentimentPredictorService{
		forest:          forest,
		itemEncoder:     NewLabelEncoder("item"),
		trendEncoder:    NewLabelEncoder("trend"),
		sourceEncoder:   NewLabelEncoder("source"),
		categoryEncoder: NewLabelEncoder("category"),
	}
}

// Train 市場トレンドレコードでモデルを学習する。
func (s *SentimentPredictorService) Train(records []models.SentimentRecord) error {
	if len(records) == 0 {
		return &models.ModelTrainingError{Reason: "no sentiment records"}
	}

	items := make([]string, len(records))
	trends := make([]string, len(records))
	sources := make([]string, len(records))
	categories := make([]string, len(records))
	for i, r := range records {
		items[i] = r.Item
		trends[i] = r.Trend
		sources[i] = r.Source
		categories[i] = r.Category
	}
	s.itemEncoder.Fit(items)
	s.trendEncoder.Fit(trends)
	s.sourceEncoder.Fit(sources)
	s.categoryEncoder.Fit(categories)

	features := make([][]float64, len(records))
	targets := make([]float64, len(records))
	for i, r := range records {
		itemCode, _ := s.itemEncoder.Encode([]string{r.Item})
		trendCode, _ := s.trendEncoder.Encode([]string{r.Trend})
		sourceCode, _ := s.sourceEncoder.Encode([]string{r.Source})
		categoryCode, _ := s.categoryEncoder.Encode([]string{r.Category})
		features[i] = []float64{
			float64(itemCode[0]),
			float64(trendCode[0]),
			float64(sourceCode[0]),
			r.Volume,
			r.PriceChange,
			float64(categoryCode[0]),
		}
		targets[i] = r.Sentiment
	}
	if err := s.forest.Train(features, targets); err != nil {
		return err
	}

	log.Printf("sentiment predictor trained: %d records", len(records))
	return nil
}

// Predict センチメントスコアの予測列を返す。未知のカテゴリはエラー。
func (s *SentimentPredictorService) Predict(req models.SentimentPredictionRequest) ([]float64, error) {
	n := len(req.Items)
	if len(req.Trends) != n || len(req.Sources) != n || len(req.Volumes) != n ||
		len(req.PriceChanges) != n || len(req.Categories) != n || n == 0 {
		return nil, &models.ShapeMismatchError{Detail: "sentiment request sequences must have equal non-zero length"}
	}

	itemCodes, err := s.itemEncoder.Encode(req.Items)
	if err != nil {
		return nil, err
	}
	trendCodes, err := s.trendEncoder.Encode(req.Trends)
	if err != nil {
		return nil, err
	}
	sourceCodes, err := s.sourceEncoder.Encode(req.Sources)
	if err != nil {
		return nil, err
	}
	categoryCodes, err := s.categoryEncoder.Encode(req.Categories)
	if err != nil {
		return nil, err
	}

	features := make([][]float64, n)
	for i := 0; i < n; i++ {
		features[i] = []float64{
			float64(itemCodes[i]),
			float64(trendCodes[i]),
			float64(sourceCodes[i]),
			req.Volumes[i],
			req.PriceChanges[i],
			float64(categoryCodes[i]),
		}
	}
	return s.forest.Predict(features)
}

// GetItemCategories 学習済みのアイテム語彙を返す。
func (s *SentimentPredictorService) GetItemCategories() []string {
	return s.itemEncoder.Classes()
}
