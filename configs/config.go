package config

import (
	"os"
	"strconv"
)

// Config holds the application configuration
type Config struct {
	Port                 string
	QdrantURL            string
	QdrantAPIKey         string
	APIKey               string
	Environment          string
	ItemDatasetPath      string
	SentimentDatasetPath string
	CatalogPath          string
	ModelSeed            int64
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Port:                 getEnv("PORT", "8080"),
		QdrantURL:            getEnv("QDRANT_URL", "localhost:6334"),
		QdrantAPIKey:         getEnv("QDRANT_API_KEY", ""),
		APIKey:               getEnv("API_KEY", ""),
		Environment:          getEnv("ENVIRONMENT", "development"),
		ItemDatasetPath:      getEnv("ITEM_DATASET_PATH", "data/warehouse_history.csv"),
		SentimentDatasetPath: getEnv("SENTIMENT_DATASET_PATH", "data/market_sentiment.csv"),
		CatalogPath:          getEnv("CATALOG_PATH", "configs/catalog.yaml"),
		ModelSeed:            getEnvInt64("MODEL_SEED", 42),
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt64 gets an integer environment variable with a default value
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
