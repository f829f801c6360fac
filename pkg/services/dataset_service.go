package services

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"warehouse-sim-api/pkg/models"

	"github.com/xuri/excelize/v2"
)

// maxDatasetRows caps ingestion the same way the original pipeline did
// (head(5000) over the raw file).
const maxDatasetRows = 5000

// DatasetService loads historical training data from tabular files.
// It accepts CSV (flexible, case-insensitive headers) and XLSX spreadsheets;
// the extension decides the parser.
type DatasetService struct{}

// NewDatasetService creates a new DatasetService.
func NewDatasetService() *DatasetService {
	return &DatasetService{}
}

// LoadItemRecords reads the historical warehouse dataset
// (columns: Item, Buy Price, Month, Market Trend, Stock in Inventory).
func (s *DatasetService) LoadItemRecords(path string) ([]models.ItemRecord, error) {
	rows, err := s.loadRows(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return s.ParseItemRows(rows)
}

// ParseItemRows converts raw tabular rows (header + data) into ItemRecords.
func (s *DatasetService) ParseItemRows(rows [][]string) ([]models.ItemRecord, error) {
	if len(rows) < 2 {
		return nil, errors.New("dataset: no data rows")
	}
	header := normalizeHeader(rows[0])
	itemIdx := findColumn(header, "item", "item name", "item_name")
	priceIdx := findColumn(header, "buy price", "buy_price", "buyprice")
	monthIdx := findColumn(header, "month")
	trendIdx := findColumn(header, "market trend", "market_trend", "trend")
	stockIdx := findColumn(header, "stock in inventory", "stock_in_inventory", "stock")
	if itemIdx < 0 || priceIdx < 0 || monthIdx < 0 || trendIdx < 0 || stockIdx < 0 {
		return nil, fmt.Errorf("dataset: required columns missing (header: %v)", rows[0])
	}

	records := make([]models.ItemRecord, 0, len(rows)-1)
	for i := 1; i < len(rows) && len(records) < maxDatasetRows; i++ {
		row := rows[i]
		if len(row) <= maxIndex(itemIdx, priceIdx, monthIdx, trendIdx, stockIdx) {
			continue
		}
		item := strings.TrimSpace(row[itemIdx])
		if item == "" {
			continue
		}
		price, err1 := parseFloatCell(row[priceIdx])
		month, err2 := strconv.Atoi(strings.TrimSpace(row[monthIdx]))
		stock, err3 := parseFloatCell(row[stockIdx])
		if err1 != nil || err2 != nil || err3 != nil {
			continue // skip malformed rows, same as the original loader
		}
		if month < 1 || month > 12 {
			continue
		}
		records = append(records, models.ItemRecord{
			ItemName:         item,
			BuyPrice:         price,
			Month:            month,
			MarketTrend:      strings.TrimSpace(row[trendIdx]),
			StockInInventory: stock,
		})
	}
	if len(records) == 0 {
		return nil, errors.New("dataset: no valid rows")
	}
	return records, nil
}

// LoadSentimentRecords reads the market-trends dataset used to train the
// sentiment predictor (columns: Item, Trend, Source, Volume, Price Change,
// Category, Sentiment). "Price Change" cells like "5%" are normalized to 0.05.
func (s *DatasetService) LoadSentimentRecords(path string) ([]models.SentimentRecord, error) {
	rows, err := s.loadRows(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset %s: %w", path, err)
	}
	return s.ParseSentimentRows(rows)
}

// ParseSentimentRows converts raw tabular rows into SentimentRecords.
func (s *DatasetService) ParseSentimentRows(rows [][]string) ([]models.SentimentRecord, error) {
	if len(rows) < 2 {
		return nil, errors.New("dataset: no data rows")
	}
	header := normalizeHeader(rows[0])
	itemIdx := findColumn(header, "item")
	trendIdx := findColumn(header, "trend")
	sourceIdx := findColumn(header, "source")
	volumeIdx := findColumn(header, "volume")
	changeIdx := findColumn(header, "price change", "price_change")
	categoryIdx := findColumn(header, "category")
	sentimentIdx := findColumn(header, "sentiment")
	if itemIdx < 0 || trendIdx < 0 || sourceIdx < 0 || volumeIdx < 0 ||
		changeIdx < 0 || categoryIdx < 0 || sentimentIdx < 0 {
		return nil, fmt.Errorf("dataset: required columns missing (header: %v)", rows[0])
	}

	records := make([]models.SentimentRecord, 0, len(rows)-1)
	for i := 1; i < len(rows) && len(records) < maxDatasetRows; i++ {
		row := rows[i]
		if len(row) <= maxIndex(itemIdx, trendIdx, sourceIdx, volumeIdx, changeIdx, categoryIdx, sentimentIdx) {
			continue
		}
		volume, err1 := parseFloatCell(row[volumeIdx])
		change, err2 := parsePercentCell(row[changeIdx])
		sentiment, err3 := parseFloatCell(row[sentimentIdx])
		if err1 != nil || err2 != nil || err3 != nil {
			continue
		}
		records = append(records, models.SentimentRecord{
			Item:        strings.TrimSpace(row[itemIdx]),
			Trend:       strings.TrimSpace(row[trendIdx]),
			Source:      strings.TrimSpace(row[sourceIdx]),
			Volume:      volume,
			PriceChange: change,
			Category:    strings.TrimSpace(row[categoryIdx]),
			Sentiment:   sentiment,
		})
	}
	if len(records) == 0 {
		return nil, errors.New("dataset: no valid rows")
	}
	return records, nil
}

// ParseCSVBytes parses in-memory CSV content into raw rows.
func (s *DatasetService) ParseCSVBytes(data []byte) ([][]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// loadRows dispatches on file extension.
func (s *DatasetService) loadRows(path string) ([][]string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		return s.loadXLSX(path)
	default:
		return s.loadCSV(path)
	}
}

func (s *DatasetService) loadCSV(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	return r.ReadAll()
}

// loadXLSX reads the first sheet of a spreadsheet into raw rows.
func (s *DatasetService) loadXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, errors.New("xlsx: no sheets")
	}
	return f.GetRows(sheets[0])
}

// normalizeHeader strips BOM, trims, and lowercases header cells.
func normalizeHeader(hdr []string) []string {
	out := make([]string, len(hdr))
	for i, v := range hdr {
		v = strings.TrimPrefix(v, "\uFEFF")
		out[i] = strings.ToLower(strings.TrimSpace(v))
	}
	return out
}

// findColumn returns the index of the first matching candidate header.
func findColumn(hdr []string, candidates ...string) int {
	for _, c := range candidates {
		for i, h := range hdr {
			if h == c {
				return i
			}
		}
	}
	return -1
}

func maxIndex(indices ...int) int {
	m := 0
	for _, idx := range indices {
		if idx > m {
			m = idx
		}
	}
	return m
}

// parseFloatCell parses a numeric cell, tolerating thousands separators.
func parseFloatCell(cell string) (float64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(cell), ",", "")
	if cleaned == "" {
		return 0, errors.New("empty cell")
	}
	return strconv.ParseFloat(cleaned, 64)
}

// parsePercentCell parses cells like "5%" or "-10%" to fractions (0.05, -0.1).
// Plain numbers pass through unchanged.
func parsePercentCell(cell string) (float64, error) {
	cleaned := strings.TrimSpace(cell)
	if strings.HasSuffix(cleaned, "%") {
		v, err := strconv.ParseFloat(strings.TrimSuffix(cleaned, "%"), 64)
		if err != nil {
			return 0, err
		}
		return v / 100.0, nil
	}
	return parseFloatCell(cleaned)
}
