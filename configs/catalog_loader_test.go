package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()

	if len(catalog.Warehouses) != 5 {
		t.Fatalf("Expected 5 warehouses, got %d", len(catalog.Warehouses))
	}
	if catalog.Warehouses[0].Name != "Mumbai Hub" {
		t.Errorf("Expected first warehouse to be 'Mumbai Hub', got '%s'", catalog.Warehouses[0].Name)
	}
	if len(catalog.Sentiment) != 6 {
		t.Errorf("Expected 6 sentiment entries, got %d", len(catalog.Sentiment))
	}

	// 部品カタログにはBatteryが含まれる
	found := false
	for _, p := range catalog.Parts {
		if p.Name == "Battery" {
			found = true
			if p.BuyPrice != 41.75 {
				t.Errorf("Expected Battery buy price 41.75, got %f", p.BuyPrice)
			}
		}
	}
	if !found {
		t.Error("Expected parts catalog to contain 'Battery'")
	}
}

func TestLoadCatalogMissingFileFallsBack(t *testing.T) {
	catalog, err := LoadCatalog("no/such/catalog.yaml")
	if err != nil {
		t.Fatalf("Expected fallback to default catalog, got error: %v", err)
	}
	if len(catalog.Warehouses) != 5 {
		t.Errorf("Expected default catalog, got %d warehouses", len(catalog.Warehouses))
	}
}

func TestLoadCatalogFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	content := `warehouses:
  - id: "9"
    name: "Test Depot"
    location: "Test State"
    latitude: 10.0
    longitude: 20.0
    capacity: 5000
parts:
  - name: "Battery"
    buy_price: 41.75
    sell_price: 45.99
    trend: "bullish"
sentiment:
  - item: "Rice"
    sentiment: 0.8
    trend: "up"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog failed: %v", err)
	}
	if len(catalog.Warehouses) != 1 || catalog.Warehouses[0].Name != "Test Depot" {
		t.Errorf("Unexpected warehouses: %+v", catalog.Warehouses)
	}

	w, ok := catalog.WarehouseByID("9")
	if !ok || w.Capacity != 5000 {
		t.Errorf("WarehouseByID lookup failed: %+v ok=%v", w, ok)
	}
	if _, ok := catalog.WarehouseByID("nope"); ok {
		t.Error("Expected lookup miss for unknown ID")
	}

	caps := catalog.Capacities()
	if caps["9"] != 5000 {
		t.Errorf("Expected capacity 5000, got %f", caps["9"])
	}
}

func TestLoadCatalogInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	if err := os.WriteFile(path, []byte("warehouses: [not: {valid"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCatalog(path); err == nil {
		t.Error("Expected parse error for invalid YAML")
	}
}
