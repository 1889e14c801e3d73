package stats

import (
	"math"
	"testing"

	"github.com/edsradar/edsradar/internal/models"
)

func station(id, pbl, brand, commune string, g93 float64) models.Station {
	return models.Station{
		ID:      id,
		PBL:     pbl,
		EDS:     "EDS " + id,
		Brand:   brand,
		Commune: commune,
		Prices:  models.FuelPrices{G93: g93},
	}
}

func TestMedian(t *testing.T) {
	tests := []struct {
		prices []float64
		want   float64
	}{
		{[]float64{10, 20, 30}, 20},
		{[]float64{10, 20, 30, 40}, 25},
		{[]float64{7}, 7},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := median(tt.prices); got != tt.want {
			t.Errorf("median(%v) = %v, want %v", tt.prices, got, tt.want)
		}
	}
}

func TestAggregateBrandMeanAndMedian(t *testing.T) {
	stations := []models.Station{
		station("1", "p1", "COPEC", "Maipú", 10),
		station("2", "p2", "COPEC", "Maipú", 20),
		station("3", "p3", "COPEC", "Maipú", 30),
		station("4", "p4", "COPEC", "Maipú", 40),
	}
	out := Aggregate(stations)
	if len(out.Brands) != 1 {
		t.Fatalf("got %d brands, want 1", len(out.Brands))
	}
	fs := out.Brands[0].Fuels[FuelG93]
	if fs.Mean != 25 {
		t.Errorf("mean = %v, want 25", fs.Mean)
	}
	if fs.Median != 25 {
		t.Errorf("even-length median = %v, want 25", fs.Median)
	}
	if out.Brands[0].UniqueStations != 4 {
		t.Errorf("unique stations = %d, want 4", out.Brands[0].UniqueStations)
	}
}

func TestAggregateUniqueStationDedupKey(t *testing.T) {
	// Same PBL twice, one keyed by id, two keyed only by position at
	// the same spot: the co-located keyless pair under-counts to one.
	stations := []models.Station{
		station("1", "p1", "COPEC", "Maipú", 10),
		station("2", "p1", "COPEC", "Maipú", 20),
		{ID: "3", Brand: "COPEC", Commune: "Maipú", Prices: models.FuelPrices{G93: 30}},
		{Brand: "COPEC", Commune: "Maipú", Lat: -33.5, Lng: -70.7, Prices: models.FuelPrices{G93: 40}},
		{Brand: "COPEC", Commune: "Maipú", Lat: -33.5, Lng: -70.7, Prices: models.FuelPrices{G93: 50}},
	}
	out := Aggregate(stations)
	if got := out.Brands[0].UniqueStations; got != 3 {
		t.Errorf("unique stations = %d, want 3 (pbl, id, lat_lng)", got)
	}
}

func TestAggregateExtremesAttribution(t *testing.T) {
	stations := []models.Station{
		station("1", "p1", "COPEC", "Maipú", 1250),
		station("2", "p2", "SHELL", "Pudahuel", 1190),
		station("3", "p3", "PETROBRAS", "Quilicura", 1330),
	}
	out := Aggregate(stations)
	ext, ok := out.Extremes[FuelG93]
	if !ok {
		t.Fatal("no extreme recorded for g93")
	}
	if ext.Min != 1190 || ext.MinStation.ID != "2" {
		t.Errorf("min = %v at %q, want 1190 at station 2", ext.Min, ext.MinStation.ID)
	}
	if ext.Max != 1330 || ext.MaxStation.ID != "3" {
		t.Errorf("max = %v at %q, want 1330 at station 3", ext.Max, ext.MaxStation.ID)
	}
}

func TestAggregateCommuneRanking(t *testing.T) {
	stations := []models.Station{
		station("1", "p1", "COPEC", "Vitacura", 1400),
		station("2", "p2", "COPEC", "Las Condes", 1350),
		station("3", "p3", "COPEC", "Maipú", 1200),
	}
	out := Aggregate(stations)
	ranking, ok := out.Communes[FuelG93]
	if !ok {
		t.Fatal("no commune ranking for g93")
	}
	// Fewer than five communes: slicing degrades to all available.
	if len(ranking.Top) != 3 || len(ranking.Bottom) != 3 {
		t.Fatalf("top/bottom sizes = %d/%d, want 3/3", len(ranking.Top), len(ranking.Bottom))
	}
	if ranking.Top[0].Commune != "Vitacura" {
		t.Errorf("top commune = %q, want Vitacura", ranking.Top[0].Commune)
	}
	if ranking.Bottom[0].Commune != "Maipú" {
		t.Errorf("bottom ranking should start with the cheapest, got %q", ranking.Bottom[0].Commune)
	}
}

func TestAggregateIgnoresMissingPrices(t *testing.T) {
	stations := []models.Station{
		station("1", "p1", "COPEC", "Maipú", 0), // no g93 published
		station("2", "p2", "COPEC", "Maipú", 1200),
	}
	out := Aggregate(stations)
	fs := out.Brands[0].Fuels[FuelG93]
	if fs.Count != 1 || fs.Mean != 1200 {
		t.Errorf("zero prices must not enter aggregates: count=%d mean=%v", fs.Count, fs.Mean)
	}
}

func TestPopulationStdDev(t *testing.T) {
	tests := []struct {
		prices []float64
		want   float64
	}{
		{[]float64{800, 800, 800}, 0},
		{[]float64{700, 900}, 100},
		{nil, 0},
	}
	for _, tt := range tests {
		if got := populationStdDev(tt.prices); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("populationStdDev(%v) = %v, want %v", tt.prices, got, tt.want)
		}
	}
}
