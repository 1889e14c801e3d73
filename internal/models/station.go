// Package models defines the core domain entities: stations, price
// history rows, coordinate corrections, and price alerts.
package models

import (
	"errors"
	"time"
)

// FuelPrices holds the five tracked fuel prices in CLP per liter.
// A zero value means the station does not publish that fuel.
type FuelPrices struct {
	G93    float64 `json:"g93"`
	G95    float64 `json:"g95"`
	G97    float64 `json:"g97"`
	Diesel float64 `json:"diesel"`
	Kero   float64 `json:"kero"`
}

// Station is one logical fuel station with resolved map coordinates.
// Lat/Lng are always renderable: corrected, parsed from the feed, or
// the fallback coordinate. ID joins historical rows; PBL correlates a
// principal station with its tracked competitors.
type Station struct {
	ID          string     `json:"id"`
	PBL         string     `json:"pbl"`
	EDS         string     `json:"eds"`
	Lat         float64    `json:"lat"`
	Lng         float64    `json:"lng"`
	LatOriginal string     `json:"lat_original"`
	LngOriginal string     `json:"lng_original"`
	Brand       string     `json:"brand"`
	Region      string     `json:"region"`
	Commune     string     `json:"commune"`
	Address     string     `json:"address"`
	Prices      FuelPrices `json:"prices"`
	WarPrice    bool       `json:"war_price"`
	LastUpdate  time.Time  `json:"last_update"`

	// SelfServicePumps is nil when the feed does not report pump
	// counts for the station.
	SelfServicePumps *int   `json:"self_service_pumps,omitempty"`
	ZoneManager      string `json:"zone_manager,omitempty"`
	OperationType    string `json:"operation_type,omitempty"`
}

// StationRecord is one raw row of the station feed after the adapter
// has resolved field-name fallbacks into a single canonical schema.
// Coordinates stay as strings until the aggregator parses them; nil
// prices mean the row did not carry that fuel.
type StationRecord struct {
	ID               string
	PBL              string
	EDS              string
	Brand            string
	Region           string
	Commune          string
	Address          string
	Latitude         string
	Longitude        string
	G93              *float64
	G95              *float64
	G97              *float64
	Diesel           *float64
	Kero             *float64
	WarPrice         bool
	Level            string
	Updated          string // "DD/MM/YYYY HH:mm"
	SelfServicePumps string
	ZoneManager      string
	OperationType    string
}

// CompetitorRecord is one row of the competitor feed. Principal marks
// the record that anchors a connector line back to the principal
// station on the map.
type CompetitorRecord struct {
	PBL       string     `json:"pbl"`
	ID        string     `json:"id"`
	EDS       string     `json:"eds"`
	Brand     string     `json:"brand"`
	Region    string     `json:"region"`
	Commune   string     `json:"commune"`
	Prices    FuelPrices `json:"prices"`
	Principal bool       `json:"principal"`
}

// MarketWarStation is an externally sourced, read-only snapshot row of
// the market-war tracking list.
type MarketWarStation struct {
	CNEID       string `json:"cne_id"`
	StationName string `json:"station_name"`
	Region      string `json:"region"`
	Type        string `json:"type"`
	Active      bool   `json:"active"`
	WarPrice    bool   `json:"war_price"`
	PBL         string `json:"pbl"`
}

// CoordinateCorrection is a manual coordinate override for one
// station, keyed uniquely by PBL. Saving a new correction for the same
// PBL replaces the old one.
type CoordinateCorrection struct {
	PBL         string    `json:"pbl"`
	ID          string    `json:"id"`
	EDS         string    `json:"eds"`
	Brand       string    `json:"brand"`
	Commune     string    `json:"commune"`
	Lat         float64   `json:"lat_corregida"`
	Lng         float64   `json:"lon_corregida"`
	CorrectedAt time.Time `json:"corrected_at"`
}

// Validate checks correction field constraints before the store
// accepts a write.
func (c *CoordinateCorrection) Validate() error {
	if c.PBL == "" {
		return errors.New("correction PBL must not be empty")
	}
	if c.Lat == 0 && c.Lng == 0 {
		return errors.New("corrected coordinates must be present")
	}
	if c.Lat < -90 || c.Lat > 90 {
		return errors.New("corrected latitude must be between -90 and 90")
	}
	if c.Lng < -180 || c.Lng > 180 {
		return errors.New("corrected longitude must be between -180 and 180")
	}
	return nil
}
