package models

import "time"

// Price reporting levels. A station publishes up to two parallel rows
// per date, one per level.
const (
	LevelOne = "Nivel 1"
	LevelTwo = "Nivel 2"
)

// PriceMissing is the sentinel rendered for a fuel the row does not
// carry, so history tables stay rectangular.
const PriceMissing = "-"

// HistoryRow is one canonical price-history table row. Prices are
// display strings ("-" when absent); AppliedDate orders the table and
// is time.Unix(0,0) when the feed date could not be parsed.
type HistoryRow struct {
	StationID   string    `json:"station_id"`
	Level       string    `json:"level"`
	AppliedDate time.Time `json:"applied_date"`
	G93         string    `json:"g93"`
	G95         string    `json:"g95"`
	G97         string    `json:"g97"`
	Diesel      string    `json:"diesel"`
	Kero        string    `json:"kero"`
}
