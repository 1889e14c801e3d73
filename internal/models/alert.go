package models

// PriceAlert is one active price-change alert from the alert feed.
type PriceAlert struct {
	StationName   string  `json:"station_name"`
	Brand         string  `json:"brand"`
	CNECode       string  `json:"cne_code"`
	FuelType      string  `json:"fuel_type"`
	CurrentPrice  float64 `json:"current_price"`
	PreviousPrice float64 `json:"previous_price"`
	CurrentDate   string  `json:"current_date"`
	PreviousDate  string  `json:"previous_date"`
	AttentionType string  `json:"attention_type"`
	WarPrice      bool    `json:"war_price"`
}
