package ingest

import (
	"strconv"
	"strings"

	"github.com/edsradar/edsradar/internal/models"
)

// Fallback coordinate for rows whose lat/lng cannot be parsed and have
// no correction. Stations land there visibly mislocated rather than
// disappearing from the map; known limitation of the feed.
const (
	FallbackLat = -33.8688
	FallbackLng = -70.9123
)

func parseCoordinate(s string) (float64, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

type stationKey struct {
	id  string
	lat float64
	lng float64
}

// BuildStations aggregates raw feed rows into logical stations.
// Coordinate overrides are looked up by PBL first, then by ID; rows
// repeating the exact same (id, lat, lng) identity are dropped, first
// occurrence wins. Rows with the same id but a different position are
// kept as distinct entries.
func BuildStations(records []models.StationRecord, corrections []models.CoordinateCorrection) []models.Station {
	byPBL := make(map[string]models.CoordinateCorrection, len(corrections))
	byID := make(map[string]models.CoordinateCorrection, len(corrections))
	for _, c := range corrections {
		if c.PBL != "" {
			byPBL[c.PBL] = c
		}
		if c.ID != "" {
			byID[c.ID] = c
		}
	}

	seen := make(map[stationKey]bool, len(records))
	stations := make([]models.Station, 0, len(records))
	for _, r := range records {
		lat, lng := resolveCoordinates(r, byPBL, byID)

		key := stationKey{id: r.ID, lat: lat, lng: lng}
		if seen[key] {
			continue
		}
		seen[key] = true

		st := models.Station{
			ID:          r.ID,
			PBL:         r.PBL,
			EDS:         r.EDS,
			Lat:         lat,
			Lng:         lng,
			LatOriginal: r.Latitude,
			LngOriginal: r.Longitude,
			Brand:       r.Brand,
			Region:      r.Region,
			Commune:     r.Commune,
			Address:     r.Address,
			Prices: models.FuelPrices{
				G93:    value(r.G93),
				G95:    value(r.G95),
				G97:    value(r.G97),
				Diesel: value(r.Diesel),
				Kero:   value(r.Kero),
			},
			WarPrice:      r.WarPrice,
			LastUpdate:    ParseFeedTime(r.Updated),
			ZoneManager:   r.ZoneManager,
			OperationType: r.OperationType,
		}
		if n, err := strconv.Atoi(strings.TrimSpace(r.SelfServicePumps)); err == nil {
			st.SelfServicePumps = &n
		}
		stations = append(stations, st)
	}
	return stations
}

func resolveCoordinates(r models.StationRecord, byPBL, byID map[string]models.CoordinateCorrection) (float64, float64) {
	if c, ok := byPBL[r.PBL]; ok && r.PBL != "" {
		return c.Lat, c.Lng
	}
	if c, ok := byID[r.ID]; ok && r.ID != "" {
		return c.Lat, c.Lng
	}
	lat, okLat := parseCoordinate(r.Latitude)
	lng, okLng := parseCoordinate(r.Longitude)
	if !okLat || !okLng {
		return FallbackLat, FallbackLng
	}
	return lat, lng
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
