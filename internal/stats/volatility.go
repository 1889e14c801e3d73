package stats

import (
	"math"
	"sort"
	"time"

	"github.com/edsradar/edsradar/internal/ingest"
	"github.com/edsradar/edsradar/internal/models"
)

// SignificantDelta is the minimum absolute price movement counted as a
// significant change.
const SignificantDelta = 0.5

// PricePoint is one dated price observation for a station and fuel.
type PricePoint struct {
	StationID string
	Brand     string
	Fuel      string
	Date      time.Time
	Price     float64
}

// BrandVolatility summarizes price movement for one brand.
type BrandVolatility struct {
	Brand          string  `json:"brand"`
	Changes        int     `json:"changes"`
	TotalMagnitude float64 `json:"total_magnitude"`
	AvgMagnitude   float64 `json:"avg_magnitude"`
	StdDev         float64 `json:"std_dev"`
	Observations   int     `json:"observations"`
}

// BuildPoints extracts dated price observations from raw feed rows.
// Rows without a parseable price for a fuel contribute nothing for it.
func BuildPoints(records []models.StationRecord) []PricePoint {
	var points []PricePoint
	for _, r := range records {
		date := ingest.ParseFeedTime(r.Updated)
		for fuel, p := range map[string]*float64{
			FuelG93:    r.G93,
			FuelG95:    r.G95,
			FuelG97:    r.G97,
			FuelDiesel: r.Diesel,
			FuelKero:   r.Kero,
		} {
			if p == nil {
				continue
			}
			points = append(points, PricePoint{
				StationID: r.ID,
				Brand:     r.Brand,
				Fuel:      fuel,
				Date:      date,
				Price:     *p,
			})
		}
	}
	return points
}

// Volatility computes per-brand change frequency, magnitude, and
// standard deviation. Each station's per-fuel series is ordered by
// date ascending before transitions are counted; the deviation is the
// population formula over every observed price of the brand,
// reproduced as-is for compatibility with the existing dashboards.
func Volatility(points []PricePoint) []BrandVolatility {
	type seriesKey struct {
		station string
		fuel    string
	}
	type brandAcc struct {
		series map[seriesKey][]PricePoint
		prices []float64
	}

	brands := make(map[string]*brandAcc)
	for _, p := range points {
		acc := brands[p.Brand]
		if acc == nil {
			acc = &brandAcc{series: make(map[seriesKey][]PricePoint)}
			brands[p.Brand] = acc
		}
		key := seriesKey{station: p.StationID, fuel: p.Fuel}
		acc.series[key] = append(acc.series[key], p)
		acc.prices = append(acc.prices, p.Price)
	}

	names := make([]string, 0, len(brands))
	for name := range brands {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]BrandVolatility, 0, len(names))
	for _, name := range names {
		acc := brands[name]
		v := BrandVolatility{Brand: name, Observations: len(acc.prices)}

		for _, series := range acc.series {
			sort.SliceStable(series, func(i, j int) bool {
				return series[i].Date.Before(series[j].Date)
			})
			for i := 1; i < len(series); i++ {
				delta := math.Abs(series[i].Price - series[i-1].Price)
				if delta > SignificantDelta {
					v.Changes++
					v.TotalMagnitude += delta
				}
			}
		}
		if v.Changes > 0 {
			v.AvgMagnitude = v.TotalMagnitude / float64(v.Changes)
		}
		v.StdDev = populationStdDev(acc.prices)

		out = append(out, v)
	}
	return out
}

// populationStdDev is the mean of squared deviations, not the
// Bessel-corrected sample form.
func populationStdDev(prices []float64) float64 {
	if len(prices) == 0 {
		return 0
	}
	sum := 0.0
	for _, p := range prices {
		sum += p
	}
	mean := sum / float64(len(prices))

	sq := 0.0
	for _, p := range prices {
		d := p - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(prices)))
}
