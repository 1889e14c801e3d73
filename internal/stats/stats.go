// Package stats derives per-brand and per-commune price aggregates and
// volatility metrics from the current station snapshot.
package stats

import (
	"fmt"
	"sort"

	"github.com/edsradar/edsradar/internal/models"
)

// Fuel type keys, matching the feed column names in lowercase.
const (
	FuelG93    = "g93"
	FuelG95    = "g95"
	FuelG97    = "g97"
	FuelDiesel = "diesel"
	FuelKero   = "kero"
)

// FuelTypes lists the tracked fuels in display order.
var FuelTypes = []string{FuelG93, FuelG95, FuelG97, FuelDiesel, FuelKero}

func priceFor(p models.FuelPrices, fuel string) float64 {
	switch fuel {
	case FuelG93:
		return p.G93
	case FuelG95:
		return p.G95
	case FuelG97:
		return p.G97
	case FuelDiesel:
		return p.Diesel
	case FuelKero:
		return p.Kero
	}
	return 0
}

// FuelStat holds mean and median for one (brand, fuel) pair.
type FuelStat struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Count  int     `json:"count"`
}

// BrandStats aggregates one brand across the snapshot.
type BrandStats struct {
	Brand          string              `json:"brand"`
	UniqueStations int                 `json:"unique_stations"`
	Fuels          map[string]FuelStat `json:"fuels"`
}

// Extreme is the cheapest and most expensive observation for one fuel,
// with the stations that produced them for attribution.
type Extreme struct {
	Min        float64        `json:"min"`
	MinStation models.Station `json:"min_station"`
	Max        float64        `json:"max"`
	MaxStation models.Station `json:"max_station"`
}

// CommuneAverage is one commune's mean price for one fuel.
type CommuneAverage struct {
	Commune  string  `json:"commune"`
	Average  float64 `json:"average"`
	Stations int     `json:"stations"`
}

// CommuneRanking holds the most and least expensive communes for one
// fuel. Top is sorted descending by average; Bottom ascending.
type CommuneRanking struct {
	Top    []CommuneAverage `json:"top"`
	Bottom []CommuneAverage `json:"bottom"`
}

// Statistics is the full aggregate view over one snapshot.
type Statistics struct {
	Brands   []BrandStats              `json:"brands"`
	Extremes map[string]Extreme        `json:"extremes"`
	Communes map[string]CommuneRanking `json:"communes"`
}

// dedupKey identifies a station for unique counting: pbl, then id,
// then "lat_lng". Co-located stations lacking both keys collapse into
// one; known limitation.
func dedupKey(s models.Station) string {
	if s.PBL != "" {
		return s.PBL
	}
	if s.ID != "" {
		return s.ID
	}
	return fmt.Sprintf("%v_%v", s.Lat, s.Lng)
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// Aggregate computes brand statistics, global per-fuel extremes, and
// commune rankings in a single pass over the snapshot.
func Aggregate(stations []models.Station) Statistics {
	type brandAcc struct {
		prices map[string][]float64
		unique map[string]bool
	}
	type communeAcc struct {
		sum   map[string]float64
		count map[string]int
	}

	brands := make(map[string]*brandAcc)
	communes := make(map[string]*communeAcc)
	extremes := make(map[string]*Extreme)

	for _, s := range stations {
		ba := brands[s.Brand]
		if ba == nil {
			ba = &brandAcc{prices: make(map[string][]float64), unique: make(map[string]bool)}
			brands[s.Brand] = ba
		}
		ba.unique[dedupKey(s)] = true

		ca := communes[s.Commune]
		if ca == nil {
			ca = &communeAcc{sum: make(map[string]float64), count: make(map[string]int)}
			communes[s.Commune] = ca
		}

		for _, fuel := range FuelTypes {
			p := priceFor(s.Prices, fuel)
			if p <= 0 {
				continue
			}
			ba.prices[fuel] = append(ba.prices[fuel], p)
			ca.sum[fuel] += p
			ca.count[fuel]++

			ext := extremes[fuel]
			if ext == nil {
				extremes[fuel] = &Extreme{Min: p, MinStation: s, Max: p, MaxStation: s}
				continue
			}
			if p < ext.Min {
				ext.Min = p
				ext.MinStation = s
			}
			if p > ext.Max {
				ext.Max = p
				ext.MaxStation = s
			}
		}
	}

	out := Statistics{
		Extremes: make(map[string]Extreme, len(extremes)),
		Communes: make(map[string]CommuneRanking, len(FuelTypes)),
	}
	for fuel, ext := range extremes {
		out.Extremes[fuel] = *ext
	}

	brandNames := make([]string, 0, len(brands))
	for name := range brands {
		brandNames = append(brandNames, name)
	}
	sort.Strings(brandNames)

	for _, name := range brandNames {
		ba := brands[name]
		bs := BrandStats{
			Brand:          name,
			UniqueStations: len(ba.unique),
			Fuels:          make(map[string]FuelStat, len(ba.prices)),
		}
		for fuel, prices := range ba.prices {
			sum := 0.0
			for _, p := range prices {
				sum += p
			}
			sorted := append([]float64(nil), prices...)
			sort.Float64s(sorted)
			bs.Fuels[fuel] = FuelStat{
				Mean:   sum / float64(len(prices)),
				Median: median(sorted),
				Count:  len(prices),
			}
		}
		out.Brands = append(out.Brands, bs)
	}

	for _, fuel := range FuelTypes {
		var ranked []CommuneAverage
		for name, ca := range communes {
			if ca.count[fuel] == 0 {
				continue
			}
			ranked = append(ranked, CommuneAverage{
				Commune:  name,
				Average:  ca.sum[fuel] / float64(ca.count[fuel]),
				Stations: ca.count[fuel],
			})
		}
		if len(ranked) == 0 {
			continue
		}
		sort.Slice(ranked, func(i, j int) bool {
			if ranked[i].Average != ranked[j].Average {
				return ranked[i].Average > ranked[j].Average
			}
			return ranked[i].Commune < ranked[j].Commune
		})
		out.Communes[fuel] = CommuneRanking{
			Top:    topSlice(ranked, 5),
			Bottom: bottomSlice(ranked, 5),
		}
	}

	return out
}

func topSlice(ranked []CommuneAverage, n int) []CommuneAverage {
	if len(ranked) < n {
		n = len(ranked)
	}
	return append([]CommuneAverage(nil), ranked[:n]...)
}

// bottomSlice takes the tail of the descending ranking and reverses it
// so the cheapest commune comes first.
func bottomSlice(ranked []CommuneAverage, n int) []CommuneAverage {
	if len(ranked) < n {
		n = len(ranked)
	}
	tail := ranked[len(ranked)-n:]
	out := make([]CommuneAverage, n)
	for i, c := range tail {
		out[n-1-i] = c
	}
	return out
}
