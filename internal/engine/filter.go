// Package engine computes the visible station subset for the map and
// resolves competitor cross-references.
package engine

import (
	"github.com/edsradar/edsradar/internal/models"
)

// Filters is the mutable filter state of the map view. Region is
// always applied; the remaining predicates are optional.
type Filters struct {
	Region          string `json:"region"`
	Commune         string `json:"commune"`
	Brand           string `json:"brand"`
	ZoneManager     string `json:"zone_manager"`
	StationQuery    string `json:"station_query"` // exact EDS name match
	WarOnly         bool   `json:"war_only"`
	SelfServiceOnly bool   `json:"self_service_only"`
}

// VisibleSet is the result of one filter pass. CrossRef applies the
// same predicates minus the station-name filter, so the market view
// can find competitors of a station even when the map is narrowed to
// that one station.
type VisibleSet struct {
	Visible  []models.Station `json:"visible"`
	CrossRef []models.Station `json:"cross_ref"`
}

// ComputeVisible applies the filter predicates to the station list.
// Branch priority: zone manager, then commune, then brand only. Every
// branch is intersected with the region, the optional station-name
// match, and the war-price / self-service flags.
func ComputeVisible(stations []models.Station, f Filters) VisibleSet {
	// A zone manager's territory includes every commune where the
	// manager operates a station, so competitors there show alongside
	// the manager's own stations.
	var managerCommunes map[string]bool
	if f.ZoneManager != "" {
		managerCommunes = make(map[string]bool)
		for _, s := range stations {
			if s.Region == f.Region && s.ZoneManager == f.ZoneManager {
				managerCommunes[s.Commune] = true
			}
		}
	}

	set := VisibleSet{
		Visible:  make([]models.Station, 0, len(stations)),
		CrossRef: make([]models.Station, 0, len(stations)),
	}
	for _, s := range stations {
		if !matches(s, f, managerCommunes) {
			continue
		}
		set.CrossRef = append(set.CrossRef, s)
		if f.StationQuery == "" || s.EDS == f.StationQuery {
			set.Visible = append(set.Visible, s)
		}
	}
	return set
}

func matches(s models.Station, f Filters, managerCommunes map[string]bool) bool {
	if s.Region != f.Region {
		return false
	}

	switch {
	case f.ZoneManager != "":
		if s.ZoneManager != f.ZoneManager && !managerCommunes[s.Commune] {
			return false
		}
	case f.Commune != "":
		if s.Commune != f.Commune {
			return false
		}
		if f.Brand != "" && s.Brand != f.Brand {
			return false
		}
	default:
		if f.Brand != "" && s.Brand != f.Brand {
			return false
		}
	}

	if f.WarOnly && !s.WarPrice {
		return false
	}
	if f.SelfServiceOnly && (s.SelfServicePumps == nil || *s.SelfServicePumps == 0) {
		return false
	}
	return true
}
