// Package alerts groups active price-change alerts for the tracked
// stations tab.
package alerts

import (
	"fmt"
	"sort"

	"github.com/edsradar/edsradar/internal/models"
)

// UnnamedStation labels alerts whose feed row carries no station name.
const UnnamedStation = "Sin nombre"

// Footer is one deduplicated date-pair annotation under a group.
type Footer struct {
	Text     string `json:"text"`
	WarPrice bool   `json:"war_price"`
}

// Group is all active alerts of one station.
type Group struct {
	StationName string              `json:"station_name"`
	WarPrice    bool                `json:"war_price"`
	Alerts      []models.PriceAlert `json:"alerts"`
	Footers     []Footer            `json:"footers"`
}

type footerKey struct {
	text string
	war  bool
}

// GroupAlerts groups the flat alert list by station name. Groups in a
// price war sort first, then alphabetically; within a group, alerts
// keep feed order. Footer lines repeating the same date pair and war
// flag are suppressed after their first appearance.
func GroupAlerts(alerts []models.PriceAlert) []Group {
	index := make(map[string]int)
	seenFooters := make(map[string]map[footerKey]bool)
	var groups []Group

	for _, a := range alerts {
		name := a.StationName
		if name == "" {
			name = UnnamedStation
		}

		i, ok := index[name]
		if !ok {
			i = len(groups)
			index[name] = i
			groups = append(groups, Group{StationName: name})
			seenFooters[name] = make(map[footerKey]bool)
		}

		groups[i].Alerts = append(groups[i].Alerts, a)
		if a.WarPrice {
			groups[i].WarPrice = true
		}

		fk := footerKey{text: footerText(a), war: a.WarPrice}
		if !seenFooters[name][fk] {
			seenFooters[name][fk] = true
			groups[i].Footers = append(groups[i].Footers, Footer{Text: fk.text, WarPrice: fk.war})
		}
	}

	// Two-key order: alphabetical first, then a stable partition that
	// moves war-price groups to the front.
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].StationName < groups[j].StationName
	})
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].WarPrice && !groups[j].WarPrice
	})

	return groups
}

func footerText(a models.PriceAlert) string {
	return fmt.Sprintf("%s → %s", a.PreviousDate, a.CurrentDate)
}
