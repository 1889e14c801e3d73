// Package ingest turns raw feed rows into renderable stations and
// price-history tables.
package ingest

import (
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/edsradar/edsradar/internal/models"
)

// Feed timestamps look like "15/08/2026 09:30"; some rows drop the
// time component.
const (
	feedTimeLayout = "02/01/2006 15:04"
	feedDateLayout = "02/01/2006"
)

// ParseFeedTime parses an upstream timestamp. Unparseable values map
// to the Unix epoch so malformed rows sort last instead of breaking
// the table.
func ParseFeedTime(s string) time.Time {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(feedTimeLayout, s); err == nil {
		return t
	}
	if t, err := time.Parse(feedDateLayout, s); err == nil {
		return t
	}
	return time.Unix(0, 0)
}

func formatPrice(p *float64) string {
	if p == nil {
		return models.PriceMissing
	}
	return strconv.FormatFloat(*p, 'f', -1, 64)
}

// NormalizeHistory converts raw station rows into canonical history
// rows for one reporting level (empty level keeps all rows), ordered
// by applied date descending. Rows with equal dates keep their
// original relative order.
func NormalizeHistory(records []models.StationRecord, level string) []models.HistoryRow {
	rows := make([]models.HistoryRow, 0, len(records))
	for _, r := range records {
		if level != "" && r.Level != level {
			continue
		}
		rows = append(rows, models.HistoryRow{
			StationID:   r.ID,
			Level:       r.Level,
			AppliedDate: ParseFeedTime(r.Updated),
			G93:         formatPrice(r.G93),
			G95:         formatPrice(r.G95),
			G97:         formatPrice(r.G97),
			Diesel:      formatPrice(r.Diesel),
			Kero:        formatPrice(r.Kero),
		})
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].AppliedDate.After(rows[j].AppliedDate)
	})
	return rows
}
