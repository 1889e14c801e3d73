// Package board owns the mutable dashboard view state: the current
// feed snapshot and the derived views computed from it. The engine and
// stats functions stay pure; every mutation goes through here.
package board

import (
	"sync"
	"time"

	"github.com/edsradar/edsradar/internal/alerts"
	"github.com/edsradar/edsradar/internal/engine"
	"github.com/edsradar/edsradar/internal/ingest"
	"github.com/edsradar/edsradar/internal/models"
	"github.com/edsradar/edsradar/internal/stats"
)

// Snapshot is one full feed refresh. Raw records are kept alongside
// the aggregated stations because history tables and volatility are
// derived from the rows, not the deduplicated stations.
type Snapshot struct {
	Records     []models.StationRecord
	Stations    []models.Station
	Competitors []models.CompetitorRecord
	WarStations []models.MarketWarStation
	Alerts      []models.PriceAlert
	FetchedAt   time.Time
}

// Board holds the current snapshot and memoized derived views.
type Board struct {
	mu            sync.RWMutex
	snap          Snapshot
	groups        []alerts.Group
	resolver      engine.Resolver
	statistics    *stats.Statistics
	volatility    []stats.BrandVolatility
	defaultRegion string
}

// New creates an empty board. Until the first refresh all views render
// empty collections.
func New(defaultRegion string) *Board {
	return &Board{defaultRegion: defaultRegion}
}

// Replace installs a new snapshot, dropping every derived view: the
// memoized statistics are cleared and any expanded cross-reference is
// collapsed. There is no merge; the old collections are gone. Returns
// the freshly grouped alerts for notification.
func (b *Board) Replace(snap Snapshot) []alerts.Group {
	groups := alerts.GroupAlerts(snap.Alerts)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.snap = snap
	b.groups = groups
	b.statistics = nil
	b.volatility = nil
	b.resolver.Collapse()
	return groups
}

// LastRefresh reports when the current snapshot was fetched.
func (b *Board) LastRefresh() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.FetchedAt
}

// Stations returns the current aggregated station list.
func (b *Board) Stations() []models.Station {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.Stations
}

// WarStations returns the current market-war snapshot.
func (b *Board) WarStations() []models.MarketWarStation {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.snap.WarStations
}

// AlertGroups returns the grouped alert view.
func (b *Board) AlertGroups() []alerts.Group {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.groups
}

// Visible computes the filtered map view. An empty region falls back
// to the configured default region.
func (b *Board) Visible(f engine.Filters) engine.VisibleSet {
	if f.Region == "" {
		f.Region = b.defaultRegion
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	return engine.ComputeVisible(b.snap.Stations, f)
}

// Resolve toggles the competitor cross-reference for pbl against the
// current snapshot.
func (b *Board) Resolve(pbl string) engine.Resolution {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.resolver.Resolve(pbl, b.snap.Competitors, b.snap.Stations)
}

// CompetitorsFor answers a stateless competitor lookup, leaving the
// toggle state untouched.
func (b *Board) CompetitorsFor(pbl string) ([]models.CompetitorRecord, []engine.Anchor) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	matched := engine.MatchCompetitors(pbl, b.snap.Competitors)
	return matched, engine.FindAnchors(matched, b.snap.Stations)
}

// History renders the price-history table for one station, optionally
// narrowed to a reporting level.
func (b *Board) History(stationID, level string) []models.HistoryRow {
	b.mu.RLock()
	defer b.mu.RUnlock()
	var rows []models.StationRecord
	for _, r := range b.snap.Records {
		if r.ID == stationID {
			rows = append(rows, r)
		}
	}
	return ingest.NormalizeHistory(rows, level)
}

// Statistics returns the aggregate view, computing it once per
// snapshot.
func (b *Board) Statistics() stats.Statistics {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.statistics == nil {
		s := stats.Aggregate(b.snap.Stations)
		b.statistics = &s
	}
	return *b.statistics
}

// Volatility returns the per-brand volatility view, computed once per
// snapshot.
func (b *Board) Volatility() []stats.BrandVolatility {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.volatility == nil {
		b.volatility = stats.Volatility(stats.BuildPoints(b.snap.Records))
	}
	return b.volatility
}
