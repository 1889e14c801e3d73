package engine

import (
	"strings"

	"github.com/edsradar/edsradar/internal/models"
)

// ViewState tags a cross-reference resolution.
type ViewState int

const (
	Collapsed ViewState = iota
	Expanded
)

// Anchor ties a principal-marker competitor record to the real map
// coordinates of the station it belongs to, for drawing a connector
// line. Located is false when the principal's id is absent from the
// search set.
type Anchor struct {
	Competitor models.CompetitorRecord `json:"competitor"`
	Lat        float64                 `json:"lat"`
	Lng        float64                 `json:"lng"`
	Located    bool                    `json:"located"`
}

// Resolution is the outcome of one resolver invocation.
type Resolution struct {
	State       ViewState                 `json:"state"`
	PBL         string                    `json:"pbl,omitempty"`
	Competitors []models.CompetitorRecord `json:"competitors,omitempty"`
	Anchors     []Anchor                  `json:"anchors,omitempty"`
}

// Resolver carries the expand/collapse state of the competitor view.
// An empty key means collapsed; the only transitions are
// collapse ↔ expand(pbl) and expand(a) → expand(b).
type Resolver struct {
	expandedPBL string
}

// Resolve toggles the competitor view for pbl. Resolving the pbl that
// is currently expanded collapses the view; resolving a different pbl
// switches the expansion to it.
func (r *Resolver) Resolve(pbl string, competitors []models.CompetitorRecord, search []models.Station) Resolution {
	key := strings.TrimSpace(pbl)
	if key == "" || key == r.expandedPBL {
		r.expandedPBL = ""
		return Resolution{State: Collapsed}
	}

	r.expandedPBL = key
	matched := MatchCompetitors(key, competitors)
	return Resolution{
		State:       Expanded,
		PBL:         key,
		Competitors: matched,
		Anchors:     FindAnchors(matched, search),
	}
}

// Collapse resets the view, used when the snapshot is replaced.
func (r *Resolver) Collapse() {
	r.expandedPBL = ""
}

// ExpandedPBL reports the currently expanded business key, if any.
func (r *Resolver) ExpandedPBL() (string, bool) {
	return r.expandedPBL, r.expandedPBL != ""
}

// MatchCompetitors returns all competitor records sharing the business
// key. The comparison trims both sides because the field arrives as
// number or string depending on the source.
func MatchCompetitors(pbl string, competitors []models.CompetitorRecord) []models.CompetitorRecord {
	key := strings.TrimSpace(pbl)
	if key == "" {
		return nil
	}
	var matched []models.CompetitorRecord
	for _, c := range competitors {
		if strings.TrimSpace(c.PBL) == key {
			matched = append(matched, c)
		}
	}
	return matched
}

// FindAnchors extracts the principal-marker records among matched
// competitors and resolves their coordinates by looking the
// principal's id up in the station search set. Coordinates live with
// the station record, not the competitor row.
func FindAnchors(matched []models.CompetitorRecord, search []models.Station) []Anchor {
	byID := make(map[string]models.Station, len(search))
	for _, s := range search {
		byID[s.ID] = s
	}

	var anchors []Anchor
	for _, c := range matched {
		if !c.Principal {
			continue
		}
		a := Anchor{Competitor: c}
		if st, ok := byID[c.ID]; ok {
			a.Lat = st.Lat
			a.Lng = st.Lng
			a.Located = true
		}
		anchors = append(anchors, a)
	}
	return anchors
}
