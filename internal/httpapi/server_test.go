package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/edsradar/edsradar/internal/board"
	"github.com/edsradar/edsradar/internal/config"
	"github.com/edsradar/edsradar/internal/models"
	"github.com/edsradar/edsradar/internal/storage"
)

const region = "Metropolitana de Santiago"

func newTestServer(t *testing.T) *Server {
	t.Helper()
	store, err := storage.New("sqlite", ":memory:", 100)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	b := board.New(region)
	b.Replace(board.Snapshot{
		Stations: []models.Station{
			{ID: "1", PBL: "40213", EDS: "COPEC MAIPU", Brand: "COPEC", Region: region, Commune: "Maipú"},
			{ID: "2", EDS: "SHELL MAIPU", Brand: "SHELL", Region: region, Commune: "Maipú"},
			{ID: "3", EDS: "COPEC VALPO", Brand: "COPEC", Region: "Valparaíso", Commune: "Valparaíso"},
		},
		Competitors: []models.CompetitorRecord{
			{PBL: "40213", ID: "1", Principal: true},
			{PBL: "40213", ID: "2"},
		},
		Alerts: []models.PriceAlert{{StationName: "COPEC MAIPU"}},
	})

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	return New(cfg, b, store)
}

func doRequest(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Engine().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
}

func TestStationsFilteredByRegion(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/stations?brand=COPEC", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Count    int              `json:"count"`
		Stations []models.Station `json:"stations"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	// Default region applies: the Valparaíso COPEC stays out.
	if resp.Count != 1 || resp.Stations[0].ID != "1" {
		t.Errorf("got %d stations %+v, want only station 1", resp.Count, resp.Stations)
	}
}

func TestStationsBadBoolParam(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/stations?war=quizas", "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", w.Code)
	}
}

func TestCompetitorsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/competitors/40213", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var resp struct {
		Competitors []models.CompetitorRecord `json:"competitors"`
		Anchors     []json.RawMessage         `json:"anchors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Competitors) != 2 || len(resp.Anchors) != 1 {
		t.Errorf("competitors/anchors = %d/%d, want 2/1", len(resp.Competitors), len(resp.Anchors))
	}
}

func TestSaveCorrectionValidation(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{"missing pbl", `{"lat_corregida": -33.5, "lon_corregida": -70.7}`},
		{"missing coordinates", `{"pbl": "40213"}`},
		{"missing longitude", `{"pbl": "40213", "lat_corregida": -33.5}`},
		{"malformed json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/api/corrections", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
		})
	}
}

func TestSaveAndListCorrections(t *testing.T) {
	s := newTestServer(t)

	body := `{"pbl": "40213", "marca": "COPEC", "lat_corregida": -33.51, "lon_corregida": -70.75}`
	w := doRequest(t, s, http.MethodPost, "/api/corrections", body)
	if w.Code != http.StatusOK {
		t.Fatalf("POST status = %d, want 200: %s", w.Code, w.Body.String())
	}

	// Second save for the same pbl replaces, never appends.
	body = `{"pbl": "40213", "marca": "COPEC", "lat_corregida": -33.99, "lon_corregida": -70.99}`
	if w := doRequest(t, s, http.MethodPost, "/api/corrections", body); w.Code != http.StatusOK {
		t.Fatalf("second POST status = %d", w.Code)
	}

	w = doRequest(t, s, http.MethodGet, "/api/corrections", "")
	var resp struct {
		Corrections []models.CoordinateCorrection `json:"corrections"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("bad response: %v", err)
	}
	if len(resp.Corrections) != 1 {
		t.Fatalf("got %d corrections, want 1", len(resp.Corrections))
	}
	if resp.Corrections[0].Lat != -33.99 {
		t.Errorf("lat = %v, want newest value -33.99", resp.Corrections[0].Lat)
	}
}

func TestDeleteCorrection(t *testing.T) {
	s := newTestServer(t)
	body := `{"pbl": "40213", "lat_corregida": -33.51, "lon_corregida": -70.75}`
	doRequest(t, s, http.MethodPost, "/api/corrections", body)

	if w := doRequest(t, s, http.MethodDelete, "/api/corrections/40213", ""); w.Code != http.StatusOK {
		t.Errorf("delete status = %d, want 200", w.Code)
	}
	if w := doRequest(t, s, http.MethodDelete, "/api/corrections/40213", ""); w.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", w.Code)
	}
}

func TestAlertsEndpoint(t *testing.T) {
	s := newTestServer(t)
	w := doRequest(t, s, http.MethodGet, "/api/alerts", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), "COPEC MAIPU") {
		t.Errorf("alert groups missing station: %s", w.Body.String())
	}
}

func TestBearerAuth(t *testing.T) {
	store, err := storage.New("sqlite", ":memory:", 100)
	if err != nil {
		t.Fatalf("storage.New: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.BearerToken = "secreto"
	s := New(cfg, board.New(region), store)

	w := doRequest(t, s, http.MethodGet, "/api/stations", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", w.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/stations", nil)
	req.Header.Set("Authorization", "Bearer secreto")
	rec := httptest.NewRecorder()
	s.Engine().ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", rec.Code)
	}
}
