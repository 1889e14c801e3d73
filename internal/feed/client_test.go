package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, srv.URL, srv.URL, srv.URL, 5*time.Second)
}

func TestFetchStationsBareArray(t *testing.T) {
	payload := `[
		{"id": 118, "pbl": " 40213 ", "Nombre_EDS": "COPEC MAIPU",
		 "Marca": "COPEC", "Region": "Metropolitana de Santiago",
		 "Comuna": "Maipú", "latitud": "-33.5101", "longitud": "-70.7570",
		 "G93": "1290", "G95": 1320.5, "Diesel": "-",
		 "Guerra_Precio": "Si", "Actualizacion": "15/08/2026 09:30",
		 "nivel": "Nivel 1", "islas_autoservicio": "3"}
	]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	records, err := c.FetchStations(context.Background())
	if err != nil {
		t.Fatalf("FetchStations: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("got %d records, want 1", len(records))
	}

	r := records[0]
	if r.ID != "118" {
		t.Errorf("ID = %q, want coerced number 118", r.ID)
	}
	if r.PBL != "40213" {
		t.Errorf("PBL = %q, want trimmed 40213", r.PBL)
	}
	if r.EDS != "COPEC MAIPU" {
		t.Errorf("EDS = %q, want Nombre_EDS fallback", r.EDS)
	}
	if r.G93 == nil || *r.G93 != 1290 {
		t.Errorf("G93 = %v, want 1290", r.G93)
	}
	if r.G95 == nil || *r.G95 != 1320.5 {
		t.Errorf("G95 = %v, want 1320.5", r.G95)
	}
	if r.Diesel != nil {
		t.Errorf("Diesel = %v, want nil for %q", r.Diesel, "-")
	}
	if !r.WarPrice {
		t.Error("WarPrice = false, want true for Guerra_Precio=Si")
	}
}

func TestFetchStationsDataWrapper(t *testing.T) {
	payload := `{"data": [
		{"id": "7", "Marca": "SHELL", "precio_g93": "1310"},
		{"id": "8", "Marca": "PETROBRAS", "G93": 1280, "precio_g93": "999"}
	]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	records, err := c.FetchStations(context.Background())
	if err != nil {
		t.Fatalf("FetchStations: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].G93 == nil || *records[0].G93 != 1310 {
		t.Errorf("legacy precio_g93 alias not applied: %v", records[0].G93)
	}
	// Canonical field wins over the legacy alias when both are present.
	if records[1].G93 == nil || *records[1].G93 != 1280 {
		t.Errorf("G93 = %v, want canonical 1280", records[1].G93)
	}
}

func TestFetchCompetitorsPrincipalMarker(t *testing.T) {
	payload := `[
		{"id": "1", "pbl": 40213, "Marca": "COPEC", "Marcador_Principal": "Si"},
		{"id": "2", "pbl": 40213, "Marca": "SHELL", "Marcador_Principal": "No"}
	]`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	records, err := c.FetchCompetitors(context.Background())
	if err != nil {
		t.Fatalf("FetchCompetitors: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if !records[0].Principal || records[1].Principal {
		t.Errorf("principal flags = %v/%v, want true/false",
			records[0].Principal, records[1].Principal)
	}
	if records[0].PBL != "40213" {
		t.Errorf("numeric pbl not coerced: %q", records[0].PBL)
	}
}

func TestFetchStationsUpstreamError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	if _, err := c.FetchStations(context.Background()); err == nil {
		t.Error("expected error on 502 response")
	}
}

func TestFetchAlerts(t *testing.T) {
	payload := `{"data": [
		{"Nombre_EDS": "SHELL PAJARITOS", "Marca": "SHELL",
		 "Tipo_Combustible": "G93", "Precio_Actual": 1250,
		 "Precio_Anterior": "1290", "Fecha_Actual": "15/08/2026",
		 "Fecha_Anterior": "14/08/2026", "Guerra_Precio": "Si"}
	]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(payload))
	})

	alerts, err := c.FetchAlerts(context.Background())
	if err != nil {
		t.Fatalf("FetchAlerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts, want 1", len(alerts))
	}
	a := alerts[0]
	if a.PreviousPrice != 1290 {
		t.Errorf("PreviousPrice = %v, want 1290 from string field", a.PreviousPrice)
	}
	if !a.WarPrice {
		t.Error("WarPrice = false, want true")
	}
}
