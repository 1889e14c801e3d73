// Package feed fetches the upstream station, competitor, market-war,
// and alert feeds and adapts their loose row shapes into the canonical
// schema the rest of the dashboard consumes.
package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/edsradar/edsradar/internal/models"
)

// Client provides access to the upstream dashboard feeds.
type Client struct {
	stationURL    string
	competitorURL string
	warURL        string
	alertsURL     string
	httpClient    *http.Client
}

// NewClient creates a feed client. Empty URLs disable the
// corresponding fetch with an error at call time.
func NewClient(stationURL, competitorURL, warURL, alertsURL string, timeout time.Duration) *Client {
	return &Client{
		stationURL:    stationURL,
		competitorURL: competitorURL,
		warURL:        warURL,
		alertsURL:     alertsURL,
		httpClient:    &http.Client{Timeout: timeout},
	}
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("feed URL not configured")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}
	return body, nil
}

// decodeRows accepts either a bare JSON array or a {"data": [...]}
// wrapper; the upstream switches between the two.
func decodeRows(body []byte, out interface{}) error {
	if err := json.Unmarshal(body, out); err == nil {
		return nil
	}
	var wrapper struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &wrapper); err != nil {
		return fmt.Errorf("failed to decode feed payload: %w", err)
	}
	if len(wrapper.Data) == 0 {
		return fmt.Errorf("feed payload has no data array")
	}
	if err := json.Unmarshal(wrapper.Data, out); err != nil {
		return fmt.Errorf("failed to decode feed data array: %w", err)
	}
	return nil
}

// FetchStations retrieves the raw station/price feed.
func (c *Client) FetchStations(ctx context.Context) ([]models.StationRecord, error) {
	body, err := c.get(ctx, c.stationURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch stations: %w", err)
	}
	var raw []rawStation
	if err := decodeRows(body, &raw); err != nil {
		return nil, fmt.Errorf("station feed: %w", err)
	}
	records := make([]models.StationRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, adaptStation(r))
	}
	return records, nil
}

// FetchCompetitors retrieves the tracked-competitor feed.
func (c *Client) FetchCompetitors(ctx context.Context) ([]models.CompetitorRecord, error) {
	body, err := c.get(ctx, c.competitorURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch competitors: %w", err)
	}
	var raw []rawCompetitor
	if err := decodeRows(body, &raw); err != nil {
		return nil, fmt.Errorf("competitor feed: %w", err)
	}
	records := make([]models.CompetitorRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, adaptCompetitor(r))
	}
	return records, nil
}

// FetchWarStations retrieves the market-war snapshot list.
func (c *Client) FetchWarStations(ctx context.Context) ([]models.MarketWarStation, error) {
	body, err := c.get(ctx, c.warURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch war stations: %w", err)
	}
	var raw []rawWarStation
	if err := decodeRows(body, &raw); err != nil {
		return nil, fmt.Errorf("war feed: %w", err)
	}
	records := make([]models.MarketWarStation, 0, len(raw))
	for _, r := range raw {
		records = append(records, models.MarketWarStation{
			CNEID:       r.IDCNE.String(),
			StationName: r.Nombre.String(),
			Region:      r.Region.String(),
			Type:        r.Tipo.String(),
			Active:      yes(r.Activo),
			WarPrice:    yes(r.GuerraPrecio),
			PBL:         r.PBL.String(),
		})
	}
	return records, nil
}

// FetchAlerts retrieves the active price-change alert feed.
func (c *Client) FetchAlerts(ctx context.Context) ([]models.PriceAlert, error) {
	body, err := c.get(ctx, c.alertsURL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alerts: %w", err)
	}
	var raw []rawAlert
	if err := decodeRows(body, &raw); err != nil {
		return nil, fmt.Errorf("alert feed: %w", err)
	}
	alerts := make([]models.PriceAlert, 0, len(raw))
	for _, r := range raw {
		alerts = append(alerts, models.PriceAlert{
			StationName:   r.NombreEDS.String(),
			Brand:         r.Marca.String(),
			CNECode:       r.CodigoCNE.String(),
			FuelType:      r.TipoCombustible.String(),
			CurrentPrice:  r.PrecioActual.Value,
			PreviousPrice: r.PrecioAnterior.Value,
			CurrentDate:   r.FechaActual.String(),
			PreviousDate:  r.FechaAnterior.String(),
			AttentionType: r.TipoAtencion.String(),
			WarPrice:      yes(r.GuerraPrecio),
		})
	}
	return alerts, nil
}

func adaptStation(r rawStation) models.StationRecord {
	return models.StationRecord{
		ID:               r.ID.String(),
		PBL:              r.PBL.String(),
		EDS:              firstNonEmpty(r.EDS, r.NombreEDS),
		Brand:            r.Marca.String(),
		Region:           r.Region.String(),
		Commune:          r.Comuna.String(),
		Address:          r.Direccion.String(),
		Latitude:         r.Latitud.String(),
		Longitude:        r.Longitud.String(),
		G93:              firstSet(r.G93, r.PrecioG93),
		G95:              firstSet(r.G95, r.PrecioG95),
		G97:              firstSet(r.G97, r.PrecioG97),
		Diesel:           firstSet(r.Diesel, r.PrecioDiesel),
		Kero:             firstSet(r.Kerosene, r.PrecioKero),
		WarPrice:         yes(r.GuerraPrecio),
		Level:            r.Nivel.String(),
		Updated:          r.Actualizacion.String(),
		SelfServicePumps: r.Autoservicio.String(),
		ZoneManager:      r.JefeZona.String(),
		OperationType:    r.TipoAtencion.String(),
	}
}

func adaptCompetitor(r rawCompetitor) models.CompetitorRecord {
	st := adaptStation(r.rawStation)
	return models.CompetitorRecord{
		PBL:     st.PBL,
		ID:      st.ID,
		EDS:     st.EDS,
		Brand:   st.Brand,
		Region:  st.Region,
		Commune: st.Commune,
		Prices: models.FuelPrices{
			G93:    deref(st.G93),
			G95:    deref(st.G95),
			G97:    deref(st.G97),
			Diesel: deref(st.Diesel),
			Kero:   deref(st.Kero),
		},
		Principal: yes(r.MarcadorPrincipal),
	}
}

func deref(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
