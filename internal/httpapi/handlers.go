package httpapi

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edsradar/edsradar/internal/engine"
	"github.com/edsradar/edsradar/internal/models"
	"github.com/edsradar/edsradar/internal/storage"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"last_refresh": s.board.LastRefresh(),
	})
}

func (s *Server) handleStations(c *gin.Context) {
	filters := engine.Filters{
		Region:       c.Query("region"),
		Commune:      c.Query("commune"),
		Brand:        c.Query("brand"),
		ZoneManager:  c.Query("zone_manager"),
		StationQuery: c.Query("station"),
	}
	var err error
	if filters.WarOnly, err = queryBool(c, "war"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid war parameter"})
		return
	}
	if filters.SelfServiceOnly, err = queryBool(c, "self_service"); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid self_service parameter"})
		return
	}

	set := s.board.Visible(filters)
	c.JSON(http.StatusOK, gin.H{
		"count":    len(set.Visible),
		"stations": set.Visible,
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	stationID := c.Param("id")
	level := c.Query("level")
	if level != "" && level != models.LevelOne && level != models.LevelTwo {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid level"})
		return
	}
	rows := s.board.History(stationID, level)
	c.JSON(http.StatusOK, gin.H{
		"station_id": stationID,
		"count":      len(rows),
		"rows":       rows,
	})
}

func (s *Server) handleCompetitors(c *gin.Context) {
	pbl := c.Param("pbl")
	competitors, anchors := s.board.CompetitorsFor(pbl)
	c.JSON(http.StatusOK, gin.H{
		"pbl":         pbl,
		"competitors": competitors,
		"anchors":     anchors,
	})
}

func (s *Server) handleStats(c *gin.Context) {
	c.JSON(http.StatusOK, s.board.Statistics())
}

func (s *Server) handleVolatility(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"brands": s.board.Volatility()})
}

func (s *Server) handleAlerts(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"groups": s.board.AlertGroups()})
}

func (s *Server) handleAlertLog(c *gin.Context) {
	limit := 100
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
			return
		}
		limit = parsed
	}
	alerts, err := s.store.RecentAlerts(limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"alerts": alerts})
}

func (s *Server) handleWarStations(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"stations": s.board.WarStations()})
}

func (s *Server) handleListCorrections(c *gin.Context) {
	corrections, err := s.store.ListCorrections()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"corrections": corrections})
}

// correctionRequest mirrors the external write contract. Coordinates
// are pointers so a missing field is distinguishable from zero.
type correctionRequest struct {
	PBL     string   `json:"pbl"`
	ID      string   `json:"id"`
	EDS     string   `json:"eds"`
	Brand   string   `json:"marca"`
	Commune string   `json:"comuna"`
	Lat     *float64 `json:"lat_corregida"`
	Lng     *float64 `json:"lon_corregida"`
}

func (s *Server) handleSaveCorrection(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.PBL == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pbl is required"})
		return
	}
	if req.Lat == nil || req.Lng == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat_corregida and lon_corregida are required"})
		return
	}

	correction := models.CoordinateCorrection{
		PBL:     req.PBL,
		ID:      req.ID,
		EDS:     req.EDS,
		Brand:   req.Brand,
		Commune: req.Commune,
		Lat:     *req.Lat,
		Lng:     *req.Lng,
	}
	if err := s.store.UpsertCorrection(&correction); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, correction)
}

func (s *Server) handleDeleteCorrection(c *gin.Context) {
	pbl := c.Param("pbl")
	if err := s.store.DeleteCorrection(pbl); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "correction not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": pbl})
}

func queryBool(c *gin.Context, name string) (bool, error) {
	v := c.Query(name)
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
