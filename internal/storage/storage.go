// Package storage persists coordinate corrections and the alert log.
package storage

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/edsradar/edsradar/internal/models"
)

// ErrNotFound reports a lookup for a key the store does not hold.
var ErrNotFound = fmt.Errorf("not found")

// Storage wraps the corrections database for all persistence operations.
type Storage struct {
	db           *sql.DB
	driver       string
	maxAlertRows int
}

// New opens the store with the configured driver and creates the
// schema if needed.
func New(driver, dsn string, maxAlertRows int) (*Storage, error) {
	db, err := openDB(driver, dsn)
	if err != nil {
		return nil, err
	}
	s := &Storage{db: db, driver: driver, maxAlertRows: maxAlertRows}
	if err := s.createTables(); err != nil {
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Storage) Close() error {
	return s.db.Close()
}

func (s *Storage) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS corrections (
			pbl          TEXT PRIMARY KEY,
			id           TEXT,
			eds          TEXT,
			brand        TEXT,
			commune      TEXT,
			lat          DOUBLE PRECISION NOT NULL,
			lng          DOUBLE PRECISION NOT NULL,
			corrected_at BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS alert_log (
			id             TEXT PRIMARY KEY,
			station_name   TEXT NOT NULL,
			brand          TEXT,
			cne_code       TEXT,
			fuel_type      TEXT,
			price_current  DOUBLE PRECISION,
			price_previous DOUBLE PRECISION,
			date_current   TEXT,
			date_previous  TEXT,
			attention_type TEXT,
			war            INTEGER DEFAULT 0,
			logged_at      BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_log_logged_at ON alert_log(logged_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertCorrection saves a correction keyed by PBL. A second save for
// the same PBL replaces the previous values; it never appends.
func (s *Storage) UpsertCorrection(c *models.CoordinateCorrection) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid correction: %w", err)
	}
	if c.CorrectedAt.IsZero() {
		c.CorrectedAt = time.Now()
	}
	_, err := s.db.Exec(rebind(s.driver, `
		INSERT INTO corrections (pbl, id, eds, brand, commune, lat, lng, corrected_at)
		VALUES (?,?,?,?,?,?,?,?)
		ON CONFLICT (pbl) DO UPDATE SET
			id=excluded.id, eds=excluded.eds, brand=excluded.brand,
			commune=excluded.commune, lat=excluded.lat, lng=excluded.lng,
			corrected_at=excluded.corrected_at`),
		c.PBL, c.ID, c.EDS, c.Brand, c.Commune, c.Lat, c.Lng, c.CorrectedAt.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert correction: %w", err)
	}
	return nil
}

const correctionCols = `pbl, id, eds, brand, commune, lat, lng, corrected_at`

func scanCorrection(scan func(...any) error) (*models.CoordinateCorrection, error) {
	var c models.CoordinateCorrection
	var correctedAtNano int64
	err := scan(&c.PBL, &c.ID, &c.EDS, &c.Brand, &c.Commune, &c.Lat, &c.Lng, &correctedAtNano)
	if err != nil {
		return nil, err
	}
	c.CorrectedAt = time.Unix(0, correctedAtNano)
	return &c, nil
}

// GetCorrection returns the correction for one PBL, or ErrNotFound.
func (s *Storage) GetCorrection(pbl string) (*models.CoordinateCorrection, error) {
	row := s.db.QueryRow(rebind(s.driver,
		`SELECT `+correctionCols+` FROM corrections WHERE pbl = ?`), pbl)
	c, err := scanCorrection(row.Scan)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("correction for pbl %s: %w", pbl, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get correction: %w", err)
	}
	return c, nil
}

// ListCorrections returns all saved corrections ordered by PBL.
func (s *Storage) ListCorrections() ([]models.CoordinateCorrection, error) {
	rows, err := s.db.Query(`SELECT ` + correctionCols + ` FROM corrections ORDER BY pbl`)
	if err != nil {
		return nil, fmt.Errorf("failed to query corrections: %w", err)
	}
	defer rows.Close()

	corrections := []models.CoordinateCorrection{}
	for rows.Next() {
		c, err := scanCorrection(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan correction: %w", err)
		}
		corrections = append(corrections, *c)
	}
	return corrections, rows.Err()
}

// DeleteCorrection removes the correction for one PBL.
func (s *Storage) DeleteCorrection(pbl string) error {
	res, err := s.db.Exec(rebind(s.driver, `DELETE FROM corrections WHERE pbl = ?`), pbl)
	if err != nil {
		return fmt.Errorf("failed to delete correction: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("correction for pbl %s: %w", pbl, ErrNotFound)
	}
	return nil
}

// LogAlerts appends the current alert feed to the log and trims old
// rows beyond the configured cap.
func (s *Storage) LogAlerts(alerts []models.PriceAlert) error {
	if len(alerts) == 0 {
		return nil
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UnixNano()
	insert := rebind(s.driver, `
		INSERT INTO alert_log
			(id, station_name, brand, cne_code, fuel_type, price_current,
			 price_previous, date_current, date_previous, attention_type, war, logged_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`)
	for _, a := range alerts {
		_, err := tx.Exec(insert,
			uuid.New().String(), a.StationName, a.Brand, a.CNECode, a.FuelType,
			a.CurrentPrice, a.PreviousPrice, a.CurrentDate, a.PreviousDate,
			a.AttentionType, boolToInt(a.WarPrice), now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert alert: %w", err)
		}
	}

	if _, err := tx.Exec(rebind(s.driver, `
		DELETE FROM alert_log WHERE id NOT IN (
			SELECT id FROM alert_log ORDER BY logged_at DESC LIMIT ?
		)`), s.maxAlertRows); err != nil {
		return fmt.Errorf("failed to trim alert log: %w", err)
	}

	return tx.Commit()
}

// RecentAlerts returns the newest logged alerts, most recent first.
func (s *Storage) RecentAlerts(limit int) ([]models.PriceAlert, error) {
	rows, err := s.db.Query(rebind(s.driver, `
		SELECT station_name, brand, cne_code, fuel_type, price_current,
		       price_previous, date_current, date_previous, attention_type, war
		FROM alert_log ORDER BY logged_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alert log: %w", err)
	}
	defer rows.Close()

	var alerts []models.PriceAlert
	for rows.Next() {
		var a models.PriceAlert
		var war int
		err := rows.Scan(&a.StationName, &a.Brand, &a.CNECode, &a.FuelType,
			&a.CurrentPrice, &a.PreviousPrice, &a.CurrentDate, &a.PreviousDate,
			&a.AttentionType, &war)
		if err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		a.WarPrice = war != 0
		alerts = append(alerts, a)
	}
	return alerts, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
