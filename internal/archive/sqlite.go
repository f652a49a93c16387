// Package archive persists enriched forecast records so the dashboard can
// chart how successive BMKG runs evolved. The live pipeline never reads
// from here; it is an additive history surface.
package archive

import (
	"database/sql"
	"fmt"
	"math"
	"time"

	_ "modernc.org/sqlite"

	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/pkg/logger"
)

// Storage handles persistence of enriched forecast records
type Storage struct {
	db     *sql.DB
	logger *logger.Logger
}

// HistoryRow is one archived record as returned by the history endpoint
type HistoryRow struct {
	ID          int64           `json:"id"`
	RegionCode  string          `json:"region_code"`
	FetchedAt   time.Time       `json:"fetched_at"`
	LocalTime   time.Time       `json:"local_time"`
	TempC       forecast.Metric `json:"temp_c"`
	HumidityPct forecast.Metric `json:"humidity_pct"`
	DewPointC   forecast.Metric `json:"dew_point_c"`
	PrecipMM    forecast.Metric `json:"precip_mm"`
	WindSpeedKt forecast.Metric `json:"wind_speed_kt"`
	WindDirDeg  forecast.Metric `json:"wind_dir_deg"`
	CeilingFt   forecast.Metric `json:"ceiling_ft"`
	VisibilitySM forecast.Metric `json:"visibility_sm"`
	Category    string          `json:"flight_category"`
	Takeoff     string          `json:"takeoff"`
	Landing     string          `json:"landing"`
}

// NewStorage creates a new SQLite forecast archive
func NewStorage(path string, log *logger.Logger) (*Storage, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	storage := &Storage{
		db:     db,
		logger: log.Named("sqlite-archive"),
	}

	if err := storage.initDB(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize archive: %w", err)
	}

	return storage, nil
}

// initDB initializes the database tables
func (s *Storage) initDB() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS forecast_records (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			region_code TEXT NOT NULL,
			fetched_at TIMESTAMP NOT NULL,
			local_time TIMESTAMP,
			temp_c REAL,
			humidity_pct REAL,
			dew_point_c REAL,
			precip_mm REAL,
			wind_speed_kt REAL,
			wind_dir_deg REAL,
			ceiling_ft REAL,
			visibility_sm REAL,
			flight_category TEXT,
			takeoff TEXT,
			landing TEXT
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create forecast_records table: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_region_code ON forecast_records(region_code)`)
	if err != nil {
		return fmt.Errorf("failed to create region_code index: %w", err)
	}

	_, err = s.db.Exec(`CREATE INDEX IF NOT EXISTS idx_fetched_at ON forecast_records(fetched_at)`)
	if err != nil {
		return fmt.Errorf("failed to create fetched_at index: %w", err)
	}

	return nil
}

// SaveSnapshot stores every record of a snapshot. Implements
// forecast.Archiver.
func (s *Storage) SaveSnapshot(snapshot *forecast.Snapshot) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO forecast_records
		(region_code, fetched_at, local_time, temp_c, humidity_pct, dew_point_c,
		 precip_mm, wind_speed_kt, wind_dir_deg, ceiling_ft, visibility_sm,
		 flight_category, takeoff, landing)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range snapshot.Records {
		_, err := stmt.Exec(
			snapshot.RegionCode,
			snapshot.FetchedAt.Format(time.RFC3339),
			timeValue(rec.LocalTime),
			nullMetric(rec.TempC),
			nullMetric(rec.HumidityPct),
			nullMetric(rec.DewPointC),
			nullMetric(rec.PrecipMM),
			nullMetric(rec.WindSpeedKt),
			nullMetric(rec.WindDirDeg),
			nullMetric(rec.CeilingFt),
			nullMetric(rec.VisibilitySM),
			rec.Category,
			rec.Takeoff,
			rec.Landing,
		)
		if err != nil {
			return fmt.Errorf("failed to insert forecast record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	s.logger.Debug("Snapshot archived",
		logger.String("region", snapshot.RegionCode),
		logger.Int("records", len(snapshot.Records)))

	return nil
}

// GetRecent returns the most recently archived rows for a region
func (s *Storage) GetRecent(regionCode string, limit int) ([]HistoryRow, error) {
	rows, err := s.db.Query(`
		SELECT id, region_code, fetched_at, local_time, temp_c, humidity_pct,
		       dew_point_c, precip_mm, wind_speed_kt, wind_dir_deg, ceiling_ft,
		       visibility_sm, flight_category, takeoff, landing
		FROM forecast_records
		WHERE region_code = ?
		ORDER BY fetched_at DESC, id DESC
		LIMIT ?`, regionCode, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query archive: %w", err)
	}
	defer rows.Close()

	var result []HistoryRow
	for rows.Next() {
		var (
			row                       HistoryRow
			fetchedAt                 string
			localTime                 sql.NullString
			temp, hum, dew, precip    sql.NullFloat64
			windKt, windDir, ceiling  sql.NullFloat64
			visSM                     sql.NullFloat64
		)
		if err := rows.Scan(&row.ID, &row.RegionCode, &fetchedAt, &localTime,
			&temp, &hum, &dew, &precip, &windKt, &windDir, &ceiling, &visSM,
			&row.Category, &row.Takeoff, &row.Landing); err != nil {
			return nil, fmt.Errorf("failed to scan archive row: %w", err)
		}

		if t, err := time.Parse(time.RFC3339, fetchedAt); err == nil {
			row.FetchedAt = t
		}
		if localTime.Valid {
			if t, err := time.Parse(time.RFC3339, localTime.String); err == nil {
				row.LocalTime = t
			}
		}
		row.TempC = metricValue(temp)
		row.HumidityPct = metricValue(hum)
		row.DewPointC = metricValue(dew)
		row.PrecipMM = metricValue(precip)
		row.WindSpeedKt = metricValue(windKt)
		row.WindDirDeg = metricValue(windDir)
		row.CeilingFt = metricValue(ceiling)
		row.VisibilitySM = metricValue(visSM)

		result = append(result, row)
	}

	return result, rows.Err()
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

func nullMetric(m forecast.Metric) sql.NullFloat64 {
	if m.IsNaN() {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: float64(m), Valid: true}
}

func metricValue(v sql.NullFloat64) forecast.Metric {
	if !v.Valid {
		return forecast.Metric(math.NaN())
	}
	return forecast.Metric(v.Float64)
}

func timeValue(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t.Format(time.RFC3339)
}
