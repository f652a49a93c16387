// Package export serializes the enriched forecast table for download.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/danwib/tacwx/internal/forecast"
)

// CSVHeader is the fixed column order of the CSV export
var CSVHeader = []string{
	"adm4", "province", "regency", "lat", "lon",
	"local_time", "utc_time",
	"temp_c", "humidity_pct", "dew_point_c",
	"cloud_cover_pct", "ceiling_ft", "ceiling_label",
	"precip_mm",
	"wind_speed_ms", "wind_speed_kt", "wind_dir_deg", "wind_u", "wind_v",
	"visibility_m", "visibility_sm",
	"flight_category", "takeoff", "landing",
	"weather_desc_en",
}

// CSV writes the records as a CSV table. Unavailable metrics become empty
// cells, datetimes are RFC3339.
func CSV(w io.Writer, records []forecast.EnrichedRecord) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i, rec := range records {
		row := []string{
			rec.Adm4, rec.Province, rec.Regency,
			cell(rec.Lat), cell(rec.Lon),
			timeCell(rec.LocalTime), timeCell(rec.UTCTime),
			cell(rec.TempC), cell(rec.HumidityPct), cell(rec.DewPointC),
			cell(rec.CloudCoverPct), cell(rec.CeilingFt), rec.CeilingLabel,
			cell(rec.PrecipMM),
			cell(rec.WindSpeedMS), cell(rec.WindSpeedKt), cell(rec.WindDirDeg), cell(rec.WindU), cell(rec.WindV),
			cell(rec.VisibilityM), cell(rec.VisibilitySM),
			rec.Category, rec.Takeoff, rec.Landing,
			rec.WeatherDescEN,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row %d: %w", i, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// JSON writes the records as a JSON array of per-row objects
func JSON(w io.Writer, records []forecast.EnrichedRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}
	return nil
}

func cell(m forecast.Metric) string {
	if m.IsNaN() {
		return ""
	}
	return strconv.FormatFloat(float64(m), 'f', -1, 64)
}

func timeCell(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
