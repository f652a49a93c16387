package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danwib/tacwx/internal/forecast"
)

func sampleRecords() []forecast.EnrichedRecord {
	local := time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC)
	return []forecast.EnrichedRecord{
		{
			Record: forecast.Record{
				Adm4: "31.71.01.1001", Province: "DKI Jakarta", Regency: "Jakarta Pusat",
				Lat: forecast.Metric(-6.1754), Lon: forecast.Metric(106.8272),
				TempC: forecast.Metric(30), HumidityPct: forecast.Metric(80),
				CloudCoverPct: forecast.Metric(90), PrecipMM: forecast.Metric(25),
				WindSpeedMS: forecast.Metric(10), WindDirDeg: forecast.Metric(90),
				VisibilityM: forecast.Metric(2000), WeatherCode: forecast.NaN(),
				WeatherDescEN: "Heavy Rain", LocalTime: local,
			},
			DewPointC:    forecast.Metric(26.2),
			WindSpeedKt:  forecast.Metric(19.44),
			CeilingFt:    forecast.Metric(800),
			CeilingLabel: "Overcast",
			VisibilitySM: forecast.Metric(1.24),
			Category:     "IFR",
			Takeoff:      "Caution",
			Landing:      "Caution",
		},
		{
			Record: forecast.Record{
				Adm4: "31.71.01.1001",
				Lat:  forecast.NaN(), Lon: forecast.NaN(),
				TempC: forecast.NaN(), HumidityPct: forecast.NaN(),
				CloudCoverPct: forecast.NaN(), PrecipMM: forecast.NaN(),
				WindSpeedMS: forecast.NaN(), WindDirDeg: forecast.NaN(),
				VisibilityM: forecast.NaN(), WeatherCode: forecast.NaN(),
			},
			DewPointC: forecast.NaN(), WindSpeedKt: forecast.NaN(),
			WindU: forecast.NaN(), WindV: forecast.NaN(),
			WindDirMagDeg: forecast.NaN(), CeilingFt: forecast.NaN(),
			VisibilitySM: forecast.NaN(),
			Category:     "Unknown", Takeoff: "Recommended", Landing: "Recommended",
		},
	}
}

func TestCSVExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, sampleRecords()))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)

	assert.Equal(t, CSVHeader, rows[0])
	require.Len(t, rows[1], len(CSVHeader))

	byName := func(row []string, col string) string {
		for i, h := range CSVHeader {
			if h == col {
				return row[i]
			}
		}
		t.Fatalf("no column %q", col)
		return ""
	}

	assert.Equal(t, "30", byName(rows[1], "temp_c"))
	assert.Equal(t, "2026-08-30T07:00:00Z", byName(rows[1], "local_time"))
	assert.Equal(t, "IFR", byName(rows[1], "flight_category"))

	// Unavailable metrics are empty cells, not "NaN"
	assert.Equal(t, "", byName(rows[2], "temp_c"))
	assert.Equal(t, "", byName(rows[2], "local_time"))
	assert.Equal(t, "Unknown", byName(rows[2], "flight_category"))
}

func TestJSONExport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, sampleRecords()))

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 2)

	assert.Equal(t, 30.0, decoded[0]["temp_c"])
	assert.Equal(t, "IFR", decoded[0]["flight_category"])
	assert.Nil(t, decoded[1]["temp_c"], "NaN must serialize as null")
}

func TestCSVExportEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSV(&buf, nil))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}
