package archive

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/danwib/tacwx/internal/forecast"
	"github.com/danwib/tacwx/pkg/logger"
)

func testStorage(t *testing.T) *Storage {
	t.Helper()
	storage, err := NewStorage(filepath.Join(t.TempDir(), "test.db"), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { storage.Close() })
	return storage
}

func TestSaveAndGetRecent(t *testing.T) {
	storage := testStorage(t)

	snapshot := &forecast.Snapshot{
		RegionCode: "31.71.01.1001",
		FetchedAt:  time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC),
		Records: []forecast.EnrichedRecord{
			{
				Record: forecast.Record{
					TempC: forecast.Metric(30), HumidityPct: forecast.Metric(80),
					PrecipMM:   forecast.Metric(25),
					WindDirDeg: forecast.NaN(),
					LocalTime:  time.Date(2026, 8, 30, 7, 0, 0, 0, time.UTC),
				},
				DewPointC:    forecast.Metric(26.2),
				WindSpeedKt:  forecast.Metric(19.4),
				CeilingFt:    forecast.Metric(800),
				VisibilitySM: forecast.Metric(1.24),
				Category:     "IFR", Takeoff: "Caution", Landing: "Caution",
			},
		},
	}

	require.NoError(t, storage.SaveSnapshot(snapshot))

	rows, err := storage.GetRecent("31.71.01.1001", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)

	row := rows[0]
	assert.Equal(t, "31.71.01.1001", row.RegionCode)
	assert.InDelta(t, 30.0, float64(row.TempC), 1e-9)
	assert.InDelta(t, 26.2, float64(row.DewPointC), 1e-9)
	assert.Equal(t, "IFR", row.Category)
	assert.Equal(t, 7, row.LocalTime.Hour())
}

func TestNaNMetricsRoundTripAsNull(t *testing.T) {
	storage := testStorage(t)

	snapshot := &forecast.Snapshot{
		RegionCode: "x",
		FetchedAt:  time.Now().UTC(),
		Records: []forecast.EnrichedRecord{{
			Record: forecast.Record{
				TempC: forecast.NaN(), HumidityPct: forecast.NaN(), PrecipMM: forecast.NaN(),
				WindDirDeg: forecast.NaN(),
			},
			DewPointC: forecast.NaN(), WindSpeedKt: forecast.NaN(),
			CeilingFt: forecast.NaN(), VisibilitySM: forecast.NaN(),
			Category: "Unknown", Takeoff: "Recommended", Landing: "Recommended",
		}},
	}
	require.NoError(t, storage.SaveSnapshot(snapshot))

	rows, err := storage.GetRecent("x", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.True(t, rows[0].TempC.IsNaN())
	assert.True(t, rows[0].CeilingFt.IsNaN())
}

func TestGetRecentLimitAndOrder(t *testing.T) {
	storage := testStorage(t)

	base := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		snap := &forecast.Snapshot{
			RegionCode: "x",
			FetchedAt:  base.Add(time.Duration(i) * time.Hour),
			Records: []forecast.EnrichedRecord{{
				Record:   forecast.Record{TempC: forecast.Metric(float64(20 + i))},
				Category: "VFR", Takeoff: "Recommended", Landing: "Recommended",
			}},
		}
		require.NoError(t, storage.SaveSnapshot(snap))
	}

	rows, err := storage.GetRecent("x", 3)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	// Newest first
	assert.InDelta(t, 24.0, float64(rows[0].TempC), 1e-9)
	assert.True(t, rows[0].FetchedAt.After(rows[2].FetchedAt))

	// Other regions are not returned
	rows, err = storage.GetRecent("y", 10)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
