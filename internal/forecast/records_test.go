package forecast

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricMarshalJSON(t *testing.T) {
	data, err := json.Marshal(Metric(12.5))
	require.NoError(t, err)
	assert.Equal(t, "12.5", string(data))

	data, err = json.Marshal(NaN())
	require.NoError(t, err)
	assert.Equal(t, "null", string(data))
}

func TestMetricUnmarshalJSON(t *testing.T) {
	var m Metric
	require.NoError(t, json.Unmarshal([]byte("3.14"), &m))
	assert.InDelta(t, 3.14, float64(m), 1e-9)

	require.NoError(t, json.Unmarshal([]byte("null"), &m))
	assert.True(t, m.IsNaN())
}

func TestRecordMarshalsNaNAsNull(t *testing.T) {
	rec := Record{Adm4: "31.71.01.1001", TempC: Metric(30), HumidityPct: NaN(),
		Lat: NaN(), Lon: NaN(), CloudCoverPct: NaN(), PrecipMM: NaN(),
		WindSpeedMS: NaN(), WindDirDeg: NaN(), VisibilityM: NaN(), WeatherCode: NaN()}

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 30.0, decoded["temp_c"])
	assert.Nil(t, decoded["humidity_pct"])
}

func TestSnapshotCurrent(t *testing.T) {
	var nilSnap *Snapshot
	assert.Nil(t, nilSnap.Current())
	assert.Nil(t, (&Snapshot{}).Current())

	snap := &Snapshot{Records: []EnrichedRecord{
		{Record: Record{Adm4: "first"}},
		{Record: Record{Adm4: "second"}},
	}}
	require.NotNil(t, snap.Current())
	assert.Equal(t, "first", snap.Current().Adm4)
}
