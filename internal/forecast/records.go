package forecast

import (
	"bytes"
	"math"
	"strconv"
	"time"
)

// Metric is a float64 that marshals NaN as JSON null. The whole pipeline
// uses NaN as its "unavailable" sentinel, and encoding/json refuses to
// marshal bare NaN values.
type Metric float64

// NaN returns the unavailable sentinel
func NaN() Metric { return Metric(math.NaN()) }

// IsNaN reports whether the metric is unavailable
func (m Metric) IsNaN() bool { return math.IsNaN(float64(m)) }

// MarshalJSON renders NaN as null
func (m Metric) MarshalJSON() ([]byte, error) {
	if m.IsNaN() {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatFloat(float64(m), 'f', -1, 64)), nil
}

// UnmarshalJSON accepts null as NaN
func (m *Metric) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*m = NaN()
		return nil
	}
	v, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*m = NaN()
		return nil
	}
	*m = Metric(v)
	return nil
}

// Record is one observation flattened together with its location context.
// Location fields are denormalized onto every time slot of the same
// location, exactly as the dashboard table expects.
type Record struct {
	// Location context
	Adm1     string `json:"adm1,omitempty"`
	Adm2     string `json:"adm2,omitempty"`
	Adm4     string `json:"adm4,omitempty"`
	Province string `json:"province,omitempty"`
	Regency  string `json:"regency,omitempty"`
	Lat      Metric `json:"lat"`
	Lon      Metric `json:"lon"`
	Timezone string `json:"timezone,omitempty"`

	// Observation
	TempC          Metric `json:"temp_c"`
	HumidityPct    Metric `json:"humidity_pct"`
	CloudCoverPct  Metric `json:"cloud_cover_pct"`
	PrecipMM       Metric `json:"precip_mm"`
	WindSpeedMS    Metric `json:"wind_speed_ms"`
	WindDirDeg     Metric `json:"wind_dir_deg"`
	WindDirCompass string `json:"wind_dir_compass,omitempty"`
	VisibilityM    Metric `json:"visibility_m"`
	VisibilityText string `json:"visibility_text,omitempty"`
	WeatherCode    Metric `json:"weather_code"`
	WeatherDesc    string `json:"weather_desc,omitempty"`
	WeatherDescEN  string `json:"weather_desc_en,omitempty"`

	// Parsed timestamps; zero when the source string was missing or invalid
	LocalTime time.Time `json:"local_time"`
	UTCTime   time.Time `json:"utc_time"`
}

// EnrichedRecord is a Record plus the derived meteorology
type EnrichedRecord struct {
	Record

	DewPointC         Metric   `json:"dew_point_c"`
	WindSpeedKt       Metric   `json:"wind_speed_kt"`
	WindU             Metric   `json:"wind_u"`
	WindV             Metric   `json:"wind_v"`
	WindDirMagDeg     Metric   `json:"wind_dir_mag_deg"`
	CeilingFt         Metric   `json:"ceiling_ft"`
	CeilingLabel      string   `json:"ceiling_label"`
	VisibilitySM      Metric   `json:"visibility_sm"`
	VisibilityDisplay string   `json:"visibility_display"`
	Category          string   `json:"flight_category"`
	Takeoff           string   `json:"takeoff"`
	Landing           string   `json:"landing"`
	Rationale         []string `json:"rationale"`
}

// Snapshot is one fully processed fetch for a region
type Snapshot struct {
	RegionCode string           `json:"region_code"`
	FetchedAt  time.Time        `json:"fetched_at"`
	Records    []EnrichedRecord `json:"records"`
}

// Current returns the first record of the snapshot, which the upstream feed
// orders as the nearest forecast slot. Nil when the snapshot is empty.
func (s *Snapshot) Current() *EnrichedRecord {
	if s == nil || len(s.Records) == 0 {
		return nil
	}
	return &s.Records[0]
}
