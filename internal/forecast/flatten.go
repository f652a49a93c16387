package forecast

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/danwib/tacwx/internal/bmkg"
)

// Timestamp layouts observed across BMKG API versions
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Flatten walks the nested forecast payload and produces one Record per
// valid observation, merging each location's metadata into every time slot.
// Malformed entries are skipped, never replaced with placeholders, and no
// input shape causes an error: the only failure mode is an empty result.
func Flatten(resp *bmkg.ForecastResponse) ([]Record, error) {
	if resp == nil || len(resp.Data) == 0 {
		return nil, bmkg.NewError(bmkg.KindEmptyResult, "no location blocks in response", nil)
	}

	var records []Record
	for _, block := range resp.Data {
		for _, group := range block.Cuaca {
			for _, obs := range bmkg.Observations(group) {
				records = append(records, flattenOne(block.Lokasi, obs))
			}
		}
	}

	if len(records) == 0 {
		return nil, bmkg.NewError(bmkg.KindEmptyResult, "forecast contained no usable observations", nil)
	}

	return records, nil
}

func flattenOne(lokasi, obs map[string]any) Record {
	return Record{
		Adm1:     strField(lokasi, "adm1"),
		Adm2:     strField(lokasi, "adm2"),
		Adm4:     strField(lokasi, "adm4"),
		Province: strField(lokasi, "provinsi"),
		Regency:  strField(lokasi, "kotkab"),
		Lat:      numField(lokasi, "lat"),
		Lon:      numField(lokasi, "lon"),
		Timezone: strField(lokasi, "timezone"),

		TempC:          numField(obs, "t"),
		HumidityPct:    numField(obs, "hu"),
		CloudCoverPct:  numField(obs, "tcc"),
		PrecipMM:       numField(obs, "tp"),
		WindSpeedMS:    numField(obs, "ws"),
		WindDirDeg:     numField(obs, "wd_deg"),
		WindDirCompass: strField(obs, "wd"),
		VisibilityM:    numField(obs, "vs"),
		VisibilityText: strField(obs, "vs_text"),
		WeatherCode:    numField(obs, "weather"),
		WeatherDesc:    strField(obs, "weather_desc"),
		WeatherDescEN:  strField(obs, "weather_desc_en"),

		LocalTime: timeField(obs, "local_datetime"),
		UTCTime:   timeField(obs, "utc_datetime"),
	}
}

// numField reads a numeric field that may arrive as a JSON number or a
// string. Anything unparsable becomes NaN.
func numField(m map[string]any, key string) Metric {
	if m == nil {
		return NaN()
	}
	switch v := m[key].(type) {
	case float64:
		return Metric(v)
	case int:
		return Metric(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return NaN()
		}
		return Metric(f)
	default:
		return NaN()
	}
}

// strField reads a string field, stringifying numbers since the API flips
// between the two representations across versions
func strField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		if v == math.Trunc(v) {
			return strconv.FormatFloat(v, 'f', 0, 64)
		}
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return ""
	}
}

// timeField parses a timestamp string, returning the zero time when the
// value is missing or matches none of the known layouts
func timeField(m map[string]any, key string) time.Time {
	s := strField(m, key)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
