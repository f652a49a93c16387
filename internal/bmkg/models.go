package bmkg

import (
	"encoding/json"

	"github.com/danwib/tacwx/internal/observability"
)

// ForecastResponse is the wire shape of the BMKG public forecast endpoint.
// Only the "data" array matters; everything else varies between API versions
// and is ignored.
type ForecastResponse struct {
	Data []LocationBlock `json:"data"`
}

// LocationBlock pairs one location's metadata with its forecast groups.
//
// Lokasi is kept as a raw map because the API is inconsistent about value
// types (lat/lon arrive as strings in some versions, numbers in others) and
// about which keys are present at each ADM level. Cuaca groups are kept as
// raw JSON because a group is usually a list of observations but has been
// observed as a bare observation object.
type LocationBlock struct {
	Lokasi map[string]any    `json:"lokasi"`
	Cuaca  []json.RawMessage `json:"cuaca"`
}

// Observations decodes one cuaca group, accepting both the list-of-objects
// and bare-object shapes. Entries that are neither are dropped.
func Observations(group json.RawMessage) []map[string]any {
	var list []json.RawMessage
	if err := json.Unmarshal(group, &list); err == nil {
		out := make([]map[string]any, 0, len(list))
		for _, item := range list {
			var obs map[string]any
			if err := json.Unmarshal(item, &obs); err == nil {
				out = append(out, obs)
			} else {
				observability.NormalizerDroppedTotal.Inc()
			}
		}
		return out
	}

	var single map[string]any
	if err := json.Unmarshal(group, &single); err == nil {
		return []map[string]any{single}
	}

	observability.NormalizerDroppedTotal.Inc()
	return nil
}
