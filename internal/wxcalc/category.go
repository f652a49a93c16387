package wxcalc

import "math"

// Ceiling is a cloud-base estimate derived from total cloud cover
type Ceiling struct {
	BaseFt float64 `json:"base_ft"`
	Label  string  `json:"label"`
}

// CeilingFromCloudCover maps a total cloud cover percentage to an estimated
// cloud base. The feed carries no real ceilometer data, so this proxy is the
// best available input for the category classifier.
func CeilingFromCloudCover(tccPct float64) Ceiling {
	switch {
	case math.IsNaN(tccPct):
		return Ceiling{BaseFt: math.NaN(), Label: "Unknown"}
	case tccPct < 1:
		return Ceiling{BaseFt: 99999, Label: "Clear"}
	case tccPct < 25:
		return Ceiling{BaseFt: 3500, Label: "Few"}
	case tccPct < 50:
		return Ceiling{BaseFt: 2250, Label: "Scattered"}
	case tccPct < 75:
		return Ceiling{BaseFt: 1250, Label: "Broken"}
	default:
		return Ceiling{BaseFt: 800, Label: "Overcast"}
	}
}

// Category is a flight-rules classification
type Category string

const (
	CategoryVFR     Category = "VFR"
	CategoryMVFR    Category = "MVFR"
	CategoryIFR     Category = "IFR"
	CategoryUnknown Category = "Unknown"
)

// Thresholds holds the flight-category cutoffs. Operations manuals disagree
// on the exact numbers, so they are configuration, not constants.
type Thresholds struct {
	VFRMinVisSM     float64
	VFRMinCeilingFt float64 // ceiling must be strictly above this for VFR
	IFRMaxVisSM     float64 // visibility strictly below this is IFR
	IFRMaxCeilingFt float64 // ceiling at or below this is IFR
}

// DefaultThresholds returns the standard 5 SM / 3000 ft / 3 SM / 1000 ft cutoffs
func DefaultThresholds() Thresholds {
	return Thresholds{
		VFRMinVisSM:     5,
		VFRMinCeilingFt: 3000,
		IFRMaxVisSM:     3,
		IFRMaxCeilingFt: 1000,
	}
}

// FlightCategory classifies visibility (statute miles) and ceiling (feet).
// IFR conditions are checked first so a low ceiling under good visibility
// still classifies IFR. A ceiling exactly at the VFR minimum is MVFR.
func FlightCategory(visSM, ceilingFt float64, th Thresholds) Category {
	if math.IsNaN(visSM) || math.IsNaN(ceilingFt) {
		return CategoryUnknown
	}
	if visSM < th.IFRMaxVisSM || ceilingFt <= th.IFRMaxCeilingFt {
		return CategoryIFR
	}
	if visSM >= th.VFRMinVisSM && ceilingFt > th.VFRMinCeilingFt {
		return CategoryVFR
	}
	return CategoryMVFR
}
