package wxcalc

import (
	"fmt"
	"math"
)

// Status is a takeoff/landing recommendation level. Higher values are worse;
// rules may only tighten a status, never relax it.
type Status string

const (
	StatusRecommended    Status = "Recommended"
	StatusCaution        Status = "Caution"
	StatusNotRecommended Status = "Not Recommended"
)

func severity(s Status) int {
	switch s {
	case StatusCaution:
		return 1
	case StatusNotRecommended:
		return 2
	default:
		return 0
	}
}

// tighten returns the worse of the two statuses
func tighten(current, proposed Status) Status {
	if severity(proposed) > severity(current) {
		return proposed
	}
	return current
}

// Limits holds the rule thresholds for the recommendation evaluator
type Limits struct {
	WindNoGoKt     float64 // wind at or above this grounds both operations
	WindAdvisoryKt float64 // wind at or above this adds a note only
	VisNoLandingM  float64 // visibility below this blocks landing
	RainCautionMM  float64 // accumulated rain at or above this downgrades to Caution
	RainAdvisoryMM float64 // accumulated rain above this adds a note only
}

// DefaultLimits returns the standard operational limits
func DefaultLimits() Limits {
	return Limits{
		WindNoGoKt:     30,
		WindAdvisoryKt: 20,
		VisNoLandingM:  1000,
		RainCautionMM:  20,
		RainAdvisoryMM: 5,
	}
}

// Recommendation is the output of the rule evaluator
type Recommendation struct {
	Takeoff   Status   `json:"takeoff"`
	Landing   Status   `json:"landing"`
	Rationale []string `json:"rationale"`
}

// Recommend evaluates the operational rules in fixed order against wind
// speed (knots), visibility (metres) and accumulated rain (mm). NaN inputs
// simply do not trigger their rules. Statuses only ever tighten, so a later
// Caution cannot overwrite an earlier Not Recommended.
func Recommend(windKt, visM, rainMM float64, lim Limits) Recommendation {
	rec := Recommendation{
		Takeoff: StatusRecommended,
		Landing: StatusRecommended,
	}

	if !math.IsNaN(windKt) {
		if windKt >= lim.WindNoGoKt {
			rec.Takeoff = tighten(rec.Takeoff, StatusNotRecommended)
			rec.Landing = tighten(rec.Landing, StatusNotRecommended)
			rec.Rationale = append(rec.Rationale, fmt.Sprintf("wind %.1f kt at or above no-go limit (%.0f kt)", windKt, lim.WindNoGoKt))
		} else if windKt >= lim.WindAdvisoryKt {
			rec.Rationale = append(rec.Rationale, fmt.Sprintf("wind %.1f kt above advisory threshold (%.0f kt)", windKt, lim.WindAdvisoryKt))
		}
	}

	if !math.IsNaN(visM) && visM < lim.VisNoLandingM {
		rec.Landing = tighten(rec.Landing, StatusNotRecommended)
		rec.Rationale = append(rec.Rationale, fmt.Sprintf("visibility %.0f m below landing minimum (%.0f m)", visM, lim.VisNoLandingM))
	}

	if !math.IsNaN(rainMM) {
		if rainMM >= lim.RainCautionMM {
			rec.Takeoff = tighten(rec.Takeoff, StatusCaution)
			rec.Landing = tighten(rec.Landing, StatusCaution)
			rec.Rationale = append(rec.Rationale, fmt.Sprintf("heavy accumulated rain %.1f mm (limit %.0f mm)", rainMM, lim.RainCautionMM))
		} else if rainMM > lim.RainAdvisoryMM {
			rec.Rationale = append(rec.Rationale, fmt.Sprintf("accumulated rain %.1f mm above advisory threshold (%.0f mm)", rainMM, lim.RainAdvisoryMM))
		}
	}

	if len(rec.Rationale) == 0 {
		rec.Rationale = append(rec.Rationale, "all parameters within limits")
	}

	return rec
}
