package wxcalc

import (
	"math"
	"time"

	"github.com/westphae/geomag/pkg/egm96"
	"github.com/westphae/geomag/pkg/wmm"
)

// RunwayWind is the wind resolved along and across a runway
type RunwayWind struct {
	RunwayID    string  `json:"runway_id"`
	HeadwindKt  float64 `json:"headwind_kt"`  // negative = tailwind
	CrosswindKt float64 `json:"crosswind_kt"` // positive = from the right
}

// RunwayWindComponents resolves a wind (speed in knots, magnetic
// direction-from in degrees) against a runway's magnetic heading.
// Headwind is positive blowing down the runway toward the aircraft;
// crosswind is positive from the right.
func RunwayWindComponents(speedKt, windDirMag, runwayHeadingMag float64) (headwind, crosswind float64) {
	if math.IsNaN(speedKt) || math.IsNaN(windDirMag) || math.IsNaN(runwayHeadingMag) {
		return math.NaN(), math.NaN()
	}

	delta := math.Mod(windDirMag-runwayHeadingMag, 360)
	if delta > 180 {
		delta -= 360
	}
	if delta < -180 {
		delta += 360
	}

	rad := delta * DegToRad
	return speedKt * math.Cos(rad), speedKt * math.Sin(rad)
}

// MagneticVariation calculates the magnetic declination for a position and
// time. Returns degrees (+East, -West), or 0 if the model lookup fails so
// runway components degrade to true-heading math instead of erroring out.
func MagneticVariation(lat, lon, altFt float64, date time.Time) float64 {
	altM := altFt * 0.3048

	loc := egm96.NewLocationGeodetic(lat, lon, altM)
	mag, err := wmm.CalculateWMMMagneticField(loc, date)
	if err != nil {
		return 0.0
	}

	return mag.D()
}

// TrueToMagnetic converts a true bearing to magnetic given the local
// declination (+East)
func TrueToMagnetic(trueDeg, declination float64) float64 {
	if math.IsNaN(trueDeg) {
		return math.NaN()
	}
	m := math.Mod(trueDeg-declination, 360)
	if m < 0 {
		m += 360
	}
	return m
}
