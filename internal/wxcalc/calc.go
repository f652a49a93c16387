// Package wxcalc contains the derived meteorology used by the dashboard.
// Every function is total: NaN or out-of-range inputs produce NaN or an
// "Unknown" result, never a panic. Nothing here holds state.
package wxcalc

import (
	"fmt"
	"math"
)

// Constants
const (
	MsToKnots            = 1.94384   // Conversion factor from m/s to knots
	MetersToStatuteMiles = 0.000621371 // Conversion factor from metres to statute miles
	DegToRad             = math.Pi / 180

	// Magnus-Tetens coefficients (Alduchov-Eskridge fit)
	magnusA = 17.625
	magnusB = 243.04 // °C
)

// Knots converts a wind speed in m/s to knots.
//
// The upstream feed does not document its wind speed unit; values are
// treated as m/s throughout, which matches the magnitudes observed in
// practice.
func Knots(ms float64) float64 {
	return ms * MsToKnots
}

// StatuteMiles converts a visibility in metres to statute miles
func StatuteMiles(m float64) float64 {
	return m * MetersToStatuteMiles
}

// FormatVisibility renders a visibility in statute miles for display:
// one decimal below 5 SM where the precision matters for minima, whole
// miles above.
func FormatVisibility(visSM float64) string {
	if math.IsNaN(visSM) {
		return "N/A"
	}
	if visSM > 5 {
		return fmt.Sprintf("%.0f SM", visSM)
	}
	return fmt.Sprintf("%.1f SM", visSM)
}

// WindComponents resolves a wind given as speed and meteorological
// direction-from (0° = North, clockwise) into U/V components of the vector
// the wind is blowing toward (+U = East, +V = North).
func WindComponents(speed, dirDeg float64) (u, v float64) {
	if math.IsNaN(speed) || math.IsNaN(dirDeg) {
		return math.NaN(), math.NaN()
	}
	rad := dirDeg * DegToRad
	return -speed * math.Sin(rad), -speed * math.Cos(rad)
}

// DewPointMagnus estimates the dew point in °C from temperature (°C) and
// relative humidity (%) using the Magnus-Tetens approximation. RH is clamped
// to [1, 100] so a dry reading yields a very low dew point instead of -Inf.
func DewPointMagnus(tempC, rhPct float64) float64 {
	if math.IsNaN(tempC) || math.IsNaN(rhPct) {
		return math.NaN()
	}
	if rhPct < 1 {
		rhPct = 1
	}
	if rhPct > 100 {
		rhPct = 100
	}
	alpha := magnusA*tempC/(magnusB+tempC) + math.Log(rhPct/100)
	return magnusB * alpha / (magnusA - alpha)
}

// DewPointLinear is the crude rule-of-thumb estimate Td = T - (100-RH)/5.
// DewPointMagnus is what the pipeline uses; this is kept for comparison in
// the dashboard's debug table.
func DewPointLinear(tempC, rhPct float64) float64 {
	if math.IsNaN(tempC) || math.IsNaN(rhPct) {
		return math.NaN()
	}
	return tempC - (100-rhPct)/5
}
