package wxcalc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKnots(t *testing.T) {
	assert.InDelta(t, 9.7192, Knots(5.0), 0.001)
	assert.InDelta(t, 19.4384, Knots(10.0), 0.001)
	assert.Equal(t, 0.0, Knots(0))
	assert.True(t, math.IsNaN(Knots(math.NaN())))
}

func TestStatuteMiles(t *testing.T) {
	assert.InDelta(t, 1.0, StatuteMiles(1609.34), 0.01)
	assert.InDelta(t, 6.21, StatuteMiles(10000), 0.01)
	assert.True(t, math.IsNaN(StatuteMiles(math.NaN())))
}

func TestFormatVisibility(t *testing.T) {
	assert.Equal(t, "N/A", FormatVisibility(math.NaN()))
	assert.Equal(t, "1.2 SM", FormatVisibility(1.24))
	assert.Equal(t, "5.0 SM", FormatVisibility(5.0))
	assert.Equal(t, "6 SM", FormatVisibility(6.2))
}

func TestWindComponents(t *testing.T) {
	// Wind from the east blows toward the west: u negative, v ~0
	u, v := WindComponents(10, 90)
	assert.InDelta(t, -10.0, u, 1e-9)
	assert.InDelta(t, 0.0, v, 1e-9)

	// Wind from the north blows toward the south
	u, v = WindComponents(10, 0)
	assert.InDelta(t, 0.0, u, 1e-9)
	assert.InDelta(t, -10.0, v, 1e-9)

	// Wind from the southwest has positive u and v
	u, v = WindComponents(10, 225)
	assert.Positive(t, u)
	assert.Positive(t, v)

	u, v = WindComponents(math.NaN(), 90)
	assert.True(t, math.IsNaN(u))
	assert.True(t, math.IsNaN(v))
}

func TestDewPointMagnus(t *testing.T) {
	// Saturated air: dew point equals temperature
	assert.InDelta(t, 20.0, DewPointMagnus(20, 100), 0.01)

	// 30 C at 80% RH is about 26.2 C
	assert.InDelta(t, 26.2, DewPointMagnus(30, 80), 0.3)

	// Dew point never exceeds temperature
	for _, rh := range []float64{10, 30, 50, 70, 90, 100} {
		assert.LessOrEqual(t, DewPointMagnus(25, rh), 25.0)
	}

	// RH clamp keeps the result finite at zero humidity
	dp := DewPointMagnus(25, 0)
	assert.False(t, math.IsNaN(dp))
	assert.False(t, math.IsInf(dp, -1))
	assert.Less(t, dp, -20.0)

	assert.True(t, math.IsNaN(DewPointMagnus(math.NaN(), 50)))
	assert.True(t, math.IsNaN(DewPointMagnus(25, math.NaN())))
}

func TestDewPointLinearVsMagnus(t *testing.T) {
	// The two estimates should roughly agree in the humid mid-range
	assert.InDelta(t, DewPointLinear(30, 80), DewPointMagnus(30, 80), 2.0)
}
