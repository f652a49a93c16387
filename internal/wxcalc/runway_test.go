package wxcalc

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRunwayWindComponents(t *testing.T) {
	// Wind straight down the runway
	head, cross := RunwayWindComponents(20, 240, 240)
	assert.InDelta(t, 20.0, head, 1e-9)
	assert.InDelta(t, 0.0, cross, 1e-9)

	// Direct tailwind
	head, cross = RunwayWindComponents(20, 60, 240)
	assert.InDelta(t, -20.0, head, 1e-9)
	assert.InDelta(t, 0.0, cross, 1e-6)

	// Pure crosswind from the right
	head, cross = RunwayWindComponents(15, 330, 240)
	assert.InDelta(t, 0.0, head, 1e-6)
	assert.InDelta(t, 15.0, cross, 1e-9)

	// Pure crosswind from the left
	head, cross = RunwayWindComponents(15, 150, 240)
	assert.InDelta(t, 0.0, head, 1e-6)
	assert.InDelta(t, -15.0, cross, 1e-9)

	// Quartering headwind splits between the components
	head, cross = RunwayWindComponents(20, 285, 240)
	assert.InDelta(t, 20*math.Cos(45*DegToRad), head, 1e-6)
	assert.InDelta(t, 20*math.Sin(45*DegToRad), cross, 1e-6)
}

func TestRunwayWindComponentsWrapAround(t *testing.T) {
	// Wind at 350 on runway heading 010 is a 20 degree offset, not 340
	head, cross := RunwayWindComponents(10, 350, 10)
	assert.InDelta(t, 10*math.Cos(20*DegToRad), head, 1e-6)
	assert.InDelta(t, -10*math.Sin(20*DegToRad), cross, 1e-6)
}

func TestRunwayWindComponentsNaN(t *testing.T) {
	head, cross := RunwayWindComponents(math.NaN(), 240, 240)
	assert.True(t, math.IsNaN(head))
	assert.True(t, math.IsNaN(cross))
}

func TestTrueToMagnetic(t *testing.T) {
	assert.InDelta(t, 89.0, TrueToMagnetic(90, 1), 1e-9)
	assert.InDelta(t, 91.0, TrueToMagnetic(90, -1), 1e-9)
	// Result stays in [0, 360)
	assert.InDelta(t, 359.0, TrueToMagnetic(0, 1), 1e-9)
	assert.True(t, math.IsNaN(TrueToMagnetic(math.NaN(), 1)))
}

func TestMagneticVariationJakarta(t *testing.T) {
	// Jakarta's declination is small (under a degree east as of 2025);
	// the point of this test is that the model lookup works and returns
	// something plausible rather than the 0.0 failure fallback.
	d := MagneticVariation(-6.1754, 106.8272, 26, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Greater(t, d, -5.0)
	assert.Less(t, d, 5.0)
}
