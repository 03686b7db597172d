package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance_SamePoint(t *testing.T) {
	assert.Equal(t, 0.0, Distance(5.6037, -0.1870, 5.6037, -0.1870))
}

func TestDistance_KnownPairs(t *testing.T) {
	// Accra to Kumasi, roughly 202 km.
	d := Distance(5.6037, -0.1870, 6.6885, -1.6244)
	assert.InDelta(t, 202000, d, 3000)

	// One degree of latitude at the equator is about 111.2 km on a
	// 6371 km sphere.
	d = Distance(0, 0, 1, 0)
	assert.InDelta(t, 111195, d, 10)
}

func TestDistance_ShortRange(t *testing.T) {
	// ~100 m north of the reference point.
	d := Distance(5.60370, -0.18700, 5.60460, -0.18700)
	assert.InDelta(t, 100, d, 1)
}

func TestWithinRange_BoundaryInclusive(t *testing.T) {
	center := Coordinates{Latitude: 5.6037, Longitude: -0.1870}
	d := Distance(center.Latitude, center.Longitude, 5.6046, -0.1870)

	in, measured := WithinRange(Coordinates{Latitude: 5.6046, Longitude: -0.1870}, center.Latitude, center.Longitude, d)
	assert.True(t, in, "distance exactly equal to the threshold is in range")
	assert.Equal(t, d, measured)

	in, _ = WithinRange(Coordinates{Latitude: 5.6046, Longitude: -0.1870}, center.Latitude, center.Longitude, d-0.01)
	assert.False(t, in)
}

func TestCoordinates_Plausible(t *testing.T) {
	assert.True(t, Coordinates{Latitude: 5.6, Longitude: -0.2}.Plausible())
	assert.False(t, Coordinates{}.Plausible(), "zero pair means no fix")
	assert.False(t, Coordinates{Latitude: 91, Longitude: 0.5}.Plausible())
	assert.False(t, Coordinates{Latitude: 5.6, Longitude: -181}.Plausible())
	assert.False(t, Coordinates{Latitude: math.NaN(), Longitude: 1}.Plausible())
}
