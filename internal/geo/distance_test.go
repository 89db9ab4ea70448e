package geo

import (
	"testing"

	"github.com/snar-ar/overlay/pkg/core"
	"github.com/stretchr/testify/assert"
)

var origin = core.GeodeticCoordinate{Latitude: 37.4220, Longitude: -122.0841, Altitude: 10}

func TestDistance_SamePoint(t *testing.T) {
	assert.InDelta(t, 0, Distance(origin, origin), 1e-9)
}

func TestDistance_IgnoresAltitude(t *testing.T) {
	above := origin
	above.Altitude = 500
	assert.InDelta(t, 0, Distance(origin, above), 1e-9)
}

func TestDistance_Symmetric(t *testing.T) {
	other := core.GeodeticCoordinate{Latitude: 37.4275, Longitude: -122.1697}
	assert.InDelta(t, Distance(origin, other), Distance(other, origin), 1e-6)
}

func TestDestination_DistanceAndBearing(t *testing.T) {
	for _, bearing := range []float64{0, 45, 90, 180, 270} {
		dest := Destination(origin, bearing, 250)

		assert.InDelta(t, 250, Distance(origin, dest), 0.01)
		assert.InDelta(t, bearing, Bearing(origin, dest), 0.01)
		assert.Equal(t, origin.Altitude, dest.Altitude)
	}
}

func TestBearing_Normalized(t *testing.T) {
	west := Destination(origin, 270, 100)
	b := Bearing(origin, west)
	assert.GreaterOrEqual(t, b, 0.0)
	assert.Less(t, b, 360.0)
}

func TestEastNorthUp(t *testing.T) {
	north := Destination(origin, 0, 100)
	north.Altitude = 25

	e, n, u := EastNorthUp(origin, north)
	assert.InDelta(t, 0, e, 1e-6)
	assert.InDelta(t, 100, n, 0.01)
	assert.InDelta(t, 15, u, 1e-9)

	east := Destination(origin, 90, 40)
	e, n, _ = EastNorthUp(origin, east)
	assert.InDelta(t, 40, e, 0.01)
	assert.InDelta(t, 0, n, 0.01)
}

func TestBoundAround_ContainsRadius(t *testing.T) {
	bounds := BoundAround(origin, 500, 1)
	if assert.Len(t, bounds, 1) {
		for _, bearing := range []float64{0, 90, 180, 270} {
			assert.True(t, bounds[0].Contains(Point(Destination(origin, bearing, 499))))
		}
		assert.False(t, bounds[0].Contains(Point(Destination(origin, 0, 2000))))
	}
}

func TestBoundAround_Antimeridian(t *testing.T) {
	c := core.GeodeticCoordinate{Latitude: 0, Longitude: 179.999}
	bounds := BoundAround(c, 1000, 1)
	assert.Len(t, bounds, 2)
}

func TestDestination_CrossesAntimeridian(t *testing.T) {
	start := core.GeodeticCoordinate{Latitude: 10, Longitude: 179.9999}
	dest := Destination(start, 90, 300)

	assert.NoError(t, Validate(dest))
	assert.Less(t, dest.Longitude, 0.0)
	assert.InDelta(t, -179.9974, dest.Longitude, 1e-3)
	assert.InDelta(t, 300, Distance(start, dest), 0.5)
}

func TestWrapLongitude(t *testing.T) {
	assert.Equal(t, 12.5, WrapLongitude(12.5))
	assert.Equal(t, 180.0, WrapLongitude(180))
	assert.Equal(t, -180.0, WrapLongitude(-180))
	assert.InDelta(t, -179.0, WrapLongitude(181), 1e-9)
	assert.InDelta(t, 179.0, WrapLongitude(-181), 1e-9)
	assert.InDelta(t, 10.0, WrapLongitude(370), 1e-9)
}
