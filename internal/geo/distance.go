package geo

import (
	"math"

	orbgeo "github.com/paulmach/orb/geo"
	"github.com/snar-ar/overlay/pkg/core"
)

// Distance returns the great-circle distance in metres between two
// coordinates. Altitude is ignored.
func Distance(from, to core.GeodeticCoordinate) float64 {
	return orbgeo.DistanceHaversine(Point(from), Point(to))
}

// Bearing returns the initial bearing from one coordinate to another in
// degrees clockwise from true north, normalized to [0, 360).
func Bearing(from, to core.GeodeticCoordinate) float64 {
	b := orbgeo.Bearing(Point(from), Point(to))
	if b < 0 {
		b += 360
	}
	return b
}

// Destination returns the coordinate reached by travelling distance metres
// along bearing degrees from origin. The altitude is carried over and the
// longitude wraps into [-180, 180].
func Destination(origin core.GeodeticCoordinate, bearing, distance float64) core.GeodeticCoordinate {
	p := orbgeo.PointAtBearingAndDistance(Point(origin), bearing, distance)
	return core.GeodeticCoordinate{Latitude: p.Lat(), Longitude: WrapLongitude(p.Lon()), Altitude: origin.Altitude}
}

// WrapLongitude maps any longitude in degrees into [-180, 180].
func WrapLongitude(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// EastNorthUp returns the offset of target from origin in a local tangent
// plane, in metres.
func EastNorthUp(origin, target core.GeodeticCoordinate) (east, north, up float64) {
	d := Distance(origin, target)
	b := Bearing(origin, target) * math.Pi / 180
	return d * math.Sin(b), d * math.Cos(b), target.Altitude - origin.Altitude
}
