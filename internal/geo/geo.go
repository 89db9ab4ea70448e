package geo

import (
	"errors"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
	geom "github.com/peterstace/simplefeatures/geom"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/wroge/wgs84"
)

// Locations are stored as EPSG:3857 points alongside the plain WGS84 columns,
// because SQLite has no spatial awareness and the WKB column is what other
// tools read.

// ErrInvalidCoordinates is returned when the coordinates are invalid
var ErrInvalidCoordinates = errors.New("invalid coordinates provided")

// CoordinateFromString parses a "long,lat" or "long,lat,alt" string into a
// geodetic coordinate.
func CoordinateFromString(coords string) (core.GeodeticCoordinate, error) {
	coordsSplit := strings.Split(coords, ",")
	if len(coordsSplit) < 2 || len(coordsSplit) > 3 {
		return core.GeodeticCoordinate{}, ErrInvalidCoordinates
	}
	long, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[0]), 64)
	if err != nil {
		return core.GeodeticCoordinate{}, ErrInvalidCoordinates
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(coordsSplit[1]), 64)
	if err != nil {
		return core.GeodeticCoordinate{}, ErrInvalidCoordinates
	}
	var alt float64
	if len(coordsSplit) > 2 {
		alt, err = strconv.ParseFloat(strings.TrimSpace(coordsSplit[2]), 64)
		if err != nil {
			return core.GeodeticCoordinate{}, ErrInvalidCoordinates
		}
	}
	c := core.GeodeticCoordinate{Latitude: lat, Longitude: long, Altitude: alt}
	if err := Validate(c); err != nil {
		return core.GeodeticCoordinate{}, err
	}
	return c, nil
}

// Validate checks that latitude and longitude are within WGS84 range.
func Validate(c core.GeodeticCoordinate) error {
	if c.Latitude < -90 || c.Latitude > 90 || c.Longitude < -180 || c.Longitude > 180 {
		return ErrInvalidCoordinates
	}
	return nil
}

// Point converts a coordinate into an orb lon/lat point.
func Point(c core.GeodeticCoordinate) orb.Point {
	return orb.Point{c.Longitude, c.Latitude}
}

// Mercator projects a coordinate into an EPSG:3857 point, carrying the
// altitude as Z.
func Mercator(c core.GeodeticCoordinate) geom.Point {
	epsg := wgs84.EPSG()
	f := epsg.Transform(4326, 3857)
	x, y, _ := f(c.Longitude, c.Latitude, 0)
	return geom.NewPoint(
		geom.Coordinates{
			XY:   geom.XY{X: x, Y: y},
			Z:    c.Altitude,
			Type: geom.CoordinatesType(geom.DimXYZ),
		},
	)
}
