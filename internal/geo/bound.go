package geo

import (
	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
	"github.com/snar-ar/overlay/pkg/core"
)

// BoundAround returns the lon/lat bound covering every location within
// radius metres of center, padded by pad metres. When the bound crosses the
// antimeridian it is split in two.
func BoundAround(center core.GeodeticCoordinate, radius, pad float64) []orb.Bound {
	b := orbgeo.NewBoundAroundPoint(Point(center), radius)
	if b.Min[0] <= b.Max[0] {
		return []orb.Bound{orbgeo.BoundPad(b, pad)}
	}
	west := orb.Bound{Min: orb.Point{-180, b.Min[1]}, Max: orb.Point{b.Max[0], b.Max[1]}}
	east := orb.Bound{Min: orb.Point{b.Min[0], b.Min[1]}, Max: orb.Point{180, b.Max[1]}}
	return []orb.Bound{orbgeo.BoundPad(west, pad), orbgeo.BoundPad(east, pad)}
}
