package poi

import (
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/pkg/core"
)

const (
	tolerance   = 1e-7 // degrees, around 1 cm
	minChildren = 25
	maxChildren = 50
	dimensions  = 2

	// candidate searches are padded so great-circle distance, not the box,
	// decides visibility at the edge of the radius
	searchPad = 10.0 // metres
)

// spatialItem wraps a position in the Set for R-Tree indexing
type spatialItem struct {
	pos  int
	rect rtreego.Rect
}

func (si *spatialItem) Bounds() rtreego.Rect {
	return si.rect
}

// Index is an R-Tree over point longitudes and latitudes. It is built once
// and only read afterwards.
type Index struct {
	tree *rtreego.Rtree
}

// NewIndex indexes points by their position in the slice.
func NewIndex(points []core.PointOfInterest) *Index {
	items := make([]rtreego.Spatial, len(points))
	for i, p := range points {
		rtPoint := rtreego.Point{p.Coordinate.Longitude, p.Coordinate.Latitude}
		items[i] = &spatialItem{pos: i, rect: rtPoint.ToRect(tolerance)}
	}
	return &Index{tree: rtreego.NewTree(dimensions, minChildren, maxChildren, items...)}
}

// Size returns the number of indexed points.
func (x *Index) Size() int {
	return x.tree.Size()
}

// Within returns the slice positions of every point that may lie within
// radius metres of center. The result is a superset; callers still measure
// the exact distance.
func (x *Index) Within(center core.GeodeticCoordinate, radius float64) []int {
	var out []int
	for _, b := range geo.BoundAround(center, radius, searchPad) {
		for _, s := range x.tree.SearchIntersect(boundRect(b)) {
			out = append(out, s.(*spatialItem).pos)
		}
	}
	return out
}

func boundRect(b orb.Bound) rtreego.Rect {
	// min <= max always holds for a bound, so this cannot fail
	r, _ := rtreego.NewRectFromPoints(
		rtreego.Point{b.Min.Lon(), b.Min.Lat()},
		rtreego.Point{b.Max.Lon(), b.Max.Lat()},
	)
	return r
}
