package poi

import (
	"context"
	"errors"
	"testing"

	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var campus = core.GeodeticCoordinate{Latitude: 35.3050, Longitude: -120.6625, Altitude: 90}

func around(id core.PointID, name string, bearing, distance float64) core.PointOfInterest {
	return core.PointOfInterest{ID: id, Name: name, Coordinate: geo.Destination(campus, bearing, distance)}
}

func TestNewSet_PreservesOrder(t *testing.T) {
	points := []core.PointOfInterest{around(3, "C", 0, 10), around(1, "A", 90, 20), around(2, "B", 180, 30)}

	s, err := NewSet(points)
	require.NoError(t, err)

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, points, s.All())
	p, ok := s.Get(1)
	assert.True(t, ok)
	assert.Equal(t, "A", p.Name)
	_, ok = s.Get(42)
	assert.False(t, ok)
}

func TestNewSet_SameNameDifferentID(t *testing.T) {
	s, err := NewSet([]core.PointOfInterest{around(1, "Hall", 0, 10), around(2, "Hall", 90, 10)})
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestNewSet_DuplicateID(t *testing.T) {
	_, err := NewSet([]core.PointOfInterest{around(1, "A", 0, 10), around(1, "B", 90, 10)})
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestNewSet_InvalidCoordinate(t *testing.T) {
	bad := core.PointOfInterest{ID: 1, Coordinate: core.GeodeticCoordinate{Latitude: 100}}
	_, err := NewSet([]core.PointOfInterest{bad})
	assert.ErrorIs(t, err, geo.ErrInvalidCoordinates)
}

func TestNilSet(t *testing.T) {
	var s *Set
	assert.Equal(t, 0, s.Len())
	assert.Nil(t, s.All())
	assert.Nil(t, s.Near(campus, 100))
	assert.False(t, s.Indexed())
}

func TestNear_WithoutIndexReturnsAll(t *testing.T) {
	s, err := NewSet([]core.PointOfInterest{around(1, "A", 0, 10), around(2, "B", 0, 5000)})
	require.NoError(t, err)
	assert.Len(t, s.Near(campus, 500), 2)
}

func TestNear_WithIndex(t *testing.T) {
	points := []core.PointOfInterest{
		around(1, "near north", 0, 100),
		around(2, "far north", 0, 2000),
		around(3, "edge east", 90, 499),
		around(4, "far west", 270, 800),
		around(5, "near south", 180, 30),
	}
	s, err := NewSet(points, WithIndex())
	require.NoError(t, err)
	require.True(t, s.Indexed())

	got := s.Near(campus, 500)
	ids := make([]core.PointID, len(got))
	for i, p := range got {
		ids[i] = p.ID
	}
	assert.Equal(t, []core.PointID{1, 3, 5}, ids)
}

func TestNear_IndexIsConservative(t *testing.T) {
	var points []core.PointOfInterest
	id := core.PointID(1)
	for bearing := 0.0; bearing < 360; bearing += 15 {
		for _, d := range []float64{50, 250, 495} {
			points = append(points, around(id, "", bearing, d))
			id++
		}
	}
	s, err := NewSet(points, WithIndex())
	require.NoError(t, err)

	assert.Len(t, s.Near(campus, 500), len(points))
}

type errSource struct{ err error }

func (e errSource) LoadAll(context.Context) ([]core.PointOfInterest, error) { return nil, e.err }

func TestLoad_SourceError(t *testing.T) {
	boom := errors.New("disk on fire")
	_, err := Load(context.Background(), errSource{boom})
	assert.ErrorIs(t, err, boom)
}
