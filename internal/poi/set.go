// Package poi loads points of interest and serves them to the frame loop.
package poi

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/snar-ar/overlay/internal/geo"
	"github.com/snar-ar/overlay/pkg/core"
)

var (
	// ErrDuplicateID is returned when two points share an id.
	ErrDuplicateID = errors.New("duplicate point id")
	// ErrUnknownSource is returned for an unsupported source type.
	ErrUnknownSource = errors.New("unknown point source")
)

// Source loads the full point set. It is read once per session.
type Source interface {
	LoadAll(ctx context.Context) ([]core.PointOfInterest, error)
}

// Set is an immutable, id-keyed point collection. It is safe to share
// between goroutines.
type Set struct {
	points []core.PointOfInterest
	byID   map[core.PointID]int
	index  *Index
}

// SetOption configures NewSet.
type SetOption func(*Set)

// WithIndex builds an R-Tree so Near only scans nearby points.
func WithIndex() SetOption {
	return func(s *Set) {
		s.index = NewIndex(s.points)
	}
}

// NewSet validates points and builds a Set preserving the input order.
func NewSet(points []core.PointOfInterest, opts ...SetOption) (*Set, error) {
	s := &Set{
		points: make([]core.PointOfInterest, len(points)),
		byID:   make(map[core.PointID]int, len(points)),
	}
	copy(s.points, points)

	for i, p := range s.points {
		if prev, dup := s.byID[p.ID]; dup {
			return nil, fmt.Errorf("%w: %d (%q and %q)", ErrDuplicateID, p.ID, s.points[prev].Name, p.Name)
		}
		if err := geo.Validate(p.Coordinate); err != nil {
			return nil, fmt.Errorf("point %d (%q): %w", p.ID, p.Name, err)
		}
		s.byID[p.ID] = i
	}

	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load reads src and builds a Set from it.
func Load(ctx context.Context, src Source, opts ...SetOption) (*Set, error) {
	points, err := src.LoadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load points: %w", err)
	}
	return NewSet(points, opts...)
}

// Len returns the number of points.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.points)
}

// All returns every point in load order. The slice must not be modified.
func (s *Set) All() []core.PointOfInterest {
	if s == nil {
		return nil
	}
	return s.points
}

// Get returns the point with the given id.
func (s *Set) Get(id core.PointID) (core.PointOfInterest, bool) {
	if s == nil {
		return core.PointOfInterest{}, false
	}
	i, ok := s.byID[id]
	if !ok {
		return core.PointOfInterest{}, false
	}
	return s.points[i], true
}

// Indexed reports whether the set has a spatial index.
func (s *Set) Indexed() bool {
	return s != nil && s.index != nil
}

// Near returns the points that may lie within radius metres of center, in
// load order. Without an index every point is returned.
func (s *Set) Near(center core.GeodeticCoordinate, radius float64) []core.PointOfInterest {
	if s == nil {
		return nil
	}
	if s.index == nil {
		return s.points
	}
	pos := s.index.Within(center, radius)
	sort.Ints(pos)
	out := make([]core.PointOfInterest, 0, len(pos))
	for i, p := range pos {
		if i > 0 && pos[i-1] == p {
			continue
		}
		out = append(out, s.points[p])
	}
	return out
}
