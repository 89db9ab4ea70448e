package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/snar-ar/overlay/pkg/core"
)

// GeoJSONSource reads a FeatureCollection of Point features. The id comes
// from the feature id or an "id" property; name and description are read
// from properties. Altitude is the third coordinate, or an "altitude"
// property when present.
type GeoJSONSource struct {
	Path string
}

// LoadAll reads and decodes the file.
func (s GeoJSONSource) LoadAll(ctx context.Context) ([]core.PointOfInterest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return DecodeGeoJSON(data)
}

// orb points are 2D, so the third coordinate is read separately
type rawCollection struct {
	Features []struct {
		Geometry struct {
			Coordinates json.RawMessage `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// DecodeGeoJSON decodes a FeatureCollection payload. Non-point features are
// rejected.
func DecodeGeoJSON(data []byte) ([]core.PointOfInterest, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}
	var raw rawCollection
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse GeoJSON: %w", err)
	}

	points := make([]core.PointOfInterest, 0, len(fc.Features))
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(orb.Point)
		if !ok {
			return nil, fmt.Errorf("feature %d: expected Point geometry, got %T", i, f.Geometry)
		}
		id, ok := featureID(f)
		if !ok {
			return nil, fmt.Errorf("feature %d: missing numeric id", i)
		}

		var alt float64
		if i < len(raw.Features) {
			var coords []float64
			if json.Unmarshal(raw.Features[i].Geometry.Coordinates, &coords) == nil && len(coords) > 2 {
				alt = coords[2]
			}
		}
		if v, ok := f.Properties["altitude"].(float64); ok {
			alt = v
		}

		points = append(points, core.PointOfInterest{
			ID:          id,
			Name:        stringProp(f.Properties, "name"),
			Description: stringProp(f.Properties, "description"),
			Coordinate: core.GeodeticCoordinate{
				Latitude:  pt.Lat(),
				Longitude: pt.Lon(),
				Altitude:  alt,
			},
		})
	}
	return points, nil
}

func stringProp(p geojson.Properties, key string) string {
	s, _ := p[key].(string)
	return s
}

func featureID(f *geojson.Feature) (core.PointID, bool) {
	raw := f.ID
	if raw == nil {
		raw = f.Properties["id"]
	}
	v, ok := raw.(float64)
	if !ok || v != float64(int64(v)) {
		return 0, false
	}
	return core.PointID(v), true
}
