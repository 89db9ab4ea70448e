package poi

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/snar-ar/overlay/pkg/core"
)

// building mirrors one entry of building_info.json.
type building struct {
	ID          *int64   `json:"id"`
	Name        string   `json:"name"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Altitude    float64  `json:"altitude"`
	Description string   `json:"description"`
}

// JSONSource reads a building_info.json style array:
//
//	[{"id": 1, "name": "...", "latitude": 0, "longitude": 0, "altitude": 0, "description": "..."}]
type JSONSource struct {
	Path string
}

// LoadAll reads and decodes the file. Every entry needs an id, latitude and longitude.
func (s JSONSource) LoadAll(ctx context.Context) ([]core.PointOfInterest, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", s.Path, err)
	}
	return DecodeJSON(data)
}

// DecodeJSON decodes a building_info.json payload.
func DecodeJSON(data []byte) ([]core.PointOfInterest, error) {
	var buildings []building
	if err := json.Unmarshal(data, &buildings); err != nil {
		return nil, fmt.Errorf("failed to parse buildings JSON: %w", err)
	}

	points := make([]core.PointOfInterest, 0, len(buildings))
	for i, b := range buildings {
		if b.ID == nil || b.Latitude == nil || b.Longitude == nil {
			return nil, fmt.Errorf("building %d (%q) is missing id, latitude or longitude", i, b.Name)
		}
		points = append(points, core.PointOfInterest{
			ID:          core.PointID(*b.ID),
			Name:        b.Name,
			Description: b.Description,
			Coordinate: core.GeodeticCoordinate{
				Latitude:  *b.Latitude,
				Longitude: *b.Longitude,
				Altitude:  b.Altitude,
			},
		})
	}
	return points, nil
}
