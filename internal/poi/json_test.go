package poi

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/snar-ar/overlay/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const buildingsJSON = `[
  {"id": 1, "name": "Kennedy Library", "latitude": 35.3020, "longitude": -120.6638, "altitude": 95.5, "description": "Building 35"},
  {"id": 2, "name": "Engineering East", "latitude": 35.3009, "longitude": -120.6622, "altitude": 92, "description": ""}
]`

func TestJSONSource_LoadAll(t *testing.T) {
	path := filepath.Join(t.TempDir(), "building_info.json")
	require.NoError(t, os.WriteFile(path, []byte(buildingsJSON), 0644))

	points, err := JSONSource{Path: path}.LoadAll(context.Background())
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, core.PointOfInterest{
		ID:          1,
		Name:        "Kennedy Library",
		Description: "Building 35",
		Coordinate:  core.GeodeticCoordinate{Latitude: 35.3020, Longitude: -120.6638, Altitude: 95.5},
	}, points[0])
	assert.Equal(t, core.PointID(2), points[1].ID)
}

func TestJSONSource_MissingFile(t *testing.T) {
	_, err := JSONSource{Path: filepath.Join(t.TempDir(), "nope.json")}.LoadAll(context.Background())
	assert.Error(t, err)
}

func TestJSONSource_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := JSONSource{Path: "unused"}.LoadAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDecodeJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"not json":      `{"id": 1`,
		"object":        `{"id": 1}`,
		"missing id":    `[{"name": "x", "latitude": 1, "longitude": 2}]`,
		"missing coord": `[{"id": 1, "name": "x", "latitude": 1}]`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeJSON([]byte(payload))
			assert.Error(t, err)
		})
	}
}

func TestDecodeJSON_Empty(t *testing.T) {
	points, err := DecodeJSON([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, points)
}
