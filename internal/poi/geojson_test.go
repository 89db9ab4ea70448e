package poi

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeGeoJSON(t *testing.T) {
	payload := `{
	  "type": "FeatureCollection",
	  "features": [
	    {"type": "Feature", "id": 7, "geometry": {"type": "Point", "coordinates": [-120.6638, 35.3020, 95]},
	     "properties": {"name": "Library", "description": "Open late"}},
	    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-120.6622, 35.3009]},
	     "properties": {"id": 8, "name": "Engineering", "altitude": 101.5}}
	  ]
	}`

	points, err := DecodeGeoJSON([]byte(payload))
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.EqualValues(t, 7, points[0].ID)
	assert.Equal(t, "Library", points[0].Name)
	assert.Equal(t, "Open late", points[0].Description)
	assert.Equal(t, 35.3020, points[0].Coordinate.Latitude)
	assert.Equal(t, -120.6638, points[0].Coordinate.Longitude)
	assert.Equal(t, 95.0, points[0].Coordinate.Altitude)

	assert.EqualValues(t, 8, points[1].ID)
	assert.Equal(t, "", points[1].Description)
	assert.Equal(t, 101.5, points[1].Coordinate.Altitude)
}

func TestDecodeGeoJSON_Errors(t *testing.T) {
	tests := map[string]string{
		"not json": `{"type": "FeatureCollection", "features": [`,
		"line": `{"type": "FeatureCollection", "features": [
		    {"type": "Feature", "id": 1, "geometry": {"type": "LineString", "coordinates": [[0,0],[1,1]]}, "properties": {}}]}`,
		"no id": `{"type": "FeatureCollection", "features": [
		    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [0,0]}, "properties": {"name": "x"}}]}`,
		"string id": `{"type": "FeatureCollection", "features": [
		    {"type": "Feature", "id": "a", "geometry": {"type": "Point", "coordinates": [0,0]}, "properties": {}}]}`,
	}
	for name, payload := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := DecodeGeoJSON([]byte(payload))
			assert.Error(t, err)
		})
	}
}
