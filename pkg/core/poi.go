// pkg/core/poi.go
package core

// PointID identifies a point of interest. It is assigned when the point set is
// loaded and stays stable for the whole session; it is never derived from the
// display name.
type PointID int64

// GeodeticCoordinate is a WGS84 location. Latitude and longitude are in
// degrees, altitude in metres above the ellipsoid.
type GeodeticCoordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// PointOfInterest is a labelled place (typically a building) shown in the overlay.
type PointOfInterest struct {
	ID          PointID            `json:"id"`
	Name        string             `json:"name"`
	Description string             `json:"description"`
	Coordinate  GeodeticCoordinate `json:"coordinate"`
}
