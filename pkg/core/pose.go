package core

// Quaternion is a rotation in (x, y, z, w) order, matching the layout used by
// AR tracking providers.
type Quaternion struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
	W float64 `json:"w"`
}

// IdentityQuaternion is the no-rotation quaternion.
var IdentityQuaternion = Quaternion{W: 1}

// LocalPose is a rigid transform in the tracking subsystem's local frame.
type LocalPose struct {
	Translation [3]float64 `json:"translation"`
	Rotation    Quaternion `json:"rotation"`
}

// Tx returns the X component of the translation.
func (p LocalPose) Tx() float64 { return p.Translation[0] }

// Ty returns the Y component of the translation.
func (p LocalPose) Ty() float64 { return p.Translation[1] }

// Tz returns the Z component of the translation.
func (p LocalPose) Tz() float64 { return p.Translation[2] }

// GeospatialPose is the camera's Earth-relative pose. EastUpSouth is the
// camera orientation relative to East-Up-South axes.
type GeospatialPose struct {
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	Altitude    float64    `json:"altitude"`
	EastUpSouth Quaternion `json:"eastUpSouth"`
}

// Coordinate returns the pose position as a geodetic coordinate.
func (p GeospatialPose) Coordinate() GeodeticCoordinate {
	return GeodeticCoordinate{Latitude: p.Latitude, Longitude: p.Longitude, Altitude: p.Altitude}
}
