package core

// AnnotationHandle is an opaque reference to a live on-screen label owned by
// the rendering collaborator.
type AnnotationHandle string

// ProjectedPoint is a point of interest placed on screen for one frame.
// Screen coordinates are pixels with the origin at the top-left.
type ProjectedPoint struct {
	PointID        PointID `json:"pointId"`
	ScreenX        float64 `json:"screenX"`
	ScreenY        float64 `json:"screenY"`
	DistanceMeters float64 `json:"distanceMeters"`
	Visible        bool    `json:"visible"`
	TextScale      float64 `json:"textScale"`
	Text           string  `json:"text"`
}
