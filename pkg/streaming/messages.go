package streaming

import (
	"encoding/json"

	"github.com/snar-ar/overlay/pkg/core"
)

// Message type constants matching the renderer protocol.
const (
	TypeSessionStart     = "session_start"
	TypeSessionEnd       = "session_end"
	TypeAnnotationCreate = "annotation_create"
	TypeAnnotationUpdate = "annotation_update"
	TypeAnnotationRetire = "annotation_retire"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the renderer's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// SessionStartPayload announces the overlay session to the renderer. The
// renderer discards every widget it holds when it receives one; the creates
// that follow rebuild the live set.
type SessionStartPayload struct {
	Session  string        `json:"session"`
	Viewport core.Viewport `json:"viewport"`
}

// AnnotationPayload carries one widget operation. Create fills every field;
// update omits PointID; retire only sets Handle.
type AnnotationPayload struct {
	Handle    core.AnnotationHandle `json:"handle"`
	PointID   core.PointID          `json:"pointId,omitempty"`
	ScreenX   float64               `json:"x"`
	ScreenY   float64               `json:"y"`
	Text      string                `json:"text,omitempty"`
	TextScale float64               `json:"scale,omitempty"`
}
