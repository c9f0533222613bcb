package streaming

import (
	"encoding/json"

	"github.com/iotlog/fleetengine/pkg/core"
)

// Message type constants matching the render streaming protocol.
const (
	TypeHello          = "hello"
	TypeGoodbye        = "goodbye"
	TypeMarkerUpsert   = "marker_upsert"
	TypeMarkerRemove   = "marker_remove"
	TypePolylineSet    = "polyline_set"
	TypePolylineRemove = "polyline_remove"
	TypePlaybackTime   = "playback_time"
)

// Envelope wraps all messages sent over the WebSocket.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// AckMessage is the server's acknowledgement response.
type AckMessage struct {
	Type string `json:"type"` // always "ack"
	For  string `json:"for"`  // the message type being acknowledged
}

// HelloPayload identifies the engine instance to the render server.
type HelloPayload struct {
	Engine  string `json:"engine"`
	Version string `json:"version"`
}

// PointXY is a projected Web Mercator (EPSG:3857) coordinate in meters.
type PointXY struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// MarkerUpsertPayload creates or moves a marker on the browser map.
// Positions are carried in both WGS84 and Web Mercator so clients
// without projection support can place markers directly.
type MarkerUpsertPayload struct {
	ID       string      `json:"id"`
	Position core.LatLng `json:"position"`
	Mercator PointXY     `json:"mercator"`
	Color    string      `json:"color,omitempty"`
	Rotation float64     `json:"rotation"`
	Label    string      `json:"label,omitempty"`
	Popup    string      `json:"popup,omitempty"`
}

// MarkerRemovePayload deletes a marker from the browser map.
type MarkerRemovePayload struct {
	ID string `json:"id"`
}

// PolylineSetPayload draws or replaces a polyline. Mercator carries the
// same points projected to EPSG:3857.
type PolylineSetPayload struct {
	ID       string        `json:"id"`
	Points   []core.LatLng `json:"points"`
	Mercator []PointXY     `json:"mercator"`
}

// PolylineRemovePayload deletes a polyline.
type PolylineRemovePayload struct {
	ID string `json:"id"`
}

// PlaybackTimePayload mirrors the playback cursor to the scrubber UI.
type PlaybackTimePayload struct {
	CurrentTime int64   `json:"currentTime"` // epoch millis
	Playing     bool    `json:"playing"`
	Speed       float64 `json:"speed"`
}
