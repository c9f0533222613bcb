package ws

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/iotlog/fleetengine/internal/geo"
	"github.com/iotlog/fleetengine/internal/render"
	"github.com/iotlog/fleetengine/pkg/core"
	"github.com/iotlog/fleetengine/pkg/streaming"
)

// Config holds WebSocket renderer configuration.
type Config struct {
	URL     string
	Secret  string
	Engine  string
	Version string
}

// Renderer forwards map drawing commands to the browser over a
// WebSocket. It implements render.Map; every command is fire-and-forget
// so a slow or absent browser never stalls playback.
type Renderer struct {
	conn *connection
	cfg  Config

	mu      sync.Mutex
	markers map[string]*wsMarker
}

// New creates a WebSocket renderer. Call Init before using it.
func New(cfg Config, logger *slog.Logger) *Renderer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Renderer{
		conn:    newConnection(logger),
		cfg:     cfg,
		markers: make(map[string]*wsMarker),
	}
}

// Init connects to the render server and waits for the hello ack.
func (r *Renderer) Init() error {
	if err := r.conn.dial(r.cfg.URL, r.cfg.Secret); err != nil {
		return err
	}

	data, err := marshalEnvelope(streaming.TypeHello, streaming.HelloPayload{
		Engine:  r.cfg.Engine,
		Version: r.cfg.Version,
	})
	if err != nil {
		return err
	}

	// Cache for reconnect replay.
	r.conn.mu.Lock()
	r.conn.cachedHello = data
	r.conn.mu.Unlock()

	return r.conn.sendAndWait(data, streaming.TypeHello, ackTimeout)
}

// Close announces shutdown and disconnects. The goodbye is written
// synchronously so it is not lost to the draining send queue.
func (r *Renderer) Close() error {
	if data, err := marshalEnvelope(streaming.TypeGoodbye, nil); err == nil {
		_ = r.conn.sendNow(data)
	}
	return r.conn.close()
}

// marshalEnvelope builds a JSON-encoded Envelope from a message type and payload.
func marshalEnvelope(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", msgType, err)
	}
	env := streaming.Envelope{Type: msgType, Payload: raw}
	data, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", msgType, err)
	}
	return data, nil
}

// sendEnvelope marshals the payload into an Envelope and pushes it
// to the write loop (fire-and-forget).
func (r *Renderer) sendEnvelope(msgType string, payload any) error {
	data, err := marshalEnvelope(msgType, payload)
	if err != nil {
		return err
	}
	r.conn.send(data)
	return nil
}

// AddMarker places a marker and returns its handle. An existing marker
// with the same id is replaced server-side by the upsert.
func (r *Renderer) AddMarker(opts render.MarkerOptions) render.Marker {
	m := &wsMarker{r: r, opts: opts}
	r.mu.Lock()
	r.markers[opts.ID] = m
	r.mu.Unlock()
	m.upsert()
	return m
}

// RemoveMarker deletes a marker by id.
func (r *Renderer) RemoveMarker(id string) {
	r.mu.Lock()
	delete(r.markers, id)
	r.mu.Unlock()
	_ = r.sendEnvelope(streaming.TypeMarkerRemove, streaming.MarkerRemovePayload{ID: id})
}

// SetPolyline draws or replaces a polyline.
func (r *Renderer) SetPolyline(id string, points []core.LatLng) {
	if points == nil {
		points = []core.LatLng{}
	}
	mercator := make([]streaming.PointXY, len(points))
	for i, p := range points {
		mercator[i] = project(p)
	}
	_ = r.sendEnvelope(streaming.TypePolylineSet, streaming.PolylineSetPayload{
		ID:       id,
		Points:   points,
		Mercator: mercator,
	})
}

// RemovePolyline deletes a polyline by id.
func (r *Renderer) RemovePolyline(id string) {
	_ = r.sendEnvelope(streaming.TypePolylineRemove, streaming.PolylineRemovePayload{ID: id})
}

// PublishTime mirrors the playback cursor to the scrubber UI.
func (r *Renderer) PublishTime(currentTimeMs int64, playing bool, speed float64) {
	_ = r.sendEnvelope(streaming.TypePlaybackTime, streaming.PlaybackTimePayload{
		CurrentTime: currentTimeMs,
		Playing:     playing,
		Speed:       speed,
	})
}

// wsMarker is the handle for one streamed marker. Position and rotation
// changes re-send the full upsert so reconnecting browsers converge on
// current state.
type wsMarker struct {
	r    *Renderer
	mu   sync.Mutex
	opts render.MarkerOptions
}

func (m *wsMarker) upsert() {
	m.mu.Lock()
	payload := streaming.MarkerUpsertPayload{
		ID:       m.opts.ID,
		Position: m.opts.Position,
		Mercator: project(m.opts.Position),
		Color:    m.opts.Color,
		Rotation: m.opts.Rotation,
		Label:    m.opts.Label,
		Popup:    m.opts.Popup,
	}
	m.mu.Unlock()
	_ = m.r.sendEnvelope(streaming.TypeMarkerUpsert, payload)
}

func (m *wsMarker) SetPosition(pos core.LatLng) {
	m.mu.Lock()
	m.opts.Position = pos
	m.mu.Unlock()
	m.upsert()
}

func (m *wsMarker) SetRotation(deg float64) {
	m.mu.Lock()
	m.opts.Rotation = deg
	m.mu.Unlock()
	m.upsert()
}

func (m *wsMarker) Remove() {
	m.r.RemoveMarker(m.opts.ID)
}

func project(p core.LatLng) streaming.PointXY {
	x, y := geo.Project3857(p)
	return streaming.PointXY{X: x, Y: y}
}
