package playback

import (
	"log/slog"
	"sync"

	"github.com/iotlog/fleetengine/internal/motion"
	"github.com/iotlog/fleetengine/internal/render"
	"github.com/iotlog/fleetengine/pkg/core"
)

// RouteMarkerID is the map id of the single animated vessel marker.
const RouteMarkerID = "playback-vessel"

// RoutePolylineID is the map id of the traversed route overlay.
const RoutePolylineID = "playback-route"

// RouteConfig configures a RouteController.
type RouteConfig struct {
	Map         render.Map
	MarkerColor string
	// NewDriver builds the frame driver for each engine instance. Nil
	// means a wall-clock ticker; tests inject a manual driver.
	NewDriver func() motion.Driver
	Logger    *slog.Logger
}

// RouteController owns the motion engine while a route session is
// active. It reacts to session changes and reports engine progress
// back, tagged FromEngine so scrubber updates are never re-seeked.
type RouteController struct {
	session *Session
	cfg     RouteConfig

	mu     sync.Mutex
	engine *motion.Engine
	unsub  func()
}

// NewRouteController wires a controller to the session. Close releases
// the subscription and any live engine.
func NewRouteController(session *Session, cfg RouteConfig) *RouteController {
	if cfg.Map == nil {
		cfg.Map = render.NopMap{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	c := &RouteController{session: session, cfg: cfg}
	c.unsub = session.Subscribe(c.handle)
	return c
}

func (c *RouteController) handle(ch Change) {
	switch ch.Kind {
	case Activated:
		if c.session.Snapshot().Type == TypeRoute {
			c.build()
		} else {
			c.teardown()
		}
	case Deactivated:
		c.teardown()
	case PlayChanged:
		c.mu.Lock()
		eng := c.engine
		c.mu.Unlock()
		if eng == nil {
			return
		}
		if c.session.Snapshot().Playing {
			eng.Start()
		} else {
			eng.Pause()
		}
	case SpeedChanged:
		c.mu.Lock()
		eng := c.engine
		c.mu.Unlock()
		if eng != nil {
			eng.SetSpeed(c.session.Snapshot().Speed)
		}
	case TimeChanged:
		if ch.Origin != FromUser {
			return
		}
		c.mu.Lock()
		eng := c.engine
		c.mu.Unlock()
		if eng != nil {
			eng.SeekTo(float64(c.session.Snapshot().CurrentTime) / 1000.0)
		}
	}
}

func (c *RouteController) build() {
	c.teardown()

	history := c.session.RouteHistory()
	path := motion.PathFromHistory(history)
	if len(path) == 0 {
		c.cfg.Logger.Warn("route playback activated with no positioned history")
		return
	}

	snap := c.session.Snapshot()
	marker := c.cfg.Map.AddMarker(render.MarkerOptions{
		ID:       RouteMarkerID,
		Position: path[0].Pos,
		Color:    c.cfg.MarkerColor,
		Rotation: 0,
	})

	var driver motion.Driver
	if c.cfg.NewDriver != nil {
		driver = c.cfg.NewDriver()
	}

	eng := motion.New(path, snap.Speed, motion.Options{
		Rotation: true,
		Driver:   driver,
		Marker:   marker,
		OnSegment: func(_ int, timestamp float64) {
			c.session.SetTime(int64(timestamp*1000), FromEngine)
		},
		OnEnd: func() {
			c.session.TogglePlay()
		},
	})

	route := routePoints(path)
	c.cfg.Map.SetPolyline(RoutePolylineID, route)

	c.mu.Lock()
	c.engine = eng
	c.mu.Unlock()
	c.cfg.Logger.Info("route playback engine created",
		"waypoints", len(path), "speed", snap.Speed)
}

func (c *RouteController) teardown() {
	c.mu.Lock()
	eng := c.engine
	c.engine = nil
	c.mu.Unlock()
	if eng != nil {
		eng.Remove()
		c.cfg.Map.RemovePolyline(RoutePolylineID)
	}
}

func routePoints(path []motion.Waypoint) []core.LatLng {
	pts := make([]core.LatLng, len(path))
	for i, wp := range path {
		pts[i] = wp.Pos
	}
	return pts
}

// Engine exposes the live motion engine, nil while no route session is
// active.
func (c *RouteController) Engine() *motion.Engine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.engine
}

// Close detaches the controller from the session.
func (c *RouteController) Close() {
	if c.unsub != nil {
		c.unsub()
		c.unsub = nil
	}
	c.teardown()
}
