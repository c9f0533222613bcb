// Package motion animates a single map marker along a timestamped
// path. Path time advances proportionally to wall-clock time scaled by
// a speed multiplier; every frame interpolates the marker between the
// two waypoints bracketing the current path time.
package motion

import (
	"sync"
	"time"

	"github.com/iotlog/fleetengine/internal/geo"
	"github.com/iotlog/fleetengine/internal/render"
	"github.com/iotlog/fleetengine/pkg/core"
)

// State of the engine.
type State int

const (
	StateReady State = iota
	StateMoving
	StatePaused
	StateEnded
)

// Waypoint is one timestamped point of the animation path.
type Waypoint struct {
	Time float64 // epoch seconds
	Pos  core.LatLng
}

// PathFromHistory converts route history tuples into a waypoint path,
// skipping tuples that carry no position.
func PathFromHistory(history []core.HistoryPoint) []Waypoint {
	path := make([]Waypoint, 0, len(history))
	for _, p := range history {
		pos, ok := p.LatLng()
		if !ok {
			continue
		}
		path = append(path, Waypoint{Time: p.Timestamp(), Pos: pos})
	}
	return path
}

// Options configures an Engine.
type Options struct {
	Rotation bool // orient the marker along its current segment
	Loop     bool
	Autoplay bool

	// Driver supplies frame callbacks. Defaults to a TickerDriver at
	// DefaultFrameInterval.
	Driver Driver

	// Marker is the rendered handle the engine moves. Optional; a nil
	// marker animates invisibly (useful headless).
	Marker render.Marker

	// OnSegment fires once per waypoint crossing with the waypoint's
	// index and original timestamp (epoch seconds), in order, even when
	// several waypoints fall inside one frame.
	OnSegment func(index int, timestamp float64)

	// OnEnd fires when the last waypoint is reached.
	OnEnd func()
}

// Engine owns one marker's motion along a path.
type Engine struct {
	mu sync.Mutex

	path  []Waypoint
	speed float64
	state State

	idx       int     // index of the segment start waypoint
	pathTime  float64 // path seconds elapsed past path[0].Time
	lastFrame time.Time
	haveFrame bool
	frames    uint64

	rotation bool
	loop     bool
	driver   Driver
	marker   render.Marker

	onSegment func(int, float64)
	onEnd     func()

	disposed bool
}

// New creates an engine over the given path. Paths of fewer than two
// points are legal; such an engine stays static and never emits.
// Non-positive speed multipliers fall back to 1.
func New(path []Waypoint, speed float64, opts Options) *Engine {
	if speed <= 0 {
		speed = 1
	}
	driver := opts.Driver
	if driver == nil {
		driver = NewTickerDriver(DefaultFrameInterval)
	}
	e := &Engine{
		path:      path,
		speed:     speed,
		state:     StateReady,
		rotation:  opts.Rotation,
		loop:      opts.Loop,
		driver:    driver,
		marker:    opts.Marker,
		onSegment: opts.OnSegment,
		onEnd:     opts.OnEnd,
	}
	if len(path) > 0 {
		e.placeLocked(path[0].Pos)
		e.orientLocked()
	}
	if opts.Autoplay {
		e.Start()
	}
	return e
}

// Start begins or resumes frame-driven motion from the current
// position. Starting an ended engine restarts from the first waypoint.
func (e *Engine) Start() {
	e.mu.Lock()
	if e.disposed || e.state == StateMoving || len(e.path) < 2 {
		e.mu.Unlock()
		return
	}
	if e.state == StateEnded {
		e.idx = 0
		e.pathTime = 0
		e.placeLocked(e.path[0].Pos)
		e.orientLocked()
	}
	e.state = StateMoving
	e.haveFrame = false
	e.mu.Unlock()

	e.driver.Start(e.step)
}

// Pause freezes the marker at its current interpolated position and
// cancels the pending frame callback. Resumable via Start without
// restarting from the beginning.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.disposed || e.state != StateMoving {
		e.mu.Unlock()
		return
	}
	e.state = StatePaused
	e.haveFrame = false
	e.mu.Unlock()

	e.driver.Stop()
}

// SetSpeed changes the multiplier relating path time to wall-clock
// time. Effective on the next frame, without resetting position.
// Non-positive values are ignored.
func (e *Engine) SetSpeed(multiplier float64) {
	if multiplier <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.speed = multiplier
}

// SeekTo repositions the marker to the given path timestamp (epoch
// seconds), clamped to the path bounds. Seeking emits no segment
// events: it is the out-of-band path for user scrubbing. Seeking an
// ended engine revives it into the paused state.
func (e *Engine) SeekTo(timestamp float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed || len(e.path) == 0 {
		return
	}

	first := e.path[0].Time
	last := e.path[len(e.path)-1].Time
	if timestamp < first {
		timestamp = first
	}
	if timestamp > last {
		timestamp = last
	}
	e.pathTime = timestamp - first

	e.idx = 0
	for e.idx < len(e.path)-1 && timestamp >= e.path[e.idx+1].Time {
		e.idx++
	}

	if e.state == StateEnded && timestamp < last {
		e.state = StatePaused
	}

	e.renderAtLocked(timestamp)
}

// Remove stops any pending frame callback and detaches the marker.
// Idempotent; safe before Start; no events fire after it returns.
func (e *Engine) Remove() {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		return
	}
	e.disposed = true
	e.state = StateEnded
	e.onSegment = nil
	e.onEnd = nil
	marker := e.marker
	e.marker = nil
	e.mu.Unlock()

	e.driver.Stop()
	if marker != nil {
		marker.Remove()
	}
}

// State returns the current engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// IsMoving reports whether frames are currently advancing the marker.
func (e *Engine) IsMoving() bool { return e.State() == StateMoving }

// IsEnded reports whether the last waypoint was reached.
func (e *Engine) IsEnded() bool { return e.State() == StateEnded }

// Frames returns the number of frames processed since construction.
func (e *Engine) Frames() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.frames
}

type segmentEvent struct {
	index     int
	timestamp float64
}

// step is the per-frame callback delivered by the driver.
func (e *Engine) step(now time.Time) {
	e.mu.Lock()
	if e.disposed || e.state != StateMoving {
		e.mu.Unlock()
		return
	}
	e.frames++

	var dt float64
	if e.haveFrame {
		dt = now.Sub(e.lastFrame).Seconds()
		if dt < 0 {
			dt = 0
		}
	}
	e.lastFrame = now
	e.haveFrame = true

	e.pathTime += dt * e.speed
	target := e.path[0].Time + e.pathTime

	// Cross every waypoint the frame skipped, collecting one event per
	// crossing so the timeline sees each of them in order.
	var crossed []segmentEvent
	for e.idx < len(e.path)-1 && target >= e.path[e.idx+1].Time {
		e.idx++
		crossed = append(crossed, segmentEvent{index: e.idx, timestamp: e.path[e.idx].Time})
	}

	var ended bool
	if e.idx >= len(e.path)-1 {
		e.placeLocked(e.path[len(e.path)-1].Pos)
		if e.loop {
			e.idx = 0
			e.pathTime = 0
			e.placeLocked(e.path[0].Pos)
			e.orientLocked()
		} else {
			e.state = StateEnded
			ended = true
		}
	} else {
		e.renderAtLocked(target)
	}

	onSegment := e.onSegment
	onEnd := e.onEnd
	e.mu.Unlock()

	if ended {
		e.driver.Stop()
	}
	if onSegment != nil {
		for _, ev := range crossed {
			onSegment(ev.index, ev.timestamp)
		}
	}
	if ended && onEnd != nil {
		onEnd()
	}
}

// renderAtLocked interpolates within the current segment for the given
// path timestamp and updates the marker. Caller holds e.mu.
func (e *Engine) renderAtLocked(target float64) {
	if e.idx >= len(e.path)-1 {
		e.placeLocked(e.path[len(e.path)-1].Pos)
		return
	}
	cur := e.path[e.idx]
	next := e.path[e.idx+1]

	span := next.Time - cur.Time
	var f float64
	if span > 0 {
		f = (target - cur.Time) / span
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}

	pos := core.LatLng{
		Lat: cur.Pos.Lat + (next.Pos.Lat-cur.Pos.Lat)*f,
		Lng: cur.Pos.Lng + (next.Pos.Lng-cur.Pos.Lng)*f,
	}
	e.placeLocked(pos)
	e.orientLocked()
}

func (e *Engine) placeLocked(pos core.LatLng) {
	if e.marker != nil {
		e.marker.SetPosition(pos)
	}
}

func (e *Engine) orientLocked() {
	if !e.rotation || e.marker == nil || e.idx >= len(e.path)-1 {
		return
	}
	e.marker.SetRotation(geo.Bearing(e.path[e.idx].Pos, e.path[e.idx+1].Pos))
}
