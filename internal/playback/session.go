// Package playback holds the shared playback session and the two
// rendering strategies over it: continuous route playback of a single
// vessel and discrete region playback of many.
package playback

import (
	"log/slog"
	"sync"

	"github.com/iotlog/fleetengine/pkg/core"
)

// Type selects the rendering strategy of an active session.
type Type string

const (
	TypeRoute  Type = "route"
	TypeRegion Type = "region"
)

// TimeOrigin tags who moved the cursor. Engine-originated updates must
// never be fed back into the engine, or the scrubber and the animation
// chase each other.
type TimeOrigin int

const (
	FromUser TimeOrigin = iota
	FromEngine
)

// SpeedCycle is the closed set of playback speed multipliers, in the
// order the transport cycles through them.
var SpeedCycle = []float64{1, 5, 10, 20, 50, 100}

// ChangeKind identifies a session transition.
type ChangeKind int

const (
	Activated ChangeKind = iota
	Deactivated
	TimeChanged
	PlayChanged
	SpeedChanged
)

// Change is delivered to subscribers after a session transition.
type Change struct {
	Kind   ChangeKind
	Origin TimeOrigin // meaningful for TimeChanged only
}

// Snapshot is a point-in-time copy of the session fields.
type Snapshot struct {
	Active      bool
	Type        Type
	StartTime   int64 // epoch millis
	EndTime     int64
	CurrentTime int64
	Playing     bool
	Speed       float64
}

// Session is the single shared playback state. Writers are the
// transport (user input) and the route controller (engine progress);
// everything else reads snapshots.
type Session struct {
	mu sync.Mutex

	active  bool
	typ     Type
	route   []core.HistoryPoint
	region  []core.RegionTimeSlice
	startMs int64
	endMs   int64
	nowMs   int64
	playing bool
	speed   float64

	subs    map[int]func(Change)
	nextSub int

	logger *slog.Logger
}

// NewSession creates an inactive session.
func NewSession(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		speed:  SpeedCycle[0],
		subs:   make(map[int]func(Change)),
		logger: logger,
	}
}

// Subscribe registers a change listener and returns its unsubscribe
// function. Listeners are invoked outside the session lock, in the
// order changes were applied.
func (s *Session) Subscribe(fn func(Change)) (unsubscribe func()) {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Session) notifyLocked() []func(Change) {
	fns := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	return fns
}

func emit(fns []func(Change), ch Change) {
	for _, fn := range fns {
		fn(ch)
	}
}

// Snapshot returns a copy of the current session fields.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Active:      s.active,
		Type:        s.typ,
		StartTime:   s.startMs,
		EndTime:     s.endMs,
		CurrentTime: s.nowMs,
		Playing:     s.playing,
		Speed:       s.speed,
	}
}

// RouteHistory returns the loaded route history. Read-only: history is
// never mutated once assigned to a session.
func (s *Session) RouteHistory() []core.HistoryPoint {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.route
}

// RegionSlices returns the loaded region slices. Read-only.
func (s *Session) RegionSlices() []core.RegionTimeSlice {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.region
}

// SetRouteData stages a route history and its scrubber bounds. Fully
// replaces any previously loaded data.
func (s *Session) SetRouteData(history []core.HistoryPoint, startMs, endMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.route = history
	s.region = nil
	s.startMs = startMs
	s.endMs = endMs
}

// SetRegionData stages region slices and their scrubber bounds.
func (s *Session) SetRegionData(slices []core.RegionTimeSlice, startMs, endMs int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.region = slices
	s.route = nil
	s.startMs = startMs
	s.endMs = endMs
}

// SetActive enters or leaves the active state. Activation resets the
// cursor to the start bound and pauses. Switching type while active is
// not a legal transition; the caller must deactivate first.
func (s *Session) SetActive(active bool, typ Type) {
	s.mu.Lock()
	if active {
		if s.active && s.typ != typ {
			s.logger.Warn("rejecting playback type switch while active",
				"current", string(s.typ), "requested", string(typ))
			s.mu.Unlock()
			return
		}
		s.active = true
		s.typ = typ
		s.nowMs = s.startMs
		s.playing = false
		fns := s.notifyLocked()
		s.mu.Unlock()
		emit(fns, Change{Kind: Activated})
		return
	}

	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	s.typ = ""
	s.route = nil
	s.region = nil
	s.startMs = 0
	s.endMs = 0
	s.nowMs = 0
	s.playing = false
	s.speed = SpeedCycle[0]
	fns := s.notifyLocked()
	s.mu.Unlock()
	emit(fns, Change{Kind: Deactivated})
}

// TogglePlay flips the playing flag. No effect while inactive.
func (s *Session) TogglePlay() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.playing = !s.playing
	fns := s.notifyLocked()
	s.mu.Unlock()
	emit(fns, Change{Kind: PlayChanged})
}

// SetTime moves the cursor, clamped to the session bounds. The origin
// tag tells the route controller whether a re-seek of the motion
// engine is required (user scrub) or forbidden (engine progress).
func (s *Session) SetTime(ms int64, origin TimeOrigin) {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	if ms < s.startMs {
		ms = s.startMs
	}
	if ms > s.endMs {
		ms = s.endMs
	}
	s.nowMs = ms
	fns := s.notifyLocked()
	s.mu.Unlock()
	emit(fns, Change{Kind: TimeChanged, Origin: origin})
}

// SetSpeed sets the playback multiplier. Values outside SpeedCycle are
// rejected so invalid speeds cannot enter the session through the
// transport.
func (s *Session) SetSpeed(multiplier float64) {
	if !allowedSpeed(multiplier) {
		s.mu.Lock()
		logger := s.logger
		s.mu.Unlock()
		logger.Warn("rejecting playback speed outside cycle", "speed", multiplier)
		return
	}
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.speed = multiplier
	fns := s.notifyLocked()
	s.mu.Unlock()
	emit(fns, Change{Kind: SpeedChanged})
}

// CycleSpeed advances to the next multiplier in SpeedCycle, wrapping
// after the last one.
func (s *Session) CycleSpeed() {
	s.mu.Lock()
	current := s.speed
	s.mu.Unlock()

	next := SpeedCycle[0]
	for i, v := range SpeedCycle {
		if v == current {
			next = SpeedCycle[(i+1)%len(SpeedCycle)]
			break
		}
	}
	s.SetSpeed(next)
}

func allowedSpeed(v float64) bool {
	for _, s := range SpeedCycle {
		if s == v {
			return true
		}
	}
	return false
}
