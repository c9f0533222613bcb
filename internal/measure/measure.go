// Package measure implements the route measurement tool: free-form
// polylines whose lengths, per-point breakdowns and voyage duration
// estimates are recomputed from scratch on every change. Nothing is
// cached; the unit and speed settings apply to all lines at read time.
package measure

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/iotlog/fleetengine/internal/geo"
	"github.com/iotlog/fleetengine/pkg/core"
)

// Line is one measured polyline.
type Line struct {
	ID     string
	Points []core.LatLng
}

// PointMetrics is the breakdown for a single point of a line. All
// distances are in the tracker's current unit.
type PointMetrics struct {
	Position     core.LatLng
	FromStart    float64
	FromPrevious float64
	ToNext       float64 // zero for the last point
}

// LineMetrics is the full measurement of one line under the tracker's
// current unit and speed settings.
type LineMetrics struct {
	ID       string
	Unit     geo.Unit
	Distance float64        // total, in Unit
	Meters   float64        // total, raw
	Hours    float64        // at the configured speed, zero when unset
	Days     float64        // Hours / 24
	Points   []PointMetrics // one entry per line point
}

// Tracker owns the measurement lines and the shared unit and speed
// settings.
type Tracker struct {
	mu         sync.Mutex
	lines      map[string]*Line
	order      []string
	unit       geo.Unit
	speedKnots float64
	logger     *slog.Logger
}

// NewTracker creates an empty tracker measuring in nautical miles.
func NewTracker(logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		lines:  make(map[string]*Line),
		unit:   geo.UnitNauticalMiles,
		logger: logger,
	}
}

// StartLine creates a new empty line and returns its id. An empty id
// gets a generated one.
func (t *Tracker) StartLine(id string) string {
	if id == "" {
		id = uuid.NewString()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, exists := t.lines[id]; !exists {
		t.lines[id] = &Line{ID: id}
		t.order = append(t.order, id)
	}
	return id
}

// AddPoint appends a point to a line, creating the line when needed.
func (t *Tracker) AddPoint(id string, p core.LatLng) string {
	if id == "" {
		id = uuid.NewString()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.lines[id]
	if !ok {
		line = &Line{ID: id}
		t.lines[id] = line
		t.order = append(t.order, id)
	}
	line.Points = append(line.Points, p)
	return id
}

// SetLine replaces a line's points wholesale, as when the drawing tool
// submits a finished polyline. The line is created when needed; an
// empty id gets a generated one.
func (t *Tracker) SetLine(id string, points []core.LatLng) string {
	if id == "" {
		id = uuid.NewString()
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.lines[id]
	if !ok {
		line = &Line{ID: id}
		t.lines[id] = line
		t.order = append(t.order, id)
	}
	line.Points = append([]core.LatLng(nil), points...)
	return id
}

// Line returns a copy of a line's points.
func (t *Tracker) Line(id string) ([]core.LatLng, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.lines[id]
	if !ok {
		return nil, false
	}
	return append([]core.LatLng(nil), line.Points...), true
}

// MovePoint repositions one point of a line, as when a measurement
// handle is dragged.
func (t *Tracker) MovePoint(id string, index int, p core.LatLng) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.lines[id]
	if !ok || index < 0 || index >= len(line.Points) {
		return false
	}
	line.Points[index] = p
	return true
}

// RemoveLine deletes one line.
func (t *Tracker) RemoveLine(id string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.lines[id]; !ok {
		return
	}
	delete(t.lines, id)
	for i, v := range t.order {
		if v == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Clear deletes every line. Unit and speed settings survive.
func (t *Tracker) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lines = make(map[string]*Line)
	t.order = nil
}

// SetUnit switches the display unit for all lines.
func (t *Tracker) SetUnit(u geo.Unit) {
	if u != geo.UnitNauticalMiles && u != geo.UnitKilometers {
		t.logger.Warn("ignoring unknown measurement unit", "unit", string(u))
		return
	}
	t.mu.Lock()
	t.unit = u
	t.mu.Unlock()
}

// Unit returns the current display unit.
func (t *Tracker) Unit() geo.Unit {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.unit
}

// SetSpeed sets the assumed vessel speed in knots for duration
// estimates. Zero disables the estimate; negatives are ignored.
func (t *Tracker) SetSpeed(knots float64) {
	if knots < 0 {
		t.logger.Warn("ignoring negative measurement speed", "knots", knots)
		return
	}
	t.mu.Lock()
	t.speedKnots = knots
	t.mu.Unlock()
}

// Speed returns the assumed speed in knots.
func (t *Tracker) Speed() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.speedKnots
}

// Len reports the number of lines.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.lines)
}

// Points reports the total point count across all lines.
func (t *Tracker) Points() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	total := 0
	for _, line := range t.lines {
		total += len(line.Points)
	}
	return total
}

// Metrics measures one line under the current settings.
func (t *Tracker) Metrics(id string) (LineMetrics, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	line, ok := t.lines[id]
	if !ok {
		return LineMetrics{}, false
	}
	return t.metricsLocked(line), true
}

// AllMetrics measures every line, in creation order.
func (t *Tracker) AllMetrics() []LineMetrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]LineMetrics, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.metricsLocked(t.lines[id]))
	}
	return out
}

func (t *Tracker) metricsLocked(line *Line) LineMetrics {
	meters := geo.PathLength(line.Points)
	m := LineMetrics{
		ID:       line.ID,
		Unit:     t.unit,
		Meters:   meters,
		Distance: geo.ConvertDistance(meters, t.unit),
		Hours:    geo.EstimatedDuration(line.Points, t.speedKnots),
	}
	m.Days = m.Hours / 24

	m.Points = make([]PointMetrics, len(line.Points))
	accum := 0.0
	for i, p := range line.Points {
		pm := PointMetrics{Position: p}
		if i > 0 {
			step := geo.PathLength(line.Points[i-1 : i+1])
			accum += step
			pm.FromPrevious = geo.ConvertDistance(step, t.unit)
		}
		pm.FromStart = geo.ConvertDistance(accum, t.unit)
		if i < len(line.Points)-1 {
			next := geo.PathLength(line.Points[i : i+2])
			pm.ToNext = geo.ConvertDistance(next, t.unit)
		}
		m.Points[i] = pm
	}
	return m
}
