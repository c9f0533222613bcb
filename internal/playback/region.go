package playback

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/iotlog/fleetengine/internal/cache"
	"github.com/iotlog/fleetengine/internal/render"
	"github.com/iotlog/fleetengine/pkg/core"
)

// Vessel marker colors by class. Classes outside the table fall back
// to the default vessel color.
const (
	colorDefault   = "#2cb9f3"
	colorTanker    = "#d9534f"
	colorCargo     = "#f0ad4e"
	colorPassenger = "#5cb85c"
	colorFishing   = "#9b59b6"
	colorTug       = "#e67e22"
	colorPilot     = "#17a2b8"
	colorAton      = "#777777"
)

// RegionConfig configures a RegionRenderer.
type RegionConfig struct {
	Map       render.Map
	Markers   *cache.VesselCache
	ShowNames bool
	Logger    *slog.Logger
}

// RegionRenderer draws the fleet snapshot for the current cursor
// position. Every cursor move selects the first time slice at or after
// the cursor and renders exactly that slice; vessels absent from it
// have their markers removed.
type RegionRenderer struct {
	session *Session
	cfg     RegionConfig
	unsub   func()
	passes  cache.SafeCounter
}

// NewRegionRenderer wires a renderer to the session.
func NewRegionRenderer(session *Session, cfg RegionConfig) *RegionRenderer {
	if cfg.Map == nil {
		cfg.Map = render.NopMap{}
	}
	if cfg.Markers == nil {
		cfg.Markers = cache.NewVesselCache()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	r := &RegionRenderer{session: session, cfg: cfg}
	r.unsub = session.Subscribe(r.handle)
	return r
}

func (r *RegionRenderer) handle(ch Change) {
	snap := r.session.Snapshot()
	switch ch.Kind {
	case Activated:
		if snap.Type == TypeRegion {
			r.renderAt(snap.CurrentTime)
		} else {
			r.cfg.Markers.Reset()
		}
	case Deactivated:
		r.cfg.Markers.Reset()
	case TimeChanged:
		if snap.Active && snap.Type == TypeRegion {
			r.renderAt(snap.CurrentTime)
		}
	}
}

// Passes reports how many render passes have run, for the status
// monitor.
func (r *RegionRenderer) Passes() int {
	return r.passes.Value()
}

// renderAt selects the slice for the cursor and reconciles markers
// against it.
func (r *RegionRenderer) renderAt(cursorMs int64) {
	r.passes.Inc()
	slice, ok := SliceAt(r.session.RegionSlices(), cursorMs)
	if !ok {
		// Past the last slice there is nothing to show.
		r.cfg.Markers.Reset()
		return
	}

	seen := make(map[string]bool, len(slice.Vessels))
	for _, v := range slice.Vessels {
		pos, hasPos := v.LatLng()
		if !hasPos {
			continue
		}
		id := v.VesselID()
		if id == "" {
			continue
		}
		seen[id] = true

		if mk, cached := r.cfg.Markers.Get(id); cached {
			mk.SetPosition(pos)
			mk.SetRotation(v.Orientation())
			continue
		}

		opts := render.MarkerOptions{
			ID:       "vessel-" + id,
			Position: pos,
			Color:    ClassColor(v.Class(), v.Type()),
			Rotation: v.Orientation(),
			Popup:    vesselPopup(v),
		}
		if r.cfg.ShowNames {
			opts.Label = v.Name()
		}
		r.cfg.Markers.Set(id, r.cfg.Map.AddMarker(opts))
	}

	for _, id := range r.cfg.Markers.IDs() {
		if seen[id] {
			continue
		}
		if mk, ok := r.cfg.Markers.Get(id); ok {
			mk.Remove()
		}
		r.cfg.Markers.Delete(id)
	}
}

// Close detaches the renderer from the session and clears its markers.
func (r *RegionRenderer) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
	r.cfg.Markers.Reset()
}

// SliceAt returns the first slice whose timestamp, in millis, is at or
// after the cursor. Slices are ordered by timestamp, so the scan stops
// at the first hit. No slice qualifies once the cursor passes the last
// timestamp.
func SliceAt(slices []core.RegionTimeSlice, cursorMs int64) (core.RegionTimeSlice, bool) {
	for _, sl := range slices {
		if int64(sl.Timestamp*1000) >= cursorMs {
			return sl, true
		}
	}
	return core.RegionTimeSlice{}, false
}

// ClassColor maps a vessel class to its marker color. The pilot branch
// keys on ship type because pilot boats report a generic class.
func ClassColor(class, shipType string) string {
	if strings.EqualFold(shipType, "PLT") {
		return colorPilot
	}
	switch strings.ToUpper(class) {
	case "TANKER":
		return colorTanker
	case "CARGO_SHIP":
		return colorCargo
	case "PASSENGER_SHIP":
		return colorPassenger
	case "FISHING":
		return colorFishing
	case "TUG":
		return colorTug
	case "ATON":
		return colorAton
	default:
		return colorDefault
	}
}

func vesselPopup(v core.VesselSnapshot) string {
	var b strings.Builder
	if name := v.Name(); name != "" {
		fmt.Fprintf(&b, "%s\n", name)
	}
	if mmsi := v.MMSI(); mmsi != "" {
		fmt.Fprintf(&b, "MMSI %s\n", mmsi)
	}
	if speed, ok := v.Speed(); ok {
		fmt.Fprintf(&b, "%.1f kn", speed)
		if course, ok := v.Course(); ok {
			fmt.Fprintf(&b, " @ %.0f°", course)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
