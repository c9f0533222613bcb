package playback

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotlog/fleetengine/internal/render"
	"github.com/iotlog/fleetengine/pkg/core"
)

// recordingMap captures render calls for assertions.
type recordingMap struct {
	markers   map[string]*recordingMarker
	added     int
	polylines map[string][]core.LatLng
}

type recordingMarker struct {
	opts      render.MarkerOptions
	position  core.LatLng
	rotation  float64
	positions int
	removed   int
}

func newRecordingMap() *recordingMap {
	return &recordingMap{
		markers:   make(map[string]*recordingMarker),
		polylines: make(map[string][]core.LatLng),
	}
}

func (m *recordingMap) AddMarker(opts render.MarkerOptions) render.Marker {
	mk := &recordingMarker{opts: opts, position: opts.Position, rotation: opts.Rotation}
	m.markers[opts.ID] = mk
	m.added++
	return mk
}

func (m *recordingMap) RemoveMarker(id string) { delete(m.markers, id) }

func (m *recordingMap) SetPolyline(id string, points []core.LatLng) { m.polylines[id] = points }

func (m *recordingMap) RemovePolyline(id string) { delete(m.polylines, id) }

func (mk *recordingMarker) SetPosition(p core.LatLng) { mk.position = p; mk.positions++ }
func (mk *recordingMarker) SetRotation(deg float64)   { mk.rotation = deg }
func (mk *recordingMarker) Remove()                   { mk.removed++ }

func testSlices() []core.RegionTimeSlice {
	return []core.RegionTimeSlice{
		{Timestamp: 0, Vessels: []core.VesselSnapshot{
			{0.0, 10.0, 20.0, 8.5, 90.0, 92.0, "v1", "ALFA", "244660000", "TANKER", ""},
			{0.0, 11.0, 21.0, 0.0, 0.0, nil, "v2", "BRAVO", "244660001", "TUG", "TUG"},
		}},
		{Timestamp: 10, Vessels: []core.VesselSnapshot{
			{10.0, 10.1, 20.1, 8.5, 90.0, 92.0, "v1", "ALFA", "244660000", "TANKER", ""},
		}},
		{Timestamp: 20, Vessels: []core.VesselSnapshot{
			{20.0, 10.2, 20.2, 8.5, 90.0, 92.0, "v1", "ALFA", "244660000", "TANKER", ""},
		}},
	}
}

func TestSliceAt_ForwardScan(t *testing.T) {
	slices := testSlices()

	sl, ok := SliceAt(slices, 0)
	require.True(t, ok)
	assert.Equal(t, 0.0, sl.Timestamp)

	// Between slices the next one wins, never the previous.
	sl, ok = SliceAt(slices, 15000)
	require.True(t, ok)
	assert.Equal(t, 20.0, sl.Timestamp)

	sl, ok = SliceAt(slices, 20000)
	require.True(t, ok)
	assert.Equal(t, 20.0, sl.Timestamp)

	_, ok = SliceAt(slices, 25000)
	assert.False(t, ok, "no slice past the last timestamp")

	_, ok = SliceAt(nil, 0)
	assert.False(t, ok)
}

func newRegionFixture(t *testing.T) (*Session, *RegionRenderer, *recordingMap) {
	t.Helper()
	s := NewSession(nil)
	m := newRecordingMap()
	r := NewRegionRenderer(s, RegionConfig{Map: m, ShowNames: true})
	t.Cleanup(r.Close)

	slices := testSlices()
	startMs, endMs, ok := core.TimeBoundsMillisRegion(slices)
	require.True(t, ok)
	s.SetRegionData(slices, startMs, endMs)
	return s, r, m
}

func TestRegionRenderer_ActivationRendersFirstSlice(t *testing.T) {
	s, _, m := newRegionFixture(t)

	s.SetActive(true, TypeRegion)

	require.Len(t, m.markers, 2)
	v1 := m.markers["vessel-v1"]
	require.NotNil(t, v1)
	assert.Equal(t, core.LatLng{Lat: 10, Lng: 20}, v1.position)
	assert.Equal(t, 92.0, v1.rotation, "heading wins over course")
	assert.Equal(t, "ALFA", v1.opts.Label)
	assert.Equal(t, colorTanker, v1.opts.Color)

	v2 := m.markers["vessel-v2"]
	require.NotNil(t, v2)
	assert.Equal(t, 0.0, v2.rotation, "course fallback when heading missing")
	assert.Equal(t, colorTug, v2.opts.Color)
}

func TestRegionRenderer_CursorMoveReusesAndPrunesMarkers(t *testing.T) {
	s, r, m := newRegionFixture(t)
	s.SetActive(true, TypeRegion)
	require.Equal(t, 2, m.added)

	v1 := m.markers["vessel-v1"]
	v2 := m.markers["vessel-v2"]

	// Slice t=10 only carries v1: v1 moves in place, v2 is pruned.
	s.SetTime(10000, FromUser)

	assert.Equal(t, 2, m.added, "existing markers must be reused, not recreated")
	assert.Equal(t, core.LatLng{Lat: 10.1, Lng: 20.1}, v1.position)
	assert.Equal(t, 1, v2.removed)
	assert.Equal(t, 1, r.cfg.Markers.Len())
}

func TestRegionRenderer_CountsRenderPasses(t *testing.T) {
	s, r, _ := newRegionFixture(t)
	assert.Equal(t, 0, r.Passes())

	s.SetActive(true, TypeRegion)
	assert.Equal(t, 1, r.Passes())

	s.SetTime(10000, FromUser)
	assert.Equal(t, 2, r.Passes())
}

func TestRegionRenderer_PastLastSliceRemovesEverything(t *testing.T) {
	s, r, _ := newRegionFixture(t)
	s.SetActive(true, TypeRegion)
	require.Equal(t, 2, r.cfg.Markers.Len())

	// Bounds run to 20s but no slice covers a later cursor here, so
	// force an out-of-range render directly.
	r.renderAt(25000)

	assert.Equal(t, 0, r.cfg.Markers.Len())
}

func TestRegionRenderer_DeactivationClearsMarkers(t *testing.T) {
	s, r, _ := newRegionFixture(t)
	s.SetActive(true, TypeRegion)
	require.Equal(t, 2, r.cfg.Markers.Len())

	s.SetActive(false, TypeRegion)

	assert.Equal(t, 0, r.cfg.Markers.Len())
}

func TestRegionRenderer_SkipsDarkAndUnidentifiedVessels(t *testing.T) {
	s := NewSession(nil)
	m := newRecordingMap()
	r := NewRegionRenderer(s, RegionConfig{Map: m})
	t.Cleanup(r.Close)

	slices := []core.RegionTimeSlice{
		{Timestamp: 0, Vessels: []core.VesselSnapshot{
			{0.0, nil, nil, nil, nil, nil, "dark", "DARK", "1", "", ""},
			{0.0, 1.0, 2.0, nil, nil, nil, nil, "NOID", "2", "", ""},
			{0.0, 1.0, 2.0, nil, nil, nil, "ok", "OK", "3", "", ""},
		}},
	}
	s.SetRegionData(slices, 0, 0)
	s.SetActive(true, TypeRegion)

	assert.Len(t, m.markers, 1)
	assert.NotNil(t, m.markers["vessel-ok"])
}

func TestClassColor(t *testing.T) {
	assert.Equal(t, colorTanker, ClassColor("TANKER", ""))
	assert.Equal(t, colorCargo, ClassColor("cargo_ship", ""))
	assert.Equal(t, colorPilot, ClassColor("OTHER", "PLT"))
	assert.Equal(t, colorAton, ClassColor("ATON", ""))
	assert.Equal(t, colorDefault, ClassColor("SOMETHING_ELSE", ""))
	assert.Equal(t, colorDefault, ClassColor("", ""))
}
