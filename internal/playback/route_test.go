package playback

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iotlog/fleetengine/internal/motion"
	"github.com/iotlog/fleetengine/pkg/core"
)

func newRouteFixture(t *testing.T) (*Session, *RouteController, *recordingMap, *motion.ManualDriver) {
	t.Helper()
	s := NewSession(nil)
	m := newRecordingMap()
	driver := motion.NewManualDriver()
	c := NewRouteController(s, RouteConfig{
		Map:       m,
		NewDriver: func() motion.Driver { return driver },
	})
	t.Cleanup(c.Close)

	history := testHistory()
	startMs, endMs, ok := core.TimeBoundsMillis(history)
	require.True(t, ok)
	s.SetRouteData(history, startMs, endMs)
	return s, c, m, driver
}

func TestRouteController_ActivationBuildsEngineAndOverlay(t *testing.T) {
	s, c, m, driver := newRouteFixture(t)

	require.Nil(t, c.Engine())
	s.SetActive(true, TypeRoute)

	require.NotNil(t, c.Engine())
	assert.False(t, driver.Running(), "engine must wait for play")

	mk := m.markers[RouteMarkerID]
	require.NotNil(t, mk)
	assert.Equal(t, core.LatLng{Lat: 0, Lng: 0}, mk.position)

	line := m.polylines[RoutePolylineID]
	require.Len(t, line, 3)
	assert.Equal(t, core.LatLng{Lat: 0.2, Lng: 0}, line[2])
}

func TestRouteController_PlayPauseDrivesEngine(t *testing.T) {
	s, _, _, driver := newRouteFixture(t)
	s.SetActive(true, TypeRoute)

	s.TogglePlay()
	assert.True(t, driver.Running())

	s.TogglePlay()
	assert.False(t, driver.Running())
}

func TestRouteController_EngineProgressUpdatesCursorWithoutFeedback(t *testing.T) {
	s, c, m, driver := newRouteFixture(t)
	s.SetActive(true, TypeRoute)
	s.TogglePlay()

	now := time.Unix(50000, 0)
	driver.Tick(now)
	// 11 path seconds: crosses the first waypoint boundary.
	driver.Tick(now.Add(11 * time.Second))

	assert.Equal(t, int64(1010000), s.Snapshot().CurrentTime)

	// The engine kept its own interpolated position: a feedback
	// re-seek would have snapped it back onto the waypoint.
	mk := m.markers[RouteMarkerID]
	assert.InDelta(t, 0.11, mk.position.Lat, 1e-9)
	assert.Equal(t, uint64(2), c.Engine().Frames())
}

func TestRouteController_UserScrubSeeksEngine(t *testing.T) {
	s, _, m, driver := newRouteFixture(t)
	s.SetActive(true, TypeRoute)

	s.SetTime(1015000, FromUser)

	mk := m.markers[RouteMarkerID]
	assert.InDelta(t, 0.15, mk.position.Lat, 1e-9)
	assert.False(t, driver.Running())
}

func TestRouteController_MotionEndPausesSession(t *testing.T) {
	s, c, _, driver := newRouteFixture(t)
	s.SetActive(true, TypeRoute)
	s.TogglePlay()

	now := time.Unix(50000, 0)
	driver.Tick(now)
	driver.Tick(now.Add(time.Hour))

	assert.True(t, c.Engine().IsEnded())
	assert.False(t, s.Snapshot().Playing)
	assert.Equal(t, int64(1020000), s.Snapshot().CurrentTime)
}

func TestRouteController_SpeedChangePropagates(t *testing.T) {
	s, _, m, driver := newRouteFixture(t)
	s.SetActive(true, TypeRoute)
	s.SetSpeed(10)
	s.TogglePlay()

	now := time.Unix(50000, 0)
	driver.Tick(now)
	driver.Tick(now.Add(500 * time.Millisecond))

	// Half a wall second at 10x is five path seconds.
	mk := m.markers[RouteMarkerID]
	assert.InDelta(t, 0.05, mk.position.Lat, 1e-9)
}

func TestRouteController_DeactivationRemovesEverything(t *testing.T) {
	s, c, m, _ := newRouteFixture(t)
	s.SetActive(true, TypeRoute)
	mk := m.markers[RouteMarkerID]
	require.NotNil(t, mk)

	s.SetActive(false, TypeRoute)

	assert.Nil(t, c.Engine())
	assert.Equal(t, 1, mk.removed)
	assert.NotContains(t, m.polylines, RoutePolylineID)
}

func TestRouteController_IgnoresRegionSessions(t *testing.T) {
	s := NewSession(nil)
	m := newRecordingMap()
	c := NewRouteController(s, RouteConfig{Map: m})
	t.Cleanup(c.Close)

	s.SetRegionData(testSlices(), 0, 20000)
	s.SetActive(true, TypeRegion)

	assert.Nil(t, c.Engine())
	assert.NotContains(t, m.markers, RouteMarkerID)
}
