package transport

import (
	"fmt"
	"strconv"

	"github.com/iotlog/fleetengine/internal/geo"
	"github.com/iotlog/fleetengine/internal/measure"
	"github.com/iotlog/fleetengine/internal/playback"
	"github.com/iotlog/fleetengine/pkg/core"
)

// Playback control commands.
const (
	CmdPlaybackStart  = ":PLAYBACK:START:"
	CmdPlaybackStop   = ":PLAYBACK:STOP:"
	CmdPlaybackToggle = ":PLAYBACK:TOGGLE:"
	CmdPlaybackSeek   = ":PLAYBACK:SEEK:"
	CmdPlaybackSpeed  = ":PLAYBACK:SPEED:"
	CmdPlaybackCycle  = ":PLAYBACK:SPEED:CYCLE:"
	CmdPlaybackState  = ":PLAYBACK:STATE:"
)

// Measurement commands.
const (
	CmdMeasurePoint  = ":MEASURE:POINT:"
	CmdMeasureMove   = ":MEASURE:MOVE:"
	CmdMeasureLine   = ":MEASURE:LINE:"
	CmdMeasureUnit   = ":MEASURE:UNIT:"
	CmdMeasureSpeed  = ":MEASURE:SPEED:"
	CmdMeasureLines  = ":MEASURE:LINES:"
	CmdMeasureExport = ":MEASURE:EXPORT:"
	CmdMeasureClear  = ":MEASURE:CLEAR:"
)

// RegisterPlayback binds the playback session to its control commands.
func RegisterPlayback(r *Router, s *playback.Session) {
	r.Register(CmdPlaybackStart, func(c Command) (any, error) {
		if len(c.Args) < 1 {
			return nil, fmt.Errorf("%s needs a playback type", CmdPlaybackStart)
		}
		typ := playback.Type(c.Args[0])
		if typ != playback.TypeRoute && typ != playback.TypeRegion {
			return nil, fmt.Errorf("unknown playback type %q", c.Args[0])
		}
		s.SetActive(true, typ)
		return s.Snapshot(), nil
	}, Logged())

	r.Register(CmdPlaybackStop, func(c Command) (any, error) {
		s.SetActive(false, "")
		return s.Snapshot(), nil
	}, Logged())

	r.Register(CmdPlaybackToggle, func(c Command) (any, error) {
		s.TogglePlay()
		return s.Snapshot(), nil
	})

	r.Register(CmdPlaybackSeek, func(c Command) (any, error) {
		if len(c.Args) < 1 {
			return nil, fmt.Errorf("%s needs a cursor in epoch millis", CmdPlaybackSeek)
		}
		ms, err := strconv.ParseInt(c.Args[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("parsing seek cursor %q: %w", c.Args[0], err)
		}
		s.SetTime(ms, playback.FromUser)
		return s.Snapshot(), nil
	})

	r.Register(CmdPlaybackSpeed, func(c Command) (any, error) {
		if len(c.Args) < 1 {
			return nil, fmt.Errorf("%s needs a multiplier", CmdPlaybackSpeed)
		}
		v, err := strconv.ParseFloat(c.Args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing speed %q: %w", c.Args[0], err)
		}
		s.SetSpeed(v)
		return s.Snapshot(), nil
	})

	r.Register(CmdPlaybackCycle, func(c Command) (any, error) {
		s.CycleSpeed()
		return s.Snapshot(), nil
	})

	r.Register(CmdPlaybackState, func(c Command) (any, error) {
		return s.Snapshot(), nil
	})
}

// RegisterMeasure binds the measurement tracker to its commands.
func RegisterMeasure(r *Router, tr *measure.Tracker) {
	r.Register(CmdMeasurePoint, func(c Command) (any, error) {
		if len(c.Args) < 3 {
			return nil, fmt.Errorf("%s needs line id, lat and lng", CmdMeasurePoint)
		}
		p, err := parseLatLng(c.Args[1], c.Args[2])
		if err != nil {
			return nil, err
		}
		id := tr.AddPoint(c.Args[0], p)
		m, _ := tr.Metrics(id)
		return m, nil
	})

	r.Register(CmdMeasureMove, func(c Command) (any, error) {
		if len(c.Args) < 4 {
			return nil, fmt.Errorf("%s needs line id, point index, lat and lng", CmdMeasureMove)
		}
		idx, err := strconv.Atoi(c.Args[1])
		if err != nil {
			return nil, fmt.Errorf("parsing point index %q: %w", c.Args[1], err)
		}
		p, err := parseLatLng(c.Args[2], c.Args[3])
		if err != nil {
			return nil, err
		}
		if !tr.MovePoint(c.Args[0], idx, p) {
			return nil, fmt.Errorf("no point %d on line %s", idx, c.Args[0])
		}
		m, _ := tr.Metrics(c.Args[0])
		return m, nil
	})

	r.Register(CmdMeasureLine, func(c Command) (any, error) {
		if len(c.Args) < 2 {
			return nil, fmt.Errorf("%s needs a line id and a JSON point array", CmdMeasureLine)
		}
		points, err := geo.ParseLatLngs(c.Args[1])
		if err != nil {
			return nil, err
		}
		id := tr.SetLine(c.Args[0], points)
		m, _ := tr.Metrics(id)
		return m, nil
	}, Logged())

	r.Register(CmdMeasureExport, func(c Command) (any, error) {
		if len(c.Args) < 1 {
			return nil, fmt.Errorf("%s needs a line id", CmdMeasureExport)
		}
		points, ok := tr.Line(c.Args[0])
		if !ok {
			return nil, fmt.Errorf("no line %s", c.Args[0])
		}
		ls, err := geo.LineString(points)
		if err != nil {
			return nil, err
		}
		return ls.AsText(), nil
	})

	r.Register(CmdMeasureUnit, func(c Command) (any, error) {
		if len(c.Args) < 1 {
			return nil, fmt.Errorf("%s needs a unit", CmdMeasureUnit)
		}
		tr.SetUnit(geo.Unit(c.Args[0]))
		return tr.AllMetrics(), nil
	})

	r.Register(CmdMeasureSpeed, func(c Command) (any, error) {
		if len(c.Args) < 1 {
			return nil, fmt.Errorf("%s needs a speed in knots", CmdMeasureSpeed)
		}
		v, err := strconv.ParseFloat(c.Args[0], 64)
		if err != nil {
			return nil, fmt.Errorf("parsing speed %q: %w", c.Args[0], err)
		}
		tr.SetSpeed(v)
		return tr.AllMetrics(), nil
	})

	r.Register(CmdMeasureLines, func(c Command) (any, error) {
		return tr.AllMetrics(), nil
	})

	r.Register(CmdMeasureClear, func(c Command) (any, error) {
		tr.Clear()
		return "cleared", nil
	}, Logged())
}

func parseLatLng(latArg, lngArg string) (core.LatLng, error) {
	lat, err := strconv.ParseFloat(latArg, 64)
	if err != nil {
		return core.LatLng{}, fmt.Errorf("parsing latitude %q: %w", latArg, err)
	}
	lng, err := strconv.ParseFloat(lngArg, 64)
	if err != nil {
		return core.LatLng{}, fmt.Errorf("parsing longitude %q: %w", lngArg, err)
	}
	return core.LatLng{Lat: lat, Lng: lng}, nil
}
